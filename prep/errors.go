package prep

import "fmt"

// DecodeError wraps failures reading or decoding a source image. Corrupt,
// truncated or unsupported inputs all surface here.
type DecodeError struct {
	// Err is the underlying decoder error.
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// EncodeError wraps failures producing JPEG output.
type EncodeError struct {
	// Err is the underlying encoder error.
	Err error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode: %v", e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}
