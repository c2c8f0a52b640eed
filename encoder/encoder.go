// Package encoder produces baseline JPEG bytes under a byte budget by
// walking a descending quality ladder.
package encoder

import (
	"bytes"
	"image"
	"image/jpeg"

	"github.com/pkg/errors"
)

const (
	// DefaultMaxBytes is the transfer ceiling for D-STAR image terminals:
	// 200 KB, byte-exact.
	DefaultMaxBytes = 200 * 1024
	// DefaultQualityStart is the first quality level tried.
	DefaultQualityStart = 88
	// DefaultQualityMin is the floor of the quality ladder.
	DefaultQualityMin = 35
	// DefaultQualityStep is the decrement between ladder rungs.
	DefaultQualityStep = 3
)

// Budget describes the size ceiling and the quality ladder used to reach it.
// Immutable configuration; the zero value is not valid, use DefaultBudget.
type Budget struct {
	// MaxBytes is the byte-exact upper bound on the encoded output.
	MaxBytes int
	// QualityStart is the first (highest) JPEG quality tried.
	QualityStart int
	// QualityMin is the lowest quality tried before giving up.
	QualityMin int
	// QualityStep is subtracted from the quality after each oversized attempt.
	QualityStep int
}

// DefaultBudget returns the stock ladder: 200 KB ceiling, quality 88 down to
// 35 in steps of 3.
func DefaultBudget() Budget {
	return Budget{
		MaxBytes:     DefaultMaxBytes,
		QualityStart: DefaultQualityStart,
		QualityMin:   DefaultQualityMin,
		QualityStep:  DefaultQualityStep,
	}
}

// validate rejects budgets the ladder walk cannot terminate on.
func (b Budget) validate() error {
	if b.MaxBytes <= 0 {
		return errors.Errorf("invalid budget: max bytes %d", b.MaxBytes)
	}
	if b.QualityStep <= 0 {
		return errors.Errorf("invalid budget: quality step %d", b.QualityStep)
	}
	if b.QualityStart < b.QualityMin {
		return errors.Errorf("invalid budget: start quality %d below minimum %d", b.QualityStart, b.QualityMin)
	}
	return nil
}

// Result is one encoded output: the bytes, the quality that produced them,
// and whether they fit the budget.
type Result struct {
	// Data is the encoded JPEG.
	Data []byte
	// Quality is the JPEG quality level used.
	Quality int
	// Fit is true when len(Data) is within the budget. False means the
	// ladder was exhausted and Data holds the lowest-quality attempt.
	Fit bool
}

// Size returns the encoded byte count.
func (r Result) Size() int {
	return len(r.Data)
}

// EncodeJPEG encodes an image as a baseline (SOF0) JPEG at the given quality.
// The standard library encoder only emits sequential baseline streams, so the
// output is decodable by hardware that rejects progressive JPEG.
//
// Arguments:
// - img: The image to encode.
// - quality: JPEG quality, clamped to [1, 100].
//
// Returns:
// - []byte: The encoded JPEG.
// - error: An error if encoding fails.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if img == nil {
		return nil, errors.New("nil image")
	}
	if quality < 1 {
		quality = 1
	}
	if quality > 100 {
		quality = 100
	}

	var buf bytes.Buffer
	buf.Grow(64 * 1024)
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, errors.Wrap(err, "jpeg encode failed")
	}
	return buf.Bytes(), nil
}

// EncodeUnderBudget encodes an image repeatedly, stepping the quality down
// from Budget.QualityStart until the output fits Budget.MaxBytes or the
// ladder reaches Budget.QualityMin. When no rung fits, the lowest-quality
// result is returned with Fit set to false rather than failing: a slightly
// oversized frame is still more useful to an operator than no frame.
//
// Arguments:
// - img: The image to encode.
// - budget: The size ceiling and quality ladder.
//
// Returns:
// - Result: The first fitting encode, or the smallest attempt with Fit=false.
// - error: An error if the budget is invalid or the encoder fails outright.
func EncodeUnderBudget(img image.Image, budget Budget) (Result, error) {
	if err := budget.validate(); err != nil {
		return Result{}, err
	}

	var last Result
	for q := budget.QualityStart; q >= budget.QualityMin; q -= budget.QualityStep {
		data, err := EncodeJPEG(img, q)
		if err != nil {
			return Result{}, err
		}
		last = Result{Data: data, Quality: q}
		if len(data) <= budget.MaxBytes {
			last.Fit = true
			return last, nil
		}
	}

	return last, nil
}
