package api

import "time"

const (
	// FileCleanupDelay is the delay before cleaning up temp files after the
	// response is sent.
	FileCleanupDelay = 2 * time.Second

	// DefaultFilePermissions for temp directory creation.
	DefaultFilePermissions = 0o755

	// sniffLen is how many leading bytes are checked against image magic
	// numbers before accepting an upload.
	sniffLen = 16
)
