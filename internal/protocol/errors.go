// internal/protocol/errors.go
package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrTruncated        = errors.New("protocol: truncated frame")
	ErrBadFraming       = errors.New("protocol: bad framing")
	ErrChecksumMismatch = errors.New("protocol: checksum mismatch")
	ErrNotWriteText     = errors.New("protocol: not a write-text frame")
	ErrNAK              = errors.New("protocol: sign rejected frame")
)

// ErrorCodeEncoding is the status-block code published for EncodingError.
const ErrorCodeEncoding uint16 = 2

// EncodingError reports a frame that cannot be built. It is always a caller
// or configuration bug and is raised before any I/O.
type EncodingError struct {
	Field  string
	Reason string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("protocol: cannot encode %s: %s", e.Field, e.Reason)
}

// Code returns the status-block error code.
func (e *EncodingError) Code() uint16 { return ErrorCodeEncoding }

func encodingErr(field, format string, args ...any) error {
	return &EncodingError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
