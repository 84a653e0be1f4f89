package task

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes fatal task errors.
type ErrorCode string

const (
	// ErrCodeConfig marks configuration errors raised at dispatch time
	// (unknown backend, mode mismatch, bad flags).
	ErrCodeConfig ErrorCode = "CONFIG"
	// ErrCodeProtocol marks protocol errors raised at exit-callback time
	// (no determinable status, inconsistent refinement verdict).
	ErrCodeProtocol ErrorCode = "PROTOCOL"
	// ErrCodeProcess marks process-level failures (nonzero exit code of
	// a retcode-checked tool, spawn failures).
	ErrCodeProcess ErrorCode = "PROCESS"
)

// Error is a fatal task abort. Any Error stops the whole task; there is no
// per-engine recovery from one.
type Error struct {
	Code ErrorCode
	// Engine tags the originating engine ("engine_0"), empty for
	// task-level errors.
	Engine  string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Engine != "" {
		return fmt.Sprintf("%s: %s", e.Engine, e.Message)
	}
	return e.Message
}

// IsConfigError reports whether err is a configuration error.
// Uses errors.As to handle wrapped errors.
func IsConfigError(err error) bool {
	var te *Error
	return errors.As(err, &te) && te.Code == ErrCodeConfig
}

// IsProtocolError reports whether err is a protocol error.
func IsProtocolError(err error) bool {
	var te *Error
	return errors.As(err, &te) && te.Code == ErrCodeProtocol
}
