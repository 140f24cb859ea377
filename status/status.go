// Package status defines the result codes surfaced by every fallible SDK
// operation. Failures are reported as values, never as panics.
package status

import (
	"errors"
	"fmt"
)

type Code int

const (
	OK Code = iota
	NotInitialized
	AlreadyInitialized
	InvalidConfig
	NotConnected
	AlreadyConnected
	ConnectionFailed
	ConnectionTimeout
	InvalidSignal
	SignalTooLarge
	SendFailed
	InvalidParameter
	TerminalNotFound
	InternalError
)

var codeNames = map[Code]string{
	OK:                 "ok",
	NotInitialized:     "not_initialized",
	AlreadyInitialized: "already_initialized",
	InvalidConfig:      "invalid_config",
	NotConnected:       "not_connected",
	AlreadyConnected:   "already_connected",
	ConnectionFailed:   "connection_failed",
	ConnectionTimeout:  "connection_timeout",
	InvalidSignal:      "invalid_signal",
	SignalTooLarge:     "signal_too_large",
	SendFailed:         "send_failed",
	InvalidParameter:   "invalid_parameter",
	TerminalNotFound:   "terminal_not_found",
	InternalError:      "internal_error",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// Error carries a Code alongside a human-readable message.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code.String()
	}
	return e.Code.String() + ": " + e.Message
}

// New returns an Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Errorf formats a message into an Error.
func Errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the Code from err, unwrapping as needed. A nil error maps
// to OK and an error with no embedded code maps to InternalError.
func CodeOf(err error) Code {
	if err == nil {
		return OK
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return InternalError
}
