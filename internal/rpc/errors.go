package rpc

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidResponse reports a response that decoded but broke the
	// command's contract (bad ids, duplicate stack entries).
	ErrInvalidResponse = errors.New("invalid response")
	// ErrInvalidInput reports arguments rejected before they were sent.
	ErrInvalidInput = errors.New("invalid input")
)

// ErrorKind classifies a failed call.
type ErrorKind int

const (
	KindTransport ErrorKind = iota
	KindApplication
	KindDecode
	KindTimeout
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindApplication:
		return "application"
	case KindDecode:
		return "decode"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Error is returned by every failed call.
type Error struct {
	Command string
	Kind    ErrorKind
	Status  int    // HTTP status, 0 when no response arrived
	Message string // service-provided message for application errors
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Command, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s error: %v", e.Command, e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s error", e.Command, e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var rpcErr *Error
	return errors.As(err, &rpcErr) && rpcErr.Kind == kind
}
