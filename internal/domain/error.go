package domain

import (
	"context"
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CodeInvalidArgument  ErrorCode = "INVALID_ARGUMENT"
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeUnavailable      ErrorCode = "UNAVAILABLE"
	CodeFailedPrecond    ErrorCode = "FAILED_PRECONDITION"
	CodePermissionDenied ErrorCode = "PERMISSION_DENIED"
	CodeInternal         ErrorCode = "INTERNAL"
	CodeCanceled         ErrorCode = "CANCELED"
	CodeDeadlineExceeded ErrorCode = "DEADLINE_EXCEEDED"
)

var (
	ErrInvalidRequest       = errors.New("invalid request")
	ErrServerNotConnected   = errors.New("server not connected")
	ErrToolInvocationFailed = errors.New("tool invocation failed")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrNotPermitted         = errors.New("not permitted for tier")
	ErrStoreClosed          = errors.New("registry store is closed")
	ErrBackendsExhausted    = errors.New("all backend attempts failed")
)

// Error is the gateway's classified error. Code drives the HTTP status the
// API answers with; Op names the operation that failed.
type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	if e.Op == "" {
		if msg == "" {
			return string(e.Code)
		}
		return fmt.Sprintf("%s: %s", e.Code, msg)
	}
	if msg == "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, msg)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func E(code ErrorCode, op, msg string, cause error) *Error {
	if msg == "" && cause != nil {
		msg = cause.Error()
	}
	return &Error{
		Code:    code,
		Op:      op,
		Message: msg,
		Cause:   cause,
	}
}

func Wrap(code ErrorCode, op string, err error) *Error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		if existing.Op != "" || op == "" {
			return existing
		}
		relabeled := *existing
		relabeled.Op = op
		return &relabeled
	}
	return E(code, op, "", err)
}

// ToolInvocationError reports a remote-side failure of a proxied tool call.
// It matches ErrToolInvocationFailed and unwraps to the original cause.
type ToolInvocationError struct {
	ServerID string
	Tool     string
	Cause    error
}

func (e *ToolInvocationError) Error() string {
	return fmt.Sprintf("tool %q on server %s: %v", e.Tool, e.ServerID, e.Cause)
}

func (e *ToolInvocationError) Unwrap() error {
	return e.Cause
}

func (e *ToolInvocationError) Is(target error) bool {
	return target == ErrToolInvocationFailed
}

// RemoteToolError is the error text a tool server returned with isError set.
type RemoteToolError struct {
	Message string
}

func (e *RemoteToolError) Error() string {
	if e.Message == "" {
		return "remote tool reported an error"
	}
	return e.Message
}

func CodeFrom(err error) (ErrorCode, bool) {
	if err == nil {
		return "", false
	}
	var domainErr *Error
	if errors.As(err, &domainErr) && domainErr.Code != "" {
		return domainErr.Code, true
	}
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return CodeInvalidArgument, true
	case errors.Is(err, ErrRegistrationNotFound):
		return CodeNotFound, true
	case errors.Is(err, ErrServerNotConnected):
		return CodeFailedPrecond, true
	case errors.Is(err, ErrNotPermitted):
		return CodePermissionDenied, true
	case errors.Is(err, ErrToolInvocationFailed):
		if errors.Is(err, context.DeadlineExceeded) {
			return CodeDeadlineExceeded, true
		}
		return CodeUnavailable, true
	case errors.Is(err, ErrBackendsExhausted):
		return CodeUnavailable, true
	case errors.Is(err, context.DeadlineExceeded):
		return CodeDeadlineExceeded, true
	case errors.Is(err, context.Canceled):
		return CodeCanceled, true
	default:
		return "", false
	}
}
