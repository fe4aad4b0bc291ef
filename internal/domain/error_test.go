package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{name: "code only", err: &Error{Code: CodeInternal}, want: "INTERNAL"},
		{name: "code and message", err: &Error{Code: CodeNotFound, Message: "gone"}, want: "NOT_FOUND: gone"},
		{name: "op without message", err: &Error{Code: CodeUnavailable, Op: "connect"}, want: "connect: UNAVAILABLE"},
		{name: "full", err: E(CodeInvalidArgument, "add", "bad url", ErrInvalidRequest), want: "add: INVALID_ARGUMENT: bad url"},
		{name: "message from cause", err: E(CodeInternal, "save", "", errors.New("disk full")), want: "save: INTERNAL: disk full"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestWrapKeepsExistingError(t *testing.T) {
	inner := E(CodeNotFound, "", "missing", ErrRegistrationNotFound)
	wrapped := Wrap(CodeInternal, "reconnect", inner)

	require.NotNil(t, wrapped)
	assert.Equal(t, CodeNotFound, wrapped.Code)
	assert.Equal(t, "reconnect", wrapped.Op)
	assert.ErrorIs(t, wrapped, ErrRegistrationNotFound)

	assert.Nil(t, Wrap(CodeInternal, "noop", nil))
	assert.Same(t, inner, Wrap(CodeInternal, "", inner))
}

func TestCodeFrom(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
		ok   bool
	}{
		{name: "nil", err: nil, ok: false},
		{name: "domain error", err: E(CodePermissionDenied, "route", "", nil), want: CodePermissionDenied, ok: true},
		{name: "invalid sentinel", err: fmt.Errorf("parse: %w", ErrInvalidRequest), want: CodeInvalidArgument, ok: true},
		{name: "not found sentinel", err: ErrRegistrationNotFound, want: CodeNotFound, ok: true},
		{name: "not connected", err: ErrServerNotConnected, want: CodeFailedPrecond, ok: true},
		{name: "not permitted", err: ErrNotPermitted, want: CodePermissionDenied, ok: true},
		{
			name: "remote failure",
			err:  &ToolInvocationError{ServerID: "a", Tool: "t", Cause: &RemoteToolError{Message: "boom"}},
			want: CodeUnavailable,
			ok:   true,
		},
		{
			name: "remote timeout",
			err:  &ToolInvocationError{ServerID: "a", Tool: "t", Cause: fmt.Errorf("%w: read tcp", context.DeadlineExceeded)},
			want: CodeDeadlineExceeded,
			ok:   true,
		},
		{name: "exhausted", err: ErrBackendsExhausted, want: CodeUnavailable, ok: true},
		{name: "deadline", err: context.DeadlineExceeded, want: CodeDeadlineExceeded, ok: true},
		{name: "canceled", err: context.Canceled, want: CodeCanceled, ok: true},
		{name: "unknown", err: errors.New("?"), ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CodeFrom(tt.err)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToolInvocationError(t *testing.T) {
	cause := &RemoteToolError{Message: "boom"}
	err := error(&ToolInvocationError{ServerID: "srv", Tool: "echo", Cause: cause})

	assert.ErrorIs(t, err, ErrToolInvocationFailed)
	var remote *RemoteToolError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, "boom", remote.Message)
	assert.Equal(t, `tool "echo" on server srv: boom`, err.Error())
	assert.Equal(t, "remote tool reported an error", (&RemoteToolError{}).Error())
}
