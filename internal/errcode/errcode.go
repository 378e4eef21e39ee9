// Package errcode provides layered error codes for the portal backend.
// Code format: MMBBBB (MM = module code 2 digits, BBBB = business code 4 digits).
package errcode

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a coded error with an HTTP status mapping.
// Instances are immutable; With*/Wrap return clones.
type Error struct {
	module     string
	code       int
	msg        string
	httpStatus int
	cause      error
}

// New creates a coded error.
// moduleCode: 10-99, businessCode: 0001-9999.
func New(moduleCode, businessCode int, module, msg string, httpStatus int) *Error {
	return &Error{
		module:     module,
		code:       moduleCode*10000 + businessCode,
		msg:        msg,
		httpStatus: httpStatus,
	}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

// Code returns the full MMBBBB code.
func (e *Error) Code() int {
	return e.code
}

// Module returns the owning module name.
func (e *Error) Module() string {
	return e.module
}

// Message returns the bare message without the cause chain.
func (e *Error) Message() string {
	return e.msg
}

// HTTPStatus returns the mapped HTTP status code.
func (e *Error) HTTPStatus() int {
	return e.httpStatus
}

// Unwrap supports errors.Is/As over the cause chain.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches by code, so wrapped clones still compare equal to the sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.code == t.code
}

// WithMsgf replaces the message (returns a new instance).
func (e *Error) WithMsgf(format string, args ...any) *Error {
	clone := *e
	clone.msg = fmt.Sprintf(format, args...)
	return &clone
}

// Wrap attaches the original error (returns a new instance).
func (e *Error) Wrap(cause error) *Error {
	if cause == nil {
		return e
	}
	clone := *e
	clone.cause = cause
	return &clone
}

// Wrapf attaches the cause and replaces the message (returns a new instance).
func (e *Error) Wrapf(cause error, format string, args ...any) *Error {
	clone := *e
	clone.cause = cause
	clone.msg = fmt.Sprintf(format, args...)
	return &clone
}

// FromError extracts a coded error from an arbitrary error chain.
// Unknown errors map to ErrInternal so handlers always have a status to send.
func FromError(err error) *Error {
	var coded *Error
	if errors.As(err, &coded) {
		return coded
	}
	return ErrInternal.Wrap(err)
}

// Module codes.
const (
	ModuleCommon  = 10
	ModuleMember  = 20
	ModuleRanking = 30
	ModuleCache   = 40
)

// Common errors.
var (
	ErrInternal        = New(ModuleCommon, 1, "common", "internal error", http.StatusInternalServerError)
	ErrInvalidArgument = New(ModuleCommon, 2, "common", "invalid argument", http.StatusBadRequest)
	ErrUnauthorized    = New(ModuleCommon, 3, "common", "unauthorized", http.StatusUnauthorized)
	ErrForbidden       = New(ModuleCommon, 4, "common", "forbidden", http.StatusForbidden)
	ErrRateLimited     = New(ModuleCommon, 5, "common", "too many requests", http.StatusTooManyRequests)
)

// Member errors.
var (
	ErrMemberNotFound  = New(ModuleMember, 1, "member", "member not found", http.StatusNotFound)
	ErrMemberInactive  = New(ModuleMember, 2, "member", "member is inactive", http.StatusNotFound)
	ErrInvalidMemberID = New(ModuleMember, 3, "member", "invalid member id", http.StatusBadRequest)
)

// Ranking errors.
var (
	ErrInvalidPage       = New(ModuleRanking, 1, "ranking", "invalid page or page size", http.StatusBadRequest)
	ErrInvalidAdjustMode = New(ModuleRanking, 2, "ranking", "invalid score adjust mode", http.StatusBadRequest)
	ErrStoreUnavailable  = New(ModuleRanking, 3, "ranking", "record store unavailable", http.StatusServiceUnavailable)
)
