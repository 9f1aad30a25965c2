package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound        ErrorCode = "NOT_FOUND"
	ErrCodeInvalid         ErrorCode = "INVALID"
	ErrCodeConflict        ErrorCode = "CONFLICT"
	ErrCodeForbidden       ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized    ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal        ErrorCode = "INTERNAL"
	ErrCodeStorage         ErrorCode = "STORAGE"
	ErrCodeDeserialization ErrorCode = "DESERIALIZATION"
	ErrCodeInvalidSchedule ErrorCode = "INVALID_SCHEDULE"
	ErrCodeSync            ErrorCode = "SYNC"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches domain errors by code and message so wrapped sentinels compare equal.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain errors.
var (
	ErrTaskNotFound     = NewError(ErrCodeNotFound, "task not found")
	ErrGoalNotFound     = NewError(ErrCodeNotFound, "goal not found")
	ErrReminderNotFound = NewError(ErrCodeNotFound, "reminder not found")
	ErrSessionNotFound  = NewError(ErrCodeNotFound, "session not found")
	ErrUnauthorized     = NewError(ErrCodeUnauthorized, "unauthorized")
	ErrInvalidPayload   = NewError(ErrCodeInvalid, "invalid payload")
	ErrNoIdentity       = NewError(ErrCodeUnauthorized, "no current identity")
	ErrSyncInProgress   = NewError(ErrCodeConflict, "sync already in progress")
	ErrStaleWrite       = NewError(ErrCodeConflict, "remote copy is newer")
	ErrOffline          = NewError(ErrCodeSync, "remote store unreachable")
	ErrQuotaExceeded    = NewError(ErrCodeStorage, "local storage quota exceeded")
)

// StorageError classifies a failed local write.
func StorageError(key string, err error) *Error {
	return WrapError(ErrCodeStorage, fmt.Sprintf("write %q rejected", key), err)
}

// DeserializationError classifies an unreadable persisted value.
func DeserializationError(key string, err error) *Error {
	return WrapError(ErrCodeDeserialization, fmt.Sprintf("decode %q", key), err)
}

// InvalidScheduleError reports why a reminder could not be armed.
func InvalidScheduleError(reason string) *Error {
	return NewError(ErrCodeInvalidSchedule, reason)
}

// SyncError classifies a failed remote call during a sync run.
func SyncError(phase string, err error) *Error {
	return WrapError(ErrCodeSync, phase+" failed", err)
}

// ValidationError wraps a field validation failure.
func ValidationError(err error) *Error {
	return WrapError(ErrCodeInvalid, "validation failed", err)
}

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}
