package errors

import (
	"fmt"
	"net/http"
)

// Error codes for the versioning engine. These are stable identifiers that
// callers (and tests) match on; the messages are free to change.
const (
	CodeReferenceNotFound  = "REFERENCE_NOT_FOUND"
	CodeVersionConflict    = "VERSION_CONFLICT"
	CodeDuplicateVersion   = "DUPLICATE_VERSION"
	CodeStaleToken         = "STALE_TOKEN"
	CodeInvariantViolation = "INVARIANT_VIOLATION"
)

// NewReferenceNotFound signals that a pinned or dynamic reference resolved
// to nothing. Always surfaced to the caller, never silently defaulted.
func NewReferenceNotFound(target string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       CodeReferenceNotFound,
		Message:    fmt.Sprintf("reference %s resolves to nothing", target),
		HTTPStatus: http.StatusNotFound,
	}
}

// NewVersionConflict signals that concurrent versioning attempts exhausted
// the retry budget. The caller may resubmit.
func NewVersionConflict(target string, attempts int) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       CodeVersionConflict,
		Message:    fmt.Sprintf("versioning %s failed after %d attempts due to concurrent writers", target, attempts),
		Retryable:  true,
		HTTPStatus: http.StatusConflict,
	}
}

// NewDuplicateVersion is the internal signal raised when an insert loses the
// next-version race. It never reaches callers: the retry coordinator absorbs
// it and either retries or converts it into a version conflict.
func NewDuplicateVersion(target string) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       CodeDuplicateVersion,
		Message:    fmt.Sprintf("version of %s already exists", target),
		Retryable:  true,
		HTTPStatus: http.StatusConflict,
	}
}

// NewStaleToken signals that a conditional update targeted a concurrency
// token that another writer already rolled. Handled like DuplicateVersion.
func NewStaleToken(target string) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       CodeStaleToken,
		Message:    fmt.Sprintf("concurrency token for %s is stale", target),
		Retryable:  true,
		HTTPStatus: http.StatusConflict,
	}
}

// NewInvariantViolation signals a defensive check failure that indicates a
// bug (for example two active versions at one slot). Fatal, non-retryable.
func NewInvariantViolation(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInvariant,
		Code:       CodeInvariantViolation,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
	}
}

// hasCode reports whether err is an AppError carrying the given code
func hasCode(err error, code string) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Code == code
}

// IsReferenceNotFound matches unresolvable references
func IsReferenceNotFound(err error) bool {
	return hasCode(err, CodeReferenceNotFound)
}

// IsVersionConflict matches retry-budget exhaustion
func IsVersionConflict(err error) bool {
	return hasCode(err, CodeVersionConflict)
}

// IsDuplicateVersion matches the internal lost-insert-race signal
func IsDuplicateVersion(err error) bool {
	return hasCode(err, CodeDuplicateVersion)
}

// IsStaleToken matches the internal stale-concurrency-token signal
func IsStaleToken(err error) bool {
	return hasCode(err, CodeStaleToken)
}

// IsInvariantViolation matches defensive check failures
func IsInvariantViolation(err error) bool {
	return hasCode(err, CodeInvariantViolation)
}
