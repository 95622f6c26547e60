package domain

import (
	"errors"
	"sort"
	"strings"
)

// Admission pipeline rejections. Each one is terminal and distinguishable.
var (
	ErrAuthRequired      = errors.New("authentication required")
	ErrProfileIncomplete = errors.New("profile incomplete: display name required")
	ErrPendingApproval   = errors.New("bidder registration pending approval")
	ErrInvalidIncrement  = errors.New("increment is not one of the configured steps")
	ErrAuctionClosed     = errors.New("auction is not open")
	ErrConflict          = errors.New("price changed before the bid was recorded")
)

// Verification workflow errors.
var (
	ErrValidation           = errors.New("validation failed")
	ErrAlreadyApproved      = errors.New("verification already approved")
	ErrNotPending           = errors.New("verification request is not pending review")
	ErrInvalidDecision      = errors.New("review decision must be approved or rejected")
	ErrVerificationNotFound = errors.New("verification request not found")
	ErrPartialFailure       = errors.New("review partially applied: approval flag and request status disagree")
)

// Lookup, auth and storage errors.
var (
	ErrItemNotFound       = errors.New("item not found")
	ErrInvalidItem        = errors.New("invalid item")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("access forbidden")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ValidationError carries per-field messages for a rejected submission.
// errors.Is(err, ErrValidation) holds for every ValidationError.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a ValidationError from a field → message map.
func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, e.Fields[k])
	}
	return ErrValidation.Error() + ": " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Stable machine-readable codes for the sentinels above.
const (
	CodeAuthRequired       = "AUTH_REQUIRED"
	CodeProfileIncomplete  = "PROFILE_INCOMPLETE"
	CodePendingApproval    = "PENDING_APPROVAL"
	CodeInvalidIncrement   = "INVALID_INCREMENT"
	CodeAuctionClosed      = "AUCTION_CLOSED"
	CodeConflict           = "CONFLICT"
	CodeValidation         = "VALIDATION"
	CodeAlreadyApproved    = "ALREADY_APPROVED"
	CodeNotPending         = "NOT_PENDING"
	CodeInvalidDecision    = "INVALID_DECISION"
	CodeNotFound           = "NOT_FOUND"
	CodePartialFailure     = "PARTIAL_FAILURE"
	CodeStorageUnavailable = "STORAGE_UNAVAILABLE"
	CodeInvalidItem        = "INVALID_ITEM"
	CodeUserExists         = "USER_EXISTS"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeForbidden          = "FORBIDDEN"
	CodeInternal           = "INTERNAL"
)

// ErrorCode returns the code of the first known sentinel err wraps, or
// CodeInternal. PartialFailure is checked first because it wraps the
// underlying store error.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrPartialFailure):
		return CodePartialFailure
	case errors.Is(err, ErrAuthRequired):
		return CodeAuthRequired
	case errors.Is(err, ErrProfileIncomplete):
		return CodeProfileIncomplete
	case errors.Is(err, ErrPendingApproval):
		return CodePendingApproval
	case errors.Is(err, ErrInvalidIncrement):
		return CodeInvalidIncrement
	case errors.Is(err, ErrAuctionClosed):
		return CodeAuctionClosed
	case errors.Is(err, ErrConflict):
		return CodeConflict
	case errors.Is(err, ErrValidation):
		return CodeValidation
	case errors.Is(err, ErrAlreadyApproved):
		return CodeAlreadyApproved
	case errors.Is(err, ErrNotPending):
		return CodeNotPending
	case errors.Is(err, ErrInvalidDecision):
		return CodeInvalidDecision
	case errors.Is(err, ErrItemNotFound), errors.Is(err, ErrUserNotFound), errors.Is(err, ErrVerificationNotFound):
		return CodeNotFound
	case errors.Is(err, ErrInvalidItem):
		return CodeInvalidItem
	case errors.Is(err, ErrUserExists):
		return CodeUserExists
	case errors.Is(err, ErrInvalidCredentials):
		return CodeInvalidCredentials
	case errors.Is(err, ErrForbidden):
		return CodeForbidden
	case errors.Is(err, ErrStorageUnavailable):
		return CodeStorageUnavailable
	}
	return CodeInternal
}
