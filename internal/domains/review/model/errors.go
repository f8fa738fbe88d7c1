package model

import (
	"errors"
	"fmt"
)

// Rejection reasons, surfaced verbatim to clients. A submission fails with
// exactly one of these.
const (
	ReasonInvalidInput        = "invalid-input"
	ReasonDuplicate           = "duplicate"
	ReasonInvalidProof        = "invalid-proof"
	ReasonVerifierUnavailable = "verifier-unavailable"
	ReasonInternal            = "internal"
)

// Error codes
const (
	ErrCodeInvalidInput        = "ZKR001"
	ErrCodeDuplicateNullifier  = "ZKR002"
	ErrCodeInvalidProof        = "ZKR003"
	ErrCodeVerifierUnavailable = "ZKR004"
	ErrCodeInternal            = "ZKR005"
	ErrCodeReviewNotFound      = "ZKR006"
	ErrCodeReviewerNotFound    = "ZKR007"
)

// Errors
var (
	ErrDuplicateNullifier = errors.New("nullifier already used")
	ErrReviewNotFound     = errors.New("review not found")
	ErrReviewerNotFound   = errors.New("reviewer not found")
)

// ReviewError custom error type. Reason distinguishes final rejections
// from retryable failures; only verifier-unavailable and internal are
// retryable, and retrying them with the identical proof is safe because a
// failed unit reserves nothing.
type ReviewError struct {
	Code    string
	Reason  string
	Message string
	Err     error
}

func (e *ReviewError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ReviewError) Unwrap() error {
	return e.Err
}

// Error constructors
func NewInvalidInputError(err error) *ReviewError {
	return &ReviewError{
		Code:    ErrCodeInvalidInput,
		Reason:  ReasonInvalidInput,
		Message: "Submission failed validation",
		Err:     err,
	}
}

func NewDuplicateError() *ReviewError {
	return &ReviewError{
		Code:    ErrCodeDuplicateNullifier,
		Reason:  ReasonDuplicate,
		Message: "A review for this proof has already been accepted",
		Err:     ErrDuplicateNullifier,
	}
}

func NewInvalidProofError(err error) *ReviewError {
	return &ReviewError{
		Code:    ErrCodeInvalidProof,
		Reason:  ReasonInvalidProof,
		Message: "Proof verification failed",
		Err:     err,
	}
}

func NewVerifierUnavailableError(err error) *ReviewError {
	return &ReviewError{
		Code:    ErrCodeVerifierUnavailable,
		Reason:  ReasonVerifierUnavailable,
		Message: "Proof verifier is unavailable, retry later",
		Err:     err,
	}
}

func NewInternalError(err error) *ReviewError {
	return &ReviewError{
		Code:    ErrCodeInternal,
		Reason:  ReasonInternal,
		Message: "Internal error",
		Err:     err,
	}
}

func NewReviewNotFoundError() *ReviewError {
	return &ReviewError{
		Code:    ErrCodeReviewNotFound,
		Message: "Review not found",
		Err:     ErrReviewNotFound,
	}
}

func NewReviewerNotFoundError() *ReviewError {
	return &ReviewError{
		Code:    ErrCodeReviewerNotFound,
		Message: "Reviewer not found",
		Err:     ErrReviewerNotFound,
	}
}
