package repository

import (
	"context"

	productmodel "zkreview-backend/internal/domains/product/model"
	"zkreview-backend/internal/domains/review/model"
)

// =====================================================
// SUBMISSION STORE INTERFACE
// =====================================================

// SubmissionResult is everything the atomic unit produced: the persisted
// review plus the post-update aggregates.
type SubmissionResult struct {
	Review   *model.Review
	Product  *productmodel.Product
	Reviewer *model.Reviewer
}

// SubmissionStore is the storage strategy behind the submission pipeline.
// The postgres and ledger backends implement it with identical semantics;
// the orchestrator never knows which one it is talking to.
type SubmissionStore interface {
	// IsNullifierUsed is the advisory duplicate fast path. A false answer
	// proves nothing; only Submit decides.
	IsNullifierUsed(ctx context.Context, nullifier string) (bool, error)

	// Submit runs the acceptance atomic unit: reserve the nullifier,
	// persist the review with the next sequential id, and apply both
	// aggregate updates. All of it commits or none of it does. A nullifier
	// already reserved, including by a concurrent racer, returns
	// model.ErrDuplicateNullifier with no side effects.
	Submit(ctx context.Context, sub *model.Submission) (*SubmissionResult, error)

	// GetReview returns one review joined with its product name.
	GetReview(ctx context.Context, id int64) (*model.ReviewWithSubject, error)

	// ListRecent returns up to limit reviews, newest first; reviews with
	// equal timestamps come back in ascending id order.
	ListRecent(ctx context.Context, limit int) ([]model.ReviewWithSubject, error)

	// ListByProduct pages through one product's reviews, newest first.
	ListByProduct(ctx context.Context, productID string, limit, offset int) ([]model.ReviewWithSubject, error)

	// GetReviewer returns the reputation record for one identity.
	GetReviewer(ctx context.Context, identity string) (*model.Reviewer, error)
}
