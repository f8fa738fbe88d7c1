package service

import (
	"context"

	"zkreview-backend/internal/domains/review/model"
)

// =====================================================
// REVIEW SERVICE INTERFACE
// =====================================================

type ServiceInterface interface {
	// SubmitReview runs the whole submission pipeline: validation,
	// duplicate fast path, proof verification, and the acceptance atomic
	// unit. Failures come back as *model.ReviewError with exactly one
	// rejection reason.
	SubmitReview(ctx context.Context, req model.SubmitReviewRequest) (*model.SubmitReviewResponse, error)

	// GetReview gets one review by its sequential id.
	GetReview(ctx context.Context, id int64) (*model.ReviewResponse, error)

	// ListRecent lists the newest reviews across all products.
	ListRecent(ctx context.Context, limit int) ([]model.ReviewResponse, error)

	// ListByProduct pages through one product's reviews.
	ListByProduct(ctx context.Context, productID string, page, limit int) ([]model.ReviewResponse, error)

	// GetReviewer returns the reputation record for one identity.
	GetReviewer(ctx context.Context, identity string) (*model.ReviewerResponse, error)
}
