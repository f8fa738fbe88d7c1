package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	productmodel "zkreview-backend/internal/domains/product/model"
	"zkreview-backend/internal/domains/review/model"
	"zkreview-backend/internal/domains/review/repository"
	"zkreview-backend/internal/infrastructure/zkverify"
	"zkreview-backend/pkg/cache"
)

// =====================================================
// SERVICE IMPLEMENTATION
// =====================================================

// Cache keys. Both uses are advisory only.
const (
	nullifierCachePrefix = "zkreview:nullifier:"
	recentCacheKey       = "zkreview:reviews:recent"
	recentCacheTTL       = 30 * time.Second
	nullifierCacheTTL    = 0 // accepted nullifiers never expire
)

type reviewService struct {
	store       repository.SubmissionStore
	verifier    zkverify.Service
	cache       cache.Cache // may be nil, cache is optional
	blueprintID string
}

func NewReviewService(
	store repository.SubmissionStore,
	verifier zkverify.Service,
	cache cache.Cache,
	blueprintID string,
) ServiceInterface {
	return &reviewService{
		store:       store,
		verifier:    verifier,
		cache:       cache,
		blueprintID: blueprintID,
	}
}

// =====================================================
// SUBMIT REVIEW
// =====================================================

func (s *reviewService) SubmitReview(
	ctx context.Context,
	req model.SubmitReviewRequest,
) (*model.SubmitReviewResponse, error) {
	// Step 1: Shape validation. Nothing downstream runs on bad input.
	if err := req.Validate(); err != nil {
		return nil, model.NewInvalidInputError(err)
	}

	proof, err := zkverify.ParseProof(req.Proof)
	if err != nil {
		return nil, model.NewInvalidInputError(err)
	}

	// Step 2: Extract public fields through the blueprint schema. Any
	// shape mismatch rejects here, before the verifier is ever called.
	fields, err := s.verifier.ExtractPublicFields(proof, s.blueprintID)
	if err != nil {
		return nil, model.NewInvalidInputError(err)
	}

	// Step 3: Advisory duplicate fast path. Saves a verifier round trip
	// on obvious replays; the atomic unit remains the only authority.
	if used, err := s.nullifierSeen(ctx, fields.Nullifier); err != nil {
		return nil, model.NewInternalError(err)
	} else if used {
		return nil, model.NewDuplicateError()
	}

	// Step 4: Verify the proof. Invalid and unavailable are distinct
	// outcomes: only an explicit verifier rejection is final.
	if err := s.verifier.Verify(ctx, proof, s.blueprintID); err != nil {
		switch {
		case errors.Is(err, zkverify.ErrInvalidProof):
			return nil, model.NewInvalidProofError(err)
		case errors.Is(err, zkverify.ErrVerifierUnavailable):
			return nil, model.NewVerifierUnavailableError(err)
		default:
			return nil, model.NewInternalError(err)
		}
	}

	// Step 5: Run the acceptance atomic unit. A lost nullifier race
	// surfaces as a duplicate, with the whole unit rolled back.
	productID := req.ProductID
	if productID == "" {
		productID = productmodel.DeriveProductID(fields.SubjectName)
	}

	sub := &model.Submission{
		ProductID:        productID,
		SubjectName:      fields.SubjectName,
		ReviewerIdentity: req.ReviewerIdentity,
		Content:          req.Content,
		Rating:           req.Rating,
		Nullifier:        fields.Nullifier,
		ServiceName:      req.ServiceName,
	}

	result, err := s.store.Submit(ctx, sub)
	if err != nil {
		if errors.Is(err, model.ErrDuplicateNullifier) {
			return nil, model.NewDuplicateError()
		}
		return nil, model.NewInternalError(err)
	}

	log.Info().
		Int64("review_id", result.Review.ID).
		Str("product_id", result.Product.ID).
		Str("reviewer", result.Reviewer.Identity).
		Int("rating", result.Review.Rating).
		Msg("review accepted")

	// Step 6: Best-effort cache maintenance. The review is already
	// durable; cache failures are logged and ignored.
	s.markNullifier(ctx, fields.Nullifier)
	s.invalidateRecent(ctx)

	return &model.SubmitReviewResponse{
		Accepted:    true,
		ReviewID:    result.Review.ID,
		SubjectName: result.Product.Name,
	}, nil
}

// nullifierSeen consults the cache first, then the store. Cache errors
// degrade to a store check.
func (s *reviewService) nullifierSeen(ctx context.Context, nullifier string) (bool, error) {
	if s.cache != nil {
		hit, err := s.cache.Exists(ctx, nullifierCachePrefix+nullifier)
		if err != nil {
			log.Debug().Err(err).Msg("nullifier cache check failed")
		} else if hit {
			return true, nil
		}
	}

	used, err := s.store.IsNullifierUsed(ctx, nullifier)
	if err != nil {
		return false, fmt.Errorf("failed to check nullifier: %w", err)
	}
	return used, nil
}

func (s *reviewService) markNullifier(ctx context.Context, nullifier string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, nullifierCachePrefix+nullifier, true, nullifierCacheTTL); err != nil {
		log.Warn().Err(err).Msg("failed to mark nullifier in cache")
	}
}

func (s *reviewService) invalidateRecent(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, recentCacheKey); err != nil {
		log.Warn().Err(err).Msg("failed to invalidate recent reviews cache")
	}
}

// =====================================================
// READS
// =====================================================

func (s *reviewService) GetReview(ctx context.Context, id int64) (*model.ReviewResponse, error) {
	rws, err := s.store.GetReview(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrReviewNotFound) {
			return nil, model.NewReviewNotFoundError()
		}
		return nil, model.NewInternalError(err)
	}

	resp := model.ToReviewResponse(rws)
	return &resp, nil
}

func (s *reviewService) ListRecent(ctx context.Context, limit int) ([]model.ReviewResponse, error) {
	// The recent list is only cached for the default page size.
	cacheable := s.cache != nil && limit == model.DefaultRecentLimit

	if cacheable {
		var cached []model.ReviewResponse
		if found, err := s.cache.Get(ctx, recentCacheKey, &cached); err != nil {
			log.Debug().Err(err).Msg("recent reviews cache read failed")
		} else if found {
			return cached, nil
		}
	}

	rows, err := s.store.ListRecent(ctx, limit)
	if err != nil {
		return nil, model.NewInternalError(err)
	}

	resp := model.ToReviewResponses(rows)

	if cacheable {
		if err := s.cache.Set(ctx, recentCacheKey, resp, recentCacheTTL); err != nil {
			log.Debug().Err(err).Msg("recent reviews cache write failed")
		}
	}

	return resp, nil
}

func (s *reviewService) ListByProduct(ctx context.Context, productID string, page, limit int) ([]model.ReviewResponse, error) {
	offset := (page - 1) * limit
	rows, err := s.store.ListByProduct(ctx, productID, limit, offset)
	if err != nil {
		return nil, model.NewInternalError(err)
	}
	return model.ToReviewResponses(rows), nil
}

func (s *reviewService) GetReviewer(ctx context.Context, identity string) (*model.ReviewerResponse, error) {
	reviewer, err := s.store.GetReviewer(ctx, identity)
	if err != nil {
		if errors.Is(err, model.ErrReviewerNotFound) {
			return nil, model.NewReviewerNotFoundError()
		}
		return nil, model.NewInternalError(err)
	}

	resp := model.ToReviewerResponse(reviewer)
	return &resp, nil
}
