package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// =====================================================
// REQUEST DTOs
// =====================================================

// SubmitReviewRequest is the submission payload. The proof is opaque here;
// its shape is checked by the verification adapter. ProductID is optional:
// when empty the id is derived from the proof's subject name.
type SubmitReviewRequest struct {
	Proof            json.RawMessage `json:"proof" binding:"required"`
	Content          string          `json:"content" binding:"required"`
	Rating           int             `json:"rating" binding:"required"`
	ServiceName      string          `json:"service_name" binding:"required"`
	ReviewerIdentity string          `json:"reviewer_identity" binding:"required"`
	ProductID        string          `json:"product_id"`
}

func (r SubmitReviewRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Proof, validation.Required.Error("proof is required")),
		validation.Field(&r.Content,
			validation.Required.Error("content is required"),
			validation.Length(1, MaxContentLength)),
		validation.Field(&r.Rating,
			validation.Required.Error("rating is required"),
			validation.Min(MinRating), validation.Max(MaxRating)),
		validation.Field(&r.ServiceName,
			validation.Required.Error("service name is required"),
			validation.Length(1, MaxServiceNameLength)),
		validation.Field(&r.ReviewerIdentity,
			validation.Required.Error("reviewer identity is required"),
			validation.By(validHexAddress)),
		validation.Field(&r.ProductID, validation.Length(0, 128)),
	)
}

func validHexAddress(value interface{}) error {
	s, _ := value.(string)
	if !common.IsHexAddress(s) {
		return fmt.Errorf("must be a 0x-prefixed hex address")
	}
	return nil
}

// ListRecentRequest bounds the recent-reviews listing.
type ListRecentRequest struct {
	Limit int `form:"limit"`
}

func (r *ListRecentRequest) Normalize() {
	if r.Limit < 1 || r.Limit > MaxListLimit {
		r.Limit = DefaultRecentLimit
	}
}

// ListByProductRequest paginates a product's reviews.
type ListByProductRequest struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

func (r *ListByProductRequest) Normalize() {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.Limit < 1 || r.Limit > MaxListLimit {
		r.Limit = DefaultRecentLimit
	}
}

// =====================================================
// RESPONSE DTOs
// =====================================================

// SubmitReviewResponse acknowledges an accepted submission.
type SubmitReviewResponse struct {
	Accepted    bool   `json:"accepted"`
	ReviewID    int64  `json:"review_id"`
	SubjectName string `json:"subject_name"`
}

// ReviewResponse is the read shape for a single review.
type ReviewResponse struct {
	ID          int64     `json:"id"`
	ProductID   string    `json:"product_id"`
	SubjectName string    `json:"subject_name"`
	Content     string    `json:"content"`
	Rating      int       `json:"rating"`
	ServiceName string    `json:"service_name"`
	Verified    bool      `json:"verified"`
	Timestamp   time.Time `json:"timestamp"`
}

// ReviewerResponse is the reputation readout for one identity.
type ReviewerResponse struct {
	Identity    string    `json:"identity"`
	Reputation  int64     `json:"reputation"`
	ReviewCount int64     `json:"review_count"`
	FirstSeenAt time.Time `json:"first_seen_at"`
}

// ToReviewResponse maps a joined review row to its response shape.
func ToReviewResponse(r *ReviewWithSubject) ReviewResponse {
	return ReviewResponse{
		ID:          r.ID,
		ProductID:   r.ProductID,
		SubjectName: r.SubjectName,
		Content:     r.Content,
		Rating:      r.Rating,
		ServiceName: r.ServiceName,
		Verified:    r.Verified,
		Timestamp:   r.CreatedAt,
	}
}

// ToReviewResponses maps a list of joined rows.
func ToReviewResponses(rows []ReviewWithSubject) []ReviewResponse {
	out := make([]ReviewResponse, 0, len(rows))
	for i := range rows {
		out = append(out, ToReviewResponse(&rows[i]))
	}
	return out
}

// ToReviewerResponse maps a reviewer entity.
func ToReviewerResponse(r *Reviewer) ReviewerResponse {
	return ReviewerResponse{
		Identity:    r.Identity,
		Reputation:  r.Reputation,
		ReviewCount: r.ReviewCount,
		FirstSeenAt: r.CreatedAt,
	}
}
