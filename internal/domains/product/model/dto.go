package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
)

// =====================================================
// REQUEST DTOs
// =====================================================

// CreateProductRequest registers a product explicitly, ahead of any review.
// ID is optional; when empty it is derived from the name the same way
// implicit creation derives it.
type CreateProductRequest struct {
	ID           string `json:"id"`
	Name         string `json:"name" binding:"required"`
	Manufacturer string `json:"manufacturer"`
}

func (r CreateProductRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ID, validation.Length(0, 128)),
		validation.Field(&r.Name, validation.Required.Error("name is required"), validation.Length(1, 255)),
		validation.Field(&r.Manufacturer, validation.Length(0, 255)),
	)
}

// ListProductsRequest paginates the product catalog.
type ListProductsRequest struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

func (r *ListProductsRequest) Normalize() {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.Limit < 1 || r.Limit > 100 {
		r.Limit = 20
	}
}

// =====================================================
// RESPONSE DTOs
// =====================================================

// ProductResponse carries a product with its derived average rating.
type ProductResponse struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Manufacturer  string          `json:"manufacturer"`
	TotalRating   int64           `json:"total_rating"`
	ReviewCount   int64           `json:"review_count"`
	AverageRating decimal.Decimal `json:"average_rating"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ToResponse maps a product entity to its response shape.
func ToResponse(p *Product) ProductResponse {
	return ProductResponse{
		ID:            p.ID,
		Name:          p.Name,
		Manufacturer:  p.Manufacturer,
		TotalRating:   p.TotalRating,
		ReviewCount:   p.ReviewCount,
		AverageRating: p.AverageRating(),
		CreatedAt:     p.CreatedAt,
	}
}
