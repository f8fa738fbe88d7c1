package service

import (
	"context"

	"zkreview-backend/internal/domains/product/model"
)

// =====================================================
// PRODUCT SERVICE INTERFACE
// =====================================================

type ServiceInterface interface {
	// CreateProduct registers a product explicitly ahead of any review
	// (admin operation).
	CreateProduct(ctx context.Context, req model.CreateProductRequest) (*model.ProductResponse, error)

	// GetProduct returns one product with its derived average rating.
	GetProduct(ctx context.Context, id string) (*model.ProductResponse, error)

	// ListProducts pages through the catalog.
	ListProducts(ctx context.Context, page, limit int) ([]model.ProductResponse, int, error)
}
