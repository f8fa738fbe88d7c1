package repository

import (
	"context"

	"zkreview-backend/internal/domains/product/model"
)

// =====================================================
// PRODUCT REPOSITORY INTERFACE
// =====================================================

// ProductRepository serves explicit product registration and the product
// read endpoints. Aggregate mutation never happens here; only the
// accepted-review atomic unit touches totals.
type ProductRepository interface {
	// Create registers a product explicitly. An existing id returns
	// model.ErrProductExists.
	Create(ctx context.Context, product *model.Product) error

	// GetByID returns one product.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// List pages through the catalog, newest first. Returns the page and
	// the total product count.
	List(ctx context.Context, limit, offset int) ([]model.Product, int, error)
}
