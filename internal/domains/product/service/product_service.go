package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"zkreview-backend/internal/domains/product/model"
	"zkreview-backend/internal/domains/product/repository"
)

// =====================================================
// SERVICE IMPLEMENTATION
// =====================================================

type productService struct {
	productRepo repository.ProductRepository
}

func NewProductService(productRepo repository.ProductRepository) ServiceInterface {
	return &productService{productRepo: productRepo}
}

func (s *productService) CreateProduct(ctx context.Context, req model.CreateProductRequest) (*model.ProductResponse, error) {
	// Step 1: Validate request
	if err := req.Validate(); err != nil {
		return nil, model.NewInvalidProductError(err)
	}

	// Step 2: Build the entity. An explicit id wins; otherwise the id is
	// derived from the name exactly like implicit creation derives it, so
	// later reviews of the same subject land on this product.
	id := req.ID
	if id == "" {
		id = model.DeriveProductID(req.Name)
	}

	manufacturer := req.Manufacturer
	if manufacturer == "" {
		manufacturer = model.PlaceholderManufacturer
	}

	product := &model.Product{
		ID:           id,
		Name:         req.Name,
		Manufacturer: manufacturer,
	}

	// Step 3: Persist
	if err := s.productRepo.Create(ctx, product); err != nil {
		if errors.Is(err, model.ErrProductExists) {
			return nil, model.NewProductExistsError()
		}
		return nil, err
	}

	log.Info().
		Str("product_id", product.ID).
		Str("name", product.Name).
		Msg("product created")

	resp := model.ToResponse(product)
	return &resp, nil
}

func (s *productService) GetProduct(ctx context.Context, id string) (*model.ProductResponse, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrProductNotFound) {
			return nil, model.NewProductNotFoundError()
		}
		return nil, err
	}

	resp := model.ToResponse(product)
	return &resp, nil
}

func (s *productService) ListProducts(ctx context.Context, page, limit int) ([]model.ProductResponse, int, error) {
	offset := (page - 1) * limit
	products, total, err := s.productRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	out := make([]model.ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, model.ToResponse(&products[i]))
	}
	return out, total, nil
}
