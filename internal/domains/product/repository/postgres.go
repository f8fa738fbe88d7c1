package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"zkreview-backend/internal/domains/product/model"
)

// =====================================================
// POSTGRES PRODUCT REPOSITORY
// =====================================================

type postgresProductRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresProductRepository(pool *pgxpool.Pool) ProductRepository {
	return &postgresProductRepository{pool: pool}
}

func (r *postgresProductRepository) Create(ctx context.Context, product *model.Product) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO products (id, name, manufacturer, total_rating, review_count, created_at)
		VALUES ($1, $2, $3, 0, 0, now())
		RETURNING created_at
	`,
		product.ID,
		product.Name,
		product.Manufacturer,
	).Scan(&product.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return model.ErrProductExists
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

func (r *postgresProductRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	product := &model.Product{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, manufacturer, total_rating, review_count, created_at
		FROM products
		WHERE id = $1
	`, id).Scan(
		&product.ID,
		&product.Name,
		&product.Manufacturer,
		&product.TotalRating,
		&product.ReviewCount,
		&product.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

func (r *postgresProductRepository) List(ctx context.Context, limit, offset int) ([]model.Product, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, name, manufacturer, total_rating, review_count, created_at
		FROM products
		ORDER BY created_at DESC, id ASC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := make([]model.Product, 0, limit)
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Manufacturer, &p.TotalRating, &p.ReviewCount, &p.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read products: %w", err)
	}

	return products, total, nil
}
