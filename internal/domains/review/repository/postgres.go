package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	productmodel "zkreview-backend/internal/domains/product/model"
	"zkreview-backend/internal/domains/review/model"
	"zkreview-backend/pkg/database"
)

// =====================================================
// POSTGRES SUBMISSION STORE
// =====================================================

// postgresSubmissionStore keeps the nullifier registry, reviews, and both
// aggregates in one database so a single transaction can cover the whole
// acceptance unit. The PRIMARY KEY on nullifiers(nullifier) is the
// authoritative dedup point; under a k-way race one insert wins and the
// rest fail with SQLSTATE 23505.
type postgresSubmissionStore struct {
	pool *pgxpool.Pool
}

func NewPostgresSubmissionStore(pool *pgxpool.Pool) SubmissionStore {
	return &postgresSubmissionStore{pool: pool}
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// =====================================================
// NULLIFIER FAST PATH
// =====================================================

func (r *postgresSubmissionStore) IsNullifierUsed(ctx context.Context, nullifier string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM nullifiers WHERE nullifier = $1)`,
		nullifier,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check nullifier: %w", err)
	}
	return exists, nil
}

// =====================================================
// ATOMIC SUBMISSION UNIT
// =====================================================

func (r *postgresSubmissionStore) Submit(ctx context.Context, sub *model.Submission) (*SubmissionResult, error) {
	// The unit must commit or roll back whole even if the submitting
	// client disconnects mid-flight.
	ctx = context.WithoutCancel(ctx)

	return database.WithTransactionResult(ctx, r.pool, func(tx pgx.Tx) (*SubmissionResult, error) {
		// Step 1: reserve the nullifier. This is the authoritative
		// exactly-once gate.
		if err := r.reserveNullifier(ctx, tx, sub.Nullifier); err != nil {
			return nil, err
		}

		// Step 2: assign the acceptance timestamp from the store's
		// monotonic floor. One timestamp per unit keeps the review row
		// consistent with the aggregate rows.
		ts, err := r.nextTimestamp(ctx, tx)
		if err != nil {
			return nil, err
		}

		// Step 3: persist the review.
		review, err := r.insertReview(ctx, tx, sub, ts)
		if err != nil {
			return nil, err
		}

		// Step 4: apply the product aggregate, creating a placeholder
		// product on first review.
		product, err := r.applyProductAggregate(ctx, tx, sub, ts)
		if err != nil {
			return nil, err
		}

		// Step 5: apply the reviewer aggregate.
		reviewer, err := r.applyReviewerAggregate(ctx, tx, sub.ReviewerIdentity, ts)
		if err != nil {
			return nil, err
		}

		return &SubmissionResult{Review: review, Product: product, Reviewer: reviewer}, nil
	})
}

func (r *postgresSubmissionStore) reserveNullifier(ctx context.Context, tx pgx.Tx, nullifier string) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO nullifiers (nullifier, reserved_at) VALUES ($1, now())`,
		nullifier,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrDuplicateNullifier
		}
		return fmt.Errorf("failed to reserve nullifier: %w", err)
	}
	return nil
}

// nextTimestamp advances the store's single-row timestamp floor and
// returns the clamped acceptance time. The UPDATE takes a row lock held to
// commit, so overlapping units receive non-decreasing timestamps in commit
// order: a higher id never carries an earlier created_at even when an
// earlier-started transaction commits later.
func (r *postgresSubmissionStore) nextTimestamp(ctx context.Context, tx pgx.Tx) (time.Time, error) {
	var ts time.Time
	err := tx.QueryRow(ctx, `
		UPDATE submission_clock
		SET last_ts = GREATEST(clock_timestamp(), last_ts)
		WHERE id = 1
		RETURNING last_ts
	`).Scan(&ts)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to advance timestamp floor: %w", err)
	}
	return ts, nil
}

func (r *postgresSubmissionStore) insertReview(ctx context.Context, tx pgx.Tx, sub *model.Submission, ts time.Time) (*model.Review, error) {
	review := &model.Review{
		ProductID:        sub.ProductID,
		ReviewerIdentity: sub.ReviewerIdentity,
		Content:          sub.Content,
		Rating:           sub.Rating,
		Nullifier:        sub.Nullifier,
		ServiceName:      sub.ServiceName,
		Verified:         true,
	}

	err := tx.QueryRow(ctx, `
		INSERT INTO reviews (
			product_id, reviewer_identity, content, rating,
			nullifier, service_name, verified, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`,
		sub.ProductID,
		sub.ReviewerIdentity,
		sub.Content,
		sub.Rating,
		sub.Nullifier,
		sub.ServiceName,
		true,
		ts,
	).Scan(&review.ID, &review.CreatedAt)

	if err != nil {
		// The UNIQUE index on reviews.nullifier backs up the registry.
		if isUniqueViolation(err) {
			return nil, model.ErrDuplicateNullifier
		}
		return nil, fmt.Errorf("failed to insert review: %w", err)
	}

	return review, nil
}

func (r *postgresSubmissionStore) applyProductAggregate(ctx context.Context, tx pgx.Tx, sub *model.Submission, ts time.Time) (*productmodel.Product, error) {
	name := sub.SubjectName
	if name == "" {
		name = productmodel.PlaceholderName
	}

	product := &productmodel.Product{}
	err := tx.QueryRow(ctx, `
		INSERT INTO products (id, name, manufacturer, total_rating, review_count, created_at)
		VALUES ($1, $2, $3, $4, 1, $5)
		ON CONFLICT (id) DO UPDATE
		SET total_rating = products.total_rating + EXCLUDED.total_rating,
		    review_count = products.review_count + 1
		RETURNING id, name, manufacturer, total_rating, review_count, created_at
	`,
		sub.ProductID,
		name,
		productmodel.PlaceholderManufacturer,
		sub.Rating,
		ts,
	).Scan(
		&product.ID,
		&product.Name,
		&product.Manufacturer,
		&product.TotalRating,
		&product.ReviewCount,
		&product.CreatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to apply product aggregate: %w", err)
	}

	return product, nil
}

func (r *postgresSubmissionStore) applyReviewerAggregate(ctx context.Context, tx pgx.Tx, identity string, ts time.Time) (*model.Reviewer, error) {
	reviewer := &model.Reviewer{}
	err := tx.QueryRow(ctx, `
		INSERT INTO reviewers (identity, reputation, review_count, created_at)
		VALUES ($1, 1, 1, $2)
		ON CONFLICT (identity) DO UPDATE
		SET reputation   = reviewers.reputation + 1,
		    review_count = reviewers.review_count + 1
		RETURNING identity, reputation, review_count, created_at
	`,
		identity,
		ts,
	).Scan(
		&reviewer.Identity,
		&reviewer.Reputation,
		&reviewer.ReviewCount,
		&reviewer.CreatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to apply reviewer aggregate: %w", err)
	}

	return reviewer, nil
}

// =====================================================
// READS
// =====================================================

const reviewSelect = `
	SELECT
		r.id, r.product_id, r.reviewer_identity, r.content, r.rating,
		r.nullifier, r.service_name, r.verified, r.created_at,
		COALESCE(p.name, r.product_id) AS subject_name
	FROM reviews r
	LEFT JOIN products p ON p.id = r.product_id
`

func scanReviewWithSubject(row pgx.Row) (*model.ReviewWithSubject, error) {
	rws := &model.ReviewWithSubject{}
	err := row.Scan(
		&rws.ID,
		&rws.ProductID,
		&rws.ReviewerIdentity,
		&rws.Content,
		&rws.Rating,
		&rws.Nullifier,
		&rws.ServiceName,
		&rws.Verified,
		&rws.CreatedAt,
		&rws.SubjectName,
	)
	if err != nil {
		return nil, err
	}
	return rws, nil
}

func (r *postgresSubmissionStore) GetReview(ctx context.Context, id int64) (*model.ReviewWithSubject, error) {
	rws, err := scanReviewWithSubject(r.pool.QueryRow(ctx, reviewSelect+` WHERE r.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return rws, nil
}

func (r *postgresSubmissionStore) ListRecent(ctx context.Context, limit int) ([]model.ReviewWithSubject, error) {
	rows, err := r.pool.Query(ctx,
		reviewSelect+` ORDER BY r.created_at DESC, r.id ASC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent reviews: %w", err)
	}
	defer rows.Close()

	return collectReviews(rows)
}

func (r *postgresSubmissionStore) ListByProduct(ctx context.Context, productID string, limit, offset int) ([]model.ReviewWithSubject, error) {
	rows, err := r.pool.Query(ctx,
		reviewSelect+` WHERE r.product_id = $1 ORDER BY r.created_at DESC, r.id ASC LIMIT $2 OFFSET $3`,
		productID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list product reviews: %w", err)
	}
	defer rows.Close()

	return collectReviews(rows)
}

func collectReviews(rows pgx.Rows) ([]model.ReviewWithSubject, error) {
	reviews := make([]model.ReviewWithSubject, 0)
	for rows.Next() {
		rws, err := scanReviewWithSubject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, *rws)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read reviews: %w", err)
	}
	return reviews, nil
}

func (r *postgresSubmissionStore) GetReviewer(ctx context.Context, identity string) (*model.Reviewer, error) {
	reviewer := &model.Reviewer{}
	err := r.pool.QueryRow(ctx, `
		SELECT identity, reputation, review_count, created_at
		FROM reviewers
		WHERE identity = $1
	`, identity).Scan(
		&reviewer.Identity,
		&reviewer.Reputation,
		&reviewer.ReviewCount,
		&reviewer.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrReviewerNotFound
		}
		return nil, fmt.Errorf("failed to get reviewer: %w", err)
	}
	return reviewer, nil
}
