package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zkreview-backend/internal/domains/review/model"
)

// newPostgresBackend connects to the database named by TEST_DATABASE_URL,
// with the migrations applied. Skipped otherwise.
func newPostgresBackend(t *testing.T) (SubmissionStore, *pgxpool.Pool) {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return NewPostgresSubmissionStore(pool), pool
}

// uniqueSubmission builds a submission that cannot collide with rows left
// by earlier runs against the same database.
func uniqueSubmission(productID string, rating int) *model.Submission {
	return &model.Submission{
		ProductID:        productID,
		SubjectName:      "Acme Phone",
		ReviewerIdentity: "0x1111111111111111111111111111111111111111",
		Content:          "Solid build quality.",
		Rating:           rating,
		Nullifier:        "null-" + uuid.NewString(),
		ServiceName:      "amazon",
	}
}

func TestPostgresTimestampFloor(t *testing.T) {
	store, pool := newPostgresBackend(t)
	ctx := context.Background()

	// Push the floor ahead of the wall clock; every submission until the
	// clock catches up must clamp to it, never regress below it.
	future := time.Now().Add(time.Hour).UTC()
	_, err := pool.Exec(ctx, `UPDATE submission_clock SET last_ts = $1 WHERE id = 1`, future)
	require.NoError(t, err)

	productID := "prod-" + uuid.NewString()
	var prev time.Time
	for i := 0; i < 3; i++ {
		result, err := store.Submit(ctx, uniqueSubmission(productID, 4))
		require.NoError(t, err)

		assert.False(t, result.Review.CreatedAt.Before(future),
			"created_at %v regressed below the floor %v", result.Review.CreatedAt, future)
		assert.False(t, result.Review.CreatedAt.Before(prev),
			"created_at %v regressed below the previous unit's %v", result.Review.CreatedAt, prev)
		prev = result.Review.CreatedAt
	}
}

func TestPostgresListByProductEqualTimestampPage(t *testing.T) {
	store, pool := newPostgresBackend(t)
	ctx := context.Background()

	productID := "prod-" + uuid.NewString()
	first, err := store.Submit(ctx, uniqueSubmission(productID, 4))
	require.NoError(t, err)

	// A floor ahead of the clock makes the next submissions one tie
	// group at the identical timestamp.
	future := time.Now().Add(2 * time.Hour).UTC()
	_, err = pool.Exec(ctx, `UPDATE submission_clock SET last_ts = $1 WHERE id = 1`, future)
	require.NoError(t, err)

	var ids []int64
	for i := 0; i < 3; i++ {
		result, err := store.Submit(ctx, uniqueSubmission(productID, 4))
		require.NoError(t, err)
		ids = append(ids, result.Review.ID)
	}

	// Equal timestamps rank by ascending id, so the first page holds the
	// tie group's lowest ids.
	rows, err := store.ListByProduct(ctx, productID, 2, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, ids[0], rows[0].ID)
	assert.Equal(t, ids[1], rows[1].ID)

	// The next page continues through the tie group into the older row.
	page, err := store.ListByProduct(ctx, productID, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, ids[2], page[0].ID)
	assert.Equal(t, first.Review.ID, page[1].ID)
}

func TestPostgresDuplicateNullifier(t *testing.T) {
	store, _ := newPostgresBackend(t)
	ctx := context.Background()

	sub := uniqueSubmission("prod-"+uuid.NewString(), 5)
	_, err := store.Submit(ctx, sub)
	require.NoError(t, err)

	_, err = store.Submit(ctx, sub)
	assert.ErrorIs(t, err, model.ErrDuplicateNullifier)
}

func TestPostgresConcurrentTimestampOrdering(t *testing.T) {
	store, _ := newPostgresBackend(t)
	ctx := context.Background()

	// Overlapping units must come out with non-decreasing timestamps in
	// id order; the clock row lock serializes them.
	productID := "prod-" + uuid.NewString()
	const writers = 8
	results := make(chan *SubmissionResult, writers)
	errs := make(chan error, writers)

	for i := 0; i < writers; i++ {
		go func() {
			result, err := store.Submit(ctx, uniqueSubmission(productID, 4))
			if err != nil {
				errs <- err
				return
			}
			results <- result
		}()
	}

	byID := make(map[int64]time.Time, writers)
	for i := 0; i < writers; i++ {
		select {
		case err := <-errs:
			t.Fatalf("submit failed: %v", err)
		case result := <-results:
			byID[result.Review.ID] = result.Review.CreatedAt
		}
	}

	ids := make([]int64, 0, writers)
	for id := range byID {
		ids = append(ids, id)
	}
	for _, a := range ids {
		for _, b := range ids {
			if a < b {
				assert.False(t, byID[b].Before(byID[a]),
					fmt.Sprintf("id %d has earlier created_at than id %d", b, a))
			}
		}
	}
}
