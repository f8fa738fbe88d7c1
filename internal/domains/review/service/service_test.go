package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	productmodel "zkreview-backend/internal/domains/product/model"
	"zkreview-backend/internal/domains/review/model"
	"zkreview-backend/internal/domains/review/repository"
	"zkreview-backend/internal/infrastructure/zkverify"
)

const (
	testBlueprint = "purchase-confirmation/v1"
	testReviewer  = "0x1111111111111111111111111111111111111111"
	otherReviewer = "0x2222222222222222222222222222222222222222"
)

// =====================================================
// FAKE SUBMISSION STORE
// =====================================================

// fakeStore is an in-memory SubmissionStore with the same exactly-once
// and atomicity semantics as the real backends.
type fakeStore struct {
	mu         sync.Mutex
	nextID     int64
	nullifiers map[string]bool
	reviews    map[int64]model.Review
	products   map[string]productmodel.Product
	reviewers  map[string]model.Reviewer
	submitErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nullifiers: make(map[string]bool),
		reviews:    make(map[int64]model.Review),
		products:   make(map[string]productmodel.Product),
		reviewers:  make(map[string]model.Reviewer),
	}
}

func (f *fakeStore) IsNullifierUsed(ctx context.Context, nullifier string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nullifiers[nullifier], nil
}

func (f *fakeStore) Submit(ctx context.Context, sub *model.Submission) (*repository.SubmissionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.submitErr != nil {
		return nil, f.submitErr
	}
	if f.nullifiers[sub.Nullifier] {
		return nil, model.ErrDuplicateNullifier
	}

	f.nullifiers[sub.Nullifier] = true
	f.nextID++

	review := model.Review{
		ID:               f.nextID,
		ProductID:        sub.ProductID,
		ReviewerIdentity: sub.ReviewerIdentity,
		Content:          sub.Content,
		Rating:           sub.Rating,
		Nullifier:        sub.Nullifier,
		ServiceName:      sub.ServiceName,
		Verified:         true,
		CreatedAt:        time.Now().UTC(),
	}
	f.reviews[review.ID] = review

	product, ok := f.products[sub.ProductID]
	if !ok {
		product = productmodel.Product{
			ID:           sub.ProductID,
			Name:         sub.SubjectName,
			Manufacturer: productmodel.PlaceholderManufacturer,
			CreatedAt:    review.CreatedAt,
		}
	}
	product.TotalRating += int64(sub.Rating)
	product.ReviewCount++
	f.products[sub.ProductID] = product

	reviewer, ok := f.reviewers[sub.ReviewerIdentity]
	if !ok {
		reviewer = model.Reviewer{Identity: sub.ReviewerIdentity, CreatedAt: review.CreatedAt}
	}
	reviewer.Reputation++
	reviewer.ReviewCount++
	f.reviewers[sub.ReviewerIdentity] = reviewer

	return &repository.SubmissionResult{Review: &review, Product: &product, Reviewer: &reviewer}, nil
}

func (f *fakeStore) GetReview(ctx context.Context, id int64) (*model.ReviewWithSubject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	review, ok := f.reviews[id]
	if !ok {
		return nil, model.ErrReviewNotFound
	}
	rws := &model.ReviewWithSubject{Review: review}
	rws.SubjectName = f.products[review.ProductID].Name
	return rws, nil
}

func (f *fakeStore) ListRecent(ctx context.Context, limit int) ([]model.ReviewWithSubject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]model.ReviewWithSubject, 0, limit)
	for id := f.nextID; id >= 1 && len(out) < limit; id-- {
		review, ok := f.reviews[id]
		if !ok {
			continue
		}
		rws := model.ReviewWithSubject{Review: review}
		rws.SubjectName = f.products[review.ProductID].Name
		out = append(out, rws)
	}
	return out, nil
}

func (f *fakeStore) ListByProduct(ctx context.Context, productID string, limit, offset int) ([]model.ReviewWithSubject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	all := make([]model.ReviewWithSubject, 0)
	for id := f.nextID; id >= 1; id-- {
		review, ok := f.reviews[id]
		if !ok || review.ProductID != productID {
			continue
		}
		rws := model.ReviewWithSubject{Review: review}
		rws.SubjectName = f.products[review.ProductID].Name
		all = append(all, rws)
	}

	if offset >= len(all) {
		return []model.ReviewWithSubject{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (f *fakeStore) GetReviewer(ctx context.Context, identity string) (*model.Reviewer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	reviewer, ok := f.reviewers[identity]
	if !ok {
		return nil, model.ErrReviewerNotFound
	}
	return &reviewer, nil
}

func (f *fakeStore) reviewCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reviews)
}

func (f *fakeStore) product(id string) (productmodel.Product, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	return p, ok
}

// =====================================================
// TEST HELPERS
// =====================================================

func newTestService(t *testing.T) (ServiceInterface, *fakeStore, *zkverify.MockService) {
	t.Helper()

	store := newFakeStore()
	registry := zkverify.NewSchemaRegistry(zkverify.DefaultSchemas(testBlueprint)...)
	verifier := zkverify.NewMockService(registry)

	svc := NewReviewService(store, verifier, nil, testBlueprint)
	return svc, store, verifier
}

func proofPayload(nullifier, subject string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(
		`{"proof":{"pi_a":"0xabc"},"public_outputs":["header-hash","%s"],"public_data":{"subject":"%s"}}`,
		nullifier, subject,
	))
}

func validRequest(nullifier string, rating int) model.SubmitReviewRequest {
	return model.SubmitReviewRequest{
		Proof:            proofPayload(nullifier, "Acme Phone"),
		Content:          "Battery easily lasts two days.",
		Rating:           rating,
		ServiceName:      "amazon",
		ReviewerIdentity: testReviewer,
	}
}

func rejectionReason(t *testing.T, err error) string {
	t.Helper()

	var revErr *model.ReviewError
	require.ErrorAs(t, err, &revErr)
	return revErr.Reason
}

// =====================================================
// SUBMISSION TESTS
// =====================================================

func TestSubmitReviewAccepted(t *testing.T) {
	svc, store, _ := newTestService(t)

	resp, err := svc.SubmitReview(context.Background(), validRequest("null-1", 5))
	require.NoError(t, err)

	assert.True(t, resp.Accepted)
	assert.Equal(t, int64(1), resp.ReviewID)
	assert.Equal(t, "Acme Phone", resp.SubjectName)

	productID := productmodel.DeriveProductID("Acme Phone")
	product, ok := store.product(productID)
	require.True(t, ok)
	assert.Equal(t, int64(5), product.TotalRating)
	assert.Equal(t, int64(1), product.ReviewCount)

	rws, err := store.GetReview(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, rws.Verified)
	assert.Equal(t, "null-1", rws.Nullifier)
}

func TestSubmitReviewAggregatesAcrossSubmissions(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.SubmitReview(ctx, validRequest("null-1", 5))
	require.NoError(t, err)

	req2 := validRequest("null-2", 3)
	req2.ReviewerIdentity = otherReviewer
	_, err = svc.SubmitReview(ctx, req2)
	require.NoError(t, err)

	productID := productmodel.DeriveProductID("Acme Phone")
	product, ok := store.product(productID)
	require.True(t, ok)
	assert.Equal(t, int64(8), product.TotalRating)
	assert.Equal(t, int64(2), product.ReviewCount)
	assert.Equal(t, "4", product.AverageRating().String())

	reviewer, err := store.GetReviewer(ctx, testReviewer)
	require.NoError(t, err)
	assert.Equal(t, int64(1), reviewer.Reputation)
}

func TestSubmitReviewDuplicateNullifier(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.SubmitReview(ctx, validRequest("null-1", 5))
	require.NoError(t, err)

	// Identical resubmission must reject idempotently.
	_, err = svc.SubmitReview(ctx, validRequest("null-1", 5))
	assert.Equal(t, model.ReasonDuplicate, rejectionReason(t, err))

	// A different rating under the same nullifier rejects the same way.
	_, err = svc.SubmitReview(ctx, validRequest("null-1", 1))
	assert.Equal(t, model.ReasonDuplicate, rejectionReason(t, err))

	assert.Equal(t, 1, store.reviewCount())
	productID := productmodel.DeriveProductID("Acme Phone")
	product, _ := store.product(productID)
	assert.Equal(t, int64(5), product.TotalRating)
	assert.Equal(t, int64(1), product.ReviewCount)
}

func TestSubmitReviewInvalidInput(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	longContent := make([]byte, model.MaxContentLength+1)
	for i := range longContent {
		longContent[i] = 'a'
	}

	tests := []struct {
		name   string
		mutate func(*model.SubmitReviewRequest)
	}{
		{"rating zero", func(r *model.SubmitReviewRequest) { r.Rating = 0 }},
		{"rating above max", func(r *model.SubmitReviewRequest) { r.Rating = 6 }},
		{"empty content", func(r *model.SubmitReviewRequest) { r.Content = "" }},
		{"content too long", func(r *model.SubmitReviewRequest) { r.Content = string(longContent) }},
		{"missing proof", func(r *model.SubmitReviewRequest) { r.Proof = nil }},
		{"missing service name", func(r *model.SubmitReviewRequest) { r.ServiceName = "" }},
		{"bad reviewer address", func(r *model.SubmitReviewRequest) { r.ReviewerIdentity = "not-an-address" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest("null-x", 4)
			tt.mutate(&req)

			_, err := svc.SubmitReview(ctx, req)
			assert.Equal(t, model.ReasonInvalidInput, rejectionReason(t, err))
		})
	}

	assert.Equal(t, 0, store.reviewCount())
}

func TestSubmitReviewMalformedProof(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		proof json.RawMessage
	}{
		{"undecodable payload", json.RawMessage(`{not json`)},
		{"missing blob", json.RawMessage(`{"public_outputs":["a","b"],"public_data":{"subject":"x"}}`)},
		{"too few outputs", json.RawMessage(`{"proof":{"pi":"x"},"public_outputs":["only-one"],"public_data":{"subject":"x"}}`)},
		{"missing subject field", json.RawMessage(`{"proof":{"pi":"x"},"public_outputs":["a","null-1"],"public_data":{}}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest("null-x", 4)
			req.Proof = tt.proof

			_, err := svc.SubmitReview(ctx, req)
			assert.Equal(t, model.ReasonInvalidInput, rejectionReason(t, err))
		})
	}

	assert.Equal(t, 0, store.reviewCount())
}

func TestSubmitReviewInvalidProofVsUnavailable(t *testing.T) {
	svc, store, verifier := newTestService(t)
	ctx := context.Background()

	// An explicit rejection is final.
	verifier.VerifyErr = zkverify.ErrInvalidProof
	_, err := svc.SubmitReview(ctx, validRequest("null-1", 4))
	assert.Equal(t, model.ReasonInvalidProof, rejectionReason(t, err))
	assert.Equal(t, 0, store.reviewCount())

	// An unreachable verifier is a retryable failure, not a verdict.
	verifier.VerifyErr = zkverify.ErrVerifierUnavailable
	_, err = svc.SubmitReview(ctx, validRequest("null-1", 4))
	assert.Equal(t, model.ReasonVerifierUnavailable, rejectionReason(t, err))
	assert.Equal(t, 0, store.reviewCount())

	// Nothing was reserved, so the identical proof succeeds on retry.
	verifier.VerifyErr = nil
	resp, err := svc.SubmitReview(ctx, validRequest("null-1", 4))
	require.NoError(t, err)
	assert.True(t, resp.Accepted)
}

func TestSubmitReviewStoreFailureIsInternal(t *testing.T) {
	svc, store, _ := newTestService(t)

	store.submitErr = fmt.Errorf("connection reset")
	_, err := svc.SubmitReview(context.Background(), validRequest("null-1", 4))
	assert.Equal(t, model.ReasonInternal, rejectionReason(t, err))

	// The unit failed whole: a retry with the same proof must succeed.
	store.submitErr = nil
	_, err = svc.SubmitReview(context.Background(), validRequest("null-1", 4))
	require.NoError(t, err)
}

func TestSubmitReviewConcurrentSameNullifier(t *testing.T) {
	svc, store, _ := newTestService(t)

	const racers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted, duplicates := 0, 0

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := svc.SubmitReview(context.Background(), validRequest("null-race", 5))

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				accepted++
				return
			}
			var revErr *model.ReviewError
			if assert.ErrorAs(t, err, &revErr) && revErr.Reason == model.ReasonDuplicate {
				duplicates++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, accepted)
	assert.Equal(t, racers-1, duplicates)
	assert.Equal(t, 1, store.reviewCount())
}

func TestSubmitReviewExplicitProductID(t *testing.T) {
	svc, store, _ := newTestService(t)

	req := validRequest("null-1", 4)
	req.ProductID = "sku-123"

	resp, err := svc.SubmitReview(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, resp.Accepted)

	product, ok := store.product("sku-123")
	require.True(t, ok)
	assert.Equal(t, int64(1), product.ReviewCount)
}

// =====================================================
// READ TESTS
// =====================================================

func TestGetReviewNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.GetReview(context.Background(), 42)
	var revErr *model.ReviewError
	require.ErrorAs(t, err, &revErr)
	assert.Equal(t, model.ErrCodeReviewNotFound, revErr.Code)
}

func TestListRecentNewestFirst(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		_, err := svc.SubmitReview(ctx, validRequest(fmt.Sprintf("null-%d", i), 4))
		require.NoError(t, err)
	}

	rows, err := svc.ListRecent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, int64(5), rows[0].ID)
	assert.Equal(t, int64(4), rows[1].ID)
	assert.Equal(t, int64(3), rows[2].ID)
}

func TestGetReviewerAfterSubmissions(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		_, err := svc.SubmitReview(ctx, validRequest(fmt.Sprintf("null-%d", i), 4))
		require.NoError(t, err)
	}

	reviewer, err := svc.GetReviewer(ctx, testReviewer)
	require.NoError(t, err)
	assert.Equal(t, int64(3), reviewer.Reputation)
	assert.Equal(t, int64(3), reviewer.ReviewCount)

	_, err = svc.GetReviewer(ctx, otherReviewer)
	var revErr *model.ReviewError
	require.ErrorAs(t, err, &revErr)
	assert.Equal(t, model.ErrCodeReviewerNotFound, revErr.Code)
}
