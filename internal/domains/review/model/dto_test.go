package model

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func validSubmitRequest() SubmitReviewRequest {
	return SubmitReviewRequest{
		Proof:            json.RawMessage(`{"proof":{},"public_outputs":["a","b"]}`),
		Content:          "Works exactly as described.",
		Rating:           4,
		ServiceName:      "amazon",
		ReviewerIdentity: "0x1111111111111111111111111111111111111111",
	}
}

func TestSubmitReviewRequestValidate(t *testing.T) {
	t.Run("valid request", func(t *testing.T) {
		assert.NoError(t, validSubmitRequest().Validate())
	})

	tests := []struct {
		name   string
		mutate func(*SubmitReviewRequest)
	}{
		{"missing proof", func(r *SubmitReviewRequest) { r.Proof = nil }},
		{"empty content", func(r *SubmitReviewRequest) { r.Content = "" }},
		{"content over limit", func(r *SubmitReviewRequest) { r.Content = strings.Repeat("a", MaxContentLength+1) }},
		{"rating below min", func(r *SubmitReviewRequest) { r.Rating = 0 }},
		{"rating above max", func(r *SubmitReviewRequest) { r.Rating = MaxRating + 1 }},
		{"missing service name", func(r *SubmitReviewRequest) { r.ServiceName = "" }},
		{"service name over limit", func(r *SubmitReviewRequest) { r.ServiceName = strings.Repeat("s", MaxServiceNameLength+1) }},
		{"identity not hex", func(r *SubmitReviewRequest) { r.ReviewerIdentity = "not-an-address" }},
		{"identity too short", func(r *SubmitReviewRequest) { r.ReviewerIdentity = "0x1234" }},
		{"identity missing prefix", func(r *SubmitReviewRequest) {
			r.ReviewerIdentity = "1111111111111111111111111111111111111111x"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validSubmitRequest()
			tt.mutate(&req)
			assert.Error(t, req.Validate())
		})
	}

	t.Run("content at limit", func(t *testing.T) {
		req := validSubmitRequest()
		req.Content = strings.Repeat("a", MaxContentLength)
		assert.NoError(t, req.Validate())
	})

	t.Run("boundary ratings", func(t *testing.T) {
		for _, rating := range []int{MinRating, MaxRating} {
			req := validSubmitRequest()
			req.Rating = rating
			assert.NoError(t, req.Validate())
		}
	})
}

func TestListRecentRequestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"zero falls back to default", 0, DefaultRecentLimit},
		{"negative falls back to default", -3, DefaultRecentLimit},
		{"over max falls back to default", MaxListLimit + 1, DefaultRecentLimit},
		{"in range is kept", 50, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ListRecentRequest{Limit: tt.limit}
			r.Normalize()
			assert.Equal(t, tt.want, r.Limit)
		})
	}
}

func TestListByProductRequestNormalize(t *testing.T) {
	r := ListByProductRequest{Page: 0, Limit: 0}
	r.Normalize()
	assert.Equal(t, 1, r.Page)
	assert.Equal(t, DefaultRecentLimit, r.Limit)

	r = ListByProductRequest{Page: 3, Limit: 10}
	r.Normalize()
	assert.Equal(t, 3, r.Page)
	assert.Equal(t, 10, r.Limit)
}
