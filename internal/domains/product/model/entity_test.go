package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAverageRating(t *testing.T) {
	tests := []struct {
		name        string
		totalRating int64
		reviewCount int64
		want        string
	}{
		{"no reviews", 0, 0, "0"},
		{"single review", 5, 1, "5"},
		{"exact average", 8, 2, "4"},
		{"rounded to two places", 7, 3, "2.33"},
		{"rounds half up", 5, 2, "2.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Product{TotalRating: tt.totalRating, ReviewCount: tt.reviewCount}
			assert.Equal(t, tt.want, p.AverageRating().String())
		})
	}
}

func TestDeriveProductID(t *testing.T) {
	id := DeriveProductID("Acme Phone")

	assert.True(t, strings.HasPrefix(id, "0x"))
	assert.Len(t, id, 66)

	// Same subject, same id; distinct subjects diverge.
	assert.Equal(t, id, DeriveProductID("Acme Phone"))
	assert.NotEqual(t, id, DeriveProductID("Acme Tablet"))
	assert.NotEqual(t, id, DeriveProductID("acme phone"))
}
