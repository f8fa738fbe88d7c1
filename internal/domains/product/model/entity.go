package model

import (
	"encoding/hex"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/sha3"
)

// Placeholder values for products created implicitly by an accepted review.
const (
	PlaceholderName         = "Unknown Product"
	PlaceholderManufacturer = "Unknown"
)

// Product represents a reviewed product. TotalRating and ReviewCount are
// maintained only inside the accepted-review atomic unit; AverageRating is
// derived on read and never stored.
type Product struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Manufacturer string    `json:"manufacturer"`
	TotalRating  int64     `json:"total_rating"`
	ReviewCount  int64     `json:"review_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// AverageRating returns TotalRating / ReviewCount rounded to two decimal
// places, zero when the product has no reviews.
func (p *Product) AverageRating() decimal.Decimal {
	if p.ReviewCount == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(p.TotalRating).
		Div(decimal.NewFromInt(p.ReviewCount)).
		Round(2)
}

// DeriveProductID maps a subject name to a stable product id using
// Keccak-256, so independently submitted reviews of the same subject land
// on the same product without a lookup table.
func DeriveProductID(subjectName string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(subjectName))
	return "0x" + hex.EncodeToString(h.Sum(nil))
}
