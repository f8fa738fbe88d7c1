package ledger

import "fmt"

// Key schema. Review keys embed a zero-padded id so that iterating the
// review prefix yields insertion order.
const (
	prefixNullifier     = "nullifier/"
	prefixReview        = "review/"
	prefixProduct       = "product/"
	prefixProductReview = "product-review/"
	prefixReviewer      = "reviewer/"

	keySeqReview = "seq/review"
	keyLastTS    = "ts/last"
)

// idWidth keeps review keys lexicographically ordered by id.
const idWidth = 20

func NullifierKey(nullifier string) []byte {
	return []byte(prefixNullifier + nullifier)
}

func ReviewKey(id int64) []byte {
	return []byte(fmt.Sprintf("%s%0*d", prefixReview, idWidth, id))
}

func ReviewPrefix() []byte {
	return []byte(prefixReview)
}

func ProductKey(productID string) []byte {
	return []byte(prefixProduct + productID)
}

func ProductPrefix() []byte {
	return []byte(prefixProduct)
}

func ProductReviewKey(productID string, id int64) []byte {
	return []byte(fmt.Sprintf("%s%s/%0*d", prefixProductReview, productID, idWidth, id))
}

func ProductReviewPrefix(productID string) []byte {
	return []byte(prefixProductReview + productID + "/")
}

func ReviewerKey(identity string) []byte {
	return []byte(prefixReviewer + identity)
}

func SeqReviewKey() []byte {
	return []byte(keySeqReview)
}

func LastTimestampKey() []byte {
	return []byte(keyLastTS)
}
