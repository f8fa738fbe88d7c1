package model

import (
	"time"
)

// Review represents an accepted, proof-backed review. IDs are sequential
// per store and assigned at acceptance. Nullifier is write-once: the store
// guarantees at most one review per nullifier value. Verified is true for
// every persisted row since unverified submissions never reach storage.
type Review struct {
	ID               int64     `json:"id"`
	ProductID        string    `json:"product_id"`
	ReviewerIdentity string    `json:"reviewer_identity"`
	Content          string    `json:"content"`
	Rating           int       `json:"rating"`
	Nullifier        string    `json:"nullifier"`
	ServiceName      string    `json:"service_name"`
	Verified         bool      `json:"verified"`
	CreatedAt        time.Time `json:"created_at"`
}

// ReviewWithSubject is a review joined with the reviewed product's name,
// the shape the read endpoints serve.
type ReviewWithSubject struct {
	Review
	SubjectName string `json:"subject_name"`
}

// Reviewer tracks per-identity reputation. Reputation grows by one per
// accepted review and is mutated only inside the acceptance atomic unit.
type Reviewer struct {
	Identity    string    `json:"identity"`
	Reputation  int64     `json:"reputation"`
	ReviewCount int64     `json:"review_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// Submission is the validated, proof-verified input handed to the store's
// atomic unit.
type Submission struct {
	ProductID        string
	SubjectName      string
	ReviewerIdentity string
	Content          string
	Rating           int
	Nullifier        string
	ServiceName      string
}
