package model

const (
	// Rating bounds
	MinRating = 1
	MaxRating = 5

	// Content limits
	MaxContentLength     = 2000
	MaxServiceNameLength = 64

	// List limits
	DefaultRecentLimit = 20
	MaxListLimit       = 100
)
