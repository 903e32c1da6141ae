package tutors

import (
	"context"

	"daresni/models"
)

// Sort orders accepted by ListTutors. Anything else sorts by name.
const (
	SortPriceAsc   = "price_asc"
	SortPriceDesc  = "price_desc"
	SortRatingDesc = "rating_desc"
	SortRatingAsc  = "rating_asc"
)

// Filter narrows the tutor directory. Zero values disable a criterion.
type Filter struct {
	Query     string  `form:"q"`
	Subject   string  `form:"subject"`
	Location  string  `form:"location"`
	MinPrice  float64 `form:"minPrice" binding:"gte=0"`
	MaxPrice  float64 `form:"maxPrice" binding:"gte=0"`
	MinRating float64 `form:"minRating" binding:"gte=0,lte=5"`
	Sort      string  `form:"sort"`
}

// Listing is a directory entry.
type Listing struct {
	models.User
	SubjectOptions []string             `json:"subjectOptions"`
	NextAvailable  *models.EarliestSlot `json:"nextAvailable,omitempty"`
}

type TutorService interface {
	ListTutors(ctx context.Context, f Filter) ([]Listing, error)
	// GetTutor returns NotFound for unknown ids and for users that are not tutors.
	GetTutor(ctx context.Context, id string) (*Listing, error)
	Quote(ctx context.Context, tutorID, subject string, durationMinutes int) (*models.Quote, error)
}
