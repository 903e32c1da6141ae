package models

// CreateBookingRequest is the body of POST /api/bookings.
type CreateBookingRequest struct {
	TutorID         string `json:"tutorId" binding:"required"`
	Subject         string `json:"subject"`
	Date            string `json:"date" binding:"required,isodate"`
	Time            string `json:"time" binding:"required,clock"`
	DurationMinutes int    `json:"durationMinutes" binding:"omitempty,oneof=30 45 60 90"`
}

// SetAvailabilityRequest replaces every slot of one date.
type SetAvailabilityRequest struct {
	Slots []string `json:"slots" binding:"dive,clock"`
}

// SlotRequest adds a single slot.
type SlotRequest struct {
	Time string `json:"time" binding:"required,clock"`
}

// Quote is the price preview for a session.
type Quote struct {
	TutorID         string  `json:"tutorId"`
	Subject         string  `json:"subject"`
	DurationMinutes int     `json:"durationMinutes"`
	PricePerHour    float64 `json:"pricePerHour"`
	Total           float64 `json:"total"`
}
