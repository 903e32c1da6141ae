package models

// SessionView is a booking prepared for display in the sessions lists.
type SessionView struct {
	Booking
	When string `json:"when"`
}
