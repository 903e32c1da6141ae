package models

import "time"

// TutorAvailabilityRecord lists the open slots of one tutor on one date.
type TutorAvailabilityRecord struct {
	TutorID   string    `json:"tutorId" bson:"tutorId" firestore:"tutorId"`
	Date      string    `json:"date" bson:"date" firestore:"date"`    // YYYY-MM-DD
	Slots     []string  `json:"slots" bson:"slots" firestore:"slots"` // HH:MM, unique
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt" firestore:"updatedAt"`
}

// AvailabilityKey is the document id of a tutor's record for date.
func AvailabilityKey(tutorID, date string) string {
	return tutorID + "_" + date
}

// EarliestSlot is the first open slot a tutor has in a window.
type EarliestSlot struct {
	Date string `json:"date"`
	Time string `json:"time"`
}
