package models

import (
	"time"

	"daresni/utils"
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusApproved  BookingStatus = "approved"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
)

// ActiveStatuses occupy a slot for conflict checking.
var ActiveStatuses = []BookingStatus{StatusPending, StatusApproved}

// HistoryStatuses are terminal.
var HistoryStatuses = []BookingStatus{StatusCompleted, StatusCancelled}

var transitions = map[BookingStatus][]BookingStatus{
	StatusPending:  {StatusApproved, StatusCancelled},
	StatusApproved: {StatusCompleted, StatusCancelled},
}

// Active reports whether the status holds its slot.
func (s BookingStatus) Active() bool {
	return s == StatusPending || s == StatusApproved
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Valid reports whether s is one of the four known statuses.
func (s BookingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// DefaultDurationMinutes applies to records written without a duration.
const DefaultDurationMinutes = 60

// AllowedDurations are the session lengths a student may request, in minutes.
var AllowedDurations = []int{30, 45, 60, 90}

// NormalizeDuration maps zero to the default length and rejects lengths
// outside AllowedDurations.
func NormalizeDuration(minutes int) (int, bool) {
	if minutes == 0 {
		return DefaultDurationMinutes, true
	}
	for _, d := range AllowedDurations {
		if d == minutes {
			return minutes, true
		}
	}
	return 0, false
}

// DefaultSubject is used when a tutor lists no subjects.
const DefaultSubject = "General"

// Booking is a student's request for one of a tutor's slots.
//
// StartAt is the canonical scheduling field. Records written by older clients
// only carry the Date and Time mirror fields and have a nil StartAt.
type Booking struct {
	ID              string        `json:"id" bson:"id" firestore:"-"`
	TutorID         string        `json:"tutorId" bson:"tutorId" firestore:"tutorId"`
	TutorName       string        `json:"tutorName" bson:"tutorName" firestore:"tutorName"`       // copied at creation
	StudentID       string        `json:"studentId" bson:"studentId" firestore:"studentId"`
	StudentName     string        `json:"studentName" bson:"studentName" firestore:"studentName"` // copied at creation
	Subject         string        `json:"subject" bson:"subject" firestore:"subject"`
	Status          BookingStatus `json:"status" bson:"status" firestore:"status"`
	StartAt         *time.Time    `json:"startAt,omitempty" bson:"startAt,omitempty" firestore:"startAt,omitempty"`
	DurationMinutes int           `json:"durationMinutes" bson:"durationMin" firestore:"durationMin"`
	Date            string        `json:"date,omitempty" bson:"date,omitempty" firestore:"date,omitempty"` // YYYY-MM-DD
	Time            string        `json:"time,omitempty" bson:"time,omitempty" firestore:"time,omitempty"` // HH:MM
	CreatedAt       time.Time     `json:"createdAt" bson:"createdAt" firestore:"createdAt"`
}

// IsLegacy reports whether the record predates StartAt.
func (b *Booking) IsLegacy() bool {
	return b.StartAt == nil
}

// Instant resolves the booking's start, falling back to the legacy date and time.
func (b *Booking) Instant(loc *time.Location) (time.Time, bool) {
	if b.StartAt != nil && !b.StartAt.IsZero() {
		return *b.StartAt, true
	}
	if b.Date == "" || b.Time == "" {
		return time.Time{}, false
	}
	t, err := utils.CombineLocal(b.Date, b.Time, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Slot returns the calendar date and clock time the booking occupies. The
// mirror fields win; otherwise both are derived from StartAt in loc.
func (b *Booking) Slot(loc *time.Location) (date, clock string, ok bool) {
	if b.Date != "" && b.Time != "" {
		return b.Date, b.Time, true
	}
	if b.StartAt == nil || b.StartAt.IsZero() {
		return "", "", false
	}
	local := b.StartAt.In(loc)
	return local.Format(utils.DateLayout), local.Format(utils.ClockLayout), true
}

// Duration returns the session length, defaulting to an hour.
func (b *Booking) Duration() time.Duration {
	if b.DurationMinutes <= 0 {
		return DefaultDurationMinutes * time.Minute
	}
	return time.Duration(b.DurationMinutes) * time.Minute
}

// DecodeBooking maps a raw stored document onto a Booking. Field shapes differ
// across the product's history: startAt and createdAt may be native timestamps,
// {seconds} wrappers or ISO strings, and durations may be missing or under
// either name. Unparseable instants are dropped rather than failing the read.
func DecodeBooking(id string, doc map[string]interface{}, loc *time.Location) Booking {
	b := Booking{
		ID:          id,
		TutorID:     stringField(doc, "tutorId"),
		TutorName:   stringField(doc, "tutorName"),
		StudentID:   stringField(doc, "studentId"),
		StudentName: stringField(doc, "studentName"),
		Subject:     stringField(doc, "subject"),
		Status:      BookingStatus(stringField(doc, "status")),
		Date:        stringField(doc, "date"),
		Time:        stringField(doc, "time"),
	}
	if b.ID == "" {
		b.ID = stringField(doc, "id")
	}
	if b.Subject == "" {
		b.Subject = DefaultSubject
	}
	if t, ok := utils.CoerceToInstant(doc["startAt"], loc); ok {
		b.StartAt = &t
	}
	if t, ok := utils.CoerceToInstant(doc["createdAt"], loc); ok {
		b.CreatedAt = t
	}
	b.DurationMinutes = intField(doc, "durationMin")
	if b.DurationMinutes == 0 {
		b.DurationMinutes = intField(doc, "durationMinutes")
	}
	if b.DurationMinutes == 0 {
		b.DurationMinutes = DefaultDurationMinutes
	}
	return b
}

func stringField(doc map[string]interface{}, key string) string {
	if s, ok := doc[key].(string); ok {
		return s
	}
	return ""
}

func intField(doc map[string]interface{}, key string) int {
	switch n := doc[key].(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}
