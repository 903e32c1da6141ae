package models

import (
	"math"
	"strings"
	"time"
)

// Role selects which side of a booking a user acts on.
type Role string

const (
	RoleStudent Role = "student"
	RoleTutor   Role = "tutor"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleTutor || r == RoleAdmin
}

// Subject is one entry of a tutor's offering.
type Subject struct {
	Name         string  `json:"name" bson:"name" firestore:"name"`
	PricePerHour float64 `json:"pricePerHour,omitempty" bson:"pricePerHour,omitempty" firestore:"pricePerHour,omitempty"`
}

// User is a profile document from the users collection.
type User struct {
	ID          string    `json:"id" bson:"id" firestore:"-"`
	Email       string    `json:"email" bson:"email" firestore:"email"`
	DisplayName string    `json:"displayName" bson:"displayName" firestore:"displayName"`
	Role        Role      `json:"role" bson:"role" firestore:"role"`
	Bio         string    `json:"bio,omitempty" bson:"bio,omitempty" firestore:"bio,omitempty"`
	Expertise   string    `json:"expertise,omitempty" bson:"expertise,omitempty" firestore:"expertise,omitempty"`
	Subjects    []Subject `json:"subjects,omitempty" bson:"subjects,omitempty" firestore:"subjects,omitempty"`
	Price       float64   `json:"price,omitempty" bson:"price,omitempty" firestore:"price,omitempty"` // default hourly rate
	Location    string    `json:"location,omitempty" bson:"location,omitempty" firestore:"location,omitempty"`
	Rating      float64   `json:"rating,omitempty" bson:"rating,omitempty" firestore:"rating,omitempty"`
	PhotoURL    string    `json:"photoURL,omitempty" bson:"photoURL,omitempty" firestore:"photoURL,omitempty"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt" firestore:"createdAt"`
}

// Name is the display name, falling back to the email address.
func (u *User) Name() string {
	if strings.TrimSpace(u.DisplayName) != "" {
		return u.DisplayName
	}
	return u.Email
}

// SubjectOptions lists the subject names a student may pick, followed by the
// tutor's expertise when it is not already listed.
func (u *User) SubjectOptions() []string {
	seen := make(map[string]bool, len(u.Subjects)+1)
	var options []string
	for _, s := range u.Subjects {
		name := strings.TrimSpace(s.Name)
		if name == "" || seen[strings.ToLower(name)] {
			continue
		}
		seen[strings.ToLower(name)] = true
		options = append(options, name)
	}
	if exp := strings.TrimSpace(u.Expertise); exp != "" && !seen[strings.ToLower(exp)] {
		options = append(options, exp)
	}
	return options
}

// PricePerHour returns the subject's rate, or the tutor's default rate.
func (u *User) PricePerHour(subject string) (float64, bool) {
	for _, s := range u.Subjects {
		if strings.EqualFold(s.Name, subject) && s.PricePerHour > 0 {
			return s.PricePerHour, true
		}
	}
	if u.Price > 0 {
		return u.Price, true
	}
	return 0, false
}

// SessionPrice rounds pricePerHour * minutes / 60 to two decimals.
func SessionPrice(pricePerHour float64, minutes int) float64 {
	return math.Round(pricePerHour*float64(minutes)/60*100) / 100
}
