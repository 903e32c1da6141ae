package handlers

import (
	"daresni/services/identity"
	"daresni/services/metrics"
	"daresni/utils"

	"go.uber.org/zap"
)

// HandlerBundle groups the endpoint handlers and what the routes need to guard them.
type HandlerBundle struct {
	Tutors       *TutorHandler
	Availability *AvailabilityHandler
	Bookings     *BookingHandler
	Sessions     *SessionHandler

	Verifier      identity.Verifier
	DevAuthBypass bool
	RateLimit     int
	Health        *utils.HealthMonitor
	Metrics       *metrics.Service
	Logger        *zap.Logger
}
