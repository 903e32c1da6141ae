package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"daresni/apperrors"
	"daresni/database/repository"
	bookingRepo "daresni/database/repository/booking"
	userRepo "daresni/database/repository/user"
	"daresni/models"
	"daresni/services/availability"
	"daresni/services/metrics"
	"daresni/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RejectPolicy decides what rejecting a request leaves behind.
type RejectPolicy string

const (
	// RejectDelete removes the request; it never appears in history.
	RejectDelete RejectPolicy = "delete"
	// RejectCancel keeps the request as cancelled.
	RejectCancel RejectPolicy = "cancel"
)

// Options tunes DefaultBookingService.
type Options struct {
	Location     *time.Location
	RejectPolicy RejectPolicy
	// HoldSlotOnRequest removes the slot from availability as soon as a request
	// is created, as older clients did. Rejection and cancellation restore it.
	HoldSlotOnRequest bool
	// Now is the clock; defaults to time.Now.
	Now func() time.Time
}

type DefaultBookingService struct {
	Bookings     bookingRepo.BookingRepository
	Users        userRepo.UserRepository
	Availability availability.AvailabilityService
	Checker      ConflictChecker
	Metrics      *metrics.Service
	Logger       *zap.Logger
	Options      Options
}

// NewBookingService wires the lifecycle manager with a store-backed conflict checker.
func NewBookingService(bookings bookingRepo.BookingRepository, users userRepo.UserRepository, avail availability.AvailabilityService, m *metrics.Service, logger *zap.Logger, opts Options) *DefaultBookingService {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.RejectPolicy == "" {
		opts.RejectPolicy = RejectDelete
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &DefaultBookingService{
		Bookings:     bookings,
		Users:        users,
		Availability: avail,
		Checker:      &DefaultConflictChecker{Repo: bookings, Location: opts.Location},
		Metrics:      m,
		Logger:       logger,
		Options:      opts,
	}
}

func (s *DefaultBookingService) CreateBooking(ctx context.Context, in CreateBookingInput) (b *models.Booking, err error) {
	defer func() { s.observe("create", err) }()

	if in.StudentID == "" {
		return nil, apperrors.Unauthorized("student identity is required")
	}
	if in.TutorID == "" {
		return nil, apperrors.Validation("tutor is required")
	}
	if !utils.IsCalendarDate(in.Date) {
		return nil, apperrors.Validation("date is required (YYYY-MM-DD)")
	}
	if !utils.IsClockTime(in.Time) {
		return nil, apperrors.Validation("time is required (HH:MM)")
	}
	duration, ok := models.NormalizeDuration(in.DurationMinutes)
	if !ok {
		return nil, apperrors.Validation("duration must be 30, 45, 60 or 90 minutes")
	}

	tutor, err := s.loadTutor(ctx, in.TutorID)
	if err != nil {
		return nil, err
	}
	subject, err := resolveSubject(tutor, in.Subject)
	if err != nil {
		return nil, err
	}

	startAt, err := utils.CombineLocal(in.Date, in.Time, s.Options.Location)
	if err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	if startAt.Before(s.Options.Now()) {
		return nil, apperrors.Validation("cannot book a slot in the past")
	}

	// Contention is checked before listing so a slot held by a request reports
	// a conflict even when the hold removed it from availability.
	taken, err := s.Checker.HasActiveConflict(ctx, tutor.ID, startAt)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperrors.Conflict("this slot was just taken, pick another")
	}

	slots, err := s.Availability.GetAvailability(ctx, tutor.ID, in.Date)
	if err != nil {
		return nil, err
	}
	if !contains(slots, in.Time) {
		return nil, apperrors.Validation("the tutor is not available at the selected time")
	}

	studentName := strings.TrimSpace(in.StudentName)
	if studentName == "" {
		studentName = in.StudentEmail
	}
	b = &models.Booking{
		ID:              uuid.New().String(),
		TutorID:         tutor.ID,
		TutorName:       tutor.Name(),
		StudentID:       in.StudentID,
		StudentName:     studentName,
		Subject:         subject,
		Status:          models.StatusPending,
		StartAt:         &startAt,
		DurationMinutes: duration,
		Date:            in.Date,
		Time:            in.Time,
		CreatedAt:       s.Options.Now(),
	}
	if err := s.Bookings.Create(ctx, b); err != nil {
		return nil, apperrors.Store(err, "failed to create booking")
	}

	if s.Options.HoldSlotOnRequest {
		if err := s.Availability.RemoveSlot(ctx, tutor.ID, in.Date, in.Time); err != nil {
			s.Logger.Error("Failed to hold slot for new request",
				zap.String("bookingId", b.ID), zap.String("date", in.Date), zap.String("time", in.Time), zap.Error(err))
		}
	}

	s.Logger.Info("Booking requested",
		zap.String("bookingId", b.ID), zap.String("tutorId", b.TutorID), zap.String("studentId", b.StudentID),
		zap.Time("startAt", startAt))
	return b, nil
}

func (s *DefaultBookingService) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	b, err := s.Bookings.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "booking not found")
	}
	return b, nil
}

func (s *DefaultBookingService) ApproveBooking(ctx context.Context, id string) (b *models.Booking, err error) {
	defer func() { s.observe("approve", err) }()

	current, err := s.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != models.StatusPending {
		return nil, apperrors.InvalidTransition("only pending bookings can be approved; booking is " + string(current.Status))
	}

	if at, ok := current.Instant(s.Options.Location); ok {
		taken, err := s.Checker.HasApprovedConflict(ctx, current.TutorID, at, current.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperrors.Conflict("slot already taken by another approved booking")
		}
	} else {
		s.Logger.Warn("Approving booking without a resolvable instant", zap.String("bookingId", id))
	}

	updated, err := s.Bookings.Transition(ctx, id, []models.BookingStatus{models.StatusPending}, models.StatusApproved)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.Conflict("slot already taken by another approved booking")
		}
		return nil, translate(err, "booking not found")
	}
	s.Logger.Info("Booking approved", zap.String("bookingId", id), zap.String("tutorId", updated.TutorID))
	return updated, nil
}

func (s *DefaultBookingService) RejectBooking(ctx context.Context, id string) (err error) {
	defer func() { s.observe("reject", err) }()

	current, err := s.GetBooking(ctx, id)
	if err != nil {
		return err
	}
	if current.Status != models.StatusPending {
		return apperrors.InvalidTransition("only pending bookings can be rejected; booking is " + string(current.Status))
	}

	pending := []models.BookingStatus{models.StatusPending}
	if s.Options.RejectPolicy == RejectCancel {
		_, err = s.Bookings.Transition(ctx, id, pending, models.StatusCancelled)
	} else {
		err = s.Bookings.Delete(ctx, id, pending)
	}
	if err != nil {
		return translate(err, "booking not found")
	}

	if s.holdsSlot(current) {
		if err := s.restoreSlot(ctx, current); err != nil {
			s.Logger.Error("Failed to release held slot after rejection", zap.String("bookingId", id), zap.Error(err))
		}
	}
	s.Logger.Info("Booking rejected", zap.String("bookingId", id), zap.String("policy", string(s.Options.RejectPolicy)))
	return nil
}

// CancelBooking restores the slot before changing status, so a failed restore
// leaves the booking untouched and the call can be retried. Only bookings that
// took their slot out of availability give it back. Cancelling an already
// cancelled booking is a no-op.
func (s *DefaultBookingService) CancelBooking(ctx context.Context, id string) (b *models.Booking, err error) {
	defer func() { s.observe("cancel", err) }()

	current, err := s.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	switch current.Status {
	case models.StatusCancelled:
		return current, nil
	case models.StatusCompleted:
		return nil, apperrors.InvalidTransition("completed bookings cannot be cancelled")
	}

	if s.holdsSlot(current) {
		if err := s.restoreSlot(ctx, current); err != nil {
			return nil, err
		}
	}

	updated, err := s.Bookings.Transition(ctx, id, models.ActiveStatuses, models.StatusCancelled)
	if errors.Is(err, repository.ErrStatusChanged) {
		latest, getErr := s.GetBooking(ctx, id)
		if getErr == nil && latest.Status == models.StatusCancelled {
			return latest, nil
		}
		return nil, apperrors.InvalidTransition("booking changed status while cancelling")
	}
	if err != nil {
		return nil, translate(err, "booking not found")
	}
	s.Logger.Info("Booking cancelled", zap.String("bookingId", id), zap.String("tutorId", updated.TutorID))
	return updated, nil
}

func (s *DefaultBookingService) CompleteBooking(ctx context.Context, id string) (b *models.Booking, err error) {
	defer func() { s.observe("complete", err) }()

	current, err := s.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != models.StatusApproved {
		return nil, apperrors.InvalidTransition("only approved bookings can be completed; booking is " + string(current.Status))
	}
	updated, err := s.Bookings.Transition(ctx, id, []models.BookingStatus{models.StatusApproved}, models.StatusCompleted)
	if err != nil {
		return nil, translate(err, "booking not found")
	}
	s.Logger.Info("Booking completed", zap.String("bookingId", id))
	return updated, nil
}

// holdsSlot reports whether b removed its slot from the tutor's availability.
// Approved bookings always do; pending ones only under HoldSlotOnRequest.
func (s *DefaultBookingService) holdsSlot(b *models.Booking) bool {
	switch b.Status {
	case models.StatusApproved:
		return true
	case models.StatusPending:
		return s.Options.HoldSlotOnRequest
	}
	return false
}

// restoreSlot puts the booking's time back into the tutor's availability. The
// repository applies an atomic set union, so repeated restores are harmless.
func (s *DefaultBookingService) restoreSlot(ctx context.Context, b *models.Booking) error {
	date, clock, ok := b.Slot(s.Options.Location)
	if !ok {
		s.Logger.Warn("Booking has no slot to restore", zap.String("bookingId", b.ID))
		return nil
	}
	return s.Availability.AddSlot(ctx, b.TutorID, date, clock)
}

func (s *DefaultBookingService) loadTutor(ctx context.Context, tutorID string) (*models.User, error) {
	tutor, err := s.Users.GetByID(ctx, tutorID)
	if err != nil {
		return nil, translate(err, "tutor not found")
	}
	if tutor.Role != models.RoleTutor {
		return nil, apperrors.NotFound("tutor not found")
	}
	if tutor.ID == "" {
		tutor.ID = tutorID
	}
	return tutor, nil
}

func (s *DefaultBookingService) observe(operation string, err error) {
	result := "ok"
	if err != nil {
		result = apperrors.FromError(err).Code
	}
	s.Metrics.ObserveBookingOperation(operation, result)
}

// resolveSubject keeps a listed subject, requires one when the tutor lists
// any, and falls back to the default subject otherwise.
func resolveSubject(tutor *models.User, requested string) (string, error) {
	requested = strings.TrimSpace(requested)
	options := tutor.SubjectOptions()
	if len(options) == 0 {
		if requested == "" {
			return models.DefaultSubject, nil
		}
		return requested, nil
	}
	if requested == "" {
		return "", apperrors.Validation("subject is required")
	}
	for _, o := range options {
		if strings.EqualFold(o, requested) {
			return o, nil
		}
	}
	return "", apperrors.Validation("tutor does not teach " + requested)
}

// translate maps repository sentinels onto the error taxonomy.
func translate(err error, notFound string) error {
	var appErr *apperrors.Error
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound(notFound)
	case errors.Is(err, repository.ErrConflict):
		return apperrors.Conflict("slot already taken by another approved booking")
	case errors.Is(err, repository.ErrStatusChanged):
		return apperrors.InvalidTransition("booking changed status concurrently")
	}
	return apperrors.Store(err, "booking store failure")
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
