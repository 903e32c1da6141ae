package handlers

import (
	"context"
	"net/http"

	"daresni/apperrors"
	"daresni/models"
	"daresni/services/booking"
	"daresni/services/identity"
	"daresni/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookingHandler exposes the booking lifecycle. Every action on an existing
// booking is limited to its tutor and student.
type BookingHandler struct {
	Service booking.BookingService
	Logger  *zap.Logger
}

func NewBookingHandler(svc booking.BookingService, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{Service: svc, Logger: logger}
}

// CreateBookingHandler files a request for the calling student.
func (h *BookingHandler) CreateBookingHandler(c *gin.Context) {
	id, ok := mustIdentity(c, h.Logger)
	if !ok {
		return
	}
	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, h.Logger, bindingError(err))
		return
	}
	b, err := h.Service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		StudentID:       id.UID,
		StudentName:     id.Name,
		StudentEmail:    id.Email,
		TutorID:         req.TutorID,
		Subject:         req.Subject,
		Date:            req.Date,
		Time:            req.Time,
		DurationMinutes: req.DurationMinutes,
	})
	if err != nil {
		utils.JSONError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *BookingHandler) GetBookingHandler(c *gin.Context) {
	b, ok := h.authorize(c, true)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) ApproveBookingHandler(c *gin.Context) {
	if _, ok := h.authorize(c, false); !ok {
		return
	}
	h.respond(c, h.Service.ApproveBooking)
}

func (h *BookingHandler) RejectBookingHandler(c *gin.Context) {
	if _, ok := h.authorize(c, false); !ok {
		return
	}
	if err := h.Service.RejectBooking(c.Request.Context(), c.Param("id")); err != nil {
		utils.JSONError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "rejected": true})
}

func (h *BookingHandler) CancelBookingHandler(c *gin.Context) {
	if _, ok := h.authorize(c, true); !ok {
		return
	}
	h.respond(c, h.Service.CancelBooking)
}

func (h *BookingHandler) CompleteBookingHandler(c *gin.Context) {
	if _, ok := h.authorize(c, true); !ok {
		return
	}
	h.respond(c, h.Service.CompleteBooking)
}

// authorize loads :id and checks the caller is its tutor, or its student when
// allowStudent is set.
func (h *BookingHandler) authorize(c *gin.Context, allowStudent bool) (*models.Booking, bool) {
	id, ok := mustIdentity(c, h.Logger)
	if !ok {
		return nil, false
	}
	b, err := h.Service.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.JSONError(c, h.Logger, err)
		return nil, false
	}
	if !isParty(id, b, allowStudent) {
		utils.JSONError(c, h.Logger, apperrors.Forbidden("not a party to this booking"))
		return nil, false
	}
	return b, true
}

func isParty(id *identity.Identity, b *models.Booking, allowStudent bool) bool {
	if b.TutorID == id.UID {
		return true
	}
	return allowStudent && b.StudentID == id.UID
}

func (h *BookingHandler) respond(c *gin.Context, action func(ctx context.Context, id string) (*models.Booking, error)) {
	b, err := action(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.JSONError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, b)
}
