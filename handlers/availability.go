package handlers

import (
	"context"
	"net/http"
	"time"

	"daresni/apperrors"
	"daresni/models"
	"daresni/services/availability"
	"daresni/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AvailabilityHandler serves tutors' open slots and lets tutors edit their own.
type AvailabilityHandler struct {
	Service       availability.AvailabilityService
	Location      *time.Location
	PickerDays    int
	DirectoryDays int
	Logger        *zap.Logger
	now           func() time.Time
}

func NewAvailabilityHandler(svc availability.AvailabilityService, loc *time.Location, pickerDays, directoryDays int, logger *zap.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{
		Service:       svc,
		Location:      loc,
		PickerDays:    pickerDays,
		DirectoryDays: directoryDays,
		Logger:        logger,
		now:           time.Now,
	}
}

func (h *AvailabilityHandler) today() string {
	return utils.ToCalendarDate(h.now(), h.Location)
}

// GetAvailabilityHandler returns the slots of ?date= for a tutor.
func (h *AvailabilityHandler) GetAvailabilityHandler(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		utils.JSONError(c, h.Logger, apperrors.Validation("date is required (YYYY-MM-DD)"))
		return
	}
	slots, err := h.Service.GetAvailability(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		utils.JSONError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tutorId": c.Param("id"), "date": date, "slots": slots})
}

// GetWindowHandler returns date -> slots for the booking picker, starting today.
func (h *AvailabilityHandler) GetWindowHandler(c *gin.Context) {
	days, err := intQuery(c, "days", h.PickerDays, availability.MaxWindowDays)
	if err != nil {
		utils.JSONError(c, h.Logger, err)
		return
	}
	dates := utils.NextNDates(days, h.now(), h.Location)
	window := h.Service.GetAvailabilityWindow(c.Request.Context(), c.Param("id"), dates)
	c.JSON(http.StatusOK, gin.H{"tutorId": c.Param("id"), "dates": dates, "slots": window})
}

// EarliestHandler maps every tutor with a slot in the window to its earliest one.
func (h *AvailabilityHandler) EarliestHandler(c *gin.Context) {
	days, err := intQuery(c, "days", h.DirectoryDays, availability.MaxWindowDays)
	if err != nil {
		utils.JSONError(c, h.Logger, err)
		return
	}
	start := c.DefaultQuery("start", h.today())
	earliest, err := h.Service.EarliestAcrossWindow(c.Request.Context(), start, days)
	if err != nil {
		utils.JSONError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"start": start, "days": days, "earliest": earliest})
}

// SetMyAvailabilityHandler replaces the caller's slots for :date.
func (h *AvailabilityHandler) SetMyAvailabilityHandler(c *gin.Context) {
	id, ok := mustIdentity(c, h.Logger)
	if !ok {
		return
	}
	var req models.SetAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, h.Logger, bindingError(err))
		return
	}
	if req.Slots == nil {
		req.Slots = []string{}
	}
	slots, err := h.Service.SetAvailability(c.Request.Context(), id.UID, c.Param("date"), req.Slots)
	if err != nil {
		utils.JSONError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tutorId": id.UID, "date": c.Param("date"), "slots": slots})
}

// AddMySlotHandler adds one slot to the caller's :date.
func (h *AvailabilityHandler) AddMySlotHandler(c *gin.Context) {
	id, ok := mustIdentity(c, h.Logger)
	if !ok {
		return
	}
	var req models.SlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, h.Logger, bindingError(err))
		return
	}
	h.editSlot(c, id.UID, req.Time, h.Service.AddSlot)
}

// RemoveMySlotHandler removes :time from the caller's :date.
func (h *AvailabilityHandler) RemoveMySlotHandler(c *gin.Context) {
	id, ok := mustIdentity(c, h.Logger)
	if !ok {
		return
	}
	h.editSlot(c, id.UID, c.Param("time"), h.Service.RemoveSlot)
}

func (h *AvailabilityHandler) editSlot(c *gin.Context, tutorID, slot string, edit func(ctx context.Context, tutorID, date, slot string) error) {
	date := c.Param("date")
	if err := edit(c.Request.Context(), tutorID, date, slot); err != nil {
		utils.JSONError(c, h.Logger, err)
		return
	}
	slots, err := h.Service.GetAvailability(c.Request.Context(), tutorID, date)
	if err != nil {
		utils.JSONError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tutorId": tutorID, "date": date, "slots": slots})
}
