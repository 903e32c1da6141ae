package handlers

import (
	"net/http"

	"daresni/services/tutors"
	"daresni/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TutorHandler serves the tutor directory.
type TutorHandler struct {
	Service tutors.TutorService
	Logger  *zap.Logger
}

func NewTutorHandler(svc tutors.TutorService, logger *zap.Logger) *TutorHandler {
	return &TutorHandler{Service: svc, Logger: logger}
}

func (h *TutorHandler) ListTutorsHandler(c *gin.Context) {
	var filter tutors.Filter
	if err := c.ShouldBindQuery(&filter); err != nil {
		utils.JSONError(c, h.Logger, bindingError(err))
		return
	}
	listings, err := h.Service.ListTutors(c.Request.Context(), filter)
	if err != nil {
		utils.JSONError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tutors": listings, "count": len(listings)})
}

func (h *TutorHandler) GetTutorHandler(c *gin.Context) {
	tutor, err := h.Service.GetTutor(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.JSONError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, tutor)
}

// QuoteHandler prices a session: ?subject=&duration=.
func (h *TutorHandler) QuoteHandler(c *gin.Context) {
	duration, err := intQuery(c, "duration", 0, 0)
	if err != nil {
		utils.JSONError(c, h.Logger, err)
		return
	}
	quote, err := h.Service.Quote(c.Request.Context(), c.Param("id"), c.Query("subject"), duration)
	if err != nil {
		utils.JSONError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}
