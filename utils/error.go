package utils

import (
	"errors"
	"net/http"

	"daresni/apperrors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorHandler recovers panics and answers with a generic 500.
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("Unhandled panic", zap.Any("error", err), zap.String("path", c.Request.URL.Path))
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: ErrorBody{
					Code:    apperrors.ErrStore.Code,
					Message: "An unexpected error occurred. Please try again later.",
				}})
			}
		}()
		c.Next()
	}
}

// JSONError renders err with the status of its apperrors kind. Store failures
// are logged and their cause is not exposed.
func JSONError(c *gin.Context, logger *zap.Logger, err error) {
	appErr := apperrors.FromError(err)
	message := appErr.Message
	if errors.Is(appErr, apperrors.ErrStore) {
		logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		message = apperrors.ErrStore.Message
	} else {
		logger.Debug("Request rejected", zap.String("code", appErr.Code), zap.String("message", appErr.Message))
	}
	c.AbortWithStatusJSON(appErr.Status, ErrorResponse{Error: ErrorBody{Code: appErr.Code, Message: message}})
}
