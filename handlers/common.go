package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"daresni/apperrors"
	"daresni/middleware"
	"daresni/services/identity"
	"daresni/utils"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// RegisterValidators adds the isodate (YYYY-MM-DD) and clock (HH:MM) tags to
// gin's validator.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected validator engine")
	}
	if err := v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		return utils.IsCalendarDate(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		return utils.IsClockTime(fl.Field().String())
	})
}

// bindingError turns a gin binding failure into a validation error naming the
// offending fields.
func bindingError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.Validation("invalid request payload")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "isodate":
			msgs = append(msgs, fe.Field()+" must be YYYY-MM-DD")
		case "clock":
			msgs = append(msgs, fe.Field()+" must be HH:MM")
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return apperrors.Validation(strings.Join(msgs, "; "))
}

func mustIdentity(c *gin.Context, logger *zap.Logger) (*identity.Identity, bool) {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		utils.JSONError(c, logger, apperrors.Unauthorized("authentication required"))
		return nil, false
	}
	return id, true
}

// intQuery reads an optional positive integer query parameter.
func intQuery(c *gin.Context, name string, fallback, max int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, apperrors.Validation(name + " must be a positive integer")
	}
	if max > 0 && n > max {
		return 0, apperrors.Validation(fmt.Sprintf("%s must be at most %d", name, max))
	}
	return n, nil
}
