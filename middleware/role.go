package middleware

import (
	"daresni/apperrors"
	"daresni/models"
	"daresni/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequireRole admits callers holding one of roles. It must run after Authenticate.
func RequireRole(logger *zap.Logger, roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		id, ok := CurrentIdentity(c)
		if !ok {
			utils.JSONError(c, logger, apperrors.Unauthorized("authentication required"))
			return
		}
		if _, ok := allowed[id.Role]; !ok {
			utils.JSONError(c, logger, apperrors.Forbidden("this action requires the "+joinRoles(roles)+" role"))
			return
		}
		c.Next()
	}
}

func joinRoles(roles []models.Role) string {
	out := ""
	for i, r := range roles {
		if i > 0 {
			out += " or "
		}
		out += string(r)
	}
	return out
}
