package middleware

import (
	"strings"

	"daresni/apperrors"
	"daresni/services/identity"
	"daresni/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Authenticate resolves the caller from the Authorization header, or from the
// token query parameter for WebSocket upgrades, which cannot set headers from
// a browser. With devBypass on, X-Dev-Role short-circuits verification.
func Authenticate(verifier identity.Verifier, devBypass bool, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if devBypass {
			if role := c.GetHeader(identity.DevRoleHeader); role != "" {
				id, err := identity.DevIdentity(role, c.GetHeader(identity.DevUIDHeader))
				if err != nil {
					utils.JSONError(c, logger, err)
					return
				}
				c.Set(utils.ContextIdentityKey, id)
				c.Next()
				return
			}
		}

		token, err := bearerToken(c)
		if err != nil {
			utils.JSONError(c, logger, err)
			return
		}
		if verifier == nil {
			utils.JSONError(c, logger, apperrors.Unauthorized("token verification is not configured"))
			return
		}
		id, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			utils.JSONError(c, logger, err)
			return
		}
		c.Set(utils.ContextIdentityKey, id)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if token := c.Query("token"); token != "" && c.IsWebsocket() {
			return token, nil
		}
		return "", apperrors.Unauthorized("missing Authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", apperrors.Unauthorized("invalid Authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}

// CurrentIdentity returns the identity stored by Authenticate.
func CurrentIdentity(c *gin.Context) (*identity.Identity, bool) {
	v, ok := c.Get(utils.ContextIdentityKey)
	if !ok {
		return nil, false
	}
	id, ok := v.(*identity.Identity)
	return id, ok && id != nil
}
