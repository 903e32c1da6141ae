package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"daresni/apperrors"
	"daresni/models"
	"daresni/services/identity"
	"daresni/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubVerifier struct{}

func (stubVerifier) Verify(ctx context.Context, token string) (*identity.Identity, error) {
	if token == "good" {
		return &identity.Identity{UID: "uid_1", Email: "a@b.c", Role: models.RoleStudent}, nil
	}
	return nil, apperrors.Unauthorized("invalid or expired token")
}

func newRouter(devBypass bool, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	r := gin.New()
	handlers := append([]gin.HandlerFunc{Authenticate(stubVerifier{}, devBypass, logger)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		id, _ := CurrentIdentity(c)
		c.JSON(http.StatusOK, id)
	})
	r.GET("/me", handlers...)
	return r
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticateBearerToken(t *testing.T) {
	r := newRouter(false)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	w := serve(r, req)
	require.Equal(t, http.StatusOK, w.Code)
	var id identity.Identity
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &id))
	assert.Equal(t, "uid_1", id.UID)

	for _, header := range []string{"", "Bearer", "Basic good", "Bearer bad"} {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := serve(r, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, header)

		var body utils.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, apperrors.ErrUnauthorized.Code, body.Error.Code)
	}
}

func TestAuthenticateIgnoresQueryTokenOutsideWebSockets(t *testing.T) {
	r := newRouter(false)
	w := serve(r, httptest.NewRequest(http.MethodGet, "/me?token=good", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticateDevBypass(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(identity.DevRoleHeader, "tutor")

	w := serve(newRouter(true), req)
	require.Equal(t, http.StatusOK, w.Code)
	var id identity.Identity
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &id))
	assert.Equal(t, "dev-tutor", id.UID)
	assert.Equal(t, models.RoleTutor, id.Role)

	// Without the bypass the header is meaningless.
	w = serve(newRouter(false), req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole(t *testing.T) {
	r := newRouter(true, RequireRole(zap.NewNop(), models.RoleTutor))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(identity.DevRoleHeader, "student")
	assert.Equal(t, http.StatusForbidden, serve(r, req).Code)

	req.Header.Set(identity.DevRoleHeader, "tutor")
	assert.Equal(t, http.StatusOK, serve(r, req).Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimitMiddleware(2, zap.NewNop()))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		codes = append(codes, serve(r, req).Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)

	other := httptest.NewRequest(http.MethodGet, "/ping", nil)
	other.RemoteAddr = "10.0.0.2:5000"
	assert.Equal(t, http.StatusNoContent, serve(r, other).Code)
}
