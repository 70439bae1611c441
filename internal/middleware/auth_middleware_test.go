package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamsync/scheduler-backend/internal/models"
	"github.com/teamsync/scheduler-backend/pkg/jwt"
)

func newTestRouter(jwtService *jwt.Service, types ...models.UserType) *gin.Engine {
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	router := gin.New()
	group := router.Group("/protected")
	group.Use(AuthMiddleware(jwtService, logger))
	if len(types) > 0 {
		group.Use(RequireUserType(types...))
	}
	group.GET("", func(c *gin.Context) {
		userCtx := MustGetUserContext(c)
		c.JSON(http.StatusOK, gin.H{"user_id": userCtx.UserID, "user_type": userCtx.UserType})
	})

	return router
}

func doRequest(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func newJWTService(accessExpiry time.Duration) *jwt.Service {
	return jwt.NewService("access-secret-for-tests-only!!", "refresh-secret-for-tests-only!!", accessExpiry, time.Hour)
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	jwtService := newJWTService(15 * time.Minute)
	router := newTestRouter(jwtService)

	token, err := jwtService.GenerateAccessToken(uuid.New(), "user@acme.test", "manager")
	require.NoError(t, err)

	w := doRequest(router, "Bearer "+token)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	router := newTestRouter(newJWTService(15 * time.Minute))

	w := doRequest(router, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "MISSING_AUTH_HEADER")
}

func TestAuthMiddleware_BadFormat(t *testing.T) {
	router := newTestRouter(newJWTService(15 * time.Minute))

	for _, header := range []string{"Basic abc", "Bearer", "Bearer "} {
		w := doRequest(router, header)

		assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q", header)
		assert.Contains(t, w.Body.String(), "INVALID_AUTH_FORMAT")
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	router := newTestRouter(newJWTService(15 * time.Minute))

	w := doRequest(router, "Bearer not-a-real-token")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_TOKEN")
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	expired := newJWTService(-time.Minute)
	router := newTestRouter(expired)

	token, err := expired.GenerateAccessToken(uuid.New(), "user@acme.test", "manager")
	require.NoError(t, err)

	w := doRequest(router, "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "TOKEN_EXPIRED")
}

func TestAuthMiddleware_RejectsRefreshToken(t *testing.T) {
	jwtService := newJWTService(15 * time.Minute)
	router := newTestRouter(jwtService)

	refreshToken, err := jwtService.GenerateRefreshToken(uuid.New(), "user@acme.test", "manager")
	require.NoError(t, err)

	w := doRequest(router, "Bearer "+refreshToken)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireUserType(t *testing.T) {
	jwtService := newJWTService(15 * time.Minute)
	router := newTestRouter(jwtService, models.UserTypeManager)

	managerToken, err := jwtService.GenerateAccessToken(uuid.New(), "boss@acme.test", string(models.UserTypeManager))
	require.NoError(t, err)
	employeeToken, err := jwtService.GenerateAccessToken(uuid.New(), "jane@acme.test", string(models.UserTypeEmployee))
	require.NoError(t, err)

	w := doRequest(router, "Bearer "+managerToken)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, "Bearer "+employeeToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "INSUFFICIENT_PERMISSIONS")
}

func TestGetUserContext_Empty(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, exists := GetUserContext(c)
	assert.False(t, exists)
}
