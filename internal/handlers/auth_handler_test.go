package handlers

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/teamsync/scheduler-backend/internal/config"
	"github.com/teamsync/scheduler-backend/internal/database"
	"github.com/teamsync/scheduler-backend/internal/services"
	"github.com/teamsync/scheduler-backend/pkg/email"
	"github.com/teamsync/scheduler-backend/pkg/jwt"
	"github.com/teamsync/scheduler-backend/pkg/validator"
)

func newMockDB(t *testing.T) (database.DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	return &database.PostgresDB{DB: sqlx.NewDb(mockDB, "sqlmock")}, mock
}

func newTestAuthHandler(t *testing.T) (*AuthHandler, sqlmock.Sqlmock) {
	t.Helper()

	db, mock := newMockDB(t)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := &config.Config{
		Security: config.SecurityConfig{BcryptCost: bcrypt.MinCost},
	}

	jwtService := jwt.NewService(
		"test-access-secret-at-least-32-chars",
		"test-refresh-secret-at-least-32-chars",
		15*time.Minute,
		7*24*time.Hour,
	)
	notifier := services.NewNotificationService(email.NewDevGateway(logger), logger, "http://localhost:3000")

	handler := NewAuthHandler(
		jwtService,
		services.NewOTPService(db),
		services.NewRateLimitService(db),
		services.NewAuditService(db),
		notifier,
		validator.NewEmailValidator(),
		database.NewManagerRepository(db),
		database.NewEmployeeRepository(db),
		database.NewAdminRepository(db),
		database.NewRefreshTokenRepository(db),
		cfg,
		logger,
	)
	return handler, mock
}

func unverifiedManagerRow(t *testing.T, id uuid.UUID, email, password string) *sqlmock.Rows {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	return sqlmock.NewRows([]string{
		"id", "email", "password_hash", "name", "company_name", "company_size",
		"phone", "profile_picture", "is_verified", "is_approved",
		"rejection_reason", "created_at", "updated_at",
	}).AddRow(id, email, string(hash), "Boss", "Acme", nil, nil, nil, false, false, nil, time.Now(), time.Now())
}

func postLogin(handler *AuthHandler, body string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/login", handler.Login)

	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestLogin_UnverifiedManagerGetsFreshSignupCode(t *testing.T) {
	handler, mock := newTestAuthHandler(t)
	managerID := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM managers").
		WithArgs("boss@acme.test").
		WillReturnRows(unverifiedManagerRow(t, managerID, "boss@acme.test", "password123"))
	mock.ExpectQuery("SELECT (.+) FROM managers").
		WithArgs("boss@acme.test").
		WillReturnRows(unverifiedManagerRow(t, managerID, "boss@acme.test", "password123"))
	mock.ExpectExec("INSERT INTO audit_logs").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT (.+) FROM otp_rate_limits").
		WithArgs("boss@acme.test", "email", sqlmock.AnyArg()).
		WillReturnRows(rateLimitCountRow(0))
	mock.ExpectQuery("SELECT (.+) FROM otp_rate_limits").
		WithArgs(sqlmock.AnyArg(), "ip", sqlmock.AnyArg()).
		WillReturnRows(rateLimitCountRow(0))
	mock.ExpectExec("UPDATE otp_verifications").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO otp_verifications").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO otp_rate_limits").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO otp_rate_limits").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO audit_logs").
		WillReturnResult(sqlmock.NewResult(1, 1))

	w := postLogin(handler, `{"email":"boss@acme.test","password":"password123","user_type":"manager"}`)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "email_not_verified")
	assert.Contains(t, w.Body.String(), "new verification code")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogin_UnverifiedManagerResendIsRateLimited(t *testing.T) {
	handler, mock := newTestAuthHandler(t)
	managerID := uuid.New()
	limits := services.DefaultRateLimitConfig()

	mock.ExpectQuery("SELECT (.+) FROM managers").
		WithArgs("boss@acme.test").
		WillReturnRows(unverifiedManagerRow(t, managerID, "boss@acme.test", "password123"))
	mock.ExpectQuery("SELECT (.+) FROM managers").
		WithArgs("boss@acme.test").
		WillReturnRows(unverifiedManagerRow(t, managerID, "boss@acme.test", "password123"))
	mock.ExpectExec("INSERT INTO audit_logs").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT (.+) FROM otp_rate_limits").
		WithArgs("boss@acme.test", "email", sqlmock.AnyArg()).
		WillReturnRows(rateLimitCountRow(limits.MaxEmailRequests))
	mock.ExpectExec("INSERT INTO audit_logs").
		WillReturnResult(sqlmock.NewResult(1, 1))

	w := postLogin(handler, `{"email":"boss@acme.test","password":"password123","user_type":"manager"}`)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "rate_limit_exceeded")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func rateLimitCountRow(count int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"count", "coalesce"}).AddRow(count, time.Now())
}
