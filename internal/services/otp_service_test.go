package services

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamsync/scheduler-backend/internal/database"
)

var otpColumns = []string{
	"id", "email", "otp_code", "purpose", "created_at", "expires_at",
	"verified", "verified_at", "attempts", "max_attempts", "ip_address", "user_agent",
}

// newMockDB wires a sqlmock connection through the sqlx wrapper so repository
// and service code sees the same interface it does in production
func newMockDB(t *testing.T) (database.DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	return &database.PostgresDB{DB: sqlx.NewDb(mockDB, "sqlmock")}, mock
}

func otpRow(code string, expiresAt time.Time, verified bool, attempts int) *sqlmock.Rows {
	return sqlmock.NewRows(otpColumns).
		AddRow(int64(1), "user@acme.test", code, OTPPurposeSignup,
			time.Now().Add(-time.Minute), expiresAt, verified, nil, attempts, MaxOTPAttempts, nil, nil)
}

func TestGenerateOTP(t *testing.T) {
	db, mock := newMockDB(t)
	service := NewOTPService(db)

	mock.ExpectExec("UPDATE otp_verifications").
		WithArgs("user@acme.test", OTPPurposeSignup).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO otp_verifications").
		WithArgs("user@acme.test", sqlmock.AnyArg(), OTPPurposeSignup,
			sqlmock.AnyArg(), sqlmock.AnyArg(), MaxOTPAttempts, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	otp, err := service.GenerateOTP("user@acme.test", OTPPurposeSignup, "203.0.113.9", "test-agent")

	require.NoError(t, err)
	assert.Len(t, otp, OTPLength)
	for _, c := range otp {
		assert.True(t, c >= '0' && c <= '9', "OTP must be numeric, got %q", otp)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerateOTP_InvalidatesPreviousCode(t *testing.T) {
	db, mock := newMockDB(t)
	service := NewOTPService(db)

	// The invalidation of older codes must run before the insert
	mock.ExpectExec("UPDATE otp_verifications").
		WithArgs("user@acme.test", OTPPurposeLogin).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO otp_verifications").
		WillReturnResult(sqlmock.NewResult(1, 1))

	_, err := service.GenerateOTP("user@acme.test", OTPPurposeLogin, "", "")

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValidateOTP_Success(t *testing.T) {
	db, mock := newMockDB(t)
	service := NewOTPService(db)

	mock.ExpectQuery("SELECT (.+) FROM otp_verifications").
		WithArgs("user@acme.test", OTPPurposeSignup).
		WillReturnRows(otpRow("123456", time.Now().Add(5*time.Minute), false, 0))
	mock.ExpectExec("UPDATE otp_verifications").
		WithArgs("user@acme.test", OTPPurposeSignup).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE otp_verifications").
		WithArgs(sqlmock.AnyArg(), "user@acme.test", OTPPurposeSignup).
		WillReturnResult(sqlmock.NewResult(0, 1))

	valid, err := service.ValidateOTP("user@acme.test", OTPPurposeSignup, "123456")

	require.NoError(t, err)
	assert.True(t, valid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValidateOTP_WrongCode(t *testing.T) {
	db, mock := newMockDB(t)
	service := NewOTPService(db)

	mock.ExpectQuery("SELECT (.+) FROM otp_verifications").
		WithArgs("user@acme.test", OTPPurposeSignup).
		WillReturnRows(otpRow("123456", time.Now().Add(5*time.Minute), false, 0))
	// A failed guess still burns an attempt
	mock.ExpectExec("UPDATE otp_verifications").
		WithArgs("user@acme.test", OTPPurposeSignup).
		WillReturnResult(sqlmock.NewResult(0, 1))

	valid, err := service.ValidateOTP("user@acme.test", OTPPurposeSignup, "999999")

	assert.False(t, valid)
	assert.ErrorIs(t, err, ErrOTPInvalid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValidateOTP_Expired(t *testing.T) {
	db, mock := newMockDB(t)
	service := NewOTPService(db)

	mock.ExpectQuery("SELECT (.+) FROM otp_verifications").
		WithArgs("user@acme.test", OTPPurposeSignup).
		WillReturnRows(otpRow("123456", time.Now().Add(-time.Minute), false, 0))

	valid, err := service.ValidateOTP("user@acme.test", OTPPurposeSignup, "123456")

	assert.False(t, valid)
	assert.ErrorIs(t, err, ErrOTPExpired)
}

func TestValidateOTP_MaxAttemptsExceeded(t *testing.T) {
	db, mock := newMockDB(t)
	service := NewOTPService(db)

	mock.ExpectQuery("SELECT (.+) FROM otp_verifications").
		WithArgs("user@acme.test", OTPPurposeSignup).
		WillReturnRows(otpRow("123456", time.Now().Add(5*time.Minute), false, MaxOTPAttempts))

	valid, err := service.ValidateOTP("user@acme.test", OTPPurposeSignup, "123456")

	assert.False(t, valid)
	assert.ErrorIs(t, err, ErrMaxAttemptsExceeded)
}

func TestValidateOTP_AlreadyUsed(t *testing.T) {
	db, mock := newMockDB(t)
	service := NewOTPService(db)

	mock.ExpectQuery("SELECT (.+) FROM otp_verifications").
		WithArgs("user@acme.test", OTPPurposeSignup).
		WillReturnRows(otpRow("123456", time.Now().Add(5*time.Minute), true, 1))

	valid, err := service.ValidateOTP("user@acme.test", OTPPurposeSignup, "123456")

	assert.False(t, valid)
	assert.ErrorIs(t, err, ErrOTPAlreadyUsed)
}

func TestValidateOTP_NoOTPFound(t *testing.T) {
	db, mock := newMockDB(t)
	service := NewOTPService(db)

	mock.ExpectQuery("SELECT (.+) FROM otp_verifications").
		WithArgs("user@acme.test", OTPPurposeLogin).
		WillReturnRows(sqlmock.NewRows(otpColumns))

	valid, err := service.ValidateOTP("user@acme.test", OTPPurposeLogin, "123456")

	assert.False(t, valid)
	assert.ErrorIs(t, err, ErrNoOTPFound)
}

func TestGetRemainingAttempts(t *testing.T) {
	db, mock := newMockDB(t)
	service := NewOTPService(db)

	mock.ExpectQuery("SELECT (.+) FROM otp_verifications").
		WithArgs("user@acme.test", OTPPurposeSignup).
		WillReturnRows(otpRow("123456", time.Now().Add(5*time.Minute), false, 1))

	remaining, err := service.GetRemainingAttempts("user@acme.test", OTPPurposeSignup)

	require.NoError(t, err)
	assert.Equal(t, MaxOTPAttempts-1, remaining)
}

func TestCleanupExpiredOTPs(t *testing.T) {
	db, mock := newMockDB(t)
	service := NewOTPService(db)

	mock.ExpectExec("DELETE FROM otp_verifications").
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 4))

	removed, err := service.CleanupExpiredOTPs()

	require.NoError(t, err)
	assert.Equal(t, int64(4), removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
