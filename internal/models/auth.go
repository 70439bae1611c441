package models

import (
	"time"

	"github.com/google/uuid"
)

// UserType discriminates the three account kinds at authorization boundaries
type UserType string

const (
	UserTypeManager  UserType = "manager"
	UserTypeEmployee UserType = "employee"
	UserTypeAdmin    UserType = "admin"
)

// IsValid reports whether the user type is known
func (t UserType) IsValid() bool {
	switch t {
	case UserTypeManager, UserTypeEmployee, UserTypeAdmin:
		return true
	}
	return false
}

// Admin represents a platform administrator account
type Admin struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Name         string    `json:"name" db:"name"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// OTPVerification represents an OTP verification record
type OTPVerification struct {
	ID          int64      `json:"id" db:"id"`
	Email       string     `json:"email" db:"email"`
	OTPCode     string     `json:"-" db:"otp_code"` // Never expose in JSON
	Purpose     string     `json:"purpose" db:"purpose"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	ExpiresAt   time.Time  `json:"expires_at" db:"expires_at"`
	Verified    bool       `json:"verified" db:"verified"`
	VerifiedAt  NullTime   `json:"verified_at" db:"verified_at"`
	Attempts    int        `json:"attempts" db:"attempts"`
	MaxAttempts int        `json:"max_attempts" db:"max_attempts"`
	IPAddress   NullString `json:"ip_address" db:"ip_address"`
	UserAgent   NullString `json:"user_agent" db:"user_agent"`
}

// RefreshToken represents a stored JWT refresh token
type RefreshToken struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	UserID     uuid.UUID  `json:"user_id" db:"user_id"`
	UserType   UserType   `json:"user_type" db:"user_type"`
	TokenHash  string     `json:"-" db:"token_hash"` // Never expose
	IPAddress  NullString `json:"ip_address" db:"ip_address"`
	UserAgent  NullString `json:"user_agent" db:"user_agent"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at" db:"expires_at"`
	LastUsedAt NullTime   `json:"last_used_at" db:"last_used_at"`
	Revoked    bool       `json:"revoked" db:"revoked"`
	RevokedAt  NullTime   `json:"revoked_at" db:"revoked_at"`
}

// AuditLog represents a security audit log entry
type AuditLog struct {
	ID        int64         `json:"id" db:"id"`
	UserID    uuid.NullUUID `json:"user_id" db:"user_id"`
	UserType  NullString    `json:"user_type" db:"user_type"`
	Action    string        `json:"action" db:"action"`
	IPAddress NullString    `json:"ip_address" db:"ip_address"`
	UserAgent NullString    `json:"user_agent" db:"user_agent"`
	Details   NullString    `json:"details" db:"details"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
}
