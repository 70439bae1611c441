package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/teamsync/scheduler-backend/internal/database"
	"github.com/teamsync/scheduler-backend/internal/models"
	"github.com/teamsync/scheduler-backend/internal/utils"
)

// AuditService handles audit logging for security events
type AuditService struct {
	db database.DB
}

// NewAuditService creates a new audit service
func NewAuditService(db database.DB) *AuditService {
	return &AuditService{
		db: db,
	}
}

// AuditEvent represents a security event to be logged
type AuditEvent struct {
	UserID    *uuid.UUID // nil for pre-authentication events
	UserType  models.UserType
	Action    string
	IPAddress string
	UserAgent string
	Details   map[string]interface{}
}

// LogOTPRequest logs an OTP generation request
func (s *AuditService) LogOTPRequest(email, purpose, ipAddress, userAgent string, success bool, reason string) error {
	details := map[string]interface{}{
		"email":       email,
		"purpose":     purpose,
		"success":     success,
		"device_info": utils.ParseUserAgent(userAgent),
	}

	if reason != "" {
		details["reason"] = reason
	}

	return s.logEvent(AuditEvent{
		Action:    "otp_request",
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Details:   details,
	})
}

// LogOTPVerification logs an OTP verification attempt
func (s *AuditService) LogOTPVerification(userID *uuid.UUID, userType models.UserType, email string, success bool, ipAddress, userAgent, failureReason string) error {
	details := map[string]interface{}{
		"email":       email,
		"success":     success,
		"device_info": utils.ParseUserAgent(userAgent),
	}

	if !success && failureReason != "" {
		details["failure_reason"] = failureReason
	}

	action := "otp_verify_failed"
	if success {
		action = "otp_verify_success"
	}

	return s.logEvent(AuditEvent{
		UserID:    userID,
		UserType:  userType,
		Action:    action,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Details:   details,
	})
}

// LogRateLimitViolation logs a rate limit violation event
func (s *AuditService) LogRateLimitViolation(email, ipAddress, userAgent, limitType string, retryAfter time.Time) error {
	details := map[string]interface{}{
		"email":       email,
		"limit_type":  limitType, // "email" or "ip"
		"retry_after": retryAfter,
		"device_info": utils.ParseUserAgent(userAgent),
	}

	return s.logEvent(AuditEvent{
		Action:    "rate_limit_violation",
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Details:   details,
	})
}

// LogLogin logs a login attempt
func (s *AuditService) LogLogin(userID *uuid.UUID, userType models.UserType, email string, success bool, ipAddress, userAgent, failureReason string) error {
	details := map[string]interface{}{
		"email":       email,
		"success":     success,
		"device_info": utils.ParseUserAgent(userAgent),
	}

	if !success && failureReason != "" {
		details["failure_reason"] = failureReason
	}

	action := "login_failed"
	if success {
		action = "login_success"
	}

	return s.logEvent(AuditEvent{
		UserID:    userID,
		UserType:  userType,
		Action:    action,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Details:   details,
	})
}

// LogLogout logs a logout event
func (s *AuditService) LogLogout(userID uuid.UUID, userType models.UserType, ipAddress, userAgent string) error {
	return s.logEvent(AuditEvent{
		UserID:    &userID,
		UserType:  userType,
		Action:    "logout",
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Details: map[string]interface{}{
			"device_info": utils.ParseUserAgent(userAgent),
		},
	})
}

// LogTokenRefresh logs a refresh token usage event
func (s *AuditService) LogTokenRefresh(userID uuid.UUID, userType models.UserType, success bool, ipAddress, userAgent string) error {
	action := "token_refresh_failed"
	if success {
		action = "token_refresh_success"
	}

	return s.logEvent(AuditEvent{
		UserID:    &userID,
		UserType:  userType,
		Action:    action,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Details: map[string]interface{}{
			"success":     success,
			"device_info": utils.ParseUserAgent(userAgent),
		},
	})
}

// logEvent is the internal method that writes to the audit_logs table
func (s *AuditService) logEvent(event AuditEvent) error {
	query := `
		INSERT INTO audit_logs (user_id, user_type, action, ip_address, user_agent, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	var userID uuid.NullUUID
	if event.UserID != nil {
		userID = uuid.NullUUID{UUID: *event.UserID, Valid: true}
	}

	var details models.NullString
	if event.Details != nil {
		encoded, err := json.Marshal(event.Details)
		if err != nil {
			return fmt.Errorf("failed to encode audit details: %w", err)
		}
		details = models.NewNullString(string(encoded))
	}

	_, err := s.db.Exec(
		query,
		userID,
		models.NewNullString(string(event.UserType)),
		event.Action,
		models.NewNullString(event.IPAddress),
		models.NewNullString(event.UserAgent),
		details,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to log audit event: %w", err)
	}

	return nil
}

// GetRecentEvents retrieves recent audit events for a user
func (s *AuditService) GetRecentEvents(userID uuid.UUID, limit int) ([]models.AuditLog, error) {
	events := []models.AuditLog{}

	query := `
		SELECT id, user_id, user_type, action, ip_address, user_agent, details, created_at
		FROM audit_logs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	if err := s.db.Select(&events, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to get recent events: %w", err)
	}

	return events, nil
}

// CleanupOldAuditLogs removes audit logs older than the specified duration
func (s *AuditService) CleanupOldAuditLogs(olderThan time.Duration) (int64, error) {
	cutoffTime := time.Now().Add(-olderThan)

	result, err := s.db.Exec(`DELETE FROM audit_logs WHERE created_at < $1`, cutoffTime)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old audit logs: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
