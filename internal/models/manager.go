package models

import (
	"time"

	"github.com/google/uuid"
)

// Manager represents a manager account that owns employees and meetings
type Manager struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	Email           string     `json:"email" db:"email"`
	PasswordHash    string     `json:"-" db:"password_hash"` // Never expose
	Name            string     `json:"name" db:"name"`
	CompanyName     string     `json:"company_name" db:"company_name"`
	CompanySize     NullString `json:"company_size" db:"company_size"`
	Phone           NullString `json:"phone" db:"phone"`
	ProfilePicture  NullString `json:"profile_picture" db:"profile_picture"`
	IsVerified      bool       `json:"is_verified" db:"is_verified"`
	IsApproved      bool       `json:"is_approved" db:"is_approved"`
	RejectionReason NullString `json:"rejection_reason" db:"rejection_reason"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// ManagerSummary is the embedded manager view returned inside employee
// profiles and meeting listings
type ManagerSummary struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	Name           string     `json:"name" db:"name"`
	Email          string     `json:"email" db:"email"`
	CompanyName    string     `json:"company_name" db:"company_name"`
	Phone          NullString `json:"phone" db:"phone"`
	ProfilePicture NullString `json:"profile_picture" db:"profile_picture"`
}

// Summary converts a full manager row into its embedded view
func (m *Manager) Summary() ManagerSummary {
	return ManagerSummary{
		ID:             m.ID,
		Name:           m.Name,
		Email:          m.Email,
		CompanyName:    m.CompanyName,
		Phone:          m.Phone,
		ProfilePicture: m.ProfilePicture,
	}
}

// ManagerDetail is the admin view of a manager with aggregate counts
type ManagerDetail struct {
	Manager
	EmployeeCount       int `json:"employee_count" db:"employee_count"`
	MeetingCount        int `json:"meeting_count" db:"meeting_count"`
	PendingMeetingCount int `json:"pending_meeting_count" db:"pending_meeting_count"`
}
