package models

import (
	"time"

	"github.com/google/uuid"
)

// Employee represents an employee account belonging to exactly one manager
type Employee struct {
	ID                 uuid.UUID  `json:"id" db:"id"`
	Email              string     `json:"email" db:"email"`
	PasswordHash       NullString `json:"-" db:"password_hash"` // NULL until account verified
	Name               string     `json:"name" db:"name"`
	Role               NullString `json:"role" db:"role"`
	Department         NullString `json:"department" db:"department"`
	Phone              NullString `json:"phone" db:"phone"`
	ProfilePicture     NullString `json:"profile_picture" db:"profile_picture"`
	ManagerID          uuid.UUID  `json:"manager_id" db:"manager_id"`
	VerificationToken  NullString `json:"-" db:"verification_token"` // Never expose
	VerificationSentAt NullTime   `json:"-" db:"verification_sent_at"`
	IsVerified         bool       `json:"is_verified" db:"is_verified"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
}

// EmployeeSummary is the embedded employee view used in meeting responses
type EmployeeSummary struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	Name       string     `json:"name" db:"name"`
	Email      string     `json:"email" db:"email"`
	Role       NullString `json:"role" db:"role"`
	Department NullString `json:"department" db:"department"`
}

// Summary converts a full employee row into its embedded view
func (e *Employee) Summary() EmployeeSummary {
	return EmployeeSummary{
		ID:         e.ID,
		Name:       e.Name,
		Email:      e.Email,
		Role:       e.Role,
		Department: e.Department,
	}
}
