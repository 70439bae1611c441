package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/teamsync/scheduler-backend/internal/models"
)

// AdminRepository handles admin account lookups and dashboard aggregates
type AdminRepository struct {
	db DB
}

// NewAdminRepository creates a new admin repository
func NewAdminRepository(db DB) *AdminRepository {
	return &AdminRepository{
		db: db,
	}
}

// GetAdminByEmail retrieves an admin account by email
func (r *AdminRepository) GetAdminByEmail(email string) (*models.Admin, error) {
	var admin models.Admin

	query := `
		SELECT id, email, password_hash, name, created_at
		FROM admins
		WHERE email = $1
	`

	err := r.db.Get(&admin, query, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get admin by email: %w", err)
	}

	return &admin, nil
}

// GetAdminByID retrieves an admin account by ID
func (r *AdminRepository) GetAdminByID(id uuid.UUID) (*models.Admin, error) {
	var admin models.Admin

	query := `
		SELECT id, email, password_hash, name, created_at
		FROM admins
		WHERE id = $1
	`

	err := r.db.Get(&admin, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get admin by ID: %w", err)
	}

	return &admin, nil
}

// DashboardStats aggregates platform-wide counts for the admin dashboard
type DashboardStats struct {
	TotalManagers     int `json:"total_managers" db:"total_managers"`
	PendingManagers   int `json:"pending_managers" db:"pending_managers"`
	ApprovedManagers  int `json:"approved_managers" db:"approved_managers"`
	TotalEmployees    int `json:"total_employees" db:"total_employees"`
	TotalMeetings     int `json:"total_meetings" db:"total_meetings"`
	PendingMeetings   int `json:"pending_meetings" db:"pending_meetings"`
	AcceptedMeetings  int `json:"accepted_meetings" db:"accepted_meetings"`
	RejectedMeetings  int `json:"rejected_meetings" db:"rejected_meetings"`
	CancelledMeetings int `json:"cancelled_meetings" db:"cancelled_meetings"`
	NewManagers7d     int `json:"new_managers_last_7_days" db:"new_managers_7d"`
	NewEmployees7d    int `json:"new_employees_last_7_days" db:"new_employees_7d"`
	NewMeetings7d     int `json:"new_meetings_last_7_days" db:"new_meetings_7d"`
}

// GetDashboardStats collects the aggregate counts in one round trip
func (r *AdminRepository) GetDashboardStats() (*DashboardStats, error) {
	sevenDaysAgo := time.Now().AddDate(0, 0, -7)

	query := `
		SELECT
			(SELECT COUNT(*) FROM managers) AS total_managers,
			(SELECT COUNT(*) FROM managers WHERE is_approved = false) AS pending_managers,
			(SELECT COUNT(*) FROM managers WHERE is_approved = true) AS approved_managers,
			(SELECT COUNT(*) FROM employees) AS total_employees,
			(SELECT COUNT(*) FROM meetings) AS total_meetings,
			(SELECT COUNT(*) FROM meetings WHERE status = 'pending') AS pending_meetings,
			(SELECT COUNT(*) FROM meetings WHERE status = 'accepted') AS accepted_meetings,
			(SELECT COUNT(*) FROM meetings WHERE status = 'rejected') AS rejected_meetings,
			(SELECT COUNT(*) FROM meetings WHERE status = 'cancelled') AS cancelled_meetings,
			(SELECT COUNT(*) FROM managers WHERE created_at >= $1) AS new_managers_7d,
			(SELECT COUNT(*) FROM employees WHERE created_at >= $1) AS new_employees_7d,
			(SELECT COUNT(*) FROM meetings WHERE created_at >= $1) AS new_meetings_7d
	`

	var stats DashboardStats
	if err := r.db.Get(&stats, query, sevenDaysAgo); err != nil {
		return nil, fmt.Errorf("failed to get dashboard stats: %w", err)
	}

	return &stats, nil
}
