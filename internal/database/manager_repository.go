package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/teamsync/scheduler-backend/internal/models"
)

// ManagerRepository handles manager database operations
type ManagerRepository struct {
	db DB
}

// NewManagerRepository creates a new manager repository
func NewManagerRepository(db DB) *ManagerRepository {
	return &ManagerRepository{
		db: db,
	}
}

// CreateManager inserts a new unverified, unapproved manager account
func (r *ManagerRepository) CreateManager(email, passwordHash, name, companyName, companySize, phone, profilePicture string) (*models.Manager, error) {
	now := time.Now()
	manager := &models.Manager{
		ID:             uuid.New(),
		Email:          email,
		PasswordHash:   passwordHash,
		Name:           name,
		CompanyName:    companyName,
		CompanySize:    models.NewNullString(companySize),
		Phone:          models.NewNullString(phone),
		ProfilePicture: models.NewNullString(profilePicture),
		IsVerified:     false,
		IsApproved:     false,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	query := `
		INSERT INTO managers (
			id, email, password_hash, name, company_name, company_size,
			phone, profile_picture, is_verified, is_approved,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.Exec(
		query,
		manager.ID,
		manager.Email,
		manager.PasswordHash,
		manager.Name,
		manager.CompanyName,
		manager.CompanySize,
		manager.Phone,
		manager.ProfilePicture,
		manager.IsVerified,
		manager.IsApproved,
		manager.CreatedAt,
		manager.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create manager: %w", err)
	}

	return manager, nil
}

// GetManagerByEmail retrieves a manager by email
func (r *ManagerRepository) GetManagerByEmail(email string) (*models.Manager, error) {
	var manager models.Manager

	query := `
		SELECT id, email, password_hash, name, company_name, company_size,
		       phone, profile_picture, is_verified, is_approved,
		       rejection_reason, created_at, updated_at
		FROM managers
		WHERE email = $1
	`

	err := r.db.Get(&manager, query, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Manager not found, return nil without error
		}
		return nil, fmt.Errorf("failed to get manager by email: %w", err)
	}

	return &manager, nil
}

// GetManagerByID retrieves a manager by ID
func (r *ManagerRepository) GetManagerByID(id uuid.UUID) (*models.Manager, error) {
	var manager models.Manager

	query := `
		SELECT id, email, password_hash, name, company_name, company_size,
		       phone, profile_picture, is_verified, is_approved,
		       rejection_reason, created_at, updated_at
		FROM managers
		WHERE id = $1
	`

	err := r.db.Get(&manager, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get manager by ID: %w", err)
	}

	return &manager, nil
}

// MarkVerified flips is_verified after a successful OTP check
func (r *ManagerRepository) MarkVerified(id uuid.UUID) error {
	query := `
		UPDATE managers
		SET is_verified = true, updated_at = $1
		WHERE id = $2
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark manager verified: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("manager not found")
	}

	return nil
}

// UpdateProfile updates the mutable profile fields of a manager
func (r *ManagerRepository) UpdateProfile(id uuid.UUID, name, phone, profilePicture string) error {
	query := `
		UPDATE managers
		SET name = COALESCE(NULLIF($1, ''), name),
		    phone = COALESCE(NULLIF($2, ''), phone),
		    profile_picture = COALESCE(NULLIF($3, ''), profile_picture),
		    updated_at = $4
		WHERE id = $5
	`

	result, err := r.db.Exec(query, name, phone, profilePicture, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update manager profile: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("manager not found")
	}

	return nil
}

// SetApproval records an admin approval decision for a manager
func (r *ManagerRepository) SetApproval(id uuid.UUID, approved bool, rejectionReason string) error {
	query := `
		UPDATE managers
		SET is_approved = $1,
		    rejection_reason = $2,
		    updated_at = $3
		WHERE id = $4
	`

	var reason interface{}
	if !approved && rejectionReason != "" {
		reason = rejectionReason
	}

	result, err := r.db.Exec(query, approved, reason, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to set manager approval: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("manager not found")
	}

	return nil
}

// ListManagers returns managers filtered by approval state, newest first
func (r *ManagerRepository) ListManagers(approved bool, page, limit int) ([]models.Manager, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM managers WHERE is_approved = $1`
	if err := r.db.Get(&total, countQuery, approved); err != nil {
		return nil, 0, fmt.Errorf("failed to count managers: %w", err)
	}

	managers := []models.Manager{}
	query := `
		SELECT id, email, password_hash, name, company_name, company_size,
		       phone, profile_picture, is_verified, is_approved,
		       rejection_reason, created_at, updated_at
		FROM managers
		WHERE is_approved = $1
		ORDER BY created_at DESC
		OFFSET $2 LIMIT $3
	`

	if err := r.db.Select(&managers, query, approved, (page-1)*limit, limit); err != nil {
		return nil, 0, fmt.Errorf("failed to list managers: %w", err)
	}

	return managers, total, nil
}

// GetManagerDetail returns a manager with employee and meeting counts
func (r *ManagerRepository) GetManagerDetail(id uuid.UUID) (*models.ManagerDetail, error) {
	manager, err := r.GetManagerByID(id)
	if err != nil {
		return nil, err
	}
	if manager == nil {
		return nil, nil
	}

	detail := &models.ManagerDetail{Manager: *manager}

	countQuery := `
		SELECT
			(SELECT COUNT(*) FROM employees WHERE manager_id = $1) AS employee_count,
			(SELECT COUNT(*) FROM meetings WHERE manager_id = $1) AS meeting_count,
			(SELECT COUNT(*) FROM meetings WHERE manager_id = $1 AND status = 'pending') AS pending_meeting_count
	`

	err = r.db.QueryRow(countQuery, id).Scan(
		&detail.EmployeeCount,
		&detail.MeetingCount,
		&detail.PendingMeetingCount,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get manager counts: %w", err)
	}

	return detail, nil
}

// DeleteManager removes a manager; associated rows cascade at the schema level
func (r *ManagerRepository) DeleteManager(id uuid.UUID) error {
	result, err := r.db.Exec(`DELETE FROM managers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete manager: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("manager not found")
	}

	return nil
}
