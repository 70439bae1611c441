package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/teamsync/scheduler-backend/internal/models"
)

// MeetingRepository handles meeting, attendee and proposed-date operations
type MeetingRepository struct {
	db DB
}

// NewMeetingRepository creates a new meeting repository
func NewMeetingRepository(db DB) *MeetingRepository {
	return &MeetingRepository{
		db: db,
	}
}

const meetingColumns = `
	id, title, description, date, duration_minutes, location, status,
	rejection_reason, created_by_id, created_by_type, manager_id,
	created_at, updated_at
`

// CreateManagerMeeting inserts a manager-created meeting together with its
// attendee associations in a single transaction
func (r *MeetingRepository) CreateManagerMeeting(meeting *models.Meeting, employeeIDs []uuid.UUID) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO meetings (
			id, title, description, date, duration_minutes, location,
			status, created_by_id, created_by_type, manager_id,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = tx.Exec(
		query,
		meeting.ID,
		meeting.Title,
		meeting.Description,
		meeting.Date,
		meeting.DurationMinutes,
		meeting.Location,
		meeting.Status,
		meeting.CreatedByID,
		meeting.CreatedByType,
		meeting.ManagerID,
		meeting.CreatedAt,
		meeting.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create meeting: %w", err)
	}

	for _, employeeID := range employeeIDs {
		_, err = tx.Exec(
			`INSERT INTO meeting_employees (meeting_id, employee_id) VALUES ($1, $2)`,
			meeting.ID, employeeID,
		)
		if err != nil {
			return fmt.Errorf("failed to attach employee %s: %w", employeeID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// CreateMeetingRequest inserts an employee-requested meeting together with
// its proposed dates in a single transaction. The meeting date stays NULL
// until the manager selects one of the candidates.
func (r *MeetingRepository) CreateMeetingRequest(meeting *models.Meeting, proposedDates []time.Time) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO meetings (
			id, title, description, duration_minutes, location,
			status, created_by_id, created_by_type, manager_id,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = tx.Exec(
		query,
		meeting.ID,
		meeting.Title,
		meeting.Description,
		meeting.DurationMinutes,
		meeting.Location,
		meeting.Status,
		meeting.CreatedByID,
		meeting.CreatedByType,
		meeting.ManagerID,
		meeting.CreatedAt,
		meeting.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create meeting request: %w", err)
	}

	for _, date := range proposedDates {
		_, err = tx.Exec(
			`INSERT INTO proposed_dates (id, meeting_id, date, is_selected, created_at)
			 VALUES ($1, $2, $3, false, $4)`,
			uuid.New(), meeting.ID, date, time.Now(),
		)
		if err != nil {
			return fmt.Errorf("failed to store proposed date: %w", err)
		}
	}

	// Also associate the requesting employee so the meeting shows up in
	// attendee listings and notifications
	_, err = tx.Exec(
		`INSERT INTO meeting_employees (meeting_id, employee_id) VALUES ($1, $2)`,
		meeting.ID, meeting.CreatedByID,
	)
	if err != nil {
		return fmt.Errorf("failed to attach requesting employee: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetMeetingByID retrieves a meeting by ID
func (r *MeetingRepository) GetMeetingByID(id uuid.UUID) (*models.Meeting, error) {
	var meeting models.Meeting

	query := `SELECT ` + meetingColumns + ` FROM meetings WHERE id = $1`

	err := r.db.Get(&meeting, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get meeting by ID: %w", err)
	}

	return &meeting, nil
}

// GetMeetingEmployees returns the attendee summaries for a meeting
func (r *MeetingRepository) GetMeetingEmployees(meetingID uuid.UUID) ([]models.EmployeeSummary, error) {
	employees := []models.EmployeeSummary{}

	query := `
		SELECT e.id, e.name, e.email, e.role, e.department
		FROM employees e
		JOIN meeting_employees me ON me.employee_id = e.id
		WHERE me.meeting_id = $1
		ORDER BY e.name
	`

	if err := r.db.Select(&employees, query, meetingID); err != nil {
		return nil, fmt.Errorf("failed to get meeting employees: %w", err)
	}

	return employees, nil
}

// GetProposedDates returns the candidate dates of a meeting, oldest first
func (r *MeetingRepository) GetProposedDates(meetingID uuid.UUID) ([]models.ProposedDate, error) {
	dates := []models.ProposedDate{}

	query := `
		SELECT id, meeting_id, date, is_selected, created_at
		FROM proposed_dates
		WHERE meeting_id = $1
		ORDER BY date ASC
	`

	if err := r.db.Select(&dates, query, meetingID); err != nil {
		return nil, fmt.Errorf("failed to get proposed dates: %w", err)
	}

	return dates, nil
}

// UpdateStatus sets the status of a meeting. The rejection reason is stored
// only for rejections and cleared otherwise.
func (r *MeetingRepository) UpdateStatus(id uuid.UUID, status models.MeetingStatus, rejectionReason string) error {
	query := `
		UPDATE meetings
		SET status = $1,
		    rejection_reason = $2,
		    updated_at = $3
		WHERE id = $4
	`

	var reason interface{}
	if status == models.MeetingStatusRejected && rejectionReason != "" {
		reason = rejectionReason
	}

	result, err := r.db.Exec(query, status, reason, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update meeting status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("meeting not found")
	}

	return nil
}

// SelectDate fixes the meeting date to one of its proposed candidates,
// flipping is_selected so that exactly one row ends up selected. Runs in a
// single transaction.
func (r *MeetingRepository) SelectDate(meetingID uuid.UUID, date time.Time) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`UPDATE meetings SET date = $1, updated_at = $2 WHERE id = $3`,
		date, time.Now(), meetingID,
	)
	if err != nil {
		return fmt.Errorf("failed to set meeting date: %w", err)
	}

	_, err = tx.Exec(
		`UPDATE proposed_dates SET is_selected = (date = $1) WHERE meeting_id = $2`,
		date, meetingID,
	)
	if err != nil {
		return fmt.Errorf("failed to flip proposed date selection: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListManagerMeetings returns a manager's meetings with optional status and
// attendee filters, newest date first
func (r *MeetingRepository) ListManagerMeetings(managerID uuid.UUID, status models.MeetingStatus, employeeID *uuid.UUID, page, limit int) ([]models.Meeting, int, error) {
	args := []interface{}{managerID}
	where := `WHERE m.manager_id = $1`

	if status != "" {
		args = append(args, status)
		where += fmt.Sprintf(` AND m.status = $%d`, len(args))
	}
	if employeeID != nil {
		args = append(args, *employeeID)
		where += fmt.Sprintf(` AND EXISTS (
			SELECT 1 FROM meeting_employees me
			WHERE me.meeting_id = m.id AND me.employee_id = $%d)`, len(args))
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM meetings m ` + where
	if err := r.db.Get(&total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count meetings: %w", err)
	}

	meetings := []models.Meeting{}
	query := fmt.Sprintf(`
		SELECT m.id, m.title, m.description, m.date, m.duration_minutes,
		       m.location, m.status, m.rejection_reason, m.created_by_id,
		       m.created_by_type, m.manager_id, m.created_at, m.updated_at
		FROM meetings m %s
		ORDER BY m.date DESC NULLS LAST, m.created_at DESC
		OFFSET $%d LIMIT $%d`, where, len(args)+1, len(args)+2)
	args = append(args, (page-1)*limit, limit)

	if err := r.db.Select(&meetings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list manager meetings: %w", err)
	}

	return meetings, total, nil
}

// ListEmployeeMeetings returns meetings the employee created or attends,
// with an optional status filter, newest first
func (r *MeetingRepository) ListEmployeeMeetings(employeeID uuid.UUID, status models.MeetingStatus, page, limit int) ([]models.Meeting, int, error) {
	args := []interface{}{employeeID}
	where := `
		WHERE ((m.created_by_id = $1 AND m.created_by_type = 'employee')
		   OR EXISTS (
			SELECT 1 FROM meeting_employees me
			WHERE me.meeting_id = m.id AND me.employee_id = $1))`

	if status != "" {
		args = append(args, status)
		where += fmt.Sprintf(` AND m.status = $%d`, len(args))
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM meetings m ` + where
	if err := r.db.Get(&total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count meetings: %w", err)
	}

	meetings := []models.Meeting{}
	query := fmt.Sprintf(`
		SELECT m.id, m.title, m.description, m.date, m.duration_minutes,
		       m.location, m.status, m.rejection_reason, m.created_by_id,
		       m.created_by_type, m.manager_id, m.created_at, m.updated_at
		FROM meetings m %s
		ORDER BY m.created_at DESC
		OFFSET $%d LIMIT $%d`, where, len(args)+1, len(args)+2)
	args = append(args, (page-1)*limit, limit)

	if err := r.db.Select(&meetings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list employee meetings: %w", err)
	}

	return meetings, total, nil
}

// ListMeetingsInRange returns a manager's pending and accepted meetings whose
// date falls within [start, end]. Used by the availability engine; rejected
// and cancelled meetings never block the calendar.
func (r *MeetingRepository) ListMeetingsInRange(managerID uuid.UUID, start, end time.Time) ([]models.Meeting, error) {
	meetings := []models.Meeting{}

	query := `
		SELECT ` + meetingColumns + `
		FROM meetings
		WHERE manager_id = $1
		  AND date IS NOT NULL
		  AND date >= $2
		  AND date <= $3
		  AND status IN ('pending', 'accepted')
		ORDER BY date ASC
	`

	if err := r.db.Select(&meetings, query, managerID, start, end); err != nil {
		return nil, fmt.Errorf("failed to list meetings in range: %w", err)
	}

	return meetings, nil
}
