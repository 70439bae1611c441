package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/teamsync/scheduler-backend/internal/models"
)

// EmployeeRepository handles employee database operations
type EmployeeRepository struct {
	db DB
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(db DB) *EmployeeRepository {
	return &EmployeeRepository{
		db: db,
	}
}

// CreateEmployee inserts a new unverified employee under a manager.
// The verification token is emailed to the employee out of band.
func (r *EmployeeRepository) CreateEmployee(managerID uuid.UUID, email, name, role, department, verificationToken string) (*models.Employee, error) {
	now := time.Now()
	employee := &models.Employee{
		ID:                 uuid.New(),
		Email:              email,
		Name:               name,
		Role:               models.NewNullString(role),
		Department:         models.NewNullString(department),
		ManagerID:          managerID,
		VerificationToken:  models.NewNullString(verificationToken),
		VerificationSentAt: models.NewNullTime(now),
		IsVerified:         false,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	query := `
		INSERT INTO employees (
			id, email, name, role, department, manager_id,
			verification_token, verification_sent_at, is_verified,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Exec(
		query,
		employee.ID,
		employee.Email,
		employee.Name,
		employee.Role,
		employee.Department,
		employee.ManagerID,
		employee.VerificationToken,
		employee.VerificationSentAt,
		employee.IsVerified,
		employee.CreatedAt,
		employee.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create employee: %w", err)
	}

	return employee, nil
}

const employeeColumns = `
	id, email, password_hash, name, role, department, phone,
	profile_picture, manager_id, verification_token,
	verification_sent_at, is_verified, created_at, updated_at
`

// GetEmployeeByID retrieves an employee by ID
func (r *EmployeeRepository) GetEmployeeByID(id uuid.UUID) (*models.Employee, error) {
	var employee models.Employee

	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`

	err := r.db.Get(&employee, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get employee by ID: %w", err)
	}

	return &employee, nil
}

// GetEmployeeByEmail retrieves an employee by email
func (r *EmployeeRepository) GetEmployeeByEmail(email string) (*models.Employee, error) {
	var employee models.Employee

	query := `SELECT ` + employeeColumns + ` FROM employees WHERE email = $1`

	err := r.db.Get(&employee, query, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get employee by email: %w", err)
	}

	return &employee, nil
}

// GetEmployeeByVerificationToken retrieves an unverified employee by its token
func (r *EmployeeRepository) GetEmployeeByVerificationToken(token string) (*models.Employee, error) {
	var employee models.Employee

	query := `SELECT ` + employeeColumns + ` FROM employees WHERE verification_token = $1 AND is_verified = false`

	err := r.db.Get(&employee, query, token)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get employee by verification token: %w", err)
	}

	return &employee, nil
}

// GetEmployeeForManager retrieves an employee scoped to its manager
func (r *EmployeeRepository) GetEmployeeForManager(employeeID, managerID uuid.UUID) (*models.Employee, error) {
	var employee models.Employee

	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1 AND manager_id = $2`

	err := r.db.Get(&employee, query, employeeID, managerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get employee for manager: %w", err)
	}

	return &employee, nil
}

// ListEmployees returns a manager's employees with pagination and optional
// search over name, email, role and department
func (r *EmployeeRepository) ListEmployees(managerID uuid.UUID, page, limit int, search string) ([]models.Employee, int, error) {
	args := []interface{}{managerID}
	where := `WHERE manager_id = $1`

	if search != "" {
		where += ` AND (name ILIKE $2 OR email ILIKE $2 OR role ILIKE $2 OR department ILIKE $2)`
		args = append(args, "%"+search+"%")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM employees ` + where
	if err := r.db.Get(&total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count employees: %w", err)
	}

	employees := []models.Employee{}
	query := fmt.Sprintf(
		`SELECT `+employeeColumns+` FROM employees %s ORDER BY created_at DESC OFFSET $%d LIMIT $%d`,
		where, len(args)+1, len(args)+2,
	)
	args = append(args, (page-1)*limit, limit)

	if err := r.db.Select(&employees, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list employees: %w", err)
	}

	return employees, total, nil
}

// VerifyEmployee marks the employee verified and sets its password hash,
// clearing the verification token
func (r *EmployeeRepository) VerifyEmployee(id uuid.UUID, passwordHash string) error {
	query := `
		UPDATE employees
		SET password_hash = $1,
		    is_verified = true,
		    verification_token = NULL,
		    verification_sent_at = NULL,
		    updated_at = $2
		WHERE id = $3
	`

	result, err := r.db.Exec(query, passwordHash, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to verify employee: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("employee not found")
	}

	return nil
}

// UpdateProfile updates the mutable profile fields of an employee
func (r *EmployeeRepository) UpdateProfile(id uuid.UUID, name, phone, profilePicture string) error {
	query := `
		UPDATE employees
		SET name = COALESCE(NULLIF($1, ''), name),
		    phone = COALESCE(NULLIF($2, ''), phone),
		    profile_picture = COALESCE(NULLIF($3, ''), profile_picture),
		    updated_at = $4
		WHERE id = $5
	`

	result, err := r.db.Exec(query, name, phone, profilePicture, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update employee profile: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("employee not found")
	}

	return nil
}

// DeleteEmployee removes an employee scoped to its manager. Reports whether
// a row was actually removed.
func (r *EmployeeRepository) DeleteEmployee(employeeID, managerID uuid.UUID) (bool, error) {
	result, err := r.db.Exec(`DELETE FROM employees WHERE id = $1 AND manager_id = $2`, employeeID, managerID)
	if err != nil {
		return false, fmt.Errorf("failed to delete employee: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// CountByManager returns how many of the given employee IDs belong to the manager
func (r *EmployeeRepository) CountByManager(managerID uuid.UUID, employeeIDs []uuid.UUID) (int, error) {
	if len(employeeIDs) == 0 {
		return 0, nil
	}

	query := `SELECT COUNT(*) FROM employees WHERE manager_id = $1 AND id = ANY($2)`

	ids := make([]string, len(employeeIDs))
	for i, id := range employeeIDs {
		ids[i] = id.String()
	}

	var count int
	if err := r.db.Get(&count, query, managerID, pq.Array(ids)); err != nil {
		return 0, fmt.Errorf("failed to count employees by manager: %w", err)
	}

	return count, nil
}
