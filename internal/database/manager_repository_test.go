package database

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var managerColumns = []string{
	"id", "email", "password_hash", "name", "company_name", "company_size",
	"phone", "profile_picture", "is_verified", "is_approved",
	"rejection_reason", "created_at", "updated_at",
}

// newMockDB wires a sqlmock connection through the sqlx wrapper
func newMockDB(t *testing.T) (DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	return &PostgresDB{DB: sqlx.NewDb(mockDB, "sqlmock")}, mock
}

func managerRow(id uuid.UUID, email string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(managerColumns).
		AddRow(id, email, "$2a$10$hash", "Boss", "Acme", nil,
			nil, nil, true, true, nil, now, now)
}

func TestCreateManager(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewManagerRepository(db)

	mock.ExpectExec("INSERT INTO managers").
		WithArgs(sqlmock.AnyArg(), "boss@acme.test", "$2a$10$hash", "Boss", "Acme",
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), false, false,
			sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	manager, err := repo.CreateManager("boss@acme.test", "$2a$10$hash", "Boss", "Acme", "", "", "")

	require.NoError(t, err)
	assert.Equal(t, "boss@acme.test", manager.Email)
	assert.False(t, manager.IsVerified)
	assert.False(t, manager.IsApproved)
	assert.NotEqual(t, uuid.Nil, manager.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateManager_DuplicateEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewManagerRepository(db)

	mock.ExpectExec("INSERT INTO managers").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "managers_email_key"})

	_, err := repo.CreateManager("boss@acme.test", "$2a$10$hash", "Boss", "Acme", "", "", "")

	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestGetManagerByEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewManagerRepository(db)
	id := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM managers").
		WithArgs("boss@acme.test").
		WillReturnRows(managerRow(id, "boss@acme.test"))

	manager, err := repo.GetManagerByEmail("boss@acme.test")

	require.NoError(t, err)
	require.NotNil(t, manager)
	assert.Equal(t, id, manager.ID)
	assert.Equal(t, "boss@acme.test", manager.Email)
}

func TestGetManagerByEmail_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewManagerRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM managers").
		WithArgs("nobody@acme.test").
		WillReturnRows(sqlmock.NewRows(managerColumns))

	manager, err := repo.GetManagerByEmail("nobody@acme.test")

	require.NoError(t, err)
	assert.Nil(t, manager)
}

func TestMarkVerified(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewManagerRepository(db)
	id := uuid.New()

	mock.ExpectExec("UPDATE managers").
		WithArgs(sqlmock.AnyArg(), id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.MarkVerified(id))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkVerified_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewManagerRepository(db)

	mock.ExpectExec("UPDATE managers").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.Error(t, repo.MarkVerified(uuid.New()))
}

func TestSetApproval_Rejection(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewManagerRepository(db)
	id := uuid.New()

	mock.ExpectExec("UPDATE managers").
		WithArgs(false, "incomplete company details", sqlmock.AnyArg(), id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SetApproval(id, false, "incomplete company details")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListManagers(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewManagerRepository(db)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery("SELECT (.+) FROM managers").
		WithArgs(true, 0, 20).
		WillReturnRows(managerRow(uuid.New(), "boss@acme.test"))

	managers, total, err := repo.ListManagers(true, 1, 20)

	require.NoError(t, err)
	assert.Equal(t, 12, total)
	assert.Len(t, managers, 1)
}

func TestGetManagerDetail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewManagerRepository(db)
	id := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM managers").
		WithArgs(id).
		WillReturnRows(managerRow(id, "boss@acme.test"))
	mock.ExpectQuery("SELECT").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"employee_count", "meeting_count", "pending_meeting_count"}).
			AddRow(8, 23, 4))

	detail, err := repo.GetManagerDetail(id)

	require.NoError(t, err)
	require.NotNil(t, detail)
	assert.Equal(t, 8, detail.EmployeeCount)
	assert.Equal(t, 23, detail.MeetingCount)
	assert.Equal(t, 4, detail.PendingMeetingCount)
}

func TestDeleteManager_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewManagerRepository(db)

	mock.ExpectExec("DELETE FROM managers").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.Error(t, repo.DeleteManager(uuid.New()))
}
