package database

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamsync/scheduler-backend/internal/models"
)

var meetingRowColumns = []string{
	"id", "title", "description", "date", "duration_minutes", "location", "status",
	"rejection_reason", "created_by_id", "created_by_type", "manager_id",
	"created_at", "updated_at",
}

func testMeeting(managerID uuid.UUID) *models.Meeting {
	now := time.Now()
	return &models.Meeting{
		ID:              uuid.New(),
		Title:           "Sprint planning",
		Date:            models.NewNullTime(time.Date(2026, time.March, 3, 10, 0, 0, 0, time.UTC)),
		DurationMinutes: 60,
		Status:          models.MeetingStatusPending,
		CreatedByID:     managerID,
		CreatedByType:   models.CreatorTypeManager,
		ManagerID:       managerID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestCreateManagerMeeting_Transaction(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMeetingRepository(db)

	managerID := uuid.New()
	meeting := testMeeting(managerID)
	attendees := []uuid.UUID{uuid.New(), uuid.New()}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO meetings").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO meeting_employees").
		WithArgs(meeting.ID, attendees[0]).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO meeting_employees").
		WithArgs(meeting.ID, attendees[1]).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.CreateManagerMeeting(meeting, attendees)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateManagerMeeting_RollbackOnAttendeeFailure(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMeetingRepository(db)

	managerID := uuid.New()
	meeting := testMeeting(managerID)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO meetings").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO meeting_employees").
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	err := repo.CreateManagerMeeting(meeting, []uuid.UUID{uuid.New()})

	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateMeetingRequest_Transaction(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMeetingRepository(db)

	employeeID := uuid.New()
	meeting := testMeeting(uuid.New())
	meeting.Date = models.NullTime{}
	meeting.CreatedByID = employeeID
	meeting.CreatedByType = models.CreatorTypeEmployee

	proposals := []time.Time{
		time.Date(2026, time.March, 3, 10, 0, 0, 0, time.UTC),
		time.Date(2026, time.March, 4, 14, 0, 0, 0, time.UTC),
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO meetings").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO proposed_dates").
		WithArgs(sqlmock.AnyArg(), meeting.ID, proposals[0], sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO proposed_dates").
		WithArgs(sqlmock.AnyArg(), meeting.ID, proposals[1], sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO meeting_employees").
		WithArgs(meeting.ID, employeeID).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.CreateMeetingRequest(meeting, proposals)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMeetingByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMeetingRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM meetings").
		WillReturnRows(sqlmock.NewRows(meetingRowColumns))

	meeting, err := repo.GetMeetingByID(uuid.New())

	require.NoError(t, err)
	assert.Nil(t, meeting)
}

func TestUpdateStatus_ClearsReasonUnlessRejected(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMeetingRepository(db)
	id := uuid.New()

	mock.ExpectExec("UPDATE meetings").
		WithArgs(models.MeetingStatusAccepted, nil, sqlmock.AnyArg(), id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(id, models.MeetingStatusAccepted, "leftover reason")

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_StoresRejectionReason(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMeetingRepository(db)
	id := uuid.New()

	mock.ExpectExec("UPDATE meetings").
		WithArgs(models.MeetingStatusRejected, "double booked", sqlmock.AnyArg(), id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(id, models.MeetingStatusRejected, "double booked")

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMeetingRepository(db)

	mock.ExpectExec("UPDATE meetings").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.Error(t, repo.UpdateStatus(uuid.New(), models.MeetingStatusAccepted, ""))
}

func TestSelectDate_FlipsSelectionInOneTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMeetingRepository(db)

	meetingID := uuid.New()
	date := time.Date(2026, time.March, 4, 14, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE meetings").
		WithArgs(date, sqlmock.AnyArg(), meetingID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE proposed_dates").
		WithArgs(date, meetingID).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	err := repo.SelectDate(meetingID, date)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectDate_RollbackOnFailure(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMeetingRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE meetings").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.SelectDate(uuid.New(), time.Now())

	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListMeetingsInRange(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMeetingRepository(db)

	managerID := uuid.New()
	start := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.March, 6, 0, 0, 0, 0, time.UTC)
	now := time.Now()

	rows := sqlmock.NewRows(meetingRowColumns).
		AddRow(uuid.New(), "Sync", nil, start.Add(34*time.Hour), 30, nil, "pending",
			nil, managerID, "manager", managerID, now, now)

	mock.ExpectQuery("SELECT (.+) FROM meetings").
		WithArgs(managerID, start, end).
		WillReturnRows(rows)

	meetings, err := repo.ListMeetingsInRange(managerID, start, end)

	require.NoError(t, err)
	require.Len(t, meetings, 1)
	assert.Equal(t, models.MeetingStatusPending, meetings[0].Status)
	assert.True(t, meetings[0].Date.Valid)
}

func TestGetProposedDates(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMeetingRepository(db)

	meetingID := uuid.New()
	rows := sqlmock.NewRows([]string{"id", "meeting_id", "date", "is_selected", "created_at"}).
		AddRow(uuid.New(), meetingID, time.Date(2026, time.March, 3, 10, 0, 0, 0, time.UTC), false, time.Now()).
		AddRow(uuid.New(), meetingID, time.Date(2026, time.March, 4, 14, 0, 0, 0, time.UTC), true, time.Now())

	mock.ExpectQuery("SELECT (.+) FROM proposed_dates").
		WithArgs(meetingID).
		WillReturnRows(rows)

	dates, err := repo.GetProposedDates(meetingID)

	require.NoError(t, err)
	require.Len(t, dates, 2)
	assert.False(t, dates[0].IsSelected)
	assert.True(t, dates[1].IsSelected)
}
