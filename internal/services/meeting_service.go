package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/teamsync/scheduler-backend/internal/models"
)

// Proposed-date bounds for employee meeting requests
const (
	MinProposedDates = 1
	MaxProposedDates = 5
)

// meetingStore is the repository surface the meeting workflow needs
type meetingStore interface {
	CreateManagerMeeting(meeting *models.Meeting, employeeIDs []uuid.UUID) error
	CreateMeetingRequest(meeting *models.Meeting, proposedDates []time.Time) error
	GetMeetingByID(id uuid.UUID) (*models.Meeting, error)
	GetMeetingEmployees(meetingID uuid.UUID) ([]models.EmployeeSummary, error)
	GetProposedDates(meetingID uuid.UUID) ([]models.ProposedDate, error)
	UpdateStatus(id uuid.UUID, status models.MeetingStatus, rejectionReason string) error
	SelectDate(meetingID uuid.UUID, date time.Time) error
}

// employeeStore resolves employee ownership and attendee lookups
type employeeStore interface {
	CountByManager(managerID uuid.UUID, employeeIDs []uuid.UUID) (int, error)
}

// managerStore resolves the manager for request notifications
type managerStore interface {
	GetManagerByID(id uuid.UUID) (*models.Manager, error)
}

// MeetingService implements the meeting lifecycle: creation, requests,
// status transitions, cancellation and proposed-date resolution
type MeetingService struct {
	meetings  meetingStore
	employees employeeStore
	managers  managerStore
	notifier  *NotificationService
	logger    *logrus.Logger
}

// NewMeetingService creates a new meeting service
func NewMeetingService(meetings meetingStore, employees employeeStore, managers managerStore, notifier *NotificationService, logger *logrus.Logger) *MeetingService {
	return &MeetingService{
		meetings:  meetings,
		employees: employees,
		managers:  managers,
		notifier:  notifier,
		logger:    logger,
	}
}

// CreateMeetingInput is a manager-scheduled meeting
type CreateMeetingInput struct {
	Title           string
	Description     string
	Date            time.Time
	DurationMinutes int
	Location        string
	EmployeeIDs     []uuid.UUID
}

// RequestMeetingInput is an employee meeting request with candidate dates
type RequestMeetingInput struct {
	Title           string
	Description     string
	DurationMinutes int
	Location        string
	ProposedDates   []time.Time
}

// CreateManagerMeeting schedules a meeting for a manager with a fixed date
// and a set of the manager's own employees as attendees
func (s *MeetingService) CreateManagerMeeting(managerID uuid.UUID, input CreateMeetingInput) (*models.MeetingWithEmployees, error) {
	if err := validateMeetingBasics(input.Title, input.DurationMinutes); err != nil {
		return nil, err
	}
	if input.Date.IsZero() {
		return nil, InvalidArgumentError("meeting date is required")
	}
	if len(input.EmployeeIDs) == 0 {
		return nil, InvalidArgumentError("at least one employee is required")
	}

	employeeIDs := dedupeIDs(input.EmployeeIDs)

	// Every attendee must belong to the calling manager
	count, err := s.employees.CountByManager(managerID, employeeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to verify employees: %w", err)
	}
	if count != len(employeeIDs) {
		return nil, InvalidArgumentError("one or more employees do not belong to this manager")
	}

	now := time.Now()
	meeting := &models.Meeting{
		ID:              uuid.New(),
		Title:           strings.TrimSpace(input.Title),
		Description:     models.NewNullString(input.Description),
		Date:            models.NewNullTime(input.Date),
		DurationMinutes: input.DurationMinutes,
		Location:        models.NewNullString(input.Location),
		Status:          models.MeetingStatusPending,
		CreatedByID:     managerID,
		CreatedByType:   models.CreatorTypeManager,
		ManagerID:       managerID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.meetings.CreateManagerMeeting(meeting, employeeIDs); err != nil {
		return nil, fmt.Errorf("failed to create meeting: %w", err)
	}

	attendees, err := s.meetings.GetMeetingEmployees(meeting.ID)
	if err != nil {
		// The meeting is committed; return it even if the attendee
		// read-back failed
		s.logger.WithError(err).Warn("Failed to load meeting attendees after create")
		attendees = []models.EmployeeSummary{}
	}

	for _, attendee := range attendees {
		s.notifier.SendMeetingCreated(attendee.Email, meeting)
	}

	return &models.MeetingWithEmployees{Meeting: *meeting, Employees: attendees}, nil
}

// RequestMeeting files an employee's meeting request. The meeting date stays
// unset until the manager selects one of the proposed candidates.
func (s *MeetingService) RequestMeeting(employee *models.Employee, input RequestMeetingInput) (*models.MeetingWithDetails, error) {
	if err := validateMeetingBasics(input.Title, input.DurationMinutes); err != nil {
		return nil, err
	}
	if len(input.ProposedDates) < MinProposedDates || len(input.ProposedDates) > MaxProposedDates {
		return nil, InvalidArgumentError("between %d and %d proposed dates are required", MinProposedDates, MaxProposedDates)
	}

	now := time.Now()
	meeting := &models.Meeting{
		ID:              uuid.New(),
		Title:           strings.TrimSpace(input.Title),
		Description:     models.NewNullString(input.Description),
		DurationMinutes: input.DurationMinutes,
		Location:        models.NewNullString(input.Location),
		Status:          models.MeetingStatusPending,
		CreatedByID:     employee.ID,
		CreatedByType:   models.CreatorTypeEmployee,
		ManagerID:       employee.ManagerID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.meetings.CreateMeetingRequest(meeting, input.ProposedDates); err != nil {
		return nil, fmt.Errorf("failed to create meeting request: %w", err)
	}

	result := &models.MeetingWithDetails{Meeting: *meeting}

	manager, err := s.managers.GetManagerByID(employee.ManagerID)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to load manager after meeting request")
	} else if manager != nil {
		result.Manager = manager.Summary()
		s.notifier.SendMeetingRequested(manager.Email, employee.Name, meeting, input.ProposedDates)
	}

	dates, err := s.meetings.GetProposedDates(meeting.ID)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to load proposed dates after meeting request")
	} else {
		result.ProposedDates = dates
	}

	return result, nil
}

// UpdateStatus moves a meeting to accepted or rejected. Only the manager who
// created the meeting may change its status, rejections require a reason,
// and transitions are validated against the explicit table.
func (s *MeetingService) UpdateStatus(managerID, meetingID uuid.UUID, newStatus models.MeetingStatus, rejectionReason string) (*models.Meeting, error) {
	if !newStatus.IsValid() {
		return nil, InvalidArgumentError("unknown meeting status %q", newStatus)
	}

	meeting, err := s.meetings.GetMeetingByID(meetingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load meeting: %w", err)
	}
	if meeting == nil {
		return nil, NotFoundError("meeting not found")
	}

	if !meeting.IsCreator(managerID, models.CreatorTypeManager) {
		return nil, PermissionDeniedError("only the meeting creator can update its status")
	}

	if !models.CanTransition(meeting.Status, newStatus) {
		return nil, ConflictError("cannot move meeting from %s to %s", meeting.Status, newStatus)
	}

	if newStatus == models.MeetingStatusRejected && strings.TrimSpace(rejectionReason) == "" {
		return nil, InvalidArgumentError("a rejection reason is required")
	}

	if err := s.meetings.UpdateStatus(meetingID, newStatus, rejectionReason); err != nil {
		return nil, fmt.Errorf("failed to update meeting status: %w", err)
	}

	meeting.Status = newStatus
	if newStatus == models.MeetingStatusRejected {
		meeting.RejectionReason = models.NewNullString(rejectionReason)
	} else {
		meeting.RejectionReason = models.NullString{}
	}
	meeting.UpdatedAt = time.Now()

	s.notifyAttendees(meeting, func(to string) {
		s.notifier.SendMeetingStatusChanged(to, meeting)
	})

	return meeting, nil
}

// Cancel cancels a pending meeting. Only the creator may cancel, matching
// on both the caller's id and type.
func (s *MeetingService) Cancel(callerID uuid.UUID, callerType models.CreatorType, meetingID uuid.UUID) (*models.Meeting, error) {
	meeting, err := s.meetings.GetMeetingByID(meetingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load meeting: %w", err)
	}
	if meeting == nil {
		return nil, NotFoundError("meeting not found")
	}

	if !meeting.IsCreator(callerID, callerType) {
		return nil, PermissionDeniedError("only the meeting creator can cancel it")
	}

	if meeting.Status != models.MeetingStatusPending {
		return nil, ConflictError("cannot cancel a meeting in status %s", meeting.Status)
	}

	if err := s.meetings.UpdateStatus(meetingID, models.MeetingStatusCancelled, ""); err != nil {
		return nil, fmt.Errorf("failed to cancel meeting: %w", err)
	}

	meeting.Status = models.MeetingStatusCancelled
	meeting.UpdatedAt = time.Now()

	s.notifyAttendees(meeting, func(to string) {
		s.notifier.SendMeetingStatusChanged(to, meeting)
	})

	return meeting, nil
}

// SelectMeetingDate fixes the date of an employee-requested meeting to one
// of the proposed candidates. After the flip exactly one proposed date row
// is selected and the meeting date equals it.
func (s *MeetingService) SelectMeetingDate(managerID, meetingID uuid.UUID, date time.Time) (*models.Meeting, error) {
	meeting, err := s.meetings.GetMeetingByID(meetingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load meeting: %w", err)
	}
	if meeting == nil {
		return nil, NotFoundError("meeting not found")
	}

	if meeting.ManagerID != managerID {
		return nil, PermissionDeniedError("meeting belongs to another manager")
	}

	proposed, err := s.meetings.GetProposedDates(meetingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load proposed dates: %w", err)
	}

	matched := false
	for _, candidate := range proposed {
		if candidate.Date.Equal(date) {
			matched = true
			break
		}
	}
	if !matched {
		return nil, InvalidArgumentError("date is not among the proposed dates")
	}

	if err := s.meetings.SelectDate(meetingID, date); err != nil {
		return nil, fmt.Errorf("failed to select meeting date: %w", err)
	}

	meeting.Date = models.NewNullTime(date)
	meeting.UpdatedAt = time.Now()

	s.notifyAttendees(meeting, func(to string) {
		s.notifier.SendMeetingDateSelected(to, meeting)
	})

	return meeting, nil
}

// notifyAttendees runs the given send against every associated employee.
// Lookup failures are logged and swallowed, never surfaced to the caller.
func (s *MeetingService) notifyAttendees(meeting *models.Meeting, send func(to string)) {
	attendees, err := s.meetings.GetMeetingEmployees(meeting.ID)
	if err != nil {
		s.logger.WithError(err).WithField("meeting_id", meeting.ID).Warn("Failed to load attendees for notification")
		return
	}
	for _, attendee := range attendees {
		send(attendee.Email)
	}
}

// validateMeetingBasics checks the fields shared by both creation paths
func validateMeetingBasics(title string, durationMinutes int) error {
	if strings.TrimSpace(title) == "" {
		return InvalidArgumentError("meeting title is required")
	}
	if durationMinutes < models.MinMeetingDuration || durationMinutes > models.MaxMeetingDuration {
		return InvalidArgumentError("duration must be between %d and %d minutes", models.MinMeetingDuration, models.MaxMeetingDuration)
	}
	return nil
}

// dedupeIDs removes duplicate employee ids while preserving order
func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
