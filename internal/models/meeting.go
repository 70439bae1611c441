package models

import (
	"time"

	"github.com/google/uuid"
)

// MeetingStatus represents the lifecycle state of a meeting
type MeetingStatus string

const (
	MeetingStatusPending   MeetingStatus = "pending"
	MeetingStatusAccepted  MeetingStatus = "accepted"
	MeetingStatusRejected  MeetingStatus = "rejected"
	MeetingStatusCancelled MeetingStatus = "cancelled"
)

// IsValid reports whether the status is one of the known states
func (s MeetingStatus) IsValid() bool {
	switch s {
	case MeetingStatusPending, MeetingStatusAccepted, MeetingStatusRejected, MeetingStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether the status permits no further transitions
func (s MeetingStatus) IsTerminal() bool {
	return s != MeetingStatusPending
}

// meetingTransitions is the explicit transition table. pending is the only
// non-terminal state; accepted, rejected and cancelled allow no exits.
var meetingTransitions = map[MeetingStatus][]MeetingStatus{
	MeetingStatusPending: {
		MeetingStatusAccepted,
		MeetingStatusRejected,
		MeetingStatusCancelled,
	},
	MeetingStatusAccepted:  {},
	MeetingStatusRejected:  {},
	MeetingStatusCancelled: {},
}

// CanTransition reports whether a meeting may move from one status to another
func CanTransition(from, to MeetingStatus) bool {
	for _, allowed := range meetingTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// CreatorType identifies who created a meeting
type CreatorType string

const (
	CreatorTypeManager  CreatorType = "manager"
	CreatorTypeEmployee CreatorType = "employee"
)

// IsValid reports whether the creator type is known
func (t CreatorType) IsValid() bool {
	return t == CreatorTypeManager || t == CreatorTypeEmployee
}

const (
	// MinMeetingDuration and MaxMeetingDuration bound duration_minutes
	MinMeetingDuration = 1
	MaxMeetingDuration = 480
)

// Meeting represents a scheduled or requested meeting
type Meeting struct {
	ID              uuid.UUID     `json:"id" db:"id"`
	Title           string        `json:"title" db:"title"`
	Description     NullString    `json:"description" db:"description"`
	Date            NullTime      `json:"date" db:"date"` // NULL until a proposed date is selected
	DurationMinutes int           `json:"duration_minutes" db:"duration_minutes"`
	Location        NullString    `json:"location" db:"location"`
	Status          MeetingStatus `json:"status" db:"status"`
	RejectionReason NullString    `json:"rejection_reason" db:"rejection_reason"`
	CreatedByID     uuid.UUID     `json:"created_by_id" db:"created_by_id"`
	CreatedByType   CreatorType   `json:"created_by_type" db:"created_by_type"`
	ManagerID       uuid.UUID     `json:"manager_id" db:"manager_id"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at" db:"updated_at"`
}

// IsCreator reports whether the given caller created this meeting.
// Both the id and the type must match.
func (m *Meeting) IsCreator(callerID uuid.UUID, callerType CreatorType) bool {
	return m.CreatedByID == callerID && m.CreatedByType == callerType
}

// BlocksAvailability reports whether this meeting contributes a busy slot.
// Only pending and accepted meetings block the manager's calendar.
func (m *Meeting) BlocksAvailability() bool {
	return m.Status == MeetingStatusPending || m.Status == MeetingStatusAccepted
}

// ProposedDate is an employee-submitted candidate date for a meeting
type ProposedDate struct {
	ID         uuid.UUID `json:"id" db:"id"`
	MeetingID  uuid.UUID `json:"meeting_id" db:"meeting_id"`
	Date       time.Time `json:"date" db:"date"`
	IsSelected bool      `json:"is_selected" db:"is_selected"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// MeetingWithEmployees bundles a meeting with its attendee list
type MeetingWithEmployees struct {
	Meeting
	Employees []EmployeeSummary `json:"employees"`
}

// MeetingWithDetails is the employee-facing meeting view, including the
// manager summary and (for own requests) the proposed dates
type MeetingWithDetails struct {
	Meeting
	Manager       ManagerSummary `json:"manager"`
	ProposedDates []ProposedDate `json:"proposed_dates,omitempty"`
}
