package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/teamsync/scheduler-backend/internal/models"
)

// Working-hours policy for availability computation
const (
	WorkingHourStart = 9  // 09:00
	WorkingHourEnd   = 17 // 17:00
	SlotDuration     = 30 * time.Minute
)

// Slot is a half-open [Start, End) interval on the calendar
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// BusySlot is an occupied slot together with the meeting that occupies it
type BusySlot struct {
	Slot
	MeetingID    uuid.UUID `json:"meeting_id"`
	MeetingTitle string    `json:"meeting_title"`
}

// Availability is the result of a calendar computation over a date range
type Availability struct {
	AvailableSlots []Slot     `json:"available_slots"`
	BusySlots      []BusySlot `json:"busy_slots"`
}

// meetingRange is the read surface the availability service needs
type meetingRange interface {
	ListMeetingsInRange(managerID uuid.UUID, start, end time.Time) ([]models.Meeting, error)
}

// AvailabilityService computes free and busy slots on a manager's calendar
type AvailabilityService struct {
	meetings meetingRange
}

// NewAvailabilityService creates a new availability service
func NewAvailabilityService(meetings meetingRange) *AvailabilityService {
	return &AvailabilityService{
		meetings: meetings,
	}
}

// GetManagerAvailability loads the manager's scheduled meetings in the range
// and computes the free and busy slots
func (s *AvailabilityService) GetManagerAvailability(managerID uuid.UUID, start, end time.Time) (*Availability, error) {
	// Widen the query by a day on each side so meetings spilling across
	// day boundaries still produce busy slots
	meetings, err := s.meetings.ListMeetingsInRange(managerID, start.AddDate(0, 0, -1), end.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to load meetings for availability: %w", err)
	}

	availability := ComputeAvailability(meetings, start, end)
	return &availability, nil
}

// busyInterval is a meeting projected onto the calendar
type busyInterval struct {
	start   time.Time
	end     time.Time
	meeting *models.Meeting
}

// ComputeAvailability is a pure function over the given meetings and range.
// Days run from start to end inclusive; Saturdays and Sundays are skipped;
// each working day is divided into 30-minute slots between 09:00 and 17:00.
// A slot is busy when it overlaps any pending or accepted meeting. Interval
// endpoints are exclusive, so a meeting ending exactly at a slot's start
// does not block that slot.
func ComputeAvailability(meetings []models.Meeting, start, end time.Time) Availability {
	availability := Availability{
		AvailableSlots: []Slot{},
		BusySlots:      []BusySlot{},
	}

	if end.Before(start) {
		return availability
	}

	// Re-filter by status even though the repository query already excludes
	// rejected and cancelled meetings; the function must hold on its own.
	busy := make([]busyInterval, 0, len(meetings))
	for i := range meetings {
		m := &meetings[i]
		if !m.BlocksAvailability() || !m.Date.Valid {
			continue
		}
		busy = append(busy, busyInterval{
			start:   m.Date.Time,
			end:     m.Date.Time.Add(time.Duration(m.DurationMinutes) * time.Minute),
			meeting: m,
		})
	}

	firstDay := startOfDay(start)
	lastDay := startOfDay(end)

	for day := firstDay; !day.After(lastDay); day = day.AddDate(0, 0, 1) {
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			continue
		}

		dayStart := day.Add(WorkingHourStart * time.Hour)
		dayEnd := day.Add(WorkingHourEnd * time.Hour)

		for slotStart := dayStart; slotStart.Before(dayEnd); slotStart = slotStart.Add(SlotDuration) {
			slotEnd := slotStart.Add(SlotDuration)

			blocking := overlapping(busy, slotStart, slotEnd)
			if blocking == nil {
				availability.AvailableSlots = append(availability.AvailableSlots, Slot{
					Start: slotStart,
					End:   slotEnd,
				})
				continue
			}

			availability.BusySlots = append(availability.BusySlots, BusySlot{
				Slot:         Slot{Start: slotStart, End: slotEnd},
				MeetingID:    blocking.meeting.ID,
				MeetingTitle: blocking.meeting.Title,
			})
		}
	}

	return availability
}

// overlapping returns the first busy interval intersecting [slotStart,
// slotEnd), or nil when the slot is free
func overlapping(busy []busyInterval, slotStart, slotEnd time.Time) *busyInterval {
	for i := range busy {
		if slotStart.Before(busy[i].end) && slotEnd.After(busy[i].start) {
			return &busy[i]
		}
	}
	return nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
