package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestMeetingStatusIsValid(t *testing.T) {
	for _, status := range []MeetingStatus{
		MeetingStatusPending,
		MeetingStatusAccepted,
		MeetingStatusRejected,
		MeetingStatusCancelled,
	} {
		assert.True(t, status.IsValid(), "expected %s to be valid", status)
	}

	assert.False(t, MeetingStatus("").IsValid())
	assert.False(t, MeetingStatus("postponed").IsValid())
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from    MeetingStatus
		to      MeetingStatus
		allowed bool
	}{
		{MeetingStatusPending, MeetingStatusAccepted, true},
		{MeetingStatusPending, MeetingStatusRejected, true},
		{MeetingStatusPending, MeetingStatusCancelled, true},
		{MeetingStatusPending, MeetingStatusPending, false},
		{MeetingStatusAccepted, MeetingStatusCancelled, false},
		{MeetingStatusAccepted, MeetingStatusPending, false},
		{MeetingStatusRejected, MeetingStatusAccepted, false},
		{MeetingStatusCancelled, MeetingStatusPending, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to),
			"transition %s -> %s", tt.from, tt.to)
	}
}

func TestMeetingStatusIsTerminal(t *testing.T) {
	assert.False(t, MeetingStatusPending.IsTerminal())
	assert.True(t, MeetingStatusAccepted.IsTerminal())
	assert.True(t, MeetingStatusRejected.IsTerminal())
	assert.True(t, MeetingStatusCancelled.IsTerminal())
}

func TestMeetingIsCreator(t *testing.T) {
	creatorID := uuid.New()
	meeting := &Meeting{
		CreatedByID:   creatorID,
		CreatedByType: CreatorTypeEmployee,
	}

	assert.True(t, meeting.IsCreator(creatorID, CreatorTypeEmployee))
	assert.False(t, meeting.IsCreator(creatorID, CreatorTypeManager))
	assert.False(t, meeting.IsCreator(uuid.New(), CreatorTypeEmployee))
}

func TestMeetingBlocksAvailability(t *testing.T) {
	tests := []struct {
		status MeetingStatus
		blocks bool
	}{
		{MeetingStatusPending, true},
		{MeetingStatusAccepted, true},
		{MeetingStatusRejected, false},
		{MeetingStatusCancelled, false},
	}

	for _, tt := range tests {
		meeting := &Meeting{Status: tt.status}
		assert.Equal(t, tt.blocks, meeting.BlocksAvailability(), "status %s", tt.status)
	}
}

func TestCreatorTypeIsValid(t *testing.T) {
	assert.True(t, CreatorTypeManager.IsValid())
	assert.True(t, CreatorTypeEmployee.IsValid())
	assert.False(t, CreatorType("admin").IsValid())
}
