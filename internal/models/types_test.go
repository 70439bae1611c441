package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullString_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(NewNullString("hello"))
	require.NoError(t, err)
	assert.Equal(t, `"hello"`, string(data))

	data, err = json.Marshal(NewNullString(""))
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

func TestNullString_UnmarshalJSON(t *testing.T) {
	var ns NullString
	require.NoError(t, json.Unmarshal([]byte(`"hello"`), &ns))
	assert.True(t, ns.Valid)
	assert.Equal(t, "hello", ns.String)

	require.NoError(t, json.Unmarshal([]byte("null"), &ns))
	assert.False(t, ns.Valid)
}

func TestNullTime_MarshalJSON(t *testing.T) {
	at := time.Date(2026, time.March, 3, 10, 0, 0, 0, time.UTC)

	data, err := json.Marshal(NewNullTime(at))
	require.NoError(t, err)
	assert.Equal(t, `"2026-03-03T10:00:00Z"`, string(data))

	data, err = json.Marshal(NewNullTime(time.Time{}))
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

func TestMeeting_MarshalsUnsetDateAsNull(t *testing.T) {
	meeting := Meeting{
		Title:           "Sync",
		DurationMinutes: 30,
		Status:          MeetingStatusPending,
	}

	data, err := json.Marshal(meeting)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"date":null`)
	assert.Contains(t, string(data), `"description":null`)

	meeting.Date = NewNullTime(time.Date(2026, time.March, 3, 10, 0, 0, 0, time.UTC))
	data, err = json.Marshal(meeting)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"date":"2026-03-03T10:00:00Z"`)
}
