package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestampLayouts(t *testing.T) {
	want := time.Date(2024, 5, 1, 10, 5, 0, 0, time.UTC)

	for _, in := range []string{
		"2024-05-01T10:05:00Z",
		"2024-05-01T10:05:00",
		"2024-05-01T10:05:00.000",
		"2024-05-01T10:05",
		"2024-05-01 10:05:00",
	} {
		ts, err := ParseTimestamp(in)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(ts.Time), in)
	}

	_, err := ParseTimestamp("yesterday")
	assert.Error(t, err)
}

func TestScheduleDecodesBackendPayload(t *testing.T) {
	payload := `{
		"id": "J1",
		"jarFileId": "F1",
		"jarName": "report.jar",
		"executionType": "immediate",
		"scheduledTime": null,
		"recurrenceType": "one-time",
		"status": "running",
		"createdAt": "2024-05-01T09:59:58.123456",
		"updatedAt": "2024-05-01T10:00:00"
	}`

	var s JobSchedule
	require.NoError(t, json.Unmarshal([]byte(payload), &s))

	assert.Equal(t, ExecutionTypeImmediate, s.ExecutionType)
	assert.Equal(t, RecurrenceOneTime, s.RecurrenceType)
	assert.Equal(t, JobStatusRunning, s.Status)
	assert.True(t, s.ScheduledTime.IsZero())
	assert.Equal(t, 2024, s.CreatedAt.Year())
}

func TestTimestampMarshalZeroIsNull(t *testing.T) {
	out, err := json.Marshal(struct {
		At Timestamp `json:"at"`
	}{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"at":null}`, string(out))
}

func TestExecutionAfterBreaksTiesByID(t *testing.T) {
	at := MustTimestamp("2024-05-01T10:00:00")
	e1 := &JobExecution{ID: "E1", StartTime: at}
	e2 := &JobExecution{ID: "E2", StartTime: at}

	assert.True(t, e2.After(e1))
	assert.False(t, e1.After(e2))

	// decimal ids compare as numbers
	e9 := &JobExecution{ID: "9", StartTime: at}
	e10 := &JobExecution{ID: "10", StartTime: at}
	assert.True(t, e10.After(e9))
	assert.False(t, e9.After(e10))

	// anything else compares lexically
	assert.True(t, (&JobExecution{ID: "E9", StartTime: at}).After(&JobExecution{ID: "E10", StartTime: at}))
}

func TestCountUnread(t *testing.T) {
	n := []Notification{{ID: "1"}, {ID: "2", Read: true}, {ID: "3"}}
	assert.Equal(t, 2, CountUnread(n))
}

func TestJobStatusIsTerminal(t *testing.T) {
	assert.False(t, JobStatusRunning.IsTerminal())
	assert.False(t, JobStatusScheduled.IsTerminal())
	assert.True(t, JobStatusCancelled.IsTerminal())
	assert.True(t, JobStatusCompleted.IsTerminal())
}
