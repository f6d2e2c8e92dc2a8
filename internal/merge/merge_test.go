package merge

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirychukyurii/webitel-job-sync/internal/model"
)

func schedule(id string, status model.JobStatus) model.JobSchedule {
	return model.JobSchedule{
		ID:            id,
		JarName:       id + ".jar",
		ExecutionType: model.ExecutionTypeImmediate,
		Status:        status,
		ScheduledTime: model.MustTimestamp("2024-05-01T09:00:00"),
	}
}

func execution(id, start, logs string) model.JobExecution {
	return model.JobExecution{
		ID:            id,
		JobScheduleID: "J1",
		StartTime:     model.MustTimestamp(start),
		Status:        model.ExecutionStatusCompleted,
		Logs:          logs,
		Response:      `{"run":"` + id + `"}`,
		ExecutionTime: "120ms",
	}
}

func TestMergeWithoutExecutions(t *testing.T) {
	s := schedule("J1", model.JobStatusScheduled)

	job := Merge(s, nil)

	assert.Equal(t, "J1", job.ID)
	assert.Equal(t, model.JobStatusScheduled, job.Status)
	assert.Empty(t, job.Logs)
	assert.Nil(t, job.Response)
	assert.Empty(t, job.LastExecutionID)
	assert.True(t, job.LastRunAt.Equal(s.ScheduledTime.Time))
}

func TestMergePicksLatestExecution(t *testing.T) {
	s := schedule("J1", model.JobStatusRunning)
	executions := []model.JobExecution{
		execution("E1", "2024-05-01T10:00:00", "first"),
		execution("E2", "2024-05-01T10:05:00", "second"),
	}

	job := Merge(s, executions)

	assert.Equal(t, "E2", job.LastExecutionID)
	assert.Equal(t, "second", job.Logs)
	assert.JSONEq(t, `{"run":"E2"}`, string(job.Response))
	assert.Equal(t, "120ms", job.ExecutionTime)
	assert.Equal(t, model.JobStatusRunning, job.Status, "status comes from the schedule")
}

func TestMergeTieBrokenByHighestID(t *testing.T) {
	s := schedule("J1", model.JobStatusCompleted)
	executions := []model.JobExecution{
		execution("E7", "2024-05-01T10:00:00", "seven"),
		execution("E9", "2024-05-01T10:00:00", "nine"),
		execution("E8", "2024-05-01T10:00:00", "eight"),
	}

	assert.Equal(t, "nine", Merge(s, executions).Logs)
}

func TestMergeIsDeterministicUnderPermutation(t *testing.T) {
	s := schedule("J1", model.JobStatusCompleted)
	executions := []model.JobExecution{
		execution("E1", "2024-05-01T10:00:00", "a"),
		execution("E2", "2024-05-01T10:05:00", "b"),
		execution("E3", "2024-05-01T10:05:00", "c"),
		execution("E4", "2024-05-01T09:59:00", "d"),
		execution("E5", "2024-04-30T23:00:00", "e"),
	}

	want := Merge(s, executions)
	assert.Equal(t, want, Merge(s, executions))

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		shuffled := append([]model.JobExecution(nil), executions...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, Merge(s, shuffled))
	}
	assert.Equal(t, "E3", want.LastExecutionID)
}

func TestMergeNonJSONResponseIsQuoted(t *testing.T) {
	e := execution("E1", "2024-05-01T10:00:00", "")
	e.Response = "plain text output"

	job := Merge(schedule("J1", model.JobStatusCompleted), []model.JobExecution{e})

	var s string
	require.NoError(t, json.Unmarshal(job.Response, &s))
	assert.Equal(t, "plain text output", s)
}

func TestMergeAllOneJobPerSchedule(t *testing.T) {
	schedules := []model.JobSchedule{
		schedule("J1", model.JobStatusRunning),
		schedule("J2", model.JobStatusScheduled),
		schedule("J1", model.JobStatusFailed),
	}
	executions := map[string][]model.JobExecution{
		"J1": {execution("E1", "2024-05-01T10:00:00", "x")},
	}

	jobs := MergeAll(schedules, executions)

	require.Len(t, jobs, 2)
	assert.Equal(t, "J1", jobs[0].ID)
	assert.Equal(t, model.JobStatusRunning, jobs[0].Status)
	assert.Equal(t, "x", jobs[0].Logs)
	assert.Equal(t, "J2", jobs[1].ID)
	assert.Empty(t, jobs[1].Logs)
}
