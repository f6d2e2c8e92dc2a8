package model

import "strconv"

// ExecutionStatus is the outcome of a single job run
type ExecutionStatus string

const (
	ExecutionStatusStarted   ExecutionStatus = "STARTED"
	ExecutionStatusCompleted ExecutionStatus = "COMPLETED"
	ExecutionStatusFailed    ExecutionStatus = "FAILED"
)

func (s *ExecutionStatus) UnmarshalJSON(data []byte) error {
	v, err := upperString(data)
	*s = ExecutionStatus(v)
	return err
}

// JobExecution is one historical run of a JobSchedule. Executions are append-only.
type JobExecution struct {
	ID            string          `json:"id"`
	JobScheduleID string          `json:"jobScheduleId"`
	StartTime     Timestamp       `json:"startTime"`
	EndTime       Timestamp       `json:"endTime"`
	Status        ExecutionStatus `json:"status"`
	Logs          string          `json:"logs"`
	ErrorMessage  string          `json:"errorMessage,omitempty"`
	ExecutionTime string          `json:"executionTime,omitempty"` // duration as reported by the backend
	Response      string          `json:"response,omitempty"`      // raw response text, usually JSON
}

// After reports whether e is more recent than other: later start time, ties
// broken by the higher id. Ids compare numerically when both are decimal
// numbers and lexically otherwise, so UUID ties are stable but not ordered.
func (e *JobExecution) After(other *JobExecution) bool {
	if !e.StartTime.Equal(other.StartTime.Time) {
		return e.StartTime.After(other.StartTime.Time)
	}

	a, errA := strconv.ParseUint(e.ID, 10, 64)
	b, errB := strconv.ParseUint(other.ID, 10, 64)
	if errA == nil && errB == nil {
		return a > b
	}
	return e.ID > other.ID
}
