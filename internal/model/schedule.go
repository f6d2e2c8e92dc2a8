package model

import (
	"encoding/json"
	"strings"
)

// JobStatus represents the lifecycle status of a job schedule
type JobStatus string

// JobStatus values
const (
	JobStatusScheduled JobStatus = "SCHEDULED"
	JobStatusRunning   JobStatus = "RUNNING"
	JobStatusCompleted JobStatus = "COMPLETED"
	JobStatusFailed    JobStatus = "FAILED"
	JobStatusCancelled JobStatus = "CANCELLED"
)

// IsTerminal reports whether no further transition is expected
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// UnmarshalJSON normalizes the status to upper case
func (s *JobStatus) UnmarshalJSON(data []byte) error {
	v, err := upperString(data)
	*s = JobStatus(v)
	return err
}

// ExecutionType tells whether a job runs right away or at a scheduled time
type ExecutionType string

const (
	ExecutionTypeImmediate ExecutionType = "IMMEDIATE"
	ExecutionTypeScheduled ExecutionType = "SCHEDULED"
)

func (t *ExecutionType) UnmarshalJSON(data []byte) error {
	v, err := upperString(data)
	*t = ExecutionType(v)
	return err
}

// RecurrenceType is how often a scheduled job repeats
type RecurrenceType string

const (
	RecurrenceOneTime RecurrenceType = "ONE_TIME"
	RecurrenceHourly  RecurrenceType = "HOURLY"
	RecurrenceDaily   RecurrenceType = "DAILY"
	RecurrenceWeekly  RecurrenceType = "WEEKLY"
)

// UnmarshalJSON accepts both "one-time" and "ONE_TIME"
func (r *RecurrenceType) UnmarshalJSON(data []byte) error {
	v, err := upperString(data)
	*r = RecurrenceType(strings.ReplaceAll(v, "-", "_"))
	return err
}

// JobSchedule is the backend record describing when and how a job runs
type JobSchedule struct {
	ID             string         `json:"id"`
	JarFileID      string         `json:"jarFileId"`
	JarName        string         `json:"jarName"`
	ExecutionType  ExecutionType  `json:"executionType"`
	ScheduledTime  Timestamp      `json:"scheduledTime"`
	RecurrenceType RecurrenceType `json:"recurrenceType,omitempty"`
	Status         JobStatus      `json:"status"`
	CreatedAt      Timestamp      `json:"createdAt"`
	UpdatedAt      Timestamp      `json:"updatedAt"`
}

func upperString(data []byte) (string, error) {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return "", err
	}
	if s == nil {
		return "", nil
	}
	return strings.ToUpper(strings.TrimSpace(*s)), nil
}
