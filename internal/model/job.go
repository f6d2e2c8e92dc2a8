package model

import "encoding/json"

// Job is the merged, display-ready view of a JobSchedule and its most recent JobExecution
type Job struct {
	ID                  string          `json:"id"`
	JarFileID           string          `json:"jarFileId"`
	JarName             string          `json:"jarName"`
	ExecutionType       ExecutionType   `json:"executionType"`
	ScheduledTime       Timestamp       `json:"scheduledTime"`
	RecurrenceType      RecurrenceType  `json:"recurrenceType,omitempty"`
	Status              JobStatus       `json:"status"`
	CreatedAt           Timestamp       `json:"createdAt"`
	UpdatedAt           Timestamp       `json:"updatedAt"`
	Logs                string          `json:"logs"`
	Response            json.RawMessage `json:"response"`
	ExecutionTime       string          `json:"executionTime,omitempty"`
	ErrorMessage        string          `json:"errorMessage,omitempty"`
	LastExecutionID     string          `json:"lastExecutionId,omitempty"`
	LastExecutionStatus ExecutionStatus `json:"lastExecutionStatus,omitempty"`
	LastRunAt           Timestamp       `json:"lastRunAt"`
	Pending             bool            `json:"pending"` // an optimistic change is shown but not yet confirmed
}

// Clone returns a deep copy so snapshots never share memory with owned state
func (j Job) Clone() Job {
	if j.Response != nil {
		j.Response = append(json.RawMessage(nil), j.Response...)
	}
	return j
}

// JobActionResult represents the result of a job action
type JobActionResult struct {
	JobID   string    `json:"job_id"`
	Action  string    `json:"action"`
	Status  JobStatus `json:"status"`
	Success bool      `json:"success"`
	Errors  []string  `json:"errors,omitempty"`
}
