// Package merge combines job schedules with their executions into display-ready jobs.
package merge

import (
	"encoding/json"

	"github.com/tidwall/gjson"

	"github.com/kirychukyurii/webitel-job-sync/internal/model"
)

// Merge returns the Job view of schedule using its most recent execution.
// Executions may arrive in any order; the result only depends on their contents.
func Merge(schedule model.JobSchedule, executions []model.JobExecution) model.Job {
	job := model.Job{
		ID:             schedule.ID,
		JarFileID:      schedule.JarFileID,
		JarName:        schedule.JarName,
		ExecutionType:  schedule.ExecutionType,
		ScheduledTime:  schedule.ScheduledTime,
		RecurrenceType: schedule.RecurrenceType,
		Status:         schedule.Status,
		CreatedAt:      schedule.CreatedAt,
		UpdatedAt:      schedule.UpdatedAt,
		LastRunAt:      schedule.ScheduledTime,
	}

	latest := Latest(executions)
	if latest == nil {
		return job
	}

	job.Logs = latest.Logs
	job.Response = rawResponse(latest.Response)
	job.ExecutionTime = latest.ExecutionTime
	job.ErrorMessage = latest.ErrorMessage
	job.LastExecutionID = latest.ID
	job.LastExecutionStatus = latest.Status
	if !latest.StartTime.IsZero() {
		job.LastRunAt = latest.StartTime
	}

	return job
}

// Latest returns the execution with the greatest start time, ties broken by the
// highest id, or nil for an empty slice
func Latest(executions []model.JobExecution) *model.JobExecution {
	var latest *model.JobExecution
	for i := range executions {
		if latest == nil || executions[i].After(latest) {
			latest = &executions[i]
		}
	}
	return latest
}

// MergeAll merges every schedule, keeping schedule order. A schedule id seen
// twice is merged once. Schedules missing from executions get schedule-only jobs.
func MergeAll(schedules []model.JobSchedule, executions map[string][]model.JobExecution) []model.Job {
	seen := make(map[string]struct{}, len(schedules))
	jobs := make([]model.Job, 0, len(schedules))

	for _, s := range schedules {
		if _, ok := seen[s.ID]; ok {
			continue
		}
		seen[s.ID] = struct{}{}
		jobs = append(jobs, Merge(s, executions[s.ID]))
	}

	return jobs
}

// rawResponse keeps a JSON response as-is and quotes anything else
func rawResponse(s string) json.RawMessage {
	if s == "" {
		return nil
	}
	if gjson.Valid(s) {
		return json.RawMessage(s)
	}
	quoted, _ := json.Marshal(s)
	return quoted
}
