package model

import "time"

// SyncStatus represents the current status of the synchronization engine
type SyncStatus struct {
	State               string    `json:"state"`                // idle | polling | scheduled_wait | backoff | stopped
	Interval            int64     `json:"interval"`             // Base poll interval in milliseconds
	NextPollIn          int64     `json:"next_poll_in"`         // Delay before the next cycle in milliseconds
	LastSuccess         time.Time `json:"last_success"`         // Completion time of the last fully successful cycle
	LastAttempt         time.Time `json:"last_attempt"`         // Completion time of the last cycle
	ConsecutiveFailures int       `json:"consecutive_failures"` // Failed cycles since the last success
	LastError           string    `json:"last_error,omitempty"`
	Cycles              uint64    `json:"cycles"`          // Completed cycles
	JobsTotal           int       `json:"jobs_total"`      // Merged jobs in the current snapshot
	JobsUpdatedAt       time.Time `json:"jobs_updated_at"` // When the job snapshot was last replaced
	UnreadCount         int       `json:"unread_count"`    // Unread notifications in the current snapshot
	PendingActions      int       `json:"pending_count"`   // Optimistic actions awaiting resolution
}
