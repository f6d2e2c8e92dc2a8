package model

import "time"

// ActionKind identifies the kind of optimistic user action
type ActionKind string

const (
	ActionCancelJob          ActionKind = "CANCEL_JOB"
	ActionMarkRead           ActionKind = "MARK_READ"
	ActionMarkAllRead        ActionKind = "MARK_ALL_READ"
	ActionDeleteNotification ActionKind = "DELETE_NOTIFICATION"
)

// PendingAction exists between optimistic application of a user action and
// its confirmation or rollback
type PendingAction struct {
	TargetID         string     `json:"target_id"`
	Kind             ActionKind `json:"kind"`
	AppliedAt        time.Time  `json:"applied_at"`
	RollbackSnapshot any        `json:"-"`
}

// Key identifies the (target, kind) pair; at most one action per key may be pending
func (p *PendingAction) Key() string {
	return PendingKey(p.TargetID, p.Kind)
}

// PendingKey builds the registry key for a target and action kind
func PendingKey(targetID string, kind ActionKind) string {
	return string(kind) + "/" + targetID
}
