package model

import "time"

// NoticeLevel is the severity of a transient notice
type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a transient, toast-style message for the user.
// Notices never block the view and expire on their own.
type Notice struct {
	ID        string      `json:"id"`
	Level     NoticeLevel `json:"level"`
	Title     string      `json:"title"`
	Message   string      `json:"message"`
	Action    ActionKind  `json:"action,omitempty"`
	TargetID  string      `json:"target_id,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}
