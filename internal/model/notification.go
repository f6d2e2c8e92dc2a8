package model

// NotificationType classifies a notification for display
type NotificationType string

const (
	NotificationSuccess NotificationType = "SUCCESS"
	NotificationError   NotificationType = "ERROR"
	NotificationWarning NotificationType = "WARNING"
	NotificationInfo    NotificationType = "INFO"
)

func (t *NotificationType) UnmarshalJSON(data []byte) error {
	v, err := upperString(data)
	*t = NotificationType(v)
	return err
}

// Notification is a server-generated message about job activity
type Notification struct {
	ID        string           `json:"id"`
	JobID     string           `json:"jobId,omitempty"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	Timestamp Timestamp        `json:"timestamp"`
	Read      bool             `json:"read"`
}

// NotificationSnapshot is an immutable view of the notification set
type NotificationSnapshot struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unread_count"`
}

// CountUnread returns the number of notifications with Read=false
func CountUnread(notifications []Notification) int {
	n := 0
	for i := range notifications {
		if !notifications[i].Read {
			n++
		}
	}
	return n
}
