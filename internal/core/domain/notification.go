package domain

import "time"

// Attribute keys written by the worker
const (
	AttrContent  = "content"
	AttrEvent    = "event"
	AttrImage    = "image"
	AttrCmd      = "cmd"
	AttrSrc      = "src"
	AttrDst      = "dst"
	AttrUploaded = "uploaded"
	AttrExitCode = "exitCode"
)

// Lifecycle events
const (
	EventJobStarted  = "job.started"
	EventJobFinished = "job.finished"
)

// Notification is an append-only event record addressed to a user
type Notification struct {
	ID         string
	UserID     string
	CreatedAt  time.Time
	Attributes map[string]string
}

// NewNotification builds a notification carrying a single content attribute
func NewNotification(userID, message string) *Notification {
	return &Notification{
		ID:        NewID(),
		UserID:    userID,
		CreatedAt: Now(),
		Attributes: map[string]string{
			AttrContent: message,
		},
	}
}

// Content returns the message of the notification
func (n *Notification) Content() string {
	if n.Attributes == nil {
		return ""
	}
	return n.Attributes[AttrContent]
}
