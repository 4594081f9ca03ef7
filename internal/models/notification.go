package models

import "time"

// NotificationType enumerates the conditions a notification can announce.
type NotificationType string

const (
	NotifyTaskAssigned       NotificationType = "task_assigned"
	NotifyTasksAssignedBulk  NotificationType = "tasks_assigned_bulk"
	NotifyTaskOverdue        NotificationType = "task_overdue"
	NotifyExtensionRequested NotificationType = "extension_requested"
	NotifyExtensionApproved  NotificationType = "extension_approved"
	NotifyExtensionRejected  NotificationType = "extension_rejected"
)

// Notification is one per-user notification record. Rows are append-only
// except for the read/dismissed/delivered flags; dismissal is a flag, not
// a delete.
type Notification struct {
	ID           string           `json:"id"`
	RecipientID  string           `json:"recipient_id"`
	Type         NotificationType `json:"type"`
	TaskID       string           `json:"task_id,omitempty"`
	Title        string           `json:"title"`
	Message      string           `json:"message"`
	Read         bool             `json:"read"`
	Dismissed    bool             `json:"dismissed"`
	Delivered    bool             `json:"delivered"`
	ScheduledFor time.Time        `json:"scheduled_for"`
	CreatedAt    time.Time        `json:"created_at"`
}

// DayKey returns the UTC calendar day used in the de-duplication key
// (recipient, type, task, day).
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
