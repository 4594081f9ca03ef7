package models

import "time"

// ActivityAction enumerates the state-changing actions recorded on the
// task timeline.
type ActivityAction string

const (
	ActionCreated            ActivityAction = "created"
	ActionStatusChanged      ActivityAction = "status_changed"
	ActionPriorityChanged    ActivityAction = "priority_changed"
	ActionReassigned         ActivityAction = "reassigned"
	ActionCommented          ActivityAction = "commented"
	ActionDueDateChanged     ActivityAction = "due_date_changed"
	ActionExtensionRequested ActivityAction = "extension_requested"
	ActionExtensionApproved  ActivityAction = "extension_approved"
	ActionExtensionRejected  ActivityAction = "extension_rejected"
	ActionEvidenceAdded      ActivityAction = "evidence_added"
	ActionNotionSynced       ActivityAction = "notion_synced"
)

// ActivityRecord is one append-only timeline entry for a task. Records are
// never mutated or deleted; display order is created_at ascending with Seq
// breaking ties.
type ActivityRecord struct {
	Seq       int64          `json:"seq"`
	ID        string         `json:"id"`
	TaskID    string         `json:"task_id"`
	Action    ActivityAction `json:"action"`
	ActorID   string         `json:"actor_id,omitempty"`
	FromValue string         `json:"from_value,omitempty"`
	ToValue   string         `json:"to_value,omitempty"`
	Comment   string         `json:"comment,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
