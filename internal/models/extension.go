package models

import "time"

// ExtensionState defines the decision state of an extension request.
type ExtensionState string

const (
	ExtensionPending  ExtensionState = "pending"
	ExtensionApproved ExtensionState = "approved"
	ExtensionRejected ExtensionState = "rejected"
)

// ExtensionRequest is a requested change to a task's due date awaiting a
// director/admin decision. At most one pending request exists per task;
// decided requests are immutable.
type ExtensionRequest struct {
	ID             string         `json:"id"`
	TaskID         string         `json:"task_id"`
	RequesterID    string         `json:"requester_id"`
	RequestedDueAt time.Time      `json:"requested_due_at"`
	Reason         string         `json:"reason,omitempty"`
	State          ExtensionState `json:"state"`
	DeciderID      string         `json:"decider_id,omitempty"`
	DecisionNote   string         `json:"decision_note,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	DecidedAt      *time.Time     `json:"decided_at,omitempty"`
}

// Decided reports whether the request has left the pending state.
func (e ExtensionRequest) Decided() bool {
	return e.State != ExtensionPending
}
