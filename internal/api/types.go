package api

import (
	"time"

	"opsboard/internal/models"
)

// LoginRequest authenticates a user by username and password.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the signed token for subsequent requests.
type LoginResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// TaskCreateRequest creates one task. Omitted fields take defaults:
// priority medium, status draft, or assigned when an assignee is given.
type TaskCreateRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	AssigneeID  *string `json:"assignee_id,omitempty"`
	Agency      *string `json:"agency,omitempty"`
	Priority    *string `json:"priority,omitempty"`
	DueAt       *string `json:"due_at,omitempty"`
}

// TaskUpdateRequest changes task details. Status changes go through the
// status endpoint instead. A null due_at clears the due date when
// ClearDue is set.
type TaskUpdateRequest struct {
	AssigneeID *string `json:"assignee_id,omitempty"`
	Priority   *string `json:"priority,omitempty"`
	DueAt      *string `json:"due_at,omitempty"`
	ClearDue   bool    `json:"clear_due,omitempty"`
}

// StatusChangeRequest moves a task along one state machine edge.
type StatusChangeRequest struct {
	Status string `json:"status"`
	Note   string `json:"note,omitempty"`
}

// CommentRequest appends a comment to the task timeline.
type CommentRequest struct {
	Comment string `json:"comment"`
}

// TaskResponse is the canonical task representation.
type TaskResponse struct {
	Task models.Task `json:"task"`
}

// BatchCreateResult reports the outcome for one entry of a batch create.
// Failed entries carry the error; the rest of the batch proceeds.
type BatchCreateResult struct {
	Index int          `json:"index"`
	Task  *models.Task `json:"task,omitempty"`
	Error string       `json:"error,omitempty"`
}

// BatchCreateResponse summarizes a batch create.
type BatchCreateResponse struct {
	Created int                 `json:"created"`
	Failed  int                 `json:"failed"`
	Results []BatchCreateResult `json:"results"`
}

// ExtensionCreateRequest asks for a new due date on a task.
type ExtensionCreateRequest struct {
	RequestedDueAt string `json:"requested_due_at"`
	Reason         string `json:"reason"`
}

// ExtensionDecisionRequest approves or rejects a pending request.
type ExtensionDecisionRequest struct {
	Approve bool   `json:"approve"`
	Note    string `json:"note,omitempty"`
}

// ExtensionResponse is the canonical extension request representation.
type ExtensionResponse struct {
	Extension models.ExtensionRequest `json:"extension"`
	Task      *models.Task            `json:"task,omitempty"`
}

// TimelineResponse lists a task's activity records in chronological
// order.
type TimelineResponse struct {
	TaskID   string                  `json:"task_id"`
	Timeline []models.ActivityRecord `json:"timeline"`
}

// NotificationListResponse lists notifications newest first.
type NotificationListResponse struct {
	Notifications []models.Notification `json:"notifications"`
	UnreadCount   int                   `json:"unread_count"`
}

// DismissRequest flags notifications as dismissed.
type DismissRequest struct {
	IDs []string `json:"ids"`
}

// CountResponse reports how many rows an operation touched.
type CountResponse struct {
	Count int64 `json:"count"`
}

// SweepResponse reports one notification sweep run.
type SweepResponse struct {
	Created   int       `json:"created"`
	Skipped   int       `json:"skipped"`
	Errors    int       `json:"errors"`
	Delivered int       `json:"delivered"`
	Messages  []string  `json:"messages,omitempty"`
	RanAt     time.Time `json:"ran_at"`
}
