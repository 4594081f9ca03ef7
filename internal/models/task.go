package models

import "time"

// Task represents a single unit of assigned work tracked through the
// status lifecycle.
type Task struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	AssigneeID  string       `json:"assignee_id,omitempty"`
	CreatorID   string       `json:"creator_id"`
	Agency      string       `json:"agency,omitempty"`
	Priority    TaskPriority `json:"priority"`
	Status      TaskStatus   `json:"status"`
	DueAt       *time.Time   `json:"due_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// IsOverdue reports whether the task has a due date in the past and is
// still in a non-terminal state.
func (t Task) IsOverdue(now time.Time) bool {
	if t.DueAt == nil || IsTerminalStatus(t.Status) {
		return false
	}
	return t.DueAt.Before(now)
}
