package models

import (
	"fmt"
	"strings"
)

// TaskStatus defines allowed lifecycle states for tasks.
type TaskStatus string

const (
	StatusDraft      TaskStatus = "draft"
	StatusAssigned   TaskStatus = "assigned"
	StatusInProgress TaskStatus = "in_progress"
	StatusSubmitted  TaskStatus = "submitted"
	StatusVerified   TaskStatus = "verified"
	StatusRejected   TaskStatus = "rejected"
	StatusArchived   TaskStatus = "archived"
)

// TaskPriority defines allowed urgency levels.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// UserRole defines the capability tiers used by authorization checks.
type UserRole string

const (
	RoleStaff    UserRole = "staff"
	RoleDirector UserRole = "director"
	RoleAdmin    UserRole = "admin"
)

const DefaultPriority = PriorityMedium

var validTaskStatuses = map[TaskStatus]struct{}{
	StatusDraft:      {},
	StatusAssigned:   {},
	StatusInProgress: {},
	StatusSubmitted:  {},
	StatusVerified:   {},
	StatusRejected:   {},
	StatusArchived:   {},
}

var validPriorities = map[TaskPriority]struct{}{
	PriorityLow:    {},
	PriorityMedium: {},
	PriorityHigh:   {},
	PriorityUrgent: {},
}

var validRoles = map[UserRole]struct{}{
	RoleStaff:    {},
	RoleDirector: {},
	RoleAdmin:    {},
}

// terminalStatuses never transition anywhere and are skipped by the
// overdue sweep.
var terminalStatuses = map[TaskStatus]struct{}{
	StatusVerified: {},
	StatusArchived: {},
}

// allowedTransitions is the complete edge set of the status state machine.
// Archiving is an administrative override from any non-terminal state and
// is handled in CanTransition directly.
var allowedTransitions = map[TaskStatus][]TaskStatus{
	StatusDraft:      {StatusAssigned},
	StatusAssigned:   {StatusInProgress},
	StatusInProgress: {StatusSubmitted},
	StatusSubmitted:  {StatusVerified, StatusRejected},
	StatusRejected:   {StatusInProgress},
}

func IsValidTaskStatus(status TaskStatus) bool {
	_, ok := validTaskStatuses[status]
	return ok
}

func IsValidPriority(priority TaskPriority) bool {
	_, ok := validPriorities[priority]
	return ok
}

func IsValidRole(role UserRole) bool {
	_, ok := validRoles[role]
	return ok
}

// IsTerminalStatus reports whether a status admits no further transitions.
func IsTerminalStatus(status TaskStatus) bool {
	_, ok := terminalStatuses[status]
	return ok
}

// CanTransition reports whether the edge from -> to is allowed.
func CanTransition(from, to TaskStatus) bool {
	if to == StatusArchived {
		return !IsTerminalStatus(from)
	}
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ActiveStatusStrings returns every non-terminal status, the set the
// overdue sweep scans.
func ActiveStatusStrings() []string {
	out := []string{
		string(StatusDraft),
		string(StatusAssigned),
		string(StatusInProgress),
		string(StatusSubmitted),
		string(StatusRejected),
	}
	return out
}

func ParseTaskStatus(raw string) (TaskStatus, error) {
	value := TaskStatus(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return "", fmt.Errorf("status is required")
	}
	if !IsValidTaskStatus(value) {
		return "", fmt.Errorf("invalid status: %s", value)
	}
	return value, nil
}

func ParsePriority(raw string) (TaskPriority, error) {
	value := TaskPriority(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return "", fmt.Errorf("priority is required")
	}
	if !IsValidPriority(value) {
		return "", fmt.Errorf("invalid priority: %s", value)
	}
	return value, nil
}

func ParseRole(raw string) (UserRole, error) {
	value := UserRole(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return "", fmt.Errorf("role is required")
	}
	if !IsValidRole(value) {
		return "", fmt.Errorf("invalid role: %s", value)
	}
	return value, nil
}
