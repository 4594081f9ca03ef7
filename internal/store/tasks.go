package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"opsboard/internal/models"
)

// TaskFilter narrows ListTasks results.
type TaskFilter struct {
	Agency     string
	AssigneeID string
	CreatorID  string
	Statuses   []string
	OverdueAt  *time.Time
	Limit      int
	Offset     int
}

// TaskUpdate describes mutable task detail fields. Status changes go
// through TransitionStatus instead.
type TaskUpdate struct {
	AssigneeID *string
	Priority   *models.TaskPriority
	DueAt      *time.Time
	ClearDue   bool
}

// TaskStats aggregates counts over a filtered task set.
type TaskStats struct {
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"by_status"`
	ByPriority map[string]int `json:"by_priority"`
	Overdue    int            `json:"overdue"`
}

// CreateTask inserts a task together with its created activity record.
func (s *Store) CreateTask(ctx context.Context, task *models.Task) error {
	if task == nil {
		return fmt.Errorf("task is required")
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO tasks (
				id, title, description, assignee_id, creator_id, agency, priority, status, due_at, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			task.ID,
			task.Title,
			nullIfEmpty(task.Description),
			nullIfEmpty(task.AssigneeID),
			task.CreatorID,
			nullIfEmpty(task.Agency),
			string(task.Priority),
			string(task.Status),
			nullTime(task.DueAt),
			formatTime(task.CreatedAt),
			formatTime(task.UpdatedAt),
		)
		if err != nil {
			return err
		}

		return insertActivity(ctx, tx, models.ActivityRecord{
			TaskID:    task.ID,
			Action:    models.ActionCreated,
			ActorID:   task.CreatorID,
			ToValue:   string(task.Status),
			CreatedAt: task.CreatedAt,
		})
	})
}

// GetTask returns a task by id, or nil when missing.
func (s *Store) GetTask(ctx context.Context, id string) (*models.Task, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, description, assignee_id, creator_id, agency, priority, status, due_at, created_at, updated_at
		FROM tasks WHERE id = ?
	`, id)
	return scanTask(row)
}

// TransitionStatus moves a task along one allowed state machine edge.
// The current-status check, the update and the timeline append happen in
// a single transaction so concurrent transitions cannot both apply
// against a stale prior state.
func (s *Store) TransitionStatus(ctx context.Context, taskID string, to models.TaskStatus, actorID, note string, now time.Time) (*models.Task, error) {
	var updated *models.Task
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var current string
		err := tx.QueryRowContext(ctx, "SELECT status FROM tasks WHERE id = ?", taskID).Scan(&current)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		from := models.TaskStatus(current)
		if !models.CanTransition(from, to) {
			return &TransitionError{From: from, To: to}
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?",
			string(to), formatTime(now), taskID,
		); err != nil {
			return err
		}

		if err := insertActivity(ctx, tx, models.ActivityRecord{
			TaskID:    taskID,
			Action:    models.ActionStatusChanged,
			ActorID:   actorID,
			FromValue: string(from),
			ToValue:   string(to),
			Comment:   note,
			CreatedAt: now,
		}); err != nil {
			return err
		}

		updated, err = getTaskTx(ctx, tx, taskID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateTaskDetails applies reassignment, priority and due date changes,
// appending one timeline record per changed field.
func (s *Store) UpdateTaskDetails(ctx context.Context, taskID string, update TaskUpdate, actorID string, now time.Time) (*models.Task, error) {
	var updated *models.Task
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		current, err := getTaskTx(ctx, tx, taskID)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrNotFound
		}

		set := []string{}
		args := []any{}
		var activities []models.ActivityRecord

		if update.AssigneeID != nil && *update.AssigneeID != current.AssigneeID {
			set = append(set, "assignee_id = ?")
			args = append(args, nullIfEmpty(*update.AssigneeID))
			activities = append(activities, models.ActivityRecord{
				TaskID:    taskID,
				Action:    models.ActionReassigned,
				ActorID:   actorID,
				FromValue: current.AssigneeID,
				ToValue:   *update.AssigneeID,
				CreatedAt: now,
			})
		}
		if update.Priority != nil && *update.Priority != current.Priority {
			set = append(set, "priority = ?")
			args = append(args, string(*update.Priority))
			activities = append(activities, models.ActivityRecord{
				TaskID:    taskID,
				Action:    models.ActionPriorityChanged,
				ActorID:   actorID,
				FromValue: string(current.Priority),
				ToValue:   string(*update.Priority),
				CreatedAt: now,
			})
		}
		if update.DueAt != nil || update.ClearDue {
			set = append(set, "due_at = ?")
			args = append(args, nullTime(update.DueAt))
			activities = append(activities, models.ActivityRecord{
				TaskID:    taskID,
				Action:    models.ActionDueDateChanged,
				ActorID:   actorID,
				FromValue: formatOptionalTime(current.DueAt),
				ToValue:   formatOptionalTime(update.DueAt),
				CreatedAt: now,
			})
		}

		if len(set) == 0 {
			updated = current
			return nil
		}

		set = append(set, "updated_at = ?")
		args = append(args, formatTime(now), taskID)
		query := fmt.Sprintf("UPDATE tasks SET %s WHERE id = ?", strings.Join(set, ", "))
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}

		for _, rec := range activities {
			if err := insertActivity(ctx, tx, rec); err != nil {
				return err
			}
		}

		updated, err = getTaskTx(ctx, tx, taskID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SetDueDate moves the due date inside the caller-provided transaction.
// Used by extension approval so the task update and the decision commit
// together.
func setDueDateTx(ctx context.Context, tx *sql.Tx, taskID string, dueAt, now time.Time) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE tasks SET due_at = ?, updated_at = ? WHERE id = ?",
		formatTime(dueAt), formatTime(now), taskID,
	)
	return err
}

// ListTasks returns tasks matching the provided filter, newest first.
func (s *Store) ListTasks(ctx context.Context, filter TaskFilter) ([]models.Task, error) {
	query := "SELECT id, title, description, assignee_id, creator_id, agency, priority, status, due_at, created_at, updated_at FROM tasks"
	where := []string{}
	args := []any{}

	if filter.Agency != "" {
		where = append(where, "agency = ?")
		args = append(args, filter.Agency)
	}
	if filter.AssigneeID != "" {
		where = append(where, "assignee_id = ?")
		args = append(args, filter.AssigneeID)
	}
	if filter.CreatorID != "" {
		where = append(where, "creator_id = ?")
		args = append(args, filter.CreatorID)
	}
	if len(filter.Statuses) > 0 {
		where = append(where, fmt.Sprintf("status IN (%s)", placeholders(len(filter.Statuses))))
		for _, status := range filter.Statuses {
			args = append(args, status)
		}
	}
	if filter.OverdueAt != nil {
		where = append(where, fmt.Sprintf("due_at IS NOT NULL AND due_at < ? AND status IN (%s)", placeholders(len(models.ActiveStatusStrings()))))
		args = append(args, formatTime(*filter.OverdueAt))
		for _, status := range models.ActiveStatusStrings() {
			args = append(args, status)
		}
	}

	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	query += " ORDER BY updated_at DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

// TaskStats returns aggregate counts by status, priority and overdue for
// the filtered set. Read-only.
func (s *Store) TaskStats(ctx context.Context, filter TaskFilter, now time.Time) (*TaskStats, error) {
	where := []string{}
	args := []any{}
	if filter.Agency != "" {
		where = append(where, "agency = ?")
		args = append(args, filter.Agency)
	}
	if filter.AssigneeID != "" {
		where = append(where, "assignee_id = ?")
		args = append(args, filter.AssigneeID)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	stats := &TaskStats{
		ByStatus:   map[string]int{},
		ByPriority: map[string]int{},
	}

	rows, err := s.db.QueryContext(ctx, "SELECT status, priority, COUNT(*) FROM tasks"+clause+" GROUP BY status, priority", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var status, priority string
		var count int
		if err := rows.Scan(&status, &priority, &count); err != nil {
			return nil, err
		}
		stats.ByStatus[status] += count
		stats.ByPriority[priority] += count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	overdueArgs := append([]any{}, args...)
	overdueClause := clause
	if overdueClause == "" {
		overdueClause = " WHERE"
	} else {
		overdueClause += " AND"
	}
	overdueClause += fmt.Sprintf(" due_at IS NOT NULL AND due_at < ? AND status IN (%s)", placeholders(len(models.ActiveStatusStrings())))
	overdueArgs = append(overdueArgs, formatTime(now))
	for _, status := range models.ActiveStatusStrings() {
		overdueArgs = append(overdueArgs, status)
	}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tasks"+overdueClause, overdueArgs...).Scan(&stats.Overdue); err != nil {
		return nil, err
	}

	return stats, nil
}

// TaskExists checks whether a task exists by id.
func (s *Store) TaskExists(ctx context.Context, id string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM tasks WHERE id = ? LIMIT 1", id).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func taskExistsTx(ctx context.Context, tx *sql.Tx, id string) (bool, error) {
	var exists int
	err := tx.QueryRowContext(ctx, "SELECT 1 FROM tasks WHERE id = ? LIMIT 1", id).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func getTaskTx(ctx context.Context, tx *sql.Tx, id string) (*models.Task, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT id, title, description, assignee_id, creator_id, agency, priority, status, due_at, created_at, updated_at
		FROM tasks WHERE id = ?
	`, id)
	return scanTask(row)
}

func scanTask(scanner interface {
	Scan(dest ...any) error
}) (*models.Task, error) {
	var task models.Task
	var description, assigneeID, agency sql.NullString
	var priority, status string
	var dueAt sql.NullString
	var createdAt, updatedAt string

	if err := scanner.Scan(
		&task.ID,
		&task.Title,
		&description,
		&assigneeID,
		&task.CreatorID,
		&agency,
		&priority,
		&status,
		&dueAt,
		&createdAt,
		&updatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	task.Description = description.String
	task.AssigneeID = assigneeID.String
	task.Agency = agency.String
	task.Priority = models.TaskPriority(priority)
	task.Status = models.TaskStatus(status)

	if dueAt.Valid {
		parsed, err := parseTime(dueAt.String)
		if err != nil {
			return nil, err
		}
		task.DueAt = &parsed
	}
	parsedCreated, err := parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	parsedUpdated, err := parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	task.CreatedAt = parsedCreated
	task.UpdatedAt = parsedUpdated

	return &task, nil
}

func formatOptionalTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return formatTime(*t)
}
