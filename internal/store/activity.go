package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"opsboard/internal/models"
)

// insertActivity appends one timeline record inside the caller's
// transaction. Task mutations and their activity records share a
// transaction so a failed append rolls the mutation back.
func insertActivity(ctx context.Context, tx *sql.Tx, rec models.ActivityRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO task_activity (id, task_id, action, actor_id, from_value, to_value, comment, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID,
		rec.TaskID,
		string(rec.Action),
		nullIfEmpty(rec.ActorID),
		nullIfEmpty(rec.FromValue),
		nullIfEmpty(rec.ToValue),
		nullIfEmpty(rec.Comment),
		formatTime(rec.CreatedAt),
	)
	return err
}

// ListActivity returns the timeline for a task ascending by creation
// time, ties broken by insertion sequence.
func (s *Store) ListActivity(ctx context.Context, taskID string) ([]models.ActivityRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, id, task_id, action, actor_id, from_value, to_value, comment, created_at
		FROM task_activity
		WHERE task_id = ?
		ORDER BY created_at ASC, seq ASC
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.ActivityRecord
	for rows.Next() {
		var rec models.ActivityRecord
		var action string
		var actorID, fromValue, toValue, comment sql.NullString
		var createdAt string
		if err := rows.Scan(&rec.Seq, &rec.ID, &rec.TaskID, &action, &actorID, &fromValue, &toValue, &comment, &createdAt); err != nil {
			return nil, err
		}
		rec.Action = models.ActivityAction(action)
		rec.ActorID = actorID.String
		rec.FromValue = fromValue.String
		rec.ToValue = toValue.String
		rec.Comment = comment.String
		parsed, err := parseTime(createdAt)
		if err != nil {
			return nil, err
		}
		rec.CreatedAt = parsed
		records = append(records, rec)
	}
	return records, rows.Err()
}

// AppendActivity writes a standalone timeline record, verifying the task
// exists. Used for comments and other records outside a task mutation.
func (s *Store) AppendActivity(ctx context.Context, rec models.ActivityRecord) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		exists, err := taskExistsTx(ctx, tx, rec.TaskID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return insertActivity(ctx, tx, rec)
	})
}
