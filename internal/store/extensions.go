package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"opsboard/internal/models"
)

// CreateExtension inserts a pending extension request and its timeline
// record. Fails with ErrPendingExtension when the task already has a
// pending request; the partial unique index closes the race between
// concurrent requests.
func (s *Store) CreateExtension(ctx context.Context, req *models.ExtensionRequest) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		exists, err := taskExistsTx(ctx, tx, req.TaskID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO extension_requests (
				id, task_id, requester_id, requested_due_at, reason, state, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			req.ID,
			req.TaskID,
			req.RequesterID,
			formatTime(req.RequestedDueAt),
			nullIfEmpty(req.Reason),
			string(models.ExtensionPending),
			formatTime(req.CreatedAt),
		)
		if err != nil {
			if isPendingExtensionConflict(err) {
				return ErrPendingExtension
			}
			return err
		}

		return insertActivity(ctx, tx, models.ActivityRecord{
			TaskID:    req.TaskID,
			Action:    models.ActionExtensionRequested,
			ActorID:   req.RequesterID,
			ToValue:   formatTime(req.RequestedDueAt),
			Comment:   req.Reason,
			CreatedAt: req.CreatedAt,
		})
	})
}

// DecideExtension atomically flips a pending request to approved or
// rejected. The still-pending check and the state flip share one
// transaction, so a concurrent second decision observes the decided row
// and fails with ErrAlreadyDecided instead of double-applying. Approval
// also moves the task due date in the same transaction.
func (s *Store) DecideExtension(ctx context.Context, extensionID, deciderID string, approved bool, note string, now time.Time) (*models.ExtensionRequest, error) {
	var decided *models.ExtensionRequest
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		current, err := getExtensionTx(ctx, tx, extensionID)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrNotFound
		}
		if current.Decided() {
			return ErrAlreadyDecided
		}

		state := models.ExtensionRejected
		action := models.ActionExtensionRejected
		if approved {
			state = models.ExtensionApproved
			action = models.ActionExtensionApproved
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE extension_requests
			SET state = ?, decider_id = ?, decision_note = ?, decided_at = ?
			WHERE id = ? AND state = ?
		`, string(state), deciderID, nullIfEmpty(note), formatTime(now), extensionID, string(models.ExtensionPending))
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrAlreadyDecided
		}

		if approved {
			if err := setDueDateTx(ctx, tx, current.TaskID, current.RequestedDueAt, now); err != nil {
				return err
			}
			if err := insertActivity(ctx, tx, models.ActivityRecord{
				TaskID:    current.TaskID,
				Action:    models.ActionDueDateChanged,
				ActorID:   deciderID,
				ToValue:   formatTime(current.RequestedDueAt),
				CreatedAt: now,
			}); err != nil {
				return err
			}
		}

		if err := insertActivity(ctx, tx, models.ActivityRecord{
			TaskID:    current.TaskID,
			Action:    action,
			ActorID:   deciderID,
			ToValue:   formatTime(current.RequestedDueAt),
			Comment:   note,
			CreatedAt: now,
		}); err != nil {
			return err
		}

		decided, err = getExtensionTx(ctx, tx, extensionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return decided, nil
}

// GetExtension returns an extension request by id, or nil when missing.
func (s *Store) GetExtension(ctx context.Context, id string) (*models.ExtensionRequest, error) {
	row := s.db.QueryRowContext(ctx, extensionSelect+" WHERE id = ?", id)
	return scanExtension(row)
}

// GetPendingExtensionForTask returns the task's pending request, or nil.
func (s *Store) GetPendingExtensionForTask(ctx context.Context, taskID string) (*models.ExtensionRequest, error) {
	row := s.db.QueryRowContext(ctx, extensionSelect+" WHERE task_id = ? AND state = ?", taskID, string(models.ExtensionPending))
	return scanExtension(row)
}

// ListPendingExtensions returns all pending requests oldest first.
func (s *Store) ListPendingExtensions(ctx context.Context) ([]models.ExtensionRequest, error) {
	rows, err := s.db.QueryContext(ctx, extensionSelect+" WHERE state = ? ORDER BY created_at ASC", string(models.ExtensionPending))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []models.ExtensionRequest
	for rows.Next() {
		req, err := scanExtension(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *req)
	}
	return requests, rows.Err()
}

const extensionSelect = `
	SELECT id, task_id, requester_id, requested_due_at, reason, state, decider_id, decision_note, created_at, decided_at
	FROM extension_requests`

func getExtensionTx(ctx context.Context, tx *sql.Tx, id string) (*models.ExtensionRequest, error) {
	row := tx.QueryRowContext(ctx, extensionSelect+" WHERE id = ?", id)
	return scanExtension(row)
}

func scanExtension(scanner interface {
	Scan(dest ...any) error
}) (*models.ExtensionRequest, error) {
	var req models.ExtensionRequest
	var requestedDueAt, state, createdAt string
	var reason, deciderID, decisionNote, decidedAt sql.NullString

	if err := scanner.Scan(
		&req.ID,
		&req.TaskID,
		&req.RequesterID,
		&requestedDueAt,
		&reason,
		&state,
		&deciderID,
		&decisionNote,
		&createdAt,
		&decidedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	req.Reason = reason.String
	req.State = models.ExtensionState(state)
	req.DeciderID = deciderID.String
	req.DecisionNote = decisionNote.String

	parsedDue, err := parseTime(requestedDueAt)
	if err != nil {
		return nil, err
	}
	req.RequestedDueAt = parsedDue
	parsedCreated, err := parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	req.CreatedAt = parsedCreated
	if decidedAt.Valid {
		parsed, err := parseTime(decidedAt.String)
		if err != nil {
			return nil, err
		}
		req.DecidedAt = &parsed
	}

	return &req, nil
}

func isPendingExtensionConflict(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "idx_extensions_pending") ||
		strings.Contains(err.Error(), "UNIQUE constraint failed: extension_requests")
}
