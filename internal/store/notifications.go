package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"opsboard/internal/models"
)

// NotificationFilter narrows ListNotifications results.
type NotificationFilter struct {
	RecipientID string
	UnreadOnly  bool
	Limit       int
}

// InsertNotification writes one notification record. Returns false when
// the de-duplication key (recipient, type, task, UTC day) already exists;
// the caller treats that as "already notified, skip".
func (s *Store) InsertNotification(ctx context.Context, n *models.Notification) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (
			id, recipient_id, type, task_id, title, message, read, dismissed, delivered, scheduled_for, day_key, created_at
		) VALUES (?, ?, ?, ?, ?, ?, 0, 0, 0, ?, ?, ?)
		ON CONFLICT(recipient_id, type, task_id, day_key) DO NOTHING
	`,
		n.ID,
		n.RecipientID,
		string(n.Type),
		n.TaskID,
		n.Title,
		n.Message,
		formatTime(n.ScheduledFor),
		models.DayKey(n.CreatedAt),
		formatTime(n.CreatedAt),
	)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// ListNotifications returns undismissed notifications for a recipient,
// newest first.
func (s *Store) ListNotifications(ctx context.Context, filter NotificationFilter) ([]models.Notification, error) {
	where := []string{"recipient_id = ?", "dismissed = 0"}
	args := []any{filter.RecipientID}
	if filter.UnreadOnly {
		where = append(where, "read = 0")
	}

	query := notificationSelect + " WHERE " + strings.Join(where, " AND ") + " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNotifications(rows)
}

// GetNotification returns a notification by id, or nil when missing.
func (s *Store) GetNotification(ctx context.Context, id string) (*models.Notification, error) {
	row := s.db.QueryRowContext(ctx, notificationSelect+" WHERE id = ?", id)
	return scanNotification(row)
}

// MarkNotificationRead flips the read flag for one notification owned by
// the recipient.
func (s *Store) MarkNotificationRead(ctx context.Context, id, recipientID string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET read = 1 WHERE id = ? AND recipient_id = ?",
		id, recipientID,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllNotificationsRead flips the read flag on every undismissed
// notification for the recipient.
func (s *Store) MarkAllNotificationsRead(ctx context.Context, recipientID string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET read = 1 WHERE recipient_id = ? AND read = 0 AND dismissed = 0",
		recipientID,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DismissNotifications sets the dismissed flag on the recipient's
// notifications. Rows are flagged, never deleted.
func (s *Store) DismissNotifications(ctx context.Context, recipientID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := []any{recipientID}
	for _, id := range ids {
		args = append(args, id)
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET dismissed = 1 WHERE recipient_id = ? AND id IN ("+placeholders(len(ids))+")",
		args...,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListDeliverable returns undelivered, undismissed notifications whose
// scheduled_for is at or before now. Deferred notifications stay queued
// until their time arrives.
func (s *Store) ListDeliverable(ctx context.Context, now time.Time, limit int) ([]models.Notification, error) {
	query := notificationSelect + " WHERE delivered = 0 AND dismissed = 0 AND scheduled_for <= ? ORDER BY created_at ASC"
	args := []any{formatTime(now)}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNotifications(rows)
}

// MarkDelivered sets the delivered flag after a successful channel send.
func (s *Store) MarkDelivered(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	_, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET delivered = 1 WHERE id IN ("+placeholders(len(ids))+")",
		args...,
	)
	return err
}

// HasOpenNotification reports whether an unread, undismissed notification
// of the given type exists for the recipient and task on the given day.
func (s *Store) HasOpenNotification(ctx context.Context, recipientID string, typ models.NotificationType, taskID string, day time.Time) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM notifications
		WHERE recipient_id = ? AND type = ? AND task_id = ? AND day_key = ? AND read = 0 AND dismissed = 0
		LIMIT 1
	`, recipientID, string(typ), taskID, models.DayKey(day)).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

const notificationSelect = `
	SELECT id, recipient_id, type, task_id, title, message, read, dismissed, delivered, scheduled_for, created_at
	FROM notifications`

func scanNotification(scanner interface {
	Scan(dest ...any) error
}) (*models.Notification, error) {
	var n models.Notification
	var typ, scheduledFor, createdAt string
	var read, dismissed, delivered int

	if err := scanner.Scan(
		&n.ID,
		&n.RecipientID,
		&typ,
		&n.TaskID,
		&n.Title,
		&n.Message,
		&read,
		&dismissed,
		&delivered,
		&scheduledFor,
		&createdAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	n.Type = models.NotificationType(typ)
	n.Read = read != 0
	n.Dismissed = dismissed != 0
	n.Delivered = delivered != 0

	parsedScheduled, err := parseTime(scheduledFor)
	if err != nil {
		return nil, err
	}
	parsedCreated, err := parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	n.ScheduledFor = parsedScheduled
	n.CreatedAt = parsedCreated

	return &n, nil
}

func scanNotifications(rows *sql.Rows) ([]models.Notification, error) {
	var notifications []models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, *n)
	}
	return notifications, rows.Err()
}
