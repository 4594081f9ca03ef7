package store

import (
	"context"
	"testing"
	"time"

	"opsboard/internal/models"
)

func newNotification(id, recipient string, typ models.NotificationType, taskID string, at time.Time) *models.Notification {
	return &models.Notification{
		ID:           id,
		RecipientID:  recipient,
		Type:         typ,
		TaskID:       taskID,
		Title:        "title",
		Message:      "message",
		ScheduledFor: at,
		CreatedAt:    at,
	}
}

func TestInsertNotificationDeduplicatesPerDay(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	seedUser(t, st, "creator", models.RoleDirector)
	seedUser(t, st, "alice", models.RoleStaff)
	seedTask(t, st, "t1", "alice", models.StatusInProgress, nil)

	day := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)

	created, err := st.InsertNotification(ctx, newNotification("n1", "alice", models.NotifyTaskOverdue, "t1", day))
	if err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if !created {
		t.Fatal("expected first insert to create")
	}

	// Same recipient, type, task and day: skipped.
	created, err = st.InsertNotification(ctx, newNotification("n2", "alice", models.NotifyTaskOverdue, "t1", day.Add(4*time.Hour)))
	if err != nil {
		t.Fatalf("duplicate insert: %v", err)
	}
	if created {
		t.Fatal("expected duplicate to be skipped")
	}

	// Next UTC day: a fresh notification.
	created, err = st.InsertNotification(ctx, newNotification("n3", "alice", models.NotifyTaskOverdue, "t1", day.Add(24*time.Hour)))
	if err != nil {
		t.Fatalf("next day insert: %v", err)
	}
	if !created {
		t.Fatal("expected next-day insert to create")
	}

	notifications, err := st.ListNotifications(ctx, NotificationFilter{RecipientID: "alice"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(notifications) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(notifications))
	}
}

func TestInsertNotificationDifferentTypesSameDay(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	seedUser(t, st, "creator", models.RoleDirector)
	seedUser(t, st, "alice", models.RoleStaff)
	seedTask(t, st, "t1", "alice", models.StatusInProgress, nil)

	now := time.Now().UTC()
	for i, typ := range []models.NotificationType{models.NotifyTaskAssigned, models.NotifyTaskOverdue, models.NotifyExtensionApproved} {
		created, err := st.InsertNotification(ctx, newNotification(string(rune('a'+i)), "alice", typ, "t1", now))
		if err != nil {
			t.Fatalf("insert %s: %v", typ, err)
		}
		if !created {
			t.Fatalf("expected %s to create", typ)
		}
	}
}

func TestMarkNotificationReadScopedToRecipient(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	seedUser(t, st, "creator", models.RoleDirector)
	seedUser(t, st, "alice", models.RoleStaff)
	seedUser(t, st, "bob", models.RoleStaff)
	seedTask(t, st, "t1", "alice", models.StatusInProgress, nil)

	now := time.Now().UTC()
	if _, err := st.InsertNotification(ctx, newNotification("n1", "alice", models.NotifyTaskOverdue, "t1", now)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// Another user cannot mark it read.
	if err := st.MarkNotificationRead(ctx, "n1", "bob"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for wrong recipient, got %v", err)
	}

	if err := st.MarkNotificationRead(ctx, "n1", "alice"); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	unread, err := st.ListNotifications(ctx, NotificationFilter{RecipientID: "alice", UnreadOnly: true})
	if err != nil {
		t.Fatalf("list unread: %v", err)
	}
	if len(unread) != 0 {
		t.Fatalf("expected no unread notifications, got %d", len(unread))
	}
}

func TestDismissHidesButKeepsRow(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	seedUser(t, st, "creator", models.RoleDirector)
	seedUser(t, st, "alice", models.RoleStaff)
	seedTask(t, st, "t1", "alice", models.StatusInProgress, nil)

	now := time.Now().UTC()
	if _, err := st.InsertNotification(ctx, newNotification("n1", "alice", models.NotifyTaskOverdue, "t1", now)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	count, err := st.DismissNotifications(ctx, "alice", []string{"n1"})
	if err != nil {
		t.Fatalf("dismiss: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 dismissed, got %d", count)
	}

	// Hidden from listings.
	notifications, err := st.ListNotifications(ctx, NotificationFilter{RecipientID: "alice"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(notifications) != 0 {
		t.Fatalf("expected dismissed notification hidden, got %d", len(notifications))
	}

	// The row itself survives: the dedupe key still blocks a re-insert.
	created, err := st.InsertNotification(ctx, newNotification("n2", "alice", models.NotifyTaskOverdue, "t1", now))
	if err != nil {
		t.Fatalf("re-insert: %v", err)
	}
	if created {
		t.Fatal("expected dedupe to hold after dismissal")
	}
}

func TestMarkAllNotificationsRead(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	seedUser(t, st, "creator", models.RoleDirector)
	seedUser(t, st, "alice", models.RoleStaff)
	seedTask(t, st, "t1", "alice", models.StatusInProgress, nil)
	seedTask(t, st, "t2", "alice", models.StatusInProgress, nil)

	now := time.Now().UTC()
	for i, taskID := range []string{"t1", "t2"} {
		if _, err := st.InsertNotification(ctx, newNotification(string(rune('a'+i)), "alice", models.NotifyTaskOverdue, taskID, now)); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	count, err := st.MarkAllNotificationsRead(ctx, "alice")
	if err != nil {
		t.Fatalf("mark all: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 marked, got %d", count)
	}
}

func TestListDeliverableHonorsSchedule(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	seedUser(t, st, "creator", models.RoleDirector)
	seedUser(t, st, "alice", models.RoleStaff)
	seedTask(t, st, "t1", "alice", models.StatusInProgress, nil)
	seedTask(t, st, "t2", "alice", models.StatusInProgress, nil)

	now := time.Now().UTC()

	due := newNotification("due", "alice", models.NotifyTaskOverdue, "t1", now.Add(-time.Hour))
	deferred := newNotification("deferred", "alice", models.NotifyTaskOverdue, "t2", now)
	deferred.ScheduledFor = now.Add(time.Hour)

	for _, n := range []*models.Notification{due, deferred} {
		if _, err := st.InsertNotification(ctx, n); err != nil {
			t.Fatalf("insert %s: %v", n.ID, err)
		}
	}

	deliverable, err := st.ListDeliverable(ctx, now, 0)
	if err != nil {
		t.Fatalf("list deliverable: %v", err)
	}
	if len(deliverable) != 1 || deliverable[0].ID != "due" {
		t.Fatalf("expected only 'due' deliverable, got %+v", deliverable)
	}

	if err := st.MarkDelivered(ctx, []string{"due"}); err != nil {
		t.Fatalf("mark delivered: %v", err)
	}
	deliverable, err = st.ListDeliverable(ctx, now, 0)
	if err != nil {
		t.Fatalf("list deliverable after mark: %v", err)
	}
	if len(deliverable) != 0 {
		t.Fatalf("expected nothing deliverable, got %d", len(deliverable))
	}
}

func TestHasOpenNotification(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	seedUser(t, st, "creator", models.RoleDirector)
	seedUser(t, st, "alice", models.RoleStaff)
	seedTask(t, st, "t1", "alice", models.StatusInProgress, nil)

	now := time.Now().UTC()
	if _, err := st.InsertNotification(ctx, newNotification("n1", "alice", models.NotifyTaskOverdue, "t1", now)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	open, err := st.HasOpenNotification(ctx, "alice", models.NotifyTaskOverdue, "t1", now)
	if err != nil {
		t.Fatalf("has open: %v", err)
	}
	if !open {
		t.Fatal("expected open notification")
	}

	if err := st.MarkNotificationRead(ctx, "n1", "alice"); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	open, err = st.HasOpenNotification(ctx, "alice", models.NotifyTaskOverdue, "t1", now)
	if err != nil {
		t.Fatalf("has open after read: %v", err)
	}
	if open {
		t.Fatal("expected no open notification after read")
	}
}
