package notify

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"opsboard/internal/models"
	"opsboard/internal/store"
)

func TestSweepOverdueNotifiesAssigneeOncePerDay(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	seedUser(t, st, "director", models.RoleDirector, "director@example.gov")
	seedUser(t, st, "alice", models.RoleStaff, "alice@example.gov")

	now := time.Now().UTC()
	seedTask(t, st, "late", "alice", models.StatusInProgress, timePtr(now.Add(-48*time.Hour)))
	seedTask(t, st, "ontime", "alice", models.StatusInProgress, timePtr(now.Add(48*time.Hour)))

	g := NewGenerator(st, testLogger())

	result, err := g.Sweep(ctx, now)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if result.Created != 1 || result.Errors != 0 {
		t.Fatalf("expected 1 created, got %+v", result)
	}

	// Second run the same day creates nothing.
	result, err = g.Sweep(ctx, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if result.Created != 0 || result.Skipped != 1 {
		t.Fatalf("expected skip on re-run, got %+v", result)
	}

	notifications, err := st.ListNotifications(ctx, store.NotificationFilter{RecipientID: "alice"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(notifications) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifications))
	}
	if notifications[0].Type != models.NotifyTaskOverdue {
		t.Fatalf("expected task_overdue, got %q", notifications[0].Type)
	}

	// The next UTC day produces a fresh reminder.
	result, err = g.Sweep(ctx, now.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("next-day sweep: %v", err)
	}
	if result.Created != 1 {
		t.Fatalf("expected fresh notification next day, got %+v", result)
	}
}

func TestSweepSkipsUnassignedAndTerminalTasks(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	seedUser(t, st, "director", models.RoleDirector, "")
	seedUser(t, st, "alice", models.RoleStaff, "")

	now := time.Now().UTC()
	past := now.Add(-48 * time.Hour)
	seedTask(t, st, "unassigned", "", models.StatusDraft, timePtr(past))

	done := seedTask(t, st, "done", "alice", models.StatusSubmitted, timePtr(past))
	if _, err := st.TransitionStatus(ctx, done.ID, models.StatusVerified, "director", "", now); err != nil {
		t.Fatalf("verify: %v", err)
	}

	result, err := NewGenerator(st, testLogger()).Sweep(ctx, now)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if result.Created != 0 {
		t.Fatalf("expected no notifications, got %+v", result)
	}
}

func TestSweepPendingExtensionNotifiesEachDecider(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	seedUser(t, st, "director", models.RoleDirector, "d@example.gov")
	seedUser(t, st, "admin", models.RoleAdmin, "a@example.gov")
	seedUser(t, st, "alice", models.RoleStaff, "alice@example.gov")
	seedTask(t, st, "t1", "alice", models.StatusInProgress, nil)

	now := time.Now().UTC()
	err := st.CreateExtension(ctx, &models.ExtensionRequest{
		ID:             uuid.NewString(),
		TaskID:         "t1",
		RequesterID:    "alice",
		RequestedDueAt: now.Add(7 * 24 * time.Hour),
		State:          models.ExtensionPending,
		CreatedAt:      now,
	})
	if err != nil {
		t.Fatalf("create extension: %v", err)
	}

	result, err := NewGenerator(st, testLogger()).Sweep(ctx, now)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if result.Created != 2 {
		t.Fatalf("expected one notification per decider, got %+v", result)
	}

	for _, decider := range []string{"director", "admin"} {
		notifications, err := st.ListNotifications(ctx, store.NotificationFilter{RecipientID: decider})
		if err != nil {
			t.Fatalf("list for %s: %v", decider, err)
		}
		if len(notifications) != 1 || notifications[0].Type != models.NotifyExtensionRequested {
			t.Fatalf("expected extension_requested for %s, got %+v", decider, notifications)
		}
	}

	// Staff are not deciders.
	notifications, err := st.ListNotifications(ctx, store.NotificationFilter{RecipientID: "alice"})
	if err != nil {
		t.Fatalf("list for alice: %v", err)
	}
	if len(notifications) != 0 {
		t.Fatalf("expected no decider notification for staff, got %d", len(notifications))
	}
}
