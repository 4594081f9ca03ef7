package notify

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"opsboard/internal/models"
	"opsboard/internal/store"
)

func testStore(t *testing.T) *store.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	st, err := store.Open(path)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func seedUser(t *testing.T, st *store.Store, id string, role models.UserRole, email string) *models.User {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Millisecond)
	user := &models.User{
		ID:           id,
		Username:     id,
		Email:        email,
		Role:         role,
		Active:       true,
		PasswordHash: "x",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := st.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
	return user
}

func seedTask(t *testing.T, st *store.Store, id, assigneeID string, status models.TaskStatus, dueAt *time.Time) *models.Task {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Millisecond)
	task := &models.Task{
		ID:         id,
		Title:      "Task " + id,
		AssigneeID: assigneeID,
		CreatorID:  "director",
		Priority:   models.PriorityMedium,
		Status:     status,
		DueAt:      dueAt,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := st.CreateTask(context.Background(), task); err != nil {
		t.Fatalf("seed task %s: %v", id, err)
	}
	return task
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func testLogger() *slog.Logger {
	return slog.Default()
}

type sentEmail struct {
	to    string
	email Email
}

type fakeEmailSender struct {
	sent []sentEmail
	err  error
}

func (f *fakeEmailSender) Send(ctx context.Context, to string, email Email) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentEmail{to: to, email: email})
	return nil
}

type fakePushSender struct {
	batches [][]models.Notification
	err     error
}

func (f *fakePushSender) SendBatch(ctx context.Context, notifications []models.Notification) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.batches = append(f.batches, notifications)
	return len(notifications), nil
}
