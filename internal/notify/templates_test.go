package notify

import (
	"strings"
	"testing"
	"time"

	"opsboard/internal/models"
)

func TestRenderIncludesTaskContext(t *testing.T) {
	due := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	task := &models.Task{
		ID:       "t1",
		Title:    "File quarterly report",
		Priority: models.PriorityHigh,
		DueAt:    &due,
	}

	title, message := OverdueMessage(task)
	n := models.Notification{Type: models.NotifyTaskOverdue, TaskID: task.ID, Title: title, Message: message}

	email, err := Render(n, task, nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if email.Subject != title {
		t.Fatalf("expected subject %q, got %q", title, email.Subject)
	}
	for _, want := range []string{"File quarterly report", "2026-09-15", "high"} {
		if !strings.Contains(email.HTMLBody, want) {
			t.Fatalf("expected body to contain %q", want)
		}
	}
}

func TestRenderEscapesHTML(t *testing.T) {
	task := &models.Task{ID: "t1", Title: `<script>alert("x")</script>`}
	title, message := AssignmentMessage(task)
	n := models.Notification{Type: models.NotifyTaskAssigned, TaskID: task.ID, Title: title, Message: message}

	email, err := Render(n, task, nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(email.HTMLBody, "<script>") {
		t.Fatal("expected script tag to be escaped")
	}
}

func TestRenderExtensionRequestIncludesReason(t *testing.T) {
	task := &models.Task{ID: "t1", Title: "Install signage"}
	req := &models.ExtensionRequest{
		TaskID:         "t1",
		RequestedDueAt: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		Reason:         "awaiting vendor delivery",
	}
	title, message := ExtensionRequestedMessage(task)
	n := models.Notification{Type: models.NotifyExtensionRequested, TaskID: "t1", Title: title, Message: message}

	email, err := Render(n, task, req)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{"2026-10-01", "awaiting vendor delivery"} {
		if !strings.Contains(email.HTMLBody, want) {
			t.Fatalf("expected body to contain %q", want)
		}
	}
}

func TestDecisionMessageVerdicts(t *testing.T) {
	task := &models.Task{ID: "t1", Title: "Install signage"}

	title, message := ExtensionDecisionMessage(task, true, "")
	if !strings.Contains(title, "approved") || !strings.Contains(message, "approved") {
		t.Fatalf("expected approved verdict, got %q / %q", title, message)
	}

	title, message = ExtensionDecisionMessage(task, false, "missed the window")
	if !strings.Contains(title, "rejected") {
		t.Fatalf("expected rejected verdict, got %q", title)
	}
	if !strings.Contains(message, "missed the window") {
		t.Fatalf("expected note in message, got %q", message)
	}
}
