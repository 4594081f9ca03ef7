package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"opsboard/internal/models"
	"opsboard/internal/store"
)

// Generator evaluates notification rules against current task state. It
// is invoked by an external trigger, typically a scheduler hitting the
// sweep endpoint or the sweep command.
type Generator struct {
	store  *store.Store
	logger *slog.Logger
}

// SweepResult summarizes one sweep run. A failure on one rule or one
// task is recorded and the sweep continues.
type SweepResult struct {
	Created  int      `json:"created"`
	Skipped  int      `json:"skipped"`
	Errors   int      `json:"errors"`
	Messages []string `json:"messages,omitempty"`
}

func NewGenerator(st *store.Store, logger *slog.Logger) *Generator {
	return &Generator{store: st, logger: logger}
}

// NewNotification builds an undelivered notification record scheduled
// for immediate delivery.
func NewNotification(recipientID string, typ models.NotificationType, taskID, title, message string, now time.Time) models.Notification {
	return models.Notification{
		ID:           uuid.NewString(),
		RecipientID:  recipientID,
		Type:         typ,
		TaskID:       taskID,
		Title:        title,
		Message:      message,
		ScheduledFor: now,
		CreatedAt:    now,
	}
}

// Sweep runs every notification rule once. Each rule de-duplicates per
// recipient, type, task and UTC day, so repeated sweeps within a day
// create nothing new.
func (g *Generator) Sweep(ctx context.Context, now time.Time) (*SweepResult, error) {
	result := &SweepResult{}
	g.sweepOverdue(ctx, now, result)
	g.sweepPendingExtensions(ctx, now, result)

	g.logger.Info("notification sweep finished",
		"created", result.Created, "skipped", result.Skipped, "errors", result.Errors)
	return result, nil
}

func (g *Generator) sweepOverdue(ctx context.Context, now time.Time, result *SweepResult) {
	tasks, err := g.store.ListTasks(ctx, store.TaskFilter{OverdueAt: &now})
	if err != nil {
		result.fail(fmt.Sprintf("list overdue tasks: %v", err))
		return
	}

	for _, task := range tasks {
		if task.AssigneeID == "" {
			continue
		}
		title, message := OverdueMessage(&task)
		n := NewNotification(task.AssigneeID, models.NotifyTaskOverdue, task.ID, title, message, now)
		created, err := g.store.InsertNotification(ctx, &n)
		if err != nil {
			result.fail(fmt.Sprintf("overdue notification for task %s: %v", task.ID, err))
			continue
		}
		if created {
			result.Created++
		} else {
			result.Skipped++
		}
	}
}

func (g *Generator) sweepPendingExtensions(ctx context.Context, now time.Time, result *SweepResult) {
	pending, err := g.store.ListPendingExtensions(ctx)
	if err != nil {
		result.fail(fmt.Sprintf("list pending extensions: %v", err))
		return
	}
	if len(pending) == 0 {
		return
	}

	deciders, err := g.store.ListDeciders(ctx)
	if err != nil {
		result.fail(fmt.Sprintf("list deciders: %v", err))
		return
	}

	for _, req := range pending {
		task, err := g.store.GetTask(ctx, req.TaskID)
		if err != nil {
			result.fail(fmt.Sprintf("load task %s: %v", req.TaskID, err))
			continue
		}
		if task == nil {
			continue
		}
		title, message := ExtensionRequestedMessage(task)
		for _, decider := range deciders {
			n := NewNotification(decider.ID, models.NotifyExtensionRequested, task.ID, title, message, now)
			created, err := g.store.InsertNotification(ctx, &n)
			if err != nil {
				result.fail(fmt.Sprintf("extension notification for task %s to %s: %v", task.ID, decider.ID, err))
				continue
			}
			if created {
				result.Created++
			} else {
				result.Skipped++
			}
		}
	}
}

func (r *SweepResult) fail(msg string) {
	r.Errors++
	r.Messages = append(r.Messages, msg)
}
