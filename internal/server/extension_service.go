package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"opsboard/internal/api"
	"opsboard/internal/models"
	"opsboard/internal/notify"
	"opsboard/internal/store"
)

// ExtensionService handles the deadline extension request and decision
// workflow.
type ExtensionService struct {
	store      *store.Store
	dispatcher *notify.Dispatcher
	logger     *slog.Logger
}

// NewExtensionService constructs an ExtensionService.
func NewExtensionService(st *store.Store, dispatcher *notify.Dispatcher) *ExtensionService {
	return &ExtensionService{store: st, dispatcher: dispatcher, logger: slog.Default()}
}

// Request files a pending extension request for a task. A task can hold
// at most one pending request at a time; the requested date must be in
// the future and later than the current due date.
func (s *ExtensionService) Request(ctx context.Context, principal authPrincipal, taskID string, req api.ExtensionCreateRequest) (api.ExtensionResponse, error) {
	var resp api.ExtensionResponse

	if strings.TrimSpace(req.RequestedDueAt) == "" {
		return resp, badRequestCode(fmt.Errorf("requested_due_at is required"), ErrCodeMissingRequired)
	}
	requestedDue, err := parseFlexibleTime(req.RequestedDueAt)
	if err != nil {
		return resp, err
	}
	requestedDue = requestedDue.UTC()

	now := time.Now().UTC()
	if !requestedDue.After(now) {
		return resp, badRequestCode(fmt.Errorf("requested_due_at must be in the future"), ErrCodeInvalidTime)
	}

	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return resp, storeFailure(err)
	}
	if task == nil {
		return resp, notFound(fmt.Errorf("task not found"))
	}
	if models.IsTerminalStatus(task.Status) {
		return resp, conflictCode(fmt.Errorf("task %s is %s", taskID, task.Status), ErrCodeInvalidTransition)
	}
	if task.DueAt != nil && !requestedDue.After(*task.DueAt) {
		return resp, badRequestCode(fmt.Errorf("requested_due_at must be later than the current due date"), ErrCodeInvalidTime)
	}

	extension := &models.ExtensionRequest{
		ID:             uuid.NewString(),
		TaskID:         taskID,
		RequesterID:    principal.UserID,
		RequestedDueAt: requestedDue,
		Reason:         strings.TrimSpace(req.Reason),
		State:          models.ExtensionPending,
		CreatedAt:      now,
	}

	if err := s.store.CreateExtension(ctx, extension); err != nil {
		return resp, classifyStoreError(err)
	}

	s.notifyDeciders(ctx, task, now)

	resp = api.ExtensionResponse{Extension: *extension, Task: task}
	return resp, nil
}

// Decide approves or rejects a pending extension request. Approval moves
// the task's due date to the requested date; either way the requester is
// notified of the outcome.
func (s *ExtensionService) Decide(ctx context.Context, principal authPrincipal, extensionID string, req api.ExtensionDecisionRequest) (api.ExtensionResponse, error) {
	var resp api.ExtensionResponse

	now := time.Now().UTC()
	extension, err := s.store.DecideExtension(ctx, extensionID, principal.UserID, req.Approve, strings.TrimSpace(req.Note), now)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return resp, notFoundCode(fmt.Errorf("extension request not found"), ErrCodeExtensionNotFound)
		}
		return resp, classifyStoreError(err)
	}

	task, err := s.store.GetTask(ctx, extension.TaskID)
	if err != nil {
		return resp, storeFailure(err)
	}

	if task != nil {
		typ := models.NotifyExtensionRejected
		if req.Approve {
			typ = models.NotifyExtensionApproved
		}
		title, message := notify.ExtensionDecisionMessage(task, req.Approve, extension.DecisionNote)
		s.sendNotification(ctx, notify.NewNotification(
			extension.RequesterID, typ, task.ID, title, message, now,
		))
	}

	resp = api.ExtensionResponse{Extension: *extension, Task: task}
	return resp, nil
}

// Get returns one extension request.
func (s *ExtensionService) Get(ctx context.Context, id string) (api.ExtensionResponse, error) {
	var resp api.ExtensionResponse

	extension, err := s.store.GetExtension(ctx, id)
	if err != nil {
		return resp, storeFailure(err)
	}
	if extension == nil {
		return resp, notFoundCode(fmt.Errorf("extension request not found"), ErrCodeExtensionNotFound)
	}

	resp = api.ExtensionResponse{Extension: *extension}
	return resp, nil
}

func (s *ExtensionService) notifyDeciders(ctx context.Context, task *models.Task, now time.Time) {
	deciders, err := s.store.ListDeciders(ctx)
	if err != nil {
		s.logger.Warn("list deciders failed", "task_id", task.ID, "error", err)
		return
	}
	title, message := notify.ExtensionRequestedMessage(task)
	for _, decider := range deciders {
		s.sendNotification(ctx, notify.NewNotification(
			decider.ID, models.NotifyExtensionRequested, task.ID, title, message, now,
		))
	}
}

func (s *ExtensionService) sendNotification(ctx context.Context, n models.Notification) {
	created, err := s.store.InsertNotification(ctx, &n)
	if err != nil {
		s.logger.Warn("create notification failed",
			"recipient_id", n.RecipientID, "type", string(n.Type), "error", err)
		return
	}
	if created && s.dispatcher != nil {
		s.dispatcher.Enqueue(n)
	}
}
