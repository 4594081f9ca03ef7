package server

import (
	"context"
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

// TaskService centralizes task validation, defaults and the
// notifications that task operations produce. Notification failures are
// logged and never fail the task operation itself.
type TaskService struct {
	store      *store.Store
	dispatcher *notify.Dispatcher
	logger     *slog.Logger
}

// NewTaskService constructs a TaskService.
func NewTaskService(st *store.Store, dispatcher *notify.Dispatcher) *TaskService {
	return &TaskService{store: st, dispatcher: dispatcher, logger: slog.Default()}
}

// Create creates a task from a request. An assignee makes the task start
// out assigned and notifies that user; without one it starts as a draft.
func (s *TaskService) Create(ctx context.Context, principal authPrincipal, req api.TaskCreateRequest) (api.TaskResponse, error) {
	var resp api.TaskResponse

	task, err := s.buildTask(ctx, principal, req, time.Now().UTC())
	if err != nil {
		return resp, err
	}

	if err := s.store.CreateTask(ctx, task); err != nil {
		return resp, storeFailure(err)
	}

	if task.AssigneeID != "" {
		title, message := notify.AssignmentMessage(task)
		s.sendNotification(ctx, notify.NewNotification(
			task.AssigneeID, models.NotifyTaskAssigned, task.ID, title, message, task.CreatedAt,
		))
	}

	resp = api.TaskResponse{Task: *task}
	return resp, nil
}

// BatchCreate creates up to maxBatchCreate tasks. Entries fail
// independently; each assignee receives a single summary notification
// covering every task created for them in the batch.
func (s *TaskService) BatchCreate(ctx context.Context, principal authPrincipal, reqs []api.TaskCreateRequest) (api.BatchCreateResponse, error) {
	var resp api.BatchCreateResponse

	if len(reqs) == 0 {
		return resp, badRequestCode(fmt.Errorf("at least one task is required"), ErrCodeMissingRequired)
	}
	if len(reqs) > maxBatchCreate {
		return resp, badRequestCode(fmt.Errorf("batch exceeds %d tasks", maxBatchCreate), ErrCodeBatchTooLarge)
	}

	now := time.Now().UTC()
	perAssignee := map[string]int{}

	for i, req := range reqs {
		result := api.BatchCreateResult{Index: i}

		task, err := s.buildTask(ctx, principal, req, now)
		if err == nil {
			err = s.store.CreateTask(ctx, task)
			if err != nil {
				err = storeFailure(err)
			}
		}
		if err != nil {
			result.Error = err.Error()
			resp.Failed++
		} else {
			result.Task = task
			resp.Created++
			if task.AssigneeID != "" {
				perAssignee[task.AssigneeID]++
			}
		}
		resp.Results = append(resp.Results, result)
	}

	for assigneeID, count := range perAssignee {
		title, message := notify.BulkAssignmentMessage(count)
		s.sendNotification(ctx, notify.NewNotification(
			assigneeID, models.NotifyTasksAssignedBulk, "", title, message, now,
		))
	}

	return resp, nil
}

// Get returns one task.
func (s *TaskService) Get(ctx context.Context, id string) (api.TaskResponse, error) {
	var resp api.TaskResponse
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return resp, storeFailure(err)
	}
	if task == nil {
		return resp, notFound(fmt.Errorf("task not found"))
	}
	resp = api.TaskResponse{Task: *task}
	return resp, nil
}

// List returns tasks matching the filter.
func (s *TaskService) List(ctx context.Context, filter store.TaskFilter) ([]models.Task, error) {
	tasks, err := s.store.ListTasks(ctx, filter)
	if err != nil {
		return nil, storeFailure(err)
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return tasks, nil
}

// Stats returns aggregate counts for the filtered task set.
func (s *TaskService) Stats(ctx context.Context, filter store.TaskFilter) (*store.TaskStats, error) {
	stats, err := s.store.TaskStats(ctx, filter, time.Now().UTC())
	if err != nil {
		return nil, storeFailure(err)
	}
	return stats, nil
}

// ChangeStatus moves a task along one allowed state machine edge and
// records the move on the timeline.
func (s *TaskService) ChangeStatus(ctx context.Context, principal authPrincipal, taskID string, req api.StatusChangeRequest) (api.TaskResponse, error) {
	var resp api.TaskResponse

	status, err := models.ParseTaskStatus(req.Status)
	if err != nil {
		return resp, badRequestCode(err, ErrCodeInvalidStatus)
	}

	task, err := s.store.TransitionStatus(ctx, taskID, status, principal.UserID, strings.TrimSpace(req.Note), time.Now().UTC())
	if err != nil {
		return resp, classifyStoreError(err)
	}

	resp = api.TaskResponse{Task: *task}
	return resp, nil
}

// Update changes task details. Reassignment notifies the new assignee.
func (s *TaskService) Update(ctx context.Context, principal authPrincipal, taskID string, req api.TaskUpdateRequest) (api.TaskResponse, error) {
	var resp api.TaskResponse

	update := store.TaskUpdate{ClearDue: req.ClearDue}

	if req.AssigneeID != nil {
		assigneeID := strings.TrimSpace(*req.AssigneeID)
		if assigneeID != "" {
			if err := s.checkAssignee(ctx, assigneeID); err != nil {
				return resp, err
			}
		}
		update.AssigneeID = &assigneeID
	}
	if req.Priority != nil {
		priority, err := models.ParsePriority(*req.Priority)
		if err != nil {
			return resp, badRequestCode(err, ErrCodeInvalidPriority)
		}
		update.Priority = &priority
	}
	if req.DueAt != nil {
		if req.ClearDue {
			return resp, badRequest(fmt.Errorf("due_at and clear_due are mutually exclusive"))
		}
		due, err := parseFlexibleTime(*req.DueAt)
		if err != nil {
			return resp, err
		}
		due = due.UTC()
		update.DueAt = &due
	}

	now := time.Now().UTC()
	before, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return resp, storeFailure(err)
	}
	if before == nil {
		return resp, notFound(fmt.Errorf("task not found"))
	}

	task, err := s.store.UpdateTaskDetails(ctx, taskID, update, principal.UserID, now)
	if err != nil {
		return resp, classifyStoreError(err)
	}

	if task.AssigneeID != "" && task.AssigneeID != before.AssigneeID {
		title, message := notify.AssignmentMessage(task)
		s.sendNotification(ctx, notify.NewNotification(
			task.AssigneeID, models.NotifyTaskAssigned, task.ID, title, message, now,
		))
	}

	resp = api.TaskResponse{Task: *task}
	return resp, nil
}

// Comment appends a comment record to the task timeline.
func (s *TaskService) Comment(ctx context.Context, principal authPrincipal, taskID, comment string) error {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return badRequestCode(fmt.Errorf("comment is required"), ErrCodeMissingRequired)
	}

	err := s.store.AppendActivity(ctx, models.ActivityRecord{
		ID:        uuid.NewString(),
		TaskID:    taskID,
		Action:    models.ActionCommented,
		ActorID:   principal.UserID,
		Comment:   comment,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return classifyStoreError(err)
	}
	return nil
}

// Timeline returns the full activity history of a task in chronological
// order.
func (s *TaskService) Timeline(ctx context.Context, taskID string) (api.TimelineResponse, error) {
	var resp api.TimelineResponse

	exists, err := s.store.TaskExists(ctx, taskID)
	if err != nil {
		return resp, storeFailure(err)
	}
	if !exists {
		return resp, notFound(fmt.Errorf("task not found"))
	}

	timeline, err := s.store.ListActivity(ctx, taskID)
	if err != nil {
		return resp, storeFailure(err)
	}
	if timeline == nil {
		timeline = []models.ActivityRecord{}
	}

	resp = api.TimelineResponse{TaskID: taskID, Timeline: timeline}
	return resp, nil
}

func (s *TaskService) buildTask(ctx context.Context, principal authPrincipal, req api.TaskCreateRequest, now time.Time) (*models.Task, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, badRequestCode(fmt.Errorf("title is required"), ErrCodeMissingRequired)
	}

	priority := models.DefaultPriority
	if req.Priority != nil {
		parsed, err := models.ParsePriority(*req.Priority)
		if err != nil {
			return nil, badRequestCode(err, ErrCodeInvalidPriority)
		}
		priority = parsed
	}

	var dueAt *time.Time
	if req.DueAt != nil && strings.TrimSpace(*req.DueAt) != "" {
		due, err := parseFlexibleTime(*req.DueAt)
		if err != nil {
			return nil, err
		}
		due = due.UTC()
		dueAt = &due
	}

	assigneeID := valueOrEmpty(req.AssigneeID)
	status := models.StatusDraft
	if assigneeID != "" {
		if err := s.checkAssignee(ctx, assigneeID); err != nil {
			return nil, err
		}
		status = models.StatusAssigned
	}

	agency := valueOrEmpty(req.Agency)
	if agency == "" {
		agency = principal.Agency
	}

	return &models.Task{
		ID:          uuid.NewString(),
		Title:       title,
		Description: valueOrEmpty(req.Description),
		AssigneeID:  assigneeID,
		CreatorID:   principal.UserID,
		Agency:      agency,
		Priority:    priority,
		Status:      status,
		DueAt:       dueAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (s *TaskService) checkAssignee(ctx context.Context, assigneeID string) error {
	user, err := s.store.GetUser(ctx, assigneeID)
	if err != nil {
		return storeFailure(err)
	}
	if user == nil || !user.Active {
		return badRequestCode(fmt.Errorf("assignee %s does not exist or is inactive", assigneeID), ErrCodeInvalidAssignee)
	}
	return nil
}

func (s *TaskService) sendNotification(ctx context.Context, n models.Notification) {
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
