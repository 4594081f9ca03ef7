package server

import (
	"context"
	"net/http"
	"testing"
	"time"

	"opsboard/internal/api"
	"opsboard/internal/models"
	"opsboard/internal/store"
)

func createTask(t *testing.T, s *Server, token string, req api.TaskCreateRequest) models.Task {
	t.Helper()
	w := doRequest(t, s, http.MethodPost, "/v1/tasks", token, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	var resp api.TaskResponse
	decodeBody(t, w, &resp)
	return resp.Task
}

func strPtr(s string) *string {
	return &s
}

func notificationsFor(t *testing.T, s *Server, recipientID string) []models.Notification {
	t.Helper()
	notifications, err := s.store.ListNotifications(context.Background(), store.NotificationFilter{RecipientID: recipientID})
	if err != nil {
		t.Fatalf("list notifications for %s: %v", recipientID, err)
	}
	return notifications
}

func TestCreateTaskDefaultsToDraft(t *testing.T) {
	s := newTestServer(t)
	director := seedUser(t, s, "director", models.RoleDirector)
	token := tokenFor(t, director)

	task := createTask(t, s, token, api.TaskCreateRequest{Title: "Inspect bridge"})
	if task.Status != models.StatusDraft {
		t.Fatalf("expected draft, got %q", task.Status)
	}
	if task.Priority != models.PriorityMedium {
		t.Fatalf("expected medium priority, got %q", task.Priority)
	}
	if task.CreatorID != "director" {
		t.Fatalf("expected creator director, got %q", task.CreatorID)
	}
	// Agency falls back to the caller's.
	if task.Agency != director.Agency {
		t.Fatalf("expected agency %q, got %q", director.Agency, task.Agency)
	}
}

func TestCreateTaskWithAssigneeNotifies(t *testing.T) {
	s := newTestServer(t)
	director := seedUser(t, s, "director", models.RoleDirector)
	seedUser(t, s, "alice", models.RoleStaff)
	token := tokenFor(t, director)

	task := createTask(t, s, token, api.TaskCreateRequest{
		Title:      "Inspect bridge",
		AssigneeID: strPtr("alice"),
		DueAt:      strPtr("2027-03-01"),
	})
	if task.Status != models.StatusAssigned {
		t.Fatalf("expected assigned, got %q", task.Status)
	}

	notifications := notificationsFor(t, s, "alice")
	if len(notifications) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifications))
	}
	if notifications[0].Type != models.NotifyTaskAssigned {
		t.Fatalf("expected task_assigned, got %q", notifications[0].Type)
	}
	if notifications[0].TaskID != task.ID {
		t.Fatalf("expected notification for task %s, got %s", task.ID, notifications[0].TaskID)
	}
}

func TestCreateTaskValidation(t *testing.T) {
	s := newTestServer(t)
	director := seedUser(t, s, "director", models.RoleDirector)
	inactive := seedUser(t, s, "bob", models.RoleStaff)
	if err := s.store.SetUserActive(context.Background(), inactive.ID, false, time.Now().UTC()); err != nil {
		t.Fatalf("deactivate bob: %v", err)
	}
	token := tokenFor(t, director)

	tests := []struct {
		name     string
		req      api.TaskCreateRequest
		wantCode int
	}{
		{"missing title", api.TaskCreateRequest{}, ErrCodeMissingRequired},
		{"bad priority", api.TaskCreateRequest{Title: "t", Priority: strPtr("urgent-ish")}, ErrCodeInvalidPriority},
		{"bad due date", api.TaskCreateRequest{Title: "t", DueAt: strPtr("next tuesday")}, ErrCodeInvalidTime},
		{"unknown assignee", api.TaskCreateRequest{Title: "t", AssigneeID: strPtr("ghost")}, ErrCodeInvalidAssignee},
		{"inactive assignee", api.TaskCreateRequest{Title: "t", AssigneeID: strPtr("bob")}, ErrCodeInvalidAssignee},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, s, http.MethodPost, "/v1/tasks", token, tt.req)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d (%s)", w.Code, w.Body.String())
			}
			var errResp api.ErrorResponse
			decodeBody(t, w, &errResp)
			if errResp.ErrorCode != tt.wantCode {
				t.Fatalf("expected error code %d, got %d", tt.wantCode, errResp.ErrorCode)
			}
		})
	}
}

func TestBatchCreateOneSummaryPerAssignee(t *testing.T) {
	s := newTestServer(t)
	director := seedUser(t, s, "director", models.RoleDirector)
	seedUser(t, s, "alice", models.RoleStaff)
	seedUser(t, s, "bob", models.RoleStaff)
	token := tokenFor(t, director)

	reqs := []api.TaskCreateRequest{
		{Title: "a1", AssigneeID: strPtr("alice")},
		{Title: "a2", AssigneeID: strPtr("alice")},
		{Title: "a3", AssigneeID: strPtr("alice")},
		{Title: "b1", AssigneeID: strPtr("bob")},
		{Title: "b2", AssigneeID: strPtr("bob")},
	}
	w := doRequest(t, s, http.MethodPost, "/v1/tasks/batch", token, reqs)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	var resp api.BatchCreateResponse
	decodeBody(t, w, &resp)
	if resp.Created != 5 || resp.Failed != 0 {
		t.Fatalf("expected 5 created, got %+v", resp)
	}

	for _, assignee := range []string{"alice", "bob"} {
		notifications := notificationsFor(t, s, assignee)
		if len(notifications) != 1 {
			t.Fatalf("expected one summary for %s, got %d", assignee, len(notifications))
		}
		if notifications[0].Type != models.NotifyTasksAssignedBulk {
			t.Fatalf("expected tasks_assigned_bulk, got %q", notifications[0].Type)
		}
		if notifications[0].TaskID != "" {
			t.Fatalf("expected summary without task id, got %q", notifications[0].TaskID)
		}
	}
}

func TestBatchCreateEntriesFailIndependently(t *testing.T) {
	s := newTestServer(t)
	director := seedUser(t, s, "director", models.RoleDirector)
	token := tokenFor(t, director)

	reqs := []api.TaskCreateRequest{
		{Title: "ok"},
		{Title: ""},
		{Title: "also ok"},
	}
	w := doRequest(t, s, http.MethodPost, "/v1/tasks/batch", token, reqs)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	var resp api.BatchCreateResponse
	decodeBody(t, w, &resp)
	if resp.Created != 2 || resp.Failed != 1 {
		t.Fatalf("expected 2 created 1 failed, got %+v", resp)
	}
	if resp.Results[1].Error == "" || resp.Results[1].Task != nil {
		t.Fatalf("expected failure detail at index 1, got %+v", resp.Results[1])
	}
}

func TestBatchCreateSizeLimit(t *testing.T) {
	s := newTestServer(t)
	director := seedUser(t, s, "director", models.RoleDirector)
	token := tokenFor(t, director)

	reqs := make([]api.TaskCreateRequest, maxBatchCreate+1)
	for i := range reqs {
		reqs[i] = api.TaskCreateRequest{Title: "t"}
	}
	w := doRequest(t, s, http.MethodPost, "/v1/tasks/batch", token, reqs)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (%s)", w.Code, w.Body.String())
	}
	var errResp api.ErrorResponse
	decodeBody(t, w, &errResp)
	if errResp.ErrorCode != ErrCodeBatchTooLarge {
		t.Fatalf("expected error code %d, got %d", ErrCodeBatchTooLarge, errResp.ErrorCode)
	}
}

func TestChangeStatus(t *testing.T) {
	s := newTestServer(t)
	director := seedUser(t, s, "director", models.RoleDirector)
	seedUser(t, s, "alice", models.RoleStaff)
	token := tokenFor(t, director)

	task := createTask(t, s, token, api.TaskCreateRequest{Title: "t", AssigneeID: strPtr("alice")})

	w := doRequest(t, s, http.MethodPost, "/v1/tasks/"+task.ID+"/status", token,
		api.StatusChangeRequest{Status: "in_progress"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	var resp api.TaskResponse
	decodeBody(t, w, &resp)
	if resp.Task.Status != models.StatusInProgress {
		t.Fatalf("expected in_progress, got %q", resp.Task.Status)
	}

	// assigned -> verified skips submission and is rejected.
	w = doRequest(t, s, http.MethodPost, "/v1/tasks/"+task.ID+"/status", token,
		api.StatusChangeRequest{Status: "verified"})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d (%s)", w.Code, w.Body.String())
	}
	var errResp api.ErrorResponse
	decodeBody(t, w, &errResp)
	if errResp.ErrorCode != ErrCodeInvalidTransition {
		t.Fatalf("expected error code %d, got %d", ErrCodeInvalidTransition, errResp.ErrorCode)
	}

	w = doRequest(t, s, http.MethodPost, "/v1/tasks/"+task.ID+"/status", token,
		api.StatusChangeRequest{Status: "not-a-status"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (%s)", w.Code, w.Body.String())
	}
}

func TestUpdateReassignmentNotifiesNewAssignee(t *testing.T) {
	s := newTestServer(t)
	director := seedUser(t, s, "director", models.RoleDirector)
	seedUser(t, s, "alice", models.RoleStaff)
	seedUser(t, s, "bob", models.RoleStaff)
	token := tokenFor(t, director)

	task := createTask(t, s, token, api.TaskCreateRequest{Title: "t", AssigneeID: strPtr("alice")})

	w := doRequest(t, s, http.MethodPatch, "/v1/tasks/"+task.ID, token,
		api.TaskUpdateRequest{AssigneeID: strPtr("bob")})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	var resp api.TaskResponse
	decodeBody(t, w, &resp)
	if resp.Task.AssigneeID != "bob" {
		t.Fatalf("expected bob, got %q", resp.Task.AssigneeID)
	}

	notifications := notificationsFor(t, s, "bob")
	if len(notifications) != 1 || notifications[0].Type != models.NotifyTaskAssigned {
		t.Fatalf("expected task_assigned for bob, got %+v", notifications)
	}
}

func TestCommentAppearsOnTimeline(t *testing.T) {
	s := newTestServer(t)
	director := seedUser(t, s, "director", models.RoleDirector)
	token := tokenFor(t, director)

	task := createTask(t, s, token, api.TaskCreateRequest{Title: "t"})

	w := doRequest(t, s, http.MethodPost, "/v1/tasks/"+task.ID+"/comments", token,
		api.CommentRequest{Comment: "checked on site"})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", w.Code, w.Body.String())
	}

	w = doRequest(t, s, http.MethodGet, "/v1/tasks/"+task.ID+"/timeline", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	var resp api.TimelineResponse
	decodeBody(t, w, &resp)
	if len(resp.Timeline) != 2 {
		t.Fatalf("expected created + comment, got %d records", len(resp.Timeline))
	}
	if resp.Timeline[1].Action != models.ActionCommented || resp.Timeline[1].Comment != "checked on site" {
		t.Fatalf("expected comment record, got %+v", resp.Timeline[1])
	}

	w = doRequest(t, s, http.MethodGet, "/v1/tasks/missing/timeline", token, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown task, got %d", w.Code)
	}
}

func TestListTasksMineFilter(t *testing.T) {
	s := newTestServer(t)
	director := seedUser(t, s, "director", models.RoleDirector)
	alice := seedUser(t, s, "alice", models.RoleStaff)
	seedUser(t, s, "bob", models.RoleStaff)
	directorToken := tokenFor(t, director)

	createTask(t, s, directorToken, api.TaskCreateRequest{Title: "for alice", AssigneeID: strPtr("alice")})
	createTask(t, s, directorToken, api.TaskCreateRequest{Title: "for bob", AssigneeID: strPtr("bob")})

	w := doRequest(t, s, http.MethodGet, "/v1/tasks?mine=true", tokenFor(t, alice), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	var resp struct {
		Tasks []models.Task `json:"tasks"`
	}
	decodeBody(t, w, &resp)
	if len(resp.Tasks) != 1 || resp.Tasks[0].Title != "for alice" {
		t.Fatalf("expected only alice's task, got %+v", resp.Tasks)
	}
}
