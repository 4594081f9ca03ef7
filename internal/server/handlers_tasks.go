package server

import (
	"net/http"
	"time"

	"opsboard/internal/api"
	"opsboard/internal/models"
	"opsboard/internal/store"
)

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.principalOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req api.TaskCreateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}

	resp, err := s.tasks.Create(r.Context(), principal, req)
	if err != nil {
		s.writeErrorReq(w, r, httpStatusFromError(err), err)
		return
	}

	s.writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleBatchCreate(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.principalOrUnauthorized(w, r)
	if !ok {
		return
	}

	var reqs []api.TaskCreateRequest
	if err := decodeJSON(w, r, &reqs); err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}

	resp, err := s.tasks.BatchCreate(r.Context(), principal, reqs)
	if err != nil {
		s.writeErrorReq(w, r, httpStatusFromError(err), err)
		return
	}

	status := http.StatusCreated
	if resp.Created == 0 {
		status = http.StatusOK
	}
	s.writeJSON(w, status, resp)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.principalOrUnauthorized(w, r)
	if !ok {
		return
	}

	filter, err := taskFilterFromQuery(r, principal)
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}

	tasks, err := s.tasks.List(r.Context(), filter)
	if err != nil {
		s.writeErrorReq(w, r, httpStatusFromError(err), err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

func (s *Server) handleTaskStats(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.principalOrUnauthorized(w, r)
	if !ok {
		return
	}

	filter, err := taskFilterFromQuery(r, principal)
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}

	stats, err := s.tasks.Stats(r.Context(), filter)
	if err != nil {
		s.writeErrorReq(w, r, httpStatusFromError(err), err)
		return
	}

	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id, err := requirePathID(r)
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}

	resp, err := s.tasks.Get(r.Context(), id)
	if err != nil {
		s.writeErrorReq(w, r, httpStatusFromError(err), err)
		return
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.principalOrUnauthorized(w, r)
	if !ok {
		return
	}
	id, err := requirePathID(r)
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}

	var req api.TaskUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}

	resp, err := s.tasks.Update(r.Context(), principal, id, req)
	if err != nil {
		s.writeErrorReq(w, r, httpStatusFromError(err), err)
		return
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChangeStatus(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.principalOrUnauthorized(w, r)
	if !ok {
		return
	}
	id, err := requirePathID(r)
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}

	var req api.StatusChangeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}

	resp, err := s.tasks.ChangeStatus(r.Context(), principal, id, req)
	if err != nil {
		s.writeErrorReq(w, r, httpStatusFromError(err), err)
		return
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleComment(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.principalOrUnauthorized(w, r)
	if !ok {
		return
	}
	id, err := requirePathID(r)
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}

	var req api.CommentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}

	if err := s.tasks.Comment(r.Context(), principal, id, req.Comment); err != nil {
		s.writeErrorReq(w, r, httpStatusFromError(err), err)
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]string{"task_id": id})
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	id, err := requirePathID(r)
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}

	resp, err := s.tasks.Timeline(r.Context(), id)
	if err != nil {
		s.writeErrorReq(w, r, httpStatusFromError(err), err)
		return
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func taskFilterFromQuery(r *http.Request, principal authPrincipal) (store.TaskFilter, error) {
	filter := store.TaskFilter{
		Agency:     r.URL.Query().Get("agency"),
		AssigneeID: r.URL.Query().Get("assignee_id"),
		CreatorID:  r.URL.Query().Get("creator_id"),
	}

	mine, err := queryBool(r, "mine")
	if err != nil {
		return filter, err
	}
	if mine {
		filter.AssigneeID = principal.UserID
	}

	for _, raw := range splitCSV(r.URL.Query().Get("status")) {
		status, err := models.ParseTaskStatus(raw)
		if err != nil {
			return filter, badRequestCode(err, ErrCodeInvalidStatus)
		}
		filter.Statuses = append(filter.Statuses, string(status))
	}

	overdue, err := queryBool(r, "overdue")
	if err != nil {
		return filter, err
	}
	if overdue {
		now := time.Now().UTC()
		filter.OverdueAt = &now
	}

	filter.Limit, err = queryInt(r, "limit")
	if err != nil {
		return filter, err
	}
	filter.Offset, err = queryInt(r, "offset")
	if err != nil {
		return filter, err
	}

	return filter, nil
}
