package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"opsboard/internal/api"
	"opsboard/internal/models"
	"opsboard/internal/store"
)

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.principalOrUnauthorized(w, r)
	if !ok {
		return
	}

	unreadOnly, err := queryBool(r, "unread")
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}

	notifications, err := s.store.ListNotifications(r.Context(), store.NotificationFilter{
		RecipientID: principal.UserID,
		UnreadOnly:  unreadOnly,
		Limit:       limit,
	})
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	unreadCount := 0
	if unreadOnly {
		unreadCount = len(notifications)
	} else {
		for _, n := range notifications {
			if !n.Read {
				unreadCount++
			}
		}
	}

	if notifications == nil {
		notifications = []models.Notification{}
	}
	s.writeJSON(w, http.StatusOK, api.NotificationListResponse{
		Notifications: notifications,
		UnreadCount:   unreadCount,
	})
}

func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.principalOrUnauthorized(w, r)
	if !ok {
		return
	}
	id, err := requirePathID(r)
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}

	if err := s.store.MarkNotificationRead(r.Context(), id, principal.UserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeErrorReq(w, r, http.StatusNotFound,
				notFoundCode(fmt.Errorf("notification not found"), ErrCodeNotificationNotFound))
			return
		}
		s.writeStoreError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (s *Server) handleMarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.principalOrUnauthorized(w, r)
	if !ok {
		return
	}

	count, err := s.store.MarkAllNotificationsRead(r.Context(), principal.UserID)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, api.CountResponse{Count: count})
}

func (s *Server) handleDismissNotifications(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.principalOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req api.DismissRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}
	if len(req.IDs) == 0 {
		s.writeErrorReq(w, r, http.StatusBadRequest,
			badRequestCode(fmt.Errorf("ids are required"), ErrCodeMissingRequired))
		return
	}

	count, err := s.store.DismissNotifications(r.Context(), principal.UserID, req.IDs)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, api.CountResponse{Count: count})
}

// handleSweep runs the notification rules once and then delivers
// anything due. It is triggered externally, typically by a scheduler.
func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	if !s.acquireLimiter(s.sweepLimiter, w, r, "sweep") {
		return
	}
	defer s.releaseLimiter(s.sweepLimiter)

	now := time.Now().UTC()
	result, err := s.generator.Sweep(r.Context(), now)
	if err != nil {
		s.writeErrorReq(w, r, http.StatusInternalServerError,
			makeAPIError(http.StatusInternalServerError, "internal", ErrCodeSweepFailed, err))
		return
	}

	delivered := 0
	if s.dispatcher != nil {
		delivered, err = s.dispatcher.DeliverPending(r.Context(), now)
		if err != nil {
			s.log().Warn("deliver pending notifications failed", "error", err)
		}
	}

	s.writeJSON(w, http.StatusOK, api.SweepResponse{
		Created:   result.Created,
		Skipped:   result.Skipped,
		Errors:    result.Errors,
		Delivered: delivered,
		Messages:  result.Messages,
		RanAt:     now,
	})
}
