package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"opsboard/internal/auth"
	"opsboard/internal/models"
	"opsboard/internal/store"
)

const testTokenSecret = "test-secret-for-signing"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	st, err := store.Open(path)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return New("127.0.0.1:0", st, testTokenSecret, nil, slog.Default())
}

func seedUser(t *testing.T, s *Server, id string, role models.UserRole) *models.User {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Millisecond)
	hash, err := auth.HashPassword("password123")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &models.User{
		ID:           id,
		Username:     id,
		Email:        id + "@example.gov",
		Role:         role,
		Agency:       "transport",
		Active:       true,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
	return user
}

func tokenFor(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := auth.IssueToken(testTokenSecret, user.ID, string(user.Role), user.Agency, time.Now().UTC())
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func doRequest(t *testing.T, s *Server, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.routes().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)
	w := doRequest(t, s, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestRequestsWithoutTokenRejected(t *testing.T) {
	s := newTestServer(t)
	w := doRequest(t, s, http.MethodGet, "/v1/tasks", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRequestsWithBadTokenRejected(t *testing.T) {
	s := newTestServer(t)
	w := doRequest(t, s, http.MethodGet, "/v1/tasks", "not-a-token", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}

	// Token signed with a different secret.
	forged, err := auth.IssueToken("other-secret", "alice", "staff", "", time.Now().UTC())
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	w = doRequest(t, s, http.MethodGet, "/v1/tasks", forged, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for forged token, got %d", w.Code)
	}
}

func TestListenAddrRejectsRemoteHosts(t *testing.T) {
	if _, err := ListenAddr("http://127.0.0.1:7433"); err != nil {
		t.Fatalf("loopback should be allowed: %v", err)
	}
	if _, err := ListenAddr("http://0.0.0.0:7433"); err == nil {
		t.Fatal("expected remote host to be rejected")
	}
}
