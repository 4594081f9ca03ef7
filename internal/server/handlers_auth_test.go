package server

import (
	"context"
	"net/http"
	"testing"
	"time"

	"opsboard/internal/api"
	"opsboard/internal/models"
)

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	seedUser(t, s, "alice", models.RoleStaff)

	w := doRequest(t, s, http.MethodPost, "/v1/auth/login", "",
		api.LoginRequest{Username: "alice", Password: "password123"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	var resp api.LoginResponse
	decodeBody(t, w, &resp)
	if resp.Token == "" {
		t.Fatal("expected a token")
	}
	if resp.User.ID != "alice" {
		t.Fatalf("expected user alice, got %q", resp.User.ID)
	}

	// The issued token works against protected endpoints.
	w = doRequest(t, s, http.MethodGet, "/v1/tasks", resp.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with issued token, got %d (%s)", w.Code, w.Body.String())
	}
}

func TestLoginRejections(t *testing.T) {
	s := newTestServer(t)
	seedUser(t, s, "alice", models.RoleStaff)
	inactive := seedUser(t, s, "bob", models.RoleStaff)
	if err := s.store.SetUserActive(context.Background(), inactive.ID, false, time.Now().UTC()); err != nil {
		t.Fatalf("deactivate bob: %v", err)
	}

	tests := []struct {
		name string
		req  api.LoginRequest
	}{
		{"wrong password", api.LoginRequest{Username: "alice", Password: "wrong"}},
		{"unknown user", api.LoginRequest{Username: "nobody", Password: "password123"}},
		{"inactive user", api.LoginRequest{Username: "bob", Password: "password123"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, s, http.MethodPost, "/v1/auth/login", "", tt.req)
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d (%s)", w.Code, w.Body.String())
			}
		})
	}
}

func TestLoginUsernameNormalized(t *testing.T) {
	s := newTestServer(t)
	seedUser(t, s, "alice", models.RoleStaff)

	w := doRequest(t, s, http.MethodPost, "/v1/auth/login", "",
		api.LoginRequest{Username: "  Alice ", Password: "password123"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for normalized username, got %d (%s)", w.Code, w.Body.String())
	}
}
