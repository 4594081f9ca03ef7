package server

import (
	"context"
	"fmt"
	"time"

	"opsboard/internal/api"
	"opsboard/internal/auth"
	"opsboard/internal/store"
)

// AuthService handles credential checks and token issuance.
type AuthService struct {
	store       *store.Store
	tokenSecret string
}

// NewAuthService constructs an AuthService.
func NewAuthService(st *store.Store, tokenSecret string) *AuthService {
	return &AuthService{store: st, tokenSecret: tokenSecret}
}

// Login verifies credentials and returns a signed token. Unknown user,
// wrong password and deactivated account all produce the same error so
// the response does not reveal which check failed.
func (s *AuthService) Login(ctx context.Context, req api.LoginRequest) (api.LoginResponse, error) {
	var resp api.LoginResponse

	username, err := auth.NormalizeUsername(req.Username)
	if err != nil {
		return resp, unauthorized(fmt.Errorf("invalid credentials"))
	}

	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return resp, storeFailure(err)
	}
	if user == nil || !user.Active || !auth.VerifyPassword(user.PasswordHash, req.Password) {
		return resp, unauthorized(fmt.Errorf("invalid credentials"))
	}

	token, err := auth.IssueToken(s.tokenSecret, user.ID, string(user.Role), user.Agency, time.Now().UTC())
	if err != nil {
		return resp, internalError(err)
	}

	resp = api.LoginResponse{Token: token, User: *user}
	return resp, nil
}
