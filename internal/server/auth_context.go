package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"opsboard/internal/auth"
	"opsboard/internal/models"
)

type authContextKey struct{}

type authPrincipal struct {
	UserID string
	Role   models.UserRole
	Agency string
}

func contextWithAuthPrincipal(ctx context.Context, principal authPrincipal) context.Context {
	return context.WithValue(ctx, authContextKey{}, principal)
}

func authPrincipalFromContext(ctx context.Context) (authPrincipal, bool) {
	if ctx == nil {
		return authPrincipal{}, false
	}
	principal, ok := ctx.Value(authContextKey{}).(authPrincipal)
	return principal, ok
}

// requireAuth verifies the bearer token and stores the principal in the
// request context.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			s.writeErrorReq(w, r, http.StatusUnauthorized, unauthorized(fmt.Errorf("missing bearer token")))
			return
		}

		claims, err := auth.VerifyToken(s.tokenSecret, strings.TrimSpace(token))
		if err != nil {
			s.writeErrorReq(w, r, http.StatusUnauthorized, unauthorized(fmt.Errorf("invalid token")))
			return
		}

		principal := authPrincipal{
			UserID: claims.UserID,
			Role:   models.UserRole(claims.Role),
			Agency: claims.Agency,
		}
		next(w, r.WithContext(contextWithAuthPrincipal(r.Context(), principal)))
	}
}

// requireRole wraps requireAuth and additionally checks the principal's
// role against the allowed set.
func (s *Server) requireRole(next http.HandlerFunc, roles ...models.UserRole) http.HandlerFunc {
	return s.requireAuth(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := authPrincipalFromContext(r.Context())
		if !ok {
			s.writeErrorReq(w, r, http.StatusUnauthorized, unauthorized(fmt.Errorf("missing principal")))
			return
		}
		for _, role := range roles {
			if principal.Role == role {
				next(w, r)
				return
			}
		}
		s.writeErrorReq(w, r, http.StatusForbidden, forbidden(fmt.Errorf("role %s may not perform this operation", principal.Role)))
	})
}

func (s *Server) principalOrUnauthorized(w http.ResponseWriter, r *http.Request) (authPrincipal, bool) {
	principal, ok := authPrincipalFromContext(r.Context())
	if !ok {
		s.writeErrorReq(w, r, http.StatusUnauthorized, unauthorized(fmt.Errorf("missing principal")))
		return authPrincipal{}, false
	}
	return principal, true
}
