package middleware

import (
	"context"
	"crypto/rsa"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/comunidad/residence-service/internal/models"
	"github.com/comunidad/residence-service/internal/utils"
)

type contextKey string

const (
	ContextKeyUserID    = contextKey("userID")
	ContextKeyUserRole  = contextKey("userRole")
	ContextKeyRequestID = contextKey("requestID")
)

// AuthMiddleware rejects requests without a valid Bearer access token and
// stores the caller's id and role in the request context.
func AuthMiddleware(pub *rsa.PublicKey) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, err := extractAccessToken(r)
			if err != nil {
				utils.RespondErrorWithCode(
					w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, err.Error(), nil,
				)
				return
			}

			principal, vErr := ValidateToken(tokenStr, pub)
			if vErr != nil {
				if errors.Is(vErr, jwt.ErrTokenExpired) {
					utils.RespondErrorWithCode(
						w, http.StatusUnauthorized, utils.ErrCodeTokenExpired, "Token expired", nil, vErr,
					)
					return
				}
				utils.RespondErrorWithCode(
					w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid token", nil, vErr,
				)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUserID, principal.UserID)
			ctx = context.WithValue(ctx, ContextKeyUserRole, principal.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoles allows the request through only when the authenticated
// caller holds one of roles. It must run after AuthMiddleware.
func RequireRoles(roles ...models.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, _ := r.Context().Value(ContextKeyUserRole).(models.UserRole)
			for _, allowed := range roles {
				if role == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}
			utils.RespondErrorWithCode(
				w, http.StatusForbidden, utils.ErrCodeForbidden, "Insufficient permissions", nil,
			)
		})
	}
}

// UserIDFromContext returns the id stored by AuthMiddleware.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ContextKeyUserID).(int64)
	return id, ok && id > 0
}

func extractAccessToken(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", errors.New("missing Authorization header")
	}
	tok := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	if tok == "" {
		return "", errors.New("missing Authorization header")
	}
	return tok, nil
}
