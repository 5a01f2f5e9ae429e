package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/lessonbook/internal/auth"
	"github.com/mmynk/lessonbook/internal/models"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// UserIDKey is the context key for storing the authenticated user ID.
	UserIDKey contextKey = "user_id"
	// UsernameKey is the context key for storing the authenticated username.
	UsernameKey contextKey = "username"
	// RoleKey is the context key for storing the authenticated user's role.
	RoleKey contextKey = "role"
)

// ErrForbidden is returned when the caller's role may not call a procedure.
var ErrForbidden = errors.New("insufficient role")

// GetUserID extracts the user ID from the context.
// Returns empty string if not found.
func GetUserID(ctx context.Context) string {
	userID, _ := ctx.Value(UserIDKey).(string)
	return userID
}

// GetUsername extracts the username from the context.
func GetUsername(ctx context.Context) string {
	username, _ := ctx.Value(UsernameKey).(string)
	return username
}

// GetRole extracts the caller's role from the context.
// Returns empty role if not found.
func GetRole(ctx context.Context) models.Role {
	role, _ := ctx.Value(RoleKey).(models.Role)
	return role
}

// WithClaims returns a context carrying the identity from claims.
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
	ctx = context.WithValue(ctx, UsernameKey, claims.Username)
	return context.WithValue(ctx, RoleKey, claims.Role)
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", auth.ErrMissingToken
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", auth.ErrInvalidToken
	}
	return parts[1], nil
}

// RequireAuth returns a middleware that validates JWT tokens and requires authentication.
// Procedures listed in public skip the check.
func RequireAuth(jwtManager *auth.JWTManager, public ...string) connect.UnaryInterceptorFunc {
	skip := make(map[string]bool, len(public))
	for _, p := range public {
		skip[p] = true
	}

	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if skip[req.Spec().Procedure] {
				return next(ctx, req)
			}

			tokenString, err := bearerToken(req.Header().Get("Authorization"))
			if err == nil {
				var claims *auth.Claims
				if claims, err = jwtManager.Validate(tokenString); err == nil {
					return next(WithClaims(ctx, claims), req)
				}
			}

			slog.Warn("Rejected unauthenticated call", "procedure", req.Spec().Procedure, "error", err)
			return nil, connect.NewError(connect.CodeUnauthenticated, err)
		}
	}
}

// RequireRole rejects calls to the listed procedures unless the caller has
// one of roles. It must run after RequireAuth.
func RequireRole(roles []models.Role, procedures ...string) connect.UnaryInterceptorFunc {
	guarded := make(map[string]bool, len(procedures))
	for _, p := range procedures {
		guarded[p] = true
	}

	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if guarded[req.Spec().Procedure] {
				role := GetRole(ctx)
				allowed := false
				for _, r := range roles {
					if r == role {
						allowed = true
						break
					}
				}
				if !allowed {
					slog.Warn("Rejected call for role", "procedure", req.Spec().Procedure, "user_id", GetUserID(ctx), "role", role)
					return nil, connect.NewError(connect.CodePermissionDenied, ErrForbidden)
				}
			}
			return next(ctx, req)
		}
	}
}
