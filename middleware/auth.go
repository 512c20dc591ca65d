package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"qrForgeAPI/auth"
	"qrForgeAPI/internal/user"
)

type contextKey string

const UserKey contextKey = "user"

// UserLoader fetches the full user record for the identifier embedded in a
// verified token. Implementations must return user.ErrNotFound for a missing
// row and must never include the password hash.
type UserLoader interface {
	GetUserByID(ctx context.Context, id string) (*user.User, error)
}

// AuthGate verifies the request token and attaches the authenticated user to
// the request context before a handler runs.
type AuthGate struct {
	tokens *auth.TokenService
	users  UserLoader
}

func NewAuthGate(tokens *auth.TokenService, users UserLoader) *AuthGate {
	return &AuthGate{tokens: tokens, users: users}
}

// extractToken checks, in order of precedence: the token cookie, the
// Authorization Bearer header, and the X-Access-Token header.
func extractToken(r *http.Request) string {
	if c, err := r.Cookie("token"); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); h != "" {
		if token := strings.TrimPrefix(h, "Bearer "); token != h {
			return token
		}
	}
	return r.Header.Get("X-Access-Token")
}

func (g *AuthGate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "AUTH_REQUIRED", "Authentication required")
			return
		}

		claims, err := g.tokens.Verify(token)
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				writeError(w, http.StatusUnauthorized, "TOKEN_EXPIRED", "Session expired, please login again")
				return
			}
			writeError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid authentication token")
			return
		}

		u, err := g.users.GetUserByID(r.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
				return
			}
			log.Printf("Auth middleware: failed to load user %s: %v", claims.UserID, err)
			writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Server error")
			return
		}

		ctx := context.WithValue(r.Context(), UserKey, u)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRoles rejects any authenticated user whose role is not in the
// allow-list. The downstream handler is never invoked on rejection.
func (g *AuthGate) RequireRoles(roles ...user.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := GetUser(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "AUTH_REQUIRED", "Authentication required")
				return
			}

			for _, role := range roles {
				if u.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			names := make([]string, len(roles))
			for i, role := range roles {
				names[i] = string(role)
			}
			writeJSON(w, http.StatusForbidden, map[string]any{
				"message":       fmt.Sprintf("Access restricted to: %s", strings.Join(names, ", ")),
				"code":          "ACCESS_DENIED",
				"requiredRoles": names,
				"userRole":      u.Role,
			})
		})
	}
}

// GetUser extracts the authenticated user from the request context.
func GetUser(ctx context.Context) (*user.User, bool) {
	u, ok := ctx.Value(UserKey).(*user.User)
	return u, ok
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"message": message, "code": code})
}
