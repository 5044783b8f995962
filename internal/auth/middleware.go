package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// CookieName is the cookie that carries the session token.
const CookieName = "token"

type contextKey string

const userIDKey contextKey = "userID"

// AdminChecker decides whether a user has admin rights.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// RequireAuth rejects requests without a valid token with 401 and stores the
// user id in the context otherwise.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := extractUserID(r, tokens)
			if errors.Is(err, ErrSessionExpired) {
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", "session expired, sign in again")
				return
			}
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", "valid authentication required")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// RequireAdmin must run after RequireAuth. Non-admins get 403.
func RequireAdmin(checker AdminChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserIDFromContext(r.Context())
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", "valid authentication required")
				return
			}
			admin, err := checker.IsAdmin(r.Context(), userID)
			if err != nil {
				writeAuthError(w, http.StatusInternalServerError, "internal_error", "could not verify admin rights")
				return
			}
			if !admin {
				writeAuthError(w, http.StatusForbidden, "forbidden", "admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithUserID returns a copy of ctx carrying userID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns ("", false) for anonymous requests.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

var errNoToken = errors.New("auth: no token")

// extractUserID prefers the cookie and falls back to a bearer header. A
// stale cookie does not shadow a valid bearer token; when neither works the
// cookie's error wins.
func extractUserID(r *http.Request, tokens *TokenService) (string, error) {
	var cookieErr error
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		userID, err := tokens.Validate(cookie.Value)
		if err == nil {
			return userID, nil
		}
		cookieErr = err
	}
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok && token != "" {
			userID, err := tokens.Validate(token)
			if err == nil {
				return userID, nil
			}
			if cookieErr == nil {
				return "", err
			}
		}
	}
	if cookieErr != nil {
		return "", cookieErr
	}
	return "", errNoToken
}

func writeAuthError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + kind + `","message":"` + message + `"}` + "\n")) //nolint:errcheck
}
