package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/BiswasSwagatam/Muzik/internal/apperror"
	"github.com/BiswasSwagatam/Muzik/internal/auth"
	"github.com/BiswasSwagatam/Muzik/internal/model"
	"github.com/BiswasSwagatam/Muzik/internal/service"
)

const stateCookieName = "oauth_state"

// IdentityProvider is the OAuth side of sign-in.
type IdentityProvider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.GitHubUser, error)
}

// Authenticator turns a verified identity into a session.
type Authenticator interface {
	LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*service.AuthResult, error)
	LoginLocal(ctx context.Context, username, password string) (*service.AuthResult, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// AuthHandler runs the sign-in flows and the session cookie.
//
//   - HandleGitHubLogin    → redirect to GitHub's authorization page
//   - HandleGitHubCallback → exchange the code, sync the user, set the cookie
//   - HandleLocalLogin     → password sign-in for the local admin account
//   - HandleLogout         → clear the cookie
//   - HandleMe             → the signed-in user's profile
type AuthHandler struct {
	github IdentityProvider // nil when GitHub sign-in is not configured
	auth   Authenticator
	rs     Responder
	secure bool // mark cookies Secure (HTTPS only)
}

func NewAuthHandler(github IdentityProvider, authn Authenticator, rs Responder, secureCookies bool) *AuthHandler {
	return &AuthHandler{github: github, auth: authn, rs: rs, secure: secureCookies}
}

type localLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the token as well as the cookie, for clients that
// send a bearer header instead.
type LoginResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// HandleGitHubLogin stores a random state in a short-lived cookie and
// redirects to GitHub. The callback compares the two to reject forged
// callbacks.
//
// HTTP: GET /auth/github/login
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth flow.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	logger := h.rs.Logger
	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" {
		logger.Warn("auth callback: missing state cookie")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}
	if r.URL.Query().Get("state") != stateCookie.Value {
		logger.Warn("auth callback: state mismatch")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	// The state is single-use.
	http.SetCookie(w, &http.Cookie{Name: stateCookieName, Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		logger.Error("auth callback: GitHub exchange failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	result, err := h.auth.LoginOrRegisterGitHub(r.Context(), ghUser)
	if err != nil {
		logger.Error("auth callback: sign-in failed",
			slog.Int64("githubID", ghUser.ID),
			slog.String("error", err.Error()),
		)
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	h.setSession(w, result.Token)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HTTP: POST /api/auth/login
// BODY: {"username": "admin", "password": "..."}
func (h *AuthHandler) HandleLocalLogin(w http.ResponseWriter, r *http.Request) {
	var req localLoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.rs.Error(w, r, err)
		return
	}
	if req.Username == "" || req.Password == "" {
		h.rs.Error(w, r, apperror.ValidationFailed("username", "username and password are required"))
		return
	}

	result, err := h.auth.LoginLocal(r.Context(), req.Username, req.Password)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}

	h.setSession(w, result.Token)
	h.rs.JSON(w, http.StatusOK, LoginResponse{User: result.User, Token: result.Token})
}

// HandleLogout deletes the cookie. The token itself stays valid until it
// expires.
//
// HTTP: POST /api/auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	h.rs.JSON(w, http.StatusOK, MessageResponse{Message: "logged out"})
}

// HTTP: GET /api/auth/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.rs.Error(w, r, apperror.Unauthorized("valid authentication required"))
		return
	}

	user, err := h.auth.GetUserByID(r.Context(), userID)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	h.rs.JSON(w, http.StatusOK, user)
}

func (h *AuthHandler) setSession(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(auth.TokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
