package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/BiswasSwagatam/Muzik/internal/auth"
	"github.com/BiswasSwagatam/Muzik/internal/model"
)

type UserDirectory interface {
	ListUsers(ctx context.Context, callerID string) ([]model.User, error)
	Conversation(ctx context.Context, callerID, otherID string) ([]model.Message, error)
	SendMessage(ctx context.Context, callerID, receiverID, content string) (*model.Message, error)
}

// UserHandler serves the user list and direct messages. All routes require
// a signed-in user.
type UserHandler struct {
	users UserDirectory
	rs    Responder
}

func NewUserHandler(users UserDirectory, rs Responder) *UserHandler {
	return &UserHandler{users: users, rs: rs}
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

// HandleList returns every user except the caller.
//
// HTTP: GET /api/users
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	callerID, _ := auth.UserIDFromContext(r.Context())
	users, err := h.users.ListUsers(r.Context(), callerID)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	h.rs.JSON(w, http.StatusOK, users)
}

// HandleMessages returns the conversation with {userId}, oldest first.
//
// HTTP: GET /api/users/messages/{userId}
func (h *UserHandler) HandleMessages(w http.ResponseWriter, r *http.Request) {
	callerID, _ := auth.UserIDFromContext(r.Context())
	msgs, err := h.users.Conversation(r.Context(), callerID, chi.URLParam(r, "userId"))
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	h.rs.JSON(w, http.StatusOK, msgs)
}

// HTTP: POST /api/users/messages/{userId}
// BODY: {"content": "hi"}
func (h *UserHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.rs.Error(w, r, err)
		return
	}

	callerID, _ := auth.UserIDFromContext(r.Context())
	msg, err := h.users.SendMessage(r.Context(), callerID, chi.URLParam(r, "userId"), req.Content)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	h.rs.JSON(w, http.StatusCreated, msg)
}
