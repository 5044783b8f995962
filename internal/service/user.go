package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/BiswasSwagatam/Muzik/internal/apperror"
	"github.com/BiswasSwagatam/Muzik/internal/model"
	"github.com/BiswasSwagatam/Muzik/internal/repository"
)

// MaxMessageLength is the longest message body accepted, in characters.
const MaxMessageLength = 2000

// UserService lists users and carries direct messages between them.
type UserService struct {
	users    repository.UserRepository
	messages repository.MessageRepository
	logger   *slog.Logger
}

func NewUserService(users repository.UserRepository, messages repository.MessageRepository, logger *slog.Logger) *UserService {
	return &UserService{users: users, messages: messages, logger: logger}
}

// ListUsers returns everyone but the caller.
func (s *UserService) ListUsers(ctx context.Context, callerID string) ([]model.User, error) {
	users, err := s.users.ListExcept(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// Conversation returns the messages between the caller and otherID, oldest
// first.
func (s *UserService) Conversation(ctx context.Context, callerID, otherID string) ([]model.Message, error) {
	otherID = strings.TrimSpace(otherID)
	if otherID == "" {
		return nil, apperror.ValidationFailed("userId", "user ID is required")
	}
	msgs, err := s.messages.Conversation(ctx, callerID, otherID)
	if err != nil {
		return nil, fmt.Errorf("loading conversation: %w", err)
	}
	return msgs, nil
}

// SendMessage stores a message from the caller to receiverID. The receiver
// must exist.
func (s *UserService) SendMessage(ctx context.Context, callerID, receiverID, content string) (*model.Message, error) {
	receiverID = strings.TrimSpace(receiverID)
	if receiverID == "" {
		return nil, apperror.ValidationFailed("userId", "receiver ID is required")
	}
	if receiverID == callerID {
		return nil, apperror.ValidationFailed("userId", "cannot send a message to yourself")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.ValidationFailed("content", "message content is required")
	}
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return nil, apperror.ValidationFailed("content",
			fmt.Sprintf("message must be %d characters or less", MaxMessageLength))
	}

	if _, err := s.users.GetUserByID(ctx, receiverID); err != nil {
		return nil, err
	}

	msg := &model.Message{SenderID: callerID, ReceiverID: receiverID, Content: content}
	if err := s.messages.Create(ctx, msg); err != nil {
		s.logger.Error("failed to store message",
			slog.String("senderID", callerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("sending message: %w", err)
	}

	s.logger.Debug("message sent",
		slog.String("id", msg.ID),
		slog.String("senderID", callerID),
		slog.String("receiverID", receiverID),
	)
	return msg, nil
}
