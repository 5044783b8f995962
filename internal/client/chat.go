package client

import (
	"context"

	"github.com/BiswasSwagatam/Muzik/internal/model"
)

// ChatAPI is what ChatStore fetches from. *Client implements it.
type ChatAPI interface {
	Users(ctx context.Context) ([]model.User, error)
	Messages(ctx context.Context, userID string) ([]model.Message, error)
}

type ChatState struct {
	Status
	Users []model.User
	// Messages is the conversation with SelectedUserID.
	Messages       []model.Message
	SelectedUserID string
}

// ChatStore caches the user list and the open conversation.
type ChatStore struct {
	api ChatAPI
	st  store[ChatState]
}

func NewChatStore(api ChatAPI) *ChatStore {
	return &ChatStore{api: api}
}

func (c *ChatStore) Snapshot() ChatState {
	return c.st.snapshot()
}

func (c *ChatStore) Subscribe(fn func(ChatState)) (cancel func()) {
	return c.st.subscribe(fn)
}

func chatStatus(s *ChatState) *Status { return &s.Status }

func (c *ChatStore) FetchUsers(ctx context.Context) error {
	return fetch(ctx, &c.st, chatStatus, c.api.Users, func(s *ChatState, v []model.User) {
		s.Users = v
	})
}

func (c *ChatStore) FetchMessages(ctx context.Context, userID string) error {
	get := func(ctx context.Context) ([]model.Message, error) { return c.api.Messages(ctx, userID) }
	return fetch(ctx, &c.st, chatStatus, get, func(s *ChatState, v []model.Message) {
		s.Messages = v
		s.SelectedUserID = userID
	})
}

func (c *ChatStore) Invalidate() {
	c.st.update(func(s *ChatState) {
		*s = ChatState{}
	})
}
