package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BiswasSwagatam/Muzik/internal/apperror"
	"github.com/BiswasSwagatam/Muzik/internal/model"
)

func createTestUser(t *testing.T, db *DB, externalID, login string) *model.User {
	t.Helper()
	user := &model.User{
		ExternalID: externalID,
		Login:      login,
		FullName:   "Test " + login,
		Email:      login + "@example.com",
		ImageURL:   "https://avatars.githubusercontent.com/u/123",
	}
	if err := db.Users().Upsert(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func TestUserUpsert_Insert(t *testing.T) {
	db := newTestDB(t)

	user := createTestUser(t, db, "github:12345", "testuser")

	if user.ID == "" {
		t.Error("Upsert() did not set user.ID")
	}
	if user.CreatedAt.IsZero() {
		t.Error("Upsert() did not set user.CreatedAt")
	}
}

func TestUserUpsert_UpdatesExisting(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	first := createTestUser(t, db, "github:777", "oldlogin")

	again := &model.User{ExternalID: "github:777", Login: "newlogin", Email: "new@example.com"}
	if err := db.Users().Upsert(ctx, again); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	if again.ID != first.ID {
		t.Errorf("Upsert() ID = %q, want existing %q", again.ID, first.ID)
	}

	got, err := db.Users().GetUserByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if got.Login != "newlogin" || got.Email != "new@example.com" {
		t.Errorf("profile not refreshed: %+v", got)
	}

	n, _ := db.Users().Count(ctx)
	if n != 1 {
		t.Errorf("Count() = %d, want 1", n)
	}
}

func TestUserUpsert_RequiresExternalID(t *testing.T) {
	db := newTestDB(t)

	err := db.Users().Upsert(context.Background(), &model.User{Login: "nobody"})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestUserGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Users().GetUserByID(context.Background(), "nonexistent")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestUserListExcept(t *testing.T) {
	db := newTestDB(t)

	me := createTestUser(t, db, "github:1", "me")
	createTestUser(t, db, "github:2", "you")
	createTestUser(t, db, "github:3", "them")

	users, err := db.Users().ListExcept(context.Background(), me.ID)
	if err != nil {
		t.Fatalf("ListExcept() error = %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("ListExcept() returned %d users, want 2", len(users))
	}
	for _, u := range users {
		if u.ID == me.ID {
			t.Error("ListExcept() included the excluded user")
		}
	}
}

func TestMessageConversation_BothDirectionsOldestFirst(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	send := func(from, to, text string) {
		t.Helper()
		if err := db.Messages().Create(ctx, &model.Message{SenderID: from, ReceiverID: to, Content: text}); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		time.Sleep(time.Millisecond)
	}

	send("alice", "bob", "hi")
	send("bob", "alice", "hey")
	send("alice", "carol", "unrelated")
	send("alice", "bob", "how are you")

	msgs, err := db.Messages().Conversation(ctx, "bob", "alice")
	if err != nil {
		t.Fatalf("Conversation() error = %v", err)
	}

	want := []string{"hi", "hey", "how are you"}
	if len(msgs) != len(want) {
		t.Fatalf("Conversation() returned %d messages, want %d", len(msgs), len(want))
	}
	for i, m := range msgs {
		if m.Content != want[i] {
			t.Errorf("message %d = %q, want %q", i, m.Content, want[i])
		}
	}
}

func TestIsUniqueViolation(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "github:777", "first")

	_, err := db.conn.ExecContext(context.Background(),
		`INSERT INTO users (`+userColumns+`) VALUES ('other-id', 'github:777', 'second', '', '', '', ?, ?)`,
		time.Now(), time.Now(),
	)

	if !isUniqueViolation(err) {
		t.Fatalf("isUniqueViolation(%v) = false, want true", err)
	}
	if isUniqueViolation(errors.New("disk full")) {
		t.Error("isUniqueViolation() matched a non-sqlite error")
	}
}
