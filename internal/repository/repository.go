// Package repository declares the storage contracts the services depend on.
//
// The contracts are shaped like a document store: find by id, create,
// update a field by id, delete by id and delete many by an equality filter.
// Two implementations exist: sqlite (embedded) and mongo.
//
// Every lookup miss is reported as apperror.NotFound so callers can use
// errors.Is(err, apperror.ErrNotFound) regardless of the backend.
package repository

import (
	"context"

	"github.com/BiswasSwagatam/Muzik/internal/model"
)

type SongRepository interface {
	// Create assigns ID and timestamps and stores the song.
	Create(ctx context.Context, song *model.Song) error
	GetByID(ctx context.Context, id string) (*model.Song, error)
	// ListByIDs returns the songs that exist among ids; missing ids are skipped.
	ListByIDs(ctx context.Context, ids []string) ([]model.Song, error)
	// List returns every song, newest first.
	List(ctx context.Context) ([]model.Song, error)
	// Sample returns up to n songs picked at random.
	Sample(ctx context.Context, n int) ([]model.Song, error)
	Delete(ctx context.Context, id string) error
	// DeleteByAlbum deletes every song whose AlbumID equals albumID and
	// returns how many were removed.
	DeleteByAlbum(ctx context.Context, albumID string) (int64, error)
	Count(ctx context.Context) (int64, error)
	// Artists returns the distinct artist names across songs.
	Artists(ctx context.Context) ([]string, error)
}

type AlbumRepository interface {
	Create(ctx context.Context, album *model.Album) error
	GetByID(ctx context.Context, id string) (*model.Album, error)
	List(ctx context.Context) ([]model.Album, error)
	// AddSong puts songID on the album's tracklist. Adding an id that is
	// already listed is a no-op. Returns NotFound if the album is absent.
	AddSong(ctx context.Context, albumID, songID string) error
	// RemoveSong takes songID off the tracklist. Removing an id that is not
	// listed is a no-op. Returns NotFound if the album is absent.
	RemoveSong(ctx context.Context, albumID, songID string) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	Artists(ctx context.Context) ([]string, error)
}

type UserRepository interface {
	// Upsert inserts the user or refreshes the profile of the user with the
	// same ExternalID. On return user.ID holds the stored id.
	Upsert(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	// ListExcept returns every user but the one with the given id.
	ListExcept(ctx context.Context, id string) ([]model.User, error)
	Count(ctx context.Context) (int64, error)
}

type MessageRepository interface {
	Create(ctx context.Context, msg *model.Message) error
	// Conversation returns the messages exchanged between a and b in either
	// direction, oldest first.
	Conversation(ctx context.Context, a, b string) ([]model.Message, error)
}

// Store bundles the repositories of one backend.
type Store interface {
	Songs() SongRepository
	Albums() AlbumRepository
	Users() UserRepository
	Messages() MessageRepository
	Close() error
}
