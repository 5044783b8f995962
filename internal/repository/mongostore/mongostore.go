// Package mongostore implements the repository interfaces on MongoDB.
//
// Collections: songs, albums, users, messages. Documents use xid strings as
// _id so ids look the same as on the SQLite backend. The album tracklist is
// the "songs" array on the album document and is edited with $addToSet and
// $pull, which makes concurrent edits of different ids commute.
package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/BiswasSwagatam/Muzik/internal/repository"
)

const (
	readTimeout  = 10 * time.Second
	writeTimeout = 5 * time.Second
)

var _ repository.Store = (*Store)(nil)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials uri, verifies the connection and ensures the indexes the
// repositories rely on.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connecting: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: pinging: %w", err)
	}

	s := &Store{client: client, db: client.Database(database)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// New wraps an existing database handle. The caller owns the client.
func New(db *mongo.Database) *Store {
	return &Store{db: db}
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	indexes := []struct {
		coll  string
		model mongo.IndexModel
	}{
		// DeleteByAlbum and reconciliation filter on albumId.
		{"songs", mongo.IndexModel{Keys: bson.D{{Key: "albumId", Value: 1}}}},
		{"songs", mongo.IndexModel{Keys: bson.D{{Key: "createdAt", Value: -1}}}},
		{"users", mongo.IndexModel{
			Keys:    bson.D{{Key: "externalId", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{"messages", mongo.IndexModel{Keys: bson.D{
			{Key: "senderId", Value: 1},
			{Key: "receiverId", Value: 1},
			{Key: "createdAt", Value: 1},
		}}},
	}
	for _, ix := range indexes {
		if _, err := s.db.Collection(ix.coll).Indexes().CreateOne(ctx, ix.model); err != nil {
			return fmt.Errorf("mongo: creating index on %s: %w", ix.coll, err)
		}
	}
	return nil
}

func (s *Store) Songs() repository.SongRepository {
	return &SongCollection{col: s.db.Collection("songs")}
}

func (s *Store) Albums() repository.AlbumRepository {
	return &AlbumCollection{col: s.db.Collection("albums")}
}

func (s *Store) Users() repository.UserRepository {
	return &UserCollection{col: s.db.Collection("users")}
}

func (s *Store) Messages() repository.MessageRepository {
	return &MessageCollection{col: s.db.Collection("messages")}
}

// Close disconnects the client when the store created it.
func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// distinctStrings runs a distinct query on field and keeps the string values.
func distinctStrings(ctx context.Context, col *mongo.Collection, field string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	values, err := col.Distinct(ctx, field, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("mongo: distinct %s.%s: %w", col.Name(), field, err)
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if str, ok := v.(string); ok {
			out = append(out, str)
		}
	}
	return out, nil
}

func count(ctx context.Context, col *mongo.Collection) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	n, err := col.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("mongo: counting %s: %w", col.Name(), err)
	}
	return n, nil
}
