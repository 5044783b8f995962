package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/BiswasSwagatam/Muzik/internal/apperror"
	"github.com/BiswasSwagatam/Muzik/internal/model"
	"github.com/BiswasSwagatam/Muzik/internal/repository"
)

var _ repository.SongRepository = (*SongCollection)(nil)

type SongCollection struct {
	col *mongo.Collection
}

func (c *SongCollection) Create(ctx context.Context, song *model.Song) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	song.ID = xid.New().String()
	now := time.Now().UTC()
	song.CreatedAt = now
	song.UpdatedAt = now

	if _, err := c.col.InsertOne(ctx, song); err != nil {
		return fmt.Errorf("mongo: creating song: %w", err)
	}
	return nil
}

func (c *SongCollection) GetByID(ctx context.Context, id string) (*model.Song, error) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	var song model.Song
	err := c.col.FindOne(ctx, bson.M{"_id": id}).Decode(&song)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("song", id)
		}
		return nil, fmt.Errorf("mongo: getting song %s: %w", id, err)
	}
	return &song, nil
}

func (c *SongCollection) ListByIDs(ctx context.Context, ids []string) ([]model.Song, error) {
	if len(ids) == 0 {
		return []model.Song{}, nil
	}
	return c.find(ctx, "listing songs by id",
		bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}),
	)
}

func (c *SongCollection) List(ctx context.Context) ([]model.Song, error) {
	return c.find(ctx, "listing songs",
		bson.M{},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
}

// Sample uses the $sample aggregation stage.
func (c *SongCollection) Sample(ctx context.Context, n int) ([]model.Song, error) {
	if n <= 0 {
		return []model.Song{}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	cur, err := c.col.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$sample", Value: bson.D{{Key: "size", Value: n}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("mongo: sampling songs: %w", err)
	}
	songs := []model.Song{}
	if err := cur.All(ctx, &songs); err != nil {
		return nil, fmt.Errorf("mongo: decoding sampled songs: %w", err)
	}
	return songs, nil
}

func (c *SongCollection) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	res, err := c.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("mongo: deleting song %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return apperror.NotFound("song", id)
	}
	return nil
}

// DeleteByAlbum filters on albumId; the album's songs array is not read.
func (c *SongCollection) DeleteByAlbum(ctx context.Context, albumID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	res, err := c.col.DeleteMany(ctx, bson.M{"albumId": albumID})
	if err != nil {
		return 0, fmt.Errorf("mongo: deleting songs of album %s: %w", albumID, err)
	}
	return res.DeletedCount, nil
}

func (c *SongCollection) Count(ctx context.Context) (int64, error) {
	return count(ctx, c.col)
}

func (c *SongCollection) Artists(ctx context.Context) ([]string, error) {
	return distinctStrings(ctx, c.col, "artist")
}

func (c *SongCollection) find(ctx context.Context, action string, filter any, opts *options.FindOptions) ([]model.Song, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	cur, err := c.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: %s: %w", action, err)
	}
	songs := []model.Song{}
	if err := cur.All(ctx, &songs); err != nil {
		return nil, fmt.Errorf("mongo: %s: %w", action, err)
	}
	return songs, nil
}
