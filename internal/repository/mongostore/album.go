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

var _ repository.AlbumRepository = (*AlbumCollection)(nil)

type AlbumCollection struct {
	col *mongo.Collection
}

func (c *AlbumCollection) Create(ctx context.Context, album *model.Album) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	album.ID = xid.New().String()
	now := time.Now().UTC()
	album.CreatedAt = now
	album.UpdatedAt = now
	// A null songs field would make $addToSet fail later.
	if album.SongIDs == nil {
		album.SongIDs = []string{}
	}

	if _, err := c.col.InsertOne(ctx, album); err != nil {
		return fmt.Errorf("mongo: creating album: %w", err)
	}
	return nil
}

func (c *AlbumCollection) GetByID(ctx context.Context, id string) (*model.Album, error) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	var album model.Album
	err := c.col.FindOne(ctx, bson.M{"_id": id}).Decode(&album)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("album", id)
		}
		return nil, fmt.Errorf("mongo: getting album %s: %w", id, err)
	}
	if album.SongIDs == nil {
		album.SongIDs = []string{}
	}
	return &album, nil
}

func (c *AlbumCollection) List(ctx context.Context) ([]model.Album, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	cur, err := c.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("mongo: listing albums: %w", err)
	}
	albums := []model.Album{}
	if err := cur.All(ctx, &albums); err != nil {
		return nil, fmt.Errorf("mongo: decoding albums: %w", err)
	}
	for i := range albums {
		if albums[i].SongIDs == nil {
			albums[i].SongIDs = []string{}
		}
	}
	return albums, nil
}

func (c *AlbumCollection) AddSong(ctx context.Context, albumID, songID string) error {
	return c.editTracklist(ctx, albumID, "$addToSet", songID)
}

func (c *AlbumCollection) RemoveSong(ctx context.Context, albumID, songID string) error {
	return c.editTracklist(ctx, albumID, "$pull", songID)
}

// editTracklist applies op ($addToSet or $pull) to the songs array. A match
// count of zero means the album is gone; a modified count of zero only means
// the id was already present (or already absent).
func (c *AlbumCollection) editTracklist(ctx context.Context, albumID, op, songID string) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	res, err := c.col.UpdateOne(ctx,
		bson.M{"_id": albumID},
		bson.M{
			op:     bson.M{"songs": songID},
			"$set": bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return fmt.Errorf("mongo: %s song %s on album %s: %w", op, songID, albumID, err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("album", albumID)
	}
	return nil
}

func (c *AlbumCollection) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	res, err := c.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("mongo: deleting album %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return apperror.NotFound("album", id)
	}
	return nil
}

func (c *AlbumCollection) Count(ctx context.Context) (int64, error) {
	return count(ctx, c.col)
}

func (c *AlbumCollection) Artists(ctx context.Context) ([]string, error) {
	return distinctStrings(ctx, c.col, "artist")
}
