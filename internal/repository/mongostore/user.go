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

var _ repository.UserRepository = (*UserCollection)(nil)

type UserCollection struct {
	col *mongo.Collection
}

// Upsert matches on externalId. The profile fields are overwritten on every
// login; _id and createdAt are only written when the document is inserted.
func (c *UserCollection) Upsert(ctx context.Context, user *model.User) error {
	if user.ExternalID == "" {
		return apperror.ValidationFailed("externalId", "external id is required")
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"login":     user.Login,
			"fullName":  user.FullName,
			"email":     user.Email,
			"imageUrl":  user.ImageURL,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{
			"_id":       xid.New().String(),
			"createdAt": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored model.User
	err := c.col.FindOneAndUpdate(ctx, bson.M{"externalId": user.ExternalID}, update, opts).Decode(&stored)
	if mongo.IsDuplicateKeyError(err) {
		return apperror.Conflict("user", user.ExternalID)
	}
	if err != nil {
		return fmt.Errorf("mongo: upserting user %s: %w", user.ExternalID, err)
	}
	*user = stored
	return nil
}

func (c *UserCollection) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	var user model.User
	err := c.col.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("mongo: getting user %s: %w", id, err)
	}
	return &user, nil
}

func (c *UserCollection) ListExcept(ctx context.Context, id string) ([]model.User, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	cur, err := c.col.Find(ctx,
		bson.M{"_id": bson.M{"$ne": id}},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("mongo: listing users: %w", err)
	}
	users := []model.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("mongo: decoding users: %w", err)
	}
	return users, nil
}

func (c *UserCollection) Count(ctx context.Context) (int64, error) {
	return count(ctx, c.col)
}
