package mongostore

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/BiswasSwagatam/Muzik/internal/model"
	"github.com/BiswasSwagatam/Muzik/internal/repository"
)

var _ repository.MessageRepository = (*MessageCollection)(nil)

type MessageCollection struct {
	col *mongo.Collection
}

func (c *MessageCollection) Create(ctx context.Context, msg *model.Message) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	msg.ID = xid.New().String()
	now := time.Now().UTC()
	msg.CreatedAt = now
	msg.UpdatedAt = now

	if _, err := c.col.InsertOne(ctx, msg); err != nil {
		return fmt.Errorf("mongo: creating message: %w", err)
	}
	return nil
}

func (c *MessageCollection) Conversation(ctx context.Context, a, b string) ([]model.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	filter := bson.M{"$or": bson.A{
		bson.M{"senderId": a, "receiverId": b},
		bson.M{"senderId": b, "receiverId": a},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})

	cur, err := c.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: loading conversation: %w", err)
	}
	msgs := []model.Message{}
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, fmt.Errorf("mongo: decoding conversation: %w", err)
	}
	return msgs, nil
}
