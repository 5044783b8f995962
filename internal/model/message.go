package model

import "time"

// Message is a direct message between two users.
type Message struct {
	ID         string    `json:"_id"        db:"id"          bson:"_id"`
	SenderID   string    `json:"senderId"   db:"sender_id"   bson:"senderId"`
	ReceiverID string    `json:"receiverId" db:"receiver_id" bson:"receiverId"`
	Content    string    `json:"content"    db:"content"     bson:"content"`
	CreatedAt  time.Time `json:"createdAt"  db:"created_at"  bson:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"  db:"updated_at"  bson:"updatedAt"`
}
