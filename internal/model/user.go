package model

import "time"

// User is an account synced from an identity provider.
//
// ExternalID is the provider's stable id, namespaced by provider:
// "github:1234567" for GitHub OAuth users, "local:<username>" for the
// break-glass admin account. It is unique across users.
type User struct {
	ID         string    `json:"_id"        db:"id"          bson:"_id"`
	ExternalID string    `json:"externalId" db:"external_id" bson:"externalId"`
	Login      string    `json:"login"      db:"login"       bson:"login"`
	FullName   string    `json:"fullName"   db:"full_name"   bson:"fullName"`
	Email      string    `json:"email"      db:"email"       bson:"email"`
	ImageURL   string    `json:"imageUrl"   db:"image_url"   bson:"imageUrl"`
	CreatedAt  time.Time `json:"createdAt"  db:"created_at"  bson:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"  db:"updated_at"  bson:"updatedAt"`
}
