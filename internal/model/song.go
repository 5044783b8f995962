// Package model defines the records stored and served by the application.
//
// Each struct carries three sets of tags: json for the API, db for the SQLite
// columns and bson for the Mongo documents. Ids are xid strings in both
// stores so records can move between them unchanged.
package model

import "time"

// Song is a single playable track.
//
// AlbumID is the back-reference to the album whose tracklist lists this song.
// It is nil for standalone songs and is set once, at creation.
type Song struct {
	ID        string    `json:"_id"       db:"id"         bson:"_id"`
	Title     string    `json:"title"     db:"title"      bson:"title"`
	Artist    string    `json:"artist"    db:"artist"     bson:"artist"`
	Duration  int       `json:"duration"  db:"duration"   bson:"duration"` // seconds
	AudioURL  string    `json:"audioUrl"  db:"audio_url"  bson:"audioUrl"`
	ImageURL  string    `json:"imageUrl"  db:"image_url"  bson:"imageUrl"`
	AlbumID   *string   `json:"albumId"   db:"album_id"   bson:"albumId"`
	CreatedAt time.Time `json:"createdAt" db:"created_at" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at" bson:"updatedAt"`
}

// InAlbum reports whether the song references the given album.
func (s *Song) InAlbum(albumID string) bool {
	return s.AlbumID != nil && *s.AlbumID == albumID
}
