package model

import (
	"slices"
	"time"
)

// Album groups songs. SongIDs is the tracklist: the authoritative forward
// reference to member songs. Order carries no meaning and ids are unique.
type Album struct {
	ID          string    `json:"_id"         db:"id"           bson:"_id"`
	Title       string    `json:"title"       db:"title"        bson:"title"`
	Artist      string    `json:"artist"      db:"artist"       bson:"artist"`
	ReleaseYear int       `json:"releaseYear" db:"release_year" bson:"releaseYear"`
	ImageURL    string    `json:"imageUrl"    db:"image_url"    bson:"imageUrl"`
	SongIDs     []string  `json:"songs"       db:"-"            bson:"songs"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"   bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"   db:"updated_at"   bson:"updatedAt"`
}

// Lists reports whether songID is on the tracklist.
func (a *Album) Lists(songID string) bool {
	return slices.Contains(a.SongIDs, songID)
}

// AlbumDetail is an album with its tracklist resolved to song records.
type AlbumDetail struct {
	Album
	Songs []Song `json:"songs"`
}
