package model

// Stats are the admin dashboard counters.
type Stats struct {
	TotalSongs   int64 `json:"totalSongs"`
	TotalAlbums  int64 `json:"totalAlbums"`
	TotalUsers   int64 `json:"totalUsers"`
	TotalArtists int64 `json:"totalArtists"`
}

// IntegrityReport lists album/song references that disagree.
type IntegrityReport struct {
	// UnlistedSongs reference an existing album that does not list them.
	UnlistedSongs []SongRef `json:"unlistedSongs"`
	// DanglingSongs reference an album that does not exist.
	DanglingSongs []SongRef `json:"danglingSongs"`
	// StaleEntries are tracklist ids whose song is missing or belongs elsewhere.
	StaleEntries []SongRef `json:"staleEntries"`
	// Repaired counts the fixes applied when a repair was requested.
	Repaired int `json:"repaired"`
}

// SongRef pairs a song id with the album id involved in an inconsistency.
type SongRef struct {
	SongID  string `json:"songId"`
	AlbumID string `json:"albumId"`
}

// Clean reports whether no inconsistency was found.
func (r *IntegrityReport) Clean() bool {
	return len(r.UnlistedSongs) == 0 && len(r.DanglingSongs) == 0 && len(r.StaleEntries) == 0
}
