package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/BiswasSwagatam/Muzik/internal/apperror"
	"github.com/BiswasSwagatam/Muzik/internal/model"
	"github.com/BiswasSwagatam/Muzik/internal/repository"
)

var _ repository.AlbumRepository = (*AlbumDB)(nil)

// AlbumDB stores albums in the albums table and their tracklists in
// album_songs.
type AlbumDB struct {
	conn *sql.DB
}

const albumColumns = `id, title, artist, release_year, image_url, created_at, updated_at`

func scanAlbum(row rowScanner) (model.Album, error) {
	var a model.Album
	err := row.Scan(&a.ID, &a.Title, &a.Artist, &a.ReleaseYear, &a.ImageURL, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

// Create inserts the album. Any SongIDs already set are written to the
// tracklist in the same transaction.
func (db *AlbumDB) Create(ctx context.Context, album *model.Album) error {
	album.ID = xid.New().String()
	now := time.Now()
	album.CreatedAt = now
	album.UpdatedAt = now
	if album.SongIDs == nil {
		album.SongIDs = []string{}
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning album insert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	_, err = tx.ExecContext(ctx,
		`INSERT INTO albums (`+albumColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		album.ID,
		album.Title,
		album.Artist,
		album.ReleaseYear,
		album.ImageURL,
		album.CreatedAt,
		album.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating album: %w", err)
	}

	for _, songID := range album.SongIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO album_songs (album_id, song_id, added_at) VALUES (?, ?, ?)`,
			album.ID, songID, now,
		); err != nil {
			return fmt.Errorf("sqlite: listing song %s on album %s: %w", songID, album.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing album insert: %w", err)
	}
	return nil
}

func (db *AlbumDB) GetByID(ctx context.Context, id string) (*model.Album, error) {
	a, err := scanAlbum(db.conn.QueryRowContext(ctx,
		`SELECT `+albumColumns+` FROM albums WHERE id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("album", id)
		}
		return nil, fmt.Errorf("sqlite: getting album %s: %w", id, err)
	}

	a.SongIDs, err = queryStrings(ctx, db.conn, "loading tracklist",
		`SELECT song_id FROM album_songs WHERE album_id = ? ORDER BY added_at, rowid`, id)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// List returns every album with its tracklist, newest first.
func (db *AlbumDB) List(ctx context.Context) ([]model.Album, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+albumColumns+` FROM albums ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing albums: %w", err)
	}
	defer rows.Close()

	albums := []model.Album{}
	index := map[string]int{}
	for rows.Next() {
		a, err := scanAlbum(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning album row: %w", err)
		}
		a.SongIDs = []string{}
		index[a.ID] = len(albums)
		albums = append(albums, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: listing albums: %w", err)
	}
	rows.Close()

	// One pass over the join table instead of one query per album.
	links, err := db.conn.QueryContext(ctx,
		`SELECT album_id, song_id FROM album_songs ORDER BY added_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tracklists: %w", err)
	}
	defer links.Close()

	for links.Next() {
		var albumID, songID string
		if err := links.Scan(&albumID, &songID); err != nil {
			return nil, fmt.Errorf("sqlite: scanning tracklist row: %w", err)
		}
		if i, ok := index[albumID]; ok {
			albums[i].SongIDs = append(albums[i].SongIDs, songID)
		}
	}
	if err := links.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: listing tracklists: %w", err)
	}
	return albums, nil
}

// AddSong lists songID on the album. The primary key on (album_id, song_id)
// plus INSERT OR IGNORE gives set semantics.
func (db *AlbumDB) AddSong(ctx context.Context, albumID, songID string) error {
	if err := db.touch(ctx, albumID); err != nil {
		return err
	}
	_, err := db.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO album_songs (album_id, song_id, added_at) VALUES (?, ?, ?)`,
		albumID, songID, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: adding song %s to album %s: %w", songID, albumID, err)
	}
	return nil
}

// RemoveSong unlists songID. Zero affected rows is not an error.
func (db *AlbumDB) RemoveSong(ctx context.Context, albumID, songID string) error {
	if err := db.touch(ctx, albumID); err != nil {
		return err
	}
	_, err := db.conn.ExecContext(ctx,
		`DELETE FROM album_songs WHERE album_id = ? AND song_id = ?`,
		albumID, songID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: removing song %s from album %s: %w", songID, albumID, err)
	}
	return nil
}

// touch bumps updated_at and doubles as the existence check for tracklist
// edits.
func (db *AlbumDB) touch(ctx context.Context, albumID string) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE albums SET updated_at = ? WHERE id = ?`, time.Now(), albumID)
	if err != nil {
		return fmt.Errorf("sqlite: updating album %s: %w", albumID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("album", albumID)
	}
	return nil
}

// Delete removes the album; its album_songs rows go with it via ON DELETE
// CASCADE. Songs are not touched.
func (db *AlbumDB) Delete(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM albums WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting album %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("album", id)
	}
	return nil
}

func (db *AlbumDB) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM albums`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: counting albums: %w", err)
	}
	return n, nil
}

func (db *AlbumDB) Artists(ctx context.Context) ([]string, error) {
	return queryStrings(ctx, db.conn, "listing album artists",
		`SELECT DISTINCT artist FROM albums ORDER BY artist`)
}
