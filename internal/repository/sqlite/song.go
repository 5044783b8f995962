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

var _ repository.SongRepository = (*SongDB)(nil)

// SongDB stores songs in the songs table.
type SongDB struct {
	conn *sql.DB
}

const songColumns = `id, title, artist, duration, audio_url, image_url, album_id, created_at, updated_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSong(row rowScanner) (model.Song, error) {
	var (
		s       model.Song
		albumID sql.NullString
	)
	err := row.Scan(
		&s.ID, &s.Title, &s.Artist, &s.Duration,
		&s.AudioURL, &s.ImageURL, &albumID,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return model.Song{}, err
	}
	if albumID.Valid {
		s.AlbumID = &albumID.String
	}
	return s, nil
}

// Create inserts a new song, filling in ID and timestamps.
func (db *SongDB) Create(ctx context.Context, song *model.Song) error {
	song.ID = xid.New().String()
	now := time.Now()
	song.CreatedAt = now
	song.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO songs (`+songColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		song.ID,
		song.Title,
		song.Artist,
		song.Duration,
		song.AudioURL,
		song.ImageURL,
		song.AlbumID, // nil pointer → NULL
		song.CreatedAt,
		song.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating song: %w", err)
	}
	return nil
}

func (db *SongDB) GetByID(ctx context.Context, id string) (*model.Song, error) {
	s, err := scanSong(db.conn.QueryRowContext(ctx,
		`SELECT `+songColumns+` FROM songs WHERE id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("song", id)
		}
		return nil, fmt.Errorf("sqlite: getting song %s: %w", id, err)
	}
	return &s, nil
}

func (db *SongDB) ListByIDs(ctx context.Context, ids []string) ([]model.Song, error) {
	if len(ids) == 0 {
		return []model.Song{}, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return db.query(ctx, "listing songs by id",
		`SELECT `+songColumns+` FROM songs
		 WHERE id IN (`+placeholders(len(ids))+`)
		 ORDER BY created_at, id`,
		args...,
	)
}

func (db *SongDB) List(ctx context.Context) ([]model.Song, error) {
	return db.query(ctx, "listing songs",
		`SELECT `+songColumns+` FROM songs ORDER BY created_at DESC, id DESC`,
	)
}

func (db *SongDB) Sample(ctx context.Context, n int) ([]model.Song, error) {
	if n <= 0 {
		return []model.Song{}, nil
	}
	return db.query(ctx, "sampling songs",
		`SELECT `+songColumns+` FROM songs ORDER BY RANDOM() LIMIT ?`, n,
	)
}

func (db *SongDB) Delete(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM songs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting song %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("song", id)
	}
	return nil
}

// DeleteByAlbum removes songs by their album_id column. The tracklist is not
// consulted, so songs missing from it are removed too.
func (db *SongDB) DeleteByAlbum(ctx context.Context, albumID string) (int64, error) {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM songs WHERE album_id = ?`, albumID)
	if err != nil {
		return 0, fmt.Errorf("sqlite: deleting songs of album %s: %w", albumID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return n, nil
}

func (db *SongDB) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM songs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: counting songs: %w", err)
	}
	return n, nil
}

func (db *SongDB) Artists(ctx context.Context) ([]string, error) {
	return queryStrings(ctx, db.conn, "listing song artists",
		`SELECT DISTINCT artist FROM songs ORDER BY artist`)
}

func (db *SongDB) query(ctx context.Context, action, query string, args ...any) ([]model.Song, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: %s: %w", action, err)
	}
	defer rows.Close()

	songs := []model.Song{}
	for rows.Next() {
		s, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning song row: %w", err)
		}
		songs = append(songs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: %s: %w", action, err)
	}
	return songs, nil
}

// queryStrings runs a single-column query and collects the values.
func queryStrings(ctx context.Context, conn *sql.DB, action, query string, args ...any) ([]string, error) {
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: %s: %w", action, err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("sqlite: %s: %w", action, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: %s: %w", action, err)
	}
	return out, nil
}
