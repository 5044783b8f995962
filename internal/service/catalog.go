// Package service holds the business rules of the catalog, the users and
// authentication. Services take repository interfaces and know nothing of HTTP.
package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/BiswasSwagatam/Muzik/internal/apperror"
	"github.com/BiswasSwagatam/Muzik/internal/media"
	"github.com/BiswasSwagatam/Muzik/internal/model"
	"github.com/BiswasSwagatam/Muzik/internal/repository"
)

// Sample sizes of the home page song rows.
const (
	FeaturedCount   = 6
	MadeForYouCount = 4
	TrendingCount   = 4
)

const (
	MinReleaseYear = 1000
	MaxReleaseYear = 9999
)

// SongInput is what an admin submits to create a song.
type SongInput struct {
	Title    string
	Artist   string
	Duration int    // seconds
	AlbumID  string // empty for a standalone song
	Audio    *media.File
	Image    *media.File
}

// AlbumInput is what an admin submits to create an album.
type AlbumInput struct {
	Title       string
	Artist      string
	ReleaseYear int
	Image       *media.File
}

// CatalogService owns songs and albums and keeps their references
// consistent.
//
// REFERENCE RULES:
// Album.SongIDs (the tracklist) is the forward reference and Song.AlbumID
// the back-reference. Every write that touches both does so in a fixed order:
//
//	CreateSong:  create song       → add id to tracklist
//	DeleteSong:  pull id from list → delete song
//	DeleteAlbum: delete songs by albumId filter → delete album
//
// There are no transactions. When the second step fails the first is not
// undone; CreateSong reports that as ErrIntegrity and Reconcile can find and
// repair what was left behind.
type CatalogService struct {
	songs    repository.SongRepository
	albums   repository.AlbumRepository
	uploader media.Uploader
	logger   *slog.Logger
}

func NewCatalogService(
	songs repository.SongRepository,
	albums repository.AlbumRepository,
	uploader media.Uploader,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		songs:    songs,
		albums:   albums,
		uploader: uploader,
		logger:   logger,
	}
}

// CreateSong uploads the audio and image files concurrently, stores the song
// and, when an album id is given, adds the song to that album's tracklist.
//
// The album id is not checked up front. If adding to the tracklist fails the
// song stays stored and an ErrIntegrity error carrying the song id is
// returned; it also matches the cause (ErrNotFound for a missing album).
func (s *CatalogService) CreateSong(ctx context.Context, in SongInput) (*model.Song, error) {
	if in.Audio == nil || in.Image == nil {
		return nil, apperror.ValidationFailed("files", "audio and image files are required")
	}

	in.Title = strings.TrimSpace(in.Title)
	in.Artist = strings.TrimSpace(in.Artist)
	if in.Title == "" || in.Artist == "" {
		s.fillFromTags(&in)
	}

	if in.Title == "" {
		return nil, apperror.ValidationFailed("title", "song title is required")
	}
	if in.Artist == "" {
		return nil, apperror.ValidationFailed("artist", "song artist is required")
	}
	if in.Duration <= 0 {
		return nil, apperror.ValidationFailed("duration", "song duration must be a positive number of seconds")
	}

	audioURL, imageURL, err := s.uploadPair(ctx, *in.Audio, *in.Image)
	if err != nil {
		return nil, err
	}

	song := &model.Song{
		Title:    in.Title,
		Artist:   in.Artist,
		Duration: in.Duration,
		AudioURL: audioURL,
		ImageURL: imageURL,
	}
	albumID := strings.TrimSpace(in.AlbumID)
	if albumID != "" {
		song.AlbumID = &albumID
	}

	if err := s.songs.Create(ctx, song); err != nil {
		s.logger.Error("failed to create song",
			slog.String("title", song.Title),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating song: %w", err)
	}

	if albumID != "" {
		if err := s.albums.AddSong(ctx, albumID, song.ID); err != nil {
			s.logger.Error("song created but not linked to album",
				slog.String("songID", song.ID),
				slog.String("albumID", albumID),
				slog.String("error", err.Error()),
			)
			return nil, apperror.IntegrityInconsistency(song.ID,
				fmt.Sprintf("song %s was created but could not be added to album %s", song.ID, albumID),
				err,
			)
		}
	}

	s.logger.Info("song created",
		slog.String("id", song.ID),
		slog.String("title", song.Title),
		slog.Bool("inAlbum", song.AlbumID != nil),
	)
	return song, nil
}

// fillFromTags fills a blank title or artist from the audio file's metadata.
func (s *CatalogService) fillFromTags(in *SongInput) {
	if in.Audio.Reader == nil {
		return
	}
	tags, err := media.ReadTags(in.Audio.Reader)
	if err != nil {
		s.logger.Debug("no usable audio tags",
			slog.String("file", in.Audio.Name),
			slog.String("error", err.Error()),
		)
		return
	}
	if in.Title == "" {
		in.Title = tags.Title
	}
	if in.Artist == "" {
		in.Artist = tags.Artist
	}
}

// uploadPair runs both uploads at once. The first failure cancels the other.
func (s *CatalogService) uploadPair(ctx context.Context, audio, image media.File) (string, string, error) {
	var audioURL, imageURL string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		url, err := s.uploader.Upload(gctx, audio)
		if err != nil {
			return apperror.MediaUploadFailed("audioFile", err)
		}
		audioURL = url
		return nil
	})
	g.Go(func() error {
		url, err := s.uploader.Upload(gctx, image)
		if err != nil {
			return apperror.MediaUploadFailed("imageFile", err)
		}
		imageURL = url
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("media upload failed", slog.String("error", err.Error()))
		return "", "", err
	}
	return audioURL, imageURL, nil
}

// DeleteSong removes the song from its album's tracklist, then deletes it.
// A missing album leaves nothing to detach and is not an error.
func (s *CatalogService) DeleteSong(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "song ID is required")
	}

	song, err := s.songs.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if song.AlbumID != nil {
		err := s.albums.RemoveSong(ctx, *song.AlbumID, song.ID)
		switch {
		case errors.Is(err, apperror.ErrNotFound):
			s.logger.Warn("song references a missing album",
				slog.String("songID", song.ID),
				slog.String("albumID", *song.AlbumID),
			)
		case err != nil:
			return fmt.Errorf("detaching song %s from album %s: %w", song.ID, *song.AlbumID, err)
		}
	}

	if err := s.songs.Delete(ctx, song.ID); err != nil {
		return fmt.Errorf("deleting song %s: %w", song.ID, err)
	}

	s.logger.Info("song deleted", slog.String("id", song.ID))
	return nil
}

// CreateAlbum uploads the cover image and stores a new, empty album.
func (s *CatalogService) CreateAlbum(ctx context.Context, in AlbumInput) (*model.Album, error) {
	if in.Image == nil {
		return nil, apperror.ValidationFailed("imageFile", "image file is required")
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "album title is required")
	}
	artist := strings.TrimSpace(in.Artist)
	if artist == "" {
		return nil, apperror.ValidationFailed("artist", "album artist is required")
	}
	if in.ReleaseYear < MinReleaseYear || in.ReleaseYear > MaxReleaseYear {
		return nil, apperror.ValidationFailed("releaseYear",
			fmt.Sprintf("release year must be between %d and %d", MinReleaseYear, MaxReleaseYear))
	}

	imageURL, err := s.uploader.Upload(ctx, *in.Image)
	if err != nil {
		s.logger.Error("album image upload failed", slog.String("error", err.Error()))
		return nil, apperror.MediaUploadFailed("imageFile", err)
	}

	album := &model.Album{
		Title:       title,
		Artist:      artist,
		ReleaseYear: in.ReleaseYear,
		ImageURL:    imageURL,
		SongIDs:     []string{},
	}
	if err := s.albums.Create(ctx, album); err != nil {
		s.logger.Error("failed to create album",
			slog.String("title", title),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating album: %w", err)
	}

	s.logger.Info("album created",
		slog.String("id", album.ID),
		slog.String("title", album.Title),
	)
	return album, nil
}

// DeleteAlbum deletes every song whose albumId is id, then the album.
// Songs are selected by their back-reference, not by the tracklist, so songs
// the tracklist lost track of are removed too.
func (s *CatalogService) DeleteAlbum(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "album ID is required")
	}

	if _, err := s.albums.GetByID(ctx, id); err != nil {
		return err
	}

	n, err := s.songs.DeleteByAlbum(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting songs of album %s: %w", id, err)
	}

	if err := s.albums.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting album %s: %w", id, err)
	}

	s.logger.Info("album deleted",
		slog.String("id", id),
		slog.Int64("songsDeleted", n),
	)
	return nil
}

// Reconcile compares every song's albumId with every album's tracklist.
//
// With repair set, unlisted songs are added back to their album and stale
// tracklist entries are pulled. Songs pointing at a missing album are only
// reported. Repairs continue past individual failures; the failures are
// joined into the returned error alongside the report.
func (s *CatalogService) Reconcile(ctx context.Context, repair bool) (*model.IntegrityReport, error) {
	songs, err := s.songs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing songs: %w", err)
	}
	albums, err := s.albums.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing albums: %w", err)
	}

	report := buildReport(songs, albums)

	if !repair {
		return report, nil
	}

	var errs []error
	for _, ref := range report.UnlistedSongs {
		if err := s.albums.AddSong(ctx, ref.AlbumID, ref.SongID); err != nil {
			errs = append(errs, fmt.Errorf("relisting song %s on album %s: %w", ref.SongID, ref.AlbumID, err))
			continue
		}
		report.Repaired++
	}
	for _, ref := range report.StaleEntries {
		if err := s.albums.RemoveSong(ctx, ref.AlbumID, ref.SongID); err != nil {
			errs = append(errs, fmt.Errorf("pulling song %s from album %s: %w", ref.SongID, ref.AlbumID, err))
			continue
		}
		report.Repaired++
	}

	s.logger.Info("integrity repair finished",
		slog.Int("unlisted", len(report.UnlistedSongs)),
		slog.Int("dangling", len(report.DanglingSongs)),
		slog.Int("stale", len(report.StaleEntries)),
		slog.Int("repaired", report.Repaired),
	)

	if err := errors.Join(errs...); err != nil {
		return report, err
	}
	return report, nil
}

func buildReport(songs []model.Song, albums []model.Album) *model.IntegrityReport {
	report := &model.IntegrityReport{
		UnlistedSongs: []model.SongRef{},
		DanglingSongs: []model.SongRef{},
		StaleEntries:  []model.SongRef{},
	}

	albumByID := make(map[string]*model.Album, len(albums))
	for i := range albums {
		albumByID[albums[i].ID] = &albums[i]
	}
	songByID := make(map[string]*model.Song, len(songs))
	for i := range songs {
		songByID[songs[i].ID] = &songs[i]
	}

	for _, song := range songs {
		if song.AlbumID == nil {
			continue
		}
		ref := model.SongRef{SongID: song.ID, AlbumID: *song.AlbumID}
		album, ok := albumByID[*song.AlbumID]
		switch {
		case !ok:
			report.DanglingSongs = append(report.DanglingSongs, ref)
		case !album.Lists(song.ID):
			report.UnlistedSongs = append(report.UnlistedSongs, ref)
		}
	}

	for _, album := range albums {
		for _, songID := range album.SongIDs {
			song, ok := songByID[songID]
			if !ok || !song.InAlbum(album.ID) {
				report.StaleEntries = append(report.StaleEntries, model.SongRef{SongID: songID, AlbumID: album.ID})
			}
		}
	}

	for _, refs := range [][]model.SongRef{report.UnlistedSongs, report.DanglingSongs, report.StaleEntries} {
		slices.SortFunc(refs, compareRefs)
	}
	return report
}

func compareRefs(a, b model.SongRef) int {
	return cmp.Or(cmp.Compare(a.AlbumID, b.AlbumID), cmp.Compare(a.SongID, b.SongID))
}

// ListSongs returns every song, newest first.
func (s *CatalogService) ListSongs(ctx context.Context) ([]model.Song, error) {
	songs, err := s.songs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing songs: %w", err)
	}
	return songs, nil
}

func (s *CatalogService) FeaturedSongs(ctx context.Context) ([]model.Song, error) {
	return s.sample(ctx, FeaturedCount)
}

func (s *CatalogService) MadeForYouSongs(ctx context.Context) ([]model.Song, error) {
	return s.sample(ctx, MadeForYouCount)
}

func (s *CatalogService) TrendingSongs(ctx context.Context) ([]model.Song, error) {
	return s.sample(ctx, TrendingCount)
}

func (s *CatalogService) sample(ctx context.Context, n int) ([]model.Song, error) {
	songs, err := s.songs.Sample(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("sampling %d songs: %w", n, err)
	}
	return songs, nil
}

func (s *CatalogService) ListAlbums(ctx context.Context) ([]model.Album, error) {
	albums, err := s.albums.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing albums: %w", err)
	}
	return albums, nil
}

// GetAlbum returns the album with its tracklist resolved, in tracklist
// order. Ids whose song no longer exists are skipped.
func (s *CatalogService) GetAlbum(ctx context.Context, id string) (*model.AlbumDetail, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "album ID is required")
	}

	album, err := s.albums.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	found, err := s.songs.ListByIDs(ctx, album.SongIDs)
	if err != nil {
		return nil, fmt.Errorf("loading songs of album %s: %w", id, err)
	}
	byID := make(map[string]model.Song, len(found))
	for _, song := range found {
		byID[song.ID] = song
	}

	detail := &model.AlbumDetail{Album: *album, Songs: make([]model.Song, 0, len(album.SongIDs))}
	for _, songID := range album.SongIDs {
		if song, ok := byID[songID]; ok {
			detail.Songs = append(detail.Songs, song)
		}
	}
	return detail, nil
}
