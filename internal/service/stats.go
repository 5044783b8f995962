package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/BiswasSwagatam/Muzik/internal/model"
	"github.com/BiswasSwagatam/Muzik/internal/repository"
)

// StatsService computes the admin dashboard counters.
type StatsService struct {
	songs  repository.SongRepository
	albums repository.AlbumRepository
	users  repository.UserRepository
}

func NewStatsService(songs repository.SongRepository, albums repository.AlbumRepository, users repository.UserRepository) *StatsService {
	return &StatsService{songs: songs, albums: albums, users: users}
}

// Stats runs the counts concurrently. TotalArtists counts distinct artist
// names across songs and albums together.
func (s *StatsService) Stats(ctx context.Context) (*model.Stats, error) {
	var (
		stats        model.Stats
		songArtists  []string
		albumArtists []string
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.TotalSongs, err = s.songs.Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalAlbums, err = s.albums.Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalUsers, err = s.users.Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		songArtists, err = s.songs.Artists(ctx)
		return err
	})
	g.Go(func() (err error) {
		albumArtists, err = s.albums.Artists(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("computing stats: %w", err)
	}

	artists := make(map[string]struct{}, len(songArtists)+len(albumArtists))
	for _, a := range songArtists {
		artists[a] = struct{}{}
	}
	for _, a := range albumArtists {
		artists[a] = struct{}{}
	}
	stats.TotalArtists = int64(len(artists))

	return &stats, nil
}
