package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/BiswasSwagatam/Muzik/internal/apperror"
	"github.com/BiswasSwagatam/Muzik/internal/media"
	"github.com/BiswasSwagatam/Muzik/internal/model"
	"github.com/BiswasSwagatam/Muzik/internal/repository"
)

// =========================================================================
// IN-MEMORY FAKES
// =========================================================================
//
// The fakes behave like the real repositories where the services depend on
// it: NotFound on misses, set semantics on the tracklist, DeleteByAlbum as
// an equality filter. Each can be told to fail, and the song and album fakes
// append to a shared call log so tests can check the order of writes.

type callLog struct {
	calls []string
}

func (l *callLog) record(call string) {
	l.calls = append(l.calls, call)
}

type fakeSongRepo struct {
	log    *callLog
	songs  map[string]*model.Song
	seq    map[string]int
	nextID int

	createErr error
	deleteErr error
}

func (f *fakeSongRepo) Create(_ context.Context, song *model.Song) error {
	f.log.record("songs.Create")
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	song.ID = fmt.Sprintf("song-%d", f.nextID)
	song.CreatedAt = time.Now()
	song.UpdatedAt = song.CreatedAt
	f.put(*song)
	return nil
}

// put stores a copy without going through Create, for seeding broken states.
func (f *fakeSongRepo) put(song model.Song) {
	if song.AlbumID != nil {
		id := *song.AlbumID
		song.AlbumID = &id
	}
	f.songs[song.ID] = &song
	if _, ok := f.seq[song.ID]; !ok {
		f.seq[song.ID] = len(f.seq)
	}
}

func (f *fakeSongRepo) GetByID(_ context.Context, id string) (*model.Song, error) {
	s, ok := f.songs[id]
	if !ok {
		return nil, apperror.NotFound("song", id)
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSongRepo) ListByIDs(_ context.Context, ids []string) ([]model.Song, error) {
	out := []model.Song{}
	for _, s := range f.sorted() {
		if slices.Contains(ids, s.ID) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSongRepo) List(_ context.Context) ([]model.Song, error) {
	out := f.sorted()
	slices.Reverse(out)
	return out, nil
}

// Sample is deterministic: the first n songs in creation order.
func (f *fakeSongRepo) Sample(_ context.Context, n int) ([]model.Song, error) {
	out := f.sorted()
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (f *fakeSongRepo) Delete(_ context.Context, id string) error {
	f.log.record("songs.Delete")
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.songs[id]; !ok {
		return apperror.NotFound("song", id)
	}
	delete(f.songs, id)
	return nil
}

func (f *fakeSongRepo) DeleteByAlbum(_ context.Context, albumID string) (int64, error) {
	f.log.record("songs.DeleteByAlbum")
	var n int64
	for id, s := range f.songs {
		if s.InAlbum(albumID) {
			delete(f.songs, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeSongRepo) Count(_ context.Context) (int64, error) {
	return int64(len(f.songs)), nil
}

func (f *fakeSongRepo) Artists(_ context.Context) ([]string, error) {
	var out []string
	for _, s := range f.songs {
		if !slices.Contains(out, s.Artist) {
			out = append(out, s.Artist)
		}
	}
	return out, nil
}

func (f *fakeSongRepo) sorted() []model.Song {
	out := make([]model.Song, 0, len(f.songs))
	for _, s := range f.songs {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return f.seq[out[i].ID] < f.seq[out[j].ID] })
	return out
}

type fakeAlbumRepo struct {
	log    *callLog
	albums map[string]*model.Album
	nextID int

	addErr    error
	removeErr error
}

func (f *fakeAlbumRepo) Create(_ context.Context, album *model.Album) error {
	f.nextID++
	album.ID = fmt.Sprintf("album-%d", f.nextID)
	album.CreatedAt = time.Now()
	album.UpdatedAt = album.CreatedAt
	f.put(*album)
	return nil
}

func (f *fakeAlbumRepo) put(album model.Album) {
	album.SongIDs = slices.Clone(album.SongIDs)
	if album.SongIDs == nil {
		album.SongIDs = []string{}
	}
	f.albums[album.ID] = &album
}

func (f *fakeAlbumRepo) GetByID(_ context.Context, id string) (*model.Album, error) {
	a, ok := f.albums[id]
	if !ok {
		return nil, apperror.NotFound("album", id)
	}
	cp := *a
	cp.SongIDs = slices.Clone(a.SongIDs)
	return &cp, nil
}

func (f *fakeAlbumRepo) List(_ context.Context) ([]model.Album, error) {
	out := make([]model.Album, 0, len(f.albums))
	for _, a := range f.albums {
		cp := *a
		cp.SongIDs = slices.Clone(a.SongIDs)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeAlbumRepo) AddSong(_ context.Context, albumID, songID string) error {
	f.log.record("albums.AddSong")
	if f.addErr != nil {
		return f.addErr
	}
	a, ok := f.albums[albumID]
	if !ok {
		return apperror.NotFound("album", albumID)
	}
	if !a.Lists(songID) {
		a.SongIDs = append(a.SongIDs, songID)
	}
	return nil
}

func (f *fakeAlbumRepo) RemoveSong(_ context.Context, albumID, songID string) error {
	f.log.record("albums.RemoveSong")
	if f.removeErr != nil {
		return f.removeErr
	}
	a, ok := f.albums[albumID]
	if !ok {
		return apperror.NotFound("album", albumID)
	}
	a.SongIDs = slices.DeleteFunc(a.SongIDs, func(id string) bool { return id == songID })
	return nil
}

func (f *fakeAlbumRepo) Delete(_ context.Context, id string) error {
	f.log.record("albums.Delete")
	if _, ok := f.albums[id]; !ok {
		return apperror.NotFound("album", id)
	}
	delete(f.albums, id)
	return nil
}

func (f *fakeAlbumRepo) Count(_ context.Context) (int64, error) {
	return int64(len(f.albums)), nil
}

func (f *fakeAlbumRepo) Artists(_ context.Context) ([]string, error) {
	var out []string
	for _, a := range f.albums {
		if !slices.Contains(out, a.Artist) {
			out = append(out, a.Artist)
		}
	}
	return out, nil
}

type fakeUserRepo struct {
	users      map[string]*model.User
	byExternal map[string]*model.User
	nextID     int

	upsertErr  error
	getByIDErr error

	// upsertErrOnce clears upsertErr after it is returned once.
	upsertErrOnce bool
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:      make(map[string]*model.User),
		byExternal: make(map[string]*model.User),
	}
}

func (f *fakeUserRepo) Upsert(_ context.Context, user *model.User) error {
	if f.upsertErr != nil {
		err := f.upsertErr
		if f.upsertErrOnce {
			f.upsertErr = nil
		}
		return err
	}
	if user.ExternalID == "" {
		return apperror.ValidationFailed("externalId", "external id is required")
	}
	if existing, ok := f.byExternal[user.ExternalID]; ok {
		existing.Login = user.Login
		existing.FullName = user.FullName
		existing.Email = user.Email
		existing.ImageURL = user.ImageURL
		existing.UpdatedAt = time.Now()
		*user = *existing
		return nil
	}
	f.nextID++
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	f.users[user.ID] = &stored
	f.byExternal[user.ExternalID] = &stored
	return nil
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	if f.getByIDErr != nil {
		return nil, f.getByIDErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) ListExcept(_ context.Context, id string) ([]model.User, error) {
	out := []model.User{}
	for _, u := range f.users {
		if u.ID != id {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeUserRepo) Count(_ context.Context) (int64, error) {
	return int64(len(f.users)), nil
}

type fakeMessageRepo struct {
	msgs      []model.Message
	createErr error
}

func (f *fakeMessageRepo) Create(_ context.Context, msg *model.Message) error {
	if f.createErr != nil {
		return f.createErr
	}
	msg.ID = fmt.Sprintf("msg-%d", len(f.msgs)+1)
	msg.CreatedAt = time.Now()
	f.msgs = append(f.msgs, *msg)
	return nil
}

func (f *fakeMessageRepo) Conversation(_ context.Context, a, b string) ([]model.Message, error) {
	out := []model.Message{}
	for _, m := range f.msgs {
		if (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a) {
			out = append(out, m)
		}
	}
	return out, nil
}

// fakeUploader returns a URL derived from the file name. Uploads of names
// listed in fail return that error.
type fakeUploader struct {
	mu       sync.Mutex
	fail     map[string]error
	uploaded []string
}

func (f *fakeUploader) Upload(_ context.Context, file media.File) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[file.Name]; err != nil {
		return "", err
	}
	f.uploaded = append(f.uploaded, file.Name)
	return "https://media.test/" + file.Name, nil
}

var (
	_ repository.SongRepository    = (*fakeSongRepo)(nil)
	_ repository.AlbumRepository   = (*fakeAlbumRepo)(nil)
	_ repository.UserRepository    = (*fakeUserRepo)(nil)
	_ repository.MessageRepository = (*fakeMessageRepo)(nil)
	_ media.Uploader               = (*fakeUploader)(nil)
)

// =========================================================================
// HELPERS
// =========================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type catalogFixture struct {
	svc      *CatalogService
	songs    *fakeSongRepo
	albums   *fakeAlbumRepo
	uploader *fakeUploader
	log      *callLog
}

func newCatalogFixture(t *testing.T) *catalogFixture {
	t.Helper()
	log := &callLog{}
	songs := &fakeSongRepo{log: log, songs: map[string]*model.Song{}, seq: map[string]int{}}
	albums := &fakeAlbumRepo{log: log, albums: map[string]*model.Album{}}
	uploader := &fakeUploader{fail: map[string]error{}}
	return &catalogFixture{
		svc:      NewCatalogService(songs, albums, uploader, testLogger()),
		songs:    songs,
		albums:   albums,
		uploader: uploader,
		log:      log,
	}
}

func strPtr(s string) *string { return &s }
