package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BiswasSwagatam/Muzik/internal/auth"
	"github.com/BiswasSwagatam/Muzik/internal/client"
	"github.com/BiswasSwagatam/Muzik/internal/config"
	"github.com/BiswasSwagatam/Muzik/internal/media"
	"github.com/BiswasSwagatam/Muzik/internal/model"
	sqliteRepo "github.com/BiswasSwagatam/Muzik/internal/repository/sqlite"
)

const adminPassword = "let-me-in-please"

type testServer struct {
	*httptest.Server
	token string
}

// newTestServer runs the full router over an in-memory SQLite store and a
// temporary media directory, and signs in as the local admin.
func newTestServer(t *testing.T) *testServer {
	t.Helper()

	hash, err := auth.NewPasswordServiceForTest(4).Hash(adminPassword)
	require.NoError(t, err)

	db, err := sqliteRepo.New(":memory:")
	require.NoError(t, err)

	ts := &testServer{}
	ts.Server = httptest.NewUnstartedServer(nil)

	cfg := &config.Config{
		AppEnv:             "development",
		StoreDriver:        config.StoreSQLite,
		MediaBackend:       config.MediaLocal,
		MediaMaxFileBytes:  1 << 20,
		MediaBaseURL:       "http://" + ts.Listener.Addr().String() + "/media",
		JWTSecret:          "server-test-secret-0123456789",
		AdminUsername:      "admin",
		AdminPasswordHash:  hash,
		CORSAllowedOrigins: []string{"http://localhost:3000"},
	}
	mediaStore, err := media.NewLocalStore(t.TempDir(), cfg.MediaBaseURL)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := newServer(cfg, logger, db, mediaStore)
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })

	ts.Config.Handler = srv.Handler()
	ts.Start()
	t.Cleanup(ts.Close)

	resp, err := http.Post(ts.URL+"/api/auth/login", "application/json",
		strings.NewReader(`{"username":"admin","password":"`+adminPassword+`"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&login))
	ts.token = login.Token
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body io.Reader, contentType string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, body)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if ts.token != "" {
		req.Header.Set("Authorization", "Bearer "+ts.token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (ts *testServer) upload(t *testing.T, path string, fields map[string]string, files map[string]string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for field, name := range files {
		part, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		part.Write([]byte("content of " + name))
	}
	require.NoError(t, mw.Close())
	return ts.do(t, http.MethodPost, path, &buf, mw.FormDataContentType())
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestCatalogLifecycle(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.upload(t, "/api/admin/albums",
		map[string]string{"title": "Discovery", "artist": "Daft Punk", "releaseYear": "2001"},
		map[string]string{"imageFile": "cover.jpg"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	album := decode[struct{ Album model.Album }](t, resp).Album

	resp = ts.upload(t, "/api/admin/songs",
		map[string]string{"title": "One More Time", "artist": "Daft Punk", "duration": "320", "albumId": album.ID},
		map[string]string{"audioFile": "omt.mp3", "imageFile": "omt.jpg"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	song := decode[struct{ Song model.Song }](t, resp).Song

	// The stored audio is served back from its URL.
	audio, err := http.Get(song.AudioURL)
	require.NoError(t, err)
	body, _ := io.ReadAll(audio.Body)
	audio.Body.Close()
	assert.Equal(t, http.StatusOK, audio.StatusCode)
	assert.Equal(t, "content of omt.mp3", string(body))

	resp = ts.do(t, http.MethodGet, "/api/albums/"+album.ID, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	detail := decode[model.AlbumDetail](t, resp)
	require.Len(t, detail.Songs, 1)
	assert.Equal(t, song.ID, detail.Songs[0].ID)

	resp = ts.do(t, http.MethodGet, "/api/admin/integrity", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	report := decode[model.IntegrityReport](t, resp)
	assert.True(t, report.Clean())

	resp = ts.do(t, http.MethodDelete, "/api/admin/albums/"+album.ID, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.do(t, http.MethodDelete, "/api/admin/songs/"+song.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "the cascade removed the song")

	resp = ts.do(t, http.MethodDelete, "/api/admin/albums/"+album.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateSong_UnknownAlbumIsIntegrityError(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.upload(t, "/api/admin/songs",
		map[string]string{"title": "Lost", "artist": "Nobody", "duration": "60", "albumId": "no-such-album"},
		map[string]string{"audioFile": "lost.mp3", "imageFile": "lost.jpg"})

	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body := decode[map[string]string](t, resp)
	assert.Equal(t, "integrity_inconsistency", body["error"])
	assert.NotEmpty(t, body["id"])

	resp = ts.do(t, http.MethodGet, "/api/admin/integrity", nil, "")
	report := decode[model.IntegrityReport](t, resp)
	assert.Equal(t, []model.SongRef{{SongID: body["id"], AlbumID: "no-such-album"}}, report.DanglingSongs)
}

func TestAccessControl(t *testing.T) {
	ts := newTestServer(t)
	anonymous := &testServer{Server: ts.Server}

	tests := []struct {
		name   string
		client *testServer
		method string
		path   string
		want   int
	}{
		{"health", anonymous, http.MethodGet, "/healthz", http.StatusOK},
		{"public albums", anonymous, http.MethodGet, "/api/albums", http.StatusOK},
		{"public featured", anonymous, http.MethodGet, "/api/songs/featured", http.StatusOK},
		{"all songs needs auth", anonymous, http.MethodGet, "/api/songs", http.StatusUnauthorized},
		{"users need auth", anonymous, http.MethodGet, "/api/users", http.StatusUnauthorized},
		{"admin check needs auth", anonymous, http.MethodGet, "/api/admin/check", http.StatusUnauthorized},
		{"admin check", ts, http.MethodGet, "/api/admin/check", http.StatusOK},
		{"stats", ts, http.MethodGet, "/api/stats", http.StatusOK},
		{"me", ts, http.MethodGet, "/api/auth/me", http.StatusOK},
		{"github disabled", anonymous, http.MethodGet, "/auth/github/login", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := tt.client.do(t, tt.method, tt.path, nil, "")
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestLocalLogin_WrongPassword(t *testing.T) {
	ts := newTestServer(t)

	resp := (&testServer{Server: ts.Server}).do(t, http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"username":"admin","password":"guess"}`), "application/json")

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMusicStoreAgainstServer(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.upload(t, "/api/admin/albums",
		map[string]string{"title": "Homework", "artist": "Daft Punk", "releaseYear": "1997"},
		map[string]string{"imageFile": "homework.jpg"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	album := decode[struct{ Album model.Album }](t, resp).Album

	resp = ts.upload(t, "/api/admin/songs",
		map[string]string{"title": "Da Funk", "artist": "Daft Punk", "duration": "328", "albumId": album.ID},
		map[string]string{"audioFile": "dafunk.mp3", "imageFile": "dafunk.jpg"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	ctx := context.Background()
	store := client.NewMusicStore(client.New(ts.URL + "/api"))

	require.NoError(t, store.FetchAlbums(ctx))
	require.NoError(t, store.FetchAlbumByID(ctx, album.ID))
	require.NoError(t, store.FetchFeaturedSongs(ctx))

	state := store.Snapshot()
	require.Len(t, state.Albums, 1)
	require.NotNil(t, state.CurrentAlbum)
	require.Len(t, state.CurrentAlbum.Songs, 1)
	assert.Equal(t, "Da Funk", state.CurrentAlbum.Songs[0].Title)
	assert.Len(t, state.Featured, 1)

	err := store.FetchAlbumByID(ctx, "missing")
	require.Error(t, err)
	assert.Equal(t, "album not found with id missing", store.Snapshot().Error)

	chat := client.NewChatStore(client.New(ts.URL+"/api", client.WithToken(ts.token)))
	require.NoError(t, chat.FetchUsers(ctx))
	assert.Empty(t, chat.Snapshot().Users, "the admin is the only user")
}

func TestNewServer_RejectsPlaintextAdminHash(t *testing.T) {
	db, err := sqliteRepo.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	mediaStore, err := media.NewLocalStore(t.TempDir(), "http://localhost/media")
	require.NoError(t, err)

	cfg := &config.Config{
		JWTSecret:         "server-test-secret-0123456789",
		AdminUsername:     "admin",
		AdminPasswordHash: adminPassword,
	}
	_, err = newServer(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), db, mediaStore)

	assert.ErrorContains(t, err, "ADMIN_PASSWORD_HASH")
}
