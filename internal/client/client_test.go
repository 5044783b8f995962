package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BiswasSwagatam/Muzik/internal/model"
)

// fakeAPI serves canned JSON under /api the way the server lays out its
// routes, and records the Authorization header it saw last.
type fakeAPI struct {
	mu         sync.Mutex
	authHeader string
	albumFails bool
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	write := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(v)
	}
	songs := func(ids ...string) []model.Song {
		out := make([]model.Song, 0, len(ids))
		for _, id := range ids {
			out = append(out, model.Song{ID: id, Title: "Song " + id})
		}
		return out
	}

	mux.HandleFunc("GET /api/albums", func(w http.ResponseWriter, r *http.Request) {
		write(w, http.StatusOK, []model.Album{{ID: "a1", Title: "First", SongIDs: []string{"s1"}}})
	})
	mux.HandleFunc("GET /api/albums/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		fails := f.albumFails
		f.mu.Unlock()
		if fails || r.PathValue("id") != "a1" {
			write(w, http.StatusNotFound, map[string]string{
				"error":   "not_found",
				"message": "album not found with id " + r.PathValue("id"),
			})
			return
		}
		write(w, http.StatusOK, model.AlbumDetail{
			Album: model.Album{ID: "a1", Title: "First"},
			Songs: songs("s1"),
		})
	})
	mux.HandleFunc("GET /api/songs/featured", func(w http.ResponseWriter, r *http.Request) {
		write(w, http.StatusOK, songs("s1", "s2", "s3", "s4", "s5", "s6"))
	})
	mux.HandleFunc("GET /api/songs/made-for-you", func(w http.ResponseWriter, r *http.Request) {
		write(w, http.StatusOK, songs("s1", "s2", "s3", "s4"))
	})
	mux.HandleFunc("GET /api/songs/trending", func(w http.ResponseWriter, r *http.Request) {
		write(w, http.StatusOK, songs("s4", "s3", "s2", "s1"))
	})
	mux.HandleFunc("GET /api/users", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.authHeader = r.Header.Get("Authorization")
		f.mu.Unlock()
		if r.Header.Get("Authorization") == "" {
			write(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized", "message": "authentication required"})
			return
		}
		write(w, http.StatusOK, []model.User{{ID: "u2", Login: "bob"}})
	})
	mux.HandleFunc("GET /api/users/messages/{userId}", func(w http.ResponseWriter, r *http.Request) {
		write(w, http.StatusOK, []model.Message{
			{ID: "m1", SenderID: "u1", ReceiverID: r.PathValue("userId"), Content: "hi"},
			{ID: "m2", SenderID: r.PathValue("userId"), ReceiverID: "u1", Content: "hey"},
		})
	})
	mux.HandleFunc("GET /api/broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	})
	return mux
}

func newTestClient(t *testing.T, opts ...Option) (*Client, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{}
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api/", opts...), api
}

func TestClient_Reads(t *testing.T) {
	c, _ := newTestClient(t, WithToken("tok"))
	ctx := context.Background()

	albums, err := c.Albums(ctx)
	require.NoError(t, err)
	require.Len(t, albums, 1)
	assert.Equal(t, []string{"s1"}, albums[0].SongIDs)

	album, err := c.Album(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, album.Songs, 1)
	assert.Equal(t, "s1", album.Songs[0].ID)

	featured, err := c.FeaturedSongs(ctx)
	require.NoError(t, err)
	assert.Len(t, featured, 6)

	forYou, err := c.MadeForYouSongs(ctx)
	require.NoError(t, err)
	assert.Len(t, forYou, 4)

	trending, err := c.TrendingSongs(ctx)
	require.NoError(t, err)
	assert.Len(t, trending, 4)

	msgs, err := c.Messages(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, "hi", msgs[0].Content)
}

func TestClient_SendsBearerToken(t *testing.T) {
	c, api := newTestClient(t, WithToken("tok"))

	users, err := c.Users(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "bob", users[0].Login)
	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Equal(t, "Bearer tok", api.authHeader)
}

func TestClient_APIError(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	t.Run("json body", func(t *testing.T) {
		_, err := c.Album(ctx, "nope")

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
		assert.Equal(t, "not_found", apiErr.Kind)
		assert.Equal(t, "album not found with id nope", apiErr.Message)
	})

	t.Run("plain text body", func(t *testing.T) {
		err := c.get(ctx, "/broken", new(any))

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
		assert.Empty(t, apiErr.Kind)
		assert.Equal(t, "upstream exploded", apiErr.Message)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		_, err := c.Users(ctx)

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	})
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := New(srv.URL)

	_, err := c.Albums(context.Background())

	require.Error(t, err)
	var apiErr *APIError
	assert.NotErrorAs(t, err, &apiErr)
}

func TestMusicStore_FetchTransitions(t *testing.T) {
	c, _ := newTestClient(t)
	store := NewMusicStore(c)

	var seen []MusicState
	cancel := store.Subscribe(func(s MusicState) { seen = append(seen, s) })
	defer cancel()

	require.NoError(t, store.FetchAlbums(context.Background()))

	require.Len(t, seen, 2)
	assert.True(t, seen[0].IsLoading)
	assert.Empty(t, seen[0].Error)
	assert.Empty(t, seen[0].Albums)

	assert.False(t, seen[1].IsLoading)
	assert.Len(t, seen[1].Albums, 1)
	assert.Equal(t, seen[1], store.Snapshot())
}

func TestMusicStore_ErrorKeepsPreviousData(t *testing.T) {
	c, api := newTestClient(t)
	store := NewMusicStore(c)
	ctx := context.Background()

	require.NoError(t, store.FetchAlbumByID(ctx, "a1"))
	require.NotNil(t, store.Snapshot().CurrentAlbum)

	api.mu.Lock()
	api.albumFails = true
	api.mu.Unlock()

	err := store.FetchAlbumByID(ctx, "a1")

	require.Error(t, err)
	state := store.Snapshot()
	assert.False(t, state.IsLoading)
	assert.Equal(t, "album not found with id a1", state.Error)
	require.NotNil(t, state.CurrentAlbum)
	assert.Equal(t, "a1", state.CurrentAlbum.ID)

	// The next successful fetch clears the error.
	require.NoError(t, store.FetchFeaturedSongs(ctx))
	assert.Empty(t, store.Snapshot().Error)
}

func TestMusicStore_SongRowsAndInvalidate(t *testing.T) {
	c, _ := newTestClient(t)
	store := NewMusicStore(c)
	ctx := context.Background()

	require.NoError(t, store.FetchFeaturedSongs(ctx))
	require.NoError(t, store.FetchMadeForYouSongs(ctx))
	require.NoError(t, store.FetchTrendingSongs(ctx))

	state := store.Snapshot()
	assert.Len(t, state.Featured, 6)
	assert.Len(t, state.MadeForYou, 4)
	assert.Len(t, state.Trending, 4)

	store.Invalidate()

	assert.Equal(t, MusicState{}, store.Snapshot())
}

func TestMusicStore_CancelStopsNotifications(t *testing.T) {
	c, _ := newTestClient(t)
	store := NewMusicStore(c)

	var first, second int
	cancelFirst := store.Subscribe(func(MusicState) { first++ })
	cancelSecond := store.Subscribe(func(MusicState) { second++ })
	defer cancelSecond()

	store.Invalidate()
	cancelFirst()
	cancelFirst()
	store.Invalidate()

	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
}

func TestChatStore(t *testing.T) {
	c, _ := newTestClient(t, WithToken("tok"))
	store := NewChatStore(c)
	ctx := context.Background()

	require.NoError(t, store.FetchUsers(ctx))
	require.NoError(t, store.FetchMessages(ctx, "u2"))

	state := store.Snapshot()
	assert.False(t, state.IsLoading)
	assert.Len(t, state.Users, 1)
	assert.Equal(t, "u2", state.SelectedUserID)
	require.Len(t, state.Messages, 2)
	assert.Equal(t, "hey", state.Messages[1].Content)

	store.Invalidate()
	assert.Empty(t, store.Snapshot().Users)
}

func TestChatStore_Unauthenticated(t *testing.T) {
	c, _ := newTestClient(t)
	store := NewChatStore(c)

	err := store.FetchUsers(context.Background())

	require.Error(t, err)
	assert.Equal(t, "authentication required", store.Snapshot().Error)
}
