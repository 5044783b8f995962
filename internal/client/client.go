// Package client is a Go client for the public and user-facing Muzik API,
// plus state containers that cache what it fetched.
//
// The stores hold the last successful response of each fetch. They are not
// authoritative: nothing pushes server-side changes into them, and a caller
// that needs fresh data calls Invalidate and fetches again.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/BiswasSwagatam/Muzik/internal/model"
)

const defaultTimeout = 30 * time.Second

// APIError is a non-2xx response. Kind and Message come from the error
// body when the server sent one.
type APIError struct {
	StatusCode int
	Kind       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("client: %d %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("client: %d %s: %s", e.StatusCode, e.Kind, e.Message)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken sends token as a bearer header on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New returns a client for the API rooted at baseURL, e.g.
// "http://localhost:8080/api".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Albums(ctx context.Context) ([]model.Album, error) {
	var albums []model.Album
	if err := c.get(ctx, "/albums", &albums); err != nil {
		return nil, err
	}
	return albums, nil
}

func (c *Client) Album(ctx context.Context, id string) (*model.AlbumDetail, error) {
	var album model.AlbumDetail
	if err := c.get(ctx, "/albums/"+url.PathEscape(id), &album); err != nil {
		return nil, err
	}
	return &album, nil
}

func (c *Client) FeaturedSongs(ctx context.Context) ([]model.Song, error) {
	return c.songs(ctx, "/songs/featured")
}

func (c *Client) MadeForYouSongs(ctx context.Context) ([]model.Song, error) {
	return c.songs(ctx, "/songs/made-for-you")
}

func (c *Client) TrendingSongs(ctx context.Context) ([]model.Song, error) {
	return c.songs(ctx, "/songs/trending")
}

// Users lists everyone except the signed-in user.
func (c *Client) Users(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := c.get(ctx, "/users", &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Messages returns the conversation with userID, oldest first.
func (c *Client) Messages(ctx context.Context, userID string) ([]model.Message, error) {
	var msgs []model.Message
	if err := c.get(ctx, "/users/messages/"+url.PathEscape(userID), &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (c *Client) songs(ctx context.Context, path string) ([]model.Song, error) {
	var songs []model.Song
	if err := c.get(ctx, path, &songs); err != nil {
		return nil, err
	}
	return songs, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("client: building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("client: GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("client: decoding %s: %w", path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Message != "" {
		apiErr.Kind = payload.Error
		apiErr.Message = payload.Message
		return apiErr
	}
	apiErr.Message = strings.TrimSpace(string(body))
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
