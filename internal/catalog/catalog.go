// Package catalog provides a client for the remote song catalog.
//
// The catalog speaks the Invidious text-search API: a GET on
// /api/v1/search?q=...&type=video returning a JSON array of videos.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chime-music/chime/internal/song"
)

// ErrNotFound is returned when the catalog has no result for the query.
var ErrNotFound = errors.New("no catalog result")

// ErrUnavailable is returned when the catalog cannot be reached or answers
// with a server error.
var ErrUnavailable = errors.New("catalog unavailable")

const (
	// DefaultBaseURL points at a public Invidious instance.
	DefaultBaseURL = "https://yewtu.be"

	userAgent = "chime-music-player/1.0 (https://github.com/chime-music/chime)"

	defaultTimeout = 10 * time.Second
)

// Client is a catalog API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new catalog client for the given instance base URL.
// An empty baseURL selects DefaultBaseURL.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

type searchResult struct {
	Title      string `json:"title"`
	VideoID    string `json:"videoId"`
	Author     string `json:"author"`
	Thumbnails []struct {
		Quality string `json:"quality"`
		URL     string `json:"url"`
	} `json:"videoThumbnails"`
}

// Lookup resolves a free-text query to the catalog's top result.
func (c *Client) Lookup(ctx context.Context, query string) (song.Record, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "video")

	reqURL := fmt.Sprintf("%s/api/v1/search?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return song.Record{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return song.Record{}, ctx.Err()
		}
		return song.Record{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return song.Record{}, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return song.Record{}, fmt.Errorf("%w: unexpected status %s", ErrUnavailable, resp.Status)
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return song.Record{}, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	if len(results) == 0 {
		return song.Record{}, ErrNotFound
	}

	top := results[0]
	if top.VideoID == "" {
		return song.Record{}, ErrNotFound
	}

	return song.Record{
		Title:        top.Title,
		URL:          c.baseURL + "/watch?v=" + top.VideoID,
		Artist:       top.Author,
		ThumbnailURL: bestThumbnail(top),
		Origin:       song.OriginRemote,
	}, nil
}

// bestThumbnail picks the medium thumbnail when present, else the first.
func bestThumbnail(r searchResult) string {
	for _, t := range r.Thumbnails {
		if t.Quality == "medium" {
			return t.URL
		}
	}
	if len(r.Thumbnails) > 0 {
		return r.Thumbnails[0].URL
	}
	return ""
}
