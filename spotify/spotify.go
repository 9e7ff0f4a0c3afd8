package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samber/lo"

	"spotinfo/models"
)

const (
	defaultTokenURL = "https://accounts.spotify.com/api/token"
	defaultAPIHost  = "https://api.spotify.com"

	// PageSize is the track page size the service uses
	PageSize = 100

	requestTimeout = 30 * time.Second
)

// ErrPlaylistNotFound marks a playlist id that does not resolve to a
// real playlist. Callers must treat it as permanent and not retry.
var ErrPlaylistNotFound = errors.New("playlist not found")

// Credentials for the client-credentials OAuth flow
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// Client is an authenticated Spotify Web API client
type Client struct {
	http  *http.Client
	creds Credentials

	tokenURL string
	apiHost  string

	token       string
	tokenExpiry time.Time
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// Wire types for the playlist endpoints

type wireArtist struct {
	Name string `json:"name"`
}

type wireTrack struct {
	Name         string       `json:"name"`
	DurationMS   int64        `json:"duration_ms"`
	Popularity   int          `json:"popularity"`
	Artists      []wireArtist `json:"artists"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
}

type wireItem struct {
	Track *wireTrack `json:"track"`
}

type wireTrackPage struct {
	Items []wireItem `json:"items"`
	Total int        `json:"total"`
}

type wirePlaylist struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Owner struct {
		DisplayName  string `json:"display_name"`
		ExternalURLs struct {
			Spotify string `json:"spotify"`
		} `json:"external_urls"`
	} `json:"owner"`
	Followers struct {
		Total int64 `json:"total"`
	} `json:"followers"`
	Tracks wireTrackPage `json:"tracks"`
}

// NewClient authenticates with the client-credentials flow
func NewClient(ctx context.Context, creds Credentials) (*Client, error) {
	client := &Client{
		http:     &http.Client{Timeout: requestTimeout},
		creds:    creds,
		tokenURL: defaultTokenURL,
		apiHost:  defaultAPIHost,
	}

	if err := client.authenticate(ctx); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return client, nil
}

func (c *Client) authenticate(ctx context.Context) error {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.SetBasicAuth(c.creds.ClientID, c.creds.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("requesting token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("token request failed: HTTP %d", resp.StatusCode)
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return fmt.Errorf("decoding token: %w", err)
	}

	if token.AccessToken == "" {
		return fmt.Errorf("token response contained no access token")
	}

	c.token = token.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn)*time.Second - time.Minute)

	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	if time.Now().After(c.tokenExpiry) {
		if err := c.authenticate(ctx); err != nil {
			return fmt.Errorf("refreshing token: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiHost+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	// A bad or deleted playlist id comes back as 400 or 404; everything
	// else above 400 is treated as transient by the caller.
	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound {
		return ErrPlaylistNotFound
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}

// GetPlaylist fetches a playlist with its first page of tracks.
// Returns ErrPlaylistNotFound when the id does not resolve.
func (c *Client) GetPlaylist(ctx context.Context, id string) (*models.Playlist, error) {
	var wire wirePlaylist
	if err := c.get(ctx, "/v1/playlists/"+url.PathEscape(id), &wire); err != nil {
		return nil, err
	}

	playlist := &models.Playlist{
		ID:   wire.ID,
		Name: wire.Name,
		Owner: models.Owner{
			DisplayName: wire.Owner.DisplayName,
			URL:         wire.Owner.ExternalURLs.Spotify,
		},
		Followers: wire.Followers.Total,
		Tracks:    convertPage(wire.Tracks),
	}

	return playlist, nil
}

// GetPlaylistTracks fetches one page of a playlist's track listing at
// the given offset.
func (c *Client) GetPlaylistTracks(ctx context.Context, id string, offset int) (*models.TrackPage, error) {
	path := fmt.Sprintf("/v1/playlists/%s/tracks?offset=%d&limit=%d", url.PathEscape(id), offset, PageSize)

	var wire wireTrackPage
	if err := c.get(ctx, path, &wire); err != nil {
		return nil, err
	}

	page := convertPage(wire)
	return &page, nil
}

func convertPage(wire wireTrackPage) models.TrackPage {
	items := lo.Map(wire.Items, func(item wireItem, _ int) *models.Track {
		if item.Track == nil {
			return nil
		}
		return &models.Track{
			Name:       item.Track.Name,
			DurationMS: item.Track.DurationMS,
			Popularity: item.Track.Popularity,
			Artists: lo.Map(item.Track.Artists, func(a wireArtist, _ int) models.Artist {
				return models.Artist{Name: a.Name}
			}),
			URL: item.Track.ExternalURLs.Spotify,
		}
	})

	return models.TrackPage{Items: items, Total: wire.Total}
}
