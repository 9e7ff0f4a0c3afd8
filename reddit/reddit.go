package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"spotinfo/models"
)

const (
	defaultTokenURL = "https://www.reddit.com/api/v1/access_token"
	defaultAPIHost  = "https://oauth.reddit.com"

	requestTimeout = 30 * time.Second
)

// Credentials for a Reddit script application
type Credentials struct {
	Username     string
	Password     string
	ClientID     string
	ClientSecret string
	UserAgent    string
}

// Client is an authenticated Reddit API client for a script app. It
// refreshes its access token when the previous one expires.
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

// wirePost mirrors the listing payload; created_utc arrives as a float
type wirePost struct {
	ID         string  `json:"id"`
	FullName   string  `json:"name"`
	Title      string  `json:"title"`
	Author     string  `json:"author"`
	URL        string  `json:"url"`
	Permalink  string  `json:"permalink"`
	CreatedUTC float64 `json:"created_utc"`
}

type listing struct {
	Data struct {
		Children []struct {
			Data wirePost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type meResponse struct {
	Name string `json:"name"`
}

// commentResponse is the api_type=json envelope; errors such as
// RATELIMIT arrive here inside an HTTP 200.
type commentResponse struct {
	JSON struct {
		Errors [][]string `json:"errors"`
	} `json:"json"`
}

// NewClient authenticates against Reddit with the password grant and
// verifies the session by fetching the bot's own identity.
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

	me, err := client.Me(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to verify session: %w", err)
	}

	log.Infof("Successfully authenticated as %s", me)

	return client, nil
}

func (c *Client) authenticate(ctx context.Context) error {
	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", c.creds.Username)
	form.Set("password", c.creds.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.SetBasicAuth(c.creds.ClientID, c.creds.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.creds.UserAgent)

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
	// Renew a minute early so in-flight requests don't race expiry
	c.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn)*time.Second - time.Minute)

	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body url.Values) (*http.Response, error) {
	if time.Now().After(c.tokenExpiry) {
		if err := c.authenticate(ctx); err != nil {
			return nil, fmt.Errorf("refreshing token: %w", err)
		}
	}

	var reader io.Reader
	if body != nil {
		reader = strings.NewReader(body.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiHost+path, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("User-Agent", c.creds.UserAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	return resp, nil
}

// Me returns the username of the authenticated account
func (c *Client) Me(ctx context.Context) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/v1/me", nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var me meResponse
	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	return me.Name, nil
}

// FetchNewest returns the newest submissions in the subreddit, newest
// first, up to limit.
func (c *Client) FetchNewest(ctx context.Context, subreddit string, limit int) ([]models.Post, error) {
	path := fmt.Sprintf("/r/%s/new?limit=%d", subreddit, limit)

	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var l listing
	if err := json.NewDecoder(resp.Body).Decode(&l); err != nil {
		return nil, fmt.Errorf("decoding listing: %w", err)
	}

	posts := make([]models.Post, 0, len(l.Data.Children))
	for _, child := range l.Data.Children {
		p := child.Data
		posts = append(posts, models.Post{
			ID:         p.ID,
			FullName:   p.FullName,
			Title:      p.Title,
			Author:     p.Author,
			URL:        p.URL,
			Permalink:  p.Permalink,
			CreatedUTC: int64(p.CreatedUTC),
		})
	}

	return posts, nil
}

// Reply posts a comment on the given submission
func (c *Client) Reply(ctx context.Context, post models.Post, text string) error {
	form := url.Values{}
	form.Set("api_type", "json")
	form.Set("thing_id", "t3_"+post.ID)
	form.Set("text", text)

	resp, err := c.do(ctx, http.MethodPost, "/api/comment", form)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var comment commentResponse
	if err := json.NewDecoder(resp.Body).Decode(&comment); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	if len(comment.JSON.Errors) > 0 {
		return fmt.Errorf("comment rejected: %s", strings.Join(comment.JSON.Errors[0], ": "))
	}

	return nil
}
