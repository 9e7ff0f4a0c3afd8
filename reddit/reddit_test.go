package reddit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spotinfo/models"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := &Client{
		http: srv.Client(),
		creds: Credentials{
			Username:     "SpotifyInfoBot",
			Password:     "hunter2",
			ClientID:     "id",
			ClientSecret: "secret",
			UserAgent:    "spotinfo-test/1.0",
		},
		tokenURL:    srv.URL + "/api/v1/access_token",
		apiHost:     srv.URL,
		token:       "test-token",
		tokenExpiry: time.Now().Add(time.Hour),
	}

	return client
}

func TestAuthenticate(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/access_token", r.URL.Path)
		assert.Equal(t, "spotinfo-test/1.0", r.Header.Get("User-Agent"))

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "id", user)
		assert.Equal(t, "secret", pass)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "password", r.PostForm.Get("grant_type"))
		assert.Equal(t, "SpotifyInfoBot", r.PostForm.Get("username"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token": "fresh", "expires_in": 3600}`))
	})

	require.NoError(t, client.authenticate(context.Background()))
	assert.Equal(t, "fresh", client.token)
}

func TestAuthenticateRejected(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	assert.Error(t, client.authenticate(context.Background()))
}

func TestFetchNewest(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/r/SpotifyPlaylists/new", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": {"children": [
			{"data": {
				"id": "abc",
				"name": "t3_abc",
				"title": "My playlist",
				"author": "someone",
				"url": "https://open.spotify.com/playlist/xyz",
				"permalink": "/r/SpotifyPlaylists/comments/abc/",
				"created_utc": 1700000000.0
			}}
		]}}`))
	})

	posts, err := client.FetchNewest(context.Background(), "SpotifyPlaylists", 100)
	require.NoError(t, err)

	require.Len(t, posts, 1)
	assert.Equal(t, "abc", posts[0].ID)
	assert.Equal(t, "https://open.spotify.com/playlist/xyz", posts[0].URL)
	assert.Equal(t, int64(1700000000), posts[0].CreatedUTC)
}

func TestReply(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/comment", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "t3_abc", r.PostForm.Get("thing_id"))
		assert.Equal(t, "summary text", r.PostForm.Get("text"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"json": {"errors": []}}`))
	})

	post := models.Post{ID: "abc"}

	require.NoError(t, client.Reply(context.Background(), post, "summary text"))
}

func TestReplyRateLimited(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"json": {"errors": [
			["RATELIMIT", "you are doing that too much. try again in 9 minutes.", "ratelimit"]
		]}}`))
	})

	err := client.Reply(context.Background(), models.Post{ID: "abc"}, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RATELIMIT")
}

func TestReplyHTTPError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	assert.Error(t, client.Reply(context.Background(), models.Post{ID: "abc"}, "text"))
}
