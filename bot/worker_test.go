package bot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spotinfo/models"
	"spotinfo/spotify"
)

type fakeForum struct {
	replies []string
}

func (f *fakeForum) FetchNewest(ctx context.Context, subreddit string, limit int) ([]models.Post, error) {
	return nil, nil
}

func (f *fakeForum) Reply(ctx context.Context, post models.Post, text string) error {
	f.replies = append(f.replies, text)
	return nil
}

type fakePlaylists struct {
	playlist    *models.Playlist
	pages       map[int]*models.TrackPage
	getErr      error
	getCalls    int
	pageOffsets []int
}

func (f *fakePlaylists) GetPlaylist(ctx context.Context, id string) (*models.Playlist, error) {
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}

	// Return a copy so appending pages doesn't mutate the fixture
	playlist := *f.playlist
	playlist.Tracks.Items = append([]*models.Track{}, f.playlist.Tracks.Items...)
	return &playlist, nil
}

func (f *fakePlaylists) GetPlaylistTracks(ctx context.Context, id string, offset int) (*models.TrackPage, error) {
	f.pageOffsets = append(f.pageOffsets, offset)
	page, ok := f.pages[offset]
	if !ok {
		return &models.TrackPage{}, nil
	}
	return page, nil
}

type fakeStore struct {
	rows    map[string]int64
	inserts []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: map[string]int64{}}
}

func (s *fakeStore) Has(ctx context.Context, id string) (bool, error) {
	_, ok := s.rows[id]
	return ok, nil
}

func (s *fakeStore) Insert(ctx context.Context, id string, firstSeen int64) error {
	s.rows[id] = firstSeen
	s.inserts = append(s.inserts, id)
	return nil
}

func tracks(n int, startPopularity int) []*models.Track {
	items := make([]*models.Track, n)
	for i := range items {
		items[i] = &models.Track{
			Name:       "track",
			DurationMS: 60000,
			Popularity: startPopularity,
			Artists:    []models.Artist{{Name: "A"}},
		}
	}
	return items
}

func newTestWorker(forum ForumClient, playlists PlaylistClient, store SeenStore) *Worker {
	w := NewWorker(forum, playlists, store, "SpotifyPlaylists", 100)
	w.pagePause = 0
	w.postPause = 0
	w.pollPause = 0
	return w
}

func freshPost(w *Worker) models.Post {
	return models.Post{
		ID:         "post1",
		URL:        "https://open.spotify.com/playlist/abc123",
		Permalink:  "/r/SpotifyPlaylists/comments/post1/",
		CreatedUTC: w.now().Unix(),
	}
}

func TestHandlePostRepliesAndRecords(t *testing.T) {
	forum := &fakeForum{}
	playlists := &fakePlaylists{
		playlist: &models.Playlist{
			ID:        "abc123",
			Name:      "Mix",
			Followers: 10,
			Tracks: models.TrackPage{
				Items: tracks(3, 50),
				Total: 3,
			},
		},
	}
	store := newFakeStore()
	w := newTestWorker(forum, playlists, store)
	post := freshPost(w)

	require.NoError(t, w.handlePost(context.Background(), post))

	assert.Len(t, forum.replies, 1)
	assert.Contains(t, forum.replies[0], "Playlist name: [Mix]")
	assert.Equal(t, []string{"post1"}, store.inserts)
	assert.True(t, w.cache.Contains("post1"))
	assert.Empty(t, playlists.pageOffsets)
}

func TestHandlePostCachedSkips(t *testing.T) {
	forum := &fakeForum{}
	playlists := &fakePlaylists{}
	store := newFakeStore()
	w := newTestWorker(forum, playlists, store)
	post := freshPost(w)

	w.cache.Add(post.ID)

	require.NoError(t, w.handlePost(context.Background(), post))

	assert.Zero(t, playlists.getCalls)
	assert.Empty(t, forum.replies)
	assert.Empty(t, store.inserts)
}

func TestHandlePostStaleRecordedWithoutFetch(t *testing.T) {
	forum := &fakeForum{}
	playlists := &fakePlaylists{}
	store := newFakeStore()
	w := newTestWorker(forum, playlists, store)

	post := freshPost(w)
	post.CreatedUTC = w.now().Add(-16 * time.Minute).Unix()

	require.NoError(t, w.handlePost(context.Background(), post))

	assert.Zero(t, playlists.getCalls)
	assert.Empty(t, forum.replies)
	assert.True(t, w.cache.Contains(post.ID))
	// Stale posts never enter processing, so no durable record either
	assert.Empty(t, store.inserts)
}

func TestHandlePostStoredRefillsCache(t *testing.T) {
	forum := &fakeForum{}
	playlists := &fakePlaylists{}
	store := newFakeStore()
	store.rows["post1"] = time.Now().Unix()
	w := newTestWorker(forum, playlists, store)
	post := freshPost(w)

	require.NoError(t, w.handlePost(context.Background(), post))

	assert.Zero(t, playlists.getCalls)
	assert.Empty(t, forum.replies)
	assert.True(t, w.cache.Contains("post1"))
	assert.Empty(t, store.inserts)
}

func TestHandlePostNonPlaylistURLRecorded(t *testing.T) {
	forum := &fakeForum{}
	playlists := &fakePlaylists{}
	store := newFakeStore()
	w := newTestWorker(forum, playlists, store)

	post := freshPost(w)
	post.URL = "https://example.com/not-a-playlist"

	require.NoError(t, w.handlePost(context.Background(), post))

	assert.Zero(t, playlists.getCalls)
	assert.Empty(t, forum.replies)
	assert.Equal(t, []string{"post1"}, store.inserts)
	assert.True(t, w.cache.Contains("post1"))
}

func TestHandlePostPlaylistNotFoundNotRetried(t *testing.T) {
	forum := &fakeForum{}
	playlists := &fakePlaylists{getErr: spotify.ErrPlaylistNotFound}
	store := newFakeStore()
	w := newTestWorker(forum, playlists, store)
	post := freshPost(w)

	require.NoError(t, w.handlePost(context.Background(), post))

	// Exactly one fetch: not-found is permanent
	assert.Equal(t, 1, playlists.getCalls)
	assert.Empty(t, forum.replies)
	assert.Equal(t, []string{"post1"}, store.inserts)
	assert.True(t, w.cache.Contains("post1"))
}

func TestHandlePostPaginatesUntilTotal(t *testing.T) {
	forum := &fakeForum{}
	playlists := &fakePlaylists{
		playlist: &models.Playlist{
			ID:   "abc123",
			Name: "Long Mix",
			Tracks: models.TrackPage{
				Items: tracks(100, 50),
				Total: 250,
			},
		},
		pages: map[int]*models.TrackPage{
			100: {Items: tracks(100, 40), Total: 250},
			200: {Items: tracks(50, 30), Total: 250},
		},
	}
	store := newFakeStore()
	w := newTestWorker(forum, playlists, store)
	post := freshPost(w)

	require.NoError(t, w.handlePost(context.Background(), post))

	// total=250 with a first page of 100 needs exactly two more pages
	assert.Equal(t, []int{100, 200}, playlists.pageOffsets)
	assert.Len(t, forum.replies, 1)
	assert.Contains(t, forum.replies[0], "Number of tracks: 250")
}
