package bot

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"

	"spotinfo/models"
	"spotinfo/spotify"
)

const (
	// recentCacheSize bounds the in-memory dedup fast path
	recentCacheSize = 125

	// maxPostAge is the staleness cutoff: submissions older than this
	// are recorded but never answered, a late reply is worse than none
	maxPostAge = 15 * time.Minute

	// pagePause is the courtesy pause between track page fetches
	pagePause = time.Second

	// postPause is the pause after each fully processed submission
	postPause = time.Second

	// pollPause is the pause between polling iterations
	pollPause = 5 * time.Second
)

// ForumClient is the part of the forum API the worker consumes
type ForumClient interface {
	FetchNewest(ctx context.Context, subreddit string, limit int) ([]models.Post, error)
	Reply(ctx context.Context, post models.Post, text string) error
}

// PlaylistClient is the part of the music service API the worker consumes
type PlaylistClient interface {
	GetPlaylist(ctx context.Context, id string) (*models.Playlist, error)
	GetPlaylistTracks(ctx context.Context, id string, offset int) (*models.TrackPage, error)
}

// SeenStore is the durable dedup table
type SeenStore interface {
	Has(ctx context.Context, id string) (bool, error)
	Insert(ctx context.Context, id string, firstSeen int64) error
}

// Worker runs the ingest-and-notify loop: poll the forum, filter out
// handled submissions, summarize linked playlists and reply. Strictly
// sequential; one submission is fully processed, retries included,
// before the next one is looked at.
type Worker struct {
	forum    ForumClient
	playlist PlaylistClient
	store    SeenStore

	subreddit string
	pollLimit int

	cache *recentCache
	now   func() time.Time

	pagePause time.Duration
	postPause time.Duration
	pollPause time.Duration
}

func NewWorker(forum ForumClient, playlist PlaylistClient, store SeenStore, subreddit string, pollLimit int) *Worker {
	return &Worker{
		forum:     forum,
		playlist:  playlist,
		store:     store,
		subreddit: subreddit,
		pollLimit: pollLimit,
		cache:     newRecentCache(recentCacheSize),
		now:       time.Now,
		pagePause: pagePause,
		postPause: postPause,
		pollPause: pollPause,
	}
}

// Run polls until ctx is cancelled. The in-memory cache starts empty on
// every run; the durable store covers deduplication across restarts.
func (w *Worker) Run(ctx context.Context) error {
	log.WithFields(log.Fields{
		"subreddit": w.subreddit,
		"limit":     w.pollLimit,
	}).Info("Starting ingest loop")

	for {
		posts, err := retry(ctx, "fetch new submissions", func() ([]models.Post, error) {
			return w.forum.FetchNewest(ctx, w.subreddit, w.pollLimit)
		})
		if err != nil {
			return err
		}

		postsFetched.Add(float64(len(posts)))

		for _, post := range posts {
			if err := w.handlePost(ctx, post); err != nil {
				return err
			}
		}

		if err := sleep(ctx, w.pollPause); err != nil {
			return err
		}
	}
}

// handlePost runs one submission through the dedup gate and, when it
// passes, through the full summarize-and-reply pipeline. Every
// processed submission ends up in both the cache and the durable store
// exactly once, whichever branch terminated it.
func (w *Worker) handlePost(ctx context.Context, post models.Post) error {
	skip, err := w.shouldSkip(ctx, post)
	if err != nil || skip {
		return err
	}

	if err := w.processPost(ctx, post); err != nil {
		return err
	}

	if err := w.markHandled(ctx, post); err != nil {
		return err
	}

	return sleep(ctx, w.postPause)
}

// shouldSkip implements the dedup gate. Evaluation order matters: the
// cache check is free, the staleness check avoids a store lookup for
// old submissions, and a store hit refills the cache after a restart.
func (w *Worker) shouldSkip(ctx context.Context, post models.Post) (bool, error) {
	if w.cache.Contains(post.ID) {
		postsSkipped.WithLabelValues("cached").Inc()
		return true, nil
	}

	if post.CreatedUTC < w.now().Add(-maxPostAge).Unix() {
		postsSkipped.WithLabelValues("stale").Inc()
		w.cache.Add(post.ID)
		return true, nil
	}

	seen, err := w.store.Has(ctx, post.ID)
	if err != nil {
		return false, err
	}
	if seen {
		postsSkipped.WithLabelValues("stored").Inc()
		w.cache.Add(post.ID)
		return true, nil
	}

	return false, nil
}

// processPost summarizes the linked playlist and posts the reply.
// Non-playlist URLs and unresolvable playlist ids are expected terminal
// outcomes, not errors; a non-nil return means ctx was cancelled.
func (w *Worker) processPost(ctx context.Context, post models.Post) error {
	id, ok := playlistIDFromURL(post.URL)
	if !ok {
		log.Infof("Not a playlist URL, ignoring: %s", post.URL)
		postsSkipped.WithLabelValues("not_playlist").Inc()
		return nil
	}

	log.Infof("New submission: https://www.reddit.com%s", post.Permalink)

	playlist, err := retry(ctx, "fetch playlist", func() (*models.Playlist, error) {
		p, err := w.playlist.GetPlaylist(ctx, id)
		if errors.Is(err, spotify.ErrPlaylistNotFound) {
			// A bad or deleted playlist never resolves, retrying is futile
			return nil, backoff.Permanent(err)
		}
		return p, err
	})
	if errors.Is(err, spotify.ErrPlaylistNotFound) {
		log.WithFields(log.Fields{"playlist": id}).Info("Playlist not found, ignoring")
		playlistsNotFound.Inc()
		return nil
	}
	if err != nil {
		return err
	}

	if err := w.fetchRemainingTracks(ctx, id, playlist); err != nil {
		return err
	}

	text := renderReply(playlist, post)

	if err := retryNoData(ctx, "submit reply", func() error {
		return w.forum.Reply(ctx, post, text)
	}); err != nil {
		return err
	}

	repliesPosted.Inc()

	return nil
}

// fetchRemainingTracks pages through the track listing until the
// accumulated items reach the total the service reported. The playlist
// id is known valid at this point so page failures can only be
// transient and are always retried.
func (w *Worker) fetchRemainingTracks(ctx context.Context, id string, playlist *models.Playlist) error {
	offset := spotify.PageSize

	for len(playlist.Tracks.Items) < playlist.Tracks.Total {
		page, err := retry(ctx, "fetch playlist tracks", func() (*models.TrackPage, error) {
			return w.playlist.GetPlaylistTracks(ctx, id, offset)
		})
		if err != nil {
			return err
		}

		// The listing can shrink under us while paging; stop rather
		// than spin on empty pages
		if len(page.Items) == 0 {
			break
		}

		playlist.Tracks.Items = append(playlist.Tracks.Items, page.Items...)
		offset += spotify.PageSize

		if err := sleep(ctx, w.pagePause); err != nil {
			return err
		}
	}

	return nil
}

func (w *Worker) markHandled(ctx context.Context, post models.Post) error {
	w.cache.Add(post.ID)
	return w.store.Insert(ctx, post.ID, w.now().Unix())
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
