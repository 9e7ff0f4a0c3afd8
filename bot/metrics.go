package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	postsFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spotinfo_posts_fetched_total",
		Help: "The total number of submissions returned by forum polls",
	})

	postsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spotinfo_posts_skipped_total",
		Help: "Submissions skipped without a reply, by reason",
	}, []string{"reason"})

	repliesPosted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spotinfo_replies_total",
		Help: "The total number of summary replies posted",
	})

	playlistsNotFound = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spotinfo_playlists_not_found_total",
		Help: "Submissions whose playlist id did not resolve",
	})

	retryAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spotinfo_retry_attempts_total",
		Help: "Failed remote operations that entered the retry loop",
	}, []string{"op"})
)
