package bot

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"

	"spotinfo/models"
)

// topTrackCount is how many ranked tracks the reply lists
const topTrackCount = 5

// renderReply builds the markdown summary comment for a playlist.
// Pure formatting; no network, no state.
func renderReply(playlist *models.Playlist, post models.Post) string {
	items := playlist.Tracks.Items

	var b strings.Builder

	fmt.Fprintf(&b, "Playlist name: [%s](%s)\n\n", playlist.Name, post.URL)
	fmt.Fprintf(&b, "Playlist author: [%s](%s)\n\n", playlist.Owner.DisplayName, playlist.Owner.URL)
	fmt.Fprintf(&b, "Number of tracks: %d\n\n", len(items))
	fmt.Fprintf(&b, "Length: %s\n\n", formatDuration(totalDurationMS(items)))
	fmt.Fprintf(&b, "Followers: %s\n\n", humanize.Comma(playlist.Followers))
	b.WriteString("Top tracks:\n\n")

	for _, track := range rankTracks(items, topTrackCount) {
		// Removed tracks can rank when a playlist has few real ones
		if track == nil {
			continue
		}

		names := lo.Map(track.Artists, func(artist models.Artist, _ int) string {
			return artist.Name
		})

		fmt.Fprintf(&b, "* [%s - %s](%s)\n", artistList(names), track.Name, track.URL)
	}

	return b.String()
}
