package bot

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"

	"spotinfo/models"
)

// totalDurationMS sums the duration of all non-nil tracks. Nil entries
// are removed tracks and contribute nothing.
func totalDurationMS(items []*models.Track) int64 {
	present := lo.Filter(items, func(track *models.Track, _ int) bool {
		return track != nil
	})

	return lo.SumBy(present, func(track *models.Track) int64 {
		return track.DurationMS
	})
}

// formatDuration renders a millisecond total as whole hours plus the
// remainder in whole minutes
func formatDuration(ms int64) string {
	hours := ms / 3600000
	minutes := (ms / 60000) % 60
	return fmt.Sprintf("%d hr %d min", hours, minutes)
}

func popularity(track *models.Track) int {
	if track == nil {
		return 0
	}
	return track.Popularity
}

// rankTracks stable-sorts items by popularity descending, with nil
// tracks ranking as popularity 0, and returns the top n.
func rankTracks(items []*models.Track, n int) []*models.Track {
	ranked := make([]*models.Track, len(items))
	copy(ranked, items)

	sort.SliceStable(ranked, func(i, j int) bool {
		return popularity(ranked[i]) > popularity(ranked[j])
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}

	return ranked
}

// artistList joins artist names for display: a single name stands
// alone, two are joined with "and", and for three or more the final
// pair is joined with ", and" as is everything before it.
func artistList(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	case 2:
		return names[0] + " and " + names[1]
	default:
		head := strings.Join(names[:len(names)-2], ", ")
		tail := strings.Join(names[len(names)-2:], ", and ")
		return head + ", and " + tail
	}
}
