package models

// Post is a single forum submission that may link to a playlist
type Post struct {
	ID         string `json:"id"`
	FullName   string `json:"name"`
	Title      string `json:"title"`
	Author     string `json:"author"`
	URL        string `json:"url"`
	Permalink  string `json:"permalink"`
	CreatedUTC int64  `json:"created_utc"`
}

// SeenSubmission is one row of the durable dedup table
type SeenSubmission struct {
	ID        string `json:"id"`
	FirstSeen int64  `json:"firstSeen"`
}

// Owner of a playlist on the music service
type Owner struct {
	DisplayName string `json:"displayName"`
	URL         string `json:"url"`
}

// Artist credited on a track
type Artist struct {
	Name string `json:"name"`
}

// Track as reported by the music service. A nil *Track in a track page
// represents a removed or unavailable track and must be skipped when
// aggregating, not treated as an error.
type Track struct {
	Name       string   `json:"name"`
	DurationMS int64    `json:"durationMs"`
	Popularity int      `json:"popularity"`
	Artists    []Artist `json:"artists"`
	URL        string   `json:"url"`
}

// TrackPage is one page of a playlist's track listing. Total is the
// service-reported track count for the whole playlist, not the page.
type TrackPage struct {
	Items []*Track `json:"items"`
	Total int      `json:"total"`
}

// Playlist with its accumulated track listing
type Playlist struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Owner     Owner     `json:"owner"`
	Followers int64     `json:"followers"`
	Tracks    TrackPage `json:"tracks"`
}
