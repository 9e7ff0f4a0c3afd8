package bot

import (
	"net/url"
	"strings"
)

// playlistHost is the only host submissions may link playlists on
const playlistHost = "open.spotify.com"

// playlistIDFromURL extracts a playlist id from a submission URL.
// Recognized path shapes are /playlist/{id} and
// /user/{username}/playlist/{id}. Everything else, including other
// hosts, is classified as not a playlist link.
func playlistIDFromURL(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}

	if u.Host != playlistHost {
		return "", false
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")

	switch {
	case len(segments) >= 2 && strings.EqualFold(segments[0], "playlist") && segments[1] != "":
		return segments[1], true
	case len(segments) >= 4 && strings.EqualFold(segments[0], "user") &&
		strings.EqualFold(segments[2], "playlist") && segments[3] != "":
		return segments[3], true
	}

	return "", false
}
