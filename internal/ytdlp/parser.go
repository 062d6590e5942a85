package ytdlp

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
)

// WatchURLTemplate is the canonical single-video URL form.
const WatchURLTemplate = "https://www.youtube.com/watch?v=%s"

// videoIDPattern matches the fixed 11-character video id alphabet.
var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// IsVideoID reports whether s is a well-formed 11-character video id.
func IsVideoID(s string) bool {
	return videoIDPattern.MatchString(s)
}

// WatchURL expands a video id to its canonical watch URL.
func WatchURL(id string) string {
	return fmt.Sprintf(WatchURLTemplate, id)
}

// VideoInfo is the metadata surface of one video.
type VideoInfo struct {
	Title     string
	ID        string
	Qualities []int
}

// PlaylistEntry is one enumerated playlist/channel item.
type PlaylistEntry struct {
	ID    string
	Title string
	URL   string
}

type infoJSON struct {
	Title   string `json:"title"`
	ID      string `json:"id"`
	Formats []struct {
		Height int `json:"height"`
	} `json:"formats"`
}

type entryJSON struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// parseInfo extracts title, id, and the distinct format heights sorted
// descending from a `-J` metadata dump.
func parseInfo(data []byte) (*VideoInfo, error) {
	var raw infoJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse yt-dlp metadata: %w", err)
	}

	seen := make(map[int]struct{})
	var heights []int
	for _, f := range raw.Formats {
		if f.Height <= 0 {
			continue
		}
		if _, ok := seen[f.Height]; ok {
			continue
		}
		seen[f.Height] = struct{}{}
		heights = append(heights, f.Height)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(heights)))

	return &VideoInfo{Title: raw.Title, ID: raw.ID, Qualities: heights}, nil
}

// ParsePlaylistLines keeps entries whose line is well-formed JSON carrying a
// valid 11-character video id, in input order. Anything else is skipped
// without error: flat-playlist output routinely interleaves noise.
func ParsePlaylistLines(lines []string) []PlaylistEntry {
	var entries []PlaylistEntry
	for _, line := range lines {
		if line == "" {
			continue
		}
		var raw entryJSON
		if err := json.Unmarshal([]byte(line), &raw); err != nil {
			continue
		}
		if !IsVideoID(raw.ID) {
			continue
		}
		entries = append(entries, PlaylistEntry{
			ID:    raw.ID,
			Title: raw.Title,
			URL:   WatchURL(raw.ID),
		})
	}
	return entries
}
