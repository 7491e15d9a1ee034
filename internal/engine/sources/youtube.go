package sources

// YouTube implementation is split across files by responsibility:
//   youtube_innertube.go : Innertube API types, constants, and low-level HTTP primitives
//   youtube_transcript.go: caption track listing and timedtext fetching
//   youtube_errors.go    : typed errors for every way a transcript lookup can fail
//   youtube.go           : video ID extraction and Data API v3 metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

// ytDataAPIBase is a variable so tests can point it at a local server.
var ytDataAPIBase = "https://www.googleapis.com/youtube/v3"

var (
	bareVideoIDRE = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)
	pathVideoIDRE = regexp.MustCompile(`^/(?:shorts|embed|live|v)/([a-zA-Z0-9_-]{11})`)
)

// ExtractVideoID returns the 11-char video ID from a bare ID or any YouTube URL
// form (watch?v=, youtu.be/, /shorts/, /embed/, /live/). Empty when not recognised.
func ExtractVideoID(input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}
	if bareVideoIDRE.MatchString(input) {
		return input
	}

	u, err := url.Parse(input)
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	var id string
	switch {
	case host == "youtu.be":
		id = strings.TrimPrefix(u.Path, "/")
	case strings.HasSuffix(host, "youtube.com") || strings.HasSuffix(host, "youtube-nocookie.com"):
		if v := u.Query().Get("v"); v != "" {
			id = v
		} else if m := pathVideoIDRE.FindStringSubmatch(u.Path); len(m) >= 2 {
			id = m[1]
		}
	}
	if bareVideoIDRE.MatchString(id) {
		return id
	}
	return ""
}

// VideoStats are the public counters of a video.
type VideoStats struct {
	Views    int64 `json:"views"`
	Likes    int64 `json:"likes"`
	Comments int64 `json:"comments"`
}

// VideoMetadata is the Data API v3 snippet + statistics of a video.
type VideoMetadata struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	PublishedAt  string     `json:"publishedAt"`
	ChannelID    string     `json:"channelId"`
	ChannelTitle string     `json:"channelTitle"`
	Stats        VideoStats `json:"stats"`
}

// ErrVideoNotFound is returned when the Data API knows no video with the given ID.
var ErrVideoNotFound = errors.New("video not found")

// ErrNoDataAPIKey is returned when no YouTube Data API key is configured.
var ErrNoDataAPIKey = errors.New("YOUTUBE_API_KEY not configured")

type ytDataVideosResp struct {
	Items []struct {
		Snippet struct {
			Title        string `json:"title"`
			Description  string `json:"description"`
			PublishedAt  string `json:"publishedAt"`
			ChannelID    string `json:"channelId"`
			ChannelTitle string `json:"channelTitle"`
		} `json:"snippet"`
		Statistics struct {
			ViewCount    string `json:"viewCount"`
			LikeCount    string `json:"likeCount"`
			CommentCount string `json:"commentCount"`
		} `json:"statistics"`
	} `json:"items"`
}

// FetchVideoMetadata loads title, channel and stats via YouTube Data API v3.
// Falls back to the secondary key when the primary one fails (quota errors).
func FetchVideoMetadata(ctx context.Context, videoID string) (*VideoMetadata, error) {
	keys := make([]string, 0, 2)
	if engine.Cfg.YouTubeAPIKey != "" {
		keys = append(keys, engine.Cfg.YouTubeAPIKey)
	}
	if engine.Cfg.YouTubeAPIKeyFallback != "" {
		keys = append(keys, engine.Cfg.YouTubeAPIKeyFallback)
	}
	if len(keys) == 0 {
		return nil, ErrNoDataAPIKey
	}

	var lastErr error
	for _, key := range keys {
		meta, err := doVideoMetadata(ctx, videoID, key)
		if err == nil || errors.Is(err, ErrVideoNotFound) {
			return meta, err
		}
		lastErr = err
		slog.Debug("youtube data API key failed, trying fallback", slog.Any("err", err))
	}
	return nil, lastErr
}

func doVideoMetadata(ctx context.Context, videoID, apiKey string) (*VideoMetadata, error) {
	engine.IncrDataAPIRequests()

	params := url.Values{}
	params.Set("part", "snippet,statistics")
	params.Set("id", videoID)
	params.Set("key", apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ytDataAPIBase+"/videos?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", engine.UserAgentBot)

	hc := engine.Cfg.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("data api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("data api HTTP %d: %s", resp.StatusCode, snippet)
	}

	var data ytDataVideosResp
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1024*1024)).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode data api: %w", err)
	}
	if len(data.Items) == 0 {
		return nil, ErrVideoNotFound
	}

	item := data.Items[0]
	return &VideoMetadata{
		Title:        item.Snippet.Title,
		Description:  item.Snippet.Description,
		PublishedAt:  item.Snippet.PublishedAt,
		ChannelID:    item.Snippet.ChannelID,
		ChannelTitle: item.Snippet.ChannelTitle,
		Stats: VideoStats{
			Views:    parseCount(item.Statistics.ViewCount),
			Likes:    parseCount(item.Statistics.LikeCount),
			Comments: parseCount(item.Statistics.CommentCount),
		},
	}, nil
}

// parseCount parses Data API string counters; missing or hidden counts are 0.
func parseCount(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
