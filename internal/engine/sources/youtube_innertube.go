package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	pkgerrors "github.com/pkg/errors"
)

// YouTube Innertube API: low-level constants, types, and HTTP primitives.
// All higher-level logic lives in youtube_transcript.go.

const (
	ytBaseURL        = "https://www.youtube.com"
	ytWatchBase      = ytBaseURL + "/watch?v="
	ytPlayerPath     = "/youtubei/v1/player"
	ytAndroidVersion = "20.10.38"
	ytAndroidUA      = "com.google.android.youtube/" + ytAndroidVersion + " (Linux; U; Android 11) gzip"

	maxPageBytes     = 6 * 1024 * 1024
	maxPlayerBytes   = 3 * 1024 * 1024
	maxTimedTextSize = 4 * 1024 * 1024
)

// --- ANDROID client types (/player endpoint) ---

type innertubeReq struct {
	VideoID        string       `json:"videoId"`
	Context        innertubeCtx `json:"context"`
	RacyCheckOk    bool         `json:"racyCheckOk"`
	ContentCheckOk bool         `json:"contentCheckOk"`
}

type innertubeCtx struct {
	Client innertubeClient `json:"client"`
}

type innertubeClient struct {
	ClientName        string `json:"clientName"`
	ClientVersion     string `json:"clientVersion"`
	AndroidSdkVersion int    `json:"androidSdkVersion,omitempty"`
	Hl                string `json:"hl,omitempty"`
	Gl                string `json:"gl,omitempty"`
}

type innertubePlayerResp struct {
	Captions *struct {
		PlayerCaptionsTracklistRenderer *captionTracklist `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
	PlayabilityStatus *playabilityStatus `json:"playabilityStatus"`
}

type playabilityStatus struct {
	Status      string `json:"status"`
	Reason      string `json:"reason"`
	ErrorScreen *struct {
		PlayerErrorMessageRenderer *struct {
			Subreason *ytText `json:"subreason"`
		} `json:"playerErrorMessageRenderer"`
	} `json:"errorScreen"`
}

// subreasons returns the error screen's explanatory lines, if any.
func (p *playabilityStatus) subreasons() []string {
	if p.ErrorScreen == nil || p.ErrorScreen.PlayerErrorMessageRenderer == nil {
		return nil
	}
	sub := p.ErrorScreen.PlayerErrorMessageRenderer.Subreason
	if sub == nil {
		return nil
	}
	if sub.SimpleText != "" {
		return []string{sub.SimpleText}
	}
	var out []string
	for _, r := range sub.Runs {
		if r.Text != "" {
			out = append(out, r.Text)
		}
	}
	return out
}

type captionTracklist struct {
	CaptionTracks []captionTrack `json:"captionTracks"`
}

type captionTrack struct {
	BaseURL        string `json:"baseUrl"`
	Name           ytText `json:"name"`
	LanguageCode   string `json:"languageCode"`
	Kind           string `json:"kind"` // "asr" = auto-generated
	IsTranslatable bool   `json:"isTranslatable"`
}

// ytText is YouTube's text container: either simpleText or a list of runs.
type ytText struct {
	SimpleText string `json:"simpleText"`
	Runs       []struct {
		Text string `json:"text"`
	} `json:"runs"`
}

func (t ytText) String() string {
	if t.SimpleText != "" {
		return t.SimpleText
	}
	if len(t.Runs) > 0 {
		return t.Runs[0].Text
	}
	return ""
}

// --- Timedtext XML types ---

type ytTimedText struct {
	Lines []ytLine `xml:"text"`
}

type ytLine struct {
	Start    float64 `xml:"start,attr"`
	Duration float64 `xml:"dur,attr"`
	Text     string  `xml:",chardata"`
}

// request sends one HTTP request through the browser client when configured,
// falling back to the standard net/http client. Transport failures carry a stack trace.
func (c *YouTubeClient) request(ctx context.Context, method, endpoint string, headers map[string]string, body []byte, limit int64) ([]byte, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, pkgerrors.WithStack(err)
	}

	if c.browser != nil {
		var rd io.Reader
		if body != nil {
			rd = bytes.NewReader(body)
		}
		data, _, status, err := c.browser.Do(method, endpoint, headers, rd)
		if err != nil {
			return nil, 0, pkgerrors.Wrapf(err, "%s %s", method, endpoint)
		}
		if int64(len(data)) > limit {
			data = data[:limit]
		}
		return data, status, nil
	}

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, rd)
	if err != nil {
		return nil, 0, pkgerrors.WithStack(err)
	}
	for k, v := range headers {
		// net/http only decompresses transparently when it sets the header itself.
		if strings.EqualFold(k, "accept-encoding") {
			continue
		}
		req.Header.Set(k, v)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, pkgerrors.WithStack(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, resp.StatusCode, pkgerrors.Wrap(err, "read body")
	}
	return data, resp.StatusCode, nil
}

// postPlayer POSTs the ANDROID client payload to the Innertube /player endpoint.
func (c *YouTubeClient) postPlayer(ctx context.Context, videoID, apiKey string) (*innertubePlayerResp, error) {
	reqBody, err := json.Marshal(innertubeReq{
		VideoID: videoID,
		Context: innertubeCtx{
			Client: innertubeClient{
				ClientName:        "ANDROID",
				ClientVersion:     ytAndroidVersion,
				AndroidSdkVersion: 30,
				Hl:                "en",
				Gl:                "US",
			},
		},
		RacyCheckOk:    true,
		ContentCheckOk: true,
	})
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s%s?key=%s&prettyPrint=false", c.baseURL, ytPlayerPath, apiKey)
	headers := map[string]string{
		"content-type":             "application/json",
		"user-agent":               ytAndroidUA,
		"x-youtube-client-name":    "3",
		"x-youtube-client-version": ytAndroidVersion,
		"accept-language":          "en-US",
	}
	data, status, err := c.request(ctx, http.MethodPost, endpoint, headers, reqBody, maxPlayerBytes)
	if err != nil {
		return nil, newYouTubeError(KindRequestFailed, videoID, "innertube player", err)
	}
	if err := statusError(videoID, status, "innertube player"); err != nil {
		return nil, err
	}

	var playerResp innertubePlayerResp
	if err := json.Unmarshal(data, &playerResp); err != nil {
		return nil, newYouTubeError(KindDataUnparsable, videoID, "decode player", err)
	}
	return &playerResp, nil
}

// statusError maps a non-200 HTTP status to a YouTubeError.
func statusError(videoID string, status int, what string) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusTooManyRequests:
		return newYouTubeError(KindIPBlocked, videoID, what+": HTTP 429", nil)
	default:
		return newYouTubeError(KindRequestFailed, videoID, fmt.Sprintf("%s: HTTP %d %s", what, status, http.StatusText(status)), nil)
	}
}

// watchHeaders returns browser headers for the watch page.
func watchHeaders() map[string]string {
	h := engine.ChromeHeaders()
	h["accept-language"] = "en-US,en;q=0.9"
	return h
}

// isURL reports whether a "video id" is really a URL.
func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
