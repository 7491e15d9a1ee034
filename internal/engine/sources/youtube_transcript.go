package sources

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	xhtml "golang.org/x/net/html"
)

// YouTube transcript retrieval:
//  1. GET watch page → INNERTUBE_API_KEY (accepting the EU consent page once if shown)
//  2. POST ANDROID Innertube /player → playability check → captionTracks
//  3. GET the selected track's timedtext XML → snippets

// SourceName identifies this collaborator in results.
const SourceName = "youtube-innertube"

var (
	innertubeKeyRE   = regexp.MustCompile(`"INNERTUBE_API_KEY":\s*"([a-zA-Z0-9_-]+)"`)
	consentValueRE   = regexp.MustCompile(`name="v" value="(.*?)"`)
	consentActionTag = `action="https://consent.youtube.com/s"`
	recaptchaTag     = `class="g-recaptcha"`
	captionTagRE     = regexp.MustCompile(`<[^>]*>`)
)

// Playability reasons YouTube returns for blocked or restricted videos.
const (
	reasonBotCheck      = "Sign in to confirm you’re not a bot"
	reasonAgeRestricted = "This video may be inappropriate for some users."
	reasonUnavailable   = "This video is unavailable"
)

// Snippet is one timed caption line.
type Snippet struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// YouTubeClient retrieves caption tracks from YouTube. Safe for concurrent use.
type YouTubeClient struct {
	baseURL    string
	httpClient *http.Client
	browser    *engine.BrowserClient
}

// ClientOption configures a YouTubeClient.
type ClientOption func(*YouTubeClient)

// WithBaseURL overrides https://www.youtube.com (tests).
func WithBaseURL(u string) ClientOption {
	return func(c *YouTubeClient) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient sets the net/http client used when no browser client is set.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *YouTubeClient) { c.httpClient = hc }
}

// WithBrowserClient routes requests through a Chrome-fingerprinted client.
func WithBrowserClient(bc *engine.BrowserClient) ClientOption {
	return func(c *YouTubeClient) { c.browser = bc }
}

// NewYouTubeClient returns a client wired to engine.Cfg unless overridden by opts.
func NewYouTubeClient(opts ...ClientOption) *YouTubeClient {
	c := &YouTubeClient{
		baseURL:    ytBaseURL,
		httpClient: engine.Cfg.HTTPClient,
		browser:    engine.Cfg.BrowserClient,
	}
	for _, o := range opts {
		o(c)
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}
	return c
}

// Name returns the collaborator name reported in results.
func (c *YouTubeClient) Name() string { return SourceName }

// Transcript is a handle on one caption track of a video.
type Transcript struct {
	VideoID        string `json:"videoId"`
	Language       string `json:"language"`
	LanguageCode   string `json:"languageCode"`
	IsGenerated    bool   `json:"isGenerated"`
	IsTranslatable bool   `json:"isTranslatable"`

	url    string
	cookie string
	client *YouTubeClient
}

// TranscriptList holds a video's caption tracks split by origin, in YouTube's order.
type TranscriptList struct {
	VideoID         string
	ManuallyCreated []*Transcript
	Generated       []*Transcript
}

// FindTranscript returns the first track matching languages in priority order,
// preferring a manually created track over a generated one for each code.
func (l *TranscriptList) FindTranscript(languages []string) (*Transcript, error) {
	for _, code := range languages {
		for _, group := range [][]*Transcript{l.ManuallyCreated, l.Generated} {
			for _, t := range group {
				if t.LanguageCode == code {
					return t, nil
				}
			}
		}
	}
	return nil, newYouTubeError(KindNoTranscriptFound, l.VideoID,
		fmt.Sprintf("requested %s; available: %s", strings.Join(languages, ","), l.describe()), nil)
}

func (l *TranscriptList) describe() string {
	codes := make([]string, 0, len(l.ManuallyCreated)+len(l.Generated))
	for _, t := range l.ManuallyCreated {
		codes = append(codes, t.LanguageCode)
	}
	for _, t := range l.Generated {
		codes = append(codes, t.LanguageCode+"(auto)")
	}
	if len(codes) == 0 {
		return "none"
	}
	return strings.Join(codes, ",")
}

// Fetch retrieves the transcript for videoID in the first available language of languages.
func (c *YouTubeClient) Fetch(ctx context.Context, videoID string, languages []string) ([]Snippet, error) {
	list, err := c.List(ctx, videoID)
	if err != nil {
		return nil, err
	}
	t, err := list.FindTranscript(languages)
	if err != nil {
		return nil, err
	}
	return t.Fetch(ctx)
}

// List returns every caption track available for videoID.
func (c *YouTubeClient) List(ctx context.Context, videoID string) (*TranscriptList, error) {
	apiKey, cookie, err := c.fetchInnertubeKey(ctx, videoID)
	if err != nil {
		return nil, err
	}

	player, err := c.postPlayer(ctx, videoID, apiKey)
	if err != nil {
		return nil, err
	}
	if err := assertPlayability(videoID, player.PlayabilityStatus); err != nil {
		return nil, err
	}

	if player.Captions == nil || player.Captions.PlayerCaptionsTracklistRenderer == nil ||
		len(player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks) == 0 {
		return nil, newYouTubeError(KindTranscriptsDisabled, videoID, "", nil)
	}

	list := &TranscriptList{VideoID: videoID}
	for _, track := range player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks {
		t := &Transcript{
			VideoID:        videoID,
			Language:       track.Name.String(),
			LanguageCode:   track.LanguageCode,
			IsGenerated:    track.Kind == "asr",
			IsTranslatable: track.IsTranslatable,
			url:            strings.Replace(track.BaseURL, "&fmt=srv3", "", 1),
			cookie:         cookie,
			client:         c,
		}
		if t.IsGenerated {
			list.Generated = append(list.Generated, t)
		} else {
			list.ManuallyCreated = append(list.ManuallyCreated, t)
		}
	}
	slog.Debug("youtube: caption tracks listed",
		slog.String("id", videoID),
		slog.Int("manual", len(list.ManuallyCreated)),
		slog.Int("generated", len(list.Generated)))
	return list, nil
}

// fetchInnertubeKey loads the watch page and extracts INNERTUBE_API_KEY.
// Returns the consent cookie that had to be set, if any.
func (c *YouTubeClient) fetchInnertubeKey(ctx context.Context, videoID string) (apiKey, cookie string, err error) {
	page, err := c.fetchWatchPage(ctx, videoID, "")
	if err != nil {
		return "", "", err
	}

	if strings.Contains(page, consentActionTag) {
		m := consentValueRE.FindStringSubmatch(page)
		if len(m) < 2 {
			return "", "", newYouTubeError(KindConsentCookie, videoID, "consent form without value", nil)
		}
		cookie = "CONSENT=YES+" + m[1]
		page, err = c.fetchWatchPage(ctx, videoID, cookie)
		if err != nil {
			return "", "", err
		}
		if strings.Contains(page, consentActionTag) {
			return "", "", newYouTubeError(KindConsentCookie, videoID, "consent page shown again", nil)
		}
	}

	if m := innertubeKeyRE.FindStringSubmatch(page); len(m) >= 2 {
		return m[1], cookie, nil
	}
	if strings.Contains(page, recaptchaTag) {
		return "", "", newYouTubeError(KindIPBlocked, videoID, "recaptcha on watch page", nil)
	}
	return "", "", newYouTubeError(KindDataUnparsable, videoID, "INNERTUBE_API_KEY not found", nil)
}

func (c *YouTubeClient) fetchWatchPage(ctx context.Context, videoID, cookie string) (string, error) {
	headers := watchHeaders()
	if cookie != "" {
		headers["cookie"] = cookie
	}
	data, status, err := c.request(ctx, http.MethodGet, c.baseURL+"/watch?v="+url.QueryEscape(videoID), headers, nil, maxPageBytes)
	if err != nil {
		return "", newYouTubeError(KindRequestFailed, videoID, "watch page", err)
	}
	if err := statusError(videoID, status, "watch page"); err != nil {
		return "", err
	}
	return xhtml.UnescapeString(string(data)), nil
}

// assertPlayability turns a non-OK playability status into a typed error.
func assertPlayability(videoID string, ps *playabilityStatus) error {
	if ps == nil || ps.Status == "" || ps.Status == "OK" {
		return nil
	}
	switch {
	case ps.Status == "LOGIN_REQUIRED" && ps.Reason == reasonBotCheck:
		return newYouTubeError(KindRequestBlocked, videoID, ps.Reason, nil)
	case ps.Status == "LOGIN_REQUIRED" && ps.Reason == reasonAgeRestricted:
		return newYouTubeError(KindAgeRestricted, videoID, ps.Reason, nil)
	case ps.Status == "ERROR" && ps.Reason == reasonUnavailable:
		if isURL(videoID) {
			return newYouTubeError(KindInvalidVideoID, videoID, "", nil)
		}
		return newYouTubeError(KindVideoUnavailable, videoID, "", nil)
	}
	detail := ps.Reason
	if subs := ps.subreasons(); len(subs) > 0 {
		detail += ": " + strings.Join(subs, "; ")
	}
	return newYouTubeError(KindVideoUnplayable, videoID, detail, nil)
}

// needsPoToken reports whether a caption track URL requires a PoToken (browser-only).
func needsPoToken(baseURL string) bool {
	return strings.Contains(baseURL, "&exp=xpe")
}

// Fetch downloads and parses this track's timed text.
func (t *Transcript) Fetch(ctx context.Context) ([]Snippet, error) {
	if needsPoToken(t.url) {
		return nil, newYouTubeError(KindPoTokenRequired, t.VideoID, t.LanguageCode, nil)
	}
	engine.IncrTimedTextRequests()

	headers := map[string]string{
		"user-agent":      engine.UserAgentChrome,
		"accept-language": "en-US",
	}
	if t.cookie != "" {
		headers["cookie"] = t.cookie
	}
	data, status, err := t.client.request(ctx, http.MethodGet, t.url, headers, nil, maxTimedTextSize)
	if err != nil {
		return nil, newYouTubeError(KindRequestFailed, t.VideoID, "timedtext", err)
	}
	if err := statusError(t.VideoID, status, "timedtext"); err != nil {
		return nil, err
	}

	snippets, err := parseTimedText(data)
	if err != nil {
		return nil, newYouTubeError(KindDataUnparsable, t.VideoID, "timedtext", err)
	}
	return snippets, nil
}

// parseTimedText parses timedtext XML. Lines without any text are skipped.
func parseTimedText(data []byte) ([]Snippet, error) {
	var tt ytTimedText
	if err := xml.Unmarshal(data, &tt); err != nil {
		return nil, fmt.Errorf("parse timedtext XML: %w", err)
	}
	snippets := make([]Snippet, 0, len(tt.Lines))
	for _, line := range tt.Lines {
		if line.Text == "" {
			continue
		}
		snippets = append(snippets, Snippet{
			Text:     cleanCaptionText(line.Text),
			Start:    line.Start,
			Duration: line.Duration,
		})
	}
	return snippets, nil
}

// cleanCaptionText unescapes HTML entities and drops complete formatting tags.
// A "<" with no closing ">" is kept as text.
func cleanCaptionText(s string) string {
	return captionTagRE.ReplaceAllString(xhtml.UnescapeString(s), "")
}
