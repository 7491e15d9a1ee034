package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWatchPage = `<html><script>ytcfg.set({"INNERTUBE_API_KEY": "test-key_123"});</script></html>`

const testTimedText = `<?xml version="1.0" encoding="utf-8" ?><transcript>
<text start="0.0" dur="1.5">Hey &amp;#39;there&amp;#39;</text>
<text start="1.5" dur="2.0">&lt;i&gt;general&lt;/i&gt; kenobi</text>
<text start="3.5" dur="1.0"></text>
<text start="4.5" dur="1.0">a &lt; b</text>
</transcript>`

// fakeYouTube serves a watch page, the Innertube player endpoint and timedtext tracks.
type fakeYouTube struct {
	t          *testing.T
	watchPage  string
	player     func(baseURL string) map[string]any
	playerCode int
	timedText  map[string]string // lang → XML
	wrap       func(http.Handler) http.Handler
}

func (f *fakeYouTube) start() *httptest.Server {
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, f.watchPage)
	})
	mux.HandleFunc("/youtubei/v1/player", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(f.t, http.MethodPost, r.Method)
		assert.Equal(f.t, "test-key_123", r.URL.Query().Get("key"))
		var req innertubeReq
		assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(f.t, "ANDROID", req.Context.Client.ClientName)
		if f.playerCode != 0 {
			w.WriteHeader(f.playerCode)
			return
		}
		_ = json.NewEncoder(w).Encode(f.player(srv.URL))
	})
	mux.HandleFunc("/api/timedtext", func(w http.ResponseWriter, r *http.Request) {
		xml, ok := f.timedText[r.URL.Query().Get("lang")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, xml)
	})
	var h http.Handler = mux
	if f.wrap != nil {
		h = f.wrap(mux)
	}
	srv = httptest.NewServer(h)
	f.t.Cleanup(srv.Close)
	return srv
}

func track(base, lang, name, kind string) map[string]any {
	return map[string]any{
		"baseUrl":        base + "/api/timedtext?v=vid&lang=" + lang + "&fmt=srv3",
		"name":           map[string]any{"runs": []map[string]any{{"text": name}}},
		"languageCode":   lang,
		"kind":           kind,
		"isTranslatable": true,
	}
}

func playerWith(tracks ...func(string) map[string]any) func(string) map[string]any {
	return func(base string) map[string]any {
		list := make([]map[string]any, 0, len(tracks))
		for _, tr := range tracks {
			list = append(list, tr(base))
		}
		return map[string]any{
			"playabilityStatus": map[string]any{"status": "OK"},
			"captions": map[string]any{
				"playerCaptionsTracklistRenderer": map[string]any{"captionTracks": list},
			},
		}
	}
}

func manual(lang, name string) func(string) map[string]any {
	return func(base string) map[string]any { return track(base, lang, name, "") }
}

func generated(lang, name string) func(string) map[string]any {
	return func(base string) map[string]any { return track(base, lang, name, "asr") }
}

func newTestClient(srv *httptest.Server) *YouTubeClient {
	return NewYouTubeClient(WithBaseURL(srv.URL), WithHTTPClient(srv.Client()), WithBrowserClient(nil))
}

func TestListSplitsManualAndGenerated(t *testing.T) {
	f := &fakeYouTube{
		t:         t,
		watchPage: testWatchPage,
		player:    playerWith(generated("en", "English (auto-generated)"), manual("de", "German"), manual("fr", "French")),
	}
	c := newTestClient(f.start())

	list, err := c.List(context.Background(), "vid")
	require.NoError(t, err)
	require.Len(t, list.ManuallyCreated, 2)
	require.Len(t, list.Generated, 1)

	assert.Equal(t, "de", list.ManuallyCreated[0].LanguageCode)
	assert.Equal(t, "German", list.ManuallyCreated[0].Language)
	assert.False(t, list.ManuallyCreated[0].IsGenerated)
	assert.Equal(t, "fr", list.ManuallyCreated[1].LanguageCode)
	assert.True(t, list.Generated[0].IsGenerated)
	assert.NotContains(t, list.Generated[0].url, "&fmt=srv3")
}

func TestFetchPreferredLanguage(t *testing.T) {
	f := &fakeYouTube{
		t:         t,
		watchPage: testWatchPage,
		player:    playerWith(manual("de", "German"), generated("en", "English (auto-generated)")),
		timedText: map[string]string{"en": testTimedText},
	}
	c := newTestClient(f.start())

	snippets, err := c.Fetch(context.Background(), "vid", []string{"en"})
	require.NoError(t, err)
	require.Len(t, snippets, 3)
	assert.Equal(t, "Hey 'there'", snippets[0].Text)
	assert.Equal(t, "general kenobi", snippets[1].Text)
	assert.Equal(t, "a < b", snippets[2].Text)
	assert.InDelta(t, 1.5, snippets[1].Start, 1e-9)
	assert.InDelta(t, 2.0, snippets[1].Duration, 1e-9)
}

func TestFetchNoTranscriptFound(t *testing.T) {
	f := &fakeYouTube{
		t:         t,
		watchPage: testWatchPage,
		player:    playerWith(manual("de", "German")),
	}
	c := newTestClient(f.start())

	_, err := c.Fetch(context.Background(), "vid", []string{"en"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoTranscriptFound))
	assert.Contains(t, err.Error(), "available: de")
}

func TestListTranscriptsDisabled(t *testing.T) {
	f := &fakeYouTube{
		t:         t,
		watchPage: testWatchPage,
		player: func(string) map[string]any {
			return map[string]any{"playabilityStatus": map[string]any{"status": "OK"}}
		},
	}
	c := newTestClient(f.start())

	_, err := c.List(context.Background(), "vid")
	assert.True(t, errors.Is(err, ErrTranscriptsDisabled), "got %v", err)
}

func TestListPlayabilityErrors(t *testing.T) {
	tests := []struct {
		name    string
		videoID string
		status  string
		reason  string
		want    ErrorKind
	}{
		{"bot check", "vid", "LOGIN_REQUIRED", reasonBotCheck, KindRequestBlocked},
		{"age restricted", "vid", "LOGIN_REQUIRED", reasonAgeRestricted, KindAgeRestricted},
		{"unavailable", "vid", "ERROR", reasonUnavailable, KindVideoUnavailable},
		{"url as id", "https://youtu.be/x", "ERROR", reasonUnavailable, KindInvalidVideoID},
		{"unplayable", "vid", "UNPLAYABLE", "Video unavailable in your country", KindVideoUnplayable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeYouTube{
				t:         t,
				watchPage: testWatchPage,
				player: func(string) map[string]any {
					return map[string]any{"playabilityStatus": map[string]any{"status": tt.status, "reason": tt.reason}}
				},
			}
			c := newTestClient(f.start())

			_, err := c.List(context.Background(), tt.videoID)
			var ytErr *YouTubeError
			require.True(t, errors.As(err, &ytErr), "got %v", err)
			assert.Equal(t, tt.want, ytErr.Kind)
			assert.Equal(t, string(tt.want), ytErr.KindName())
		})
	}
}

func TestListPlayerTooManyRequests(t *testing.T) {
	f := &fakeYouTube{t: t, watchPage: testWatchPage, playerCode: http.StatusTooManyRequests}
	c := newTestClient(f.start())

	_, err := c.List(context.Background(), "vid")
	assert.True(t, errors.Is(err, ErrIPBlocked), "got %v", err)
}

func TestListRecaptchaPage(t *testing.T) {
	f := &fakeYouTube{t: t, watchPage: `<div class="g-recaptcha"></div>`}
	c := newTestClient(f.start())

	_, err := c.List(context.Background(), "vid")
	assert.True(t, errors.Is(err, ErrIPBlocked), "got %v", err)
}

func TestListAcceptsConsentOnce(t *testing.T) {
	consent := `<form action="https://consent.youtube.com/s"><input name="v" value="cb.20210328-17-p0.en+FX+123"></form>`
	f := &fakeYouTube{
		t:      t,
		player: playerWith(manual("en", "English")),
		wrap:   func(next http.Handler) http.Handler { return consentHandler(next, consent) },
	}

	list, err := newTestClient(f.start()).List(context.Background(), "vid")
	require.NoError(t, err)
	require.Len(t, list.ManuallyCreated, 1)
	assert.Equal(t, "CONSENT=YES+cb.20210328-17-p0.en+FX+123", list.ManuallyCreated[0].cookie)
}

// consentHandler serves the real watch page once the consent cookie is present.
func consentHandler(next http.Handler, consent string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/watch" {
			if strings.HasPrefix(r.Header.Get("Cookie"), "CONSENT=YES+") {
				fmt.Fprint(w, testWatchPage)
				return
			}
			fmt.Fprint(w, consent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func TestTranscriptFetchPoToken(t *testing.T) {
	tr := &Transcript{VideoID: "vid", LanguageCode: "en", url: "https://example.com/api/timedtext?v=vid&exp=xpe"}
	_, err := tr.Fetch(context.Background())
	assert.True(t, errors.Is(err, ErrPoTokenRequired), "got %v", err)
}

func TestFindTranscriptPrefersManualPerLanguage(t *testing.T) {
	list := &TranscriptList{
		VideoID:         "vid",
		ManuallyCreated: []*Transcript{{LanguageCode: "de"}},
		Generated:       []*Transcript{{LanguageCode: "en", IsGenerated: true}, {LanguageCode: "de", IsGenerated: true}},
	}

	got, err := list.FindTranscript([]string{"de", "en"})
	require.NoError(t, err)
	assert.False(t, got.IsGenerated)

	got, err = list.FindTranscript([]string{"en"})
	require.NoError(t, err)
	assert.True(t, got.IsGenerated)

	_, err = list.FindTranscript([]string{"ja"})
	assert.True(t, errors.Is(err, ErrNoTranscriptFound))
}

func TestParseTimedText(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{"entities", "Hey &amp;#39;there&amp;#39;", "Hey 'there'"},
		{"formatting tags", "&lt;i&gt;general&lt;/i&gt; kenobi", "general kenobi"},
		{"spaced less-than", "a &lt; b", "a < b"},
		{"unterminated tag", "a&lt;b then", "a<b then"},
		{"heart", "&lt;3 you", "<3 you"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := `<transcript><text start="0" dur="1">` + tt.line + `</text></transcript>`
			snippets, err := parseTimedText([]byte(doc))
			require.NoError(t, err)
			require.Len(t, snippets, 1)
			assert.Equal(t, tt.want, snippets[0].Text)
		})
	}
}

func TestWatchPageEscapesVideoID(t *testing.T) {
	var gotID string
	f := &fakeYouTube{t: t, watchPage: "no key here"}
	f.wrap = func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/watch" {
				gotID = r.URL.Query().Get("v")
			}
			next.ServeHTTP(w, r)
		})
	}
	c := newTestClient(f.start())

	_, err := c.List(context.Background(), "a b&c=d")
	require.Error(t, err)
	assert.Equal(t, "a b&c=d", gotID)
}

func TestParseTimedTextInvalidXML(t *testing.T) {
	_, err := parseTimedText([]byte("<transcript><text>unclosed"))
	assert.Error(t, err)
}

func TestYouTubeErrorIs(t *testing.T) {
	err := newYouTubeError(KindVideoUnavailable, "abc", "", nil)
	assert.True(t, errors.Is(err, ErrVideoUnavailable))
	assert.False(t, errors.Is(err, ErrTranscriptsDisabled))
	assert.Contains(t, err.Error(), "https://www.youtube.com/watch?v=abc")
}
