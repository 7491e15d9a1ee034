// Package transcript turns a video ID into a single TranscriptResult-shaped record:
// preferred language first, then the first manual track, then the first generated one.
package transcript

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/sources"
	pkgerrors "github.com/pkg/errors"
)

// Track is one selectable caption track.
type Track interface {
	Fetch(ctx context.Context) ([]sources.Snippet, error)
}

// Catalog lists a video's tracks by origin, in collaborator order.
type Catalog struct {
	Manual    []Track
	Generated []Track
}

// Collaborator is the external transcript service.
type Collaborator interface {
	Name() string
	Fetch(ctx context.Context, videoID string, languages []string) ([]sources.Snippet, error)
	List(ctx context.Context, videoID string) (Catalog, error)
}

// YouTube adapts sources.YouTubeClient to Collaborator.
type YouTube struct {
	client *sources.YouTubeClient
}

// NewYouTube wraps a YouTube client.
func NewYouTube(c *sources.YouTubeClient) *YouTube {
	return &YouTube{client: c}
}

func (y *YouTube) Name() string { return y.client.Name() }

func (y *YouTube) Fetch(ctx context.Context, videoID string, languages []string) ([]sources.Snippet, error) {
	return y.client.Fetch(ctx, videoID, languages)
}

func (y *YouTube) List(ctx context.Context, videoID string) (Catalog, error) {
	list, err := y.client.List(ctx, videoID)
	if err != nil {
		return Catalog{}, err
	}
	var c Catalog
	for _, t := range list.ManuallyCreated {
		c.Manual = append(c.Manual, t)
	}
	for _, t := range list.Generated {
		c.Generated = append(c.Generated, t)
	}
	return c, nil
}

// Fetcher retrieves one transcript per call. It holds no mutable state.
type Fetcher struct {
	source    Collaborator
	languages []string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithLanguages replaces the preferred language list (default: en).
// The first code is the language tag reported on success.
func WithLanguages(langs []string) Option {
	return func(f *Fetcher) {
		if len(langs) > 0 {
			f.languages = langs
		}
	}
}

// NewFetcher returns a Fetcher backed by source.
func NewFetcher(source Collaborator, opts ...Option) *Fetcher {
	f := &Fetcher{source: source, languages: []string{PreferredLanguage}}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Fetch never returns an error: every failure is reported inside the Result.
// The reported language is the first preferred code even when the fallback
// picked a track in another language.
func (f *Fetcher) Fetch(ctx context.Context, videoID string) Result {
	engine.IncrTranscriptRequests()

	var snippets []sources.Snippet
	err := engine.TrackOperation(ctx, "transcript_fetch", func(ctx context.Context) error {
		var err error
		snippets, err = f.retrieve(ctx, videoID)
		return err
	})
	if err != nil {
		engine.IncrTranscriptFailures()
		slog.Debug("transcript: fetch failed", slog.String("id", videoID), slog.Any("error", err))
		return classify(err)
	}

	text := JoinSnippets(snippets)
	if text == "" {
		engine.IncrTranscriptFailures()
		return Failure(MsgNoTranscripts)
	}
	return Result{
		Success:    true,
		Transcript: text,
		Language:   f.languages[0],
		Source:     f.source.Name(),
	}
}

func (f *Fetcher) retrieve(ctx context.Context, videoID string) ([]sources.Snippet, error) {
	snippets, err := f.source.Fetch(ctx, videoID, f.languages)
	if err == nil {
		return snippets, nil
	}
	if !errors.Is(err, sources.ErrNoTranscriptFound) {
		return nil, err
	}

	engine.IncrTranscriptFallbacks()
	slog.Debug("transcript: no preferred-language track, listing all",
		slog.String("id", videoID), slog.Any("langs", f.languages))

	catalog, err := f.source.List(ctx, videoID)
	if err != nil {
		return nil, err
	}
	switch {
	case len(catalog.Manual) > 0:
		return catalog.Manual[0].Fetch(ctx)
	case len(catalog.Generated) > 0:
		return catalog.Generated[0].Fetch(ctx)
	}
	return nil, fmt.Errorf("no transcripts found for video ID %s: %w", videoID, sources.ErrNoTranscriptFound)
}

// JoinSnippets joins snippet texts with single spaces, in order.
func JoinSnippets(snippets []sources.Snippet) string {
	texts := make([]string, len(snippets))
	for i, s := range snippets {
		texts[i] = s.Text
	}
	return strings.Join(texts, " ")
}

func classify(err error) Result {
	switch {
	case errors.Is(err, sources.ErrTranscriptsDisabled):
		return Failure(MsgTranscriptsDisabled)
	case errors.Is(err, sources.ErrNoTranscriptFound):
		return Failure(MsgNoTranscripts)
	}
	r := Failure(fmt.Sprintf("%s: %s", ErrorKind(err), err.Error()))
	r.Traceback = Traceback(err)
	return r
}

type kindNamer interface {
	KindName() string
}

// genericErrorTypes carry no information about what failed.
var genericErrorTypes = map[string]bool{
	"errors.errorString": true,
	"errors.joinError":   true,
	"fmt.wrapError":      true,
	"fmt.wrapErrors":     true,
	"errors.fundamental": true,
	"errors.withStack":   true,
	"errors.withMessage": true,
}

// ErrorKind names err: the kind of a typed collaborator error, else the first
// non-generic Go type in the chain, else "Error".
func ErrorKind(err error) string {
	name := ""
	for e := err; e != nil; e = errors.Unwrap(e) {
		if k, ok := e.(kindNamer); ok {
			return k.KindName()
		}
		if t := strings.TrimPrefix(fmt.Sprintf("%T", e), "*"); name == "" && !genericErrorTypes[t] {
			name = t
		}
	}
	if name == "" {
		return "Error"
	}
	return name
}

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// Traceback renders err with the stack recorded where it was created. Errors
// without a recorded stack get the caller's.
func Traceback(err error) string {
	var st stackTracer
	if !errors.As(err, &st) {
		st = pkgerrors.WithStack(err).(stackTracer)
	}
	return fmt.Sprintf("%s: %s%+v", ErrorKind(err), err.Error(), st.StackTrace())
}
