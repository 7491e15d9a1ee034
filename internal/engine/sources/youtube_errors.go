package sources

import (
	"fmt"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

// ErrorKind names the reason a transcript could not be retrieved.
type ErrorKind string

const (
	KindTranscriptsDisabled ErrorKind = "TranscriptsDisabled"
	KindNoTranscriptFound   ErrorKind = "NoTranscriptFound"
	KindVideoUnavailable    ErrorKind = "VideoUnavailable"
	KindVideoUnplayable     ErrorKind = "VideoUnplayable"
	KindInvalidVideoID      ErrorKind = "InvalidVideoId"
	KindAgeRestricted       ErrorKind = "AgeRestricted"
	KindRequestBlocked      ErrorKind = "RequestBlocked"
	KindIPBlocked           ErrorKind = "IpBlocked"
	KindPoTokenRequired     ErrorKind = "PoTokenRequired"
	KindRequestFailed       ErrorKind = "YouTubeRequestFailed"
	KindDataUnparsable      ErrorKind = "YouTubeDataUnparsable"
	KindConsentCookie       ErrorKind = "FailedToCreateConsentCookie"
)

var kindCauses = map[ErrorKind]string{
	KindTranscriptsDisabled: "subtitles are disabled for this video",
	KindNoTranscriptFound:   "no transcripts were found for any of the requested language codes",
	KindVideoUnavailable:    "the video is no longer available",
	KindVideoUnplayable:     "the video is unplayable",
	KindInvalidVideoID:      "you provided an invalid video id (pass the video id, not the URL)",
	KindAgeRestricted:       "this video is age-restricted and requires authentication",
	KindRequestBlocked:      "YouTube is blocking requests from your IP",
	KindIPBlocked:           "YouTube is blocking requests from your IP (too many requests or cloud provider IP)",
	KindPoTokenRequired:     "the requested caption track requires a PO token",
	KindRequestFailed:       "request to YouTube failed",
	KindDataUnparsable:      "the data required to fetch the transcript is not parsable",
	KindConsentCookie:       "failed to automatically give consent to saving cookies",
}

// YouTubeError reports why a transcript could not be retrieved for a video.
type YouTubeError struct {
	Kind    ErrorKind
	VideoID string
	Detail  string
	Err     error
}

func (e *YouTubeError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "could not retrieve a transcript for %s%s: %s", ytWatchBase, e.VideoID, kindCauses[e.Kind])
	if e.Detail != "" {
		sb.WriteString(" (")
		sb.WriteString(e.Detail)
		sb.WriteString(")")
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

// KindName returns the error kind name, e.g. "VideoUnavailable".
func (e *YouTubeError) KindName() string { return string(e.Kind) }

func (e *YouTubeError) Unwrap() error { return e.Err }

// Is matches sentinel errors by kind: errors.Is(err, ErrTranscriptsDisabled).
func (e *YouTubeError) Is(target error) bool {
	t, ok := target.(*YouTubeError)
	if !ok {
		return false
	}
	return t.VideoID == "" && t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrTranscriptsDisabled = &YouTubeError{Kind: KindTranscriptsDisabled}
	ErrNoTranscriptFound   = &YouTubeError{Kind: KindNoTranscriptFound}
	ErrVideoUnavailable    = &YouTubeError{Kind: KindVideoUnavailable}
	ErrRequestBlocked      = &YouTubeError{Kind: KindRequestBlocked}
	ErrIPBlocked           = &YouTubeError{Kind: KindIPBlocked}
	ErrPoTokenRequired     = &YouTubeError{Kind: KindPoTokenRequired}
)

// newYouTubeError builds a YouTubeError carrying the caller's stack trace.
func newYouTubeError(kind ErrorKind, videoID, detail string, err error) error {
	return pkgerrors.WithStack(&YouTubeError{Kind: kind, VideoID: videoID, Detail: detail, Err: err})
}
