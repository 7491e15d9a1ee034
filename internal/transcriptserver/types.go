package transcriptserver

import "github.com/anatolykoptev/go_transcript/internal/engine/sources"

// TranscriptInput is the input for youtube_transcript.
type TranscriptInput struct {
	Video     string   `json:"video" jsonschema:"YouTube video ID or URL (watch, youtu.be, shorts, embed)"`
	Languages []string `json:"languages,omitempty" jsonschema:"Preferred language codes in priority order (default: TRANSCRIPT_LANGUAGES or en)"`
}

// TranscriptOutput mirrors the transcript endpoint response: metadata plus transcript or failure reason.
type TranscriptOutput struct {
	VideoID             string                 `json:"videoId"`
	Video               *sources.VideoMetadata `json:"video,omitempty"`
	TranscriptAvailable bool                   `json:"transcriptAvailable"`
	Language            string                 `json:"language,omitempty"`
	Source              string                 `json:"source,omitempty"`
	Transcript          string                 `json:"transcript"`
	Reason              string                 `json:"reason,omitempty"`
}

// TrackListInput is the input for youtube_transcript_list.
type TrackListInput struct {
	Video string `json:"video" jsonschema:"YouTube video ID or URL"`
}

// TrackInfo describes one caption track.
type TrackInfo struct {
	Language       string `json:"language"`
	LanguageCode   string `json:"languageCode"`
	IsGenerated    bool   `json:"isGenerated"`
	IsTranslatable bool   `json:"isTranslatable"`
}

// TrackListOutput lists a video's caption tracks by origin.
type TrackListOutput struct {
	VideoID         string      `json:"videoId"`
	ManuallyCreated []TrackInfo `json:"manuallyCreated"`
	Generated       []TrackInfo `json:"generated"`
}

// SummaryInput is the input for youtube_transcript_summary.
type SummaryInput struct {
	Video string `json:"video" jsonschema:"YouTube video ID or URL"`
	Focus string `json:"focus,omitempty" jsonschema:"Optional aspect to emphasise in the summary"`
}

// SummaryOutput is the LLM digest of a transcript.
type SummaryOutput struct {
	VideoID   string   `json:"videoId"`
	Title     string   `json:"title,omitempty"`
	Language  string   `json:"language"`
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"keyPoints"`
	Keywords  []string `json:"keywords"`
}
