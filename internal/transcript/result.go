package transcript

import (
	"bytes"
	"encoding/json"
)

// Fixed messages reported for the two classified failures.
const (
	MsgTranscriptsDisabled = "Transcripts are disabled for this video"
	MsgNoTranscripts       = "No transcripts available for this video"
	MsgVideoIDRequired     = "Video ID required"
)

// PreferredLanguage is the language tried first and the tag reported on success.
const PreferredLanguage = "en"

// Result is the record printed for one invocation.
// Success implies a non-empty Transcript and no Error; failure implies an empty
// Transcript and a non-empty Error.
type Result struct {
	Success    bool   `json:"success"`
	Transcript string `json:"transcript"`
	Error      string `json:"error,omitempty"`
	Language   string `json:"language,omitempty"`
	Source     string `json:"source,omitempty"`
	Traceback  string `json:"traceback,omitempty"`
}

// Failure builds a failed result with the given message.
func Failure(msg string) Result {
	return Result{Success: false, Transcript: "", Error: msg}
}

// UsageError is the record for a missing video ID. It carries no transcript field.
type UsageError struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// MarshalLine encodes v as one line of JSON without HTML escaping.
func MarshalLine(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
