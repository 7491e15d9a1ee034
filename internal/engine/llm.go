package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/llm"
)

// transcriptMaxLen caps the transcript characters sent to the LLM.
const transcriptMaxLen = 12000

// ErrLLMDisabled is returned when no LLM client is configured.
var ErrLLMDisabled = errors.New("LLM is not configured (set LLM_API_KEY)")

// TranscriptSummary is the structured LLM digest of a transcript.
type TranscriptSummary struct {
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"keyPoints"`
	Keywords  []string `json:"keywords"`
}

const summarizeTranscriptPrompt = `You are given the transcript of a YouTube video.
%s
Return ONLY a JSON object, no markdown:
{"summary": "3-5 plain sentences", "keyPoints": ["..."], "keywords": ["lowercase keyword", "..."]}
At most 8 key points and 20 keywords. Keywords are single words or short phrases that describe the topics discussed.

Transcript:
%s`

// NewLLMClient builds the OpenAI-compatible client from config, nil without an API key.
func NewLLMClient(c Config) *llm.Client {
	if c.LLMAPIKey == "" {
		return nil
	}
	return llm.NewClient(c.LLMAPIBase, c.LLMAPIKey, c.LLMModel,
		llm.WithFallbackKeys(c.LLMAPIKeyFallbacks),
		llm.WithMaxTokens(c.LLMMaxTokens),
		llm.WithTemperature(c.LLMTemperature),
		llm.WithHTTPClient(&http.Client{Timeout: 60 * time.Second}),
	)
}

// SummarizeTranscript asks the LLM for a summary, key points and keywords.
// focus, when non-empty, is an extra instruction for what to emphasise.
func SummarizeTranscript(ctx context.Context, transcript, focus string) (*TranscriptSummary, error) {
	if cfg.LLMClient == nil {
		return nil, ErrLLMDisabled
	}
	prompt := buildSummaryPrompt(transcript, focus)

	metrics.LLMCalls.Add(1)
	raw, err := cfg.LLMClient.Complete(ctx, "", prompt,
		llm.WithChatTemperature(0.2),
		llm.WithChatMaxTokens(1200),
	)
	if err != nil {
		metrics.LLMErrors.Add(1)
		return nil, fmt.Errorf("llm: %w", err)
	}
	return parseTranscriptSummary(raw)
}

func buildSummaryPrompt(transcript, focus string) string {
	instruction := ""
	if f := strings.TrimSpace(focus); f != "" {
		instruction = "Focus on: " + f
	}
	return fmt.Sprintf(summarizeTranscriptPrompt, instruction, TruncateRunes(transcript, transcriptMaxLen, "..."))
}

func parseTranscriptSummary(raw string) (*TranscriptSummary, error) {
	var out TranscriptSummary
	if err := json.Unmarshal([]byte(stripFences(raw)), &out); err != nil {
		return nil, fmt.Errorf("decode summary: %w", err)
	}
	if out.Summary == "" {
		return nil, errors.New("llm returned empty summary")
	}
	for i, k := range out.Keywords {
		out.Keywords[i] = strings.ToLower(strings.TrimSpace(k))
	}
	return &out, nil
}
