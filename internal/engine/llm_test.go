package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestParseTranscriptSummary(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantErr  bool
		summary  string
		keywords []string
	}{
		{
			name:     "plain json",
			raw:      `{"summary": "A talk about Go.", "keyPoints": ["one"], "keywords": ["Go", " Concurrency "]}`,
			summary:  "A talk about Go.",
			keywords: []string{"go", "concurrency"},
		},
		{
			name:    "fenced json",
			raw:     "```json\n{\"summary\": \"fenced\"}\n```",
			summary: "fenced",
		},
		{
			name:    "empty summary",
			raw:     `{"summary": ""}`,
			wantErr: true,
		},
		{
			name:    "not json",
			raw:     "sorry, I cannot help",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTranscriptSummary(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Summary != tt.summary {
				t.Errorf("summary = %q, want %q", got.Summary, tt.summary)
			}
			if len(got.Keywords) != len(tt.keywords) {
				t.Fatalf("keywords = %v, want %v", got.Keywords, tt.keywords)
			}
			for i := range tt.keywords {
				if got.Keywords[i] != tt.keywords[i] {
					t.Errorf("keywords[%d] = %q, want %q", i, got.Keywords[i], tt.keywords[i])
				}
			}
		})
	}
}

func TestBuildSummaryPrompt(t *testing.T) {
	p := buildSummaryPrompt("hello world", "  pricing  ")
	if !strings.Contains(p, "Focus on: pricing") {
		t.Errorf("prompt missing focus line: %q", p)
	}
	if !strings.HasSuffix(p, "hello world") {
		t.Errorf("prompt should end with transcript: %q", p)
	}

	p = buildSummaryPrompt("hello", "")
	if strings.Contains(p, "Focus on") {
		t.Errorf("prompt has focus line without focus: %q", p)
	}
}

func TestSummarizeTranscriptDisabled(t *testing.T) {
	Init(Config{})
	_, err := SummarizeTranscript(context.Background(), "text", "")
	if !errors.Is(err, ErrLLMDisabled) {
		t.Fatalf("err = %v, want ErrLLMDisabled", err)
	}
}

func TestNewLLMClientWithoutKey(t *testing.T) {
	if c := NewLLMClient(Config{}); c != nil {
		t.Fatal("expected nil client without API key")
	}
}
