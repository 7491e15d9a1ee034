package engine

import (
	"net/http"
	"time"

	"github.com/anatolykoptev/go-kit/llm"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	Languages             []string
	FetchTimeout          time.Duration
	YouTubeAPIKey         string
	YouTubeAPIKeyFallback string
	LLMAPIKey             string
	LLMAPIKeyFallbacks    []string
	LLMAPIBase            string
	LLMModel              string
	LLMTemperature        float64
	LLMMaxTokens          int
	HTTPClient            *http.Client
	BrowserClient         *BrowserClient // nil = plain net/http transport
	LLMClient             *llm.Client    // nil = summary tool disabled
}

var cfg Config

// Cfg exposes the engine configuration for sub-packages (sources, transcript).
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration.
func Init(c Config) {
	cfg = c
	Cfg = &cfg
}

// PreferredLanguages returns the configured language preference, "en" if unset.
func PreferredLanguages() []string {
	if len(cfg.Languages) == 0 {
		return []string{"en"}
	}
	return cfg.Languages
}
