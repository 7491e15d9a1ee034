package engine

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/joho/godotenv"
)

// LoadDotEnv loads .env from the working directory when present.
// Variables already set in the environment win.
func LoadDotEnv() {
	if err := godotenv.Load(); err == nil {
		slog.Debug("loaded .env")
	}
}

// ConfigFromEnv reads the engine configuration from environment variables.
func ConfigFromEnv() Config {
	fetchTimeout := env.Duration("FETCH_TIMEOUT", 15*time.Second)
	return Config{
		Languages:             env.List("TRANSCRIPT_LANGUAGES", "en"),
		FetchTimeout:          fetchTimeout,
		YouTubeAPIKey:         env.Str("YOUTUBE_API_KEY", ""),
		YouTubeAPIKeyFallback: env.Str("YOUTUBE_API_KEY_FALLBACK", ""),
		LLMAPIKey:             env.Str("LLM_API_KEY", ""),
		LLMAPIKeyFallbacks:    env.List("LLM_API_KEY_FALLBACKS", ""),
		LLMAPIBase:            env.Str("LLM_API_BASE", "https://generativelanguage.googleapis.com/v1beta/openai"),
		LLMModel:              env.Str("LLM_MODEL", "gemini-2.5-flash"),
		LLMTemperature:        env.Float("LLM_TEMPERATURE", 0.2),
		LLMMaxTokens:          env.Int("LLM_MAX_TOKENS", 4096),
		HTTPClient: &http.Client{
			Timeout: fetchTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}
}

// Setup builds the external clients from c and installs the result with Init.
// The browser client is required; the LLM client is optional.
func Setup(c Config) error {
	bc, err := NewBrowserClient(timeoutSeconds(c.FetchTimeout), env.Str("WEBSHARE_API_KEY", ""))
	if err != nil {
		return fmt.Errorf("browser client: %w", err)
	}
	c.BrowserClient = bc
	c.LLMClient = NewLLMClient(c)
	Init(c)
	slog.Debug("engine initialized",
		slog.Bool("data_api", c.YouTubeAPIKey != ""),
		slog.Bool("llm", c.LLMClient != nil))
	return nil
}

// timeoutSeconds rounds d up to whole seconds, never below one.
func timeoutSeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}
