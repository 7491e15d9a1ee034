package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	TranscriptRequests  atomic.Int64
	TranscriptFallbacks atomic.Int64
	TranscriptFailures  atomic.Int64
	TimedTextRequests   atomic.Int64
	DataAPIRequests     atomic.Int64
	LLMCalls            atomic.Int64
	LLMErrors           atomic.Int64
}

var metricKeys = []string{
	"transcript_requests", "transcript_fallbacks", "transcript_failures",
	"timedtext_requests", "data_api_requests",
	"llm_calls", "llm_errors",
}

// GetMetrics returns a snapshot of all metrics.
func GetMetrics() map[string]int64 {
	return map[string]int64{
		"transcript_requests":  metrics.TranscriptRequests.Load(),
		"transcript_fallbacks": metrics.TranscriptFallbacks.Load(),
		"transcript_failures":  metrics.TranscriptFailures.Load(),
		"timedtext_requests":   metrics.TimedTextRequests.Load(),
		"data_api_requests":    metrics.DataAPIRequests.Load(),
		"llm_calls":            metrics.LLMCalls.Load(),
		"llm_errors":           metrics.LLMErrors.Load(),
	}
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	for _, k := range metricKeys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for sources/ and transcript/ sub-packages.
func IncrTranscriptRequests()  { metrics.TranscriptRequests.Add(1) }
func IncrTranscriptFallbacks() { metrics.TranscriptFallbacks.Add(1) }
func IncrTranscriptFailures()  { metrics.TranscriptFailures.Add(1) }
func IncrTimedTextRequests()   { metrics.TimedTextRequests.Add(1) }
func IncrDataAPIRequests()     { metrics.DataAPIRequests.Add(1) }

// slowOperation is the threshold above which TrackOperation logs a warning.
const slowOperation = 5 * time.Second

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if elapsed > slowOperation {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
