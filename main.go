// Command go_transcript prints the transcript of a YouTube video as one JSON line.
//
// Usage: go_transcript <video_id>
//
// The English transcript is preferred; otherwise the first manually created
// track is used, then the first auto-generated one. Failures are reported
// inside the JSON record; only usage and dependency errors exit non-zero.
// Logs go to stderr (LOG_LEVEL, default warn).
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/sources"
	"github.com/anatolykoptev/go_transcript/internal/transcript"
)

func main() {
	engine.LoadDotEnv()
	initLogging()
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, newYouTubeSource))
}

// newYouTubeSource initializes the engine and returns the YouTube collaborator.
func newYouTubeSource() (transcript.Collaborator, error) {
	if err := engine.Setup(engine.ConfigFromEnv()); err != nil {
		return nil, err
	}
	return transcript.NewYouTube(sources.NewYouTubeClient()), nil
}

// run returns the process exit code. The collaborator is built before the
// arguments are looked at so a broken environment is reported first.
func run(ctx context.Context, args []string, stdout io.Writer, newSource func() (transcript.Collaborator, error)) int {
	source, err := newSource()
	if err != nil {
		slog.Error("dependency check failed", slog.Any("error", err))
		writeLine(stdout, transcript.Failure(fmt.Sprintf("Missing dependency: %v", err)))
		return 1
	}

	if len(args) < 1 {
		writeLine(stdout, transcript.UsageError{Success: false, Error: transcript.MsgVideoIDRequired})
		return 1
	}

	videoID := args[0]
	result := transcript.NewFetcher(source).Fetch(ctx, videoID)
	if !result.Success {
		slog.Warn("transcript unavailable", slog.String("id", videoID), slog.String("error", result.Error))
	}
	writeLine(stdout, result)
	return 0
}

func writeLine(w io.Writer, v any) {
	data, err := transcript.MarshalLine(v)
	if err != nil {
		slog.Error("encode result", slog.Any("error", err))
		data = []byte(`{"success":false,"transcript":"","error":"failed to encode result"}` + "\n")
	}
	if _, err := w.Write(data); err != nil {
		slog.Error("write result", slog.Any("error", err))
	}
}

// initLogging sends slog output to stderr so stdout carries only the JSON record.
func initLogging() {
	var level slog.Level
	switch strings.ToLower(env.Str("LOG_LEVEL", "warn")) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
