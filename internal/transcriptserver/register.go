package transcriptserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/sources"
	"github.com/anatolykoptev/go_transcript/internal/transcript"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// errInvalidVideo matches the transcript endpoint's 400 message.
var errInvalidVideo = errors.New("Invalid YouTube URL or video ID") //nolint:staticcheck // user-facing message

// errVideoNotFound matches the transcript endpoint's 404 message.
var errVideoNotFound = errors.New("Video not found") //nolint:staticcheck // user-facing message

// RegisterTools registers the transcript tools on the given MCP server:
// youtube_transcript, youtube_transcript_list, youtube_transcript_summary.
func RegisterTools(server *mcp.Server, client *sources.YouTubeClient) {
	source := transcript.NewYouTube(client)
	registerTranscript(server, source)
	registerTrackList(server, client)
	registerSummary(server, source)
}

func registerTranscript(server *mcp.Server, source transcript.Collaborator) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "youtube_transcript",
		Description: "Fetch the full transcript of a YouTube video as plain text. Accepts a video ID or URL. Prefers the requested languages (default English), then falls back to the first manually created track, then the first auto-generated one. Includes title, channel and view/like/comment counts when a YouTube Data API key is configured.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input TranscriptInput) (*mcp.CallToolResult, TranscriptOutput, error) {
		videoID := sources.ExtractVideoID(input.Video)
		if videoID == "" {
			return nil, TranscriptOutput{}, errInvalidVideo
		}
		out, err := fetchTranscriptOutput(ctx, source, videoID, languagesOrDefault(input.Languages))
		if err != nil {
			return nil, TranscriptOutput{}, err
		}
		return nil, out, nil
	})
}

// fetchTranscriptOutput loads metadata (when configured) and the transcript.
// A transcript failure is reported in Reason; a video unknown to the Data API is an error.
func fetchTranscriptOutput(ctx context.Context, source transcript.Collaborator, videoID string, langs []string) (TranscriptOutput, error) {
	meta, err := lookupMetadata(ctx, videoID)
	if err != nil {
		return TranscriptOutput{}, err
	}

	result := transcript.NewFetcher(source, transcript.WithLanguages(langs)).Fetch(ctx, videoID)
	return buildTranscriptOutput(videoID, meta, result), nil
}

func buildTranscriptOutput(videoID string, meta *sources.VideoMetadata, result transcript.Result) TranscriptOutput {
	out := TranscriptOutput{VideoID: videoID, Video: meta}
	if result.Success && result.Transcript != "" {
		out.TranscriptAvailable = true
		out.Language = result.Language
		out.Source = result.Source
		out.Transcript = result.Transcript
		return out
	}
	out.Reason = result.Error
	if out.Reason == "" {
		out.Reason = "No transcript available"
	}
	return out
}

// lookupMetadata returns nil metadata when no Data API key is configured or the
// API call fails for a reason other than an unknown video.
func lookupMetadata(ctx context.Context, videoID string) (*sources.VideoMetadata, error) {
	meta, err := sources.FetchVideoMetadata(ctx, videoID)
	switch {
	case err == nil:
		return meta, nil
	case errors.Is(err, sources.ErrNoDataAPIKey):
		return nil, nil
	case errors.Is(err, sources.ErrVideoNotFound):
		return nil, errVideoNotFound
	default:
		slog.Warn("youtube_transcript: metadata lookup failed", slog.String("id", videoID), slog.Any("error", err))
		return nil, nil
	}
}

func languagesOrDefault(langs []string) []string {
	if len(langs) > 0 {
		return langs
	}
	return engine.PreferredLanguages()
}

func registerTrackList(server *mcp.Server, client *sources.YouTubeClient) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "youtube_transcript_list",
		Description: "List the caption tracks available for a YouTube video, split into manually created and auto-generated, with language names, codes and whether each can be translated.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input TrackListInput) (*mcp.CallToolResult, TrackListOutput, error) {
		videoID := sources.ExtractVideoID(input.Video)
		if videoID == "" {
			return nil, TrackListOutput{}, errInvalidVideo
		}
		list, err := client.List(ctx, videoID)
		if err != nil {
			return nil, TrackListOutput{}, fmt.Errorf("%s: %w", transcript.ErrorKind(err), err)
		}
		return nil, buildTrackList(list), nil
	})
}

func buildTrackList(list *sources.TranscriptList) TrackListOutput {
	return TrackListOutput{
		VideoID:         list.VideoID,
		ManuallyCreated: trackInfos(list.ManuallyCreated),
		Generated:       trackInfos(list.Generated),
	}
}

func trackInfos(tracks []*sources.Transcript) []TrackInfo {
	out := make([]TrackInfo, 0, len(tracks))
	for _, t := range tracks {
		out = append(out, TrackInfo{
			Language:       t.Language,
			LanguageCode:   t.LanguageCode,
			IsGenerated:    t.IsGenerated,
			IsTranslatable: t.IsTranslatable,
		})
	}
	return out
}

func registerSummary(server *mcp.Server, source transcript.Collaborator) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "youtube_transcript_summary",
		Description: "Summarize a YouTube video from its transcript: a short summary, key points and topic keywords. Optional focus narrows what the summary emphasises. Requires an LLM API key.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input SummaryInput) (*mcp.CallToolResult, SummaryOutput, error) {
		videoID := sources.ExtractVideoID(input.Video)
		if videoID == "" {
			return nil, SummaryOutput{}, errInvalidVideo
		}
		out, err := summarizeVideo(ctx, source, videoID, input.Focus)
		if err != nil {
			return nil, SummaryOutput{}, err
		}
		return nil, *out, nil
	})
}

func summarizeVideo(ctx context.Context, source transcript.Collaborator, videoID, focus string) (*SummaryOutput, error) {
	if engine.Cfg.LLMClient == nil {
		return nil, engine.ErrLLMDisabled
	}
	tr, err := fetchTranscriptOutput(ctx, source, videoID, engine.PreferredLanguages())
	if err != nil {
		return nil, err
	}
	if !tr.TranscriptAvailable {
		return nil, errors.New(tr.Reason)
	}

	sum, err := engine.SummarizeTranscript(ctx, tr.Transcript, focus)
	if err != nil {
		return nil, err
	}
	out := &SummaryOutput{
		VideoID:   videoID,
		Language:  tr.Language,
		Summary:   sum.Summary,
		KeyPoints: sum.KeyPoints,
		Keywords:  sum.Keywords,
	}
	if tr.Video != nil {
		out.Title = tr.Video.Title
	}
	return out, nil
}
