package ai

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/option"

	"framenote-backend/internal/config"
	"framenote-backend/internal/model"
	"framenote-backend/pkg/logger"
)

// FallbackMessage shown in place of a summary when the model call fails.
// Summarization must degrade to a message, never crash or propagate.
const FallbackMessage = "Summary is unavailable right now. Please try again later."

// Summarizer turns a project's open feedback into a short digest for the
// editor. Single attempt per request; callers that want retries wrap it.
type Summarizer struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewSummarizer creates a Vertex AI Gemini client
func NewSummarizer(ctx context.Context, cfg *config.AIConfig) (*Summarizer, error) {
	var opts []option.ClientOption
	if cfg.Credentials != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Credentials))
	}

	client, err := genai.NewClient(ctx, cfg.ProjectID, cfg.Location, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vertex AI client: %w", err)
	}

	m := client.GenerativeModel(cfg.Model)
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(
			"You summarize review feedback on a video edit for the editor. " +
				"Input is a list of unresolved timestamped comments. " +
				"Group related notes, keep timestamps in mm:ss form, and be concise. " +
				"Respond with a short actionable digest, nothing else.",
		)},
	}

	return &Summarizer{client: client, model: m}, nil
}

// Summarize digests the unresolved subset of the given comments. On any
// failure the fallback message is returned as the result, with a nil error.
func (s *Summarizer) Summarize(ctx context.Context, comments []model.Comment, title string) string {
	var open []model.Comment
	for _, c := range comments {
		if !c.Resolved {
			open = append(open, c)
		}
	}
	if len(open) == 0 {
		return "No unresolved comments. Nothing left to address."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Project: %s\nUnresolved comments:\n", title)
	for _, c := range open {
		mins := int(c.Timestamp) / 60
		secs := int(c.Timestamp) % 60
		fmt.Fprintf(&b, "- [%02d:%02d] %s: %s\n", mins, secs, c.AuthorName, c.Text)
	}

	resp, err := s.model.GenerateContent(ctx, genai.Text(b.String()))
	if err != nil {
		logger.Sugar.Errorw("summarization failed", "error", err)
		return FallbackMessage
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return FallbackMessage
	}

	var out string
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			out += string(text)
		}
	}
	if strings.TrimSpace(out) == "" {
		return FallbackMessage
	}
	return out
}

// Close releases the underlying client
func (s *Summarizer) Close() {
	s.client.Close()
}
