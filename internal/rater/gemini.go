// Package rater adapts external rating models to the contract.Rater
// interface. The production adapter speaks to Gemini; tests use the mock.
package rater

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/courselab/teamscope/internal/contract"
	"github.com/courselab/teamscope/schema"
)

const ratingPrompt = `You are reviewing a batch of git commits written by one student
in a team programming course. Rate the batch as a whole.

Respond with a single JSON object and nothing else:
{"effort": <0-10>, "complexity": <0-10>, "novelty": <0-10>, "confidence": <0-1>, "label": "<up to five words>"}

effort: how much real work the batch represents.
complexity: how intricate the changed logic is.
novelty: how much is new work rather than boilerplate or copied code.
confidence: how sure you are, given only messages and line counts.

Commits (%d total, +%d/-%d lines):
%s`

// GeminiRater rates commit chunks with a Gemini model.
type GeminiRater struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

var _ contract.Rater = &GeminiRater{}

// NewGeminiRater builds the client. A missing API key returns
// ErrRaterUnavailable so the caller can degrade instead of aborting.
func NewGeminiRater(ctx context.Context, apiKey, modelName string) (*GeminiRater, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("no Gemini API key configured: %w", contract.ErrRaterUnavailable)
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("cannot create Gemini client: %w", err)
	}
	model := client.GenerativeModel(modelName)
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(0.2)
	return &GeminiRater{client: client, model: model}, nil
}

// RateChunk sends one chunk's digest to the model and parses the rating.
// Only commit metadata leaves the machine, never file contents.
func (g *GeminiRater) RateChunk(ctx context.Context, chunk *schema.CommitChunk) (schema.Rating, error) {
	prompt := fmt.Sprintf(ratingPrompt,
		len(chunk.Commits), chunk.LinesAdded, chunk.LinesDeleted, chunkDigest(chunk))

	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return schema.Rating{}, fmt.Errorf("gemini call failed: %w", err)
	}

	raw := formatResponse(resp)
	if raw == "" {
		return schema.Rating{}, fmt.Errorf("empty response from Gemini for chunk %s", chunk.ID)
	}
	return parseRating(chunk.ID, raw)
}

// Close releases the underlying client.
func (g *GeminiRater) Close() error {
	return g.client.Close()
}

// chunkDigest renders the per-commit lines sent to the model.
func chunkDigest(chunk *schema.CommitChunk) string {
	var b strings.Builder
	for _, c := range chunk.Commits {
		fmt.Fprintf(&b, "- %s (+%d/-%d, %d files): %s\n",
			c.Timestamp.Format("2006-01-02 15:04"),
			c.LinesAdded, c.LinesDeleted, len(c.Files), c.Message)
	}
	return b.String()
}

// formatResponse concatenates the text parts of every candidate.
func formatResponse(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				b.WriteString(string(txt))
			}
		}
	}
	return b.String()
}

func parseRating(chunkID, raw string) (schema.Rating, error) {
	var rating schema.Rating
	if err := json.Unmarshal([]byte(extractJSON(raw)), &rating); err != nil {
		return schema.Rating{}, fmt.Errorf("cannot parse rating JSON: %w", err)
	}
	rating.ChunkID = chunkID
	rating.Effort = clampScale(rating.Effort, 10)
	rating.Complexity = clampScale(rating.Complexity, 10)
	rating.Novelty = clampScale(rating.Novelty, 10)
	rating.Confidence = clampScale(rating.Confidence, 1)
	return rating, nil
}

// extractJSON strips a markdown code fence if the model wrapped its answer
// in one despite the JSON response mode.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}
	if start := strings.IndexByte(text, '{'); start > 0 {
		text = text[start:]
	}
	if end := strings.LastIndexByte(text, '}'); end >= 0 {
		text = text[:end+1]
	}
	return text
}

func clampScale(v, max float64) float64 {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
