// Package ai adapts Google Gemini to the router's ReplyEngine contract. The
// engine is a black box to the rest of the system: system prompt plus ordered
// history in, reply text out, with failures left to the caller's degradation
// policy.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/atendezap/go-whats-backend/internal/services"
)

// GeminiEngine calls the Gemini API with a fresh system instruction and the
// bounded conversation window per request.
type GeminiEngine struct {
	client *genai.Client
	model  string
}

// NewGeminiEngine creates the engine. model falls back to a sensible default
// when empty.
func NewGeminiEngine(ctx context.Context, apiKey, model string) (*GeminiEngine, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key must be provided")
	}
	if model == "" {
		model = "gemini-2.0-flash-lite"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiEngine{client: client, model: model}, nil
}

// Reply sends the assembled context to Gemini and returns the reply text.
// The history arrives already translated to the "user"/"model" vocabulary,
// so roles map onto genai content as-is.
func (e *GeminiEngine) Reply(ctx context.Context, systemPrompt string, history []services.EngineMessage, userText string) (string, error) {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, h := range history {
		role := genai.Role(genai.RoleUser)
		if h.Role == services.EngineRoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(h.Text, role))
	}
	contents = append(contents, genai.NewContentFromText(userText, genai.RoleUser))

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
	}

	start := time.Now()
	result, err := e.client.Models.GenerateContent(ctx, e.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from gemini")
	}

	ev := log.Debug().
		Str("model", e.model).
		Dur("latency", time.Since(start))
	if result.UsageMetadata != nil {
		ev = ev.
			Int32("input_tokens", result.UsageMetadata.PromptTokenCount).
			Int32("output_tokens", result.UsageMetadata.CandidatesTokenCount)
	}
	ev.Msg("gemini reply")

	return text, nil
}

// Model returns the configured model name.
func (e *GeminiEngine) Model() string { return e.model }
