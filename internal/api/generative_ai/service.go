package generativeAI

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"
)

var _ Backend = (*GeminiBackend)(nil)

// GeminiBackend calls the Gemini API, keeping one client per credential.
type GeminiBackend struct {
	logger  *slog.Logger
	mu      sync.Mutex
	clients map[Credential]*genai.Client
	// Temperature applies when a prompt sets none.
	Temperature *float32
}

func NewGeminiBackend(logger *slog.Logger) *GeminiBackend {
	return &GeminiBackend{
		logger:  logger.With(slog.String("backend", "gemini")),
		clients: make(map[Credential]*genai.Client),
	}
}

func (g *GeminiBackend) client(ctx context.Context, credential Credential) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if c, ok := g.clients[credential]; ok {
		return c, nil
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  string(credential),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	g.clients[credential] = c
	return c, nil
}

// Invoke starts a streaming generation. The returned stream is lazy; the
// request is only sent once it is drained.
func (g *GeminiBackend) Invoke(ctx context.Context, credential Credential, model string, prompt PromptContext) (RawModelOutput, error) {
	ctx, span := otel.Tracer("GenerativeAI").Start(ctx, "GeminiBackend.Invoke", trace.WithAttributes(
		attribute.String("model", model),
		attribute.Int("prompt.length", len(prompt.Prompt)),
		attribute.Int("history.length", len(prompt.History)),
	))
	defer span.End()
	if prompt.Temperature == nil {
		prompt.Temperature = g.Temperature
	}

	client, err := g.client(ctx, credential)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "client init failed")
		return RawModelOutput{}, err
	}

	stream := client.Models.GenerateContentStream(ctx, model, buildContents(prompt), buildConfig(prompt))
	return StreamOutput(textFragments(stream)), nil
}

func buildContents(prompt PromptContext) []*genai.Content {
	contents := make([]*genai.Content, 0, len(prompt.History)+1)
	for _, turn := range prompt.History {
		role := "user"
		if turn.Role == "model" || turn.Role == "assistant" {
			role = "model"
		}
		contents = append(contents, textContent(role, turn.Text))
	}
	return append(contents, textContent("user", prompt.Prompt))
}

func textContent(role, text string) *genai.Content {
	return &genai.Content{Role: role, Parts: []*genai.Part{{Text: text}}}
}

func buildConfig(prompt PromptContext) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{Temperature: prompt.Temperature}
	if prompt.SystemInstruction != "" {
		cfg.SystemInstruction = textContent("user", prompt.SystemInstruction)
	}
	if prompt.ResponseSchema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = prompt.ResponseSchema
	}
	return cfg
}

func textFragments(stream iter.Seq2[*genai.GenerateContentResponse, error]) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for resp, err := range stream {
			if err != nil {
				yield("", err)
				return
			}
			if resp == nil {
				continue
			}
			for _, cand := range resp.Candidates {
				if cand == nil || cand.Content == nil {
					continue
				}
				for _, part := range cand.Content.Parts {
					if part == nil || part.Text == "" || part.Thought {
						continue
					}
					if !yield(part.Text, nil) {
						return
					}
				}
			}
		}
	}
}
