package generativeAI

import (
	"context"

	"google.golang.org/genai"
)

// Credential is an opaque model API key.
type Credential string

// Redacted is safe to log.
func (c Credential) Redacted() string {
	if len(c) <= 6 {
		return "***"
	}
	return string(c[:4]) + "***"
}

// Turn is one entry of the conversation history sent with a prompt.
type Turn struct {
	Role string
	Text string
}

// PromptContext is everything a backend needs for one call.
type PromptContext struct {
	SystemInstruction string
	History           []Turn
	Prompt            string
	// ResponseSchema asks for JSON output of this shape. Nil means free text.
	ResponseSchema *genai.Schema
	Temperature    *float32
}

// Backend performs a single model call with one credential and one model.
type Backend interface {
	Invoke(ctx context.Context, credential Credential, model string, prompt PromptContext) (RawModelOutput, error)
}

// BackendFunc adapts a function to Backend.
type BackendFunc func(ctx context.Context, credential Credential, model string, prompt PromptContext) (RawModelOutput, error)

func (f BackendFunc) Invoke(ctx context.Context, credential Credential, model string, prompt PromptContext) (RawModelOutput, error) {
	return f(ctx, credential, model, prompt)
}
