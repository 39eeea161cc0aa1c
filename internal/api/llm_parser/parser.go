// Package llmparser recovers JSON documents from free-form model output.
package llmparser

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/FACorreiaa/go-ai-trip-planner/internal/types"
)

// PreviewLimit bounds the text attached to an UnparsableError, in runes.
const PreviewLimit = 1200

var (
	fencePattern  = regexp.MustCompile("(?is)```(?:json)?\\s*(.*?)```")
	regionPattern = regexp.MustCompile(`(?s)(\{.*\}|\[.*\])`)
)

// UnparsableError reports text that no recovery layer could parse.
type UnparsableError struct {
	Preview string
	Err     error
}

func (e *UnparsableError) Error() string {
	return fmt.Sprintf("%v: %q", types.ErrUnparsableOutput, e.Preview)
}

func (e *UnparsableError) Unwrap() []error {
	if e.Err == nil {
		return []error{types.ErrUnparsableOutput}
	}
	return []error{types.ErrUnparsableOutput, e.Err}
}

// Extract returns the first JSON document it can recover from text.
// Layers: fenced block, whole text, leftmost bracket region, first '{' to last '}'.
func Extract(text string) (any, error) {
	var doc any
	if err := Decode(text, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Decode recovers a document like Extract and unmarshals it into v.
func Decode(text string, v any) error {
	raw, err := extractRaw(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return &UnparsableError{Preview: Preview(text), Err: err}
	}
	return nil
}

func extractRaw(text string) ([]byte, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, &UnparsableError{Preview: ""}
	}

	if m := fencePattern.FindStringSubmatch(trimmed); m != nil {
		if raw, ok := recoverLayers(strings.TrimSpace(m[1])); ok {
			return raw, nil
		}
	}
	if raw, ok := recoverLayers(trimmed); ok {
		return raw, nil
	}
	return nil, &UnparsableError{Preview: Preview(text)}
}

func recoverLayers(s string) ([]byte, bool) {
	if s == "" {
		return nil, false
	}
	if json.Valid([]byte(s)) {
		return []byte(s), true
	}
	if region := regionPattern.FindString(s); region != "" && json.Valid([]byte(region)) {
		return []byte(region), true
	}
	first := strings.Index(s, "{")
	last := strings.LastIndex(s, "}")
	if first >= 0 && last > first {
		candidate := s[first : last+1]
		if json.Valid([]byte(candidate)) {
			return []byte(candidate), true
		}
	}
	return nil, false
}

// Preview truncates s to PreviewLimit runes, ellipsis included.
func Preview(s string) string {
	if utf8.RuneCountInString(s) <= PreviewLimit {
		return s
	}
	runes := []rune(s)
	return string(runes[:PreviewLimit-3]) + "..."
}
