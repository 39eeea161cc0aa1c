package generativeAI

import (
	"encoding/json"
	"fmt"
	"iter"
	"strings"
)

// RawModelOutput is what a backend hands back: plain text, a document the
// backend already parsed, or a one-shot stream of text fragments.
type RawModelOutput struct {
	Text     string
	Document any
	Stream   iter.Seq2[string, error]
}

// TextOutput wraps a complete response.
func TextOutput(s string) RawModelOutput { return RawModelOutput{Text: s} }

// StreamOutput wraps a fragment stream. It may be drained only once.
func StreamOutput(seq iter.Seq2[string, error]) RawModelOutput { return RawModelOutput{Stream: seq} }

// Drain consumes the stream, in arrival order, into Text. A broken stream
// returns the error and whatever arrived before it is discarded.
func (o RawModelOutput) Drain() (RawModelOutput, error) {
	if o.Stream == nil {
		return o, nil
	}
	var sb strings.Builder
	sb.WriteString(o.Text)
	for fragment, err := range o.Stream {
		if err != nil {
			return RawModelOutput{}, fmt.Errorf("model stream interrupted: %w", err)
		}
		sb.WriteString(fragment)
	}
	return TextOutput(sb.String()), nil
}

// String returns the text form of a drained output.
func (o RawModelOutput) String() string {
	if o.Document != nil && o.Text == "" {
		b, err := json.Marshal(o.Document)
		if err == nil {
			return string(b)
		}
	}
	return o.Text
}

func (o RawModelOutput) empty() bool {
	return strings.TrimSpace(o.Text) == "" && o.Document == nil && o.Stream == nil
}
