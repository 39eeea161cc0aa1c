package llmparser

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-ai-trip-planner/internal/types"
)

func parse(t *testing.T, s string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestExtract(t *testing.T) {
	plan := `{"location":"Paris, France","itinerary":[{"day":1,"plan":[{"activity":"Louvre"}]}]}`

	t.Run("well-formed json is returned as parsed", func(t *testing.T) {
		for _, s := range []string{plan, `[1,2,3]`, `{"a":{"b":[true,null,"x"]}}`, `"text"`} {
			got, err := Extract(s)
			require.NoError(t, err, s)
			assert.Equal(t, parse(t, s), got)
		}
	})

	t.Run("json fence with prose before", func(t *testing.T) {
		text := "Here is your trip plan for Paris!\n```json\n" + plan + "\n```"
		got, err := Extract(text)
		require.NoError(t, err)
		assert.Equal(t, parse(t, plan), got)
	})

	t.Run("untagged fence", func(t *testing.T) {
		got, err := Extract("```\n" + plan + "\n```")
		require.NoError(t, err)
		assert.Equal(t, parse(t, plan), got)
	})

	t.Run("prose around a single object", func(t *testing.T) {
		got, err := Extract("Sure! " + plan + " Enjoy your trip.")
		require.NoError(t, err)
		assert.Equal(t, parse(t, plan), got)
	})

	t.Run("array wrapped in prose", func(t *testing.T) {
		got, err := Extract(`Suggestions: [{"destination":"Lisbon"}] hope this helps`)
		require.NoError(t, err)
		assert.Equal(t, parse(t, `[{"destination":"Lisbon"}]`), got)
	})

	t.Run("first brace to last brace when bracket region is invalid", func(t *testing.T) {
		// leftmost region starts at '[' and is not valid json on its own
		text := `[note] {"ok":true} trailing`
		got, err := Extract(text)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"ok": true}, got)
	})

	t.Run("broken fence falls back to unfenced text", func(t *testing.T) {
		text := "```json\nnot json\n``` " + plan
		got, err := Extract(text)
		require.NoError(t, err)
		assert.Equal(t, parse(t, plan), got)
	})

	t.Run("no structure fails with preview", func(t *testing.T) {
		_, err := Extract("I'm sorry, I cannot help with that.")
		require.Error(t, err)
		assert.ErrorIs(t, err, types.ErrUnparsableOutput)

		var perr *UnparsableError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "I'm sorry, I cannot help with that.", perr.Preview)
	})

	t.Run("empty input fails", func(t *testing.T) {
		_, err := Extract("   ")
		assert.ErrorIs(t, err, types.ErrUnparsableOutput)
	})

	t.Run("long garbage preview is bounded", func(t *testing.T) {
		text := strings.Repeat("é{", 2000)
		_, err := Extract(text)
		var perr *UnparsableError
		require.ErrorAs(t, err, &perr)
		assert.LessOrEqual(t, utf8.RuneCountInString(perr.Preview), PreviewLimit)
		assert.True(t, strings.HasSuffix(perr.Preview, "..."))
		assert.True(t, utf8.ValidString(perr.Preview))
	})
}

func TestDecode(t *testing.T) {
	var out []struct {
		Destination string `json:"destination"`
		MatchScore  int    `json:"matchScore"`
	}
	err := Decode("```json\n[{\"destination\":\"Kyoto\",\"matchScore\":92}]\n```", &out)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Kyoto", out[0].Destination)
	assert.Equal(t, 92, out[0].MatchScore)

	var wrongShape struct{ A int }
	err = Decode(`["x"]`, &wrongShape)
	assert.ErrorIs(t, err, types.ErrUnparsableOutput)
	var typeErr *json.UnmarshalTypeError
	assert.ErrorAs(t, err, &typeErr)
	var unparsable *UnparsableError
	require.ErrorAs(t, err, &unparsable)
	assert.Equal(t, `["x"]`, unparsable.Preview)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", Preview("short"))
	exact := strings.Repeat("a", PreviewLimit)
	assert.Equal(t, exact, Preview(exact))
	long := Preview(strings.Repeat("a", PreviewLimit+1))
	assert.Len(t, long, PreviewLimit)
}
