package itinerary

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

// Documents arrive from encoding/json, the BSON decoder or ToDocument, so
// slices and maps are matched by kind rather than by concrete type.

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case nil:
		return nil, false
	case map[string]any:
		return m, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice && isPairType(rv.Type().Elem()) {
		out := make(map[string]any, rv.Len())
		for i := range rv.Len() {
			e := rv.Index(i)
			out[e.FieldByName("Key").String()] = e.FieldByName("Value").Interface()
		}
		return out, true
	}
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

func asSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case nil:
		return nil, false
	case []any:
		return s, true
	case []map[string]any:
		out := make([]any, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice || rv.Type().Elem().Kind() == reflect.Uint8 || isPairType(rv.Type().Elem()) {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// isPairType matches the element of ordered documents such as bson.D.
func isPairType(t reflect.Type) bool {
	if t.Kind() != reflect.Struct {
		return false
	}
	k, okKey := t.FieldByName("Key")
	v, okValue := t.FieldByName("Value")
	return okKey && okValue && k.Type.Kind() == reflect.String && v.Type.Kind() == reflect.Interface
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// text renders a scalar as display text. Non-scalars render empty.
func text(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case bool:
		return strconv.FormatBool(s)
	case fmt.Stringer:
		return strings.TrimSpace(s.String())
	}
	if f, ok := asNumber(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return ""
}

func lookup(doc any, path []string) (any, bool) {
	cur := doc
	for _, key := range path {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func present(v any) bool {
	if v == nil {
		return false
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) != ""
	}
	return true
}

// firstOf returns the value of the first alias present with a non-empty value.
func firstOf(m map[string]any, aliases []string) (any, bool) {
	for _, key := range aliases {
		if v, ok := m[key]; ok && present(v) {
			return v, true
		}
	}
	return nil, false
}

func firstText(m map[string]any, aliases []string) string {
	for _, key := range aliases {
		if v, ok := m[key]; ok {
			if s := text(v); s != "" {
				return s
			}
		}
	}
	return ""
}

var dayNumberPattern = regexp.MustCompile(`\d+`)

// dayNumber reads 2, 2.0, "2" or "Day 2". Zero means absent.
func dayNumber(v any) int {
	if f, ok := asNumber(v); ok {
		if f >= 1 {
			return int(f)
		}
		return 0
	}
	s, ok := v.(string)
	if !ok {
		return 0
	}
	m := dayNumberPattern.FindString(s)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil || n < 1 {
		return 0
	}
	return n
}
