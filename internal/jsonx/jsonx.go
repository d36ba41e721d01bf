// Package jsonx pulls JSON values out of free-form model output, which
// often wraps them in markdown fences or conversational text.
package jsonx

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrNoJSON reports that no JSON value could be located in the text.
var ErrNoJSON = errors.New("no JSON found in text")

var (
	fencedJSONRe = regexp.MustCompile("(?s)```json\\s*(.*?)```")
	fencedAnyRe  = regexp.MustCompile("(?s)```\\s*(.*?)```")
)

// Extract locates the first JSON value in text and unmarshals it into v.
// It tries, in order: a ```json fenced block, any fenced block, then the
// first balanced top-level object in the raw text.
func Extract(text string, v any) error {
	for _, candidate := range candidates(text) {
		if json.Unmarshal([]byte(candidate), v) == nil {
			return nil
		}
	}
	return ErrNoJSON
}

// ExtractObject is Extract specialized to a JSON object.
func ExtractObject(text string) (map[string]any, error) {
	var obj map[string]any
	if err := Extract(text, &obj); err != nil {
		return nil, err
	}
	return obj, nil
}

func candidates(text string) []string {
	var out []string
	if m := fencedJSONRe.FindStringSubmatch(text); m != nil {
		out = append(out, strings.TrimSpace(m[1]))
	}
	if m := fencedAnyRe.FindStringSubmatch(text); m != nil {
		out = append(out, strings.TrimSpace(m[1]))
	}
	if obj := balancedObject(text); obj != "" {
		out = append(out, obj)
	}
	if trimmed := strings.TrimSpace(text); trimmed != "" {
		out = append(out, trimmed)
	}
	return out
}

// balancedObject returns the first top-level {...} span, tracking string
// literals so braces inside them don't count.
func balancedObject(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
