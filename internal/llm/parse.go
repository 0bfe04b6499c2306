package llm

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Response parsing is an ordered chain of attempts: strip Markdown fences,
// strict JSON parse, greedy {...} extraction, give up. Model output is
// unreliable free-form text; a parse failure degrades the caller's result to
// uncertain instead of raising.

var (
	fencePattern  = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
	objectPattern = regexp.MustCompile(`(?s)\{.*\}`)
	arrayPattern  = regexp.MustCompile(`(?s)\[.*\]`)
)

// ExtractObject pulls a JSON object out of free-form model text.
// Returns ok=false when nothing parseable remains after all fallbacks.
func ExtractObject(text string) (map[string]any, bool) {
	for _, candidate := range parseCandidates(text, objectPattern) {
		var obj map[string]any
		if err := json.Unmarshal([]byte(candidate), &obj); err == nil {
			return obj, true
		}
	}
	return nil, false
}

// ExtractArray pulls a JSON array out of free-form model text
func ExtractArray(text string) ([]any, bool) {
	for _, candidate := range parseCandidates(text, arrayPattern) {
		var arr []any
		if err := json.Unmarshal([]byte(candidate), &arr); err == nil {
			return arr, true
		}

		// Some models wrap the list in an object with a single list value.
		var obj map[string]any
		if err := json.Unmarshal([]byte(candidate), &obj); err == nil {
			for _, v := range obj {
				if list, ok := v.([]any); ok {
					return list, true
				}
			}
		}
	}
	return nil, false
}

// parseCandidates yields parse attempts in priority order: fence contents,
// whole trimmed text, then a greedy regex extraction.
func parseCandidates(text string, greedy *regexp.Regexp) []string {
	var candidates []string

	if m := fencePattern.FindStringSubmatch(text); m != nil {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	candidates = append(candidates, strings.TrimSpace(text))
	if m := greedy.FindString(text); m != "" {
		candidates = append(candidates, m)
	}
	return candidates
}

// asFloat coerces a JSON value into a float64
func asFloat(v any, fallback float64) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return f
		}
	}
	return fallback
}

// asString coerces a JSON value into a string
func asString(v any) string {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// asBool coerces a JSON value into a bool
func asBool(v any, fallback bool) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "yes":
			return true
		case "false", "no":
			return false
		}
	}
	return fallback
}

// asInt coerces a JSON value into an int
func asInt(v any, fallback int) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return fallback
}
