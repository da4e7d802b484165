package llm

import (
	"encoding/json"
	"strings"
)

// ExtractObject locates the outermost JSON object in a model response and
// unmarshals it into dst. Responses are tolerated with surrounding prose or
// markdown code fences. Returns false, leaving dst untouched, when no
// parseable object is present; callers substitute their documented defaults.
func ExtractObject(raw string, dst any) bool {
	return extractInto(raw, "{", "}", dst)
}

// ExtractArray is ExtractObject for a top-level JSON array.
func ExtractArray(raw string, dst any) bool {
	return extractInto(raw, "[", "]", dst)
}

func extractInto(raw, open, close string, dst any) bool {
	s := stripCodeFences(raw)
	start := strings.Index(s, open)
	end := strings.LastIndex(s, close)
	if start < 0 || end < start {
		return false
	}
	return json.Unmarshal([]byte(s[start:end+1]), dst) == nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	}
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
