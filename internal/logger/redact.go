package logger

import (
	"fmt"
	"strings"
)

// contentWords are key segments naming corpus or model content.
// A key is redacted when its last underscore-separated segment is one of them,
// so "user_prompt" is redacted but "prompt_tokens" is not.
var contentWords = map[string]bool{
	"text":     true,
	"corpus":   true,
	"prompt":   true,
	"content":  true,
	"response": true,
	"body":     true,
}

// secretMarkers are substrings naming credentials.
var secretMarkers = []string{"api_key", "apikey", "authorization", "password", "secret"}

func sanitizeKVs(kv []any) []any {
	if len(kv) == 0 {
		return kv
	}
	out := make([]any, 0, len(kv))
	for i := 0; i < len(kv); i += 2 {
		if i == len(kv)-1 {
			out = append(out, kv[i])
			break
		}
		key := toString(kv[i])
		out = append(out, key, sanitizeValue(strings.ToLower(strings.TrimSpace(key)), kv[i+1]))
	}
	return out
}

func sanitizeValue(key string, val any) any {
	if isRedactKey(key) {
		return Redacted
	}
	if m, ok := val.(map[string]any); ok {
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[k] = sanitizeValue(strings.ToLower(strings.TrimSpace(k)), v)
		}
		return out
	}
	return val
}

func isRedactKey(key string) bool {
	if key == "" {
		return false
	}
	for _, m := range secretMarkers {
		if strings.Contains(key, m) {
			return true
		}
	}
	// Token counts stay visible, token values do not.
	if strings.Contains(key, "token") && !strings.HasSuffix(key, "tokens") {
		return true
	}
	segments := strings.Split(key, "_")
	return contentWords[segments[len(segments)-1]]
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(v)
	}
}
