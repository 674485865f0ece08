package logger

import (
	"log/slog"
	"regexp"
	"strings"
)

const redacted = "[REDACTED]"

// Attribute keys are matched case-insensitively. A key equal to one of
// exactKeys, or containing one of keyParts, is always redacted. Page text
// is logged under none of these, so log the location ("where") instead.
var (
	exactKeys = []string{"q", "apikey"}
	keyParts  = []string{
		"key", "token", "secret", "password", "authorization", "bearer",
		"text", "content", "body", "html",
	}
)

// Values that look like credentials are redacted whatever their key.
var secretValues = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bsk-[A-Za-z0-9_-]{10,}\b`),                              // OpenAI
	regexp.MustCompile(`\bAIza[0-9A-Za-z\-_]{10,}\b`),                                // Google
	regexp.MustCompile(`(?i)[?&]api_key=[^&\s]+`),                                    // LibreTranslate query
	regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9\-._~+/]+=*`),                       // auth header
	regexp.MustCompile(`(?i)\b(api[_-]?key|access[_-]?token|secret)\b\s*[:=]\s*\S+`), // key=value dumps
}

// Redact is the slog ReplaceAttr hook installed by Init.
func Redact(_ []string, a slog.Attr) slog.Attr {
	if redactKey(a.Key) || redactValue(a.Value) {
		return slog.String(a.Key, redacted)
	}
	return a
}

func redactKey(key string) bool {
	key = strings.ToLower(key)
	for _, k := range exactKeys {
		if key == k {
			return true
		}
	}
	for _, part := range keyParts {
		if strings.Contains(key, part) {
			return true
		}
	}
	return false
}

func redactValue(v slog.Value) bool {
	v = v.Resolve()
	if v.Kind() == slog.KindGroup {
		return false
	}
	s := v.String()
	if s == "" {
		return false
	}
	for _, re := range secretValues {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
