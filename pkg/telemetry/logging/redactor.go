package logging

import (
	"log/slog"
	"regexp"
	"strings"
)

// Redactor masks personal data in log attributes.
type Redactor struct {
	patterns []redactPattern
}

type redactPattern struct {
	regex       *regexp.Regexp
	replacement string
}

// Patterns are applied in order; card numbers run before phone numbers so a
// card is not half-matched as a phone.
var defaultPatterns = []struct {
	regex       string
	replacement string
}{
	{`[a-zA-Z0-9._%+-]+@([a-zA-Z0-9.-]+\.[a-zA-Z]{2,})`, "***@$1"},
	{`\b\d{3}-\d{2}-\d{4}\b`, "***-**-****"},
	{`\b(?:\d[ -]?){12,15}\d\b`, "****-****-****-****"},
	{`\b(?:\+?1[-.\s]?)?\(?\d{3}\)?[-.\s]\d{3}[-.\s]\d{4}\b`, "***-***-****"},
	{`Bearer\s+[a-zA-Z0-9\-._~+/]+=*`, "Bearer ***"},
}

var sensitiveKeys = []string{"password", "secret", "token", "authorization", "api_key"}

// NewRedactor creates a redactor with the built-in patterns.
func NewRedactor() *Redactor {
	r := &Redactor{patterns: make([]redactPattern, len(defaultPatterns))}
	for i, p := range defaultPatterns {
		r.patterns[i] = redactPattern{regex: regexp.MustCompile(p.regex), replacement: p.replacement}
	}
	return r
}

// RedactString masks personal data in s.
func (r *Redactor) RedactString(s string) string {
	if s == "" {
		return s
	}
	for _, p := range r.patterns {
		s = p.regex.ReplaceAllString(s, p.replacement)
	}
	return s
}

// ReplaceAttr is a slog.HandlerOptions.ReplaceAttr hook.
func (r *Redactor) ReplaceAttr(groups []string, a slog.Attr) slog.Attr {
	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, "***")
	}

	switch a.Value.Kind() {
	case slog.KindString:
		return slog.String(a.Key, r.RedactString(a.Value.String()))
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			return slog.String(a.Key, r.RedactString(err.Error()))
		}
	}
	return a
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, k := range sensitiveKeys {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}
