package logging

import (
	"regexp"
)

const (
	// MaxTextLogLength is the maximum length of model output or OCR text to log.
	MaxTextLogLength = 200
	// RedactedText is the replacement text for sensitive data
	RedactedText = "[REDACTED]"
)

var (
	// password=xxx, pwd=xxx, pass=xxx (until next delimiter)
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// Bearer tokens of any shape, JWTs included.
	bearerPattern = regexp.MustCompile(`Bearer\s+[A-Za-z0-9\-_\.]+`)

	// api_key=..., key=... query parameters (openFDA, Gemini)
	apiKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key|apikey|key)=[A-Za-z0-9\-_]{16,}`)

	// Provider secret keys such as sk-or-v1-... and sk-ant-...
	secretKeyPattern = regexp.MustCompile(`\bsk-[A-Za-z0-9\-_]{16,}`)

	// user:pass@host inside URIs (postgres://, mongodb://, redis://)
	connStringPattern = regexp.MustCompile(`://[^:/\s]+:[^@/\s]+@`)

	// Inline images are large and may contain personal health data.
	dataURIPattern = regexp.MustCompile(`data:[a-zA-Z0-9.+\-/]+;base64,[A-Za-z0-9+/=]+`)
)

// SanitizeConnectionString removes credentials from a connection string or URI.
// Use this before logging any database, Redis or Mongo address.
func SanitizeConnectionString(connStr string) string {
	if connStr == "" {
		return ""
	}

	sanitized := passwordPattern.ReplaceAllString(connStr, "${1}="+RedactedText)
	return connStringPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@")
}

// SanitizeError renders an error with credentials, tokens and inline images removed.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return redact(err.Error())
}

// SanitizeText truncates and redacts free text (model responses, OCR output) for logging.
func SanitizeText(text string) string {
	return TruncateString(redact(text), MaxTextLogLength)
}

func redact(s string) string {
	s = dataURIPattern.ReplaceAllString(s, "data:"+RedactedText)
	s = passwordPattern.ReplaceAllString(s, "${1}="+RedactedText)
	s = bearerPattern.ReplaceAllString(s, "Bearer "+RedactedText)
	s = apiKeyPattern.ReplaceAllString(s, "${1}="+RedactedText)
	s = secretKeyPattern.ReplaceAllString(s, RedactedText)
	return connStringPattern.ReplaceAllString(s, "://"+RedactedText+"@")
}

// TruncateString truncates a string to maxLen and adds ellipsis if needed
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
