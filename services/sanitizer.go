package services

import (
	"regexp"
	"strings"
)

// Tag bodies are matched non-greedily across the whole element so the
// contents go with the tags.
var (
	scriptTagRegex = regexp.MustCompile(`(?is)<script\b.*?</script>`)
	iframeTagRegex = regexp.MustCompile(`(?is)<iframe\b.*?</iframe>`)
	uriSchemeRegex = regexp.MustCompile(`(?i)(?:javascript|data|vbscript):`)
	eventAttrRegex = regexp.MustCompile(`(?i)\bon\w+\s*=`)
)

// htmlEscaper mirrors validator.escape: &, <, >, quotes, slash and backtick.
var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
	"/", "&#x2F;",
	"`", "&#96;",
)

// safeEntityDecoder restores the readable subset after escaping. Escaping
// first and then selectively decoding keeps markup the tag strip missed from
// being reintroduced.
var safeEntityDecoder = strings.NewReplacer(
	"&amp;", "&",
	"&quot;", `"`,
	"&#x27;", "'",
	"&lt;", "<",
	"&gt;", ">",
)

// SanitizeText strips script/iframe elements, neutralizes dangerous URI
// schemes and inline event handlers, escapes the remainder, then decodes the
// safe entity allow-list back for readability. It never fails; the worst
// outcome is an empty string.
func SanitizeText(text string) string {
	sanitized := scriptTagRegex.ReplaceAllString(text, "")
	sanitized = iframeTagRegex.ReplaceAllString(sanitized, "")
	sanitized = uriSchemeRegex.ReplaceAllString(sanitized, "")
	sanitized = eventAttrRegex.ReplaceAllString(sanitized, "")

	sanitized = htmlEscaper.Replace(sanitized)
	sanitized = safeEntityDecoder.Replace(sanitized)

	return strings.TrimSpace(sanitized)
}

// SanitizeMap projects obj down to allowedFields, sanitizing string and
// string-slice values. Malformed input yields an empty map rather than an
// error.
func SanitizeMap(obj map[string]any, allowedFields []string) map[string]any {
	sanitized := make(map[string]any)
	if obj == nil || allowedFields == nil {
		return sanitized
	}

	for _, key := range allowedFields {
		value, ok := obj[key]
		if !ok {
			continue
		}
		switch v := value.(type) {
		case string:
			sanitized[key] = SanitizeText(v)
		case []string:
			cleaned := make([]string, len(v))
			for i, item := range v {
				cleaned[i] = SanitizeText(item)
			}
			sanitized[key] = cleaned
		case []any:
			cleaned := make([]any, len(v))
			for i, item := range v {
				if s, ok := item.(string); ok {
					cleaned[i] = SanitizeText(s)
				} else {
					cleaned[i] = item
				}
			}
			sanitized[key] = cleaned
		default:
			sanitized[key] = value
		}
	}
	return sanitized
}
