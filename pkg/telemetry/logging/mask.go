package logging

import "strings"

// maskPrefixLen is how many leading characters of a key survive masking.
const maskPrefixLen = 8

// MaskKey returns a log-safe form of an API key: the first few
// characters followed by an ellipsis. Keys shorter than the preserved
// prefix are fully masked.
func MaskKey(key string) string {
	if len(key) <= maskPrefixLen {
		return "***"
	}
	return key[:maskPrefixLen] + "..."
}

// Sanitizer scrubs configured credential material out of free-form
// text, such as error messages echoed back by a remote API.
type Sanitizer struct {
	replacer *strings.Replacer
}

// NewSanitizer creates a Sanitizer that replaces every occurrence of
// the given keys with their masked form. Empty keys are ignored.
func NewSanitizer(keys []string) *Sanitizer {
	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		if k == "" {
			continue
		}
		pairs = append(pairs, k, MaskKey(k))
	}
	return &Sanitizer{replacer: strings.NewReplacer(pairs...)}
}

// Sanitize returns text with all configured key material masked.
func (s *Sanitizer) Sanitize(text string) string {
	if s == nil || s.replacer == nil {
		return text
	}
	return s.replacer.Replace(text)
}
