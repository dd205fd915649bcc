package quota

import "strings"

// ErrorKind is the classified category of a remote API failure.
type ErrorKind string

const (
	// KindNone means no error has been recorded.
	KindNone ErrorKind = ""

	// KindDailyQuotaExceeded means the credential's daily allocation is
	// spent and will not recover before the next reset boundary.
	KindDailyQuotaExceeded ErrorKind = "daily_quota_exceeded"

	// KindRateLimitExceeded means a short-term request-rate ceiling was
	// hit. Transient; the credential stays eligible.
	KindRateLimitExceeded ErrorKind = "rate_limit_exceeded"

	// KindKeyInvalid means the credential itself was rejected. Permanent
	// until an operator replaces the key.
	KindKeyInvalid ErrorKind = "api_key_invalid"

	// KindUnknown is any failure the matching table does not recognize.
	KindUnknown ErrorKind = "unknown_error"
)

// keyInvalidMarkers are the substrings that identify a rejected
// credential in upstream error text.
var keyInvalidMarkers = []string{
	"keyinvalid",
	"api key not valid",
	"invalid key",
	"forbidden",
	"403",
}

// Classify maps raw remote error text onto an ErrorKind.
//
// The upstream client surfaces errors as human-readable strings, not
// codes, so classification is substring matching over the lowercased
// text. Representative upstream reasons: quotaExceeded,
// dailyLimitExceeded, rateLimitExceeded, keyInvalid.
//
// The rate-limit rule ("quota" and "exceeded" but not "daily") can in
// principle misread a daily-quota message that omits the literal word
// "daily"; the table is kept as observed rather than guessing at
// undocumented upstream message variants.
func Classify(errText string) ErrorKind {
	text := strings.ToLower(errText)

	if strings.Contains(text, "quotaexceeded") || strings.Contains(text, "dailylimitexceeded") {
		return KindDailyQuotaExceeded
	}

	if strings.Contains(text, "ratelimitexceeded") ||
		(strings.Contains(text, "quota") && strings.Contains(text, "exceeded") && !strings.Contains(text, "daily")) {
		return KindRateLimitExceeded
	}

	for _, marker := range keyInvalidMarkers {
		if strings.Contains(text, marker) {
			return KindKeyInvalid
		}
	}

	return KindUnknown
}

// IsTransient reports whether error text describes a network-class
// failure (timeout, dropped connection) that is worth retrying on the
// same credential after a short pause.
func IsTransient(errText string) bool {
	text := strings.ToLower(errText)
	return strings.Contains(text, "timeout") ||
		strings.Contains(text, "connection") ||
		strings.Contains(text, "network")
}

// IsQuotaRelated reports whether a kind affects credential eligibility
// and should trigger rotation to another key.
func (k ErrorKind) IsQuotaRelated() bool {
	switch k {
	case KindDailyQuotaExceeded, KindRateLimitExceeded, KindKeyInvalid:
		return true
	default:
		return false
	}
}
