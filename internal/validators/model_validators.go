package validators

import (
	"strings"
	"unicode/utf8"
)

// MaxUserAgentLength bounds the stored user agent
const MaxUserAgentLength = 512

// SessionValidator provides validation for Session model fields
type SessionValidator struct{}

// ValidateSessionCreation validates all fields for creating a new session
func (v *SessionValidator) ValidateSessionCreation(id, ipAddress, userAgent string) []error {
	errors := []error{}

	if err := ValidateUUID(id, "id"); err != nil {
		errors = append(errors, err)
	}

	if err := ValidateStringLength(ipAddress, "ip_address", 0, 45); err != nil {
		errors = append(errors, err)
	}

	if err := ValidateStringLength(userAgent, "user_agent", 0, MaxUserAgentLength); err != nil {
		errors = append(errors, err)
	}

	if !utf8.ValidString(userAgent) || strings.ContainsRune(userAgent, 0) {
		errors = append(errors, NewValidationError("user_agent", "must be valid UTF-8 without NUL bytes"))
	}

	return errors
}

// SanitizeUserAgent makes a raw User-Agent header storable in a text column:
// invalid UTF-8 and NUL bytes are dropped, then the value is cut to MaxUserAgentLength
// without splitting a rune.
func SanitizeUserAgent(userAgent string) string {
	clean := strings.ReplaceAll(strings.ToValidUTF8(userAgent, ""), "\x00", "")
	if len(clean) <= MaxUserAgentLength {
		return clean
	}

	cut := MaxUserAgentLength
	for cut > 0 && !utf8.RuneStart(clean[cut]) {
		cut--
	}
	return clean[:cut]
}
