package identity

import "strings"

// NormalizeEmail canonicalizes an email address so the same human identity
// always maps to the same key. Applied identically at registration, login,
// and reset lookup.
func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// IsValidEmail applies the same minimal shape check the registration
// endpoint has always used
func IsValidEmail(value string) bool {
	return strings.Contains(value, "@")
}
