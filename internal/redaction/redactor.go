// Package redaction masks values of sensitive-looking variables in
// human-facing output. Masking is display-only: the underlying mapping is
// never modified, and export/exec surfaces always receive real values.
package redaction

import "regexp"

// Placeholder replaces a masked value in output.
const Placeholder = "[REDACTED]"

// sensitiveNamePatterns match variable names whose values are likely
// credentials.
var sensitiveNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i).*PASSWORD.*`),
	regexp.MustCompile(`(?i).*SECRET.*`),
	regexp.MustCompile(`(?i).*TOKEN.*`),
	regexp.MustCompile(`(?i).*_KEY$`),
	regexp.MustCompile(`(?i).*APIKEY.*`),
	regexp.MustCompile(`(?i).*CREDENTIAL.*`),
	regexp.MustCompile(`(?i).*AUTH.*`),
}

// IsSensitiveName reports whether a variable name looks like it holds a
// credential.
func IsSensitiveName(name string) bool {
	for _, pattern := range sensitiveNamePatterns {
		if pattern.MatchString(name) {
			return true
		}
	}
	return false
}

// MaskValue returns the placeholder for sensitive names and the value
// unchanged otherwise.
func MaskValue(name, value string) string {
	if IsSensitiveName(name) {
		return Placeholder
	}
	return value
}
