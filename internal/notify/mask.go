package notify

import "strings"

// maskEmail renders "abc***@domain.com" for logging, matching the
// source project's to_email[:3] + "***" + to_email[idx("@"):] scheme.
func maskEmail(email string) string {
	at := strings.Index(email, "@")
	if at < 0 {
		return email
	}
	prefixLen := at
	if prefixLen > 3 {
		prefixLen = 3
	}
	return email[:prefixLen] + "***" + email[at:]
}

// maskPhone renders "+155***789" for logging: first four and last
// three characters kept, matching the source project's scheme.
// Numbers too short to mask meaningfully are returned unmodified.
func maskPhone(number string) string {
	if len(number) <= 7 {
		return number
	}
	return number[:4] + "***" + number[len(number)-3:]
}
