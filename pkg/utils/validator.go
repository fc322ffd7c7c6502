package utils

import (
	"regexp"
	"strings"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// IsValidOUPath reports whether path looks like a directory org unit path,
// e.g. "/Students/Restricted".
func IsValidOUPath(path string) bool {
	return strings.HasPrefix(path, "/") && !strings.Contains(path, "//")
}

// SanitizeEmail turns an email into an identifier safe for job and task
// names: user@example.com -> user_example_com
func SanitizeEmail(email string) string {
	return strings.NewReplacer("@", "_", ".", "_").Replace(email)
}
