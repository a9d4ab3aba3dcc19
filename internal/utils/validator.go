package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail validates an email address
func ValidateEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// ValidatePassword reports whether the password has at least minLength characters
func ValidatePassword(password string, minLength int) bool {
	return utf8.RuneCountInString(password) >= minLength
}

// SanitizeEmail normalizes an email for storage and lookup
func SanitizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
