package handlers

import (
	"strings"
	"unicode/utf8"
)

// Validation limits for account fields.
const (
	maxUsernameLen = 32
	minPasswordLen = 6
	maxEmailLen    = 64
)

// validateUsername checks a registration username and returns the first
// error found, or "".
func validateUsername(username string) string {
	username = strings.TrimSpace(username)
	if username == "" {
		return "Username is required."
	}
	if utf8.RuneCountInString(username) > maxUsernameLen {
		return "Username is too long (max 32 characters)."
	}
	return ""
}

// validatePassword enforces the minimum password length.
func validatePassword(password string) string {
	if utf8.RuneCountInString(password) < minPasswordLen {
		return "Password is too short (min 6 characters)."
	}
	return ""
}

// validateEmail performs a shallow shape check; real validation happens
// when the reset mail bounces.
func validateEmail(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return "Email is required."
	}
	if !strings.Contains(email, "@") || utf8.RuneCountInString(email) > maxEmailLen {
		return "Invalid email address."
	}
	return ""
}
