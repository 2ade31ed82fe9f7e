package handlers

import (
	"strings"
	"testing"
)

func TestValidateUsername(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"contestant", ""},
		{"  contestant  ", ""},
		{"", "Username is required."},
		{"   ", "Username is required."},
		{strings.Repeat("a", 32), ""},
		{strings.Repeat("a", 33), "Username is too long (max 32 characters)."},
	}
	for _, tc := range cases {
		if got := validateUsername(tc.in); got != tc.want {
			t.Errorf("validateUsername(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	if got := validatePassword("12345"); got != "Password is too short (min 6 characters)." {
		t.Errorf("short password: %q", got)
	}
	if got := validatePassword("123456"); got != "" {
		t.Errorf("minimum-length password rejected: %q", got)
	}
}

func TestValidateEmail(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"someone@example.com", ""},
		{"", "Email is required."},
		{"no-at-sign", "Invalid email address."},
		{strings.Repeat("a", 60) + "@x.com", "Invalid email address."},
	}
	for _, tc := range cases {
		if got := validateEmail(tc.in); got != tc.want {
			t.Errorf("validateEmail(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
