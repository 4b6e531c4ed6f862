package userutil

import (
	"os"
	"os/user"
	"regexp"
	"strings"
)

var invalidUsernameRune = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

var currentUserFn = user.Current

// SanitizeUsername normalizes username-like values used in pipe/mutex names.
func SanitizeUsername(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return invalidUsernameRune.ReplaceAllString(value, "_")
}

// CurrentUsername prefers %USERNAME% and falls back to the account name of
// the running process. It returns "" when neither is available.
func CurrentUsername() string {
	if name := strings.TrimSpace(os.Getenv("USERNAME")); name != "" {
		return name
	}
	if current, err := currentUserFn(); err == nil {
		return current.Username
	}
	return ""
}
