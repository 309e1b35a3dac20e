// Package domain contains entity without logic, just meta-data
package domain

import (
	"strings"
	"unicode/utf8"
)

const (
	MaxUserIDLen      = 64
	MaxDisplayNameLen = 64

	DefaultDisplayName = "Guest"
)

type UserID string

type User struct {
	ID          UserID `json:"id"`
	DisplayName string `json:"displayName"`
}

// NewUser trims the display name and falls back to DefaultDisplayName.
// Over-long values are cut at a rune boundary.
func NewUser(id, displayName string) User {
	return User{ID: SanitizeUserID(id), DisplayName: SanitizeDisplayName(displayName)}
}

// SanitizeUserID trims id and caps it at MaxUserIDLen runes.
func SanitizeUserID(id string) UserID {
	return UserID(truncateRunes(strings.TrimSpace(id), MaxUserIDLen))
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func SanitizeDisplayName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultDisplayName
	}
	return truncateRunes(name, MaxDisplayNameLen)
}
