package model

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// User represents a registered account.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	IsStaff      bool      `json:"is_staff"`
	CreatedAt    time.Time `json:"created_at"`
}

// MaxUsernameLength is the longest accepted username.
const MaxUsernameLength = 150

// ValidateUsername checks that a username can be stored.
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username required")
	}
	if utf8.RuneCountInString(username) > MaxUsernameLength {
		return fmt.Errorf("username must be at most %d characters", MaxUsernameLength)
	}
	return nil
}
