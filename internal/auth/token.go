package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// TokenBytes is the amount of randomness in a token; keys are hex encoded,
// so every key is 2*TokenBytes characters long.
const TokenBytes = 20

// GenerateToken creates a new random token key.
func GenerateToken() (string, error) {
	buf := make([]byte, TokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Authorization header schemes accepted for token credentials.
var tokenSchemes = []string{"Token", "Bearer"}

// ParseAuthorization extracts the token key from an Authorization header.
// present is false when the header is empty; a non-empty header that does
// not carry a well-formed token returns an error.
func ParseAuthorization(header string) (key string, present bool, err error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", false, nil
	}

	scheme, rest, _ := strings.Cut(header, " ")
	known := false
	for _, s := range tokenSchemes {
		if strings.EqualFold(scheme, s) {
			known = true
			break
		}
	}
	if !known {
		return "", true, fmt.Errorf("unsupported authorization scheme %q", scheme)
	}

	key = strings.TrimSpace(rest)
	if key == "" {
		return "", true, fmt.Errorf("no credentials provided")
	}
	if strings.ContainsAny(key, " \t") {
		return "", true, fmt.Errorf("token string should not contain spaces")
	}
	return key, true, nil
}
