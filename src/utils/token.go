package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// NewToken returns a random 64-char hex token, used for session and webhook
// credentials.
func NewToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
