package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenerateInvitationToken generates a cryptographically secure opaque token
// for guest access links
func GenerateInvitationToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
