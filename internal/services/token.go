package services

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// generateSecureToken mints a 128-bit random credential identifier. The
// token is the only secret needed to attempt access, so it must never be
// enumerable or predictable.
func generateSecureToken() (string, error) {
	token := make([]byte, 16)
	_, err := rand.Read(token)
	if err != nil {
		return "", fmt.Errorf("failed to generate secure token: %w", err)
	}
	return hex.EncodeToString(token), nil
}
