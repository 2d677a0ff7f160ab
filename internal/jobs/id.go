// Package jobs issues identifiers for generation sessions.
package jobs

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/rs/zerolog/log"
)

// SessionPrefix starts every session ID issued by GenerateSessionID.
const SessionPrefix = "session_"

// GenerateID creates a cryptographically random ID with the given prefix,
// e.g. "session_" or "req-".
func GenerateID(prefix string) string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		log.Fatal().Err(err).Msgf("Failed to generate random %s ID", prefix)
	}
	return prefix + hex.EncodeToString(b)
}

// GenerateSessionID returns a new session ID.
func GenerateSessionID() string {
	return GenerateID(SessionPrefix)
}

// NormalizeSessionID accepts a session ID with or without its prefix and
// returns the prefixed form. Empty input stays empty.
func NormalizeSessionID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || strings.HasPrefix(id, SessionPrefix) {
		return id
	}
	return SessionPrefix + id
}
