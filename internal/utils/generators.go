package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// NewID returns a random UUID used as an entity identifier.
func NewID() string {
	return uuid.New().String()
}

// NewTicketID mints a ticket identifier like "TKT-AB12CD34". Drawn from
// crypto/rand so identifiers are never sequential or guessable; the
// storage layer's unique constraint is the collision backstop.
func NewTicketID() string {
	return "TKT-" + randomHex(4)
}

// NewTeamCode mints a join code like "TEAM-9F0A1B".
func NewTeamCode() string {
	return "TEAM-" + randomHex(3)
}

func randomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails if the OS entropy source is broken.
		panic(fmt.Sprintf("random source unavailable: %v", err))
	}
	return strings.ToUpper(hex.EncodeToString(buf))
}
