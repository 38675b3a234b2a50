package domain

import (
	"crypto/rand"
	"strings"
)

const (
	roomIDLength   = 6
	roomIDAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// GenerateRoomID produces a random 6-character base-36 room id, upper-cased.
// Room ids are opaque tokens scoping signaling traffic; collisions are not
// guarded against.
func GenerateRoomID() string {
	buf := make([]byte, roomIDLength)
	_, _ = rand.Read(buf)

	id := make([]byte, roomIDLength)
	for i, b := range buf {
		id[i] = roomIDAlphabet[int(b)%len(roomIDAlphabet)]
	}
	return string(id)
}

// NormalizeRoomID trims surrounding whitespace and upper-cases the id, the
// same canonical form used for both display and message filtering.
func NormalizeRoomID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}
