// Package uuid re-exports google/uuid's UUID type under the name the rest
// of the proxy imports, and adds the Minecraft-specific offline-mode
// derivation rule.
package uuid

import (
	"crypto/md5"
	"fmt"

	guuid "github.com/google/uuid"
)

// UUID is a 128-bit universally unique identifier.
type UUID = guuid.UUID

// Nil is the zero UUID.
var Nil = guuid.Nil

// Parse parses s into a UUID, accepting both hyphenated and bare-hex forms.
func Parse(s string) (UUID, error) {
	return guuid.Parse(s)
}

// New returns a random (v4) UUID.
func New() UUID {
	return guuid.New()
}

// OfflinePlayerUUID derives the UUID Minecraft uses for a player connecting
// in offline mode: an MD5-based (v3-shaped) UUID of "OfflinePlayer:<name>"
// in the "UTF-16 via name bytes" form Mojang's server actually uses, which
// in practice is just MD5 of the UTF-8 bytes with the version/variant bits
// forced to 3/RFC4122 — the same derivation libraries like Velocity/Gate
// perform.
func OfflinePlayerUUID(name string) UUID {
	sum := md5.Sum([]byte("OfflinePlayer:" + name))
	sum[6] = (sum[6] & 0x0f) | 0x30 // version 3
	sum[8] = (sum[8] & 0x3f) | 0x80 // RFC4122 variant
	u, _ := guuid.FromBytes(sum[:])
	return u
}

// FromUndashed parses a 32 hex-char UUID without dashes (the form Mojang's
// session service returns in the `id` field).
func FromUndashed(s string) (UUID, error) {
	if len(s) != 32 {
		return Nil, fmt.Errorf("uuid: invalid undashed length %d", len(s))
	}
	dashed := s[0:8] + "-" + s[8:12] + "-" + s[12:16] + "-" + s[16:20] + "-" + s[20:32]
	return guuid.Parse(dashed)
}

// Undashed returns the 32 hex-char form without dashes.
func Undashed(u UUID) string {
	b := u[:]
	return fmt.Sprintf("%x", b)
}
