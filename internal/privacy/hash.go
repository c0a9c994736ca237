package privacy

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// digestSize is the blake2b output length in bytes. Five bytes keeps the
// hashed identifiers compact while collisions stay negligible for the
// fleet sizes this service handles.
const digestSize = 5

// HashID replaces a raw personal or operational identifier with a one-way
// hex digest. Deterministic: the same input always yields the same digest,
// so hashed ids remain usable as dedup and correlation keys.
func HashID(raw string) string {
	h, err := blake2b.New(digestSize, nil)
	if err != nil {
		panic(err)
	}
	h.Write([]byte(raw))
	return hex.EncodeToString(h.Sum(nil))
}
