package keys

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// PromptFingerprint produces a deterministic, fixed-length key for a
// narrative prompt plus its conversation history. Equal inputs always
// map to the same fingerprint, so it is suitable both as a cache key
// and as a singleflight key.
func PromptFingerprint(prompt string, history []string) string {
	h := sha256.New()
	h.Write([]byte(strings.TrimSpace(prompt)))
	for _, turn := range history {
		h.Write([]byte{0}) // separator so concatenations don't collide
		h.Write([]byte(turn))
	}
	return hex.EncodeToString(h.Sum(nil))
}
