package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// BatchKey derives the cache key for one lookup request. Title order matters:
// cached results carry batch positions.
func BatchKey(endpoint string, titles []string) string {
	h := sha256.New()
	h.Write([]byte(strings.TrimRight(endpoint, "/")))
	for _, t := range titles {
		h.Write([]byte{0})
		h.Write([]byte(t))
	}
	return "lookup-" + hex.EncodeToString(h.Sum(nil))
}
