package utils

import (
	"hash/fnv"
	"strconv"
)

func HashStringToUint64(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// HashKey joins parts with a separator byte and returns a hex fnv-64a digest,
// suitable as a cache key.
func HashKey(parts ...string) string {
	h := fnv.New64a()
	for i, p := range parts {
		if i > 0 {
			_, _ = h.Write([]byte{0})
		}
		_, _ = h.Write([]byte(p))
	}
	return strconv.FormatUint(h.Sum64(), 16)
}
