// Package cache provides the search result cache.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
)

// Key derives a deterministic cache key from a query and its options.
// Map insertion order never affects the key, nested maps included. The
// query is quoted byte for byte so invalid UTF-8 stays distinct.
func Key(query string, options map[string]any) string {
	h := sha256.New()
	h.Write([]byte(strconv.Quote(query)))
	h.Write([]byte{0})
	h.Write(encodeOptions(options))
	return hex.EncodeToString(h.Sum(nil))
}

// encodeOptions renders options canonically. encoding/json sorts map keys
// at every level; values it rejects (NaN, ±Inf, channels) fall back to Go
// syntax, which fmt also prints with sorted map keys.
func encodeOptions(options map[string]any) []byte {
	if data, err := json.Marshal(options); err == nil {
		return data
	}
	return fmt.Appendf([]byte("go:"), "%#v", options)
}
