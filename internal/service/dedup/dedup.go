// Package dedup implements the admission gate that keeps concurrent
// identical requests (same video URL + same learning intention) down to at
// most one in-flight analysis. It is not a cache: completed requests always
// re-run the full pipeline.
package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Key derives the deduplication key for a request pair. The intention is
// trimmed so trailing whitespace does not defeat the gate.
func Key(rawURL, intention string) string {
	h := sha256.New()
	h.Write([]byte(rawURL))
	h.Write([]byte{0})
	h.Write([]byte(strings.TrimSpace(intention)))
	return hex.EncodeToString(h.Sum(nil))
}

// Store is the injected admission-gate state. Acquire is atomic
// insert-if-absent: it returns false when the key is already held. Release
// must be called unconditionally on both success and failure paths.
type Store interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}
