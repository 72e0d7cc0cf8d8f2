// Package sha256 fingerprints fetched page bodies. The digest is stored
// with each page record so re-crawls can tell whether content changed
// without keeping the body around.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hasher implements crawler.Hasher with SHA-256.
type Hasher struct{}

// New returns a Hasher.
func New() *Hasher {
	return &Hasher{}
}

// Hash returns the lowercase hex SHA-256 digest of body. An empty or nil
// body hashes to the digest of the empty string, which keeps zero-length
// responses distinguishable from an unset content_hash only by convention.
func (h *Hasher) Hash(body []byte) (string, error) {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:]), nil
}
