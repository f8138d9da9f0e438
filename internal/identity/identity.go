// Package identity derives stable cache keys from media file content.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// digestLen keeps cache filenames short while leaving collisions out of
// practical reach for a local cache.
const digestLen = 16

// File hashes the full byte content of the file at path. Identical bytes
// always produce the same identity regardless of filename or location.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil))[:digestLen], nil
}
