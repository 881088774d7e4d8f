// Package datasetid derives a deterministic dataset ID from a file path.
package datasetid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
)

const prefix = "ds:"

// FromPath returns a stable dataset ID for the given absolute path.
// The path is cleaned first, so equivalent spellings share an ID. The hash is cut to
// 16 bytes to keep IDs short enough for URLs.
func FromPath(absolutePath string) string {
	normalized := filepath.Clean(absolutePath)
	hash := sha256.Sum256([]byte(normalized))
	return prefix + hex.EncodeToString(hash[:16])
}

// Valid reports whether id has the dataset ID shape.
func Valid(id string) bool {
	if len(id) != len(prefix)+32 || id[:len(prefix)] != prefix {
		return false
	}
	_, err := hex.DecodeString(id[len(prefix):])
	return err == nil
}
