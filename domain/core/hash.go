package core

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Short returns the first 12 hex characters, enough to tell runs apart in a report.
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// InputHash fingerprints the raw inputs of a conversion run.
type InputHash Hash

func (h InputHash) String() string { return Hash(h).String() }
func (h InputHash) Short() string  { return Hash(h).Short() }

// ComputeInputHash hashes key/value pairs in key order so that the same
// inputs always produce the same fingerprint regardless of map iteration.
func ComputeInputHash(values map[string]string) InputHash {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var data strings.Builder
	for _, key := range keys {
		data.WriteString(key)
		data.WriteByte('=')
		data.WriteString(values[key])
		data.WriteByte('\n')
	}

	return InputHash(NewHash([]byte(data.String())))
}
