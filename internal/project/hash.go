package project

import (
	"crypto/sha256"
)

// Digest is a sha256 content hash.
type Digest [32]byte

// DigestOf hashes content.
func DigestOf(content []byte) Digest {
	return sha256.Sum256(content)
}
