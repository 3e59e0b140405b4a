package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// hashKey namespaces a key under kind ("source", "artifact") and hashes the
// JSON encoding of parts, so a remote part URL or a scene fingerprint plus
// canvas options map to a fixed-length key safe for file names and Redis.
func hashKey(kind string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return kind + ":" + Hash(data)
}

// Hash returns the hex SHA-256 of data. File cache entries are named by it
// and scene fingerprints are reduced to it.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
