// Package hasher provides the digest functions shared by the ledger. Every
// digest is a sha256 sum rendered as 64 lowercase hex characters with no
// prefix, so independent nodes can compare them byte for byte.
package hasher

import (
	"crypto/sha256"
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
)

// ZeroHash represents the digest returned when a value can't be serialized.
const ZeroHash string = "0000000000000000000000000000000000000000000000000000000000000000"

// Hash returns the digest of the canonical JSON serialization of the value.
// The serialization is the one produced by encoding/json: compact, fields in
// struct declaration order, strings escaped the same way on every node.
func Hash(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return ZeroHash
	}

	return Sum(data)
}

// Sum returns the digest of the specified bytes.
func Sum(data []byte) string {
	hash := sha256.Sum256(data)
	return common.Bytes2Hex(hash[:])
}

// SumString returns the digest of the UTF-8 bytes of the string.
func SumString(s string) string {
	return Sum([]byte(s))
}
