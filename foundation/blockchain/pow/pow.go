// Package pow implements the proof of work puzzle used to extend the chain.
package pow

import (
	"strconv"
	"strings"

	"github.com/ardanlabs/pownode/foundation/blockchain/hasher"
)

// Difficulty is the prefix a digest must start with to solve the puzzle. Four
// leading zero hex characters means 16 bits of leading zeros.
const Difficulty = "0000"

// IsValid reports whether the candidate proof solves the puzzle for the
// specified last proof and previous hash. The digest is taken over the decimal
// last proof, the decimal candidate proof and the previous hash concatenated
// with no separators.
func IsValid(lastProof uint64, proof uint64, previousHash string) bool {
	guess := strconv.FormatUint(lastProof, 10) + strconv.FormatUint(proof, 10) + previousHash
	return strings.HasPrefix(hasher.SumString(guess), Difficulty)
}

// Search returns the smallest proof that solves the puzzle for the specified
// last proof and previous hash. The search is a linear scan from zero and has
// no upper bound. It always returns the same value for the same inputs.
func Search(lastProof uint64, previousHash string) uint64 {
	var proof uint64
	for !IsValid(lastProof, proof, previousHash) {
		proof++
	}

	return proof
}
