package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/pownode/foundation/blockchain/hasher"
	"github.com/ardanlabs/pownode/foundation/blockchain/pow"
)

// ErrInvalidChain is returned when a chain fails validation. The wrapping
// error describes the first failing pair of blocks.
var ErrInvalidChain = errors.New("invalid chain")

// =============================================================================

// Block represents a group of transactions batched together. The json tags
// define the wire shape shared with every peer and the canonical form the
// block digest is taken over, so field names and order must not change.
type Block struct {
	Index        uint64    `json:"index"`
	Timestamp    time.Time `json:"timestamp"`
	Transactions []Tx      `json:"transactions"`
	Proof        uint64    `json:"proof"`
	PreviousHash string    `json:"previousHash"`
}

// NewBlock constructs a block. The timestamp is kept in UTC and the
// transactions are copied so the block owns them.
func NewBlock(index uint64, timestamp time.Time, trans []Tx, proof uint64, previousHash string) Block {
	txs := make([]Tx, len(trans))
	copy(txs, trans)

	return Block{
		Index:        index,
		Timestamp:    timestamp.UTC(),
		Transactions: txs,
		Proof:        proof,
		PreviousHash: previousHash,
	}
}

// Hash returns the digest of the block. The digest is taken over the compact
// JSON form of the block: index, timestamp (RFC 3339 with nanoseconds),
// transactions (amount, recipient, sender), proof, previousHash. A block whose
// timestamp year falls outside 0-9999 can't be serialized and its digest is
// hasher.ZeroHash, which no chain accepts as a parent.
func (b Block) Hash() string {
	return hasher.Hash(b)
}

// String implements the fmt.Stringer interface for logging.
func (b Block) String() string {
	return fmt.Sprintf("blk[%d]: proof[%d]: prevHash[%s]: txs[%d]", b.Index, b.Proof, b.PreviousHash, len(b.Transactions))
}

// =============================================================================

// ValidateChain walks the chain from the second block to the last checking
// each block links to the digest of its parent and that each proof solves
// the puzzle seeded by its parent's proof and its parent's previous hash.
// A chain with a single block is valid.
func ValidateChain(blocks []Block) error {
	if len(blocks) == 0 {
		return fmt.Errorf("%w: chain is empty", ErrInvalidChain)
	}

	prev := blocks[0]
	for _, block := range blocks[1:] {
		hash := prev.Hash()
		if hash == hasher.ZeroHash {
			return fmt.Errorf("%w: blk[%d]: block can't be serialized", ErrInvalidChain, prev.Index)
		}

		if block.PreviousHash != hash {
			return fmt.Errorf("%w: blk[%d]: previous hash doesn't match parent, got %s, exp %s", ErrInvalidChain, block.Index, block.PreviousHash, hash)
		}

		// The puzzle is seeded with the parent's previous hash and not the
		// parent's own digest. Blocks are mined the same way.
		if prev.PreviousHash != "" && !pow.IsValid(prev.Proof, block.Proof, prev.PreviousHash) {
			return fmt.Errorf("%w: blk[%d]: proof %d doesn't solve the puzzle", ErrInvalidChain, block.Index, block.Proof)
		}

		prev = block
	}

	return nil
}

// ValidateSequence checks that every block's index equals its position in
// the chain, so the chain can be stored starting from the genesis block.
func ValidateSequence(blocks []Block) error {
	for i, block := range blocks {
		if block.Index != uint64(i) {
			return fmt.Errorf("%w: block at position %d has index %d", ErrInvalidChain, i, block.Index)
		}
	}

	return nil
}
