package state

import (
	"github.com/ardanlabs/pownode/foundation/blockchain/database"
)

// FullChain is the snapshot of a chain exchanged between nodes.
type FullChain struct {
	Chain  []database.Block `json:"chain"`
	Length int              `json:"length"`
}

// RetrieveNodeID returns the identity credited with mining rewards.
func (s *State) RetrieveNodeID() string {
	return s.nodeID
}

// RetrieveChain returns a snapshot of the full chain.
func (s *State) RetrieveChain() (FullChain, error) {
	blocks, err := s.db.Blocks()
	if err != nil {
		return FullChain{}, err
	}

	fc := FullChain{
		Chain:  blocks,
		Length: len(blocks),
	}

	return fc, nil
}

// RetrieveLatestBlock returns a copy the current latest block.
func (s *State) RetrieveLatestBlock() database.Block {
	return s.db.LatestBlock()
}

// RetrieveMempool returns a copy of the pending transactions.
func (s *State) RetrieveMempool() []database.Tx {
	return s.mempool.Copy()
}

// RetrievePendingCount returns the number of transactions waiting for the
// next block.
func (s *State) RetrievePendingCount() int {
	return s.mempool.Count()
}

// RetrieveKnownPeerCount returns the number of known peers.
func (s *State) RetrieveKnownPeerCount() int {
	return s.knownPeers.Len()
}
