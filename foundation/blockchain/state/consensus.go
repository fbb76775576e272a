package state

import (
	"context"
	"sync"

	"github.com/ardanlabs/pownode/foundation/blockchain/database"
	"github.com/ardanlabs/pownode/foundation/blockchain/peer"
)

// Consensus reconciles the local chain with the chains held by the known
// peers. Every peer is asked for its chain concurrently. Peers that can't be
// reached or answer with garbage are skipped. A peer chain that is longer
// than the local chain and valid becomes the candidate. Candidates are
// considered in the order the peers were registered and the last one wins,
// there is no comparison between candidates. It reports whether the local
// chain was replaced.
func (s *State) Consensus(ctx context.Context) (bool, error) {
	s.evHandler("state: Consensus: started")
	defer s.evHandler("state: Consensus: completed")

	peers := s.knownPeers.Copy()
	chains := s.requestPeerChains(ctx, peers)

	blocks, err := s.adoptCandidate(peers, chains)
	if err != nil {
		return false, err
	}

	if blocks == nil {
		s.evHandler("state: Consensus: our chain is authoritative: blocks[%d]", s.db.Length())
		return false, nil
	}

	s.evHandler("state: Consensus: our chain was replaced: blocks[%d]", len(blocks))
	s.publishChain(blocks)

	return true, nil
}

// requestPeerChains fetches the chain of every peer concurrently. The
// result at index i belongs to peers[i] and is nil when the fetch failed.
func (s *State) requestPeerChains(ctx context.Context, peers []peer.Peer) [][]database.Block {
	chains := make([][]database.Block, len(peers))

	var wg sync.WaitGroup
	wg.Add(len(peers))

	for i, pr := range peers {
		go func(i int, pr peer.Peer) {
			defer wg.Done()

			blocks, err := s.fetchChain(ctx, pr)
			if err != nil {
				s.evHandler("state: Consensus: peer[%s]: WARNING: %s", pr, err)
				return
			}

			chains[i] = blocks
		}(i, pr)
	}

	wg.Wait()

	return chains
}

// adoptCandidate selects the candidate chain and replaces the local chain
// with it as a single step. It returns the adopted blocks or nil.
func (s *State) adoptCandidate(peers []peer.Peer, chains [][]database.Block) ([]database.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	length := s.db.Length()

	var candidate []database.Block
	for i, blocks := range chains {
		if uint64(len(blocks)) <= length {
			continue
		}

		if err := database.ValidateSequence(blocks); err != nil {
			s.evHandler("state: Consensus: peer[%s]: rejected: %s", peers[i], err)
			continue
		}

		if err := database.ValidateChain(blocks); err != nil {
			s.evHandler("state: Consensus: peer[%s]: rejected: %s", peers[i], err)
			continue
		}

		s.evHandler("state: Consensus: peer[%s]: candidate: blocks[%d]", peers[i], len(blocks))
		candidate = blocks
	}

	if candidate == nil {
		return nil, nil
	}

	if err := s.db.Replace(candidate); err != nil {
		return nil, err
	}

	return candidate, nil
}
