package state

import (
	"context"
	"time"

	"github.com/ardanlabs/pownode/foundation/blockchain/database"
	"github.com/ardanlabs/pownode/foundation/blockchain/genesis"
	"github.com/ardanlabs/pownode/foundation/blockchain/pow"
)

// Mine produces the next block of the chain. When a worker is registered the
// proof search runs on the worker's mining goroutine and this call waits for
// the result. If the context ends first the call returns, but the block is
// still mined and appended by the worker.
func (s *State) Mine(ctx context.Context) (database.Block, error) {
	if s.Worker == nil {
		return s.MineNewBlock()
	}

	result := s.Worker.SignalStartMining()

	select {
	case res := <-result:
		return res.Block, res.Err
	case <-ctx.Done():
		return database.Block{}, ctx.Err()
	}
}

// MineNewBlock searches for the proof of the next block, credits this node
// with the mining reward, and moves every pending transaction into the new
// block. No other chain mutation can happen while a block is being mined.
func (s *State) MineNewBlock() (database.Block, error) {
	block, err := s.mineNewBlock()
	if err != nil {
		return database.Block{}, err
	}

	s.publishBlock(block)

	return block, nil
}

func (s *State) mineNewBlock() (database.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	latestBlock := s.db.LatestBlock()

	s.evHandler("state: MineNewBlock: MINING: perform POW: lastProof[%d]: linkage[%s]", latestBlock.Proof, latestBlock.PreviousHash)

	// The puzzle is seeded with the latest block's previous hash, while the
	// new block links to the digest of the latest block. Validation checks
	// both the same way.
	t := time.Now()
	proof := pow.Search(latestBlock.Proof, latestBlock.PreviousHash)

	s.evHandler("state: MineNewBlock: MINING: SOLVED: proof[%d]: duration[%v]", proof, time.Since(t))

	s.mempool.Add(genesis.RewardTx(s.nodeID))

	block := database.NewBlock(s.db.Length(), time.Now(), s.mempool.Flush(), proof, latestBlock.Hash())

	s.evHandler("state: MineNewBlock: MINING: write block: %s", block)

	if err := s.db.Write(block); err != nil {
		return database.Block{}, err
	}

	return block, nil
}
