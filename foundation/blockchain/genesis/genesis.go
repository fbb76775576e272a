// Package genesis maintains the values every chain starts with.
package genesis

import (
	"time"

	"github.com/ardanlabs/pownode/foundation/blockchain/database"
)

// Values used to construct the genesis block and to reward miners. These are
// not configurable, every node must agree on them.
const (
	Proof        uint64 = 100 // Sentinel proof of the genesis block.
	PreviousHash string = "1" // Sentinel previous hash of the genesis block.
	RewardSender string = "0" // Sender of the mining reward transaction.
	MiningReward int64  = 1   // Amount credited to the miner for each block.
)

// Block constructs the genesis block with the specified creation time and no
// transactions.
func Block(now time.Time) database.Block {
	return database.NewBlock(0, now, nil, Proof, PreviousHash)
}

// RewardTx constructs the transaction that credits the miner with the reward
// for mining a block.
func RewardTx(nodeID string) database.Tx {
	return database.NewTx(RewardSender, nodeID, MiningReward)
}
