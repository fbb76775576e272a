package state

import (
	"fmt"

	"github.com/ardanlabs/pownode/foundation/blockchain/database"
)

// CreateTransaction adds a new transaction to the pending pool and returns
// the index of the block the transaction is slated for.
func (s *State) CreateTransaction(sender string, recipient string, amount int64) (uint64, error) {
	if sender == "" || recipient == "" {
		return 0, fmt.Errorf("%w: sender and recipient addresses both must have values", ErrInvalidArgument)
	}

	tx := database.NewTx(sender, recipient, amount)
	n := s.mempool.Add(tx)

	s.evHandler("state: CreateTransaction: tx[%s]: pending[%d]", tx, n)

	return s.db.LatestBlock().Index + 1, nil
}
