package public

import (
	"github.com/ardanlabs/pownode/foundation/blockchain/database"
	"github.com/ardanlabs/pownode/foundation/validate"
)

type mineResponse struct {
	Message      string        `json:"message"`
	Index        uint64        `json:"index"`
	Transactions []database.Tx `json:"transactions"`
	Proof        uint64        `json:"proof"`
	PreviousHash string        `json:"previousHash"`
}

type consensusResponse struct {
	Message string           `json:"message"`
	Chain   []database.Block `json:"chain"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type peer struct {
	Address string `json:"address"`
}

// NewTx is what clients submit to add a transaction to the pending pool.
type NewTx struct {
	Sender    string `json:"sender" validate:"required"`
	Recipient string `json:"recipient" validate:"required"`
	Amount    int64  `json:"amount"`
}

// Validate checks the data in the model is considered clean.
func (ntx NewTx) Validate() error {
	return validate.Check(ntx)
}

// RegisterNodes is what clients submit to add peers to the node.
type RegisterNodes struct {
	URLs []string `json:"urls" validate:"required"`
}

// Validate checks the data in the model is considered clean.
func (rn RegisterNodes) Validate() error {
	return validate.Check(rn)
}
