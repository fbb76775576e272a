package database

import "fmt"

// Tx represents the transfer of an amount between two parties. A Tx is never
// modified once created. It is held by the pending pool until it is moved
// into exactly one block.
type Tx struct {
	Amount    int64  `json:"amount"`
	Recipient string `json:"recipient"`
	Sender    string `json:"sender"`
}

// NewTx constructs a new transaction.
func NewTx(sender string, recipient string, amount int64) Tx {
	return Tx{
		Amount:    amount,
		Recipient: recipient,
		Sender:    sender,
	}
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	return fmt.Sprintf("%s->%s:%d", tx.Sender, tx.Recipient, tx.Amount)
}
