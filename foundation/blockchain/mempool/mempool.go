// Package mempool maintains the pending pool of transactions that have not
// been committed to a block yet.
package mempool

import (
	"sync"

	"github.com/ardanlabs/pownode/foundation/blockchain/database"
)

// Mempool represents an ordered pool of pending transactions. Transactions
// come out of the pool in the order they went in.
type Mempool struct {
	mu   sync.RWMutex
	pool []database.Tx
}

// New constructs a new, empty mempool.
func New() *Mempool {
	return &Mempool{}
}

// Count returns the current number of transactions in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Add appends a transaction to the pool and returns the new count.
func (mp *Mempool) Add(tx database.Tx) int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = append(mp.pool, tx)

	return len(mp.pool)
}

// Copy returns a copy of the pending transactions in order.
func (mp *Mempool) Copy() []database.Tx {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	cpy := make([]database.Tx, len(mp.pool))
	copy(cpy, mp.pool)

	return cpy
}

// Flush removes every transaction from the pool and returns them in order.
// The returned slice is never nil.
func (mp *Mempool) Flush() []database.Tx {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	trans := mp.pool
	if trans == nil {
		trans = []database.Tx{}
	}
	mp.pool = nil

	return trans
}
