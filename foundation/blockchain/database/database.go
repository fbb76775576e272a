// Package database maintains the chain of blocks owned by the node. The
// blocks are kept in a Storage implementation and the database tracks the
// latest block so the tip of the chain can be read without touching storage.
package database

import (
	"errors"
	"fmt"
	"sync"
)

// Storage interface represents the behavior required to be implemented by any
// package providing support for storing and reading the blockchain.
type Storage interface {
	Write(block Block) error
	ForEach() Iterator
	Close() error
	Reset() error
}

// Iterator interface represents the behavior required to be implemented by any
// package providing support to iterate over the blocks.
type Iterator interface {
	Next() (Block, error)
	Done() bool
}

// =============================================================================

// Database manages the chain of blocks for the node. The chain is never
// empty once constructed, it always starts with a genesis block.
type Database struct {
	mu          sync.RWMutex
	latestBlock Block
	length      uint64
	storage     Storage
}

// New constructs a database over the specified storage. Any blocks already
// in storage are loaded and validated. If the storage is empty the genesis
// block is written as the first block of the chain.
func New(storage Storage, genesis Block, evHandler func(v string, args ...any)) (*Database, error) {
	db := Database{
		storage: storage,
	}

	var blocks []Block

	iter := storage.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}

	if len(blocks) == 0 {
		evHandler("database: New: writing genesis block: %s", genesis)

		if err := storage.Write(genesis); err != nil {
			return nil, fmt.Errorf("writing genesis block: %w", err)
		}

		db.latestBlock = genesis
		db.length = 1

		return &db, nil
	}

	evHandler("database: New: validating stored chain: blocks[%d]", len(blocks))

	if err := ValidateSequence(blocks); err != nil {
		return nil, err
	}

	if err := ValidateChain(blocks); err != nil {
		return nil, err
	}

	db.latestBlock = blocks[len(blocks)-1]
	db.length = uint64(len(blocks))

	return &db, nil
}

// Close closes the underlying storage.
func (db *Database) Close() error {
	return db.storage.Close()
}

// LatestBlock returns the last block of the chain.
func (db *Database) LatestBlock() Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.latestBlock
}

// Length returns the number of blocks in the chain.
func (db *Database) Length() uint64 {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.length
}

// Write appends the block to the chain. The block's index must equal the
// current length of the chain.
func (db *Database) Write(block Block) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if block.Index != db.length {
		return fmt.Errorf("block is not the next block, got %d, exp %d", block.Index, db.length)
	}

	if err := db.storage.Write(block); err != nil {
		return err
	}

	db.latestBlock = block
	db.length++

	return nil
}

// Replace swaps the entire chain for the specified blocks. The caller is
// expected to have validated the linkage and proofs of the blocks. Either
// every block is stored or the current chain is kept.
func (db *Database) Replace(blocks []Block) error {
	if len(blocks) == 0 {
		return errors.New("can't replace the chain with an empty chain")
	}

	if err := ValidateSequence(blocks); err != nil {
		return err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	current, err := db.blocks()
	if err != nil {
		return err
	}

	if err := db.rewrite(blocks); err != nil {
		if rerr := db.rewrite(current); rerr != nil {
			return fmt.Errorf("%w: restoring chain: %s", err, rerr)
		}
		return err
	}

	db.latestBlock = blocks[len(blocks)-1]
	db.length = uint64(len(blocks))

	return nil
}

// rewrite clears the storage and writes the blocks in order.
func (db *Database) rewrite(blocks []Block) error {
	if err := db.storage.Reset(); err != nil {
		return err
	}

	for _, block := range blocks {
		if err := db.storage.Write(block); err != nil {
			return fmt.Errorf("writing blk[%d]: %w", block.Index, err)
		}
	}

	return nil
}

// Blocks returns a copy of the full chain.
func (db *Database) Blocks() ([]Block, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.blocks()
}

func (db *Database) blocks() ([]Block, error) {
	blocks := make([]Block, 0, db.length)

	iter := db.storage.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}

	return blocks, nil
}
