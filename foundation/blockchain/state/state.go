// Package state is the core API for the blockchain and implements all the
// business rules and processing.
package state

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/ardanlabs/pownode/foundation/blockchain/database"
	"github.com/ardanlabs/pownode/foundation/blockchain/genesis"
	"github.com/ardanlabs/pownode/foundation/blockchain/mempool"
	"github.com/ardanlabs/pownode/foundation/blockchain/peer"
	"github.com/ardanlabs/pownode/foundation/blockchain/storage/memory"
	"github.com/google/uuid"
)

// ErrInvalidArgument is returned when a caller provides data the node
// can't accept.
var ErrInvalidArgument = errors.New("invalid argument")

// publishTimeout bounds the time spent announcing a block outside the node.
const publishTimeout = 5 * time.Second

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of the blockchain.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for running the mining workflow.
type Worker interface {
	Shutdown()
	SignalStartMining() <-chan MiningResult
}

// MiningResult is delivered by a Worker once a requested block is mined.
type MiningResult struct {
	Block database.Block
	Err   error
}

// Publisher interface represents the behavior required to be implemented by
// any package announcing ledger changes to systems outside the node.
type Publisher interface {
	PublishBlock(ctx context.Context, block database.Block) error
	PublishChain(ctx context.Context, blocks []database.Block) error
}

// ChainFetcher retrieves the full chain held by a peer.
type ChainFetcher func(ctx context.Context, pr peer.Peer) ([]database.Block, error)

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	NodeID     string
	Storage    database.Storage
	KnownPeers *peer.PeerSet
	Publisher  Publisher
	FetchChain ChainFetcher
	EvHandler  EventHandler
}

// State manages the blockchain database.
type State struct {
	mu sync.Mutex

	nodeID     string
	evHandler  EventHandler
	fetchChain ChainFetcher
	publisher  Publisher

	knownPeers *peer.PeerSet
	mempool    *mempool.Mempool
	db         *database.Database

	Worker Worker
}

// New constructs a new blockchain for data management. The chain starts with
// a freshly created genesis block unless the storage already holds blocks.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	nodeID := cfg.NodeID
	if nodeID == "" {
		nodeID = NewNodeID()
	}

	strg := cfg.Storage
	if strg == nil {
		strg = memory.New()
	}

	knownPeers := cfg.KnownPeers
	if knownPeers == nil {
		knownPeers = peer.NewPeerSet()
	}

	// Access the storage for the blockchain.
	db, err := database.New(strg, genesis.Block(time.Now()), ev)
	if err != nil {
		return nil, err
	}

	// Create the State to provide support for managing the blockchain.
	state := State{
		nodeID:     nodeID,
		evHandler:  ev,
		fetchChain: cfg.FetchChain,
		publisher:  cfg.Publisher,

		knownPeers: knownPeers,
		mempool:    mempool.New(),
		db:         db,
	}

	if state.fetchChain == nil {
		state.fetchChain = state.NetRequestPeerChain
	}

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Stop all blockchain writing activity.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	return s.db.Close()
}

// NewNodeID generates an identity for a node: a random uuid without dashes.
func NewNodeID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// =============================================================================

// publishBlock announces a newly mined block. Failures are reported
// through the event handler only.
func (s *State) publishBlock(block database.Block) {
	if s.publisher == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := s.publisher.PublishBlock(ctx, block); err != nil {
		s.evHandler("state: publishBlock: WARNING: %s", err)
	}
}

// publishChain announces a chain adopted from a peer. Failures are reported
// through the event handler only.
func (s *State) publishChain(blocks []database.Block) {
	if s.publisher == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := s.publisher.PublishChain(ctx, blocks); err != nil {
		s.evHandler("state: publishChain: WARNING: %s", err)
	}
}
