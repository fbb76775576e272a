// Package worker implements the mining and consensus workflows for the
// blockchain.
package worker

import (
	"errors"
	"sync"
	"time"

	"github.com/ardanlabs/pownode/foundation/blockchain/state"
)

// maxMiningRequests represents the max number of pending mining requests
// that can be queued before new requests are rejected.
const maxMiningRequests = 100

// Set of errors delivered to callers waiting on a mining request.
var (
	ErrShutdown        = errors.New("worker is shutting down")
	ErrMiningQueueFull = errors.New("mining queue is full")
)

// =============================================================================

// Worker manages the POW workflows for the blockchain.
type Worker struct {
	state          *state.State
	wg             sync.WaitGroup
	ticker         *time.Ticker
	shut           chan struct{}
	startMining    chan chan state.MiningResult
	startConsensus chan bool
	evHandler      state.EventHandler

	mu     sync.Mutex
	closed bool
}

// Run creates a worker, registers the worker with the state package, and
// starts up all the background processes. A zero resolve interval turns off
// the periodic consensus, consensus still runs when signaled.
func Run(st *state.State, resolveInterval time.Duration, evHandler state.EventHandler) *Worker {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	w := Worker{
		state:          st,
		shut:           make(chan struct{}),
		startMining:    make(chan chan state.MiningResult, maxMiningRequests),
		startConsensus: make(chan bool, 1),
		evHandler:      ev,
	}

	if resolveInterval > 0 {
		w.ticker = time.NewTicker(resolveInterval)
	}

	// Register this worker with the state package.
	st.Worker = &w

	// Load the set of operations we need to run.
	operations := []func(){
		w.miningOperations,
		w.consensusOperations,
	}

	// Set waitgroup to match the number of G's we need for the set
	// of operations we have.
	g := len(operations)
	w.wg.Add(g)

	// We don't want to return until we know all the G's are up and running.
	hasStarted := make(chan bool)

	// Start all the operational G's.
	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	// Wait for the G's to report they are running.
	for i := 0; i < g; i++ {
		<-hasStarted
	}

	// Catch up with the network before taking requests.
	if st.RetrieveKnownPeerCount() > 0 {
		w.SignalConsensus()
	}

	return &w
}

// =============================================================================
// These methods implement the state.Worker interface.

// Shutdown terminates the goroutines performing work. A block being mined
// is finished and written before this call returns. Requests still queued
// receive ErrShutdown.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.mu.Unlock()

	if w.ticker != nil {
		w.evHandler("worker: shutdown: stop ticker")
		w.ticker.Stop()
	}

	w.evHandler("worker: shutdown: terminate goroutines")
	close(w.shut)
	w.wg.Wait()

	w.evHandler("worker: shutdown: reject pending mining requests")
	for {
		select {
		case result := <-w.startMining:
			result <- state.MiningResult{Err: ErrShutdown}
		default:
			return
		}
	}
}

// SignalStartMining queues a mining request. The returned channel receives
// exactly one result.
func (w *Worker) SignalStartMining() <-chan state.MiningResult {
	result := make(chan state.MiningResult, 1)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		result <- state.MiningResult{Err: ErrShutdown}
		return result
	}

	select {
	case w.startMining <- result:
		w.evHandler("worker: SignalStartMining: mining signaled")
	default:
		w.evHandler("worker: SignalStartMining: queue full, request rejected")
		result <- state.MiningResult{Err: ErrMiningQueueFull}
	}

	return result
}

// =============================================================================

// SignalConsensus starts a consensus operation. If there is already a signal
// pending in the channel, just return since a consensus operation will start.
func (w *Worker) SignalConsensus() {
	select {
	case w.startConsensus <- true:
		w.evHandler("worker: SignalConsensus: consensus signaled")
	default:
	}
}

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}
