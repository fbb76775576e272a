package worker

import (
	"context"
	"time"
)

// consensusTimeout bounds a single consensus operation.
const consensusTimeout = time.Minute

// consensusOperations handles resolving conflicts with the known peers on
// a timer and when signaled.
func (w *Worker) consensusOperations() {
	w.evHandler("worker: consensusOperations: G started")
	defer w.evHandler("worker: consensusOperations: G completed")

	var tick <-chan time.Time
	if w.ticker != nil {
		tick = w.ticker.C
	}

	for {
		select {
		case <-tick:
			if !w.isShutdown() {
				w.runConsensusOperation()
			}
		case <-w.startConsensus:
			if !w.isShutdown() {
				w.runConsensusOperation()
			}
		case <-w.shut:
			w.evHandler("worker: consensusOperations: received shut signal")
			return
		}
	}
}

// runConsensusOperation asks the state to reconcile with the known peers.
func (w *Worker) runConsensusOperation() {
	w.evHandler("worker: runConsensusOperation: started")
	defer w.evHandler("worker: runConsensusOperation: completed")

	if w.state.RetrieveKnownPeerCount() == 0 {
		w.evHandler("worker: runConsensusOperation: no known peers")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), consensusTimeout)
	defer cancel()

	// Abandon outstanding peer requests on shutdown.
	go func() {
		select {
		case <-w.shut:
			cancel()
		case <-ctx.Done():
		}
	}()

	replaced, err := w.state.Consensus(ctx)
	if err != nil {
		w.evHandler("worker: runConsensusOperation: ERROR: %s", err)
		return
	}

	w.evHandler("worker: runConsensusOperation: replaced[%v]", replaced)
}
