package worker

import (
	"time"

	"github.com/ardanlabs/pownode/foundation/blockchain/state"
)

// miningOperations handles mining. Requests are served one at a time in the
// order they were queued.
func (w *Worker) miningOperations() {
	w.evHandler("worker: miningOperations: G started")
	defer w.evHandler("worker: miningOperations: G completed")

	for {
		select {
		case result := <-w.startMining:
			if w.isShutdown() {
				result <- state.MiningResult{Err: ErrShutdown}
				continue
			}
			result <- w.runMiningOperation()

		case <-w.shut:
			w.evHandler("worker: miningOperations: received shut signal")
			return
		}
	}
}

// runMiningOperation takes all the transactions from the mempool and writes a
// new block to the database.
func (w *Worker) runMiningOperation() state.MiningResult {
	w.evHandler("worker: runMiningOperation: MINING: started")
	defer w.evHandler("worker: runMiningOperation: MINING: completed")

	t := time.Now()
	block, err := w.state.MineNewBlock()
	duration := time.Since(t)

	w.evHandler("worker: runMiningOperation: MINING: mining duration[%v]", duration)

	if err != nil {
		w.evHandler("worker: runMiningOperation: MINING: ERROR: %s", err)
		return state.MiningResult{Err: err}
	}

	return state.MiningResult{Block: block}
}
