package worker

import (
	"errors"
	"time"

	"github.com/ardanlabs/agentchain/foundation/blockchain/database"
	"github.com/ardanlabs/agentchain/foundation/blockchain/state"
)

// miningOperations attempts to extend the chain on every tick. A panic
// terminates the loop for good while the node keeps serving peers.
func (w *Worker) miningOperations() {
	w.evHandler("worker: miningOperations: G started: interval[%v]", w.miningInterval)
	defer w.evHandler("worker: miningOperations: G completed")

	defer w.mining.Store(false)

	defer func() {
		if r := recover(); r != nil {
			w.evHandler("worker: miningOperations: FATAL: mining stopped: %v", r)
		}
	}()

	ticker := time.NewTicker(w.miningInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !w.isShutdown() {
				w.runMiningOperation()
			}
		case <-w.shut:
			w.evHandler("worker: miningOperations: received shut signal")
			return
		}
	}
}

// runMiningOperation mines one block and shares it with the known peers when
// it was appended to the local chain.
func (w *Worker) runMiningOperation() {
	w.evHandler("worker: runMiningOperation: MINING: started")
	defer w.evHandler("worker: runMiningOperation: MINING: completed")

	t := time.Now()
	block, err := w.state.MineNewBlock(w.ctx)
	duration := time.Since(t)

	w.evHandler("worker: runMiningOperation: MINING: mining duration[%v]", duration)

	if err != nil {
		switch {
		case w.ctx.Err() != nil:
			w.evHandler("worker: runMiningOperation: MINING: CANCEL: complete")
		case errors.Is(err, state.ErrInvalidBlock):
			w.evHandler("worker: runMiningOperation: MINING: block lost to a peer block")
		case errors.Is(err, database.ErrEmptyChain):
			w.evHandler("worker: runMiningOperation: MINING: WARNING: no latest block")
		default:
			w.evHandler("worker: runMiningOperation: MINING: ERROR: %s", err)
		}
		return
	}

	w.state.NetSendBlockToPeers(block)
}
