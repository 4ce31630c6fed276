// Package worker implements the listener and mining goroutines that keep a
// node running.
package worker

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ardanlabs/agentchain/foundation/blockchain/state"
)

// Config represents the settings for the background operations.
type Config struct {

	// MiningInterval is the cadence of the mining loop. Zero disables the
	// loop so blocks are only mined on request.
	MiningInterval time.Duration
}

// Worker manages the listener and mining workflows for a node.
type Worker struct {
	state          *state.State
	listener       net.Listener
	miningInterval time.Duration
	wg             sync.WaitGroup
	shut           chan struct{}
	shutOnce       sync.Once
	ctx            context.Context
	cancel         context.CancelFunc
	listening      atomic.Bool
	mining         atomic.Bool
	evHandler      state.EventHandler
}

// Run creates a worker and starts up all the background processes. The
// listener is accepting connections before the node asks its peers for
// their chains.
func Run(st *state.State, listener net.Listener, cfg Config, evHandler state.EventHandler) *Worker {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())

	w := Worker{
		state:          st,
		listener:       listener,
		miningInterval: cfg.MiningInterval,
		shut:           make(chan struct{}),
		ctx:            ctx,
		cancel:         cancel,
		evHandler:      ev,
	}

	w.listening.Store(true)
	w.start(w.listenOperations)

	// Update this node before mining on top of the genesis block.
	w.Sync()

	if w.miningInterval > 0 {
		w.mining.Store(true)
		w.start(w.miningOperations)
	}

	return &w
}

// Shutdown stops the listener and the mining loop and waits for both
// goroutines to terminate. Connections already being handled complete on
// their own.
func (w *Worker) Shutdown() {
	w.shutOnce.Do(func() {
		w.evHandler("worker: shutdown: started")
		defer w.evHandler("worker: shutdown: completed")

		w.evHandler("worker: shutdown: cancel mining")
		w.cancel()

		w.evHandler("worker: shutdown: terminate goroutines")
		close(w.shut)
		w.listener.Close()
		w.wg.Wait()
	})
}

// Listening reports whether the listener is accepting connections.
func (w *Worker) Listening() bool {
	return w.listening.Load()
}

// Mining reports whether the mining loop is running.
func (w *Worker) Mining() bool {
	return w.mining.Load()
}

// =============================================================================

// start runs the operation on its own goroutine and does not return until
// the goroutine is running.
func (w *Worker) start(op func()) {
	w.wg.Add(1)

	hasStarted := make(chan bool)

	go func() {
		defer w.wg.Done()
		hasStarted <- true
		op()
	}()

	<-hasStarted
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
