package worker

import (
	"errors"
	"net"
	"time"

	"github.com/jpillora/backoff"
)

// listenOperations accepts inbound connections and hands each one to its
// own goroutine.
func (w *Worker) listenOperations() {
	w.evHandler("worker: listenOperations: G started: %s", w.listener.Addr())
	defer w.evHandler("worker: listenOperations: G completed")

	defer w.listening.Store(false)

	bo := backoff.Backoff{
		Min:    5 * time.Millisecond,
		Max:    time.Second,
		Factor: 2,
	}

	for {
		conn, err := w.listener.Accept()
		if err != nil {
			if w.isShutdown() || errors.Is(err, net.ErrClosed) {
				w.evHandler("worker: listenOperations: listener closed")
				return
			}

			d := bo.Duration()
			w.evHandler("worker: listenOperations: accept: ERROR: %s: retry in %v", err, d)

			select {
			case <-time.After(d):
			case <-w.shut:
				return
			}
			continue
		}

		bo.Reset()

		go w.state.HandleConn(conn)
	}
}
