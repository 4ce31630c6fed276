package worker

// Sync asks the known peers for their chains so a node holding only the
// genesis block can catch up.
func (w *Worker) Sync() {
	w.evHandler("worker: sync: started")
	defer w.evHandler("worker: sync: completed: size[%d]", w.state.RetrieveChainSize())

	w.state.NetRequestPeerBlocks()
}
