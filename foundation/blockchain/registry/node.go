package registry

import (
	"github.com/ardanlabs/agentchain/foundation/blockchain/database"
	"github.com/ardanlabs/agentchain/foundation/blockchain/state"
	"github.com/ardanlabs/agentchain/foundation/blockchain/worker"
)

// Node is a handle to a running node.
type Node struct {
	state  *state.State
	worker *worker.Worker
}

// ID returns the unique id of the node.
func (n *Node) ID() string {
	return n.state.RetrieveID()
}

// Name returns the name of the node.
func (n *Node) Name() string {
	return n.state.RetrieveName()
}

// Address returns the address peers use to reach the node.
func (n *Node) Address() string {
	return n.state.RetrieveAddress()
}

// Port returns the port the node listens on.
func (n *Node) Port() int {
	return n.state.RetrievePort()
}

// Listening reports whether the node accepts connections.
func (n *Node) Listening() bool {
	return n.worker.Listening()
}

// Mining reports whether the node's mining loop is running.
func (n *Node) Mining() bool {
	return n.worker.Mining()
}

// ChainSnapshot returns a copy of the node's chain.
func (n *Node) ChainSnapshot() ([]database.Block, error) {
	return n.state.RetrieveBlocks()
}

// State returns the node's state.
func (n *Node) State() *state.State {
	return n.state
}
