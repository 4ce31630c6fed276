package state

import (
	"github.com/ardanlabs/agentchain/foundation/blockchain/database"
	"github.com/ardanlabs/agentchain/foundation/blockchain/peer"
)

// RetrieveID returns the unique id of the node.
func (s *State) RetrieveID() string {
	return s.id
}

// RetrieveName returns the human name of the node.
func (s *State) RetrieveName() string {
	return s.name
}

// RetrieveAddress returns the address the node can be reached on.
func (s *State) RetrieveAddress() string {
	return s.address
}

// RetrievePort returns the port the node listens on.
func (s *State) RetrievePort() int {
	return s.port
}

// RetrievePeer returns the peer value other nodes use to reach this node.
func (s *State) RetrievePeer() peer.Peer {
	return peer.New(s.id, s.name, s.address, s.port)
}

// RetrieveLatestBlock returns a copy the current latest block.
func (s *State) RetrieveLatestBlock() (database.Block, error) {
	return s.chain.Latest()
}

// RetrieveBlocks returns a copy of the full chain in order.
func (s *State) RetrieveBlocks() ([]database.Block, error) {
	return s.chain.Snapshot()
}

// RetrieveChainSize returns the number of blocks in the chain.
func (s *State) RetrieveChainSize() int {
	return s.chain.Size()
}

// RetrieveKnownPeers retrieves a copy of the known peer list without this node.
func (s *State) RetrieveKnownPeers() []peer.Peer {
	return s.knownPeers.Copy(s.id)
}
