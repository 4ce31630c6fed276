// Package peer maintains the peer related information such as the set
// of known peers.
package peer

import (
	"net"
	"sort"
	"strconv"
	"sync"
)

// Peer represents information about a node in the network.
type Peer struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Port    int    `json:"port"`
}

// New contructs a new peer value.
func New(id string, name string, address string, port int) Peer {
	return Peer{
		ID:      id,
		Name:    name,
		Address: address,
		Port:    port,
	}
}

// Host returns the address:port used to dial the peer.
func (p Peer) Host() string {
	return net.JoinHostPort(p.Address, strconv.Itoa(p.Port))
}

// Match validates if the specified id matches this peer.
func (p Peer) Match(id string) bool {
	return p.ID == id
}

// String implements the fmt.Stringer interface for logging.
func (p Peer) String() string {
	return p.Name + "@" + p.Host()
}

// =============================================================================

// View represents read only access to a set of known peers.
type View interface {
	Copy(id string) []Peer
}

// PeerSet represents the data representation to maintain a set of known peers.
type PeerSet struct {
	mu  sync.RWMutex
	set map[string]Peer
}

// NewPeerSet constructs a new info set to manage node peer information.
func NewPeerSet() *PeerSet {
	return &PeerSet{
		set: make(map[string]Peer),
	}
}

// Add adds a new peer to the set.
func (ps *PeerSet) Add(peer Peer) bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	_, exists := ps.set[peer.ID]
	if !exists {
		ps.set[peer.ID] = peer
		return true
	}

	return false
}

// Remove removes a peer from the set.
func (ps *PeerSet) Remove(id string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	delete(ps.set, id)
}

// Len returns the number of peers in the set.
func (ps *PeerSet) Len() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	return len(ps.set)
}

// Copy returns a list of the known peers excluding the peer with the
// specified id, ordered by port.
func (ps *PeerSet) Copy(id string) []Peer {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	var peers []Peer
	for _, peer := range ps.set {
		if !peer.Match(id) {
			peers = append(peers, peer)
		}
	}

	sort.Slice(peers, func(i, j int) bool { return peers[i].Port < peers[j].Port })

	return peers
}
