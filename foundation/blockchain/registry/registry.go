// Package registry creates, tracks and destroys the nodes that share one
// genesis block.
package registry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/ardanlabs/agentchain/foundation/blockchain/database"
	"github.com/ardanlabs/agentchain/foundation/blockchain/digest"
	"github.com/ardanlabs/agentchain/foundation/blockchain/peer"
	"github.com/ardanlabs/agentchain/foundation/blockchain/state"
	"github.com/ardanlabs/agentchain/foundation/blockchain/worker"
	"github.com/google/uuid"
)

// Set of errors returned by the registry.
var (
	ErrNodeNotFound = errors.New("node not found")
	ErrNodeExists   = errors.New("node already exists")
)

// defaultAddress is the address peers use to reach a node.
const defaultAddress = "localhost"

// =============================================================================

// Config represents the settings shared by every node in the registry.
type Config struct {
	Address        string
	Difficulty     uint
	HashAlgorithm  string
	MiningInterval time.Duration
	DialTimeout    time.Duration
	IOTimeout      time.Duration
	FailurePause   time.Duration
	EvHandler      state.EventHandler
}

// Registry maintains the set of live nodes.
type Registry struct {
	cfg     Config
	hasher  digest.Hasher
	genesis database.Block
	peers   *peer.PeerSet
	ev      state.EventHandler

	mu    sync.RWMutex
	nodes []*Node
}

// New constructs a registry. The genesis block is built once here and given
// to every node the registry creates.
func New(cfg Config) (*Registry, error) {
	hasher, err := digest.New(cfg.HashAlgorithm)
	if err != nil {
		return nil, fmt.Errorf("constructing hasher: %w", err)
	}

	if cfg.Address == "" {
		cfg.Address = defaultAddress
	}

	if cfg.Difficulty > database.MaxDifficulty {
		return nil, fmt.Errorf("difficulty %d is above %d", cfg.Difficulty, database.MaxDifficulty)
	}

	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	r := Registry{
		cfg:     cfg,
		hasher:  hasher,
		genesis: database.Genesis(hasher),
		peers:   peer.NewPeerSet(),
		ev:      ev,
	}

	return &r, nil
}

// Genesis returns the genesis block shared by the nodes.
func (r *Registry) Genesis() database.Block {
	return r.genesis
}

// Create binds the port, starts the node's listener, bootstraps its chain
// from the current nodes, starts mining and registers the node.
func (r *Registry) Create(name string, port int) (*Node, error) {
	r.ev("registry: Create: started: name[%s]: port[%d]", name, port)
	defer r.ev("registry: Create: completed: name[%s]", name)

	if _, err := r.Lookup(name); err == nil {
		return nil, fmt.Errorf("%s: %w", name, ErrNodeExists)
	}

	ln, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(port)))
	if err != nil {
		return nil, fmt.Errorf("could not listen to port %d: %w", port, err)
	}

	st := state.New(state.Config{
		ID:           uuid.NewString(),
		Name:         name,
		Address:      r.cfg.Address,
		Port:         ln.Addr().(*net.TCPAddr).Port,
		Genesis:      r.genesis,
		Difficulty:   r.cfg.Difficulty,
		Hasher:       r.hasher,
		KnownPeers:   r.peers,
		DialTimeout:  r.cfg.DialTimeout,
		IOTimeout:    r.cfg.IOTimeout,
		FailurePause: r.cfg.FailurePause,
		EvHandler:    r.cfg.EvHandler,
	})

	w := worker.Run(st, ln, worker.Config{MiningInterval: r.cfg.MiningInterval}, r.cfg.EvHandler)

	node := Node{
		state:  st,
		worker: w,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, n := range r.nodes {
		if n.Name() == name {
			w.Shutdown()
			return nil, fmt.Errorf("%s: %w", name, ErrNodeExists)
		}
	}

	r.nodes = append(r.nodes, &node)
	r.peers.Add(st.RetrievePeer())

	return &node, nil
}

// Lookup returns the node with the specified name.
func (r *Registry) Lookup(name string) (*Node, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, n := range r.nodes {
		if n.Name() == name {
			return n, nil
		}
	}

	return nil, fmt.Errorf("%s: %w", name, ErrNodeNotFound)
}

// List returns the nodes in creation order.
func (r *Registry) List() []*Node {
	r.mu.RLock()
	defer r.mu.RUnlock()

	nodes := make([]*Node, len(r.nodes))
	copy(nodes, r.nodes)

	return nodes
}

// Destroy stops the named node and removes it from the registry.
func (r *Registry) Destroy(name string) error {
	r.ev("registry: Destroy: started: name[%s]", name)
	defer r.ev("registry: Destroy: completed: name[%s]", name)

	r.mu.Lock()

	idx := -1
	for i, n := range r.nodes {
		if n.Name() == name {
			idx = i
			break
		}
	}

	if idx == -1 {
		r.mu.Unlock()
		return fmt.Errorf("%s: %w", name, ErrNodeNotFound)
	}

	node := r.nodes[idx]
	r.nodes = append(r.nodes[:idx], r.nodes[idx+1:]...)
	r.peers.Remove(node.ID())

	r.mu.Unlock()

	node.worker.Shutdown()

	return nil
}

// DestroyAll stops every node before clearing the registry.
func (r *Registry) DestroyAll() {
	r.ev("registry: DestroyAll: started")
	defer r.ev("registry: DestroyAll: completed")

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, n := range r.nodes {
		n.worker.Shutdown()
		r.peers.Remove(n.ID())
	}

	r.nodes = nil
}

// MineOnce mines one block on the named node, independent of its mining
// loop, and shares the block with the node's peers.
func (r *Registry) MineOnce(ctx context.Context, name string) (database.Block, error) {
	node, err := r.Lookup(name)
	if err != nil {
		return database.Block{}, err
	}

	block, err := node.state.MineNewBlock(ctx)
	if err != nil {
		return database.Block{}, err
	}

	node.state.NetSendBlockToPeers(block)

	return block, nil
}
