// Package state is the core API for a node and implements the rules for
// extending its chain and exchanging blocks with peers.
package state

import (
	"time"

	"github.com/ardanlabs/agentchain/foundation/blockchain/database"
	"github.com/ardanlabs/agentchain/foundation/blockchain/digest"
	"github.com/ardanlabs/agentchain/foundation/blockchain/peer"
)

// Default network settings used when the configuration leaves them unset.
const (
	defaultDialTimeout  = 5 * time.Second
	defaultIOTimeout    = 30 * time.Second
	defaultFailurePause = 100 * time.Millisecond
)

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of blocks.
type EventHandler func(v string, args ...any)

// Config represents the configuration required to start a node.
type Config struct {
	ID           string
	Name         string
	Address      string
	Port         int
	Genesis      database.Block
	Difficulty   uint
	Hasher       digest.Hasher
	KnownPeers   peer.View
	DialTimeout  time.Duration
	IOTimeout    time.Duration
	FailurePause time.Duration
	EvHandler    EventHandler
}

// State manages the chain owned by a single node.
type State struct {
	id           string
	name         string
	address      string
	port         int
	difficulty   uint
	hasher       digest.Hasher
	dialTimeout  time.Duration
	ioTimeout    time.Duration
	failurePause time.Duration
	evHandler    EventHandler

	knownPeers peer.View
	chain      *database.Chain
}

// New constructs the state for a node. The chain starts with the
// configured genesis block.
func New(cfg Config) *State {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	knownPeers := cfg.KnownPeers
	if knownPeers == nil {
		knownPeers = peer.NewPeerSet()
	}

	state := State{
		id:           cfg.ID,
		name:         cfg.Name,
		address:      cfg.Address,
		port:         cfg.Port,
		difficulty:   cfg.Difficulty,
		hasher:       cfg.Hasher,
		dialTimeout:  orDefault(cfg.DialTimeout, defaultDialTimeout),
		ioTimeout:    orDefault(cfg.IOTimeout, defaultIOTimeout),
		failurePause: orDefault(cfg.FailurePause, defaultFailurePause),
		evHandler:    ev,

		knownPeers: knownPeers,
		chain:      database.NewChain(cfg.Genesis),
	}

	return &state
}

// =============================================================================

func orDefault(d time.Duration, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
