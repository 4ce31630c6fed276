package worker_test

import (
	"net"
	"strings"
	"testing"
	"time"

	"github.com/ardanlabs/agentchain/foundation/blockchain/database"
	"github.com/ardanlabs/agentchain/foundation/blockchain/digest"
	"github.com/ardanlabs/agentchain/foundation/blockchain/peer"
	"github.com/ardanlabs/agentchain/foundation/blockchain/state"
	"github.com/ardanlabs/agentchain/foundation/blockchain/wire"
	"github.com/ardanlabs/agentchain/foundation/blockchain/worker"
)

func Test_MiningLoop(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Should be able to listen: %s", err)
	}

	st := state.New(state.Config{
		ID:         "node1",
		Name:       "node1",
		Address:    "127.0.0.1",
		Port:       ln.Addr().(*net.TCPAddr).Port,
		Genesis:    database.Genesis(digest.Default()),
		Difficulty: 4,
		Hasher:     digest.Default(),
		KnownPeers: peer.NewPeerSet(),
	})

	w := worker.Run(st, ln, worker.Config{MiningInterval: 10 * time.Millisecond}, nil)

	if !w.Listening() || !w.Mining() {
		t.Fatalf("Should be listening and mining after Run.")
	}

	deadline := time.Now().Add(5 * time.Second)
	for st.RetrieveChainSize() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("Should mine blocks on the interval, size %d.", st.RetrieveChainSize())
		}
		time.Sleep(10 * time.Millisecond)
	}

	w.Shutdown()
	w.Shutdown()

	if w.Listening() || w.Mining() {
		t.Fatalf("Should stop listening and mining after Shutdown.")
	}

	if _, err := net.DialTimeout("tcp", ln.Addr().String(), time.Second); err == nil {
		t.Fatalf("Should not accept connections after Shutdown.")
	}
}

func Test_MiningDisabled(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Should be able to listen: %s", err)
	}

	st := state.New(state.Config{
		ID:         "node1",
		Name:       "node1",
		Address:    "127.0.0.1",
		Port:       ln.Addr().(*net.TCPAddr).Port,
		Genesis:    database.Genesis(digest.Default()),
		Difficulty: 4,
		Hasher:     digest.Default(),
	})

	w := worker.Run(st, ln, worker.Config{}, nil)
	defer w.Shutdown()

	if w.Mining() {
		t.Fatalf("Should not start the mining loop with a zero interval.")
	}

	time.Sleep(50 * time.Millisecond)

	if st.RetrieveChainSize() != 1 {
		t.Fatalf("Should hold only the genesis block, size %d.", st.RetrieveChainSize())
	}
}

func Test_MiningPanic(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Should be able to listen: %s", err)
	}

	st := state.New(state.Config{
		ID:         "node1",
		Name:       "node1",
		Address:    "127.0.0.1",
		Port:       ln.Addr().(*net.TCPAddr).Port,
		Genesis:    database.Genesis(digest.Default()),
		Difficulty: 4,
		Hasher:     digest.Default(),
	})

	// The first event of a mining cycle blows up the loop.
	ev := func(v string, args ...any) {
		if strings.HasPrefix(v, "worker: runMiningOperation") {
			panic("mining failure")
		}
	}

	w := worker.Run(st, ln, worker.Config{MiningInterval: 10 * time.Millisecond}, ev)
	defer w.Shutdown()

	deadline := time.Now().Add(5 * time.Second)
	for w.Mining() {
		if time.Now().After(deadline) {
			t.Fatalf("Should stop the mining loop after a panic.")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if !w.Listening() {
		t.Fatalf("Should keep listening after the mining loop stops.")
	}

	conn, err := net.DialTimeout("tcp", ln.Addr().String(), time.Second)
	if err != nil {
		t.Fatalf("Should accept connections after the mining loop stops: %s", err)
	}

	wc := wire.NewConn(conn, time.Second)
	defer wc.Close()

	msg, err := wc.Receive()
	if err != nil {
		t.Fatalf("Should receive from the node: %s", err)
	}

	if msg.Type != wire.TypeReady || msg.Sender != st.RetrievePort() {
		t.Logf("got: %s", msg)
		t.Logf("exp: %s from %d", wire.TypeReady, st.RetrievePort())
		t.Fatalf("Should get READY from the node.")
	}

	if st.RetrieveChainSize() != 1 {
		t.Logf("got: %d", st.RetrieveChainSize())
		t.Logf("exp: %d", 1)
		t.Fatalf("Should not extend the chain once the loop stopped.")
	}
}
