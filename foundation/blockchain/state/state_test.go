package state_test

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/ardanlabs/agentchain/foundation/blockchain/database"
	"github.com/ardanlabs/agentchain/foundation/blockchain/digest"
	"github.com/ardanlabs/agentchain/foundation/blockchain/peer"
	"github.com/ardanlabs/agentchain/foundation/blockchain/state"
	"github.com/ardanlabs/agentchain/foundation/blockchain/wire"
)

const difficulty = 4

func ifErrFailNow(t *testing.T, err error) {
	if err != nil {
		t.Error(err)
		t.FailNow()
	}
}

func newState(t *testing.T, name string, genesis database.Block) *state.State {
	return state.New(state.Config{
		ID:         name,
		Name:       name,
		Address:    "127.0.0.1",
		Port:       9000,
		Genesis:    genesis,
		Difficulty: difficulty,
		Hasher:     digest.Default(),
		KnownPeers: peer.NewPeerSet(),
		EvHandler:  func(v string, args ...any) { t.Logf(v, args...) },
	})
}

// connPair returns both ends of a loopback TCP connection.
func connPair(t *testing.T) (net.Conn, net.Conn) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	ifErrFailNow(t, err)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			close(accepted)
			return
		}
		accepted <- conn
	}()

	client, err := net.Dial("tcp", ln.Addr().String())
	ifErrFailNow(t, err)

	server, ok := <-accepted
	if !ok {
		client.Close()
		t.Fatalf("Should be able to accept the connection.")
	}

	return client, server
}

// startNode binds a loopback port, constructs the state for it, serves
// inbound connections and adds the node to the peer set.
func startNode(t *testing.T, name string, genesis database.Block, peers *peer.PeerSet) *state.State {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	ifErrFailNow(t, err)
	t.Cleanup(func() { ln.Close() })

	st := state.New(state.Config{
		ID:           name,
		Name:         name,
		Address:      "127.0.0.1",
		Port:         ln.Addr().(*net.TCPAddr).Port,
		Genesis:      genesis,
		Difficulty:   difficulty,
		Hasher:       digest.Default(),
		KnownPeers:   peers,
		DialTimeout:  time.Second,
		IOTimeout:    5 * time.Second,
		FailurePause: time.Millisecond,
		EvHandler:    func(v string, args ...any) { t.Logf(v, args...) },
	})

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go st.HandleConn(conn)
		}
	}()

	peers.Add(st.RetrievePeer())

	return st
}

func mine(t *testing.T, st *state.State, n int) {
	for i := 0; i < n; i++ {
		_, err := st.MineNewBlock(context.Background())
		ifErrFailNow(t, err)
	}
}

// =============================================================================

func Test_RejectInvalidBlock(t *testing.T) {
	genesis := database.Genesis(digest.Default())
	st := newState(t, "node1", genesis)

	for i := 0; i < 3; i++ {
		_, err := st.MineNewBlock(context.Background())
		ifErrFailNow(t, err)
	}

	latest, err := st.RetrieveLatestBlock()
	ifErrFailNow(t, err)

	type table struct {
		name  string
		block database.Block
	}

	tt := []table{
		{
			name:  "skip-index",
			block: database.Block{Index: latest.Index + 2, PreviousHash: latest.Hash, Hash: digest.Hash("skip")},
		},
		{
			name:  "wrong-previous-hash",
			block: database.Block{Index: latest.Index + 1, PreviousHash: genesis.Hash, Hash: digest.Hash("wrong")},
		},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			size := st.RetrieveChainSize()

			err := st.ProcessProposedBlock(tst.block)
			if !errors.Is(err, state.ErrInvalidBlock) {
				t.Logf("got: %v", err)
				t.Logf("exp: %v", state.ErrInvalidBlock)
				t.Fatalf("Should reject the block.")
			}

			if st.RetrieveChainSize() != size {
				t.Logf("got: %d", st.RetrieveChainSize())
				t.Logf("exp: %d", size)
				t.Fatalf("Should leave the chain length unchanged.")
			}
		}

		t.Run(tst.name, f)
	}
}

func Test_ConcurrentExtend(t *testing.T) {
	genesis := database.Genesis(digest.Default())
	local := newState(t, "local", genesis)
	remote := newState(t, "remote", genesis)

	const rounds = 20

	// Blocks mined by the remote node are proposed to the local node while
	// the local node mines its own.
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			block, err := remote.MineNewBlock(context.Background())
			if err != nil {
				continue
			}
			local.ProcessProposedBlock(block)
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			local.MineNewBlock(context.Background())
		}
	}()

	wg.Wait()

	blocks, err := local.RetrieveBlocks()
	ifErrFailNow(t, err)

	seen := make(map[uint64]bool)
	for i, block := range blocks {
		if seen[block.Index] {
			t.Fatalf("Should not hold two blocks with index %d.", block.Index)
		}
		seen[block.Index] = true

		if i > 0 {
			if err := block.ValidateNext(blocks[i-1]); err != nil {
				t.Fatalf("Should hold a valid chain: %s", err)
			}
		}
	}
}

func Test_HandleConn(t *testing.T) {
	genesis := database.Genesis(digest.Default())

	type table struct {
		name    string
		msg     wire.Message
		expType wire.Type
		expSize int
	}

	tt := []table{
		{
			name:    "request-all-blocks",
			msg:     wire.Message{Sender: 9001, Type: wire.TypeReqAllBlocks},
			expType: wire.TypeRspAllBlocks,
			expSize: 1,
		},
		{
			name:    "new-block-empty",
			msg:     wire.Message{Sender: 9001, Type: wire.TypeInfoNewBlock},
			expSize: 1,
		},
		{
			name:    "unknown-type",
			msg:     wire.Message{Sender: 9001, Type: wire.TypeNewNode},
			expSize: 1,
		},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			st := newState(t, "node1", genesis)

			client, server := connPair(t)
			go st.HandleConn(server)

			wc := wire.NewConn(client, time.Second)
			defer wc.Close()

			ready, err := wc.Receive()
			ifErrFailNow(t, err)

			if ready.Type != wire.TypeReady || ready.Sender != st.RetrievePort() {
				t.Logf("got: %s", ready)
				t.Fatalf("Should receive READY with the node port first.")
			}

			ifErrFailNow(t, wc.Send(tst.msg))

			rsp, err := wc.Receive()
			if tst.expType == "" {
				if err == nil {
					t.Fatalf("Should get the connection closed, got %s.", rsp)
				}
			} else {
				ifErrFailNow(t, err)
				if rsp.Type != tst.expType || len(rsp.Blocks) != st.RetrieveChainSize() {
					t.Logf("got: %s", rsp)
					t.Logf("exp: %s", tst.expType)
					t.Fatalf("Should get back the right response.")
				}
			}

			if st.RetrieveChainSize() != tst.expSize {
				t.Logf("got: %d", st.RetrieveChainSize())
				t.Logf("exp: %d", tst.expSize)
				t.Fatalf("Should get back the right chain size.")
			}
		}

		t.Run(tst.name, f)
	}
}

func Test_HandleConnMultipleBlocks(t *testing.T) {
	genesis := database.Genesis(digest.Default())
	st := newState(t, "node1", genesis)
	other := newState(t, "node2", genesis)

	b1, err := other.MineNewBlock(context.Background())
	ifErrFailNow(t, err)
	b2, err := other.MineNewBlock(context.Background())
	ifErrFailNow(t, err)

	client, server := connPair(t)
	done := make(chan struct{})
	go func() {
		st.HandleConn(server)
		close(done)
	}()

	wc := wire.NewConn(client, time.Second)
	defer wc.Close()

	_, err = wc.Receive()
	ifErrFailNow(t, err)

	// Only the first block is used when more than one is attached.
	ifErrFailNow(t, wc.Send(wire.Message{Sender: 9001, Type: wire.TypeInfoNewBlock, Blocks: []database.Block{b1, b2}}))
	<-done

	latest, err := st.RetrieveLatestBlock()
	ifErrFailNow(t, err)

	if st.RetrieveChainSize() != 2 || latest.Hash != b1.Hash {
		t.Logf("got: size[%d] tip[%s]", st.RetrieveChainSize(), latest.Hash)
		t.Logf("exp: size[2] tip[%s]", b1.Hash)
		t.Fatalf("Should append only the first attached block.")
	}
}

func Test_BootstrapGate(t *testing.T) {
	genesis := database.Genesis(digest.Default())
	peers := peer.NewPeerSet()

	source := startNode(t, "source", genesis, peers)
	mine(t, source, 3)

	type table struct {
		name        string
		localBlocks int
		expSize     int
	}

	tt := []table{
		{name: "genesis-only", localBlocks: 0, expSize: 4},
		{name: "already-extended", localBlocks: 1, expSize: 2},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			st := startNode(t, tst.name, genesis, peers)
			defer peers.Remove(st.RetrieveID())

			mine(t, st, tst.localBlocks)
			st.NetRequestPeerBlocks()

			if st.RetrieveChainSize() != tst.expSize {
				t.Logf("got: %d", st.RetrieveChainSize())
				t.Logf("exp: %d", tst.expSize)
				t.Fatalf("Should merge a peer chain only while holding the genesis block alone.")
			}
		}

		t.Run(tst.name, f)
	}
}

func Test_BroadcastDeadPeer(t *testing.T) {
	genesis := database.Genesis(digest.Default())
	peers := peer.NewPeerSet()

	// Nothing listens on port 1 so every exchange with this peer fails.
	peers.Add(peer.New("dead", "dead", "127.0.0.1", 1))

	source := startNode(t, "source", genesis, peers)
	mine(t, source, 3)

	joiner := startNode(t, "joiner", genesis, peers)
	joiner.NetRequestPeerBlocks()

	if joiner.RetrieveChainSize() != 4 {
		t.Logf("got: %d", joiner.RetrieveChainSize())
		t.Logf("exp: %d", 4)
		t.Fatalf("Should bootstrap from the live peer.")
	}

	block, err := source.MineNewBlock(context.Background())
	ifErrFailNow(t, err)

	source.NetSendBlockToPeers(block)

	latest, err := joiner.RetrieveLatestBlock()
	ifErrFailNow(t, err)

	if latest.Hash != block.Hash {
		t.Logf("got: %s", latest.Hash)
		t.Logf("exp: %s", block.Hash)
		t.Fatalf("Should deliver the block to the live peer.")
	}
}
