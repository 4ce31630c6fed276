package peer_test

import (
	"testing"

	"github.com/ardanlabs/agentchain/foundation/blockchain/peer"
)

func Test_CRUD(t *testing.T) {
	type table struct {
		name  string
		peers []peer.Peer
	}

	tt := []table{
		{
			name: "basic",
			peers: []peer.Peer{
				peer.New("id1", "node1", "localhost", 9001),
				peer.New("id2", "node2", "localhost", 9002),
				peer.New("id3", "node3", "localhost", 9003),
			},
		},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			ps := peer.NewPeerSet()

			for _, peer := range tst.peers {
				ps.Add(peer)
			}

			if ps.Add(tst.peers[0]) {
				t.Fatalf("Test %s:\tShould not add the same peer twice.", tst.name)
			}

			peers := ps.Copy("")
			if len(peers) != len(tst.peers) {
				t.Logf("Test %s:\tgot: %d", tst.name, len(peers))
				t.Logf("Test %s:\texp: %d", tst.name, len(tst.peers))
				t.Fatalf("Test %s:\tShould get back the right peers.", tst.name)
			}

			peers = ps.Copy("id2")
			if len(peers) != len(tst.peers)-1 {
				t.Logf("Test %s:\tgot: %d", tst.name, len(peers))
				t.Logf("Test %s:\texp: %d", tst.name, len(tst.peers)-1)
				t.Fatalf("Test %s:\tShould get back the right peers.", tst.name)
			}

			for _, p := range peers {
				if p.Match("id2") {
					t.Fatalf("Test %s:\tShould exclude the requested peer.", tst.name)
				}
			}

			ps.Remove("id1")
			if ps.Len() != len(tst.peers)-1 {
				t.Fatalf("Test %s:\tShould be able to remove a peer.", tst.name)
			}

			if host := tst.peers[2].Host(); host != "localhost:9003" {
				t.Logf("Test %s:\tgot: %s", tst.name, host)
				t.Logf("Test %s:\texp: %s", tst.name, "localhost:9003")
				t.Fatalf("Test %s:\tShould get back the right host.", tst.name)
			}
		}

		t.Run(tst.name, f)
	}
}
