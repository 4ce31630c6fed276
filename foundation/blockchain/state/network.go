package state

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/ardanlabs/agentchain/foundation/blockchain/database"
	"github.com/ardanlabs/agentchain/foundation/blockchain/peer"
	"github.com/ardanlabs/agentchain/foundation/blockchain/wire"
)

// NetSendBlockToPeers takes the new mined block and sends it to all known peers.
func (s *State) NetSendBlockToPeers(block database.Block) {
	s.evHandler("state: NetSendBlockToPeers: started: blk[%d]", block.Index)
	defer s.evHandler("state: NetSendBlockToPeers: completed: blk[%d]", block.Index)

	s.broadcast(wire.TypeInfoNewBlock, []database.Block{block})
}

// NetRequestPeerBlocks asks every known peer for its full chain. The first
// response received while this chain holds only the genesis block is merged.
func (s *State) NetRequestPeerBlocks() {
	s.evHandler("state: NetRequestPeerBlocks: started")
	defer s.evHandler("state: NetRequestPeerBlocks: completed: size[%d]", s.chain.Size())

	s.broadcast(wire.TypeReqAllBlocks, nil)
}

// =============================================================================

// broadcast contacts every known peer on its own goroutine and waits for all
// of them to finish. A failure with one peer does not affect the others.
func (s *State) broadcast(msgType wire.Type, blocks []database.Block) {
	peers := s.RetrieveKnownPeers()

	var wg sync.WaitGroup
	wg.Add(len(peers))

	for _, pr := range peers {
		go func(pr peer.Peer) {
			defer wg.Done()

			err := s.sendMessage(pr, msgType, blocks)
			if err == nil {
				return
			}

			var dnsErr *net.DNSError
			if errors.As(err, &dnsErr) {
				s.evHandler("state: broadcast: %d: unknown host %s: ERROR: %s", s.port, pr.Host(), err)
				return
			}

			s.evHandler("state: broadcast: %d couldn't get I/O for the connection to %d: ERROR: %s", s.port, pr.Port, err)
			time.Sleep(s.failurePause)
		}(pr)
	}

	wg.Wait()
}

// sendMessage opens a connection to the peer and waits for the READY message
// before writing the payload. A RSP_ALL_BLOCKS response ends the exchange.
func (s *State) sendMessage(pr peer.Peer, msgType wire.Type, blocks []database.Block) error {
	if pr.Match(s.id) {
		return nil
	}

	dialer := net.Dialer{Timeout: s.dialTimeout}
	conn, err := dialer.Dial("tcp", pr.Host())
	if err != nil {
		return fmt.Errorf("dial %s: %w", pr, err)
	}

	wc := wire.NewConn(conn, s.ioTimeout)
	defer wc.Close()

	for {
		msg, err := wc.Receive()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("receive from %s: %w", pr, err)
		}

		s.evHandler("state: sendMessage: %d received: %s", s.port, msg)

		switch msg.Type {
		case wire.TypeReady:
			out := wire.Message{
				Sender:   s.port,
				Receiver: pr.Port,
				Type:     msgType,
				Blocks:   blocks,
			}
			if err := wc.Send(out); err != nil {
				return fmt.Errorf("send to %s: %w", pr, err)
			}

		case wire.TypeRspAllBlocks:
			if len(msg.Blocks) > 0 {
				added, merged := s.chain.MergeIf(1, msg.Blocks)
				if merged {
					s.evHandler("state: sendMessage: %d merged chain from %s: added[%d]", s.port, pr, added)
				}
			}
			return nil
		}
	}
}
