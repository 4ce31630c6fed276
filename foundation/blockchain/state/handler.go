package state

import (
	"errors"
	"io"
	"net"

	"github.com/ardanlabs/agentchain/foundation/blockchain/wire"
)

// HandleConn runs the inbound side of an exchange with a peer. The node
// announces READY, reads one message and answers it before closing the
// connection.
func (s *State) HandleConn(conn net.Conn) {
	wc := wire.NewConn(conn, s.ioTimeout)
	defer wc.Close()

	remote := wc.RemoteAddr()

	if err := wc.Send(wire.Message{Sender: s.port, Type: wire.TypeReady}); err != nil {
		s.evHandler("state: HandleConn: %d: send ready to %s: ERROR: %s", s.port, remote, err)
		return
	}

	msg, err := wc.Receive()
	if err != nil {
		if !errors.Is(err, io.EOF) {
			s.evHandler("state: HandleConn: %d: receive from %s: ERROR: %s", s.port, remote, err)
		}
		return
	}

	s.evHandler("state: HandleConn: %d received: %s", s.port, msg)

	switch msg.Type {
	case wire.TypeInfoNewBlock:
		if len(msg.Blocks) != 1 {
			s.evHandler("state: HandleConn: %d: WARNING: invalid block received: %v", s.port, msg.Blocks)
		}
		if len(msg.Blocks) == 0 {
			return
		}

		if err := s.ProcessProposedBlock(msg.Blocks[0]); err != nil {
			s.evHandler("state: HandleConn: %d: block dropped: %s", s.port, err)
		}

	case wire.TypeReqAllBlocks:
		blocks, err := s.chain.Snapshot()
		if err != nil {
			s.evHandler("state: HandleConn: %d: snapshot for %s: ERROR: %s", s.port, remote, err)
			return
		}

		rsp := wire.Message{
			Sender:   s.port,
			Receiver: msg.Sender,
			Type:     wire.TypeRspAllBlocks,
			Blocks:   blocks,
		}
		if err := wc.Send(rsp); err != nil {
			s.evHandler("state: HandleConn: %d: send blocks to %s: ERROR: %s", s.port, remote, err)
		}

	default:
		s.evHandler("state: HandleConn: %d: closing on message type %s", s.port, msg.Type)
	}
}
