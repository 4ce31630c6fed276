package wire_test

import (
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/ardanlabs/agentchain/foundation/blockchain/database"
	"github.com/ardanlabs/agentchain/foundation/blockchain/digest"
	"github.com/ardanlabs/agentchain/foundation/blockchain/wire"
)

func Test_Exchange(t *testing.T) {
	client, server := net.Pipe()

	cc := wire.NewConn(client, time.Second)
	sc := wire.NewConn(server, time.Second)

	genesis := database.Genesis(digest.Default())

	sent := []wire.Message{
		{Sender: 9001, Type: wire.TypeReady},
		{Sender: 9002, Receiver: 9001, Type: wire.TypeInfoNewBlock, Blocks: []database.Block{genesis}},
	}

	go func() {
		for _, msg := range sent {
			if err := cc.Send(msg); err != nil {
				t.Errorf("Should be able to send a message: %s", err)
				return
			}
		}
		cc.Close()
	}()

	for _, exp := range sent {
		got, err := sc.Receive()
		if err != nil {
			t.Fatalf("Should be able to receive a message: %s", err)
		}

		if got.Type != exp.Type || got.Sender != exp.Sender || got.Receiver != exp.Receiver || len(got.Blocks) != len(exp.Blocks) {
			t.Logf("got: %s", got)
			t.Logf("exp: %s", exp)
			t.Fatalf("Should get back the message that was sent.")
		}
	}

	if _, err := sc.Receive(); !errors.Is(err, io.EOF) {
		t.Logf("got: %v", err)
		t.Logf("exp: %v", io.EOF)
		t.Fatalf("Should get end of stream once the sender closes.")
	}
}
