// Package wire defines the messages exchanged between nodes and the codec
// used to move them across a connection.
package wire

import (
	"fmt"
	"net"
	"time"

	"github.com/ardanlabs/agentchain/foundation/blockchain/database"
	"github.com/vmihailenco/msgpack/v5"
)

// Type identifies the purpose of a message.
type Type string

// Set of message types understood by a node.
const (
	TypeNewNode      Type = "NEW_NODE"
	TypeReady        Type = "READY"
	TypeInfoNewBlock Type = "INFO_NEW_BLOCK"
	TypeReqAllBlocks Type = "REQ_ALL_BLOCKS"
	TypeRspAllBlocks Type = "RSP_ALL_BLOCKS"
)

// Message is the envelope written for every step of an exchange.
type Message struct {
	Sender   int              `msgpack:"sender"`
	Receiver int              `msgpack:"receiver"`
	Type     Type             `msgpack:"type"`
	Blocks   []database.Block `msgpack:"blocks"`
}

// String implements the fmt.Stringer interface for logging.
func (m Message) String() string {
	return fmt.Sprintf("Message{type=%s, sender=%d, receiver=%d, blocks=%v}", m.Type, m.Sender, m.Receiver, m.Blocks)
}

// =============================================================================

// Conn frames messages over a network connection. Each message is a single
// msgpack object so no additional length prefix is written.
type Conn struct {
	conn    net.Conn
	enc     *msgpack.Encoder
	dec     *msgpack.Decoder
	timeout time.Duration
}

// NewConn wraps the connection. A timeout greater than zero is applied as a
// deadline to every read and write.
func NewConn(conn net.Conn, timeout time.Duration) *Conn {
	return &Conn{
		conn:    conn,
		enc:     msgpack.NewEncoder(conn),
		dec:     msgpack.NewDecoder(conn),
		timeout: timeout,
	}
}

// Send writes the message to the connection.
func (c *Conn) Send(msg Message) error {
	if c.timeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
			return fmt.Errorf("set write deadline: %w", err)
		}
	}

	if err := c.enc.Encode(msg); err != nil {
		return fmt.Errorf("encode %s: %w", msg.Type, err)
	}

	return nil
}

// Receive reads the next message from the connection. io.EOF is returned
// unwrapped when the remote side closed the connection.
func (c *Conn) Receive() (Message, error) {
	if c.timeout > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			return Message{}, fmt.Errorf("set read deadline: %w", err)
		}
	}

	var msg Message
	if err := c.dec.Decode(&msg); err != nil {
		return Message{}, err
	}

	return msg, nil
}

// RemoteAddr returns the address of the other side of the connection.
func (c *Conn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.conn.Close()
}
