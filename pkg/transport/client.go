package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/virel-protocol/virel-go/pkg/log"
	"github.com/virel-protocol/virel-go/pkg/wire"
)

// ErrConnectionClosed indicates an operation on a closed connection.
var ErrConnectionClosed = errors.New("connection closed")

// ClientConfig configures a VIREL domain client.
type ClientConfig struct {
	// TLSConfig enables TLS when non-nil.
	TLSConfig *tls.Config

	// MaxMessageSize is the maximum message size (default: 64KB).
	MaxMessageSize uint32

	// ConnectTimeout is the connection timeout (default: 30s).
	ConnectTimeout time.Duration

	// KeepAlive configuration, used by ClientConn.StartKeepAlive.
	KeepAlive KeepAliveConfig

	// Logger for audit logging (optional).
	Logger log.Logger
}

// Client connects domain processes to a VIREL gate.
type Client struct {
	config ClientConfig
}

// NewClient creates a new client.
func NewClient(config ClientConfig) *Client {
	if config.MaxMessageSize == 0 {
		config.MaxMessageSize = DefaultMaxMessageSize
	}
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = 30 * time.Second
	}
	return &Client{config: config}
}

// Connect establishes a connection to the specified address.
func (c *Client) Connect(ctx context.Context, address string) (*ClientConn, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.ConnectTimeout)
		defer cancel()
	}

	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}

	if c.config.TLSConfig != nil {
		tlsConn := tls.Client(conn, c.config.TLSConfig)
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			conn.Close()
			return nil, fmt.Errorf("TLS handshake failed: %w", err)
		}
		conn = tlsConn
	}

	framer := NewFramerWithMaxSize(conn, c.config.MaxMessageSize)
	if c.config.Logger != nil {
		framer.SetLogger(c.config.Logger, conn.LocalAddr().String())
	}

	return &ClientConn{
		conn:    conn,
		framer:  framer,
		client:  c,
		closeCh: make(chan struct{}),
	}, nil
}

// ClientConn represents a connection from a domain client to the gate.
type ClientConn struct {
	conn    net.Conn
	framer  *Framer
	client  *Client
	closeCh chan struct{}

	closeOnce sync.Once
	readMu    sync.Mutex

	keepAlive *KeepAlive
	kaMu      sync.Mutex
}

// LocalAddr returns the local network address.
func (c *ClientConn) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// RemoteAddr returns the remote network address.
func (c *ClientConn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Send sends a message to the gate.
func (c *ClientConn) Send(data []byte) error {
	select {
	case <-c.closeCh:
		return ErrConnectionClosed
	default:
	}
	return c.framer.WriteFrame(data)
}

// Receive receives a message from the gate with timeout.
// A zero timeout blocks until a message arrives or the connection
// closes.
func (c *ClientConn) Receive(timeout time.Duration) ([]byte, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	select {
	case <-c.closeCh:
		return nil, ErrConnectionClosed
	default:
	}

	if timeout > 0 {
		c.conn.SetReadDeadline(time.Now().Add(timeout))
		defer c.conn.SetReadDeadline(time.Time{})
	}

	return c.framer.ReadFrame()
}

// Close closes the connection and stops keep-alive monitoring.
func (c *ClientConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeCh)
		c.kaMu.Lock()
		if c.keepAlive != nil {
			c.keepAlive.Stop()
		}
		c.kaMu.Unlock()
		err = c.conn.Close()
	})
	return err
}

// SendPing sends a ping control message.
func (c *ClientConn) SendPing(seq uint32) error {
	msg, err := EncodePing(seq)
	if err != nil {
		return err
	}
	return c.Send(msg)
}

// SendClose sends a close control message.
func (c *ClientConn) SendClose() error {
	msg, err := EncodeClose()
	if err != nil {
		return err
	}
	return c.Send(msg)
}

// StartKeepAlive begins liveness monitoring using the client's
// keep-alive configuration. The connection is closed when the gate
// stops answering pings.
func (c *ClientConn) StartKeepAlive(ctx context.Context) {
	c.kaMu.Lock()
	defer c.kaMu.Unlock()

	if c.keepAlive != nil {
		return
	}
	c.keepAlive = NewKeepAlive(c.client.config.KeepAlive, c.SendPing, func() {
		c.Close()
	})
	c.keepAlive.Start(ctx)
}

// HandleControl inspects a received frame and consumes it if it is a
// control message: pings are answered, pongs feed the keep-alive
// monitor, and a close is acknowledged by closing the connection.
// Returns true when the frame was a control message.
func (c *ClientConn) HandleControl(data []byte) bool {
	msgType, err := wire.PeekMessageType(data)
	if err != nil || msgType != wire.MessageTypeControl {
		return false
	}
	msg, err := wire.DecodeControlMessage(data)
	if err != nil {
		return false
	}

	switch msg.Type {
	case wire.ControlPing:
		if pong, err := EncodePong(msg.Sequence); err == nil {
			c.Send(pong)
		}
	case wire.ControlPong:
		c.kaMu.Lock()
		ka := c.keepAlive
		c.kaMu.Unlock()
		if ka != nil {
			ka.PongReceived(msg.Sequence)
		}
	case wire.ControlClose:
		c.Close()
	}
	return true
}
