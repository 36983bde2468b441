package wire

import (
	"net"
	"sync"
)

// Conn pairs a Decoder and Encoder over a single net.Conn and
// serialises writes, so concurrent Send calls on one Conn are safe.
// rpcapi.Server itself reads and answers each connection from a single
// goroutine.
type Conn struct {
	nc  net.Conn
	dec *Decoder
	enc *Encoder
	mu  sync.Mutex
}

// NewConn wraps an established net.Conn for framed envelope exchange.
func NewConn(nc net.Conn) *Conn {
	return &Conn{nc: nc, dec: NewDecoder(nc), enc: NewEncoder(nc)}
}

// Send marshals body under typ and writes it as one frame.
func (c *Conn) Send(typ string, body any) error {
	env, err := WrapEnvelope(typ, body)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enc.Encode(env)
}

// Recv reads the next envelope off the connection. Concurrent Recv
// calls are not supported; each Conn is read from a single goroutine.
func (c *Conn) Recv() (Envelope, error) {
	var env Envelope
	if err := c.dec.Decode(&env); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

// Close closes the underlying net.Conn.
func (c *Conn) Close() error {
	return c.nc.Close()
}

// RemoteAddr returns the underlying connection's remote address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.nc.RemoteAddr()
}
