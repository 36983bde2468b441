package rpcapi

import (
	"fmt"
	"net"

	"github.com/ktf/DataDistribution/internal/wire"
)

// Handler processes one decoded request envelope and returns the
// response body to encode back, alongside the response type
// discriminant to tag it with.
type Handler func(body []byte) (respType string, resp any, err error)

// Server dispatches incoming envelopes on accepted connections to
// Handlers registered by message type, the same envelope-type-switch
// shape quarry/ipc.DecodeFrame uses to pick an artifact-chunk vs
// run-result decoder, generalised here to a full request/response RPC
// loop over net.Listener rather than a one-shot decode.
type Server struct {
	handlers map[string]Handler
}

// NewServer creates a Server with no handlers registered.
func NewServer() *Server {
	return &Server{handlers: make(map[string]Handler)}
}

// Handle registers fn for envelopes of type typ.
func (s *Server) Handle(typ string, fn Handler) {
	s.handlers[typ] = fn
}

// Serve accepts connections on ln and services each on its own
// goroutine until ln.Accept returns an error (typically because ln was
// closed during shutdown).
func (s *Server) Serve(ln net.Listener) error {
	for {
		nc, err := ln.Accept()
		if err != nil {
			return err
		}
		go s.serveConn(wire.NewConn(nc))
	}
}

func (s *Server) serveConn(c *wire.Conn) {
	defer c.Close()
	for {
		env, err := c.Recv()
		if err != nil {
			return
		}

		fn, ok := s.handlers[env.Type]
		if !ok {
			_ = c.Send(TypeBuildTfResponse, BuildTfResponse{Accepted: false, Reason: fmt.Sprintf("unknown message type %q", env.Type)})
			continue
		}

		respType, resp, err := fn(env.Body)
		if err != nil {
			_ = c.Send(TypeBuildTfResponse, BuildTfResponse{Accepted: false, Reason: err.Error()})
			continue
		}
		if err := c.Send(respType, resp); err != nil {
			return
		}
	}
}

// Client issues request/response RPCs over a single persistent
// connection. Concurrent Call invocations are not safe on one Client;
// callers needing concurrency should pool Clients, matching the
// single-reader discipline wire.Conn.Recv documents.
type Client struct {
	conn *wire.Conn
}

// Dial opens a TCP connection to addr and wraps it as a Client.
func Dial(addr string) (*Client, error) {
	nc, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Client{conn: wire.NewConn(nc)}, nil
}

// NewClient wraps an already-established connection.
func NewClient(c *wire.Conn) *Client {
	return &Client{conn: c}
}

// Call sends a request envelope and returns the raw response envelope.
func (c *Client) Call(reqType string, req any) (wire.Envelope, error) {
	if err := c.conn.Send(reqType, req); err != nil {
		return wire.Envelope{}, err
	}
	return c.conn.Recv()
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
