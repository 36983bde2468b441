package aggregator

import (
	"context"

	"github.com/ktf/DataDistribution/internal/discovery"
	"github.com/ktf/DataDistribution/internal/rpcapi"
	"github.com/ktf/DataDistribution/internal/wire"
)

// SourceClient issues sendStf RPCs against one stfSender-identified
// Builder, pulling its contribution to a TimeFrame (§4.7 "build
// thread").
type SourceClient interface {
	SendStf(ctx context.Context, tfID uint64) (rpcapi.SendStfResponse, error)
	Close() error
}

// SourceDialer resolves an stfSenderId named in a TfBuildingInformation
// to a SourceClient. Tests substitute a fake; production wires
// DiscoveryDialer.
type SourceDialer interface {
	Dial(ctx context.Context, stfSenderID string) (SourceClient, error)
}

// rpcSourceClient is a SourceClient backed by one rpcapi.Client
// connection.
type rpcSourceClient struct {
	client *rpcapi.Client
}

func (c *rpcSourceClient) SendStf(_ context.Context, tfID uint64) (rpcapi.SendStfResponse, error) {
	env, err := c.client.Call(rpcapi.TypeSendStfRequest, rpcapi.SendStfRequest{TfID: tfID})
	if err != nil {
		return rpcapi.SendStfResponse{}, err
	}
	var resp rpcapi.SendStfResponse
	if err := wire.UnwrapEnvelope(env, &resp); err != nil {
		return rpcapi.SendStfResponse{}, err
	}
	return resp, nil
}

func (c *rpcSourceClient) Close() error {
	return c.client.Close()
}

// DiscoveryDialer resolves stfSenderId to a network address through a
// discovery.Registry (§6 "service discovery"), then dials the
// stfSender's RPC surface.
type DiscoveryDialer struct {
	registry discovery.Registry
}

// NewDiscoveryDialer creates a DiscoveryDialer over registry.
func NewDiscoveryDialer(registry discovery.Registry) *DiscoveryDialer {
	return &DiscoveryDialer{registry: registry}
}

// Dial implements SourceDialer.
func (d *DiscoveryDialer) Dial(ctx context.Context, stfSenderID string) (SourceClient, error) {
	addr, err := d.registry.Lookup(ctx, stfSenderID)
	if err != nil {
		return nil, err
	}
	client, err := rpcapi.Dial(addr)
	if err != nil {
		return nil, err
	}
	return &rpcSourceClient{client: client}, nil
}
