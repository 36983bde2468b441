package builder

import (
	"context"

	"github.com/ktf/DataDistribution/internal/stf"
	"github.com/ktf/DataDistribution/internal/transport"
)

// endOfStreamMarker is the header part of ChannelAdapter's two-part
// end-of-stream record: this marker followed by an empty body part
// (§4.4).
var endOfStreamMarker = []byte("DD_EOS")

// ChannelAdapter is the default Adapter: it reuses the direct-serialiser
// wire framing (serialize.go) over a transport.Channel bound to the
// `dpl` channel name, standing in for a real workflow-framework client
// library until one is wired (§1, §9 "RPC runtime abstraction" applies
// the same reasoning to this boundary).
type ChannelAdapter struct {
	channel transport.Channel
}

// NewChannelAdapter creates a ChannelAdapter sending over channel.
func NewChannelAdapter(channel transport.Channel) *ChannelAdapter {
	return &ChannelAdapter{channel: channel}
}

// Send implements Adapter.
func (a *ChannelAdapter) Send(ctx context.Context, s *stf.STF) error {
	mp, err := SerializeStf(s)
	if err != nil {
		return err
	}
	_, err = a.channel.Send(ctx, mp)
	return err
}

// SendEndOfStream implements Adapter.
func (a *ChannelAdapter) SendEndOfStream(ctx context.Context) error {
	_, err := a.channel.Send(ctx, transport.Multipart{endOfStreamMarker, []byte{}})
	return err
}

// Close implements Adapter.
func (a *ChannelAdapter) Close() error {
	return a.channel.Stop()
}
