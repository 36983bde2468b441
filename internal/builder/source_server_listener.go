package builder

import (
	"context"
	"net"

	"github.com/ktf/DataDistribution/internal/rpcapi"
)

// ServeSource starts the RPC listener answering sendStf pulls from
// Aggregators (§4.7, §6), blocking until ctx is cancelled. addr empty
// is a caller error; owning processes should skip calling ServeSource
// entirely when config.Builder.SourceListenAddress is unset.
func ServeSource(ctx context.Context, addr string, b *Builder) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	rpcServer := rpcapi.NewServer()
	rpcServer.Handle(rpcapi.TypeSendStfRequest, b.SendStfHandler())

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	return rpcServer.Serve(ln)
}
