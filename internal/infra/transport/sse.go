package transport

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// streamOwningTransport opens the SSE event stream on a context detached from
// the dial context. The GET backing an SSE session is bound to the context it
// was opened with, so the dial timeout would otherwise kill the stream as soon
// as Connect returns. The dial context still bounds opening the stream, and
// the initialize handshake runs on it separately.
type streamOwningTransport struct {
	inner mcp.Transport
}

func (t *streamOwningTransport) Connect(ctx context.Context) (mcp.Connection, error) {
	streamCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(ctx, cancel)
	conn, err := t.inner.Connect(streamCtx)
	if !stop() {
		if conn != nil {
			_ = conn.Close()
		}
		cancel()
		return nil, fmt.Errorf("open event stream: %w", ctx.Err())
	}
	if err != nil {
		cancel()
		return nil, err
	}
	return &streamConn{Connection: conn, cancel: cancel}, nil
}

// streamConn releases the stream context once the connection is closed.
type streamConn struct {
	mcp.Connection
	cancel context.CancelFunc
}

func (c *streamConn) Close() error {
	err := c.Connection.Close()
	c.cancel()
	return err
}
