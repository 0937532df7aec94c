package domain

import (
	"context"
	"sync"
)

// CloseCode は切断時に相手へ伝える理由コードです。値はWebSocketの状態コードに合わせています。
type CloseCode int32

const (
	CloseNormal          CloseCode = 1000
	CloseGoingAway       CloseCode = 1001
	ClosePolicyViolation CloseCode = 1008
	CloseInternalError   CloseCode = 1011
)

// Connection はTransportを包み、切断を一度だけ行います。
type Connection struct {
	transport Transport
	closeOnce sync.Once
}

func NewConnection(transport Transport) *Connection {
	return &Connection{transport: transport}
}

func (c *Connection) Write(ctx context.Context, data []byte) error {
	return c.transport.Write(ctx, data)
}

func (c *Connection) Read(ctx context.Context) ([]byte, error) {
	return c.transport.Read(ctx)
}

// Close は最初の呼び出しでだけTransportを閉じます。
func (c *Connection) Close(code CloseCode, reason string) {
	c.closeOnce.Do(func() {
		_ = c.transport.Close(int32(code), reason)
	})
}
