// Package adapterwebsocket はcoder/websocketの接続をdomain.Transportに合わせます。
package adapterwebsocket

import (
	"context"
	"fmt"
	"math"

	"github.com/coder/websocket"

	"bmshooter/server/domain"
)

// maxFrameSize はヘッダーと最大長ペイロードを合わせた1フレームの上限です。
const maxFrameSize = domain.HeaderSize + domain.PayloadHeaderSize + math.MaxUint16

type wsTransport struct {
	conn *websocket.Conn
}

var _ domain.Transport = (*wsTransport)(nil)

// NewTransportFrom はWebSocket接続をTransportとして包みます。フレームはすべてバイナリで送ります。
func NewTransportFrom(conn *websocket.Conn) domain.Transport {
	conn.SetReadLimit(maxFrameSize)
	return &wsTransport{conn: conn}
}

// Dial はurlへ接続し、Transportとして返します。
func Dial(ctx context.Context, url string) (domain.Transport, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return NewTransportFrom(conn), nil
}

func (t *wsTransport) Read(ctx context.Context) ([]byte, error) {
	typ, data, err := t.conn.Read(ctx)
	if err != nil {
		return nil, err
	}
	if typ != websocket.MessageBinary {
		return nil, fmt.Errorf("unexpected message type %v", typ)
	}
	return data, nil
}

func (t *wsTransport) Write(ctx context.Context, data []byte) error {
	return t.conn.Write(ctx, websocket.MessageBinary, data)
}

func (t *wsTransport) Close(code int32, reason string) error {
	return t.conn.Close(websocket.StatusCode(code), reason)
}
