package domain

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrBackpressure は書き込みチャネルが満杯の場合に返されるエラーです。
	ErrBackpressure = errors.New("write channel is full, apply backpressure")
	// ErrInitializationFailed はセッションエンドポイントの初期化に失敗した場合に返されるエラーです。
	ErrInitializationFailed = errors.New("failed to initialize session endpoint")
)

const (
	defaultIdleTimeout  = 30 * time.Second
	defaultPingInterval = 5 * time.Second
)

// EndpointOption はSessionEndpointの設定を変更します。
type EndpointOption func(*SessionEndpoint)

// WithIdleTimeout は読み込み/pongが途絶えてから切断するまでの時間を設定します。
func WithIdleTimeout(d time.Duration) EndpointOption {
	return func(se *SessionEndpoint) { se.idleTimeout = d }
}

// WithPingInterval はheartbeatのping間隔を設定します。
func WithPingInterval(d time.Duration) EndpointOption {
	return func(se *SessionEndpoint) { se.pingInterval = d }
}

type SessionEndpoint struct {
	ctx    context.Context
	cancel context.CancelFunc

	session     *Session
	connection  *Connection
	pubsub      PubSub
	roomManager RoomManager
	roomID      atomic.Pointer[RoomID] // Join時にRoomManagerから取得

	idleTimeout  time.Duration
	pingInterval time.Duration

	ctrlCh  chan endpointEvent // 制御用チャネル
	writeCh chan []byte        // 書き込み用チャネル

	// lifecycle
	closed atomic.Bool
}

func NewSessionEndpoint(session *Session, connection *Connection, pubsub PubSub, roomManager RoomManager, opts ...EndpointOption) (*SessionEndpoint, error) {
	if session == nil {
		return nil, ErrInitializationFailed
	}
	if connection == nil {
		return nil, ErrInitializationFailed
	}
	if pubsub == nil {
		return nil, ErrInitializationFailed
	}
	if roomManager == nil {
		return nil, ErrInitializationFailed
	}
	ctx, cancel := context.WithCancel(context.Background())
	se := &SessionEndpoint{
		ctx:          ctx,
		cancel:       cancel,
		session:      session,
		connection:   connection,
		pubsub:       pubsub,
		roomManager:  roomManager,
		idleTimeout:  defaultIdleTimeout,
		pingInterval: defaultPingInterval,
		ctrlCh:       make(chan endpointEvent, 16),
		writeCh:      make(chan []byte, 1024),
	}
	for _, opt := range opts {
		opt(se)
	}
	return se, nil
}

// RoomID は参加中のルームを返します。未参加ならゼロ値です。
func (se *SessionEndpoint) RoomID() RoomID {
	if id := se.roomID.Load(); id != nil {
		return *id
	}
	return RoomID{}
}

func (se *SessionEndpoint) Run() error {
	// 自分宛のメッセージを購読
	sessionTopic := SessionTopic(se.session.ID())
	msgCh := se.pubsub.Subscribe(sessionTopic)
	defer se.pubsub.Unsubscribe(sessionTopic, msgCh)

	// セッションID通知を送信
	if err := se.Send(EncodeAssignMessage(se.session.ID())); err != nil {
		return err
	}

	heartbeat := NewHeartbeat(se.session, se.pingInterval, se.idleTimeout)

	eg, ctx := errgroup.WithContext(se.ctx)
	eg.Go(func() error {
		se.ownerLoop(ctx)
		return nil
	})
	eg.Go(func() error {
		se.readLoop(ctx)
		return nil
	})
	eg.Go(func() error {
		se.writeLoop(ctx)
		return nil
	})
	eg.Go(func() error {
		se.subscribeLoop(ctx, msgCh)
		return nil
	})
	eg.Go(func() error {
		if reason := heartbeat.Run(ctx, se.Send); reason != IdleNone {
			se.sendCtrlEvent(ctx, endpointEvent{kind: evIdle, reason: reason})
		}
		return nil
	})

	return eg.Wait()
}

func (se *SessionEndpoint) Send(data []byte) error {
	select {
	case se.writeCh <- data:
		return nil
	default:
		return ErrBackpressure
	}
}

func (se *SessionEndpoint) Close(ctx context.Context) {
	se.sendCtrlEvent(ctx, endpointEvent{kind: evClose, err: nil})
}

func (se *SessionEndpoint) ForceClose() {
	se.close(CloseNormal, "")
}

// ownerLoop は制御イベントを順に処理し、接続の管理を行います。
func (se *SessionEndpoint) ownerLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-se.ctrlCh:
			se.handleControlEvent(ctx, ev)
		}
	}
}

func (se *SessionEndpoint) readLoop(ctx context.Context) {
	for {
		data, err := se.connection.Read(ctx)
		if err != nil {
			if ctx.Err() == nil {
				se.sendCtrlEvent(ctx, endpointEvent{kind: evReadError, err: err})
			}
			return
		}
		se.session.TouchRead()
		se.handleData(ctx, data)
	}
}

func (se *SessionEndpoint) writeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case data := <-se.writeCh:
			err := se.connection.Write(ctx, data)
			if err != nil {
				se.sendCtrlEvent(ctx, endpointEvent{kind: evWriteError, err: err})
				continue
			}
		}
	}
}

// subscribeLoop はpubsubからのメッセージをwriteChに転送します。
func (se *SessionEndpoint) subscribeLoop(ctx context.Context, msgCh <-chan Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgCh:
			if !ok {
				return
			}
			if msg.Reliable {
				select {
				case se.writeCh <- msg.Data:
				case <-ctx.Done():
					return
				}
				continue
			}
			select {
			case se.writeCh <- msg.Data:
				// 送信成功
			default:
				slog.WarnContext(ctx, "subscribeLoop: writeCh full, message dropped", "sessionID", se.session.ID())
			}
		}
	}
}

func (se *SessionEndpoint) close(code CloseCode, reason string) {
	if !se.closed.CompareAndSwap(false, true) {
		return
	}
	// 異常切断でもキャラクターが残らないようにRoomへLeaveを通知する
	if roomID := se.RoomID(); !roomID.IsEmpty() {
		se.publishControl(context.Background(), roomID, EncodeLeaveMessage(se.session.ID()))
	}
	se.cancel()
	se.session.Close()
	se.connection.Close(code, reason)
}

// publishControl はjoin/leaveをRoomの制御トピックへ送ります。取りこぼすとRoomの参加者一覧がずれるので破棄しません。
func (se *SessionEndpoint) publishControl(ctx context.Context, roomID RoomID, data []byte) {
	ctx, cancel := context.WithTimeout(ctx, reliableTimeout)
	defer cancel()
	se.pubsub.Publish(ctx, RoomCtrlTopic(roomID), Message{SessionID: se.session.ID(), Data: data, Reliable: true})
}

func (se *SessionEndpoint) handleData(ctx context.Context, data []byte) {
	header, payloadHeader, payload, err := ParseMessage(data)
	if err != nil {
		slog.WarnContext(ctx, "failed to parse message", "err", err)
		return
	}
	if SessionIDFromBytes(header.SessionID) != se.session.ID() {
		slog.WarnContext(ctx, "session ID mismatch", "expected", se.session.ID(), "got", SessionIDFromBytes(header.SessionID))
		return
	}

	switch payloadHeader.DataType {
	case DataTypeControl:
		se.handleControlMessage(ctx, ControlSubType(payloadHeader.SubType), data, payload)
	case DataTypeInput:
		// データメッセージをroom topicに転送
		roomID := se.RoomID()
		if roomID.IsEmpty() {
			slog.WarnContext(ctx, "received data message before joining a room", "sessionID", se.session.ID())
			return
		}
		se.pubsub.Publish(ctx, RoomTopic(roomID), Message{
			SessionID: se.session.ID(),
			Data:      data,
		})
	default:
		slog.WarnContext(ctx, "unknown data type", "dataType", payloadHeader.DataType)
	}
}

func (se *SessionEndpoint) handleControlMessage(ctx context.Context, subType ControlSubType, data, payload []byte) {
	switch subType {
	case ControlSubTypeJoin:
		if !se.RoomID().IsEmpty() {
			slog.WarnContext(ctx, "session already in a room", "sessionID", se.session.ID(), "roomID", se.RoomID())
			return
		}
		join, err := ParseJoinPayload(payload)
		if err != nil {
			slog.WarnContext(ctx, "failed to parse join message", "err", err)
			return
		}
		roomID := join.RoomID
		// RoomIDが空の場合、RoomManagerからデフォルトルームを取得
		if roomID.IsEmpty() {
			defaultRoomID, err := se.roomManager.GetRoom(ctx, se.session.ID())
			if err != nil {
				slog.ErrorContext(ctx, "failed to get default room", "err", err)
				return
			}
			roomID = defaultRoomID
			slog.DebugContext(ctx, "auto-assigned room", "sessionID", se.session.ID(), "roomID", roomID)
		}
		se.roomID.Store(&roomID)
		slog.InfoContext(ctx, "session joined room", "sessionID", se.session.ID(), "roomID", roomID)
		se.publishControl(ctx, roomID, data)
	case ControlSubTypeLeave:
		roomID := se.RoomID()
		if roomID.IsEmpty() {
			slog.WarnContext(ctx, "session not in any room, cannot leave", "sessionID", se.session.ID())
			return
		}
		se.publishControl(ctx, roomID, data)
		slog.InfoContext(ctx, "session left room", "sessionID", se.session.ID(), "roomID", roomID)
		se.roomID.Store(nil)
	case ControlSubTypePong:
		se.sendCtrlEvent(ctx, endpointEvent{kind: evPong})
	default:
		slog.DebugContext(ctx, "ignored control message", "subType", subType)
	}
}

// handleControlEvent は制御チャネルからのイベントを処理し論理セッションの状態を更新する唯一の関数です。
func (se *SessionEndpoint) handleControlEvent(ctx context.Context, ev endpointEvent) {
	switch ev.kind {
	case evClose:
		se.close(CloseNormal, "")
	case evIdle:
		slog.InfoContext(ctx, "closing idle session", "sessionID", se.session.ID(), "reason", ev.reason)
		// 書き込みループを通さずに直接送る。失敗しても切断は続ける
		_ = se.connection.Write(ctx, EncodeKickMessage(se.session.ID()))
		se.close(ClosePolicyViolation, "idle: "+ev.reason.String())
	case evPong:
		se.session.TouchPong()
	case evReadError:
		slog.DebugContext(ctx, "read failed, closing session", "sessionID", se.session.ID(), "err", ev.err)
		se.close(CloseGoingAway, "")
	case evWriteError:
		slog.WarnContext(ctx, "write failed", "sessionID", se.session.ID(), "err", ev.err)
	default:
		slog.WarnContext(ctx, "unknown endpoint event kind", "kind", ev.kind)
	}
}

func (se *SessionEndpoint) sendCtrlEvent(ctx context.Context, ev endpointEvent) {
	select {
	case se.ctrlCh <- ev:
	case <-ctx.Done():
	}
}
