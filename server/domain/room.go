package domain

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Room は参加セッションとApplicationを1つのゴルーチンで駆動します。
type Room struct {
	ID       RoomID
	sessions map[SessionID]struct{}
	// numSessions は他のゴルーチンから参照するための参加数です。
	numSessions atomic.Int32

	pubsub      PubSub
	application Application // 外部からアプリケーションロジックを注入できる

	msgCh  <-chan Message
	ctrlCh <-chan Message

	tickInterval time.Duration
}

func NewRoom(id RoomID, pubsub PubSub, application Application, tickInterval time.Duration) *Room {
	if tickInterval <= 0 {
		tickInterval = time.Second / 60
	}
	// 生成時点で購読しておき、Run開始前に届いたjoinを取りこぼさないようにする
	return &Room{
		ID:           id,
		sessions:     make(map[SessionID]struct{}),
		pubsub:       pubsub,
		application:  application,
		msgCh:        pubsub.Subscribe(RoomTopic(id)),
		ctrlCh:       pubsub.Subscribe(RoomCtrlTopic(id)),
		tickInterval: tickInterval,
	}
}

func (r *Room) Broadcast(ctx context.Context, msg Message) {
	for sessionID := range r.sessions {
		r.SendTo(ctx, sessionID, msg)
	}
}

func (r *Room) SendTo(ctx context.Context, sessionID SessionID, msg Message) {
	if msg.Reliable {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, reliableTimeout)
		defer cancel()
	}
	r.pubsub.Publish(ctx, SessionTopic(sessionID), msg)
}

// NumSessions は参加中のセッション数を返します。どのゴルーチンからでも呼べます。
func (r *Room) NumSessions() int {
	return int(r.numSessions.Load())
}

func (r *Room) Run(ctx context.Context) error {
	defer r.pubsub.Unsubscribe(RoomTopic(r.ID), r.msgCh)
	defer r.pubsub.Unsubscribe(RoomCtrlTopic(r.ID), r.ctrlCh)

	ticker := time.NewTicker(r.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.step(ctx)
		}
	}
}

// step は1tick分の処理を行います。制御 → 受信 → Tick → 送信 の順です。
func (r *Room) step(ctx context.Context) {
	// 制御メッセージを処理（join/leave）
CTRL_LOOP:
	for {
		select {
		case ctrl := <-r.ctrlCh:
			r.handleControlMessage(ctx, ctrl)
		default:
			break CTRL_LOOP
		}
	}
	// 受信メッセージを処理
RECEIVE_LOOP:
	for {
		select {
		case msg := <-r.msgCh:
			// アプリケーションロジックが担当する
			if err := r.application.HandleMessage(ctx, msg.SessionID, msg.Data); err != nil {
				slog.WarnContext(ctx, "room handle message failed", "roomID", r.ID, "err", err)
			}
		default:
			break RECEIVE_LOOP
		}
	}
	for _, out := range r.application.Tick(ctx, r.tickInterval) {
		msg := Message{Data: out.Data, Reliable: out.Reliable}
		if out.To.IsZero() {
			r.Broadcast(ctx, msg)
			continue
		}
		r.SendTo(ctx, out.To, msg)
	}
}

// handleControlMessage はjoin/leave制御メッセージでセッション一覧を更新し、Applicationにも渡します。
func (r *Room) handleControlMessage(ctx context.Context, msg Message) {
	_, payloadHeader, _, err := ParseMessage(msg.Data)
	if err != nil {
		slog.WarnContext(ctx, "room: invalid control message", "err", err)
		return
	}
	if payloadHeader.DataType != DataTypeControl {
		return
	}
	switch ControlSubType(payloadHeader.SubType) {
	case ControlSubTypeJoin:
		r.sessions[msg.SessionID] = struct{}{}
		r.numSessions.Store(int32(len(r.sessions)))
	case ControlSubTypeLeave:
		if _, ok := r.sessions[msg.SessionID]; !ok {
			return
		}
		delete(r.sessions, msg.SessionID)
		r.numSessions.Store(int32(len(r.sessions)))
	default:
		return
	}
	if err := r.application.HandleMessage(ctx, msg.SessionID, msg.Data); err != nil {
		slog.WarnContext(ctx, "room handle control failed", "roomID", r.ID, "err", err)
	}
}
