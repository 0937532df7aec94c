package domain

import (
	"context"
	"log/slog"
	"time"
)

// idleCheckInterval はpingを送らない設定のときにアイドル判定する間隔です。
const idleCheckInterval = time.Second

// Heartbeat はpingを定期送信し、読み込みやpongが途絶えたセッションを検出します。
type Heartbeat struct {
	session      *Session
	pingInterval time.Duration
	idleTimeout  time.Duration
}

func NewHeartbeat(session *Session, pingInterval, idleTimeout time.Duration) *Heartbeat {
	return &Heartbeat{
		session:      session,
		pingInterval: pingInterval,
		idleTimeout:  idleTimeout,
	}
}

// Run はpingInterval毎にpingをsendへ渡し、同時にセッションのアイドル判定を行います。
// アイドルになった時点でその理由を返します。ctxがキャンセルされた場合はIdleNoneです。
// pingIntervalが0以下ならpingは送らず、pong途絶も判定しません。
func (h *Heartbeat) Run(ctx context.Context, send func([]byte) error) IdleReason {
	tick := h.pingInterval
	if tick <= 0 {
		tick = idleCheckInterval
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return IdleNone
		case <-ticker.C:
			if reason, idle := h.idle(); idle {
				return reason
			}
			if h.pingInterval <= 0 {
				continue
			}
			if err := send(EncodePingMessage(h.session.ID())); err != nil {
				slog.WarnContext(ctx, "heartbeat: ping dropped", "sessionID", h.session.ID(), "err", err)
				continue
			}
			slog.DebugContext(ctx, "heartbeat: ping sent", "sessionID", h.session.ID())
		}
	}
}

func (h *Heartbeat) idle() (IdleReason, bool) {
	idle, reason := h.session.IsIdle(h.idleTimeout)
	if h.pingInterval <= 0 {
		reason &^= IdlePong
		idle = idle && reason != IdleNone
	}
	return reason, idle
}
