package domain_test

import (
	"context"
	"testing"
	"time"

	domain "bmshooter/server/domain"
)

func TestHeartbeat_SendsPing(t *testing.T) {
	session := domain.NewSession()
	sent := make(chan []byte, 16)

	hb := domain.NewHeartbeat(session, 20*time.Millisecond, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hb.Run(ctx, func(b []byte) error {
		sent <- b
		return nil
	})

	select {
	case msg := <-sent:
		_, ph, _, err := domain.ParseMessage(msg)
		if err != nil {
			t.Fatalf("ParseMessage failed: %v", err)
		}
		if domain.ControlSubType(ph.SubType) != domain.ControlSubTypePing {
			t.Errorf("subType = %d, want ping", ph.SubType)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for ping message")
	}
}

func TestHeartbeat_StopsOnContextCancel(t *testing.T) {
	hb := domain.NewHeartbeat(domain.NewSession(), 20*time.Millisecond, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan domain.IdleReason, 1)
	go func() { done <- hb.Run(ctx, func([]byte) error { return nil }) }()

	cancel()

	select {
	case reason := <-done:
		if reason != domain.IdleNone {
			t.Errorf("reason = %s, want none", reason)
		}
	case <-time.After(time.Second):
		t.Fatal("Heartbeat did not stop after context cancel")
	}
}

func TestHeartbeat_ReportsIdle(t *testing.T) {
	hb := domain.NewHeartbeat(domain.NewSession(), 10*time.Millisecond, 50*time.Millisecond)

	done := make(chan domain.IdleReason, 1)
	// 送信失敗しても判定は続く
	go func() { done <- hb.Run(context.Background(), func([]byte) error { return domain.ErrBackpressure }) }()

	select {
	case reason := <-done:
		if !reason.Has(domain.IdleRead) || !reason.Has(domain.IdlePong) {
			t.Errorf("reason = %s, want read|pong", reason)
		}
	case <-time.After(time.Second):
		t.Fatal("Heartbeat did not report idle session")
	}
}

func TestHeartbeat_NoPingIgnoresPong(t *testing.T) {
	session := domain.NewSession()
	hb := domain.NewHeartbeat(session, 0, 30*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan domain.IdleReason, 1)
	go func() {
		done <- hb.Run(ctx, func([]byte) error {
			t.Error("ping must not be sent when interval is 0")
			return nil
		})
	}()

	select {
	case reason := <-done:
		if !reason.Has(domain.IdleRead) || reason.Has(domain.IdlePong) {
			t.Errorf("reason = %s, want read only", reason)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Heartbeat did not report idle session")
	}
}
