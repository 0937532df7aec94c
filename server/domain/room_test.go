package domain_test

import (
	"context"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	domain "bmshooter/server/domain"
	"bmshooter/server/domain/mocks"
)

func TestRoom_Run_JoinInputBroadcastLeave(t *testing.T) {
	ctrl := gomock.NewController(t)

	ps := domain.NewSimplePubSub()
	sessionID := domain.NewSessionID()
	sessionCh := ps.Subscribe(domain.SessionTopic(sessionID))

	var handled atomic.Int32
	app := mocks.NewMockApplication(ctrl)
	app.EXPECT().HandleMessage(gomock.Any(), sessionID, gomock.Any()).DoAndReturn(
		func(ctx context.Context, id domain.SessionID, data []byte) error {
			handled.Add(1)
			return nil
		}).Times(3) // join, input, leave
	app.EXPECT().Tick(gomock.Any(), 5*time.Millisecond).DoAndReturn(
		func(ctx context.Context, dt time.Duration) []domain.Outbound {
			if handled.Load() == 2 {
				return []domain.Outbound{{Data: []byte("state")}}
			}
			return nil
		}).AnyTimes()

	room := domain.NewRoom(domain.DefaultRoomID, ps, app, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = room.Run(ctx)
		close(done)
	}()

	ps.Publish(ctx, domain.RoomCtrlTopic(domain.DefaultRoomID), domain.Message{
		SessionID: sessionID,
		Data:      domain.EncodeJoinMessage(sessionID, 1, domain.DefaultRoomID),
	})
	aim := &domain.AimPayload{}
	ps.Publish(ctx, domain.RoomTopic(domain.DefaultRoomID), domain.Message{
		SessionID: sessionID,
		Data:      domain.EncodeMessage(sessionID, 2, domain.DataTypeInput, uint8(domain.InputSubTypeAim), aim.Encode()),
	})

	select {
	case msg := <-sessionCh:
		if string(msg.Data) != "state" {
			t.Errorf("broadcast = %q, want %q", msg.Data, "state")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast")
	}
	// Runとは別のゴルーチンから読む
	if got := room.NumSessions(); got != 1 {
		t.Errorf("NumSessions() = %d, want 1", got)
	}

	ps.Publish(ctx, domain.RoomCtrlTopic(domain.DefaultRoomID), domain.Message{
		SessionID: sessionID,
		Data:      domain.EncodeLeaveMessage(sessionID),
	})
	deadline := time.After(time.Second)
	for handled.Load() < 3 {
		select {
		case <-deadline:
			t.Fatal("leave was not forwarded to the application")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	<-done
}

func TestRoom_Run_DuplicateLeaveIgnored(t *testing.T) {
	ctrl := gomock.NewController(t)

	ps := domain.NewSimplePubSub()
	sessionID := domain.NewSessionID()

	app := mocks.NewMockApplication(ctrl)
	// 参加していないセッションのleaveはApplicationに渡らない
	app.EXPECT().HandleMessage(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	app.EXPECT().Tick(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	room := domain.NewRoom(domain.DefaultRoomID, ps, app, 5*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = room.Run(ctx)
		close(done)
	}()

	ps.Publish(ctx, domain.RoomCtrlTopic(domain.DefaultRoomID), domain.Message{
		SessionID: sessionID,
		Data:      domain.EncodeLeaveMessage(sessionID),
	})
	time.Sleep(30 * time.Millisecond)

	cancel()
	<-done
}

func TestRoom_Run_ReliableOutboundSurvivesFullSubscriber(t *testing.T) {
	ctrl := gomock.NewController(t)

	ps := domain.NewSimplePubSub()
	sessionID := domain.NewSessionID()
	sessionCh := ps.Subscribe(domain.SessionTopic(sessionID))

	var joined, sent atomic.Bool
	filled := make(chan struct{})
	app := mocks.NewMockApplication(ctrl)
	app.EXPECT().HandleMessage(gomock.Any(), sessionID, gomock.Any()).DoAndReturn(
		func(ctx context.Context, id domain.SessionID, data []byte) error {
			joined.Store(true)
			return nil
		}).Times(1)
	app.EXPECT().Tick(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, dt time.Duration) []domain.Outbound {
			if !joined.Load() || sent.Swap(true) {
				return nil
			}
			// 購読者を満杯にしてから返す
			for len(sessionCh) < cap(sessionCh) {
				ps.Publish(ctx, domain.SessionTopic(sessionID), domain.Message{Data: []byte("filler")})
			}
			close(filled)
			return []domain.Outbound{
				{Data: []byte("state")},
				{Data: []byte("despawn"), Reliable: true},
			}
		}).AnyTimes()

	room := domain.NewRoom(domain.DefaultRoomID, ps, app, 5*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = room.Run(ctx)
		close(done)
	}()

	ps.Publish(ctx, domain.RoomCtrlTopic(domain.DefaultRoomID), domain.Message{
		SessionID: sessionID,
		Data:      domain.EncodeJoinMessage(sessionID, 1, domain.DefaultRoomID),
	})

	select {
	case <-filled:
	case <-time.After(time.Second):
		t.Fatal("tick never filled the subscriber")
	}
	// Roomが満杯のチャネルへ送ろうとしている間に空きを作る
	time.Sleep(20 * time.Millisecond)

	var got []string
	deadline := time.After(2 * time.Second)
	for !slices.Contains(got, "despawn") {
		select {
		case msg := <-sessionCh:
			if string(msg.Data) != "filler" {
				got = append(got, string(msg.Data))
			}
		case <-deadline:
			t.Fatalf("reliable frame not delivered, got %v", got)
		}
	}

	cancel()
	<-done
}
