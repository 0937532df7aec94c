package domain_test

import (
	"context"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	domain "bmshooter/server/domain"
	"bmshooter/server/domain/mocks"
)

// 初期化時にリソースが正しくセットアップされることを確認
func TestNewSessionEndpoint_InitializesDefaults(t *testing.T) {
	ctrl := gomock.NewController(t)

	s := domain.NewSession()
	tr := mocks.NewMockTransport(ctrl)
	c := domain.NewConnection(tr)
	ps := mocks.NewMockPubSub(ctrl)
	rm := mocks.NewMockRoomManager(ctrl)

	se, err := domain.NewSessionEndpoint(s, c, ps, rm)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if se == nil {
		t.Fatalf("endpoint is nil")
	}
	if !se.RoomID().IsEmpty() {
		t.Errorf("RoomID = %s, want empty", se.RoomID())
	}
}

func TestNewSessionEndpoint_NilDependencies(t *testing.T) {
	ctrl := gomock.NewController(t)

	s := domain.NewSession()
	c := domain.NewConnection(mocks.NewMockTransport(ctrl))
	ps := mocks.NewMockPubSub(ctrl)
	rm := mocks.NewMockRoomManager(ctrl)

	if _, err := domain.NewSessionEndpoint(nil, c, ps, rm); err != domain.ErrInitializationFailed {
		t.Errorf("nil session: got %v", err)
	}
	if _, err := domain.NewSessionEndpoint(s, nil, ps, rm); err != domain.ErrInitializationFailed {
		t.Errorf("nil connection: got %v", err)
	}
	if _, err := domain.NewSessionEndpoint(s, c, nil, rm); err != domain.ErrInitializationFailed {
		t.Errorf("nil pubsub: got %v", err)
	}
	if _, err := domain.NewSessionEndpoint(s, c, ps, nil); err != domain.ErrInitializationFailed {
		t.Errorf("nil room manager: got %v", err)
	}
}

// Join → Input → 切断 の流れでroomのトピックへ正しく転送されることを確認
func TestSessionEndpoint_Run_ForwardsToRoom(t *testing.T) {
	ctrl := gomock.NewController(t)

	s := domain.NewSession()
	reads := make(chan []byte, 8)
	tr := mocks.NewMockTransport(ctrl)
	tr.EXPECT().Read(gomock.Any()).DoAndReturn(func(ctx context.Context) ([]byte, error) {
		select {
		case data := <-reads:
			return data, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}).AnyTimes()
	tr.EXPECT().Write(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	tr.EXPECT().Close(int32(domain.CloseNormal), "").Return(nil).Times(1)

	rm := mocks.NewMockRoomManager(ctrl)
	rm.EXPECT().GetRoom(gomock.Any(), s.ID()).Return(domain.DefaultRoomID, nil)

	ps := domain.NewSimplePubSub()
	ctrlCh := ps.Subscribe(domain.RoomCtrlTopic(domain.DefaultRoomID))
	roomCh := ps.Subscribe(domain.RoomTopic(domain.DefaultRoomID))

	se, err := domain.NewSessionEndpoint(s, domain.NewConnection(tr), ps, rm)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- se.Run() }()

	aim := &domain.AimPayload{Rotation: domain.Rotator{Pitch: 5}}
	reads <- domain.EncodeJoinMessage(s.ID(), 1, domain.RoomID{})
	// 他人のセッションIDを騙るメッセージは破棄される
	reads <- domain.EncodeMessage(domain.NewSessionID(), 2, domain.DataTypeInput, uint8(domain.InputSubTypeAim), aim.Encode())
	reads <- domain.EncodeMessage(s.ID(), 3, domain.DataTypeInput, uint8(domain.InputSubTypeAim), aim.Encode())

	join := receive(t, ctrlCh)
	if join.SessionID != s.ID() {
		t.Errorf("join SessionID = %s, want %s", join.SessionID, s.ID())
	}
	input := receive(t, roomCh)
	header, _, _, err := domain.ParseMessage(input.Data)
	if err != nil {
		t.Fatalf("ParseMessage failed: %v", err)
	}
	if header.Seq != 3 {
		t.Errorf("forwarded seq = %d, want 3", header.Seq)
	}

	se.ForceClose()

	leave := receive(t, ctrlCh)
	_, payloadHeader, _, err := domain.ParseMessage(leave.Data)
	if err != nil {
		t.Fatalf("ParseMessage failed: %v", err)
	}
	if domain.ControlSubType(payloadHeader.SubType) != domain.ControlSubTypeLeave {
		t.Errorf("subType = %d, want leave", payloadHeader.SubType)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after ForceClose")
	}
	if !s.IsClosed() {
		t.Error("session should be closed")
	}
}

// 読み込みが途絶えたセッションはKickを送ってから切断される
func TestSessionEndpoint_Run_KicksIdleSession(t *testing.T) {
	ctrl := gomock.NewController(t)

	s := domain.NewSession()
	written := make(chan []byte, 64)
	tr := mocks.NewMockTransport(ctrl)
	tr.EXPECT().Read(gomock.Any()).DoAndReturn(func(ctx context.Context) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}).AnyTimes()
	tr.EXPECT().Write(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, data []byte) error {
		written <- data
		return nil
	}).AnyTimes()
	tr.EXPECT().Close(int32(domain.ClosePolicyViolation), gomock.Any()).Return(nil).Times(1)

	se, err := domain.NewSessionEndpoint(s, domain.NewConnection(tr), domain.NewSimplePubSub(), mocks.NewMockRoomManager(ctrl),
		domain.WithPingInterval(10*time.Millisecond),
		domain.WithIdleTimeout(50*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- se.Run() }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return for idle session")
	}
	if !s.IsClosed() {
		t.Error("session should be closed")
	}

	kicked := false
	for len(written) > 0 {
		_, ph, _, err := domain.ParseMessage(<-written)
		if err == nil && ph.DataType == domain.DataTypeControl && domain.ControlSubType(ph.SubType) == domain.ControlSubTypeKick {
			kicked = true
		}
	}
	if !kicked {
		t.Error("kick message was not written before close")
	}
}

func receive(t *testing.T, ch <-chan domain.Message) domain.Message {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return domain.Message{}
	}
}
