package domain

import (
	"context"
	"time"
)

//go:generate go tool mockgen -destination=./mocks/application_mock.go -package=mocks . Application

// Application はRoomに注入されるゲームロジックです。
// HandleMessage と Tick は常にRoomのゴルーチンから呼ばれます。
type Application interface {
	// HandleMessage はセッションから届いた1メッセージ（join/leave含む）を処理します。
	HandleMessage(ctx context.Context, sessionID SessionID, data []byte) error
	// Tick は1フレーム進め、送信すべきメッセージを返します。
	Tick(ctx context.Context, dt time.Duration) []Outbound
}

// Outbound はTickが返す送信データです。Toがゼロ値ならルーム全体へブロードキャストします。
// Reliableなものは後から送り直されないので、送信先が詰まっていても破棄しません。
type Outbound struct {
	To       SessionID
	Data     []byte
	Reliable bool
}
