package domain

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

//go:generate go tool mockgen -destination=./mocks/pubsub_mock.go -package=mocks . PubSub

// Topic は配送先を表す文字列です。"session:<id>" / "room:<id>" / "room:<id>:ctrl" を使います。
type Topic string

func SessionTopic(id SessionID) Topic { return Topic("session:" + id.String()) }
func RoomTopic(id RoomID) Topic       { return Topic("room:" + id.String()) }
func RoomCtrlTopic(id RoomID) Topic   { return Topic("room:" + id.String() + ":ctrl") }

// Message はPubSubで配送される1メッセージです。
// Reliableなメッセージは購読者が満杯でも破棄せず、空くかctxが終わるまで待ちます。
type Message struct {
	SessionID SessionID
	Data      []byte
	Reliable  bool
}

// reliableTimeout はReliableなメッセージの配送を待つ上限です。
const reliableTimeout = 250 * time.Millisecond

// PubSub はトピック単位のメッセージ配送を抽象化します。
type PubSub interface {
	Publish(ctx context.Context, topic Topic, msg Message)
	Subscribe(topic Topic) <-chan Message
	Unsubscribe(topic Topic, ch <-chan Message)
}

const subscriberBuffer = 1024

// SimplePubSub はプロセス内のPubSub実装です。
// 購読者のチャネルが満杯の場合、Reliableでないメッセージは破棄されます。
type SimplePubSub struct {
	mu     sync.RWMutex
	topics map[Topic][]chan Message
}

var _ PubSub = (*SimplePubSub)(nil)

func NewSimplePubSub() *SimplePubSub {
	return &SimplePubSub{
		topics: make(map[Topic][]chan Message),
	}
}

func (ps *SimplePubSub) Publish(ctx context.Context, topic Topic, msg Message) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	for _, ch := range ps.topics[topic] {
		select {
		case ch <- msg:
			continue
		default:
		}
		if !msg.Reliable {
			slog.WarnContext(ctx, "pubsub: subscriber full, message dropped", "topic", topic)
			continue
		}
		select {
		case ch <- msg:
		case <-ctx.Done():
			slog.ErrorContext(ctx, "pubsub: reliable message not delivered", "topic", topic, "err", ctx.Err())
		}
	}
}

func (ps *SimplePubSub) Subscribe(topic Topic) <-chan Message {
	ch := make(chan Message, subscriberBuffer)
	ps.mu.Lock()
	ps.topics[topic] = append(ps.topics[topic], ch)
	ps.mu.Unlock()
	return ch
}

func (ps *SimplePubSub) Unsubscribe(topic Topic, ch <-chan Message) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	subs := ps.topics[topic]
	for i, sub := range subs {
		if sub == ch {
			ps.topics[topic] = append(subs[:i], subs[i+1:]...)
			close(sub)
			break
		}
	}
	if len(ps.topics[topic]) == 0 {
		delete(ps.topics, topic)
	}
}
