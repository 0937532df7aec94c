package domain

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// SessionID は論理セッションを一意に識別するIDです。
// キャラクターのエンティティIDとしても使われます。
type SessionID uuid.UUID

func NewSessionID() SessionID {
	return SessionID(uuid.New())
}

// SessionIDFromBytes はヘッダーやペイロードの16バイトからSessionIDを復元します。
func SessionIDFromBytes(b [16]byte) SessionID {
	return SessionID(b)
}

func (id SessionID) Bytes() [16]byte { return id }
func (id SessionID) String() string  { return uuid.UUID(id).String() }
func (id SessionID) IsZero() bool    { return id == SessionID{} }

// RoomID はルームを一意に識別するIDです。ゼロ値は「未指定」を表します。
type RoomID uuid.UUID

// DefaultRoomID はJoin時にルームが指定されなかった場合の割り当て先です。
var DefaultRoomID = RoomID(uuid.NewSHA1(uuid.NameSpaceURL, []byte("bmshooter:room:default")))

func (id RoomID) String() string { return uuid.UUID(id).String() }
func (id RoomID) IsEmpty() bool  { return id == RoomID{} }

// Session は1接続の論理的な接続状態を表す構造体です。
type Session struct {
	id SessionID

	// activity
	lastRead atomic.Int64
	lastPong atomic.Int64

	// lifecycle
	closed atomic.Bool
}

func NewSession() *Session {
	s := &Session{
		id: NewSessionID(),
	}
	now := time.Now().UnixNano()
	s.lastRead.Store(now)
	s.lastPong.Store(now)
	return s
}

func (s *Session) ID() SessionID { return s.id }

func (s *Session) TouchRead() {
	s.lastRead.Store(time.Now().UnixNano())
}

func (s *Session) TouchPong() {
	s.lastPong.Store(time.Now().UnixNano())
}

// Close はセッションを閉じます。既に閉じていた場合はfalseを返します。
func (s *Session) Close() bool {
	return s.closed.CompareAndSwap(false, true)
}

// IsIdle は読み込みかpongがtimeoutより長く途絶えているかを返します。
func (s *Session) IsIdle(timeout time.Duration) (bool, IdleReason) {
	if timeout <= 0 {
		return false, IdleDisabled
	}
	var reason IdleReason
	if s.IsReadIdle(timeout) {
		reason |= IdleRead
	}
	if s.IsPongIdle(timeout) {
		reason |= IdlePong
	}
	return reason != IdleNone, reason
}

func (s *Session) IsReadIdle(timeout time.Duration) bool {
	return isIdleSince(unixNanoToTime(s.lastRead.Load()), timeout)
}

func (s *Session) IsPongIdle(timeout time.Duration) bool {
	return isIdleSince(unixNanoToTime(s.lastPong.Load()), timeout)
}

func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

func isIdleSince(last time.Time, timeout time.Duration) bool {
	return time.Since(last) > timeout
}

func unixNanoToTime(nano int64) time.Time {
	return time.Unix(0, nano)
}
