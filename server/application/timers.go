package application

import (
	"context"
	"sort"
	"time"
)

// TimerKind はエンティティごとのタイマーの用途です。
type TimerKind uint8

const (
	TimerRespawn TimerKind = iota + 1
)

// TimerKey はタイマーを一意に決めるキーです。同じキーのタイマーは同時に1つしか存在しません。
type TimerKey struct {
	Entity EntityID
	Kind   TimerKind
}

type timerEntry struct {
	due time.Duration
	seq uint64
	fn  func(ctx context.Context)
}

// Timers はRoomのtickで進む一回限りのタイマー群です。
// Roomのゴルーチンからのみ操作される前提で、ロックは持ちません。
type Timers struct {
	now     time.Duration
	seq     uint64
	entries map[TimerKey]*timerEntry
}

func NewTimers() *Timers {
	return &Timers{
		entries: make(map[TimerKey]*timerEntry),
	}
}

// TimerHandle はAfterFuncで登録したタイマーへの参照です。
// 同じキーで再登録されると古いハンドルは無効になります。
type TimerHandle struct {
	timers *Timers
	key    TimerKey
	seq    uint64
}

// AfterFunc はdelay経過後に一度だけfnを呼びます。同じキーの既存タイマーは置き換えられます。
func (t *Timers) AfterFunc(key TimerKey, delay time.Duration, fn func(ctx context.Context)) TimerHandle {
	if delay < 0 {
		delay = 0
	}
	t.seq++
	t.entries[key] = &timerEntry{due: t.now + delay, seq: t.seq, fn: fn}
	return TimerHandle{timers: t, key: key, seq: t.seq}
}

// Stop はタイマーを取り消します。まだ発火していなければtrueを返します。
func (h TimerHandle) Stop() bool {
	if !h.Pending() {
		return false
	}
	delete(h.timers.entries, h.key)
	return true
}

// Pending はタイマーがまだ発火も取り消しもされていない場合にtrueを返します。
func (h TimerHandle) Pending() bool {
	if h.timers == nil {
		return false
	}
	e, ok := h.timers.entries[h.key]
	return ok && e.seq == h.seq
}

// Remaining は発火までの残り時間を返します。
func (h TimerHandle) Remaining() time.Duration {
	if !h.Pending() {
		return 0
	}
	return h.timers.entries[h.key].due - h.timers.now
}

// CancelEntity はエンティティに紐づく全タイマーを取り消します。破棄時に呼びます。
func (t *Timers) CancelEntity(entity EntityID) {
	for key := range t.entries {
		if key.Entity == entity {
			delete(t.entries, key)
		}
	}
}

// Len は未発火のタイマー数を返します。
func (t *Timers) Len() int {
	return len(t.entries)
}

// Advance は時刻をdt進め、期限を迎えたタイマーを期限順に発火させます。
func (t *Timers) Advance(ctx context.Context, dt time.Duration) {
	t.now += dt

	type dueTimer struct {
		key   TimerKey
		entry *timerEntry
	}
	var due []dueTimer
	for key, e := range t.entries {
		if e.due <= t.now {
			due = append(due, dueTimer{key: key, entry: e})
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].entry.due != due[j].entry.due {
			return due[i].entry.due < due[j].entry.due
		}
		return due[i].entry.seq < due[j].entry.seq
	})
	for _, d := range due {
		// 先に発火したコールバックが取り消し・再登録していれば飛ばす
		if cur, ok := t.entries[d.key]; !ok || cur.seq != d.entry.seq {
			continue
		}
		delete(t.entries, d.key)
		d.entry.fn(ctx)
	}
}
