package application

import (
	"context"
	"log/slog"
	"math"
)

// HealthReplicator は体力の正本が変わるたびに観測者への複製を予約します。
type HealthReplicator interface {
	ReplicateHealth(ctx context.Context, entity EntityID, current, max float32)
}

// HealthChange は体力変更通知の内容です。
type HealthChange struct {
	Entity   EntityID
	Previous float32
	Current  float32
	Max      float32
	Cause    Cause
	// Replicated は複製値の受信による通知のときtrueです。
	Replicated bool
}

// HealthListener は体力変更通知を受け取る関数です。
type HealthListener func(ctx context.Context, change HealthChange)

type listenerEntry struct {
	id uint64
	fn HealthListener
}

// HealthOption はHealthComponentの生成オプションです。
type HealthOption func(*HealthComponent)

// WithHealthReplicator は正本の変更を複製するReplicatorを設定します。
func WithHealthReplicator(r HealthReplicator) HealthOption {
	return func(h *HealthComponent) { h.replicator = r }
}

// WithLocallyControlled はこのエンティティがローカルで操作されていることを示します。ログの文言だけが変わります。
func WithLocallyControlled(locallyControlled bool) HealthOption {
	return func(h *HealthComponent) { h.locallyControlled = locallyControlled }
}

// WithReplicatedNotify は観測者側で複製値を受信したときにも変更通知を発火させます。
// 既定では受信時はログのみで、通知は発火しません。
func WithReplicatedNotify() HealthOption {
	return func(h *HealthComponent) { h.notifyOnReplicate = true }
}

// HealthComponent はエンティティ1体の体力を保持します。
// 常に 0 <= current <= max が成り立ち、正本（RoleAuthority）だけが書き換えられます。
type HealthComponent struct {
	entity            EntityID
	role              Role
	locallyControlled bool
	notifyOnReplicate bool

	maxHealth     float32
	currentHealth float32

	replicator   HealthReplicator
	listeners    []listenerEntry
	nextListener uint64
}

func NewHealthComponent(entity EntityID, role Role, maxHealth float32, opts ...HealthOption) *HealthComponent {
	if maxHealth <= 0 || math.IsNaN(float64(maxHealth)) || math.IsInf(float64(maxHealth), 0) {
		maxHealth = DefaultMaxHealth
	}
	h := &HealthComponent{
		entity:        entity,
		role:          role,
		maxHealth:     maxHealth,
		currentHealth: maxHealth,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe は変更通知のリスナーを登録し、登録解除用の関数を返します。
func (h *HealthComponent) Subscribe(fn HealthListener) (unsubscribe func()) {
	h.nextListener++
	id := h.nextListener
	h.listeners = append(h.listeners, listenerEntry{id: id, fn: fn})
	return func() {
		for i, l := range h.listeners {
			if l.id == id {
				h.listeners = append(h.listeners[:i:i], h.listeners[i+1:]...)
				return
			}
		}
	}
}

func (h *HealthComponent) GetMaxHealth() float32     { return h.maxHealth }
func (h *HealthComponent) GetCurrentHealth() float32 { return h.currentHealth }

// GetNormalizedHealth は current / max を返します。
func (h *HealthComponent) GetNormalizedHealth() float32 {
	return h.currentHealth / h.maxHealth
}

// SetCurrentHealth は体力を [0, max] にクランプして設定します。
// 正本以外から呼ばれた場合は何もしません。
func (h *HealthComponent) SetCurrentHealth(ctx context.Context, value float32) {
	h.set(ctx, value, Cause{})
}

func (h *HealthComponent) Heal(ctx context.Context, amount float32) {
	h.set(ctx, h.currentHealth+amount, Cause{Kind: DamageKindHeal})
}

func (h *HealthComponent) Damage(ctx context.Context, amount float32) {
	h.set(ctx, h.currentHealth-amount, Cause{})
}

// TakeDamage はDamageと同じですが、原因を通知に載せます。
func (h *HealthComponent) TakeDamage(ctx context.Context, amount float32, cause Cause) {
	h.set(ctx, h.currentHealth-amount, cause)
}

// ResetHealth は体力を最大値に戻します。リスポーン処理からのみ使います。
func (h *HealthComponent) ResetHealth(ctx context.Context) {
	h.set(ctx, h.maxHealth, Cause{Kind: DamageKindRespawn})
}

func (h *HealthComponent) set(ctx context.Context, value float32, cause Cause) {
	if h.role != RoleAuthority {
		return
	}
	// NaNは比較で弾けないので現在値のまま扱う
	if math.IsNaN(float64(value)) {
		value = h.currentHealth
	}
	previous := h.currentHealth
	h.currentHealth = clamp(value, 0, h.maxHealth)

	if h.locallyControlled {
		slog.DebugContext(ctx, "you now have health remaining", "health", h.currentHealth)
	} else {
		slog.DebugContext(ctx, "server: health updated", "entity", h.entity, "health", h.currentHealth, "cause", cause.Kind)
	}

	if h.replicator != nil {
		h.replicator.ReplicateHealth(ctx, h.entity, h.currentHealth, h.maxHealth)
	}
	// 値が変わっていなくても毎回通知する
	h.notify(ctx, HealthChange{
		Entity:   h.entity,
		Previous: previous,
		Current:  h.currentHealth,
		Max:      h.maxHealth,
		Cause:    cause,
	})
}

// ApplyReplicatedHealth は観測者側で複製値を受信したときに呼びます。正本では何もしません。
func (h *HealthComponent) ApplyReplicatedHealth(ctx context.Context, value float32) {
	if h.role == RoleAuthority {
		return
	}
	if math.IsNaN(float64(value)) {
		return
	}
	previous := h.currentHealth
	h.currentHealth = clamp(value, 0, h.maxHealth)

	if h.locallyControlled {
		slog.DebugContext(ctx, "you now have health remaining", "health", h.currentHealth)
	} else {
		slog.DebugContext(ctx, "replicated health received", "entity", h.entity, "health", h.currentHealth)
	}
	if !h.notifyOnReplicate {
		return
	}
	h.notify(ctx, HealthChange{
		Entity:     h.entity,
		Previous:   previous,
		Current:    h.currentHealth,
		Max:        h.maxHealth,
		Replicated: true,
	})
}

// applyReplicatedMax は観測者側で最大体力を正本の値に合わせます。
// 観測者のキャラクターは体力より先に位置のフレームで作られることがあるためです。
func (h *HealthComponent) applyReplicatedMax(max float32) {
	if h.role == RoleAuthority {
		return
	}
	if max <= 0 || math.IsNaN(float64(max)) || math.IsInf(float64(max), 0) {
		return
	}
	h.maxHealth = max
	h.currentHealth = clamp(h.currentHealth, 0, max)
}

func (h *HealthComponent) notify(ctx context.Context, change HealthChange) {
	// リスナー内での登録解除に備えてコピーしてから呼ぶ
	listeners := make([]listenerEntry, len(h.listeners))
	copy(listeners, h.listeners)
	for _, l := range listeners {
		l.fn(ctx, change)
	}
}

func clamp(v, min, max float32) float32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
