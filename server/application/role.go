package application

import "bmshooter/server/domain"

// EntityID はキャラクターを識別するIDです。所有セッションのIDをそのまま使います。
type EntityID = domain.SessionID

// Role はこのプロセスが状態の決定権を持つかどうかを表します。
// すべての状態変更はRoleで分岐し、グローバルな文脈には依存しません。
type Role uint8

const (
	// RoleAuthority はサーバー側の正本です。
	RoleAuthority Role = iota + 1
	// RoleObserver は複製値を受け取るだけの読み取り専用ミラーです。
	RoleObserver
)

func (r Role) String() string {
	switch r {
	case RoleAuthority:
		return "authority"
	case RoleObserver:
		return "observer"
	default:
		return "unknown"
	}
}

// DamageKind はダメージ・回復の発生源の種別です。
type DamageKind uint8

const (
	DamageKindUnknown DamageKind = iota
	DamageKindProjectile
	DamageKindHeal
	DamageKindRespawn
)

func (k DamageKind) String() string {
	switch k {
	case DamageKindProjectile:
		return "projectile"
	case DamageKindHeal:
		return "heal"
	case DamageKindRespawn:
		return "respawn"
	default:
		return "unknown"
	}
}

// Cause はダメージの原因です。コアでは解釈せず、通知にそのまま載せます。
type Cause struct {
	Kind       DamageKind
	Instigator EntityID // 攻撃したキャラクター。不明ならゼロ値
	Causer     uint32   // 弾丸IDなど
}
