package domain

import (
	"errors"
	"math"
)

// ReplicateSubType はreplicateメッセージのサブタイプ (サーバー → 全クライアント)
type ReplicateSubType uint8

const (
	ReplicateSubTypeHealth       ReplicateSubType = 1
	ReplicateSubTypeDeath        ReplicateSubType = 2
	ReplicateSubTypePitch        ReplicateSubType = 3
	ReplicateSubTypeTransform    ReplicateSubType = 4
	ReplicateSubTypeShootEffects ReplicateSubType = 5
	ReplicateSubTypeDespawn      ReplicateSubType = 6
)

const (
	EntityIDSize               = 16
	HealthReplicationSize      = EntityIDSize + 4 + 4 + 4
	DeathReplicationSize       = EntityIDSize + 4 + 1
	PitchReplicationSize       = EntityIDSize + RotatorSize
	TransformReplicationSize   = EntityIDSize + 4 + Vec3Size
	EntityEventReplicationSize = EntityIDSize
)

var ErrInvalidReplicationSize = errors.New("invalid replication payload size")

// HealthReplication は体力の複製値 (28バイト)
//
//	entity   [16]byte (16)
//	revision u32      (4) - エンティティ単位で単調増加
//	current  f32      (4)
//	max      f32      (4)
type HealthReplication struct {
	Entity   SessionID
	Revision uint32
	Current  float32
	Max      float32
}

func ParseHealthReplication(data []byte) (*HealthReplication, error) {
	if len(data) < HealthReplicationSize {
		return nil, ErrInvalidReplicationSize
	}
	return &HealthReplication{
		Entity:   parseEntity(data),
		Revision: byteOrder.Uint32(data[16:20]),
		Current:  math.Float32frombits(byteOrder.Uint32(data[20:24])),
		Max:      math.Float32frombits(byteOrder.Uint32(data[24:28])),
	}, nil
}

func (h *HealthReplication) Encode() []byte {
	buf := make([]byte, HealthReplicationSize)
	copy(buf[0:16], h.Entity[:])
	byteOrder.PutUint32(buf[16:20], h.Revision)
	byteOrder.PutUint32(buf[20:24], math.Float32bits(h.Current))
	byteOrder.PutUint32(buf[24:28], math.Float32bits(h.Max))
	return buf
}

// DeathReplication は死亡フラグの複製値 (21バイト)
//
//	entity   [16]byte (16)
//	revision u32      (4)
//	dead     u8       (1)
type DeathReplication struct {
	Entity   SessionID
	Revision uint32
	Dead     bool
}

func ParseDeathReplication(data []byte) (*DeathReplication, error) {
	if len(data) < DeathReplicationSize {
		return nil, ErrInvalidReplicationSize
	}
	return &DeathReplication{
		Entity:   parseEntity(data),
		Revision: byteOrder.Uint32(data[16:20]),
		Dead:     data[20] != 0,
	}, nil
}

func (d *DeathReplication) Encode() []byte {
	buf := make([]byte, DeathReplicationSize)
	copy(buf[0:16], d.Entity[:])
	byteOrder.PutUint32(buf[16:20], d.Revision)
	if d.Dead {
		buf[20] = 1
	}
	return buf
}

// PitchReplication は照準姿勢の中継 (28バイト)。リビジョンは持たず、届かなくてもよい。
type PitchReplication struct {
	Entity   SessionID
	Rotation Rotator
}

func ParsePitchReplication(data []byte) (*PitchReplication, error) {
	if len(data) < PitchReplicationSize {
		return nil, ErrInvalidReplicationSize
	}
	rot, _ := ParseRotator(data[16:])
	return &PitchReplication{
		Entity:   parseEntity(data),
		Rotation: *rot,
	}, nil
}

func (p *PitchReplication) Encode() []byte {
	buf := make([]byte, 0, PitchReplicationSize)
	buf = append(buf, p.Entity[:]...)
	buf = append(buf, p.Rotation.Encode()...)
	return buf
}

// TransformReplication は位置の複製値 (32バイト)
type TransformReplication struct {
	Entity   SessionID
	Revision uint32
	Location Vec3
}

func ParseTransformReplication(data []byte) (*TransformReplication, error) {
	if len(data) < TransformReplicationSize {
		return nil, ErrInvalidReplicationSize
	}
	loc, _ := ParseVec3(data[20:])
	return &TransformReplication{
		Entity:   parseEntity(data),
		Revision: byteOrder.Uint32(data[16:20]),
		Location: *loc,
	}, nil
}

func (t *TransformReplication) Encode() []byte {
	buf := make([]byte, 20, TransformReplicationSize)
	copy(buf[0:16], t.Entity[:])
	byteOrder.PutUint32(buf[16:20], t.Revision)
	return append(buf, t.Location.Encode()...)
}

// EntityEvent はエンティティIDのみを持つイベント (ShootEffects / Despawn)
type EntityEvent struct {
	Entity SessionID
}

func ParseEntityEvent(data []byte) (*EntityEvent, error) {
	if len(data) < EntityEventReplicationSize {
		return nil, ErrInvalidReplicationSize
	}
	return &EntityEvent{Entity: parseEntity(data)}, nil
}

func (e *EntityEvent) Encode() []byte {
	buf := make([]byte, EntityIDSize)
	copy(buf, e.Entity[:])
	return buf
}

// EncodeReplication はサーバー発のreplicateメッセージをエンコードする
// ヘッダーのsessionIDはゼロ（サーバー）になる
func EncodeReplication(subType ReplicateSubType, payload []byte) []byte {
	return EncodeMessage(SessionID{}, 0, DataTypeReplicate, uint8(subType), payload)
}

func parseEntity(data []byte) SessionID {
	var b [16]byte
	copy(b[:], data[:EntityIDSize])
	return SessionIDFromBytes(b)
}
