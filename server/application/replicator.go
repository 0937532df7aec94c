package application

import (
	"context"

	"bmshooter/server/domain"
)

// Replicator は正本の状態変化を観測者へ送る経路です。
// 体力・死亡・位置は後勝ちで最終的に届き、照準とエフェクトは届かなくてもよい。
type Replicator interface {
	HealthReplicator
	DeathReplicator
	ReplicateTransform(ctx context.Context, entity EntityID, location domain.Vec3)
	RelayPitch(ctx context.Context, entity EntityID, rotation domain.Rotator)
	MulticastShootEffects(ctx context.Context, entity EntityID)
	Despawn(ctx context.Context, entity EntityID)
}

// replicationQueue はtick中の複製をフレームとして貯め、Tickの戻り値として吐き出します。
// エンティティごとにリビジョンを振り、観測者はそれで古い値を捨てます。
type replicationQueue struct {
	revisions map[EntityID]uint32
	pending   []domain.Outbound
	// pitchIndex は同一tick内の照準中継を最新値に畳み込むための位置です。
	pitchIndex map[EntityID]int
}

var _ Replicator = (*replicationQueue)(nil)

func newReplicationQueue() *replicationQueue {
	return &replicationQueue{
		revisions:  make(map[EntityID]uint32),
		pitchIndex: make(map[EntityID]int),
	}
}

func (q *replicationQueue) nextRevision(entity EntityID) uint32 {
	q.revisions[entity]++
	return q.revisions[entity]
}

func (q *replicationQueue) push(data []byte) {
	q.pending = append(q.pending, domain.Outbound{Data: data})
}

func (q *replicationQueue) ReplicateHealth(ctx context.Context, entity EntityID, current, max float32) {
	rep := domain.HealthReplication{
		Entity:   entity,
		Revision: q.nextRevision(entity),
		Current:  current,
		Max:      max,
	}
	q.push(domain.EncodeReplication(domain.ReplicateSubTypeHealth, rep.Encode()))
}

func (q *replicationQueue) ReplicateDeath(ctx context.Context, entity EntityID, dead bool) {
	rep := domain.DeathReplication{
		Entity:   entity,
		Revision: q.nextRevision(entity),
		Dead:     dead,
	}
	q.push(domain.EncodeReplication(domain.ReplicateSubTypeDeath, rep.Encode()))
}

func (q *replicationQueue) ReplicateTransform(ctx context.Context, entity EntityID, location domain.Vec3) {
	rep := domain.TransformReplication{
		Entity:   entity,
		Revision: q.nextRevision(entity),
		Location: location,
	}
	q.push(domain.EncodeReplication(domain.ReplicateSubTypeTransform, rep.Encode()))
}

func (q *replicationQueue) RelayPitch(ctx context.Context, entity EntityID, rotation domain.Rotator) {
	rep := domain.PitchReplication{Entity: entity, Rotation: rotation}
	data := domain.EncodeReplication(domain.ReplicateSubTypePitch, rep.Encode())
	if i, ok := q.pitchIndex[entity]; ok {
		q.pending[i].Data = data
		return
	}
	q.pitchIndex[entity] = len(q.pending)
	q.push(data)
}

func (q *replicationQueue) MulticastShootEffects(ctx context.Context, entity EntityID) {
	ev := domain.EntityEvent{Entity: entity}
	q.push(domain.EncodeReplication(domain.ReplicateSubTypeShootEffects, ev.Encode()))
}

func (q *replicationQueue) Despawn(ctx context.Context, entity EntityID) {
	ev := domain.EntityEvent{Entity: entity}
	// 消えたエンティティはスナップショットに載らないので取りこぼすと残り続ける
	q.pending = append(q.pending, domain.Outbound{
		Data:     domain.EncodeReplication(domain.ReplicateSubTypeDespawn, ev.Encode()),
		Reliable: true,
	})
	delete(q.revisions, entity)
}

// snapshot は1キャラクターの現在の状態をまとめて宛先toへ送るフレームを作ります。
func (q *replicationQueue) snapshot(to EntityID, c *Character) []domain.Outbound {
	transform := domain.TransformReplication{Entity: c.ID, Revision: q.nextRevision(c.ID), Location: c.Location()}
	health := domain.HealthReplication{
		Entity:   c.ID,
		Revision: q.nextRevision(c.ID),
		Current:  c.Health.GetCurrentHealth(),
		Max:      c.Health.GetMaxHealth(),
	}
	death := domain.DeathReplication{Entity: c.ID, Revision: q.nextRevision(c.ID), Dead: c.Death.IsDead()}
	pitch := domain.PitchReplication{Entity: c.ID, Rotation: c.Aim()}
	return []domain.Outbound{
		{To: to, Data: domain.EncodeReplication(domain.ReplicateSubTypeTransform, transform.Encode())},
		{To: to, Data: domain.EncodeReplication(domain.ReplicateSubTypeHealth, health.Encode())},
		{To: to, Data: domain.EncodeReplication(domain.ReplicateSubTypeDeath, death.Encode())},
		{To: to, Data: domain.EncodeReplication(domain.ReplicateSubTypePitch, pitch.Encode())},
	}
}

func (q *replicationQueue) enqueue(frames ...domain.Outbound) {
	q.pending = append(q.pending, frames...)
}

// drain は貯まったフレームを返して空にします。
func (q *replicationQueue) drain() []domain.Outbound {
	out := q.pending
	q.pending = nil
	clear(q.pitchIndex)
	return out
}
