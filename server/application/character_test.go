package application

import (
	"context"
	"math"
	"testing"

	"bmshooter/server/domain"
)

func TestCharacter_MoveTo(t *testing.T) {
	ctx := context.Background()
	q := newReplicationQueue()
	c := NewCharacter(domain.NewSessionID(), RoleAuthority, false, DefaultCharacterConfig(), CharacterDeps{
		Timers:     NewTimers(),
		Replicator: q,
	})

	if !c.MoveTo(ctx, domain.Vec3{X: 10, Y: 20, Z: 30}) {
		t.Fatal("MoveTo should accept a finite location")
	}
	if got := c.Location(); got != (domain.Vec3{X: 10, Y: 20, Z: 30}) {
		t.Errorf("Location() = %+v", got)
	}
	if c.MoveTo(ctx, domain.Vec3{X: float32(math.NaN())}) {
		t.Error("MoveTo should reject NaN")
	}

	c.Health.Damage(ctx, DefaultMaxHealth)
	if c.MoveTo(ctx, domain.Vec3{X: 99}) {
		t.Error("MoveTo should be ignored while dead")
	}
	if got := c.Location(); got.X != 10 {
		t.Errorf("dead character moved to %+v", got)
	}

	frames := q.drain()
	if len(frames) == 0 {
		t.Fatal("expected replicated frames")
	}
	_, ph, payload, err := domain.ParseMessage(frames[0].Data)
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}
	if domain.ReplicateSubType(ph.SubType) != domain.ReplicateSubTypeTransform {
		t.Fatalf("first frame subtype = %d, want transform", ph.SubType)
	}
	rep, err := domain.ParseTransformReplication(payload)
	if err != nil {
		t.Fatalf("ParseTransformReplication() error = %v", err)
	}
	if rep.Entity != c.ID || rep.Location.X != 10 {
		t.Errorf("transform = %+v", rep)
	}
}

func TestCharacter_PitchRelay(t *testing.T) {
	ctx := context.Background()
	q := newReplicationQueue()
	id := domain.NewSessionID()
	server := NewCharacter(id, RoleAuthority, false, DefaultCharacterConfig(), CharacterDeps{
		Timers:     NewTimers(),
		Replicator: q,
	})
	owner := NewCharacter(id, RoleObserver, true, DefaultCharacterConfig(), CharacterDeps{})
	remote := NewCharacter(id, RoleObserver, false, DefaultCharacterConfig(), CharacterDeps{})

	owner.SetLocalAim(domain.Rotator{Pitch: 5, Yaw: 90})
	server.CorrectPitch(ctx, domain.Rotator{Pitch: 10, Yaw: 45})
	server.CorrectPitch(ctx, domain.Rotator{Pitch: 20, Yaw: 45})

	frames := q.drain()
	// 同一tick内の照準は最新値の1フレームに畳み込まれる
	if len(frames) != 1 {
		t.Fatalf("frames = %d, want 1", len(frames))
	}
	_, _, payload, err := domain.ParseMessage(frames[0].Data)
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}
	rep, err := domain.ParsePitchReplication(payload)
	if err != nil {
		t.Fatalf("ParsePitchReplication() error = %v", err)
	}
	if rep.Rotation.Pitch != 20 {
		t.Errorf("relayed pitch = %v, want 20", rep.Rotation.Pitch)
	}

	owner.ApplyReplicatedPitch(rep.Rotation)
	remote.ApplyReplicatedPitch(rep.Rotation)

	if got := owner.Aim(); got.Pitch != 5 {
		t.Errorf("owner aim = %+v, own relay should be ignored", got)
	}
	if got := remote.Aim(); got.Pitch != 20 {
		t.Errorf("remote aim = %+v, want pitch 20", got)
	}
}

func TestCharacter_ObserverCannotCorrectPitch(t *testing.T) {
	c := NewCharacter(domain.NewSessionID(), RoleObserver, false, DefaultCharacterConfig(), CharacterDeps{})
	c.CorrectPitch(context.Background(), domain.Rotator{Pitch: 30})
	if got := c.Aim(); got.Pitch != 0 {
		t.Errorf("observer aim = %+v, want unchanged", got)
	}
}

func TestCharacter_MuzzleLocation(t *testing.T) {
	ctx := context.Background()
	c := NewCharacter(domain.NewSessionID(), RoleAuthority, false, DefaultCharacterConfig(), CharacterDeps{Timers: NewTimers()})
	c.Teleport(ctx, domain.Vec3{X: 100, Y: 0, Z: 0})
	c.CorrectPitch(ctx, domain.Rotator{Yaw: 0})

	got := c.MuzzleLocation()
	want := domain.Vec3{X: 100 + MuzzleOffset, Y: 0, Z: EyeHeight}
	if d := got.Sub(want).Length(); d > 1e-3 {
		t.Errorf("MuzzleLocation() = %+v, want %+v", got, want)
	}
}
