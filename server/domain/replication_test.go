package domain

import "testing"

func TestHealthReplicationRoundTrip(t *testing.T) {
	original := &HealthReplication{
		Entity:   NewSessionID(),
		Revision: 7,
		Current:  42.5,
		Max:      100,
	}

	encoded := original.Encode()
	if len(encoded) != HealthReplicationSize {
		t.Fatalf("encoded size = %d, want %d", len(encoded), HealthReplicationSize)
	}
	decoded, err := ParseHealthReplication(encoded)
	if err != nil {
		t.Fatalf("ParseHealthReplication failed: %v", err)
	}
	if *decoded != *original {
		t.Errorf("decoded = %+v, want %+v", decoded, original)
	}
}

func TestDeathReplicationRoundTrip(t *testing.T) {
	for _, dead := range []bool{true, false} {
		original := &DeathReplication{Entity: NewSessionID(), Revision: 3, Dead: dead}
		decoded, err := ParseDeathReplication(original.Encode())
		if err != nil {
			t.Fatalf("ParseDeathReplication failed: %v", err)
		}
		if *decoded != *original {
			t.Errorf("decoded = %+v, want %+v", decoded, original)
		}
	}
}

func TestTransformReplicationRoundTrip(t *testing.T) {
	original := &TransformReplication{
		Entity:   NewSessionID(),
		Revision: 1,
		Location: Vec3{X: 100, Y: -50, Z: 96},
	}
	encoded := original.Encode()
	if len(encoded) != TransformReplicationSize {
		t.Fatalf("encoded size = %d, want %d", len(encoded), TransformReplicationSize)
	}
	decoded, err := ParseTransformReplication(encoded)
	if err != nil {
		t.Fatalf("ParseTransformReplication failed: %v", err)
	}
	if *decoded != *original {
		t.Errorf("decoded = %+v, want %+v", decoded, original)
	}
}

func TestPitchReplicationRoundTrip(t *testing.T) {
	original := &PitchReplication{Entity: NewSessionID(), Rotation: Rotator{Pitch: 10, Yaw: 90}}
	decoded, err := ParsePitchReplication(original.Encode())
	if err != nil {
		t.Fatalf("ParsePitchReplication failed: %v", err)
	}
	if *decoded != *original {
		t.Errorf("decoded = %+v, want %+v", decoded, original)
	}
}

func TestEncodeReplication_ServerSessionID(t *testing.T) {
	ev := &EntityEvent{Entity: NewSessionID()}
	data := EncodeReplication(ReplicateSubTypeDespawn, ev.Encode())

	header, payloadHeader, payload, err := ParseMessage(data)
	if err != nil {
		t.Fatalf("ParseMessage failed: %v", err)
	}
	if !SessionIDFromBytes(header.SessionID).IsZero() {
		t.Errorf("server message should carry zero session ID")
	}
	if payloadHeader.DataType != DataTypeReplicate || ReplicateSubType(payloadHeader.SubType) != ReplicateSubTypeDespawn {
		t.Errorf("payload header = %+v", payloadHeader)
	}
	decoded, err := ParseEntityEvent(payload)
	if err != nil {
		t.Fatalf("ParseEntityEvent failed: %v", err)
	}
	if decoded.Entity != ev.Entity {
		t.Errorf("Entity = %s, want %s", decoded.Entity, ev.Entity)
	}
}

func TestParseReplication_TooShort(t *testing.T) {
	short := make([]byte, EntityIDSize-1)
	if _, err := ParseHealthReplication(short); err != ErrInvalidReplicationSize {
		t.Errorf("health: got %v", err)
	}
	if _, err := ParseDeathReplication(short); err != ErrInvalidReplicationSize {
		t.Errorf("death: got %v", err)
	}
	if _, err := ParseEntityEvent(short); err != ErrInvalidReplicationSize {
		t.Errorf("entity event: got %v", err)
	}
}
