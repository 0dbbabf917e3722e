package server

import (
	"encoding/binary"
	"errors"
	"math"
	"reflect"
	"testing"
)

func sampleWorldState() WorldState {
	return WorldState{
		Planets: []Planet{
			{
				Size: 87.5,
				Colors: [3]Color{
					{R: 10, G: 20, B: 30},
					{R: 40, G: 50, B: 60},
					{R: 70, G: 80, B: 90},
				},
				ModuleType: 3,
				Position:   Vector3{X: 512.25, Y: -42, Z: 318.5},
			},
			{
				Size: 149.0,
				Colors: [3]Color{
					{R: 255, G: 0, B: 128},
					{R: 1, G: 2, B: 3},
					{R: 200, G: 100, B: 50},
				},
				ModuleType: 0,
				Position:   Vector3{X: -600, Y: 99.5, Z: 0},
			},
		},
		Players: []Player{
			{ID: 0, Name: "Player_50312", Level: 1, Position: Vector3{}},
			{ID: 1, Name: "Player_50313", Level: 4, Position: Vector3{X: 1.5, Y: -2.25, Z: 0}},
		},
		SpawnPoint: Vector3{},
	}
}

// TestWorldStateRoundTrip verifies that decoding an encoded snapshot
// reproduces the original state field for field.
func TestWorldStateRoundTrip(t *testing.T) {
	original := sampleWorldState()

	decoded, err := DecodeWorldState(EncodeWorldState(original))
	if err != nil {
		t.Fatalf("DecodeWorldState failed: %v", err)
	}

	if !reflect.DeepEqual(original, decoded) {
		t.Errorf("Round trip mismatch:\n got %+v\nwant %+v", decoded, original)
	}
}

// TestWorldStateRoundTripGenerated runs the round trip against a freshly
// generated world with registered players, so random planet data passes
// through the codec too.
func TestWorldStateRoundTripGenerated(t *testing.T) {
	world := NewWorld(WorldConfig{PlanetCount: 10})
	world.AddPlayer("conn-a", "Player_1001")
	world.AddPlayer("conn-b", "Player_1002")
	world.UpdatePosition("conn-b", Vector3{X: 3, Y: 4, Z: 5})

	original := world.Snapshot()
	decoded, err := DecodeWorldState(EncodeWorldState(original))
	if err != nil {
		t.Fatalf("DecodeWorldState failed: %v", err)
	}

	if !reflect.DeepEqual(original, decoded) {
		t.Errorf("Round trip mismatch:\n got %+v\nwant %+v", decoded, original)
	}
}

// TestWorldStateRoundTripEmpty covers the zero-participant snapshot every
// first connection receives.
func TestWorldStateRoundTripEmpty(t *testing.T) {
	original := WorldState{SpawnPoint: Vector3{X: 0, Y: 0, Z: 0}}

	decoded, err := DecodeWorldState(EncodeWorldState(original))
	if err != nil {
		t.Fatalf("DecodeWorldState failed: %v", err)
	}
	if len(decoded.Planets) != 0 || len(decoded.Players) != 0 {
		t.Errorf("Expected empty world, got %d planets and %d players", len(decoded.Planets), len(decoded.Players))
	}
}

// TestDecodePositionUpdate checks the fixed 12-byte little-endian float
// layout against hand-built bytes.
func TestDecodePositionUpdate(t *testing.T) {
	payload := make([]byte, 12)
	binary.LittleEndian.PutUint32(payload[0:4], math.Float32bits(1.5))
	binary.LittleEndian.PutUint32(payload[4:8], math.Float32bits(-2.25))
	binary.LittleEndian.PutUint32(payload[8:12], math.Float32bits(0.0))

	pos, err := DecodePositionUpdate(payload)
	if err != nil {
		t.Fatalf("DecodePositionUpdate failed: %v", err)
	}

	want := Vector3{X: 1.5, Y: -2.25, Z: 0.0}
	if pos != want {
		t.Errorf("Decoded %+v, want %+v", pos, want)
	}
}

// TestDecodePositionUpdateWrongLength verifies that 11 and 13 byte
// payloads fail with ErrInvalidLength.
func TestDecodePositionUpdateWrongLength(t *testing.T) {
	for _, size := range []int{0, 11, 13} {
		if _, err := DecodePositionUpdate(make([]byte, size)); !errors.Is(err, ErrInvalidLength) {
			t.Errorf("Size %d: expected ErrInvalidLength, got %v", size, err)
		}
	}
}

// TestDecodeWorldStateCorrupt verifies truncated payloads, trailing
// garbage, and implausible name lengths all surface ErrCorruptPayload.
func TestDecodeWorldStateCorrupt(t *testing.T) {
	valid := EncodeWorldState(sampleWorldState())

	truncated := valid[:len(valid)-5]
	if _, err := DecodeWorldState(truncated); !errors.Is(err, ErrCorruptPayload) {
		t.Errorf("Truncated payload: expected ErrCorruptPayload, got %v", err)
	}

	trailing := append(append([]byte(nil), valid...), 0xDE, 0xAD)
	if _, err := DecodeWorldState(trailing); !errors.Is(err, ErrCorruptPayload) {
		t.Errorf("Trailing bytes: expected ErrCorruptPayload, got %v", err)
	}

	// A payload that declares a huge player name must fail before
	// allocating.
	bogus := make([]byte, 0, 16)
	bogus = appendUint32(bogus, 0)          // no planets
	bogus = appendUint32(bogus, 1)          // one player
	bogus = appendUint32(bogus, 7)          // id
	bogus = appendUint32(bogus, 0xFFFFFFFF) // absurd name length
	if _, err := DecodeWorldState(bogus); !errors.Is(err, ErrCorruptPayload) {
		t.Errorf("Bogus name length: expected ErrCorruptPayload, got %v", err)
	}

	if _, err := DecodeWorldState(nil); !errors.Is(err, ErrCorruptPayload) {
		t.Errorf("Empty payload: expected ErrCorruptPayload, got %v", err)
	}
}

// TestEncodePositionUpdateMatchesDecoder keeps the client-side encoder and
// the server-side decoder on the same 12-byte layout.
func TestEncodePositionUpdateMatchesDecoder(t *testing.T) {
	want := Vector3{X: 12.5, Y: -0.25, Z: 7}
	payload := EncodePositionUpdate(want)

	if len(payload) != positionUpdateSize {
		t.Fatalf("Encoded %d bytes, want %d", len(payload), positionUpdateSize)
	}
	got, err := DecodePositionUpdate(payload)
	if err != nil {
		t.Fatalf("DecodePositionUpdate failed: %v", err)
	}
	if got != want {
		t.Errorf("Decoded %+v, want %+v", got, want)
	}
}
