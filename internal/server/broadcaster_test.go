package server

import (
	"testing"
	"time"
)

// TestBroadcasterPublishesSnapshots verifies the tick loop delivers
// decodable snapshot frames to a subscriber and stops cleanly.
func TestBroadcasterPublishesSnapshots(t *testing.T) {
	world := NewWorld(WorldConfig{PlanetCount: 3})
	world.AddPlayer("conn-a", "Player_1")
	hub := NewHub(world)
	go hub.Run()

	client := newTestClient(16)
	hub.subscribe(client)

	stop := StartBroadcaster(hub, 5*time.Millisecond)

	f := receiveFrame(t, client)
	state, err := DecodeWorldState(f.data)
	if err != nil {
		t.Fatalf("Broadcast frame did not decode: %v", err)
	}
	if len(state.Planets) != 3 {
		t.Errorf("Snapshot has %d planets, want 3", len(state.Planets))
	}
	if len(state.Players) != 1 {
		t.Errorf("Snapshot has %d players, want 1", len(state.Players))
	}

	stop()
	if err := hub.Shutdown(time.Second); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}
