package server

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

func newTestClient(queueSize int) *Client {
	return &Client{
		send:   make(chan frame, queueSize),
		connID: uuid.NewString(),
		addr:   "test-client",
		name:   "Player_test",
	}
}

func receiveFrame(t *testing.T, c *Client) frame {
	t.Helper()
	select {
	case f, ok := <-c.send:
		if !ok {
			t.Fatalf("Send queue closed while waiting for a frame")
		}
		return f
	case <-time.After(time.Second):
		t.Fatalf("Timed out waiting for a frame")
	}
	return frame{}
}

// TestFanOutDeliversToAllSubscribers verifies one publish reaches every
// subscriber with the exact payload.
func TestFanOutDeliversToAllSubscribers(t *testing.T) {
	hub := NewHub(NewWorld(WorldConfig{}))
	c1 := newTestClient(4)
	c2 := newTestClient(4)
	hub.subscribe(c1)
	hub.subscribe(c2)

	payload := []byte{1, 2, 3, 4}
	hub.fanOut(payload)

	for _, c := range []*Client{c1, c2} {
		f := receiveFrame(t, c)
		if f.messageType != websocket.BinaryMessage {
			t.Errorf("Frame type = %d, want binary", f.messageType)
		}
		if !bytes.Equal(f.data, payload) {
			t.Errorf("Frame data = %v, want %v", f.data, payload)
		}
	}
}

// TestFanOutSkipsEndedSession verifies a session that ended before the
// publish receives nothing and does not block delivery to the others.
func TestFanOutSkipsEndedSession(t *testing.T) {
	world := NewWorld(WorldConfig{})
	hub := NewHub(world)
	stayer := newTestClient(4)
	leaver := newTestClient(4)
	world.AddPlayer(stayer.connID, stayer.name)
	world.AddPlayer(leaver.connID, leaver.name)
	hub.subscribe(stayer)
	hub.subscribe(leaver)

	hub.endSession(leaver)
	hub.fanOut([]byte{9, 9, 9})

	if f := receiveFrame(t, stayer); !bytes.Equal(f.data, []byte{9, 9, 9}) {
		t.Errorf("Remaining subscriber got %v", f.data)
	}
	if _, ok := <-leaver.send; ok {
		t.Errorf("Ended session still received a frame")
	}
}

// TestFanOutNeverBlocksOnFullQueue verifies the publisher drops the frame
// for a saturated subscriber instead of blocking.
func TestFanOutNeverBlocksOnFullQueue(t *testing.T) {
	hub := NewHub(NewWorld(WorldConfig{}))
	slow := newTestClient(1)
	hub.subscribe(slow)

	stale := frame{messageType: websocket.BinaryMessage, data: []byte{0}}
	slow.send <- stale

	done := make(chan struct{})
	go func() {
		hub.fanOut([]byte{1})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("fanOut blocked on a full subscriber queue")
	}

	// The queued frame is untouched and the new one was dropped.
	if f := receiveFrame(t, slow); !bytes.Equal(f.data, stale.data) {
		t.Errorf("Queue head = %v, want the stale frame", f.data)
	}
	select {
	case f := <-slow.send:
		t.Errorf("Unexpected extra frame %v", f.data)
	default:
	}
}

// TestPublishWithZeroSubscribers verifies a publish with no subscribers is
// discarded silently.
func TestPublishWithZeroSubscribers(t *testing.T) {
	hub := NewHub(NewWorld(WorldConfig{}))
	go hub.Run()

	done := make(chan struct{})
	go func() {
		hub.Publish([]byte{1, 2, 3})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked with zero subscribers")
	}

	if err := hub.Shutdown(time.Second); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}

// TestEndSessionRemovesPlayer verifies unregistration removes both the
// subscriber slot and the world entry, and tolerates duplicate signals.
func TestEndSessionRemovesPlayer(t *testing.T) {
	world := NewWorld(WorldConfig{})
	hub := NewHub(world)
	client := newTestClient(4)
	world.AddPlayer(client.connID, client.name)
	hub.subscribe(client)

	hub.endSession(client)
	if count := world.PlayerCount(); count != 0 {
		t.Fatalf("PlayerCount = %d after endSession, want 0", count)
	}

	// A late duplicate disconnect signal is a no-op.
	hub.endSession(client)

	hub.fanOut([]byte{5})
	if _, ok := <-client.send; ok {
		t.Errorf("Unsubscribed session still received a frame")
	}
}

// TestShutdownEndsSubscribedSessions verifies shutdown ends every live
// session: send queues are closed so a write pump blocked between pings
// can drain and exit, and the players leave the world.
func TestShutdownEndsSubscribedSessions(t *testing.T) {
	world := NewWorld(WorldConfig{})
	hub := NewHub(world)
	go hub.Run()

	c1 := newTestClient(4)
	c2 := newTestClient(4)
	world.AddPlayer(c1.connID, c1.name)
	world.AddPlayer(c2.connID, c2.name)
	hub.subscribe(c1)
	hub.subscribe(c2)

	if err := hub.Shutdown(time.Second); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	for _, c := range []*Client{c1, c2} {
		select {
		case _, ok := <-c.send:
			if ok {
				t.Error("Send queue still delivering after shutdown")
			}
		default:
			t.Error("Send queue left open after shutdown")
		}
	}
	if count := world.PlayerCount(); count != 0 {
		t.Errorf("PlayerCount = %d after shutdown, want 0", count)
	}
}

// TestPublishAfterShutdownReturns verifies Publish does not hang once the
// hub context is cancelled.
func TestPublishAfterShutdownReturns(t *testing.T) {
	hub := NewHub(NewWorld(WorldConfig{}))
	go hub.Run()
	if err := hub.Shutdown(time.Second); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	done := make(chan struct{})
	go func() {
		hub.Publish([]byte{1})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked after shutdown")
	}
}
