// Package server coordinates session registration, snapshot fan-out, and
// connection cleanup for the world server via the Hub type.
package server

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const welcomeMessage = "Welcome to Crux Server!"

// Hub manages all live sessions and fans out world snapshot frames to
// them. Subscriber bookkeeping is guarded by a mutex; delivery into a
// session queue is non-blocking so one slow client can never stall a
// publish.
type Hub struct {
	world      *World
	clients    map[*Client]bool
	publish    chan []byte
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewHub creates a Hub bound to the given world. The returned Hub is ready
// once Run is started in its own goroutine.
func NewHub(world *World) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		world:      world,
		clients:    make(map[*Client]bool),
		publish:    make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// World returns the world this hub broadcasts.
func (h *Hub) World() *World {
	return h.world
}

// Publish pushes one serialized snapshot to every current subscriber. With
// zero subscribers the frame is discarded silently. Publish returns
// without delivering when the hub is shutting down.
func (h *Hub) Publish(payload []byte) {
	select {
	case h.publish <- payload:
	case <-h.ctx.Done():
	}
}

// Run starts the hub's main event loop, handling session registration,
// unregistration, and snapshot fan-out. This method should be called in a
// separate goroutine as it runs until Shutdown.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			if client == nil {
				log.Printf("Received nil session registration; skipping")
				continue
			}
			h.startSession(client)

		case client := <-h.unregister:
			h.endSession(client)

		case payload := <-h.publish:
			h.fanOut(payload)
		}
	}
}

// startSession performs the Active-state entry sequence for a new
// connection: send the pre-join snapshot and the greeting, join the player
// to the world, subscribe the session to broadcasts, then start its pumps.
// The snapshot is taken before the join so the first frame a client sees
// describes the world as it stood when they arrived; their own entry
// arrives with the next broadcast.
func (h *Hub) startSession(client *Client) {
	snapshot := h.world.Snapshot()
	client.enqueue(frame{messageType: websocket.BinaryMessage, data: EncodeWorldState(snapshot)})
	client.enqueue(frame{messageType: websocket.TextMessage, data: []byte(welcomeMessage)})

	player := h.world.AddPlayer(client.connID, client.name)
	count := h.subscribe(client)
	log.Printf("Player %q (id %d) joined from %s. Total clients: %d", player.Name, player.ID, client.addr, count)

	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		client.readPump()
	}()
}

// endSession unsubscribes the session and removes its player. Safe to call
// more than once for the same session; late disconnect signals are no-ops.
func (h *Hub) endSession(client *Client) {
	h.mutex.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mutex.Unlock()
		return
	}
	delete(h.clients, client)
	client.closed = true
	count := len(h.clients)
	h.mutex.Unlock()

	// Close the queue after releasing the lock; fan-out checks the closed
	// flag under the same lock before sending.
	close(client.send)
	h.world.RemovePlayer(client.connID)
	log.Printf("Player %q left from %s. Total clients: %d", client.name, client.addr, count)
}

func (h *Hub) subscribe(client *Client) int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	client.closed = false
	h.clients[client] = true
	return len(h.clients)
}

// fanOut delivers one snapshot frame to every subscriber. A full session
// queue drops the frame for that session rather than blocking; the next
// tick carries a fresher snapshot anyway.
func (h *Hub) fanOut(payload []byte) {
	h.mutex.RLock()
	subscribers := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		subscribers = append(subscribers, client)
	}
	h.mutex.RUnlock()

	for _, client := range subscribers {
		if !h.safeSend(client, frame{messageType: websocket.BinaryMessage, data: payload}) {
			log.Printf("Dropping snapshot frame for %s: send queue full", client.addr)
		}
	}
}

func (h *Hub) safeSend(client *Client, f frame) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if _, exists := h.clients[client]; !exists || client.closed {
		return false
	}

	select {
	case client.send <- f:
		return true
	default:
		return false
	}
}

// shutdownClients ends every live session and closes its connection so
// both pump goroutines unwind. Ending the session closes the send queue,
// which releases a write pump blocked between pings; closing the socket
// releases the read pump.
func (h *Hub) shutdownClients() {
	log.Println("Shutting down all client connections...")

	h.mutex.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mutex.Unlock()

	for _, client := range clients {
		h.endSession(client)
		if client.conn != nil {
			if err := client.conn.Close(); err != nil {
				if !isExpectedCloseError(err) {
					log.Printf("Error closing client connection from %s: %v", client.addr, err)
				}
			}
		}
	}

	log.Printf("Closed %d client connections", len(clients))
}

// Shutdown initiates graceful shutdown of the hub and waits for all session
// goroutines to complete, or until the timeout is reached.
func (h *Hub) Shutdown(timeout time.Duration) error {
	log.Println("Initiating hub shutdown...")

	h.cancel()
	<-h.done

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("Hub shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		log.Println("Hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
