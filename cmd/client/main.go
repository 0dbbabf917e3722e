// Command client is a diagnostic client for the Crux world server. It
// connects, decodes the snapshot stream, prints world summaries, and can
// send a single position update.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cruxgame/crux-server/internal/server"
)

func main() {
	addr := flag.String("addr", "ws://localhost:8080/ws", "server WebSocket URL")
	move := flag.String("move", "", "position update to send as x,y,z")
	flag.Parse()

	log.Printf("Connecting to %s...", *addr)
	conn, _, err := websocket.DefaultDialer.Dial(*addr, nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()
	log.Println("Connected to server")

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	done := make(chan struct{})
	go func() {
		defer close(done)
		firstSnapshot := true
		for {
			messageType, payload, err := conn.ReadMessage()
			if err != nil {
				log.Printf("Read error: %v", err)
				return
			}

			switch messageType {
			case websocket.BinaryMessage:
				state, err := server.DecodeWorldState(payload)
				if err != nil {
					log.Printf("Failed to decode snapshot (%d bytes): %v", len(payload), err)
					continue
				}
				if firstSnapshot {
					printWorld(state)
					firstSnapshot = false
					if *move != "" {
						sendPosition(conn, *move)
					}
				} else {
					log.Printf("Snapshot: %d planets, %d players", len(state.Planets), len(state.Players))
				}
			case websocket.TextMessage:
				log.Printf("Server: %s", payload)
			}
		}
	}()

	select {
	case <-done:
	case <-interrupt:
		log.Println("Interrupted, closing connection")
		err := conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		if err != nil {
			log.Printf("Close write error: %v", err)
			return
		}
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	}
}

func printWorld(state server.WorldState) {
	log.Printf("World loaded: %d planets, %d players", len(state.Planets), len(state.Players))
	log.Printf("Spawn point: (%.1f, %.1f, %.1f)", state.SpawnPoint.X, state.SpawnPoint.Y, state.SpawnPoint.Z)
	for i, planet := range state.Planets {
		log.Printf("  Planet %d: size=%.1f module=%d pos=(%.1f, %.1f, %.1f)",
			i+1, planet.Size, planet.ModuleType,
			planet.Position.X, planet.Position.Y, planet.Position.Z)
	}
	for _, player := range state.Players {
		log.Printf("  Player %d %q level=%d pos=(%.1f, %.1f, %.1f)",
			player.ID, player.Name, player.Level,
			player.Position.X, player.Position.Y, player.Position.Z)
	}
}

func sendPosition(conn *websocket.Conn, value string) {
	var pos server.Vector3
	if _, err := fmt.Sscanf(value, "%f,%f,%f", &pos.X, &pos.Y, &pos.Z); err != nil {
		log.Printf("Ignoring malformed -move value %q: %v", value, err)
		return
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, server.EncodePositionUpdate(pos)); err != nil {
		log.Printf("Failed to send position update: %v", err)
		return
	}
	log.Printf("Sent position update (%.1f, %.1f, %.1f)", pos.X, pos.Y, pos.Z)
}
