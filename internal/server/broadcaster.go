// Package server drives the continuous snapshot fan-out: a ticker loop
// that encodes the current world and publishes it to the hub.
package server

import (
	"context"
	"log"
	"time"
)

// StartBroadcaster begins publishing encoded world snapshots to the hub at
// the given interval. The returned stop function cancels the loop and
// waits for it to exit; it is safe to call once on every shutdown path.
func StartBroadcaster(hub *Hub, interval time.Duration) (stop func()) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		log.Printf("Broadcasting world snapshots every %s", interval)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				hub.Publish(EncodeWorldState(hub.world.Snapshot()))
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}
