// Package server constructs and starts the Crux HTTP service with helpers
// that apply sensible production defaults.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"
)

var (
	hubMu sync.RWMutex
	hub   *Hub
)

// CreateServer creates and configures an HTTP server with the specified port and handler.
// It sets reasonable timeout values for production use.
func CreateServer(port string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// StartHub generates a world from the active configuration, starts a hub
// for it in a separate goroutine, and installs it as the upgrade handler's
// target. This should be called before starting the HTTP server.
func StartHub() *Hub {
	world := NewWorld(currentConfig().World)
	h := NewHub(world)

	hubMu.Lock()
	hub = h
	hubMu.Unlock()

	go h.Run()
	log.Printf("Hub started with %d planets, ready to manage connections", len(world.Snapshot().Planets))
	return h
}

// GetHub returns the hub currently serving connections, or nil when
// StartHub has not run yet.
func GetHub() *Hub {
	hubMu.RLock()
	defer hubMu.RUnlock()
	return hub
}

// StartServer starts the HTTP server and begins listening for connections.
// It returns an error if the server fails to start.
func StartServer(server *http.Server) error {
	fmt.Printf("Server listening on port %s\n", server.Addr)
	return server.ListenAndServe()
}

// ShutdownServer gracefully shuts down the HTTP server without interrupting active connections.
// It waits for active connections to close or until the timeout is reached.
func ShutdownServer(server *http.Server, timeout time.Duration) error {
	log.Println("Shutting down HTTP server...")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		return err
	}

	log.Println("HTTP server shutdown completed")
	return nil
}
