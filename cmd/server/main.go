package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cruxgame/crux-server/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	fmt.Println("Starting Crux World Server...")

	// Load and validate configuration before anything binds.
	config := server.NewConfigFromEnv()
	if err := config.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	server.SetConfig(config)

	// Generate the world, start the hub and the snapshot broadcaster.
	hub := server.StartHub()
	stopBroadcaster := server.StartBroadcaster(hub, config.BroadcastInterval)

	// Setup routes and create the server.
	mux := server.SetupRoutes()
	httpServer := server.CreateServer(config.Port, mux)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		sig := <-sigCh
		log.Printf("Received signal %s, shutting down", sig)

		stopBroadcaster()
		if err := server.ShutdownServer(httpServer, shutdownTimeout); err != nil {
			log.Printf("HTTP shutdown error: %v", err)
		}
		if err := hub.Shutdown(shutdownTimeout); err != nil {
			log.Printf("Hub shutdown error: %v", err)
		}
	}()

	if err := server.StartServer(httpServer); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
