// Package server implements the Crux real-time world synchronization
// server: WebSocket sessions, the shared world state, the binary snapshot
// codec, and the broadcast hub that fans snapshots out to every client.
//
// The implementation is organized into specialized files for configuration,
// the world model, the codec, hub management, sessions, routing, and HTTP
// handlers to keep the codebase maintainable and testable as the project
// grows.
package server
