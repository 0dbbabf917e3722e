// Package server defines the world data model shared by the codec, the
// world registry, and the broadcast machinery.
package server

import "strings"

// Vector3 is a position or direction in world space.
type Vector3 struct {
	X float32
	Y float32
	Z float32
}

// Color is an 8-bit RGB triple.
type Color struct {
	R uint8
	G uint8
	B uint8
}

// Planet describes one celestial body. Planets are generated once at
// startup and never mutated afterwards.
type Planet struct {
	Size       float32
	Colors     [3]Color
	ModuleType uint8
	Position   Vector3
}

// Player is one connected participant's entry in the world. ID and Name
// are fixed at creation; Position is overwritten by inbound updates.
type Player struct {
	ID       uint32
	Name     string
	Level    uint32
	Position Vector3
}

// WorldState is a consistent point-in-time copy of the whole world:
// the fixed planet list, the current participants, and the spawn point.
type WorldState struct {
	Planets    []Planet
	Players    []Player
	SpawnPoint Vector3
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
