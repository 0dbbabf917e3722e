// Package server owns the shared world model. All mutation goes through
// World methods, each of which is a single critical section; callers never
// touch the lock directly.
package server

import (
	"math"
	"math/rand"
	"sort"
	"sync"
)

// WorldConfig controls world generation.
type WorldConfig struct {
	PlanetCount int
	SpawnPoint  Vector3
}

// World is the mutable shared state behind a mutual-exclusion boundary:
// the fixed planet list plus a connection-keyed player registry. Holding
// the players in one map keyed by connection id keeps the registry and the
// participant list in lockstep by construction.
type World struct {
	mu      sync.Mutex
	planets []Planet
	spawn   Vector3
	players map[string]*Player
	nextID  uint32
}

// NewWorld generates the initial world: PlanetCount planets arranged on a
// ring with randomized size, colors, module type, and vertical offset.
func NewWorld(cfg WorldConfig) *World {
	planets := make([]Planet, 0, cfg.PlanetCount)
	for i := 0; i < cfg.PlanetCount; i++ {
		angle := float64(i) * 2 * math.Pi / float64(cfg.PlanetCount)
		radius := 500 + rand.Float64()*200

		planets = append(planets, Planet{
			Size: 50 + rand.Float32()*100,
			Colors: [3]Color{
				randomColor(),
				randomColor(),
				randomColor(),
			},
			ModuleType: uint8(rand.Intn(5)),
			Position: Vector3{
				X: float32(math.Cos(angle) * radius),
				Y: float32(-100 + rand.Float64()*200),
				Z: float32(math.Sin(angle) * radius),
			},
		})
	}

	return &World{
		planets: planets,
		spawn:   cfg.SpawnPoint,
		players: make(map[string]*Player),
	}
}

func randomColor() Color {
	return Color{
		R: uint8(rand.Intn(255)),
		G: uint8(rand.Intn(255)),
		B: uint8(rand.Intn(255)),
	}
}

// Snapshot returns an atomic deep copy of the world. The player list is
// ordered by id so encoded snapshots are stable for a given state.
func (w *World) Snapshot() WorldState {
	w.mu.Lock()
	defer w.mu.Unlock()

	state := WorldState{
		Planets:    append([]Planet(nil), w.planets...),
		SpawnPoint: w.spawn,
	}
	if len(w.players) > 0 {
		state.Players = make([]Player, 0, len(w.players))
		for _, player := range w.players {
			state.Players = append(state.Players, *player)
		}
		sort.Slice(state.Players, func(i, j int) bool {
			return state.Players[i].ID < state.Players[j].ID
		})
	}
	return state
}

// AddPlayer registers a connection and creates its player entry at the
// spawn point with level 1. Ids are assigned from a monotonic counter so
// they stay unique across join/leave churn.
func (w *World) AddPlayer(connID, name string) Player {
	w.mu.Lock()
	defer w.mu.Unlock()

	player := &Player{
		ID:       w.nextID,
		Name:     name,
		Level:    1,
		Position: w.spawn,
	}
	w.nextID++
	w.players[connID] = player
	return *player
}

// RemovePlayer drops a connection's player entry. Removing an unknown or
// already-removed connection is a no-op so duplicate disconnect signals
// stay harmless.
func (w *World) RemovePlayer(connID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.players, connID)
}

// UpdatePosition overwrites the player's position. Updates arriving after
// the connection was removed are dropped; they must not resurrect the
// player.
func (w *World) UpdatePosition(connID string, pos Vector3) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if player, ok := w.players[connID]; ok {
		player.Position = pos
	}
}

// PlayerCount reports the number of registered connections.
func (w *World) PlayerCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.players)
}

// ConnectionIDs lists the registered connection identities.
func (w *World) ConnectionIDs() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	ids := make([]string, 0, len(w.players))
	for id := range w.players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
