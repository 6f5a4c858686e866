package server

import (
	"time"

	"github.com/tomz197/shatter/internal/object"
	"github.com/tomz197/shatter/internal/physics"
	"github.com/tomz197/shatter/internal/scene"
)

// WorldState holds shared game state (objects, world bounds, timing).
// This is managed by the Server and shared across all clients via snapshots.
type WorldState struct {
	Objects       []object.Object
	toSpawn       []object.Object // Objects to add after current update cycle
	World         object.Screen   // World dimensions (total game area)
	Delta         time.Duration   // Frame delta time
	AsteroidCount int             // Weighted asteroid count maintained incrementally

	// Reusable caches for collision detection
	projectileCache []*object.Projectile
	asteroidCache   []*object.Asteroid

	// Spatial grids for broad-phase collision detection (reused each frame)
	asteroidGrid   *physics.SpatialGrid
	projectileGrid *physics.SpatialGrid
}

// WorldSnapshot is an immutable snapshot of the world state for rendering.
type WorldSnapshot struct {
	Objects     []object.Object
	UserObjects []*object.User
	Sprites     []scene.Sprite // Explosion particles in world space
	Effects     []EffectStats
	Players     int
	World       object.Screen
	Delta       time.Duration
}

// collisionGridCellSize is the cell size for the spatial hash grids.
// Must be >= the largest collision distance (two large asteroids: 5.0 + 5.0 = 10.0).
const collisionGridCellSize = 10.0

// NewWorldState creates a world of the given size with its collision grids.
func NewWorldState(world object.Screen) *WorldState {
	w := &WorldState{
		Objects: []object.Object{},
		World:   world,
	}
	w.asteroidGrid = physics.NewSpatialGrid(float64(world.Width), float64(world.Height), collisionGridCellSize)
	w.projectileGrid = physics.NewSpatialGrid(float64(world.Width), float64(world.Height), collisionGridCellSize)
	return w
}

// AddObject adds an object to the game world.
func (w *WorldState) AddObject(obj object.Object) {
	w.Objects = append(w.Objects, obj)
	w.AsteroidCount += object.AsteroidWeight(obj)
}

// RemoveObject decrements the asteroid count for a removed object.
// Call this when removing an object that was tracked via AddObject.
func (w *WorldState) RemoveObject(obj object.Object) {
	w.AsteroidCount -= object.AsteroidWeight(obj)
}

// Spawn queues an object to be added after the current update cycle.
// Implements object.Spawner interface.
func (w *WorldState) Spawn(obj object.Object) {
	w.toSpawn = append(w.toSpawn, obj)
}

// FlushSpawned adds all queued objects to the game and clears the queue.
func (w *WorldState) FlushSpawned() {
	for _, obj := range w.toSpawn {
		w.AddObject(obj)
	}
	clear(w.toSpawn)
	w.toSpawn = w.toSpawn[:0]
}
