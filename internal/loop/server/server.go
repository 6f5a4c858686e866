// Package server runs the authoritative game world shared by all clients.
package server

import (
	"context"
	"io"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/shatter/internal/burst"
	"github.com/tomz197/shatter/internal/config"
	loopconfig "github.com/tomz197/shatter/internal/loop/config"
	"github.com/tomz197/shatter/internal/object"
	"github.com/tomz197/shatter/internal/physics"
	"github.com/tomz197/shatter/internal/scene"
	"github.com/tomz197/shatter/internal/timing"
)

// GameServer is the interface clients use to communicate with the game server.
type GameServer interface {
	RegisterClient(username string) *ClientHandle
	UnregisterClient(clientID int)
	SendInput(clientID int, input object.Input)
	GetSnapshot() *WorldSnapshot
	GetClientPlayer(clientID int) *object.User
	SpawnPlayer(clientID int)
	RemovePlayer(clientID int)
}

// Options configures a Server. Zero fields take defaults.
type Options struct {
	Logger *log.Logger  // Defaults to a discarding logger
	Clock  timing.Clock // Defaults to the system clock
	// Presets are the explosion looks per effect kind. Defaults to
	// config.DefaultEffectPresets.
	Presets config.EffectPresets
	// CoordsConversion is the number of world units per render unit of the
	// effect scene.
	CoordsConversion float64
	// AsteroidTarget is the weighted asteroid population to maintain.
	// Zero means loopconfig.InitialAsteroidTarget; negative disables spawning.
	AsteroidTarget int
}

// Server manages the shared world state and processes inputs from all clients.
type Server struct {
	log   *log.Logger
	clock timing.Clock

	world        *WorldState
	snapshot     atomic.Pointer[WorldSnapshot]
	clients      map[int]*ClientHandle
	nextClientID int
	inputChan    chan ClientInput
	registerCh   chan *ClientHandle
	unregisterCh chan int
	mu           sync.RWMutex
	lastTick     time.Time

	// Effects run on the server goroutine: contacts start bursts and the
	// scheduler animates them once per tick.
	scheduler   *timing.Loop
	stage       *scene.Container
	explosions  *Explosions
	contacts    physics.ContactListener
	projectiles *object.ProjectilePool

	// Double-buffered snapshot slices to avoid allocations
	snapshotBufs [2][]object.Object
	snapshotIdx  int
	// Sprites change every frame, so each snapshot gets its own slice.
	// lastSprites sizes the next one.
	lastSprites int

	// Objects marked for removal (deferred compaction)
	toRemove map[object.Object]struct{}

	// Reusable player set to avoid per-frame allocation
	playerSet map[object.Object]struct{}
}

// Compile-time check that Server implements GameServer.
var _ GameServer = (*Server)(nil)

// ClientHandle represents a client's connection to the server.
type ClientHandle struct {
	ID             int
	Username       string
	Player         *object.User
	Input          object.Input
	EventsCh       chan ClientEvent // Events sent to client (death, etc.)
	InvincibleTime float64          // Remaining invincibility time in seconds
}

// ClientInput represents input from a specific client.
type ClientInput struct {
	ClientID int
	Input    object.Input
}

// ClientEvent represents an event sent from server to client.
type ClientEvent struct {
	Type     ClientEventType
	KilledBy string // For death events
	ScoreAdd int    // For score events
}

// ClientEventType identifies the type of client event.
type ClientEventType int

const (
	EventPlayerDied ClientEventType = iota
	EventScoreAdd
	EventServerShutdown
)

// NewServer creates a new game server.
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Clock == nil {
		opts.Clock = timing.SystemClock{}
	}
	if opts.Presets == nil {
		opts.Presets = config.DefaultEffectPresets()
	}
	if opts.CoordsConversion <= 0 {
		opts.CoordsConversion = loopconfig.DefaultCoordsConversion
	}
	if opts.AsteroidTarget == 0 {
		opts.AsteroidTarget = loopconfig.InitialAsteroidTarget
	}

	world := NewWorldState(object.NewScreen(loopconfig.WorldWidth, loopconfig.WorldHeight))
	if opts.AsteroidTarget > 0 {
		world.AddObject(object.NewAsteroidSpawner(opts.AsteroidTarget))
	}

	s := &Server{
		log:          opts.Logger,
		clock:        opts.Clock,
		world:        world,
		clients:      make(map[int]*ClientHandle),
		nextClientID: 1,
		inputChan:    make(chan ClientInput, 256),
		registerCh:   make(chan *ClientHandle, 16),
		unregisterCh: make(chan int, 16),
		lastTick:     opts.Clock.Now(),
		scheduler:    timing.NewLoop(opts.Clock),
		stage:        scene.NewContainer(opts.CoordsConversion),
		projectiles:  object.NewProjectilePool(),
		toRemove:     make(map[object.Object]struct{}),
		playerSet:    make(map[object.Object]struct{}),
	}

	env := burst.Env{
		Renderer:  scene.NewRenderer(),
		Scheduler: s.scheduler,
		Clock:     opts.Clock,
	}
	s.explosions = NewExplosions(opts.Logger.With("component", "explosions"), env, s.stage, opts.Presets)
	s.contacts = physics.Listeners{
		s.explosions,
		physics.ContactListenerFunc(s.awardScore),
	}

	s.snapshot.Store(&WorldSnapshot{
		Objects: []object.Object{},
		World:   world.World,
		Effects: s.explosions.Stats(),
	})

	return s
}

// Run starts the server loop. Blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) {
	s.log.Info("game server started", "tick", loopconfig.ServerTickTime)
	defer s.log.Info("game server stopped")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		frameStart := time.Now()
		s.step()

		elapsed := time.Since(frameStart)
		if elapsed < loopconfig.ServerTickTime {
			time.Sleep(loopconfig.ServerTickTime - elapsed)
		}
	}
}

// step advances the world by one tick.
func (s *Server) step() {
	now := s.clock.Now()
	s.world.Delta = now.Sub(s.lastTick)
	s.lastTick = now

	s.processRegistrations()
	s.collectInputs()
	s.updateWorld()
	s.createSnapshot()
}

// Shutdown gracefully shuts down the server by notifying all connected clients
// and waiting for them to disconnect (up to the given timeout).
// The caller should cancel the server context after Shutdown returns.
func (s *Server) Shutdown(timeout time.Duration) {
	s.mu.RLock()
	for _, handle := range s.clients {
		select {
		case handle.EventsCh <- ClientEvent{Type: EventServerShutdown}:
		default:
		}
	}
	s.mu.RUnlock()

	deadline := time.After(timeout)
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-deadline:
			s.log.Warn("shutdown timed out with clients connected")
			return
		case <-ticker.C:
			s.mu.RLock()
			remaining := len(s.clients)
			s.mu.RUnlock()
			if remaining == 0 {
				return
			}
		}
	}
}

// RegisterClient registers a new client with the given username and returns its handle.
func (s *Server) RegisterClient(username string) *ClientHandle {
	s.mu.Lock()
	id := s.nextClientID
	s.nextClientID++
	s.mu.Unlock()

	handle := &ClientHandle{
		ID:       id,
		Username: username,
		EventsCh: make(chan ClientEvent, 16),
	}

	s.registerCh <- handle
	return handle
}

// UnregisterClient removes a client from the server.
func (s *Server) UnregisterClient(clientID int) {
	s.unregisterCh <- clientID
}

// SendInput sends input from a client to the server.
func (s *Server) SendInput(clientID int, input object.Input) {
	select {
	case s.inputChan <- ClientInput{ClientID: clientID, Input: input}:
	default:
		// Input channel full, drop input
	}
}

// GetSnapshot returns the current world snapshot.
func (s *Server) GetSnapshot() *WorldSnapshot {
	return s.snapshot.Load()
}

// GetClientPlayer returns the player object for a client (thread-safe).
func (s *Server) GetClientPlayer(clientID int) *object.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if handle, ok := s.clients[clientID]; ok {
		return handle.Player
	}
	return nil
}

// SpawnPlayer spawns a player for the given client.
func (s *Server) SpawnPlayer(clientID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	handle, ok := s.clients[clientID]
	if !ok {
		return
	}

	if handle.Player != nil {
		s.removeObjectLocked(handle.Player)
	}

	x := rand.Float64() * float64(s.world.World.Width)
	y := rand.Float64() * float64(s.world.World.Height)
	player := object.NewUser(x, y)
	player.OwnerID = clientID
	player.Username = handle.Username
	handle.Player = player
	handle.InvincibleTime = loopconfig.InvincibilitySeconds
	s.world.AddObject(player)
}

// RemovePlayer removes the player for a client.
func (s *Server) RemovePlayer(clientID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	handle, ok := s.clients[clientID]
	if !ok || handle.Player == nil {
		return
	}

	s.removeObjectLocked(handle.Player)
	handle.Player = nil
}

// removeObjectLocked removes a single object from the world. Must be called with lock held.
func (s *Server) removeObjectLocked(target object.Object) {
	s.world.RemoveObject(target)
	kept := s.world.Objects[:0]
	for _, obj := range s.world.Objects {
		if obj != target {
			kept = append(kept, obj)
		}
	}
	clear(s.world.Objects[len(kept):])
	s.world.Objects = kept
}

// processRegistrations handles pending client registrations/unregistrations.
func (s *Server) processRegistrations() {
	for {
		select {
		case handle := <-s.registerCh:
			s.mu.Lock()
			s.clients[handle.ID] = handle
			s.mu.Unlock()
			s.log.Info("client joined", "id", handle.ID, "user", handle.Username)
		case clientID := <-s.unregisterCh:
			s.mu.Lock()
			if handle, ok := s.clients[clientID]; ok {
				if handle.Player != nil {
					s.removeObjectLocked(handle.Player)
				}
				close(handle.EventsCh)
				delete(s.clients, clientID)
				s.log.Info("client left", "id", clientID, "user", handle.Username)
			}
			s.mu.Unlock()
		default:
			return
		}
	}
}

// collectInputs gathers all pending inputs from clients.
func (s *Server) collectInputs() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		select {
		case ci := <-s.inputChan:
			if handle, ok := s.clients[ci.ClientID]; ok {
				handle.Input = ci.Input
			}
		default:
			return
		}
	}
}

// updateContext returns the context for objects this tick.
func (s *Server) updateContext(in object.Input) object.UpdateContext {
	return object.UpdateContext{
		Delta:         s.world.Delta,
		Input:         in,
		Screen:        s.world.World,
		Spawner:       s.world,
		AsteroidCount: s.world.AsteroidCount,
		Projectiles:   s.projectiles,
		Effects:       s.explosions,
	}
}

// updateWorld updates objects, resolves collisions and advances effects.
func (s *Server) updateWorld() {
	s.mu.Lock()
	defer s.mu.Unlock()

	dt := s.world.Delta.Seconds()

	clear(s.playerSet)
	for _, handle := range s.clients {
		if handle.Player != nil {
			s.playerSet[handle.Player] = struct{}{}
		}
		if handle.InvincibleTime > 0 {
			handle.InvincibleTime = max(handle.InvincibleTime-dt, 0)
		}
	}

	for _, handle := range s.clients {
		if handle.Player != nil {
			if remove, _ := handle.Player.Update(s.updateContext(handle.Input)); remove {
				handle.Player = nil
			}
		}
	}

	ctx := s.updateContext(object.Input{})
	kept := s.world.Objects[:0]
	for _, obj := range s.world.Objects {
		if _, isPlayer := s.playerSet[obj]; isPlayer {
			kept = append(kept, obj)
			continue
		}

		remove, err := obj.Update(ctx)
		if err != nil {
			s.log.Error("object update failed", "err", err)
		}
		if !remove {
			kept = append(kept, obj)
		} else {
			s.world.RemoveObject(obj)
			object.ReleaseObject(obj)
		}
	}
	clear(s.world.Objects[len(kept):])
	s.world.Objects = kept
	s.world.FlushSpawned()

	s.checkCollisions()

	s.scheduler.Tick()
}

// checkCollisions detects collisions and reports them to the contact listeners.
func (s *Server) checkCollisions() {
	w := s.world
	collectCollidables(w.Objects, &w.projectileCache, &w.asteroidCache)
	projectiles := w.projectileCache
	asteroids := w.asteroidCache
	populateGrids(asteroids, projectiles, w.asteroidGrid, w.projectileGrid)

	clear(s.toRemove)

	checkProjectileAsteroidCollisions(projectiles, asteroids, w.asteroidGrid, s.contacts)
	checkProjectileProjectileCollisions(projectiles, w.projectileGrid)
	checkAsteroidAsteroidCollisions(asteroids, w.asteroidGrid)

	for _, handle := range s.clients {
		if handle.Player == nil || handle.InvincibleTime > 0 {
			continue
		}
		player := handle.Player
		px, py := player.GetPosition()

		hit := playerHit(px, py, player.GetRadius(), handle.ID, projectiles, asteroids, w.projectileGrid, w.asteroidGrid)
		if hit == nil {
			continue
		}

		s.contacts.BeginContact(physics.Contact{A: player, B: hit, X: px, Y: py})
		s.toRemove[player] = struct{}{}
		handle.Player = nil

		event := ClientEvent{Type: EventPlayerDied}
		if p, ok := hit.(*object.Projectile); ok {
			if shooter, ok := s.clients[p.OwnerID]; ok {
				event.KilledBy = shooter.Username
			}
		}
		select {
		case handle.EventsCh <- event:
		default:
		}
	}

	if len(s.toRemove) > 0 {
		kept := w.Objects[:0]
		for _, obj := range w.Objects {
			if _, remove := s.toRemove[obj]; remove {
				w.RemoveObject(obj)
			} else {
				kept = append(kept, obj)
			}
		}
		clear(w.Objects[len(kept):])
		w.Objects = kept
	}
}

// awardScore credits the shooter of an asteroid.
func (s *Server) awardScore(c physics.Contact) {
	p, ok := c.A.(*object.Projectile)
	if !ok {
		return
	}
	a, ok := c.B.(*object.Asteroid)
	if !ok {
		return
	}
	handle, ok := s.clients[p.OwnerID]
	if !ok {
		return
	}
	select {
	case handle.EventsCh <- ClientEvent{Type: EventScoreAdd, ScoreAdd: asteroidScore(a.Size)}:
	default:
	}
}

// createSnapshot creates an immutable snapshot of the world state.
func (s *Server) createSnapshot() {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.snapshotIdx
	s.snapshotIdx = 1 - s.snapshotIdx

	buf := s.snapshotBufs[idx]
	if cap(buf) < len(s.world.Objects) {
		buf = make([]object.Object, len(s.world.Objects))
		s.snapshotBufs[idx] = buf
	}
	buf = buf[:len(s.world.Objects)]
	copy(buf, s.world.Objects)

	sprites := s.stage.Snapshot(make([]scene.Sprite, 0, s.lastSprites))
	s.lastSprites = len(sprites)

	s.snapshot.Store(&WorldSnapshot{
		Objects:     buf,
		UserObjects: object.FilterUsers(buf),
		Sprites:     sprites,
		Effects:     s.explosions.Stats(),
		Players:     len(s.clients),
		World:       s.world.World,
		Delta:       s.world.Delta,
	})
}
