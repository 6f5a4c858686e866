package server

import (
	"math"
	"testing"
	"time"

	"github.com/tomz197/shatter/internal/config"
	"github.com/tomz197/shatter/internal/object"
	"github.com/tomz197/shatter/internal/scene"
	"github.com/tomz197/shatter/internal/timing"
)

func newTestServer(t *testing.T) (*Server, *timing.ManualClock) {
	t.Helper()
	clock := timing.NewManualClock(testEpoch)
	s := NewServer(Options{
		Clock:          clock,
		Presets:        testPresets(),
		AsteroidTarget: -1,
	})
	return s, clock
}

// join registers a client and processes the registration.
func join(s *Server, name string) *ClientHandle {
	h := s.RegisterClient(name)
	s.step()
	return h
}

// spawnAt spawns the client's ship at a fixed position without invincibility.
func spawnAt(s *Server, h *ClientHandle, x, y float64) *object.User {
	s.SpawnPlayer(h.ID)
	p := s.GetClientPlayer(h.ID)
	p.X, p.Y = x, y
	s.clients[h.ID].InvincibleTime = 0
	return p
}

func nextEvent(t *testing.T, h *ClientHandle) ClientEvent {
	t.Helper()
	select {
	case ev := <-h.EventsCh:
		return ev
	default:
		t.Fatalf("no event for client %d", h.ID)
		return ClientEvent{}
	}
}

func TestNewServerDefaults(t *testing.T) {
	s := NewServer(Options{})
	snap := s.GetSnapshot()
	if snap == nil {
		t.Fatal("no initial snapshot")
	}
	if len(snap.Objects) != 0 {
		t.Errorf("initial snapshot has %d objects", len(snap.Objects))
	}
	if len(snap.Effects) != len(config.DefaultEffectPresets()) {
		t.Errorf("effects = %d kinds, want %d", len(snap.Effects), len(config.DefaultEffectPresets()))
	}
	// The asteroid spawner is the only object until the first tick.
	if len(s.world.Objects) != 1 {
		t.Errorf("world objects = %d, want the spawner", len(s.world.Objects))
	}
}

func TestSpawnerPopulatesWorld(t *testing.T) {
	s := NewServer(Options{Clock: timing.NewManualClock(testEpoch), AsteroidTarget: 40})
	s.step()
	if s.world.AsteroidCount < 40-5 {
		t.Errorf("asteroid count = %d after first tick, want near 40", s.world.AsteroidCount)
	}
	if s.GetSnapshot().World.Width == 0 {
		t.Error("snapshot has no world size")
	}
}

func TestRegisterAndSpawn(t *testing.T) {
	s, _ := newTestServer(t)
	h := join(s, "ada")

	if h.ID != 1 {
		t.Errorf("first client id = %d, want 1", h.ID)
	}
	s.SpawnPlayer(h.ID)
	s.step()

	snap := s.GetSnapshot()
	if snap.Players != 1 {
		t.Errorf("players = %d, want 1", snap.Players)
	}
	if len(snap.UserObjects) != 1 || snap.UserObjects[0].Username != "ada" {
		t.Fatalf("user objects = %+v, want ada's ship", snap.UserObjects)
	}
	if snap.UserObjects[0].OwnerID != h.ID {
		t.Errorf("ship owner = %d, want %d", snap.UserObjects[0].OwnerID, h.ID)
	}

	s.RemovePlayer(h.ID)
	s.step()
	if n := len(s.GetSnapshot().UserObjects); n != 0 {
		t.Errorf("user objects after removal = %d", n)
	}
}

func TestUnregisterClosesEvents(t *testing.T) {
	s, _ := newTestServer(t)
	h := join(s, "ada")
	s.SpawnPlayer(h.ID)

	s.UnregisterClient(h.ID)
	s.step()

	if _, ok := <-h.EventsCh; ok {
		t.Error("events channel still open after unregister")
	}
	if len(s.GetSnapshot().Objects) != 0 {
		t.Error("ship left behind after unregister")
	}
}

func TestShootingAsteroidScoresAndExplodes(t *testing.T) {
	s, _ := newTestServer(t)
	h := join(s, "ada")

	rock := object.NewAsteroid(100, 100, object.AsteroidLarge, 0)
	s.world.AddObject(rock)
	s.world.AddObject(object.NewProjectile(100, 100, 0, 0, 0, h.ID))
	s.step()

	ev := nextEvent(t, h)
	if ev.Type != EventScoreAdd || ev.ScoreAdd != asteroidScore(object.AsteroidLarge) {
		t.Errorf("event = %+v, want score for a large asteroid", ev)
	}

	snap := s.GetSnapshot()
	if len(snap.Sprites) != testPresets()[config.EffectAsteroid].Particles {
		t.Fatalf("sprites = %d, want one per particle", len(snap.Sprites))
	}
	for _, sp := range snap.Sprites {
		if math.Abs(sp.X-100) > 1e-6 || math.Abs(sp.Y-100) > 1e-6 {
			t.Fatalf("sprite at (%v,%v), want the asteroid position", sp.X, sp.Y)
		}
	}
	for _, e := range snap.Effects {
		if e.Kind == config.EffectAsteroid && e.Active != 1 {
			t.Errorf("asteroid effect stats = %+v, want one active", e)
		}
	}

	// The destroyed rock splits on the next tick.
	s.step()
	if got := s.world.AsteroidCount; got != 2*object.AsteroidWeight(object.NewAsteroid(0, 0, object.AsteroidMedium, 0)) {
		t.Errorf("asteroid count after split = %d", got)
	}
}

func TestExplosionsExpire(t *testing.T) {
	s, clock := newTestServer(t)
	s.world.AddObject(object.NewAsteroid(50, 50, object.AsteroidLarge, 0))
	s.world.AddObject(object.NewProjectile(50, 50, 0, 0, 0, 0))
	s.step()

	for range 40 {
		clock.Advance(10 * time.Millisecond)
		s.step()
	}

	snap := s.GetSnapshot()
	if len(snap.Sprites) != 0 {
		t.Errorf("sprites = %d after the burst duration", len(snap.Sprites))
	}
	for _, e := range snap.Effects {
		if e.Active != 0 {
			t.Errorf("effect %s still active: %+v", e.Kind, e)
		}
	}
}

func TestHeldSnapshotKeepsSprites(t *testing.T) {
	s, clock := newTestServer(t)
	h := join(s, "ada")
	spawnAt(s, h, 100, 110)
	s.world.AddObject(object.NewAsteroid(100, 110, object.AsteroidMedium, 0))
	clock.Advance(30 * time.Millisecond)
	s.step()
	clock.Advance(30 * time.Millisecond)
	s.step()

	held := s.GetSnapshot()
	if len(held.Sprites) == 0 {
		t.Fatal("no sprites after the ship burst")
	}
	want := append([]scene.Sprite(nil), held.Sprites...)

	for range 2 {
		clock.Advance(30 * time.Millisecond)
		s.step()
	}

	if s.GetSnapshot() == held {
		t.Fatal("snapshot not replaced")
	}
	for i := range want {
		if held.Sprites[i] != want[i] {
			t.Fatalf("held sprite %d changed from %+v to %+v", i, want[i], held.Sprites[i])
		}
	}
}

func TestPlayerKilledByAsteroid(t *testing.T) {
	s, _ := newTestServer(t)
	h := join(s, "ada")
	spawnAt(s, h, 60, 60)
	s.world.AddObject(object.NewAsteroid(60, 60, object.AsteroidMedium, 0))
	s.step()

	ev := nextEvent(t, h)
	if ev.Type != EventPlayerDied || ev.KilledBy != "" {
		t.Errorf("event = %+v, want death by asteroid", ev)
	}
	if s.GetClientPlayer(h.ID) != nil {
		t.Error("player still assigned after death")
	}
	if n := len(s.GetSnapshot().UserObjects); n != 0 {
		t.Errorf("user objects = %d after death", n)
	}
	for _, e := range s.GetSnapshot().Effects {
		if e.Kind == config.EffectShip && e.Active != 1 {
			t.Errorf("ship effect stats = %+v, want one active", e)
		}
	}
}

func TestPlayerKilledByOtherPlayer(t *testing.T) {
	s, _ := newTestServer(t)
	victim := join(s, "ada")
	shooter := join(s, "bob")
	spawnAt(s, victim, 80, 80)

	// Own shots never hit.
	own := object.NewProjectile(80, 80, 0, 0, 0, victim.ID)
	s.world.AddObject(own)
	s.step()
	select {
	case ev := <-victim.EventsCh:
		t.Fatalf("unexpected event %+v from own projectile", ev)
	default:
	}
	own.MarkDestroyed()

	s.world.AddObject(object.NewProjectile(80, 80, 0, 0, 0, shooter.ID))
	s.step()

	ev := nextEvent(t, victim)
	if ev.Type != EventPlayerDied || ev.KilledBy != "bob" {
		t.Errorf("event = %+v, want death by bob", ev)
	}
}

func TestInvincibleSurvives(t *testing.T) {
	s, _ := newTestServer(t)
	h := join(s, "ada")
	s.SpawnPlayer(h.ID)
	p := s.GetClientPlayer(h.ID)
	s.world.AddObject(object.NewAsteroid(p.X, p.Y, object.AsteroidLarge, 0))
	s.step()

	if s.GetClientPlayer(h.ID) == nil {
		t.Error("invincible player died")
	}
}

func TestThrustPuffsExhaust(t *testing.T) {
	s, clock := newTestServer(t)
	h := join(s, "ada")
	spawnAt(s, h, 150, 150)

	s.SendInput(h.ID, object.Input{Up: true})
	for range 10 {
		clock.Advance(16 * time.Millisecond)
		s.step()
	}

	for _, e := range s.GetSnapshot().Effects {
		if e.Kind == config.EffectExhaust && e.Allocated == 0 {
			t.Errorf("no exhaust bursts after thrusting: %+v", e)
		}
	}
}

func TestShutdownNotifiesClients(t *testing.T) {
	s, _ := newTestServer(t)
	h := join(s, "ada")

	go func() {
		for ev := range h.EventsCh {
			if ev.Type == EventServerShutdown {
				s.UnregisterClient(h.ID)
				s.processRegistrations()
				return
			}
		}
	}()

	done := make(chan struct{})
	go func() {
		s.Shutdown(2 * time.Second)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("shutdown did not return")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.clients) != 0 {
		t.Errorf("clients = %d after shutdown", len(s.clients))
	}
}
