package object

// spawnSlack is how far below target the population may fall before the
// spawner tops it up, so rocks arrive in waves instead of one per frame.
const spawnSlack = 5

// AsteroidSpawner keeps the asteroid population at a target level.
type AsteroidSpawner struct {
	target int
}

// NewAsteroidSpawner creates a spawner with a target weighted asteroid count.
func NewAsteroidSpawner(target int) *AsteroidSpawner {
	return &AsteroidSpawner{target: max(target, 0)}
}

// Update spawns protected asteroids when the weighted count drops,
// preferring large rocks.
func (s *AsteroidSpawner) Update(ctx UpdateContext) (bool, error) {
	if s.target == 0 || ctx.Spawner == nil {
		return false, nil
	}

	count := ctx.AsteroidCount
	for s.target-count > spawnSlack {
		var size AsteroidSize
		switch missing := s.target - count; {
		case missing > 4:
			size = AsteroidLarge
		case missing > 2:
			size = AsteroidMedium
		default:
			size = AsteroidSmall
		}
		a := NewProtectedAsteroid(ctx.Screen, size)
		count += AsteroidWeight(a)
		ctx.Spawner.Spawn(a)
	}
	return false, nil
}

// Draw is a no-op; spawner is not visible.
func (s *AsteroidSpawner) Draw(_ DrawContext) error {
	return nil
}
