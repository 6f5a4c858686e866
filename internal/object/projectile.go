package object

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/tomz197/shatter/internal/draw"
	"github.com/tomz197/shatter/internal/pool"
)

// ProjectileSpeed is the base speed of projectiles.
const ProjectileSpeed = 50.0

// ProjectileLifetime is how long projectiles last before disappearing.
const ProjectileLifetime = 2.0

// ProjectileRadius is the collision radius for projectile-projectile collisions.
const ProjectileRadius = 0.5

var projectileInk = draw.RGB(colorful.Hsv(55, 0.8, 1))

// ProjectileSpec describes a shot: where it starts, where it goes and who fired it.
type ProjectileSpec struct {
	X, Y                 float64
	Angle                float64
	ShooterVX, ShooterVY float64
	OwnerID              int
}

// ProjectilePool recycles projectiles between shots.
type ProjectilePool = pool.Pool[*Projectile, ProjectileSpec]

// NewProjectilePool creates an empty projectile pool. Projectiles allocated
// from it return themselves on Release.
func NewProjectilePool() *ProjectilePool {
	var pp *ProjectilePool
	pp = pool.New[*Projectile, ProjectileSpec](func() *Projectile {
		return &Projectile{pool: pp}
	})
	return pp
}

// Projectile is a bullet fired by the player.
type Projectile struct {
	X, Y      float64 // Position
	VX, VY    float64 // Velocity
	Lifetime  float64 // Seconds remaining before removal
	OwnerID   int     // Client ID that fired this projectile
	destroyed bool

	pool *pool.Pool[*Projectile, ProjectileSpec]
}

// NewProjectile creates a projectile at position (x,y) traveling in direction angle.
// The projectile inherits the shooter's velocity plus its own speed.
// ownerID identifies the client that fired it (for score attribution).
func NewProjectile(x, y, angle, shooterVX, shooterVY float64, ownerID int) *Projectile {
	p := &Projectile{}
	p.Build(ProjectileSpec{X: x, Y: y, Angle: angle, ShooterVX: shooterVX, ShooterVY: shooterVY, OwnerID: ownerID})
	return p
}

// Build initializes a fresh projectile from the last spec given.
func (p *Projectile) Build(specs ...ProjectileSpec) {
	p.Rearm(specs...)
}

// Rearm resets a recycled projectile from the last spec given.
func (p *Projectile) Rearm(specs ...ProjectileSpec) {
	var s ProjectileSpec
	if len(specs) > 0 {
		s = specs[len(specs)-1]
	}
	*p = Projectile{
		X:        s.X,
		Y:        s.Y,
		VX:       s.ShooterVX + math.Cos(s.Angle)*ProjectileSpeed,
		VY:       s.ShooterVY + math.Sin(s.Angle)*ProjectileSpeed,
		Lifetime: ProjectileLifetime,
		OwnerID:  s.OwnerID,
		pool:     p.pool,
	}
}

// Release returns the projectile to the pool it came from, if any.
func (p *Projectile) Release() {
	if p.pool != nil {
		p.pool.Free(p)
	}
}

// MarkDestroyed marks the projectile for removal.
func (p *Projectile) MarkDestroyed() {
	p.destroyed = true
	p.Lifetime = 0
}

// IsDestroyed returns true if the projectile is marked for destruction.
func (p *Projectile) IsDestroyed() bool {
	return p.destroyed || p.Lifetime <= 0
}

// Update moves the projectile and checks lifetime.
func (p *Projectile) Update(ctx UpdateContext) (bool, error) {
	dt := ctx.Delta.Seconds()

	p.Lifetime -= dt
	if p.Lifetime <= 0 {
		return true, nil
	}

	p.X += p.VX * dt
	p.Y += p.VY * dt
	ctx.Screen.WrapPosition(&p.X, &p.Y)

	return false, nil
}

// Draw renders the projectile.
func (p *Projectile) Draw(ctx DrawContext) error {
	ctx.Canvas.SetInk(projectileInk)
	positions := WorldToScreen(p.X, p.Y, ctx.Camera, ctx.View, ctx.World)
	for i := 0; i < positions.Count; i++ {
		pos := positions.Positions[i]
		ctx.Canvas.SetFloat(pos.X, pos.Y)
	}
	return nil
}
