// Package scene is the render-side scene graph: point-cloud drawables,
// their materials, and the containers they are attached to.
//
// Drawables live in render space, where Y points up and one unit equals
// Container.Scale world units. Snapshot converts everything back to world
// space for the terminal clients.
package scene

import (
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Vec3 is a position in render space.
type Vec3 struct {
	X, Y, Z float64
}

// Material controls how a point cloud is drawn.
type Material struct {
	Size         float64
	Opacity      float64
	Transparent  bool
	VertexColors bool
	DepthTest    bool
	DepthWrite   bool
}

// Points is a point-cloud drawable. The position and color slices are shared
// with the creator, which mutates them in place and calls MarkDirty.
type Points struct {
	Positions []Vec3
	Colors    []colorful.Color
	Material  *Material

	dirty   bool
	version uint64
}

// Dirty reports whether positions changed since the last snapshot.
func (p *Points) Dirty() bool {
	return p.dirty
}

// Version counts how many times the drawable was marked dirty.
func (p *Points) Version() uint64 {
	return p.version
}

// Renderer creates drawables and manages their attachment to containers.
type Renderer struct{}

// NewRenderer returns a renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// NewPoints wraps the given buffers in a drawable.
func (r *Renderer) NewPoints(positions []Vec3, colors []colorful.Color, mat *Material) *Points {
	return &Points{
		Positions: positions,
		Colors:    colors,
		Material:  mat,
	}
}

// Attach adds p to c.
func (r *Renderer) Attach(p *Points, c *Container) {
	c.add(p)
}

// Detach removes p from c.
func (r *Renderer) Detach(p *Points, c *Container) {
	c.remove(p)
}

// MarkDirty flags p's positions for upload on the next snapshot.
func (r *Renderer) MarkDirty(p *Points) {
	p.dirty = true
	p.version++
}
