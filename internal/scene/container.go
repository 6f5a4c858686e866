package scene

import (
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Sprite is a single particle in world space, ready to be drawn by a client.
type Sprite struct {
	X, Y    float64
	R, G, B uint8
	Alpha   float64 // Material opacity already applied to R, G, B
}

// Container holds the drawables currently visible in a scene.
// It is owned by a single goroutine; clients only see Snapshot output.
type Container struct {
	// Scale is the number of world units per render unit.
	Scale float64

	children []*Points
	index    map[*Points]int
}

// NewContainer creates an empty container. A non-positive scale means 1.
func NewContainer(scale float64) *Container {
	if scale <= 0 {
		scale = 1
	}
	return &Container{
		Scale: scale,
		index: make(map[*Points]int),
	}
}

func (c *Container) add(p *Points) {
	if _, ok := c.index[p]; ok {
		return
	}
	c.index[p] = len(c.children)
	c.children = append(c.children, p)
}

// remove keeps attach order so overlapping bursts layer consistently.
func (c *Container) remove(p *Points) {
	i, ok := c.index[p]
	if !ok {
		return
	}
	delete(c.index, p)
	copy(c.children[i:], c.children[i+1:])
	c.children[len(c.children)-1] = nil
	c.children = c.children[:len(c.children)-1]
	for j := i; j < len(c.children); j++ {
		c.index[c.children[j]] = j
	}
}

// Contains reports whether p is attached.
func (c *Container) Contains(p *Points) bool {
	_, ok := c.index[p]
	return ok
}

// Len returns the number of attached drawables.
func (c *Container) Len() int {
	return len(c.children)
}

// Snapshot appends one world-space sprite per attached particle to dst and
// returns the extended slice. Colors are blended toward black by the
// material's transparency, and dirty flags are cleared.
func (c *Container) Snapshot(dst []Sprite) []Sprite {
	black := colorful.Color{}
	for _, p := range c.children {
		alpha := 1.0
		if p.Material != nil && p.Material.Transparent {
			alpha = clamp01(p.Material.Opacity)
		}
		for i, pos := range p.Positions {
			col := colorful.Color{R: 1, G: 1, B: 1}
			if p.Material == nil || p.Material.VertexColors {
				if i < len(p.Colors) {
					col = p.Colors[i]
				}
			}
			r, g, b := col.BlendRgb(black, 1-alpha).Clamped().RGB255()
			dst = append(dst, Sprite{
				X:     pos.X * c.Scale,
				Y:     -pos.Y * c.Scale,
				R:     r,
				G:     g,
				B:     b,
				Alpha: alpha,
			})
		}
		p.dirty = false
	}
	return dst
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
