package physics

import "math"

// SpatialGrid is a uniform hash grid for broad-phase collision detection in
// a wrapping world. Items are inserted as (position, index) pairs and stored
// as per-cell linked lists in flat slices, so a cleared grid refills without
// allocating.
//
// Cell size must be >= the largest interaction distance so every candidate
// pair shares a 3x3 neighborhood.
type SpatialGrid struct {
	Torus

	invCellSize float64
	cols        int
	rows        int

	head  []int32 // First entry per cell, -1 when empty
	next  []int32 // Next entry in the same cell, -1 at the end
	items []int   // Item index per entry
}

// NewSpatialGrid creates a spatial grid covering the given world dimensions.
func NewSpatialGrid(worldW, worldH, cellSize float64) *SpatialGrid {
	g := &SpatialGrid{
		Torus:       Torus{Width: worldW, Height: worldH},
		invCellSize: 1 / cellSize,
		cols:        max(int(math.Ceil(worldW/cellSize)), 1),
		rows:        max(int(math.Ceil(worldH/cellSize)), 1),
	}
	g.head = make([]int32, g.cols*g.rows)
	g.Clear()
	return g
}

// Clear removes all items, keeping the memory.
func (g *SpatialGrid) Clear() {
	for i := range g.head {
		g.head[i] = -1
	}
	g.next = g.next[:0]
	g.items = g.items[:0]
}

// Len returns the number of inserted items.
func (g *SpatialGrid) Len() int {
	return len(g.items)
}

// Insert adds an item (identified by index) at the given world position.
// Positions outside the world are clamped to the border cells.
func (g *SpatialGrid) Insert(x, y float64, index int) {
	cell := g.cellAt(x, y)
	entry := int32(len(g.items))
	g.items = append(g.items, index)
	g.next = append(g.next, g.head[cell])
	g.head[cell] = entry
}

// QueryAround calls fn for each item in the 3x3 cell neighborhood around
// the given position, wrapping at world edges. Each cell is visited once
// even when the grid is narrower than three cells. Iteration stops as soon
// as fn returns true.
func (g *SpatialGrid) QueryAround(x, y float64, fn func(index int) bool) {
	col, row := g.posToCell(x, y)

	var seen [9]int
	n := 0
	for dr := -1; dr <= 1; dr++ {
		r := (row + dr + g.rows) % g.rows
		for dc := -1; dc <= 1; dc++ {
			cell := r*g.cols + (col+dc+g.cols)%g.cols
			if contains(seen[:n], cell) {
				continue
			}
			seen[n] = cell
			n++

			for e := g.head[cell]; e >= 0; e = g.next[e] {
				if fn(g.items[e]) {
					return
				}
			}
		}
	}
}

func contains(cells []int, cell int) bool {
	for _, c := range cells {
		if c == cell {
			return true
		}
	}
	return false
}

func (g *SpatialGrid) cellAt(x, y float64) int {
	col, row := g.posToCell(x, y)
	return row*g.cols + col
}

// posToCell converts world coordinates to grid cell coordinates, clamped
// to the grid.
func (g *SpatialGrid) posToCell(x, y float64) (col, row int) {
	col = min(max(int(x*g.invCellSize), 0), g.cols-1)
	row = min(max(int(y*g.invCellSize), 0), g.rows-1)
	return col, row
}
