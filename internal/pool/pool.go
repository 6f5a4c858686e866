// Package pool provides a reuse cache for objects that are expensive to
// construct but cheap to re-initialize.
//
// Unlike sync.Pool, a Pool never drops instances on its own and it separates
// first-time construction (Build) from reuse (Rearm), so pooled types can
// allocate their internal buffers once and keep them for every later use.
// A Pool is not safe for concurrent use.
package pool

// Reusable is implemented by types that can be managed by a Pool.
// Build is called once, right after the instance is constructed.
// Rearm is called every time a freed instance is handed out again.
type Reusable[C any] interface {
	comparable
	Build(opts ...C)
	Rearm(opts ...C)
}

// Metrics is a point-in-time view of a pool's bookkeeping.
type Metrics struct {
	Free      int    // Instances available for reuse
	Allocated int    // Instances ever constructed by the pool
	Reuses    uint64 // Alloc calls served from the free list
}

// Pool hands out instances of T, constructing new ones only when no freed
// instance is available.
type Pool[T Reusable[C], C any] struct {
	newFn     func() T
	allocated []T            // Every instance ever constructed, never shrinks
	free      []T            // LIFO stack of instances ready for reuse
	inFree    map[T]struct{} // Identity set mirroring free
	reuses    uint64
}

// New creates an empty pool. newFn constructs a bare instance; the pool
// calls Build on it before handing it out.
func New[T Reusable[C], C any](newFn func() T) *Pool[T, C] {
	return &Pool[T, C]{
		newFn:  newFn,
		inFree: make(map[T]struct{}),
	}
}

// Alloc returns the most recently freed instance re-armed with opts, or a
// newly constructed and built instance when the free list is empty.
func (p *Pool[T, C]) Alloc(opts ...C) T {
	if n := len(p.free); n > 0 {
		instance := p.free[n-1]
		var zero T
		p.free[n-1] = zero
		p.free = p.free[:n-1]
		delete(p.inFree, instance)
		p.reuses++
		instance.Rearm(opts...)
		return instance
	}

	instance := p.newFn()
	p.allocated = append(p.allocated, instance)
	instance.Build(opts...)
	return instance
}

// Free makes instance available for reuse. Freeing an instance that is
// already free is a no-op. Ownership is not checked: the caller must only
// free instances obtained from this pool and must stop using them after.
func (p *Pool[T, C]) Free(instance T) {
	if _, ok := p.inFree[instance]; ok {
		return
	}
	p.inFree[instance] = struct{}{}
	p.free = append(p.free, instance)
}

// FreeAll frees every instance the pool has constructed, in construction order.
func (p *Pool[T, C]) FreeAll() {
	for _, instance := range p.allocated {
		p.Free(instance)
	}
}

// Collect drops the pool's references to all free instances.
// Allocated instances are not touched, so NumAllocated keeps counting them.
func (p *Pool[T, C]) Collect() {
	p.free = nil
	clear(p.inFree)
}

// NumAllocated returns how many instances the pool has ever constructed.
func (p *Pool[T, C]) NumAllocated() int {
	return len(p.allocated)
}

// NumFree returns how many instances are waiting for reuse.
func (p *Pool[T, C]) NumFree() int {
	return len(p.free)
}

// Metrics returns the free and allocated counts together.
func (p *Pool[T, C]) Metrics() Metrics {
	return Metrics{
		Free:      p.NumFree(),
		Allocated: p.NumAllocated(),
		Reuses:    p.reuses,
	}
}
