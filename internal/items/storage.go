package items

import (
	"math"
	"sync"
	"time"
)

const (
	ItemSize = 40
	// MaxSpin is the largest rotation step per frame, in radians.
	MaxSpin = 0.05
)

// Rand is the random source used for placement and motion.
// *math/rand/v2.Rand satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// Placement controls how a batch is laid out.
type Placement struct {
	Margin float64
	Motion bool
	Speed  float64 // max initial speed per axis, per frame
}

type Store struct {
	mu    sync.Mutex
	items []*Item
}

func NewStore() *Store {
	return &Store{}
}

// Generate discards the current batch and lays out n new items inside the
// surface, at least p.Margin away from every edge.
func (s *Store) Generate(n int, surface Surface, p Placement, rng Rand) []Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	spanX := math.Max(surface.Width-2*p.Margin, 0)
	spanY := math.Max(surface.Height-2*p.Margin, 0)

	s.items = make([]*Item, 0, n)
	for i := 0; i < n; i++ {
		item := &Item{
			ID:        i,
			X:         p.Margin + rng.Float64()*spanX,
			Y:         p.Margin + rng.Float64()*spanY,
			Category:  Categories[rng.IntN(len(Categories))],
			Size:      ItemSize,
			SpawnedAt: now,
		}
		item.Color = item.Category.Color()
		if p.Motion {
			item.VX = (rng.Float64()*2 - 1) * p.Speed
			item.VY = (rng.Float64()*2 - 1) * p.Speed
			item.Rotation = rng.Float64() * 2 * math.Pi
			item.Spin = (rng.Float64()*2 - 1) * MaxSpin
		}
		s.items = append(s.items, item)
	}
	return s.copyLocked(false)
}

func (s *Store) Get(id int) (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id < 0 || id >= len(s.items) {
		return Item{}, false
	}
	return *s.items[id], true
}

// Collect marks the item collected. It returns false for unknown ids and for
// items that were already collected.
func (s *Store) Collect(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id < 0 || id >= len(s.items) {
		return false
	}
	it := s.items[id]
	if it.Collected {
		return false
	}
	it.Collected = true
	return true
}

func (s *Store) AllCollected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) == 0 {
		return false
	}
	for _, it := range s.items {
		if !it.Collected {
			return false
		}
	}
	return true
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// List returns a copy of the whole batch, collected items included.
func (s *Store) List() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked(false)
}

// Remaining returns a copy of the uncollected items.
func (s *Store) Remaining() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked(true)
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
}

// Advance moves every uncollected item by its velocity and bounces it off the
// surface edges. damping scales the reflected velocity; 1 is a perfectly
// elastic bounce.
func (s *Store) Advance(surface Surface, damping float64) {
	if !surface.Measurable() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.items {
		if it.Collected {
			continue
		}
		r := math.Min(it.Size/2, math.Min(surface.Width, surface.Height)/2)
		it.X, it.VX = bounce(it.X+it.VX, it.VX, r, surface.Width-r, damping)
		it.Y, it.VY = bounce(it.Y+it.VY, it.VY, r, surface.Height-r, damping)
		it.Rotation = math.Mod(it.Rotation+it.Spin, 2*math.Pi)
	}
}

func bounce(pos, vel, lo, hi, damping float64) (float64, float64) {
	switch {
	case pos < lo:
		return lo, math.Abs(vel) * damping
	case pos > hi:
		return hi, -math.Abs(vel) * damping
	}
	return pos, vel
}

// ItemAt returns the closest uncollected item whose center lies within radius
// of (x, y).
func (s *Store) ItemAt(x, y, radius float64) (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	best := -1
	bestDist := radius
	for i, it := range s.items {
		if it.Collected {
			continue
		}
		if d := math.Hypot(it.X-x, it.Y-y); d <= bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return Item{}, false
	}
	return *s.items[best], true
}

func (s *Store) copyLocked(onlyRemaining bool) []Item {
	list := make([]Item, 0, len(s.items))
	for _, it := range s.items {
		if onlyRemaining && it.Collected {
			continue
		}
		list = append(list, *it)
	}
	return list
}
