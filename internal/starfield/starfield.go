// Package starfield renders the decorative twinkling backdrop. It knows nothing
// about the game being played on top of it.
package starfield

import (
	"context"
	"math"
	"sync"
	"time"
)

const (
	// AreaPerStar is the surface area, in px², that holds one star.
	AreaPerStar = 2000
	// MaxStars bounds one layout.
	MaxStars = 50000
	// TimeStep is how far the twinkle clock moves each frame.
	TimeStep = 0.01
)

// Rand is the random source for star placement.
type Rand interface {
	Float64() float64
}

type Star struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Radius  float64 `json:"r"`
	Opacity float64 `json:"o"`
	Speed   float64 `json:"s"`
}

// OpacityAt returns the star's opacity at twinkle time t.
func (s Star) OpacityAt(t float64) float64 {
	twinkle := math.Sin(t*s.Speed*10)*0.5 + 0.5
	return s.Opacity * twinkle
}

// Point is a star ready to draw.
type Point struct {
	X       float64
	Y       float64
	Radius  float64
	Opacity float64
}

type Field struct {
	mu     sync.Mutex
	width  float64
	height float64
	stars  []Star
	rng    Rand
}

func New(rng Rand) *Field {
	return &Field{rng: rng}
}

// Resize regenerates the star set for a width×height surface.
func (f *Field) Resize(width, height float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.width, f.height = width, height
	f.stars = Generate(width, height, f.rng)
}

// Generate lays out floor(w*h/AreaPerStar) stars uniformly over the surface,
// at most MaxStars. A surface without a finite positive size has no stars.
func Generate(width, height float64, rng Rand) []Star {
	if !(width > 0) || !(height > 0) || math.IsInf(width, 0) || math.IsInf(height, 0) {
		return nil
	}
	count := MaxStars
	if n := math.Floor(width * height / AreaPerStar); n < MaxStars {
		count = int(n)
	}
	stars := make([]Star, 0, count)
	for i := 0; i < count; i++ {
		stars = append(stars, Star{
			X:       rng.Float64() * width,
			Y:       rng.Float64() * height,
			Radius:  rng.Float64() * 1.5,
			Opacity: rng.Float64()*0.8 + 0.2,
			Speed:   rng.Float64()*0.05 + 0.01,
		})
	}
	return stars
}

func (f *Field) Size() (float64, float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.width, f.height
}

func (f *Field) Stars() []Star {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Star, len(f.stars))
	copy(out, f.stars)
	return out
}

// Frame returns every star with its opacity at time t.
func (f *Field) Frame(t float64) []Point {
	f.mu.Lock()
	defer f.mu.Unlock()
	points := make([]Point, len(f.stars))
	for i, s := range f.stars {
		points[i] = Point{X: s.X, Y: s.Y, Radius: s.Radius, Opacity: s.OpacityAt(t)}
	}
	return points
}

// Animator owns the twinkle clock of a Field. It is stepped either by the
// caller's own frame loop (Step) or by a background ticker (Start).
type Animator struct {
	field    *Field
	interval time.Duration

	mu     sync.Mutex
	t      float64
	cancel context.CancelFunc
	done   chan struct{}
}

func NewAnimator(field *Field, interval time.Duration) *Animator {
	return &Animator{field: field, interval: interval}
}

// Step advances the clock by one frame and returns the new time and frame.
func (a *Animator) Step() (float64, []Point) {
	a.mu.Lock()
	a.t += TimeStep
	t := a.t
	a.mu.Unlock()
	return t, a.field.Frame(t)
}

// Current returns the frame at the current clock without advancing it.
func (a *Animator) Current() []Point {
	a.mu.Lock()
	t := a.t
	a.mu.Unlock()
	return a.field.Frame(t)
}

// Start calls draw with each new frame from a background goroutine.
func (a *Animator) Start(ctx context.Context, draw func(t float64, points []Point)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		return
	}
	ctx, a.cancel = context.WithCancel(ctx)
	a.done = make(chan struct{})
	go func(done chan struct{}) {
		defer close(done)
		ticker := time.NewTicker(a.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				draw(a.Step())
			}
		}
	}(a.done)
}

// Stop cancels the redraw loop and waits until no further draw can happen.
func (a *Animator) Stop() {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.cancel, a.done = nil, nil
	a.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}
