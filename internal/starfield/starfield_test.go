package starfield

import (
	"context"
	"math"
	"math/rand/v2"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(4, 2))
}

func TestGenerate_DensityAndRanges(t *testing.T) {
	stars := Generate(600, 400, newRand())
	require.Len(t, stars, 120)

	for _, s := range stars {
		assert.True(t, s.X >= 0 && s.X < 600)
		assert.True(t, s.Y >= 0 && s.Y < 400)
		assert.True(t, s.Radius >= 0 && s.Radius < 1.5)
		assert.True(t, s.Opacity >= 0.2 && s.Opacity < 1.0)
		assert.True(t, s.Speed >= 0.01 && s.Speed < 0.06)
	}
}

func TestGenerate_EmptySurface(t *testing.T) {
	assert.Empty(t, Generate(0, 400, newRand()))
	assert.Empty(t, Generate(600, -1, newRand()))
	assert.Empty(t, Generate(40, 40, newRand()), "1600px² is below one star")
	assert.Empty(t, Generate(math.NaN(), 400, newRand()))
	assert.Empty(t, Generate(600, math.Inf(1), newRand()))
}

func TestGenerate_CapsHugeSurface(t *testing.T) {
	assert.Len(t, Generate(1e150, 1e150, newRand()), MaxStars)
}

func TestField_Resize(t *testing.T) {
	f := New(newRand())
	assert.Empty(t, f.Stars())

	f.Resize(600, 400)
	assert.Len(t, f.Stars(), 120)

	f.Resize(1000, 1000)
	assert.Len(t, f.Stars(), 500)
	w, h := f.Size()
	assert.Equal(t, 1000.0, w)
	assert.Equal(t, 1000.0, h)
}

func TestStar_OpacityAt(t *testing.T) {
	s := Star{Opacity: 0.8, Speed: 0.05}

	assert.InDelta(t, 0.4, s.OpacityAt(0), 1e-9)
	// sin peaks when t*speed*10 = π/2
	peak := math.Pi / 2 / (s.Speed * 10)
	assert.InDelta(t, 0.8, s.OpacityAt(peak), 1e-9)
	assert.InDelta(t, 0.0, s.OpacityAt(3*peak), 1e-9)

	for tm := 0.0; tm < 20; tm += 0.37 {
		o := s.OpacityAt(tm)
		assert.True(t, o >= 0 && o <= s.Opacity)
	}
}

func TestField_Frame(t *testing.T) {
	f := New(newRand())
	f.Resize(200, 100)
	stars := f.Stars()

	points := f.Frame(1.5)
	require.Len(t, points, len(stars))
	for i, p := range points {
		assert.Equal(t, stars[i].X, p.X)
		assert.Equal(t, stars[i].OpacityAt(1.5), p.Opacity)
	}
}

func TestAnimator_DrawsAndStops(t *testing.T) {
	f := New(newRand())
	f.Resize(200, 100)
	a := NewAnimator(f, time.Millisecond)

	var frames atomic.Int64
	var lastT atomic.Value
	a.Start(context.Background(), func(tm float64, points []Point) {
		frames.Add(1)
		lastT.Store(tm)
		assert.Len(t, points, 10)
	})

	assert.Eventually(t, func() bool { return frames.Load() >= 3 }, time.Second, time.Millisecond)

	a.Stop()
	stopped := frames.Load()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, stopped, frames.Load(), "no draws after Stop")
	assert.InDelta(t, float64(stopped)*TimeStep, lastT.Load().(float64), 1e-9)

	a.Stop()
}

func TestAnimator_Step(t *testing.T) {
	f := New(newRand())
	f.Resize(200, 100)
	a := NewAnimator(f, time.Millisecond)
	stars := f.Stars()

	for i := 1; i <= 3; i++ {
		tm, points := a.Step()
		require.InDelta(t, float64(i)*TimeStep, tm, 1e-9)
		require.Len(t, points, len(stars))
		assert.Equal(t, stars[0].OpacityAt(tm), points[0].Opacity)
	}
	assert.Equal(t, stars[0].OpacityAt(3*TimeStep), a.Current()[0].Opacity, "Current does not advance")
}

func TestAnimator_ContextCancel(t *testing.T) {
	f := New(newRand())
	a := NewAnimator(f, time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	a.Start(ctx, func(float64, []Point) {})
	cancel()
	a.Stop()
}
