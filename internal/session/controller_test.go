package session

import (
	"math/rand/v2"
	"testing"
	"time"

	"lunastars/internal/events"
	"lunastars/internal/items"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestController(t *testing.T, duration int) *Controller {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Duration = duration
	c := NewController(cfg, items.NewStore(), events.NewBus(), rand.New(rand.NewPCG(7, 11)))
	c.Resize(600, 400)
	return c
}

func TestNewController_NotStarted(t *testing.T) {
	c := newTestController(t, 30)
	snap := c.Snapshot()
	assert.Equal(t, PhaseNotStarted, snap.Phase)
	assert.Equal(t, 0, snap.Score)
	assert.Equal(t, 30, snap.TimeLeft)
	assert.Empty(t, snap.Items)
}

func TestController_Start(t *testing.T) {
	c := newTestController(t, 45)

	require.True(t, c.Start())

	snap := c.Snapshot()
	assert.Equal(t, PhaseStarted, snap.Phase)
	assert.Len(t, snap.Items, 15)
	assert.Equal(t, 45, snap.TimeLeft)
	assert.Equal(t, 1, snap.Attempts)
	for _, it := range snap.Items {
		assert.GreaterOrEqual(t, it.X, 40.0)
		assert.LessOrEqual(t, it.X, 560.0)
		assert.GreaterOrEqual(t, it.Y, 40.0)
		assert.LessOrEqual(t, it.Y, 360.0)
	}

	assert.False(t, c.Start(), "Start while Started should be a no-op")
}

func TestController_Start_DeferredUntilMeasurable(t *testing.T) {
	c := NewController(DefaultConfig(), items.NewStore(), nil, rand.New(rand.NewPCG(1, 1)))

	assert.False(t, c.Start())
	snap := c.Snapshot()
	assert.Equal(t, PhaseNotStarted, snap.Phase)
	assert.True(t, snap.Pending)
	assert.Empty(t, snap.Items)

	assert.False(t, c.Resize(0, 300), "zero width is still unmeasurable")
	assert.Equal(t, PhaseNotStarted, c.Phase())

	assert.True(t, c.Resize(800, 600))
	assert.Equal(t, PhaseStarted, c.Phase())
	assert.Len(t, c.Snapshot().Items, 15)
}

func TestController_Collect_CountsDistinctIDs(t *testing.T) {
	c := newTestController(t, 30)
	c.Start()

	ids := []int{0, 1, 1, 2, 99, -3, 2, 3}
	for _, id := range ids {
		c.Collect(id)
	}

	assert.Equal(t, 4, c.Score())
	assert.Equal(t, PhaseStarted, c.Phase())
}

func TestController_Collect_TwiceChangesScoreOnce(t *testing.T) {
	c := newTestController(t, 30)
	c.Start()

	assert.True(t, c.Collect(5))
	assert.False(t, c.Collect(5))
	assert.Equal(t, 1, c.Score())
}

func TestController_Collect_OutsideStarted(t *testing.T) {
	c := newTestController(t, 30)

	assert.False(t, c.Collect(0))
	assert.Equal(t, 0, c.Score())
}

func TestController_CompletesAtThreshold(t *testing.T) {
	for _, duration := range []int{30, 45} {
		c := newTestController(t, duration)
		c.Start()

		for id := 0; id < 9; id++ {
			require.True(t, c.Collect(id))
		}
		assert.Equal(t, PhaseStarted, c.Phase())

		require.True(t, c.Collect(9))
		assert.Equal(t, PhaseCompleted, c.Phase())
		assert.Equal(t, 10, c.Score())
		assert.Equal(t, duration, c.TimeLeft(), "completion should not wait for the countdown")

		// terminal until reset
		assert.False(t, c.Collect(10))
		c.Tick()
		assert.Equal(t, 10, c.Score())
		assert.Equal(t, duration, c.TimeLeft())
		assert.False(t, c.Start())
	}
}

func TestController_CompletesWhenAllCollected(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BatchSize = 3
	cfg.WinThreshold = 3
	c := NewController(cfg, items.NewStore(), nil, rand.New(rand.NewPCG(3, 4)))
	c.Resize(300, 300)
	c.Start()

	c.Collect(0)
	c.Collect(2)
	assert.Equal(t, PhaseStarted, c.Phase())
	c.Collect(1)
	assert.Equal(t, PhaseCompleted, c.Phase())
}

func TestController_ScoreNeverExceedsBatch(t *testing.T) {
	c := newTestController(t, 30)
	c.Start()
	for range 3 {
		for id := 0; id < 20; id++ {
			c.Collect(id)
		}
	}
	assert.LessOrEqual(t, c.Score(), c.Items.Len())
}

func TestController_TickTimeout(t *testing.T) {
	c := newTestController(t, 30)
	c.Start()
	for id := 0; id < 4; id++ {
		c.Collect(id)
	}

	var ended []Result
	c.SetHooks(Hooks{OnEnd: func(r Result) { ended = append(ended, r) }})

	for i := 0; i < 29; i++ {
		c.Tick()
	}
	assert.Equal(t, PhaseStarted, c.Phase())
	assert.Equal(t, 1, c.TimeLeft())

	c.Tick()

	snap := c.Snapshot()
	assert.Equal(t, PhaseNotStarted, snap.Phase)
	assert.Equal(t, 30, snap.TimeLeft)
	assert.Equal(t, 4, snap.Score, "failed attempt score stays readable until the next start")
	require.Len(t, ended, 1)
	assert.Equal(t, OutcomeTimeout, ended[0].Outcome)
	assert.Equal(t, 4, ended[0].Score)

	// ticks after the timeout are no-ops
	c.Tick()
	assert.Equal(t, 30, c.TimeLeft())

	require.True(t, c.Start())
	assert.Equal(t, 0, c.Score(), "score is not carried into the next attempt")
	assert.Equal(t, 2, c.Snapshot().Attempts)
}

func TestController_TickCompletesAboveThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Duration = 2
	cfg.WinThreshold = 15
	c := NewController(cfg, items.NewStore(), nil, rand.New(rand.NewPCG(5, 6)))
	c.Resize(600, 400)
	c.Start()
	for id := 0; id < 14; id++ {
		c.Collect(id)
	}
	// lower the bar mid-attempt so the timeout check is the one that completes
	c.Config.WinThreshold = 10

	c.Tick()
	c.Tick()

	assert.Equal(t, PhaseCompleted, c.Phase())
	assert.Equal(t, 0, c.TimeLeft())
}

func TestController_TimeLeftNeverNegative(t *testing.T) {
	c := newTestController(t, 3)
	c.Start()
	for range 10 {
		c.Tick()
		assert.GreaterOrEqual(t, c.TimeLeft(), 0)
	}
}

func TestController_Reset(t *testing.T) {
	tests := []struct {
		name  string
		setup func(c *Controller)
	}{
		{"not started", func(c *Controller) {}},
		{"started", func(c *Controller) { c.Start(); c.Collect(1); c.Tick() }},
		{"completed", func(c *Controller) {
			c.Start()
			for id := 0; id < 10; id++ {
				c.Collect(id)
			}
		}},
		{"timed out", func(c *Controller) {
			c.Start()
			c.Collect(0)
			for range 30 {
				c.Tick()
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestController(t, 30)
			tt.setup(c)

			c.Reset()

			snap := c.Snapshot()
			assert.Equal(t, PhaseNotStarted, snap.Phase)
			assert.Equal(t, 0, snap.Score)
			assert.Equal(t, 30, snap.TimeLeft)
			assert.Empty(t, snap.Items)
		})
	}
}

func TestController_Advance(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Motion = true
	cfg.Speed = 3
	c := NewController(cfg, items.NewStore(), nil, rand.New(rand.NewPCG(9, 9)))
	c.Resize(600, 400)

	c.Advance() // not started: nothing to move
	c.Start()
	before := c.Snapshot()

	for range 50 {
		c.Advance()
	}

	after := c.Snapshot()
	assert.Equal(t, before.Score, after.Score)
	assert.Equal(t, before.Phase, after.Phase)
	assert.Equal(t, before.TimeLeft, after.TimeLeft)
	moved := false
	for i := range after.Items {
		if after.Items[i].X != before.Items[i].X || after.Items[i].Y != before.Items[i].Y {
			moved = true
		}
	}
	assert.True(t, moved, "at least one item should move")
}

func TestController_PublishesEvents(t *testing.T) {
	c := newTestController(t, 30)
	c.Start()
	c.Collect(0)
	c.Tick()

	var kinds []events.Kind
	for len(c.Events.C) > 0 {
		ev := <-c.Events.C
		kinds = append(kinds, ev.Kind)
		if ev.Kind == events.KindCollect {
			assert.NotEmpty(t, ev.Message)
			assert.Equal(t, 1, ev.Score)
		}
	}
	assert.Equal(t, []events.Kind{events.KindPhase, events.KindCollect, events.KindTick}, kinds)
}

func TestController_CollectHook(t *testing.T) {
	c := newTestController(t, 30)
	var got []int
	c.SetHooks(Hooks{OnCollect: func(it items.Item, score int, _ time.Time) {
		got = append(got, it.ID*100+score)
	}})
	c.Start()
	c.Collect(3)
	c.Collect(3)
	c.Collect(4)

	assert.Equal(t, []int{301, 402}, got)
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.WinThreshold = 16
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Damping = 0
	assert.Error(t, cfg.Validate())
}

func TestController_StartHook(t *testing.T) {
	c := NewController(DefaultConfig(), items.NewStore(), nil, rand.New(rand.NewPCG(1, 2)))
	var attempts []int
	c.SetHooks(Hooks{OnStart: func(attempt int, at time.Time) {
		assert.False(t, at.IsZero())
		attempts = append(attempts, attempt)
	}})

	c.Start() // deferred, no hook yet
	assert.Empty(t, attempts)

	c.Resize(600, 400)
	c.Reset()
	c.Start()

	assert.Equal(t, []int{1, 2}, attempts)
}

func TestController_DetachEvents(t *testing.T) {
	bus := events.NewBus()
	c := NewController(DefaultConfig(), items.NewStore(), bus, rand.New(rand.NewPCG(1, 2)))
	c.Resize(600, 400)

	got := c.DetachEvents()
	require.Same(t, bus, got)
	got.Close()

	// no publish after detach, so no send on the closed bus
	c.Start()
	c.Tick()
	assert.Equal(t, PhaseStarted, c.Phase())
	assert.Nil(t, c.DetachEvents())
}
