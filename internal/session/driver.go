package session

import (
	"context"
	"sync"
	"time"
)

const (
	DefaultTickInterval  = time.Second
	DefaultFrameInterval = 16 * time.Millisecond
)

// Driver owns the recurring work of one controller: the one-second countdown
// and, with motion enabled, the per-frame advance. The countdown ticker is
// re-armed whenever an attempt starts so the first tick lands a full interval
// after Start.
type Driver struct {
	c             *Controller
	TickInterval  time.Duration
	FrameInterval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewDriver(c *Controller) *Driver {
	return &Driver{
		c:             c,
		TickInterval:  DefaultTickInterval,
		FrameInterval: DefaultFrameInterval,
	}
}

// Start launches the driver goroutine. Calling Start on a running driver is a
// no-op.
func (d *Driver) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		return
	}
	ctx, d.cancel = context.WithCancel(ctx)
	d.done = make(chan struct{})
	go d.run(ctx, d.done)
}

// Stop cancels the driver and waits for its goroutine to exit. After Stop
// returns no further Tick or Advance reaches the controller.
func (d *Driver) Stop() {
	d.mu.Lock()
	cancel, done := d.cancel, d.done
	d.cancel, d.done = nil, nil
	d.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (d *Driver) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	tick := time.NewTicker(d.TickInterval)
	defer tick.Stop()

	var frameC <-chan time.Time
	if d.c.Config.Motion && d.FrameInterval > 0 {
		frame := time.NewTicker(d.FrameInterval)
		defer frame.Stop()
		frameC = frame.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case phase := <-d.c.Changes():
			if phase == PhaseStarted {
				tick.Reset(d.TickInterval)
			}
		case <-tick.C:
			d.c.Tick()
		case <-frameC:
			d.c.Advance()
		}
	}
}
