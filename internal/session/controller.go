// Package session implements the star-collection game session: a batch of
// collectible items, a score, and a countdown, driven by clicks and timer ticks.
package session

import (
	"errors"
	"fmt"
	"lunastars/internal/events"
	"lunastars/internal/items"
	"sync"
	"time"
)

type Phase string

const (
	PhaseNotStarted = Phase("not_started")
	PhaseStarted    = Phase("started")
	PhaseCompleted  = Phase("completed")
)

type Outcome string

const (
	OutcomeCompleted = Outcome("completed")
	OutcomeTimeout   = Outcome("timeout")
)

type Config struct {
	Duration     int // seconds
	WinThreshold int
	BatchSize    int
	Margin       float64
	Motion       bool
	Damping      float64
	Speed        float64
}

func DefaultConfig() Config {
	return Config{
		Duration:     45,
		WinThreshold: 10,
		BatchSize:    15,
		Margin:       40,
		Damping:      1,
		Speed:        2,
	}
}

func (c Config) Validate() error {
	if c.Duration <= 0 {
		return fmt.Errorf("duration must be > 0, got %d", c.Duration)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be > 0, got %d", c.BatchSize)
	}
	if c.WinThreshold <= 0 || c.WinThreshold > c.BatchSize {
		return fmt.Errorf("win threshold must be in [1, %d], got %d", c.BatchSize, c.WinThreshold)
	}
	if c.Damping <= 0 || c.Damping > 1 {
		return errors.New("damping must be in (0, 1]")
	}
	return nil
}

// Result summarizes a finished attempt.
type Result struct {
	Outcome   Outcome
	Score     int
	BatchSize int
	Duration  int
	TimeLeft  int
	Attempts  int
	StartedAt time.Time
	EndedAt   time.Time
}

// Hooks are called after the controller lock is released.
type Hooks struct {
	OnStart   func(attempt int, at time.Time)
	OnCollect func(item items.Item, score int, at time.Time)
	OnEnd     func(Result)
}

// Snapshot is a copy of the session state for rendering.
type Snapshot struct {
	Phase       Phase        `json:"phase"`
	Score       int          `json:"score"`
	TimeLeft    int          `json:"timeLeft"`
	Duration    int          `json:"duration"`
	Threshold   int          `json:"threshold"`
	BatchSize   int          `json:"batchSize"`
	Attempts    int          `json:"attempts"`
	Items       []items.Item `json:"items"`
	StartedAt   time.Time    `json:"startedAt"`
	CompletedAt time.Time    `json:"completedAt"`
	Pending     bool         `json:"pending"`
}

type Controller struct {
	mu           sync.Mutex
	phase        Phase
	score        int
	timeLeft     int
	attempts     int
	startedAt    time.Time
	completedAt  time.Time
	surface      items.Surface
	pendingStart bool
	changes      chan Phase
	hooks        Hooks
	rng          items.Rand
	now          func() time.Time

	Items  *items.Store
	Events *events.Bus // nil disables event publishing; guarded by mu after construction
	Config Config
}

func NewController(cfg Config, store *items.Store, bus *events.Bus, rng items.Rand) *Controller {
	return &Controller{
		phase:    PhaseNotStarted,
		timeLeft: cfg.Duration,
		changes:  make(chan Phase, 1),
		rng:      rng,
		now:      time.Now,
		Items:    store,
		Events:   bus,
		Config:   cfg,
	}
}

// SetHooks installs the start, collection and end callbacks.
func (c *Controller) SetHooks(h Hooks) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = h
}

// Changes delivers the latest phase after every transition. Only the most
// recent phase is kept if the reader falls behind.
func (c *Controller) Changes() <-chan Phase {
	return c.changes
}

// Resize records the play surface. If a start was requested while the surface
// was unmeasurable it runs now, and Resize reports true.
func (c *Controller) Resize(width, height float64) bool {
	c.mu.Lock()
	c.surface = items.Surface{Width: width, Height: height}
	if !c.pendingStart || !c.surface.Measurable() || c.phase != PhaseNotStarted {
		c.mu.Unlock()
		return false
	}
	c.startLocked()
	c.afterStart()
	return true
}

// Start begins a new attempt from NotStarted. With no measurable surface the
// start is deferred until Resize provides one.
func (c *Controller) Start() bool {
	c.mu.Lock()
	if c.phase != PhaseNotStarted {
		c.mu.Unlock()
		return false
	}
	if !c.surface.Measurable() {
		c.pendingStart = true
		c.mu.Unlock()
		return false
	}
	c.startLocked()
	c.afterStart()
	return true
}

// afterStart releases the lock taken by the caller and runs the start hook.
func (c *Controller) afterStart() {
	hooks, attempt, at := c.hooks, c.attempts, c.startedAt
	c.mu.Unlock()
	if hooks.OnStart != nil {
		hooks.OnStart(attempt, at)
	}
}

func (c *Controller) startLocked() {
	c.pendingStart = false
	c.Items.Generate(c.Config.BatchSize, c.surface, items.Placement{
		Margin: c.Config.Margin,
		Motion: c.Config.Motion,
		Speed:  c.Config.Speed,
	}, c.rng)
	c.score = 0
	c.timeLeft = c.Config.Duration
	c.attempts++
	c.startedAt = c.now()
	c.completedAt = time.Time{}
	c.setPhaseLocked(PhaseStarted)
}

// Collect marks an item collected during a running session. Repeat or unknown
// ids and calls outside Started are no-ops.
func (c *Controller) Collect(id int) bool {
	c.mu.Lock()
	if c.phase != PhaseStarted || !c.Items.Collect(id) {
		c.mu.Unlock()
		return false
	}
	at := c.now()
	c.score++
	item, _ := c.Items.Get(id)
	c.publishLocked(events.Event{
		Kind:     events.KindCollect,
		Score:    c.score,
		TimeLeft: c.timeLeft,
		ItemID:   id,
		Category: string(item.Category),
		Title:    item.Category.Title(),
		Message:  item.Category.Message(),
	})

	var result *Result
	if c.score >= c.Config.WinThreshold || c.Items.AllCollected() {
		result = c.completeLocked()
	}
	hooks := c.hooks
	score := c.score
	c.mu.Unlock()

	if hooks.OnCollect != nil {
		hooks.OnCollect(item, score, at)
	}
	if result != nil && hooks.OnEnd != nil {
		hooks.OnEnd(*result)
	}
	return true
}

// Tick advances the countdown by one second.
func (c *Controller) Tick() {
	c.mu.Lock()
	if c.phase != PhaseStarted {
		c.mu.Unlock()
		return
	}
	if c.timeLeft > 0 {
		c.timeLeft--
	}
	c.publishLocked(events.Event{Kind: events.KindTick, Score: c.score, TimeLeft: c.timeLeft})

	var result *Result
	if c.timeLeft == 0 {
		if c.score >= c.Config.WinThreshold {
			result = c.completeLocked()
		} else {
			result = c.timeoutLocked()
		}
	}
	hooks := c.hooks
	c.mu.Unlock()

	if result != nil && hooks.OnEnd != nil {
		hooks.OnEnd(*result)
	}
}

// Advance steps item motion by one animation frame. Score and phase are never
// touched.
func (c *Controller) Advance() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseStarted {
		return
	}
	c.Items.Advance(c.surface, c.Config.Damping)
}

// Reset returns to NotStarted with a cleared score and batch, from any phase.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.score = 0
	c.timeLeft = c.Config.Duration
	c.pendingStart = false
	c.startedAt = time.Time{}
	c.completedAt = time.Time{}
	c.Items.Clear()
	c.publishLocked(events.Event{Kind: events.KindReset, TimeLeft: c.timeLeft})
	c.setPhaseLocked(PhaseNotStarted)
}

func (c *Controller) completeLocked() *Result {
	c.completedAt = c.now()
	c.setPhaseLocked(PhaseCompleted)
	return c.resultLocked(OutcomeCompleted, c.completedAt)
}

// timeoutLocked discards the attempt. Score and items stay readable until the
// next Start.
func (c *Controller) timeoutLocked() *Result {
	result := c.resultLocked(OutcomeTimeout, c.now())
	c.timeLeft = c.Config.Duration
	c.publishLocked(events.Event{
		Kind:     events.KindTimeout,
		Score:    c.score,
		TimeLeft: c.timeLeft,
		Title:    "Time's up!",
		Message: fmt.Sprintf("You collected %d stars. Try again to collect at least %d!",
			c.score, c.Config.WinThreshold),
	})
	c.setPhaseLocked(PhaseNotStarted)
	return result
}

func (c *Controller) resultLocked(outcome Outcome, ended time.Time) *Result {
	return &Result{
		Outcome:   outcome,
		Score:     c.score,
		BatchSize: c.Items.Len(),
		Duration:  c.Config.Duration,
		TimeLeft:  c.timeLeft,
		Attempts:  c.attempts,
		StartedAt: c.startedAt,
		EndedAt:   ended,
	}
}

func (c *Controller) setPhaseLocked(p Phase) {
	c.phase = p
	c.publishLocked(events.Event{Kind: events.KindPhase, Phase: string(p), Score: c.score, TimeLeft: c.timeLeft})

	// keep only the latest phase for the driver
	select {
	case <-c.changes:
	default:
	}
	c.changes <- p
}

// DetachEvents stops event publishing and returns the previous bus so the
// caller can close it safely.
func (c *Controller) DetachEvents() *events.Bus {
	c.mu.Lock()
	defer c.mu.Unlock()
	bus := c.Events
	c.Events = nil
	return bus
}

func (c *Controller) publishLocked(ev events.Event) {
	if c.Events != nil {
		c.Events.Publish(ev)
	}
}

func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

func (c *Controller) Score() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.score
}

func (c *Controller) TimeLeft() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timeLeft
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Phase:       c.phase,
		Score:       c.score,
		TimeLeft:    c.timeLeft,
		Duration:    c.Config.Duration,
		Threshold:   c.Config.WinThreshold,
		BatchSize:   c.Config.BatchSize,
		Attempts:    c.attempts,
		Items:       c.Items.List(),
		StartedAt:   c.startedAt,
		CompletedAt: c.completedAt,
		Pending:     c.pendingStart,
	}
}
