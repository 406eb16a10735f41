package plays

import (
	"context"
	"fmt"
	"lunastars/internal/broadcast"
	"lunastars/internal/events"
	"lunastars/internal/items"
	"lunastars/internal/session"
	"lunastars/internal/wshub"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultIdleTTL       = 1 * time.Hour
	DefaultSweepInterval = 5 * time.Minute
)

type Store struct {
	mu     sync.Mutex
	plays  map[string]*Play
	cfg    session.Config
	ctx    context.Context
	logger *zap.Logger
	now    func() time.Time

	// Setup runs on every new play before its driver starts, Teardown after
	// a deleted play has stopped.
	Setup    func(*Play)
	Teardown func(*Play)
}

// NewStore creates an empty registry. Plays run until deleted or until ctx
// is cancelled.
func NewStore(ctx context.Context, cfg session.Config, logger *zap.Logger) *Store {
	return &Store{
		plays:  make(map[string]*Play),
		cfg:    cfg,
		ctx:    ctx,
		logger: logger.Named("plays"),
		now:    time.Now,
	}
}

func (s *Store) Create(playerID string) (*Play, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("generating play id: %w", err)
	}

	bus := events.NewBus()
	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	c := session.NewController(s.cfg, items.NewStore(), bus, rng)
	now := s.now()
	p := &Play{
		ID:          id.String(),
		PlayerID:    playerID,
		Controller:  c,
		Driver:      session.NewDriver(c),
		Broadcaster: broadcast.NewBroadcaster(bus),
		Hub:         wshub.NewHub(s.logger),
		CreatedAt:   now,
		lastSeen:    now,
	}
	if s.Setup != nil {
		s.Setup(p)
	}
	p.start(s.ctx)

	s.mu.Lock()
	s.plays[p.ID] = p
	s.mu.Unlock()

	s.logger.Debug("play created", zap.String("play", p.ID), zap.String("player", playerID))
	return p, nil
}

func (s *Store) Get(id string) *Play {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plays[id]
}

// Delete removes the play and stops its driver. It reports whether the play
// existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	p, ok := s.plays[id]
	delete(s.plays, id)
	s.mu.Unlock()

	if ok {
		p.close()
		if s.Teardown != nil {
			s.Teardown(p)
		}
		s.logger.Debug("play deleted", zap.String("play", id))
	}
	return ok
}

func (s *Store) List() []*Play {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]*Play, 0, len(s.plays))
	for _, p := range s.plays {
		list = append(list, p)
	}
	return list
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.plays)
}

// Sweep deletes plays not touched within ttl and returns how many were removed.
// A play with a connected socket is never idle.
func (s *Store) Sweep(ttl time.Duration) int {
	now := s.now()
	var stale []string
	s.mu.Lock()
	for id, p := range s.plays {
		if p.Hub.Len() == 0 && now.Sub(p.LastSeen()) > ttl {
			stale = append(stale, id)
		}
	}
	s.mu.Unlock()

	removed := 0
	for _, id := range stale {
		if s.Delete(id) {
			removed++
		}
	}
	return removed
}

// RunSweeper sweeps idle plays every interval until ctx is done.
func (s *Store) RunSweeper(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(ttl); n > 0 {
				s.logger.Info("swept idle plays", zap.Int("count", n))
			}
		}
	}
}

// Close deletes every play.
func (s *Store) Close() {
	for _, p := range s.List() {
		s.Delete(p.ID)
	}
}
