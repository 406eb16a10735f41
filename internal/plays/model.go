package plays

import (
	"context"
	"encoding/json"
	"lunastars/internal/broadcast"
	"lunastars/internal/events"
	"lunastars/internal/session"
	"lunastars/internal/wshub"
	"sync"
	"time"
)

// FrameInterval is how often item positions are pushed to sockets while
// motion is enabled.
const FrameInterval = 50 * time.Millisecond

// Play is one browser's live game: the controller and everything that keeps
// it running and visible.
type Play struct {
	ID          string
	PlayerID    string
	Controller  *session.Controller
	Driver      *session.Driver
	Broadcaster *broadcast.Broadcaster
	Hub         *wshub.Hub
	CreatedAt   time.Time

	mu       sync.Mutex
	lastSeen time.Time
	recordID string
	cancel   context.CancelFunc
	done     chan struct{}
}

// Touch marks the play as in use.
func (p *Play) Touch(now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastSeen = now
}

func (p *Play) LastSeen() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastSeen
}

// SetRecordID remembers the database row of the current attempt.
func (p *Play) SetRecordID(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.recordID = id
}

func (p *Play) RecordID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.recordID
}

// start runs the play's driver and the pump that turns session events into
// socket messages.
func (p *Play) start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})
	p.Driver.Start(ctx)
	sub := p.Broadcaster.Subscribe()
	go p.pump(ctx, sub)
}

func (p *Play) pump(ctx context.Context, sub chan broadcast.Message) {
	defer close(p.done)
	defer p.Broadcaster.Unsubscribe(sub)

	var frameC <-chan time.Time
	if p.Controller.Config.Motion {
		frame := time.NewTicker(FrameInterval)
		defer frame.Stop()
		frameC = frame.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub:
			if !ok {
				return
			}
			p.relay(msg)
		case <-frameC:
			if p.Controller.Phase() == session.PhaseStarted {
				p.Hub.Broadcast(wshub.ServerMessage{Type: wshub.MsgItems, Items: p.Controller.Items.List()})
			}
		}
	}
}

func (p *Play) relay(msg broadcast.Message) {
	var ev events.Event
	if err := json.Unmarshal([]byte(msg.Data), &ev); err != nil {
		return
	}
	switch ev.Kind {
	case events.KindCollect, events.KindTimeout:
		p.Hub.Broadcast(wshub.ServerMessage{Type: wshub.MsgToast, Title: ev.Title, Message: ev.Message})
	}
	if ev.Kind == events.KindTick || ev.Kind == events.KindCollect || ev.Kind == events.KindPhase {
		snap := p.Controller.Snapshot()
		p.Hub.Broadcast(wshub.ServerMessage{Type: wshub.MsgState, State: &snap})
	}
}

// close stops all background work. No events are published after it returns.
func (p *Play) close() {
	if p.cancel != nil {
		p.cancel()
		<-p.done
	}
	p.Driver.Stop()
	if bus := p.Controller.DetachEvents(); bus != nil {
		bus.Close()
	}
	<-p.Broadcaster.Done()
	p.Hub.Close()
}
