package broadcast

import (
	"encoding/json"
	"lunastars/internal/events"
	"sync"
)

// Message is one server-sent event: an event name and its data payload.
type Message struct {
	Event string
	Data  string
}

type Broadcaster struct {
	Mu      sync.Mutex
	Clients map[chan Message]bool
	done    chan struct{}
}

// NewBroadcaster fans every event published on bus out to all subscribers,
// JSON-encoded under the event kind. When bus is closed every subscriber
// channel is closed too.
func NewBroadcaster(bus *events.Bus) *Broadcaster {
	b := &Broadcaster{
		Clients: make(map[chan Message]bool),
		done:    make(chan struct{}),
	}
	go func() {
		defer close(b.done)
		for ev := range bus.C {
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			b.Broadcast(string(ev.Kind), string(data))
		}
		b.Mu.Lock()
		for ch := range b.Clients {
			delete(b.Clients, ch)
			close(ch)
		}
		b.Mu.Unlock()
	}()
	return b
}

func (b *Broadcaster) Subscribe() chan Message {
	ch := make(chan Message, 16)
	b.Mu.Lock()
	b.Clients[ch] = true
	b.Mu.Unlock()
	return ch
}

func (b *Broadcaster) Unsubscribe(ch chan Message) {
	b.Mu.Lock()
	defer b.Mu.Unlock()
	if _, ok := b.Clients[ch]; !ok {
		return
	}
	delete(b.Clients, ch)
	close(ch)
}

func (b *Broadcaster) Broadcast(event string, data string) {
	b.Mu.Lock()
	defer b.Mu.Unlock()
	for ch := range b.Clients {
		select {
		case ch <- Message{Event: event, Data: data}:
		default:
			// skip clients with full data channels
		}
	}
}

// Done is closed once the forwarding goroutine has drained the bus.
func (b *Broadcaster) Done() <-chan struct{} {
	return b.done
}
