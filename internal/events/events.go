package events

type Kind string

const (
	KindPhase   = Kind("phase")
	KindCollect = Kind("collect")
	KindTick    = Kind("tick")
	KindTimeout = Kind("timeout")
	KindReset   = Kind("reset")
)

// Event describes one state change of a game session.
type Event struct {
	Kind     Kind   `json:"kind"`
	Phase    string `json:"phase,omitempty"`
	Score    int    `json:"score"`
	TimeLeft int    `json:"timeLeft"`
	ItemID   int    `json:"itemId"`
	Category string `json:"category,omitempty"`
	Title    string `json:"title,omitempty"`
	Message  string `json:"message,omitempty"`
}

type Bus struct {
	C chan Event
}

func NewBus() *Bus {
	return &Bus{
		C: make(chan Event, 64),
	}
}

// Publish hands ev to the bus without blocking. It reports false when the
// buffer is full and the event was dropped.
func (b *Bus) Publish(ev Event) bool {
	select {
	case b.C <- ev:
		return true
	default:
		return false
	}
}

// Close ends the stream; Publish must not be called afterwards.
func (b *Bus) Close() {
	close(b.C)
}
