package web

import (
	"encoding/json"
	"strings"
	"sync"
	"time"
)

// Event is a single booth event for SSE. Kind is "state" for indicator
// transitions and "log" for debug output lines.
type Event struct {
	Time  string `json:"t"`
	Kind  string `json:"kind"`
	State string `json:"state,omitempty"`
	Msg   string `json:"msg,omitempty"`
}

// EventBroadcaster distributes booth events to multiple SSE clients.
type EventBroadcaster struct {
	mu      sync.RWMutex
	clients map[chan string]struct{}
}

// NewEventBroadcaster creates a new broadcaster.
func NewEventBroadcaster() *EventBroadcaster {
	return &EventBroadcaster{
		clients: make(map[chan string]struct{}),
	}
}

// Subscribe returns a channel that receives broadcast events and a cleanup
// function. The caller must call the returned cleanup when done (e.g. on
// client disconnect).
func (b *EventBroadcaster) Subscribe() (<-chan string, func()) {
	ch := make(chan string, 64)
	b.mu.Lock()
	b.clients[ch] = struct{}{}
	b.mu.Unlock()

	unsub := func() {
		b.mu.Lock()
		delete(b.clients, ch)
		b.mu.Unlock()
		close(ch)
	}
	return ch, unsub
}

// broadcast sends an event to all subscribed clients. Slow clients may miss
// events (non-blocking, buffered).
func (b *EventBroadcaster) broadcast(evt Event) {
	evt.Time = time.Now().Format(time.RFC3339)
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	payload := string(data)

	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.clients {
		select {
		case ch <- payload:
		default:
			// channel full, skip
		}
	}
}

// State broadcasts an indicator state transition.
func (b *EventBroadcaster) State(state string) {
	b.broadcast(Event{Kind: "state", State: state})
}

// Log broadcasts a log line.
func (b *EventBroadcaster) Log(msg string) {
	b.broadcast(Event{Kind: "log", Msg: msg})
}

// BroadcastWriter implements io.Writer; each Write broadcasts the content as
// a log event. Used to tee the debug output to SSE clients.
func BroadcastWriter(b *EventBroadcaster) *broadcastWriter {
	return &broadcastWriter{b: b}
}

type broadcastWriter struct {
	b *EventBroadcaster
}

func (w *broadcastWriter) Write(p []byte) (n int, err error) {
	msg := strings.TrimSpace(string(p))
	if msg != "" {
		w.b.Log(msg)
	}
	return len(p), nil
}
