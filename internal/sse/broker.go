// Package sse streams archive changes to preview clients as Server-Sent Events.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Entry event kinds.
const (
	KindCreated = "created"
	KindUpdated = "updated"
)

// Event is one message on the stream. Source scopes entry events; it is
// empty for events every client receives.
type Event struct {
	Type   string
	Source string
	Data   any
}

// Subscription is a client's message queue.
type Subscription struct {
	C      chan []byte
	source string
}

type entryChange struct {
	kind   string
	source string
	date   string
}

// Broker fans events out to subscribers.
//
// A single event loop goroutine owns the subscriber set and the index
// throttle timestamp. Public methods talk to it over channels.
type Broker struct {
	indexEvery time.Duration
	heartbeat  time.Duration

	join    chan *Subscription
	leave   chan *Subscription
	events  chan Event
	changes chan entryChange
	count   chan chan int

	stop    chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker that emits index.updated at most once per
// indexThrottle.
func NewBroker(indexThrottle time.Duration) *Broker {
	if indexThrottle <= 0 {
		indexThrottle = 2 * time.Second
	}
	b := &Broker{
		indexEvery: indexThrottle,
		heartbeat:  25 * time.Second,
		join:       make(chan *Subscription),
		leave:      make(chan *Subscription),
		events:     make(chan Event, 256),
		changes:    make(chan entryChange, 256),
		count:      make(chan chan int),
		stop:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
	go b.loop()
	return b
}

func encode(e Event) ([]byte, error) {
	payload, err := json.Marshal(e.Data)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", e.Type, payload)), nil
}

func (b *Broker) loop() {
	defer close(b.stopped)

	subs := make(map[*Subscription]struct{})
	var lastIndex time.Time

	send := func(e Event) {
		msg, err := encode(e)
		if err != nil {
			return
		}
		for s := range subs {
			if s.source != "" && e.Source != "" && s.source != e.Source {
				continue
			}
			select {
			case s.C <- msg:
			default:
				// slow client, drop
			}
		}
	}

	for {
		select {
		case <-b.stop:
			for s := range subs {
				close(s.C)
			}
			return

		case s := <-b.join:
			subs[s] = struct{}{}

		case s := <-b.leave:
			if _, ok := subs[s]; ok {
				delete(subs, s)
				close(s.C)
			}

		case e := <-b.events:
			send(e)

		case c := <-b.changes:
			send(Event{
				Type:   "entry." + c.kind,
				Source: c.source,
				Data:   map[string]string{"source": c.source, "date": c.date},
			})
			if now := time.Now(); now.Sub(lastIndex) >= b.indexEvery {
				lastIndex = now
				send(Event{Type: "index.updated", Data: map[string]string{}})
			}

		case resp := <-b.count:
			resp <- len(subs)
		}
	}
}

// Close stops the loop and closes every subscription.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stop)
	}
	<-b.stopped
}

// Subscribe registers a client. A non-empty source limits entry events to
// that source.
func (b *Broker) Subscribe(source string) *Subscription {
	s := &Subscription{C: make(chan []byte, 64), source: source}
	if b.closed.Load() {
		close(s.C)
		return s
	}
	select {
	case b.join <- s:
	case <-b.stopped:
		close(s.C)
	}
	return s
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(s *Subscription) {
	if b.closed.Load() {
		return
	}
	select {
	case b.leave <- s:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}
	resp := make(chan int, 1)
	select {
	case b.count <- resp:
	case <-b.stopped:
		return 0
	}
	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all matching clients.
func (b *Broker) Publish(e Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.events <- e:
	case <-b.stopped:
	}
}

// PublishEntryEvent announces a changed entry, followed by a throttled
// index.updated event.
func (b *Broker) PublishEntryEvent(kind, source, date string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.changes <- entryChange{kind: kind, source: source, date: date}:
	case <-b.stopped:
	}
}

// ServeHTTP streams events (GET /api/events?source=).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	sub := b.Subscribe(r.URL.Query().Get("source"))
	defer b.Unsubscribe(sub)

	ping := time.NewTicker(b.heartbeat)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ping.C:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case msg, ok := <-sub.C:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
