package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func drain(ch chan []byte) []string {
	var out []string
	for {
		select {
		case msg := <-ch:
			out = append(out, string(msg))
		default:
			return out
		}
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	s := b.Subscribe("")
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(s)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsubscribe")
	}
}

func TestPublishEntryEvent_IndexThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	s := b.Subscribe("")
	defer b.Unsubscribe(s)

	b.PublishEntryEvent(KindCreated, "bing", "2025-12-10")
	b.PublishEntryEvent(KindUpdated, "unsplash", "2025-12-10")
	time.Sleep(50 * time.Millisecond)

	var entries, index int
	for _, msg := range drain(s.C) {
		switch {
		case strings.Contains(msg, "event: index.updated"):
			index++
		case strings.Contains(msg, "event: entry."):
			entries++
		}
	}
	if entries != 2 {
		t.Errorf("entry events = %d, want 2", entries)
	}
	if index != 1 {
		t.Errorf("index events = %d, want 1 (throttled)", index)
	}
}

func TestPublishEntryEvent_Payload(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	s := b.Subscribe("")
	defer b.Unsubscribe(s)

	b.PublishEntryEvent(KindCreated, "bing", "2025-12-10")
	select {
	case msg := <-s.C:
		got := string(msg)
		if !strings.HasPrefix(got, "event: entry.created\n") {
			t.Errorf("event line wrong: %q", got)
		}
		if !strings.Contains(got, `"date":"2025-12-10"`) || !strings.Contains(got, `"source":"bing"`) {
			t.Errorf("payload wrong: %q", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestSubscribe_SourceFilter(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	s := b.Subscribe("unsplash")
	defer b.Unsubscribe(s)

	b.PublishEntryEvent(KindCreated, "bing", "2025-12-10")
	b.PublishEntryEvent(KindCreated, "unsplash", "2025-12-10")
	time.Sleep(50 * time.Millisecond)

	msgs := drain(s.C)
	var sawBing, sawUnsplash, sawIndex bool
	for _, m := range msgs {
		sawBing = sawBing || strings.Contains(m, `"source":"bing"`)
		sawUnsplash = sawUnsplash || strings.Contains(m, `"source":"unsplash"`)
		sawIndex = sawIndex || strings.Contains(m, "index.updated")
	}
	if sawBing || !sawUnsplash {
		t.Errorf("filter wrong: %v", msgs)
	}
	if !sawIndex {
		t.Error("unscoped index.updated should reach filtered clients")
	}
}

type flushRecorder struct {
	mu sync.Mutex
	*httptest.ResponseRecorder
}

func (f *flushRecorder) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ResponseRecorder.Write(p)
}

func (f *flushRecorder) body() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ResponseRecorder.Body.String()
}

func TestServeHTTP(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	w := &flushRecorder{ResponseRecorder: httptest.NewRecorder()}

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.PublishEntryEvent(KindUpdated, "bing", "2025-12-10")
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	body := w.body()
	if !strings.HasPrefix(body, ": connected") || !strings.Contains(body, "event: entry.updated") {
		t.Errorf("handler output = %q", body)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content-type = %q", ct)
	}

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	s := b.Subscribe("")
	defer b.Unsubscribe(s)

	for i := 0; i < 100; i++ {
		b.Publish(Event{Type: "test", Data: map[string]int{"i": i}})
	}
	if b.ClientCount() != 1 {
		t.Error("broker stalled on a full client buffer")
	}
}

func TestCloseClosesSubscriptions(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	s := b.Subscribe("")
	b.Close()

	select {
	case _, ok := <-s.C:
		if ok {
			t.Fatal("expected subscription channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	b.Publish(Event{Type: "entry.updated"})
	b.PublishEntryEvent(KindUpdated, "bing", "2025-12-10")
	if late := b.Subscribe(""); late == nil {
		t.Fatal("Subscribe after close returned nil")
	}
}
