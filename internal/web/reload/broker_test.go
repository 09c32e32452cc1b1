package reload

import (
	"testing"
	"time"
)

func TestBrokerBroadcast(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	if b.Count() != 1 {
		t.Fatalf("Count = %d, want 1", b.Count())
	}

	b.Broadcast(Change{Paths: []string{"index.html"}})

	select {
	case c := <-ch:
		if len(c.Paths) != 1 || c.Paths[0] != "index.html" {
			t.Errorf("unexpected change: %+v", c)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast")
	}
}

func TestBrokerDropsForSlowClient(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	for range cap(ch) + 5 {
		b.Broadcast(Change{})
	}
	if len(ch) != cap(ch) {
		t.Errorf("expected full buffer of %d, got %d", cap(ch), len(ch))
	}
}

func TestBrokerUnsubscribeTwice(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe()
	b.Unsubscribe(ch)
	b.Unsubscribe(ch)

	if b.Count() != 0 {
		t.Errorf("Count = %d, want 0", b.Count())
	}
}

func TestBrokerClose(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe()

	b.Close()

	if _, ok := <-ch; ok {
		t.Error("expected channel closed after Close")
	}
	// Unsubscribe after Close must not double-close.
	b.Unsubscribe(ch)

	late := b.Subscribe()
	if _, ok := <-late; ok {
		t.Error("expected closed channel when subscribing to closed broker")
	}
	if b.Count() != 0 {
		t.Errorf("Count = %d, want 0", b.Count())
	}
}
