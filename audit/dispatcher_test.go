package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"
)

type collectSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *collectSink) Emit(_ context.Context, event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *collectSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

type blockingSink struct {
	release chan struct{}
}

func (s *blockingSink) Emit(context.Context, Event) {
	<-s.release
}

func TestDispatcherDeliversToSink(t *testing.T) {
	sink := &collectSink{}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 8}, sink)

	ctx := context.Background()
	d.Emit(ctx, NewEvent("auth.signin", true))
	d.Emit(ctx, NewEvent("auth.signout", true))
	d.Close()

	if got := sink.count(); got != 2 {
		t.Fatalf("delivered %d events, want 2", got)
	}
}

func TestDispatcherDisabledReturnsNil(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, &collectSink{})
	if d != nil {
		t.Fatal("disabled dispatcher must be nil")
	}

	// The nil dispatcher absorbs calls without panicking.
	d.Emit(context.Background(), NewEvent("auth.signin", true))
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher reported drops")
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	ctx := context.Background()
	// First event occupies the worker, second fills the buffer, the rest drop.
	for i := 0; i < 8; i++ {
		d.Emit(ctx, NewEvent("auth.signin", true))
	}

	deadline := time.Now().Add(2 * time.Second)
	for d.Dropped() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if d.Dropped() == 0 {
		t.Fatal("expected drops with a full buffer")
	}

	close(sink.release)
	d.Close()
}

func TestDispatcherCloseDrainsBuffer(t *testing.T) {
	sink := &collectSink{}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 32}, sink)

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		d.Emit(ctx, NewEvent("session.created", true))
	}
	d.Close()

	if got := sink.count(); got != 10 {
		t.Fatalf("drained %d events, want 10", got)
	}
}

func TestDispatcherCloseIsIdempotent(t *testing.T) {
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1}, &collectSink{})
	d.Close()
	d.Close()
	d.Emit(context.Background(), NewEvent("auth.signin", true))
}

func TestNewEventStampsIdentityAndTime(t *testing.T) {
	before := time.Now().UTC()
	event := NewEvent("auth.signup", true)

	if event.ID == "" {
		t.Fatal("missing event ID")
	}
	if event.EventType != "auth.signup" || !event.Success {
		t.Fatalf("unexpected event %+v", event)
	}
	if event.Timestamp.Before(before.Add(-time.Second)) {
		t.Fatalf("timestamp not current: %v", event.Timestamp)
	}
	if event.ID == NewEvent("auth.signup", true).ID {
		t.Fatal("event IDs must be unique")
	}
}

func TestJSONWriterSinkWritesLines(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	event := NewEvent("auth.signin", false)
	event.Error = "password mismatch"
	sink.Emit(context.Background(), event)

	var decoded Event
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not one JSON line: %v", err)
	}
	if decoded.EventType != "auth.signin" || decoded.Success || decoded.Error != "password mismatch" {
		t.Fatalf("unexpected decoded event %+v", decoded)
	}
}
