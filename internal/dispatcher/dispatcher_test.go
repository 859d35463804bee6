package dispatcher

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// testLogger implements Logger for testing
type testLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *testLogger) Debug(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("DEBUG: %s %v", msg, keysAndValues))
}

func (l *testLogger) Info(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("INFO: %s %v", msg, keysAndValues))
}

func (l *testLogger) Error(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("ERROR: %s %v", msg, keysAndValues))
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *testLogger) {
	logger := &testLogger{}

	d, err := New(logger)
	if err != nil {
		t.Fatalf("failed to create dispatcher: %v", err)
	}

	return d, logger
}

func TestDispatcher_SyncHandler(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var gotPayload string
	d.Register("cluster.click", func(e Event) (any, error) {
		gotPayload = string(e.Payload)
		return "result", nil
	})

	result, err := d.Dispatch(Event{Command: "cluster.click", Payload: json.RawMessage(`{"id":"cluster-1"}`)})

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if gotPayload != `{"id":"cluster-1"}` {
		t.Errorf("handler got payload %q", gotPayload)
	}
	if result != "result" {
		t.Errorf("expected 'result', got %v", result)
	}
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	d, _ := newTestDispatcher(t)

	_, err := d.Dispatch(Event{Command: "does.not.exist"})

	if !errors.Is(err, ErrNoHandler) {
		t.Errorf("expected ErrNoHandler, got %v", err)
	}
}

func TestDispatcher_StampsTimestamp(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var got time.Time
	d.Register("view.set", func(e Event) (any, error) {
		got = e.Timestamp
		return nil, nil
	})

	d.Dispatch(Event{Command: "view.set"})

	if got.IsZero() {
		t.Error("expected dispatch to stamp a timestamp")
	}
}

func TestDispatcher_BufferedHandler(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var processed atomic.Int32
	var wg sync.WaitGroup
	wg.Add(3)

	d.Register("telemetry.sample", func(e Event) (any, error) {
		processed.Add(1)
		wg.Done()
		return nil, nil
	}, Buffered(100))

	// Dispatch 3 events
	for i := 0; i < 3; i++ {
		result, err := d.Dispatch(Event{Command: "telemetry.sample"})
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if result != "queued" {
			t.Errorf("expected 'queued', got %v", result)
		}
	}

	// Wait for processing
	wg.Wait()

	if processed.Load() != 3 {
		t.Errorf("expected 3 processed, got %d", processed.Load())
	}
}

func TestDispatcher_BufferedDropsWhenFull(t *testing.T) {
	d, _ := newTestDispatcher(t)

	// Block the handler so queue fills up
	block := make(chan struct{})
	d.Register("telemetry.sample", func(e Event) (any, error) {
		<-block
		return nil, nil
	}, Buffered(2))

	// Fill the queue (2 items) + 1 being processed
	d.Dispatch(Event{Command: "telemetry.sample"}) // being processed
	d.Dispatch(Event{Command: "telemetry.sample"}) // queued
	d.Dispatch(Event{Command: "telemetry.sample"}) // queued

	// This should be dropped
	_, err := d.Dispatch(Event{Command: "telemetry.sample"})

	if err == nil {
		t.Error("expected error when queue is full")
	}

	close(block)
}

func TestDispatcher_BufferedBlocking(t *testing.T) {
	d, _ := newTestDispatcher(t)

	block := make(chan struct{})
	d.Register("export.write", func(e Event) (any, error) {
		<-block
		return nil, nil
	}, Buffered(1), Blocking())

	// First event starts processing
	d.Dispatch(Event{Command: "export.write"})
	// Second event fills the queue
	d.Dispatch(Event{Command: "export.write"})

	// Third event should block (test with timeout)
	done := make(chan struct{})
	go func() {
		d.Dispatch(Event{Command: "export.write"})
		close(done)
	}()

	select {
	case <-done:
		t.Error("dispatch should have blocked")
	case <-time.After(50 * time.Millisecond):
		// Expected - dispatch is blocking
	}

	close(block)
}

func TestDispatcher_LoggedHandler(t *testing.T) {
	d, logger := newTestDispatcher(t)

	d.Register("tour.start", func(e Event) (any, error) {
		return "ok", nil
	}, Logged())

	d.Dispatch(Event{Command: "tour.start", Payload: json.RawMessage(`{"duration":30}`)})

	// Give time for logging
	time.Sleep(10 * time.Millisecond)

	logger.mu.Lock()
	defer logger.mu.Unlock()

	if len(logger.messages) < 2 {
		t.Errorf("expected at least 2 log messages, got %d", len(logger.messages))
	}
}

func TestDispatcher_LoggedHandlerError(t *testing.T) {
	d, logger := newTestDispatcher(t)

	d.Register("tour.start", func(e Event) (any, error) {
		return nil, fmt.Errorf("test error")
	}, Logged())

	d.Dispatch(Event{Command: "tour.start"})

	logger.mu.Lock()
	defer logger.mu.Unlock()

	hasError := false
	for _, msg := range logger.messages {
		if len(msg) >= 5 && msg[:5] == "ERROR" {
			hasError = true
			break
		}
	}

	if !hasError {
		t.Error("expected error log message")
	}
}

func TestDispatcher_HasHandler(t *testing.T) {
	d, _ := newTestDispatcher(t)

	d.Register("panel.close", func(e Event) (any, error) { return nil, nil })

	if !d.HasHandler("panel.close") {
		t.Error("expected handler to exist")
	}

	if d.HasHandler("panel.open") {
		t.Error("expected handler to not exist")
	}
}

func TestDispatcher_Commands(t *testing.T) {
	d, _ := newTestDispatcher(t)

	d.Register("panel.close", func(e Event) (any, error) { return nil, nil })
	d.Register("panel.back", func(e Event) (any, error) { return nil, nil })

	commands := d.Commands()
	if len(commands) != 2 {
		t.Errorf("expected 2 commands, got %d", len(commands))
	}
}

func TestDispatcher_CombinedOptions(t *testing.T) {
	d, logger := newTestDispatcher(t)

	var processed atomic.Int32
	var wg sync.WaitGroup
	wg.Add(1)

	d.Register("telemetry.sample", func(e Event) (any, error) {
		processed.Add(1)
		wg.Done()
		return "done", nil
	}, Buffered(100), Logged())

	result, err := d.Dispatch(Event{Command: "telemetry.sample"})

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if result != "queued" {
		t.Errorf("expected 'queued', got %v", result)
	}

	wg.Wait()

	if processed.Load() != 1 {
		t.Errorf("expected 1 processed, got %d", processed.Load())
	}

	logger.mu.Lock()
	defer logger.mu.Unlock()

	if len(logger.messages) < 2 {
		t.Errorf("expected log messages, got %d", len(logger.messages))
	}
}

func TestDispatcher_DrainWaitsForQueuedEvents(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var processed atomic.Int32
	d.Register("telemetry.sample", func(e Event) (any, error) {
		time.Sleep(5 * time.Millisecond)
		processed.Add(1)
		return nil, nil
	}, Buffered(10))

	for i := 0; i < 5; i++ {
		d.Dispatch(Event{Command: "telemetry.sample"})
	}

	if err := d.Drain(2 * time.Second); err != nil {
		t.Fatalf("drain failed: %v", err)
	}

	if processed.Load() != 5 {
		t.Errorf("expected 5 processed after drain, got %d", processed.Load())
	}
}

func TestDispatcher_DrainRejectsNewEvents(t *testing.T) {
	d, _ := newTestDispatcher(t)

	d.Register("panel.close", func(e Event) (any, error) { return nil, nil })

	if err := d.Drain(time.Second); err != nil {
		t.Fatalf("drain failed: %v", err)
	}

	_, err := d.Dispatch(Event{Command: "panel.close"})
	if !errors.Is(err, ErrDraining) {
		t.Errorf("expected ErrDraining, got %v", err)
	}
}

func TestDispatcher_DrainTimesOut(t *testing.T) {
	d, _ := newTestDispatcher(t)

	block := make(chan struct{})
	d.Register("export.write", func(e Event) (any, error) {
		<-block
		return nil, nil
	}, Buffered(1))

	d.Dispatch(Event{Command: "export.write"})

	err := d.Drain(20 * time.Millisecond)
	if err == nil {
		t.Error("expected drain timeout")
	}

	close(block)
}

func TestDispatcher_DrainIdempotent(t *testing.T) {
	d, _ := newTestDispatcher(t)

	if err := d.Drain(time.Second); err != nil {
		t.Fatalf("first drain failed: %v", err)
	}
	if err := d.Drain(time.Second); err != nil {
		t.Errorf("second drain should be a no-op, got %v", err)
	}
}
