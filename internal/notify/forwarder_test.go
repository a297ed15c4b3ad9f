package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Erich2020/challenge-server/internal/domain"
	"github.com/Erich2020/challenge-server/internal/engine"
)

type captureNotifier struct {
	mu       sync.Mutex
	messages []BookingMessage
	users    []string
	signal   chan struct{}
}

func newCaptureNotifier() *captureNotifier {
	return &captureNotifier{signal: make(chan struct{}, 16)}
}

func (c *captureNotifier) Notify(userID string, payload any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users = append(c.users, userID)
	if msg, ok := payload.(BookingMessage); ok {
		c.messages = append(c.messages, msg)
	}
	c.signal <- struct{}{}
}

func (c *captureNotifier) wait(t *testing.T) {
	t.Helper()
	select {
	case <-c.signal:
	case <-time.After(time.Second):
		t.Fatalf("no notification arrived")
	}
}

func TestBookingForwarder_ForwardsCommittedEvents(t *testing.T) {
	t.Parallel()

	bus := engine.NewBus[domain.Booking]()
	notifier := newCaptureNotifier()
	fwd := NewBookingForwarder(bus, notifier, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		fwd.Run(ctx)
	}()

	// Give Run a moment to register its subscription.
	time.Sleep(10 * time.Millisecond)

	bus.Publish(engine.Event[domain.Booking]{
		ID: "b-1",
		Item: domain.Booking{
			ID:           "b-1",
			UserID:       "user-1",
			OccurrenceID: "occ-1",
			Committed:    true,
			Active:       true,
		},
	})
	notifier.wait(t)

	notifier.mu.Lock()
	if len(notifier.messages) != 1 {
		notifier.mu.Unlock()
		t.Fatalf("expected one message, got %d", len(notifier.messages))
	}
	msg := notifier.messages[0]
	user := notifier.users[0]
	notifier.mu.Unlock()

	if user != "user-1" {
		t.Fatalf("expected notification for user-1, got %q", user)
	}
	if msg.BookingID != "b-1" || msg.OccurrenceID != "occ-1" || !msg.Active {
		t.Fatalf("unexpected message: %+v", msg)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("forwarder did not stop on cancel")
	}
}

func TestBookingForwarder_IgnoresUncommittedEvents(t *testing.T) {
	t.Parallel()

	bus := engine.NewBus[domain.Booking]()
	notifier := newCaptureNotifier()
	fwd := NewBookingForwarder(bus, notifier, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go fwd.Run(ctx)

	time.Sleep(10 * time.Millisecond)

	bus.Publish(engine.Event[domain.Booking]{
		ID:   "b-1",
		Item: domain.Booking{ID: "b-1", UserID: "user-1", Active: true},
	})
	bus.Publish(engine.Event[domain.Booking]{
		ID:   "b-2",
		Item: domain.Booking{ID: "b-2", UserID: "user-2", Committed: true, Active: false},
	})
	notifier.wait(t)

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.messages) != 1 {
		t.Fatalf("expected only the committed event, got %d messages", len(notifier.messages))
	}
	if notifier.messages[0].BookingID != "b-2" {
		t.Fatalf("expected the cancellation event, got %+v", notifier.messages[0])
	}
}
