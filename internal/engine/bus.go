package engine

import "sync"

// Event carries the post-commit snapshot of a reconciled record. Events are
// ephemeral: they exist only on the bus and are never persisted.
type Event[T any] struct {
	ID   string
	Item T
}

const subscriberBuffer = 16

// Bus is an in-process multicast channel for reconciliation events. Any
// number of subscribers may listen with independent filters; publishing
// never blocks, so a slow subscriber loses events rather than stalling the
// processor.
type Bus[T any] struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]subscription[T]
}

type subscription[T any] struct {
	ch     chan Event[T]
	filter func(Event[T]) bool
}

func NewBus[T any]() *Bus[T] {
	return &Bus[T]{subs: make(map[int]subscription[T])}
}

// Subscribe registers a listener for events matching filter (nil matches
// everything). The returned cancel func releases the subscription and closes
// the channel; it is safe to call more than once.
func (b *Bus[T]) Subscribe(filter func(Event[T]) bool) (<-chan Event[T], func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++

	ch := make(chan Event[T], subscriberBuffer)
	b.subs[id] = subscription[T]{ch: ch, filter: filter}

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub.ch)
		}
	}
	return ch, cancel
}

// Publish delivers evt to every subscription whose filter matches.
func (b *Bus[T]) Publish(evt Event[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subs {
		if sub.filter != nil && !sub.filter(evt) {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
		}
	}
}
