package broadcast

import (
	"context"
	"sync"
)

// Subscriber receives values published to a Broadcaster.
type Subscriber[T any] struct {
	ch     chan T
	closed bool
	mu     sync.Mutex
}

func newSubscriber[T any](bufferSize int) *Subscriber[T] {
	return &Subscriber[T]{ch: make(chan T, bufferSize)}
}

// Receive returns the channel values arrive on. The channel is closed when
// the subscriber is closed or the broadcaster shuts down.
func (s *Subscriber[T]) Receive() <-chan T {
	return s.ch
}

// Close stops delivery and closes the receive channel. Idempotent.
func (s *Subscriber[T]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		close(s.ch)
		s.closed = true
	}
	return nil
}

func (s *Subscriber[T]) send(v T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}

	select {
	case s.ch <- v:
		return true
	default:
		return false
	}
}

// Broadcaster fans values out to any number of subscribers. It retains the
// most recent value and replays it to every new subscriber, so a late joiner
// never waits for the next publish to learn the current state.
//
// Delivery is non-blocking: a subscriber whose buffer is full misses that
// value and is dropped rather than stalling the publisher. All methods are
// safe for concurrent use.
type Broadcaster[T any] struct {
	subscribers map[*Subscriber[T]]struct{}
	last        *T
	bufferSize  int
	closed      bool
	done        chan struct{}
	mu          sync.RWMutex
	cleanupWg   sync.WaitGroup
}

// NewBroadcaster creates a latest-value broadcaster. bufferSize is each
// subscriber's channel capacity; a minimum of 1 is enforced so the replayed
// value always fits.
func NewBroadcaster[T any](bufferSize int) *Broadcaster[T] {
	return &Broadcaster[T]{
		subscribers: make(map[*Subscriber[T]]struct{}),
		bufferSize:  max(bufferSize, 1),
		done:        make(chan struct{}),
	}
}

// Subscribe registers a new subscriber. If a value has ever been published,
// it is delivered synchronously before Subscribe returns. The subscription
// is torn down when ctx is cancelled or the subscriber is closed.
func (b *Broadcaster[T]) Subscribe(ctx context.Context) *Subscriber[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := newSubscriber[T](b.bufferSize)
	if b.closed {
		_ = sub.Close()
		return sub
	}

	if b.last != nil {
		sub.send(*b.last)
	}
	b.subscribers[sub] = struct{}{}

	if ctx.Done() != nil {
		b.cleanupWg.Add(1)
		go func() {
			defer b.cleanupWg.Done()
			select {
			case <-ctx.Done():
			case <-b.done:
			}
			b.unsubscribe(sub)
		}()
	}

	return sub
}

// Publish records v as the latest value and sends it to every subscriber.
// Subscribers that cannot keep up are dropped instead of blocking.
func (b *Broadcaster[T]) Publish(v T) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.last = &v

	var stale []*Subscriber[T]
	for sub := range b.subscribers {
		if !sub.send(v) {
			stale = append(stale, sub)
		}
	}
	for _, sub := range stale {
		delete(b.subscribers, sub)
		_ = sub.Close()
	}
	b.mu.Unlock()
}

// Last returns the most recently published value, if any.
func (b *Broadcaster[T]) Last() (T, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.last == nil {
		var zero T
		return zero, false
	}
	return *b.last, true
}

// Close shuts the broadcaster down, closing all subscribers and forgetting
// the retained value. Idempotent.
func (b *Broadcaster[T]) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.last = nil
	for sub := range b.subscribers {
		_ = sub.Close()
	}
	clear(b.subscribers)
	close(b.done)
	b.mu.Unlock()

	b.cleanupWg.Wait()
	return nil
}

func (b *Broadcaster[T]) unsubscribe(sub *Subscriber[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subscribers, sub)
	_ = sub.Close()
}
