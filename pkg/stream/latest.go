package stream

import (
	"context"
	"sync"
)

// DefaultBufferSize is the per-subscriber buffer used when a size below 1 is requested
const DefaultBufferSize = 16

// Latest is a broadcast value with a last-value cache. All methods are safe for concurrent use.
type Latest[T any] struct {
	value       T
	subscribers map[*Subscription[T]]struct{}
	bufferSize  int
	closed      bool
	mu          sync.RWMutex
	cleanupWg   sync.WaitGroup
}

// NewLatest creates a stream holding initial. bufferSize is the number of
// pending values each subscriber may hold before the oldest is dropped.
func NewLatest[T any](initial T, bufferSize int) *Latest[T] {
	if bufferSize < 1 {
		bufferSize = DefaultBufferSize
	}
	return &Latest[T]{
		value:       initial,
		subscribers: make(map[*Subscription[T]]struct{}),
		bufferSize:  bufferSize,
	}
}

// Value returns the latest published value
func (l *Latest[T]) Value() T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.value
}

// Publish stores v as the latest value and delivers it to every subscriber.
// Publishing on a closed stream only updates the cached value.
func (l *Latest[T]) Publish(v T) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.value = v
	if l.closed {
		return
	}

	for sub := range l.subscribers {
		sub.send(v)
	}
}

// Subscribe registers a new subscriber which first receives the latest value.
// The subscription ends when ctx is done, when it is closed, or when the
// stream is closed. Subscribing to a closed stream yields a closed subscription
// that still carries the latest value.
func (l *Latest[T]) Subscribe(ctx context.Context) *Subscription[T] {
	l.mu.Lock()
	defer l.mu.Unlock()

	sub := newSubscription(l, l.bufferSize)
	sub.send(l.value)

	if l.closed {
		sub.close()
		return sub
	}

	l.subscribers[sub] = struct{}{}

	if ctx.Done() != nil {
		l.cleanupWg.Add(1)
		go func() {
			defer l.cleanupWg.Done()
			select {
			case <-ctx.Done():
				l.unsubscribe(sub)
			case <-sub.done:
			}
		}()
	}

	return sub
}

// Subscribers returns the number of active subscriptions
func (l *Latest[T]) Subscribers() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.subscribers)
}

// Close closes every subscription. It is safe to call Close multiple times.
func (l *Latest[T]) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true

	for sub := range l.subscribers {
		sub.close()
	}
	clear(l.subscribers)
	l.mu.Unlock()

	l.cleanupWg.Wait()
	return nil
}

func (l *Latest[T]) unsubscribe(sub *Subscription[T]) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.subscribers, sub)
	sub.close()
}
