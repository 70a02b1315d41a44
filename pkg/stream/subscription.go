package stream

import "sync"

// Subscription receives the values of a Latest stream
type Subscription[T any] struct {
	owner  *Latest[T]
	ch     chan T
	done   chan struct{}
	closed bool
	mu     sync.Mutex
}

func newSubscription[T any](owner *Latest[T], bufferSize int) *Subscription[T] {
	return &Subscription[T]{
		owner: owner,
		ch:    make(chan T, bufferSize),
		done:  make(chan struct{}),
	}
}

// C returns the channel values are delivered on. It is closed when the subscription ends.
func (s *Subscription[T]) C() <-chan T {
	return s.ch
}

// Done is closed when the subscription ends
func (s *Subscription[T]) Done() <-chan struct{} {
	return s.done
}

// Close ends the subscription. Close is idempotent.
func (s *Subscription[T]) Close() error {
	s.owner.unsubscribe(s)
	return nil
}

func (s *Subscription[T]) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
	close(s.done)
}

// send delivers v without blocking, dropping the oldest pending value when the buffer is full
func (s *Subscription[T]) send(v T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}

	for {
		select {
		case s.ch <- v:
			return true
		default:
		}

		select {
		case <-s.ch:
		default:
		}
	}
}
