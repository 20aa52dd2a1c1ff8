package feed

import (
	"context"
	"errors"
	"sync"
)

// -----------------------------------------------------------------------------

var (
	// ErrClosed is returned by Next once the stream has been closed and the
	// backlog is drained.
	ErrClosed = errors.New("stream closed")

	// ErrBusyWaiter rejects a second concurrent Next. The stream carries a
	// single-consumer contract with at most one pending waiter.
	ErrBusyWaiter = errors.New("stream already has a pending waiter")
)

// -----------------------------------------------------------------------------

// Stream bridges a push-based producer into a pull-based consumer. Pushed
// items are buffered when no consumer is waiting; when one is, the item is
// handed over immediately. Ordering is strict FIFO between push and pull.
type Stream[T any] struct {
	mu      sync.Mutex
	backlog []T
	waiter  chan T
	closed  bool
}

// -----------------------------------------------------------------------------

func NewStream[T any]() *Stream[T] {
	return &Stream[T]{}
}

// -----------------------------------------------------------------------------

// Push enqueues an item, or delivers it directly to a waiting consumer.
// Items pushed after Close are discarded.
func (s *Stream[T]) Push(item T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if s.waiter != nil {
		w := s.waiter
		s.waiter = nil
		w <- item
		return
	}
	s.backlog = append(s.backlog, item)
}

// -----------------------------------------------------------------------------

// Next returns the oldest buffered item, blocking until one arrives when the
// backlog is empty.
func (s *Stream[T]) Next(ctx context.Context) (T, error) {
	var zero T

	s.mu.Lock()
	if len(s.backlog) > 0 {
		item := s.backlog[0]
		s.backlog = s.backlog[1:]
		s.mu.Unlock()
		return item, nil
	}
	if s.closed {
		s.mu.Unlock()
		return zero, ErrClosed
	}
	if s.waiter != nil {
		s.mu.Unlock()
		return zero, ErrBusyWaiter
	}
	ch := make(chan T, 1)
	s.waiter = ch
	s.mu.Unlock()

	select {
	case item, ok := <-ch:
		if !ok {
			return zero, ErrClosed
		}
		return item, nil
	case <-ctx.Done():
		s.mu.Lock()
		if s.waiter == ch {
			s.waiter = nil
		}
		s.mu.Unlock()
		// An item may have been handed over while we were cancelling.
		select {
		case item, ok := <-ch:
			if ok {
				return item, nil
			}
		default:
		}
		return zero, ctx.Err()
	}
}

// -----------------------------------------------------------------------------

// Close stops accepting pushes and releases a blocked Next with ErrClosed.
// Already buffered items remain readable.
func (s *Stream[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	if s.waiter != nil {
		close(s.waiter)
		s.waiter = nil
	}
}

// -----------------------------------------------------------------------------

// Len reports the number of buffered items.
func (s *Stream[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.backlog)
}
