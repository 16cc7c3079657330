// Package readiness holds observable status values that replay their latest
// value to every new subscriber.
package readiness

import (
	"context"
	"sync"
)

type State string

const (
	Init    State = "init"
	Loading State = "loading"
	Ready   State = "ready"
	Error   State = "error"
)

// Signal multicasts state changes. Subscribers receive the current value
// immediately and afterwards only the latest value: a slow subscriber skips
// intermediate states but never misses the final one.
type Signal[T comparable] struct {
	mu      sync.Mutex
	current T
	subs    map[int]chan T
	nextID  int
}

func New[T comparable](initial T) *Signal[T] {
	return &Signal[T]{
		current: initial,
		subs:    make(map[int]chan T),
	}
}

func (s *Signal[T]) Current() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Signal[T]) Set(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = v
	for _, ch := range s.subs {
		publish(ch, v)
	}
}

// Subscribe returns a channel that carries the current value and every later
// one. The cancel func closes the channel and must be called once the
// subscriber is done.
func (s *Signal[T]) Subscribe() (<-chan T, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan T, 1)
	ch <- s.current
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}

// Subscribers reports the number of live subscriptions.
func (s *Signal[T]) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// WaitFor blocks until the signal holds want, or ctx is done.
func (s *Signal[T]) WaitFor(ctx context.Context, want T) error {
	ch, cancel := s.Subscribe()
	defer cancel()

	for {
		select {
		case v := <-ch:
			if v == want {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// publish replaces whatever is buffered with v. Must be called with the
// signal's mutex held, which makes it the only sender.
func publish[T any](ch chan T, v T) {
	select {
	case <-ch:
	default:
	}
	ch <- v
}
