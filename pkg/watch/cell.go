package watch

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned once a cell has been permanently closed.
var ErrClosed = errors.New("watch: cell closed")

// closedCh is handed to subscribers that already have something to observe.
var closedCh = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Cell is a concurrency-safe container for a single value with change
// notification. The zero value is not usable; create cells with New.
type Cell[T any] struct {
	mu sync.RWMutex

	// value is the current value.
	value T

	// version increases by one on every write.
	version uint64

	// notify is closed when version moves past its current value.
	notify chan struct{}

	closed bool
}

// New creates a cell holding initial.
func New[T any](initial T) *Cell[T] {
	return &Cell[T]{
		value:  initial,
		notify: make(chan struct{}),
	}
}

// Read returns the current value.
func (c *Cell[T]) Read() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Version returns the number of writes applied so far.
func (c *Cell[T]) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Replace installs v and wakes all subscribers.
func (c *Cell[T]) Replace(v T) error {
	return c.Modify(func(T) T { return v })
}

// Modify atomically reads the current value, passes it to fn and installs the
// result, then wakes all subscribers. fn runs with the write lock held and must
// not call back into the cell.
func (c *Cell[T]) Modify(fn func(T) T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	c.value = fn(c.value)
	c.version++

	close(c.notify)
	c.notify = make(chan struct{})
	return nil
}

// Close permanently closes the cell. Subscribers are woken and report ErrClosed
// once they have observed the final value. Close is idempotent.
func (c *Cell[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.notify)
}

// IsClosed reports whether Close has been called.
func (c *Cell[T]) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// Subscribe returns a subscription that considers the current value seen.
// Subscriptions hold no resources on the cell and need no cleanup.
func (c *Cell[T]) Subscribe() *Subscription[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return &Subscription[T]{cell: c, seen: c.version}
}

// Subscription tracks which version of a cell a single observer has seen.
// A Subscription must not be used from more than one goroutine at a time.
type Subscription[T any] struct {
	cell *Cell[T]
	seen uint64
}

// Changed returns a channel that is closed once the cell holds a version this
// subscription has not seen, or once the cell is closed. Call Changed again
// after every Latest; the returned channel is only valid for one wait.
func (s *Subscription[T]) Changed() <-chan struct{} {
	c := s.cell
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.version != s.seen || c.closed {
		return closedCh
	}
	return c.notify
}

// HasChanged reports whether an unseen version is available.
func (s *Subscription[T]) HasChanged() bool {
	c := s.cell
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version != s.seen
}

// Latest returns the current value and marks it seen. It returns ErrClosed
// along with the final value when the cell is closed and that value has
// already been seen.
func (s *Subscription[T]) Latest() (T, error) {
	c := s.cell
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.version == s.seen && c.closed {
		return c.value, ErrClosed
	}
	s.seen = c.version
	return c.value, nil
}

// Peek returns the current value without marking it seen.
func (s *Subscription[T]) Peek() T {
	return s.cell.Read()
}

// Wait blocks until the cell changes past the last seen version and returns
// the latest value. It returns ctx.Err() if ctx is done first and ErrClosed if
// the cell is closed with nothing left to observe.
func (s *Subscription[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-s.Changed():
		return s.Latest()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
