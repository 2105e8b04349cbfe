// Package debounce delays values until their source has been quiet for a while
// and then delivers only the most recent one.
package debounce

import (
	"context"
	"sync"
	"time"
)

// Debouncer calls emit with the last pushed value once no new value has been
// pushed for the quiet period. It is safe for concurrent use; emit runs on a
// timer goroutine without internal locks held.
type Debouncer[T any] struct {
	quiet time.Duration
	emit  func(T)

	mu      sync.Mutex
	timer   *time.Timer
	pending T
	has     bool
	seq     uint64
	stopped bool
}

// New creates a Debouncer.
func New[T any](quiet time.Duration, emit func(T)) *Debouncer[T] {
	return &Debouncer[T]{quiet: quiet, emit: emit}
}

// Push records v and restarts the quiet period.
func (d *Debouncer[T]) Push(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.pending = v
	d.has = true
	d.seq++
	seq := d.seq

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.quiet, func() {
		d.fire(seq)
	})
}

// Flush emits the pending value immediately. It reports whether there was one.
func (d *Debouncer[T]) Flush() bool {
	d.mu.Lock()
	v, ok := d.takeLocked()
	d.mu.Unlock()

	if ok {
		d.emit(v)
	}
	return ok
}

// Cancel drops the pending value, if any.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	d.takeLocked()
	d.mu.Unlock()
}

// Stop cancels the pending value and ignores later pushes.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	d.takeLocked()
	d.stopped = true
	d.mu.Unlock()
}

func (d *Debouncer[T]) fire(seq uint64) {
	d.mu.Lock()
	if seq != d.seq {
		// A newer push or a cancel happened after this timer was armed.
		d.mu.Unlock()
		return
	}
	v, ok := d.takeLocked()
	d.mu.Unlock()

	if ok {
		d.emit(v)
	}
}

func (d *Debouncer[T]) takeLocked() (T, bool) {
	var zero T
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
	if !d.has {
		return zero, false
	}
	v := d.pending
	d.pending = zero
	d.has = false
	return v, true
}

// Coalesce reads values from in and forwards the latest one after each quiet
// period. A value still pending when in closes is flushed before the output
// closes. The output also closes when ctx is done. If the reader falls behind,
// an unread value is replaced by a newer one.
func Coalesce[T any](ctx context.Context, in <-chan T, quiet time.Duration) <-chan T {
	out := make(chan T)
	box := &mailbox[T]{ready: make(chan struct{}, 1)}
	d := New(quiet, box.put)

	go func() {
		defer close(out)
		defer d.Stop()

		var (
			pending T
			has     bool
			n       uint64
		)
		collect := func() {
			if v, ok := box.take(); ok {
				pending, has = v.val, true
			}
		}

		for {
			var outC chan<- T
			if has {
				outC = out
			}

			select {
			case <-ctx.Done():
				return
			case v, ok := <-in:
				if !ok {
					d.Flush()
					collect()
					if has {
						select {
						case out <- pending:
						case <-ctx.Done():
						}
					}
					return
				}
				n++
				d.Push(stamped[T]{n: n, val: v})
			case <-box.ready:
				collect()
			case outC <- pending:
				var zero T
				pending, has = zero, false
			}
		}
	}()

	return out
}

type stamped[T any] struct {
	n   uint64
	val T
}

// mailbox holds the newest value emitted by a Debouncer timer until the
// forwarding goroutine takes it.
type mailbox[T any] struct {
	mu    sync.Mutex
	v     stamped[T]
	has   bool
	last  uint64 // highest stamp accepted so far
	ready chan struct{}
}

func (m *mailbox[T]) put(v stamped[T]) {
	m.mu.Lock()
	if v.n > m.last {
		m.v, m.has, m.last = v, true, v.n
	}
	m.mu.Unlock()

	select {
	case m.ready <- struct{}{}:
	default:
	}
}

func (m *mailbox[T]) take() (stamped[T], bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.v, m.has
	m.v, m.has = stamped[T]{}, false
	return v, ok
}
