package query

import "context"

// Handle is one subscription to a cache entry. It stays live until Close.
type Handle struct {
	id       string
	key      string
	cache    *Cache
	entry    *entry
	idle     bool
	detached *Result
	closed   bool // guarded by cache.mu

	changes  chan struct{}
	listener func(Result)
}

// ID uniquely identifies the subscription.
func (h *Handle) ID() string {
	return h.id
}

// Key returns the cache key the handle is subscribed to.
func (h *Handle) Key() string {
	return h.key
}

// Result returns the current state of the entry.
func (h *Handle) Result() Result {
	r, _ := h.snapshot()
	return r
}

// Changes is signaled after every state change of the entry while the handle
// is subscribed. Signals coalesce: a receiver sees at least one signal after
// the latest change, not one per change.
func (h *Handle) Changes() <-chan struct{} {
	return h.changes
}

// Wait blocks until the entry is no longer fetching or ctx is done, and returns
// the result at that point. Any number of goroutines may Wait on one handle.
func (h *Handle) Wait(ctx context.Context) Result {
	for {
		r, settled := h.snapshot()
		if !r.IsFetching || settled == nil {
			return r
		}
		select {
		case <-settled:
		case <-ctx.Done():
			return h.Result()
		}
	}
}

// Close unsubscribes the handle. It is safe to call more than once.
func (h *Handle) Close() {
	h.cache.Unsubscribe(h)
}

func (h *Handle) snapshot() (Result, <-chan struct{}) {
	if h.detached != nil {
		return *h.detached, nil
	}
	if h.idle || h.entry == nil {
		return Result{Status: StatusIdle}, nil
	}

	h.cache.mu.Lock()
	defer h.cache.mu.Unlock()
	return h.entry.resultLocked(), h.entry.settled
}

func (h *Handle) signal(r Result) {
	select {
	case h.changes <- struct{}{}:
	default:
	}
	if h.listener != nil {
		h.listener(r)
	}
}

// SubscribeOption configures a single subscription.
type SubscribeOption func(*subscribeOptions)

type subscribeOptions struct {
	skip     bool
	listener func(Result)
}

// Skip makes the subscription inert when skip is true: no entry is created,
// nothing is fetched and the handle reports StatusIdle.
func Skip(skip bool) SubscribeOption {
	return func(o *subscribeOptions) {
		o.skip = skip
	}
}

// OnChange registers fn to be called synchronously with the new result after
// every state change of the entry.
func OnChange(fn func(Result)) SubscribeOption {
	return func(o *subscribeOptions) {
		o.listener = fn
	}
}

func applySubscribeOptions(opts []SubscribeOption) subscribeOptions {
	var so subscribeOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&so)
		}
	}
	return so
}
