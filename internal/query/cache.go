package query

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/dashboard-data-aggregation/internal/apierr"
)

const (
	// DefaultFreshFor is used when Options.FreshFor is zero.
	DefaultFreshFor = 5 * time.Minute
	// DefaultKeepUnusedFor is used when Options.KeepUnusedFor is zero.
	DefaultKeepUnusedFor = 60 * time.Second
)

// ErrClosed is reported through subscriptions made after Close.
var ErrClosed = errors.New("query: cache is closed")

// Status is the lifecycle state of a cache entry.
type Status int

const (
	StatusIdle Status = iota // skipped subscription, no entry
	StatusPending
	StatusFulfilled
	StatusRejected
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusFulfilled:
		return "fulfilled"
	case StatusRejected:
		return "rejected"
	default:
		return "idle"
	}
}

// Producer performs one remote fetch attempt for a key.
type Producer func(ctx context.Context) (any, error)

// ErrorInfo is the normalized description of a rejected fetch.
type ErrorInfo struct {
	Kind       apierr.Kind `json:"kind"`
	Message    string      `json:"message"`
	StatusCode int         `json:"statusCode,omitempty"`
}

func (e *ErrorInfo) Error() string {
	return e.Message
}

func newErrorInfo(err error) *ErrorInfo {
	return &ErrorInfo{
		Kind:       apierr.KindOf(err),
		Message:    err.Error(),
		StatusCode: apierr.StatusOf(err),
	}
}

// Result is the {data, isLoading, error} view of an entry.
//
// Data holds the fulfilled payload. While a refetch is pending it keeps the
// previous payload (stale-while-revalidate); IsLoading is true only when there is
// nothing to show yet.
type Result struct {
	Status     Status
	Data       any
	HasData    bool
	Err        *ErrorInfo
	IsLoading  bool
	IsFetching bool
	UpdatedAt  time.Time
}

// Options configures a Cache.
type Options struct {
	// Namespace prefixes every key derived for this cache.
	Namespace string

	// FreshFor is how long a fulfilled entry is served without re-fetching.
	// Zero means DefaultFreshFor; negative means never stale.
	FreshFor time.Duration

	// KeepUnusedFor is how long an entry with no subscribers survives Sweep.
	// Zero means DefaultKeepUnusedFor; negative means evict on the next sweep.
	KeepUnusedFor time.Duration

	// Now is the clock. Defaults to time.Now.
	Now func() time.Time

	// Observer receives cache events. Optional.
	Observer Observer

	// Context is passed to producers and canceled by Close.
	// Defaults to context.Background().
	Context context.Context
}

// Cache is one remote resource namespace: a map from key to entry that
// deduplicates fetches and fans results out to subscribers.
type Cache struct {
	namespace     string
	freshFor      time.Duration
	keepUnusedFor time.Duration
	now           func() time.Time
	obs           Observer

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	entries map[string]*entry
	closed  bool
}

type entry struct {
	key         string
	status      Status
	data        any
	hasData     bool
	err         *ErrorInfo
	subscribers map[*Handle]struct{}
	producer    Producer

	// generation increments on every launch; only the latest may settle.
	generation  uint64
	settled     chan struct{}
	invalidated bool

	settledAt   time.Time
	unusedSince time.Time
}

// New creates a Cache.
func New(opts Options) *Cache {
	if opts.FreshFor == 0 {
		opts.FreshFor = DefaultFreshFor
	}
	if opts.KeepUnusedFor == 0 {
		opts.KeepUnusedFor = DefaultKeepUnusedFor
	}
	if opts.KeepUnusedFor < 0 {
		opts.KeepUnusedFor = 0
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}

	ctx, cancel := context.WithCancel(opts.Context)
	return &Cache{
		namespace:     opts.Namespace,
		freshFor:      opts.FreshFor,
		keepUnusedFor: opts.KeepUnusedFor,
		now:           opts.Now,
		obs:           opts.Observer,
		ctx:           ctx,
		cancel:        cancel,
		entries:       make(map[string]*entry),
	}
}

// Namespace returns the namespace the cache was created with.
func (c *Cache) Namespace() string {
	return c.namespace
}

// Subscribe returns a live handle on key's entry, starting producer only when
// there is no entry, or the entry is rejected, stale or invalidated. An entry
// that is already pending is joined rather than fetched again.
func (c *Cache) Subscribe(key string, producer Producer, opts ...SubscribeOption) *Handle {
	so := applySubscribeOptions(opts)
	h := newHandle(c, key, so)
	if so.skip {
		h.idle = true
		c.obs.Subscribed(c.namespace, OutcomeSkip)
		return h
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		h.detached = &Result{Status: StatusRejected, Err: newErrorInfo(ErrClosed)}
		return h
	}

	var (
		launch  func()
		notify  []*Handle
		outcome Outcome
	)

	e, ok := c.entries[key]
	switch {
	case !ok:
		e = &entry{key: key, subscribers: make(map[*Handle]struct{})}
		c.entries[key] = e
		launch = c.startFetchLocked(e, producer)
		outcome = OutcomeMiss
	case c.needsFetchLocked(e):
		notify = e.handlesLocked()
		launch = c.startFetchLocked(e, producer)
		outcome = OutcomeRefetch
	case e.status == StatusPending:
		e.producer = producer
		outcome = OutcomeJoin
	default:
		outcome = OutcomeHit
	}

	e.subscribers[h] = struct{}{}
	e.unusedSince = time.Time{}
	h.entry = e
	snapshot := e.resultLocked()
	c.mu.Unlock()

	c.obs.Subscribed(c.namespace, outcome)
	c.notify(notify, snapshot)
	if launch != nil {
		go launch()
	}
	return h
}

// Unsubscribe releases h. When the last subscriber leaves, the entry stays
// cached until Sweep finds it unused for longer than KeepUnusedFor.
func (c *Cache) Unsubscribe(h *Handle) {
	if h == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	e := h.entry
	if e == nil {
		return
	}
	delete(e.subscribers, h)
	if len(e.subscribers) == 0 {
		e.unusedSince = c.now()
	}
}

// Invalidate forces key to be fetched again. Entries with live subscribers are
// re-fetched immediately, superseding any request still in flight; otherwise
// the next Subscribe re-fetches.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok || c.closed {
		c.mu.Unlock()
		return
	}
	if len(e.subscribers) == 0 || e.producer == nil {
		e.invalidated = true
		c.mu.Unlock()
		return
	}

	launch := c.startFetchLocked(e, e.producer)
	notify := e.handlesLocked()
	snapshot := e.resultLocked()
	c.mu.Unlock()

	log.Printf("DEBUG: cache[%s]: invalidated %s; refetching for %d subscribers", c.namespace, key, len(notify))
	c.notify(notify, snapshot)
	go launch()
}

// RefetchActive re-fetches every settled entry that has subscribers and returns
// how many fetches were started.
func (c *Cache) RefetchActive() int {
	type pending struct {
		launch   func()
		notify   []*Handle
		snapshot Result
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return 0
	}
	var work []pending
	for _, e := range c.entries {
		if len(e.subscribers) == 0 || e.status == StatusPending || e.producer == nil {
			continue
		}
		launch := c.startFetchLocked(e, e.producer)
		work = append(work, pending{launch: launch, notify: e.handlesLocked(), snapshot: e.resultLocked()})
	}
	c.mu.Unlock()

	for _, w := range work {
		c.notify(w.notify, w.snapshot)
		go w.launch()
	}
	return len(work)
}

// Sweep evicts entries that have had no subscribers for at least KeepUnusedFor
// and returns the number evicted. A fetch still in flight for an evicted entry
// is dropped when it completes.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	now := c.now()
	evicted := 0
	for key, e := range c.entries {
		if len(e.subscribers) > 0 || e.unusedSince.IsZero() {
			continue
		}
		if now.Sub(e.unusedSince) < c.keepUnusedFor {
			continue
		}
		if e.settled != nil {
			close(e.settled)
			e.settled = nil
		}
		delete(c.entries, key)
		evicted++
	}
	c.mu.Unlock()

	if evicted > 0 {
		log.Printf("DEBUG: cache[%s]: evicted %d unused entries", c.namespace, evicted)
		c.obs.Evicted(c.namespace, evicted)
	}
	return evicted
}

// Len returns the number of entries currently cached.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close cancels the context handed to producers. Later subscriptions are
// rejected with ErrClosed.
func (c *Cache) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.cancel()
}

// detached returns a handle that is not backed by an entry: idle when the
// subscription is skipped, rejected with err otherwise.
func (c *Cache) detached(key string, err error, opts ...SubscribeOption) *Handle {
	so := applySubscribeOptions(opts)
	h := newHandle(c, key, so)
	if so.skip {
		h.idle = true
		c.obs.Subscribed(c.namespace, OutcomeSkip)
		return h
	}
	h.detached = &Result{Status: StatusRejected, Err: newErrorInfo(err)}
	return h
}

func (c *Cache) needsFetchLocked(e *entry) bool {
	if e.invalidated || e.status == StatusRejected {
		return true
	}
	if e.status != StatusFulfilled || c.freshFor < 0 {
		return false
	}
	return c.now().Sub(e.settledAt) >= c.freshFor
}

// startFetchLocked moves e to pending under a new generation and returns the
// function that runs producer. Waiters on a superseded generation are released
// so they can pick up the new one.
func (c *Cache) startFetchLocked(e *entry, producer Producer) func() {
	e.generation++
	e.status = StatusPending
	e.err = nil
	e.invalidated = false
	e.producer = producer
	if e.settled != nil {
		close(e.settled)
	}
	e.settled = make(chan struct{})

	gen := e.generation
	started := c.now()
	log.Printf("DEBUG: cache[%s]: fetching %s (generation %d)", c.namespace, e.key, gen)
	return func() {
		data, err := c.invoke(producer)
		c.complete(e, gen, started, data, err)
	}
}

func (c *Cache) invoke(producer Producer) (data any, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: cache[%s]: producer panicked: %v", c.namespace, r)
			err = fmt.Errorf("query: producer panicked: %v", r)
		}
	}()
	return producer(c.ctx)
}

func (c *Cache) complete(e *entry, gen uint64, started time.Time, data any, err error) {
	c.mu.Lock()
	if cur, ok := c.entries[e.key]; !ok || cur != e {
		c.mu.Unlock()
		log.Printf("DEBUG: cache[%s]: dropping result for evicted entry %s", c.namespace, e.key)
		c.obs.Discarded(c.namespace)
		return
	}
	if gen != e.generation {
		c.mu.Unlock()
		log.Printf("DEBUG: cache[%s]: discarding superseded result for %s (generation %d)", c.namespace, e.key, gen)
		c.obs.Discarded(c.namespace)
		return
	}

	now := c.now()
	if err != nil {
		e.status = StatusRejected
		e.err = newErrorInfo(err)
		e.data = nil
		e.hasData = false
	} else {
		e.status = StatusFulfilled
		e.data = data
		e.hasData = true
		e.err = nil
	}
	e.settledAt = now
	if e.settled != nil {
		close(e.settled)
		e.settled = nil
	}
	status := e.status
	notify := e.handlesLocked()
	snapshot := e.resultLocked()
	c.mu.Unlock()

	if err != nil {
		log.Printf("INFO: cache[%s]: fetch for %s rejected: %v", c.namespace, e.key, err)
	}
	c.obs.Settled(c.namespace, status, now.Sub(started))
	c.notify(notify, snapshot)
}

// notify runs outside the lock so listeners may call back into the cache.
func (c *Cache) notify(handles []*Handle, r Result) {
	for _, h := range handles {
		h.signal(r)
	}
}

func (e *entry) handlesLocked() []*Handle {
	if len(e.subscribers) == 0 {
		return nil
	}
	hs := make([]*Handle, 0, len(e.subscribers))
	for h := range e.subscribers {
		hs = append(hs, h)
	}
	return hs
}

func (e *entry) resultLocked() Result {
	r := Result{
		Status:     e.status,
		Err:        e.err,
		IsFetching: e.status == StatusPending,
		UpdatedAt:  e.settledAt,
	}
	if e.hasData {
		r.Data = e.data
		r.HasData = true
	}
	r.IsLoading = r.IsFetching && !r.HasData
	return r
}

func newHandle(c *Cache, key string, so subscribeOptions) *Handle {
	return &Handle{
		id:       uuid.NewString(),
		key:      key,
		cache:    c,
		changes:  make(chan struct{}, 1),
		listener: so.listener,
	}
}
