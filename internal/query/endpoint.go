package query

import (
	"context"
	"time"
)

// Endpoint is a typed request shape within a namespace: a name plus the
// function that turns params into a remote call.
type Endpoint[P, T any] struct {
	name  string
	fetch func(context.Context, P) (T, error)
}

// NewEndpoint defines an endpoint.
func NewEndpoint[P, T any](name string, fetch func(context.Context, P) (T, error)) Endpoint[P, T] {
	return Endpoint[P, T]{name: name, fetch: fetch}
}

// Name returns the endpoint name used in key derivation.
func (e Endpoint[P, T]) Name() string {
	return e.name
}

// Key derives the cache key for params in c's namespace.
func (e Endpoint[P, T]) Key(c *Cache, params P) (string, error) {
	return DeriveKey(c.Namespace(), e.name, params)
}

// Subscribe subscribes to the entry for params. If the key cannot be derived
// the subscription is rejected rather than failing the caller.
func (e Endpoint[P, T]) Subscribe(c *Cache, params P, opts ...SubscribeOption) *Subscription[T] {
	key, err := e.Key(c, params)
	if err != nil {
		return &Subscription[T]{Handle: c.detached(key, err, opts...)}
	}

	producer := func(ctx context.Context) (any, error) {
		return e.fetch(ctx, params)
	}
	return &Subscription[T]{Handle: c.Subscribe(key, producer, opts...)}
}

// Invalidate invalidates the entry for params.
func (e Endpoint[P, T]) Invalidate(c *Cache, params P) {
	key, err := e.Key(c, params)
	if err != nil {
		return
	}
	c.Invalidate(key)
}

// Subscription is a Handle whose data is known to be T.
type Subscription[T any] struct {
	*Handle
}

// Result returns the current typed result.
func (s *Subscription[T]) Result() TypedResult[T] {
	return Typed[T](s.Handle.Result())
}

// Wait is Handle.Wait with a typed result.
func (s *Subscription[T]) Wait(ctx context.Context) TypedResult[T] {
	return Typed[T](s.Handle.Wait(ctx))
}

// TypedResult is Result with Data asserted to T.
type TypedResult[T any] struct {
	Status     Status
	Data       T
	HasData    bool
	Err        *ErrorInfo
	IsLoading  bool
	IsFetching bool
	UpdatedAt  time.Time
}

// Typed converts r. Data of an unexpected type is treated as absent.
func Typed[T any](r Result) TypedResult[T] {
	t := TypedResult[T]{
		Status:     r.Status,
		Err:        r.Err,
		IsLoading:  r.IsLoading,
		IsFetching: r.IsFetching,
		UpdatedAt:  r.UpdatedAt,
	}
	if r.HasData {
		if v, ok := r.Data.(T); ok {
			t.Data = v
			t.HasData = true
		}
	}
	return t
}
