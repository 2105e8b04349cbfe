package query

import "time"

// Outcome describes how a subscription was satisfied.
type Outcome string

const (
	OutcomeMiss    Outcome = "miss"    // no entry; a fetch was started
	OutcomeHit     Outcome = "hit"     // fresh entry served as-is
	OutcomeJoin    Outcome = "join"    // attached to an in-flight fetch
	OutcomeRefetch Outcome = "refetch" // stale, rejected or invalidated entry re-fetched
	OutcomeSkip    Outcome = "skip"    // skipped; nothing was touched
)

// Observer receives cache events. Implementations must be safe for concurrent
// use and must not call back into the cache.
type Observer interface {
	Subscribed(namespace string, outcome Outcome)
	Settled(namespace string, status Status, elapsed time.Duration)
	Discarded(namespace string)
	Evicted(namespace string, n int)
}

type nopObserver struct{}

func (nopObserver) Subscribed(string, Outcome) {}
func (nopObserver) Settled(string, Status, time.Duration) {}
func (nopObserver) Discarded(string) {}
func (nopObserver) Evicted(string, int) {}
