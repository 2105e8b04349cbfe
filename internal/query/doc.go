// Package query is a remote resource cache.
//
// A Cache is one namespace (weather, finance, news). Callers subscribe to a key
// with a Producer that performs the remote call; the cache keeps at most one
// fetch in flight per key, serves fulfilled data while it is fresh, and
// surfaces failures only through the subscription's Result.
//
// Lifecycle of an entry:
//
//	(none) --Subscribe--> pending --ok--> fulfilled --stale/Invalidate--> pending
//	                         |                                               ^
//	                         +--err--> rejected ------Subscribe-------------+
//
// Every launch bumps the entry's generation; a result from an older generation
// is discarded, so a slow response never overwrites a newer one. Entries with
// no subscribers are kept for KeepUnusedFor and then removed by Sweep.
//
// Endpoint adds typed params and results on top of the untyped core and derives
// keys with DeriveKey.
package query
