package metrics

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/i474232898/dashboard-data-aggregation/internal/query"
)

func TestCacheObserverCountsEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := NewCacheObserver(reg)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	c := query.New(query.Options{Namespace: "weather", Observer: obs, KeepUnusedFor: -1})
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	producer := func(context.Context) (any, error) { return "ok", nil }
	h := c.Subscribe("k", producer)
	h.Wait(ctx)
	h2 := c.Subscribe("k", producer)
	h.Close()
	h2.Close()
	c.Subscribe("other", producer, query.Skip(true)).Close()
	c.Sweep()

	if got := testutil.ToFloat64(obs.subscriptions.WithLabelValues("weather", "miss")); got != 1 {
		t.Errorf("miss = %v", got)
	}
	if got := testutil.ToFloat64(obs.subscriptions.WithLabelValues("weather", "hit")); got != 1 {
		t.Errorf("hit = %v", got)
	}
	if got := testutil.ToFloat64(obs.subscriptions.WithLabelValues("weather", "skip")); got != 1 {
		t.Errorf("skip = %v", got)
	}
	if got := testutil.ToFloat64(obs.evicted.WithLabelValues("weather")); got != 1 {
		t.Errorf("evicted = %v", got)
	}
	if n := testutil.CollectAndCount(obs.fetches); n != 1 {
		t.Errorf("fetch histogram series = %d", n)
	}
}

func TestRegisterTwiceFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewCacheObserver(reg); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := NewCacheObserver(reg); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}

func TestEntriesCollector(t *testing.T) {
	c := query.New(query.Options{Namespace: "news"})
	defer c.Close()
	h := c.Subscribe("a", func(context.Context) (any, error) { return 1, nil })
	defer h.Close()

	expected := `
# HELP dashboard_cache_entries Number of entries currently held by each cache namespace.
# TYPE dashboard_cache_entries gauge
dashboard_cache_entries{namespace="news"} 1
`
	if err := testutil.CollectAndCompare(NewEntriesCollector(c), strings.NewReader(expected)); err != nil {
		t.Fatal(err)
	}
}
