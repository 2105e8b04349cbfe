package debounce

import (
	"context"
	"testing"
	"time"
)

const quiet = 30 * time.Millisecond

func TestDebouncerEmitsLastValueAfterQuietPeriod(t *testing.T) {
	out := make(chan string, 8)
	d := New(quiet, func(v string) { out <- v })

	for _, v := range []string{"g", "go", "goo", "goog"} {
		d.Push(v)
		time.Sleep(quiet / 5)
	}

	select {
	case v := <-out:
		if v != "goog" {
			t.Fatalf("emitted %q, want %q", v, "goog")
		}
	case <-time.After(time.Second):
		t.Fatal("nothing emitted")
	}

	select {
	case v := <-out:
		t.Fatalf("unexpected second emission %q", v)
	case <-time.After(3 * quiet):
	}
}

func TestDebouncerFlushAndCancel(t *testing.T) {
	out := make(chan int, 8)
	d := New(time.Hour, func(v int) { out <- v })

	if d.Flush() {
		t.Fatal("flush with nothing pending reported a value")
	}

	d.Push(1)
	d.Push(2)
	if !d.Flush() {
		t.Fatal("flush lost the pending value")
	}
	if v := <-out; v != 2 {
		t.Fatalf("flushed %d, want 2", v)
	}

	d.Push(3)
	d.Cancel()
	if d.Flush() {
		t.Fatal("cancel did not drop the pending value")
	}
}

func TestDebouncerStopIgnoresPushes(t *testing.T) {
	out := make(chan int, 1)
	d := New(quiet, func(v int) { out <- v })
	d.Push(1)
	d.Stop()
	d.Push(2)

	select {
	case v := <-out:
		t.Fatalf("stopped debouncer emitted %d", v)
	case <-time.After(3 * quiet):
	}
}

func TestCoalesce(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	in := make(chan string)
	out := Coalesce(ctx, in, quiet)

	in <- "a"
	in <- "ap"
	in <- "app"

	select {
	case v := <-out:
		if v != "app" {
			t.Fatalf("got %q, want %q", v, "app")
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for coalesced value")
	}

	in <- "appl"
	close(in)

	v, ok := <-out
	if !ok || v != "appl" {
		t.Fatalf("pending value not flushed on close: %q %v", v, ok)
	}
	if _, ok := <-out; ok {
		t.Fatal("output should close after input closes")
	}
}

func TestCoalesceSlowReaderGetsNewest(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	in := make(chan int)
	out := Coalesce(ctx, in, quiet)

	in <- 1
	time.Sleep(3 * quiet)
	in <- 2
	time.Sleep(3 * quiet)

	select {
	case v := <-out:
		if v != 2 {
			t.Fatalf("got %d, want the newest value 2", v)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for coalesced value")
	}

	cancel()
	for range out {
	}
}
