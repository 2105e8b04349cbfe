package widgets

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/i474232898/dashboard-data-aggregation/internal/debounce"
	"github.com/i474232898/dashboard-data-aggregation/internal/finance"
	"github.com/i474232898/dashboard-data-aggregation/internal/query"
)

// DefaultSearchDebounce is the quiet period before typed text is searched.
const DefaultSearchDebounce = 500 * time.Millisecond

// SymbolSearcher runs symbol searches through the finance cache.
type SymbolSearcher interface {
	SubscribeSearch(keywords string, opts ...query.SubscribeOption) *query.Subscription[[]finance.Match]
}

// WatchlistWriter is the part of the shared store the search box writes to.
type WatchlistWriter interface {
	AddSelectedStock(symbol string)
}

// SearchBox is the stateful symbol search on the watchlist widget. The raw
// text, its debounced copy and the active flag are local to the box; only a
// selected symbol reaches the shared store.
type SearchBox struct {
	searcher  SymbolSearcher
	watchlist WatchlistWriter
	keys      chan string
	stop      context.CancelFunc
	done      <-chan struct{}
	typing    sync.Mutex // keeps keystrokes in the order their text was set

	mu        sync.Mutex
	text      string
	debounced string
	active    bool
	sub       *query.Subscription[[]finance.Match]
	closed    bool
}

// NewSearchBox creates an inactive, empty search box. quiet <= 0 means
// DefaultSearchDebounce.
func NewSearchBox(searcher SymbolSearcher, watchlist WatchlistWriter, quiet time.Duration) *SearchBox {
	if quiet <= 0 {
		quiet = DefaultSearchDebounce
	}
	ctx, stop := context.WithCancel(context.Background())
	b := &SearchBox{
		searcher:  searcher,
		watchlist: watchlist,
		keys:      make(chan string),
		stop:      stop,
		done:      ctx.Done(),
	}
	b.sub = searcher.SubscribeSearch("", query.Skip(true))

	go func() {
		for text := range debounce.Coalesce(ctx, b.keys, quiet) {
			b.apply(text)
		}
	}()
	return b
}

// Type replaces the text in the box and activates it. The search runs once
// typing has paused for the quiet period.
func (b *SearchBox) Type(text string) {
	b.typing.Lock()
	defer b.typing.Unlock()

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.text = text
	b.active = true
	b.mu.Unlock()

	select {
	case b.keys <- strings.TrimSpace(text):
	case <-b.done:
	}
}

// SetActive focuses or blurs the box. An inactive box does not search.
func (b *SearchBox) SetActive(active bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || b.active == active {
		return
	}
	b.active = active
	b.resubscribeLocked()
}

// Flush runs the pending search immediately instead of waiting out the quiet
// period.
func (b *SearchBox) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	if text := strings.TrimSpace(b.text); text != b.debounced {
		b.debounced = text
		b.resubscribeLocked()
	}
}

// Select adds symbol to the watchlist and resets the box.
func (b *SearchBox) Select(symbol string) {
	symbol = strings.TrimSpace(symbol)
	if symbol != "" {
		b.watchlist.AddSelectedStock(symbol)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.text = ""
	b.debounced = ""
	b.active = false
	b.resubscribeLocked()
}

// View waits up to ctx for a pending search and renders the box.
func (b *SearchBox) View(ctx context.Context) SearchView {
	b.mu.Lock()
	sub, text, debounced, active := b.sub, b.text, b.debounced, b.active
	b.mu.Unlock()

	return Search(text, debounced, active, sub.Wait(ctx))
}

// Close releases the search subscription.
func (b *SearchBox) Close() {
	b.stop()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.sub.Close()
}

// apply adopts a settled value from the keystroke stream. Values that no
// longer match the text in the box (it was flushed, selected or retyped since)
// are dropped.
func (b *SearchBox) apply(debounced string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || debounced != strings.TrimSpace(b.text) || debounced == b.debounced {
		return
	}
	b.debounced = debounced
	b.resubscribeLocked()
}

func (b *SearchBox) resubscribeLocked() {
	old := b.sub
	b.sub = b.searcher.SubscribeSearch(b.debounced, query.Skip(b.debounced == "" || !b.active))
	old.Close()
}

// SearchView is the search box with its dropdown of matches.
type SearchView struct {
	View
	Text    string      `json:"text"`
	Query   string      `json:"query"`
	Active  bool        `json:"active"`
	Results []MatchView `json:"results"`
}

// MatchView is one entry in the dropdown.
type MatchView struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Region   string `json:"region"`
	Currency string `json:"currency"`
}

// Search renders a symbol search. A fulfilled search with no matches is the
// "No results found" empty state; a skipped one is idle.
func Search(text, debounced string, active bool, r query.TypedResult[[]finance.Match]) SearchView {
	v := SearchView{
		View: resolve(r, func(m []finance.Match) bool { return len(m) == 0 }, messages{
			err:   "Error searching symbols. Please try again.",
			empty: "No results found",
		}),
		Text:    text,
		Query:   debounced,
		Active:  active,
		Results: []MatchView{},
	}
	if !v.Ready() {
		return v
	}
	for _, m := range r.Data {
		v.Results = append(v.Results, MatchView{
			Symbol:   m.Symbol,
			Name:     m.Name,
			Type:     m.Type,
			Region:   m.Region,
			Currency: m.Currency,
		})
	}
	return v
}
