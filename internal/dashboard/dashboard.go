// Package dashboard is the application root. It owns the shared store and the
// three resource caches, keeps the long-lived widget subscriptions in step
// with the store, and renders widget views on demand.
package dashboard

import (
	"log"
	"sync"
	"time"

	"github.com/i474232898/dashboard-data-aggregation/internal/finance"
	"github.com/i474232898/dashboard-data-aggregation/internal/news"
	"github.com/i474232898/dashboard-data-aggregation/internal/query"
	"github.com/i474232898/dashboard-data-aggregation/internal/store"
	"github.com/i474232898/dashboard-data-aggregation/internal/weather"
	"github.com/i474232898/dashboard-data-aggregation/internal/widgets"
)

// DefaultWidgetWait bounds how long a view waits for a pending fetch.
const DefaultWidgetWait = 5 * time.Second

// Options configures a Dashboard.
type Options struct {
	// WidgetWait bounds how long view accessors wait for pending entries
	// before rendering them as loading. Zero means DefaultWidgetWait.
	WidgetWait time.Duration

	// SearchDebounce is the symbol search quiet period.
	SearchDebounce time.Duration
}

// Dashboard wires the store to the weather, finance and news namespaces.
type Dashboard struct {
	store   *store.Store
	weather *weather.Service
	finance *finance.Service
	news    *news.Service
	search  *widgets.SearchBox
	wait    time.Duration

	mu          sync.Mutex
	mounted     bool
	unsubscribe func()
	location    string
	current     *query.Subscription[weather.Current]
	forecast    *query.Subscription[weather.Forecast]
	quotes      map[string]*query.Subscription[finance.Quote]
}

// New creates a Dashboard. Nothing is fetched until Mount or a view is read.
func New(st *store.Store, w *weather.Service, f *finance.Service, n *news.Service, opts Options) *Dashboard {
	if opts.WidgetWait <= 0 {
		opts.WidgetWait = DefaultWidgetWait
	}
	return &Dashboard{
		store:   st,
		weather: w,
		finance: f,
		news:    n,
		search:  widgets.NewSearchBox(f, st, opts.SearchDebounce),
		wait:    opts.WidgetWait,
		quotes:  make(map[string]*query.Subscription[finance.Quote]),
	}
}

// Store returns the shared store.
func (d *Dashboard) Store() *store.Store {
	return d.store
}

// SearchBox returns the watchlist symbol search box.
func (d *Dashboard) SearchBox() *widgets.SearchBox {
	return d.search
}

// Caches returns the three namespace caches.
func (d *Dashboard) Caches() []*query.Cache {
	return []*query.Cache{d.weather.Cache(), d.finance.Cache(), d.news.Cache()}
}

// Mount subscribes the long-lived widgets for the current store state and
// follows later location and watchlist changes. Calling Mount twice is a no-op.
func (d *Dashboard) Mount() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.mounted {
		return
	}
	d.mounted = true
	// Listeners block on d.mu until the initial subscriptions exist.
	d.unsubscribe = d.store.Subscribe(d.onChange)

	st := d.store.State()
	d.rekeyWeatherLocked(st.SelectedLocation)
	d.syncQuotesLocked(st.SelectedStocks)

	log.Printf("INFO: dashboard: mounted widgets for %q and %d symbols", st.SelectedLocation, len(st.SelectedStocks))
}

// Unmount releases every long-lived subscription. Cached entries stay until
// the sweep evicts them.
func (d *Dashboard) Unmount() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.mounted {
		return
	}
	d.mounted = false
	if d.unsubscribe != nil {
		d.unsubscribe()
		d.unsubscribe = nil
	}
	closeSub(d.current)
	closeSub(d.forecast)
	d.current, d.forecast, d.location = nil, nil, ""
	for sym, sub := range d.quotes {
		sub.Close()
		delete(d.quotes, sym)
	}
}

// Close unmounts, releases the search box and closes the caches.
func (d *Dashboard) Close() {
	d.Unmount()
	d.search.Close()
	for _, c := range d.Caches() {
		c.Close()
	}
}

// Refresh re-fetches every entry that has subscribers and returns how many
// fetches were started.
func (d *Dashboard) Refresh() int {
	n := 0
	for _, c := range d.Caches() {
		n += c.RefetchActive()
	}
	return n
}

// Sweep evicts unused entries from every namespace.
func (d *Dashboard) Sweep() int {
	n := 0
	for _, c := range d.Caches() {
		n += c.Sweep()
	}
	return n
}

// MountedSymbols returns the symbols with a live quote subscription.
func (d *Dashboard) MountedSymbols() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]string, 0, len(d.quotes))
	for sym := range d.quotes {
		out = append(out, sym)
	}
	return out
}

// onChange keys the mounted widgets from the store's current state rather
// than the delivered snapshot. Deliveries of concurrent mutations can arrive
// out of order; re-reading under d.mu makes the last one to run win with the
// latest state.
func (d *Dashboard) onChange(m store.Mutation, _ store.State) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.mounted {
		return
	}
	switch m {
	case store.MutationSetSelectedLocation:
		d.rekeyWeatherLocked(d.store.State().SelectedLocation)
	case store.MutationAddSelectedStock, store.MutationRemoveSelectedStock, store.MutationSetSelectedStocks:
		d.syncQuotesLocked(d.store.State().SelectedStocks)
	}
}

// MountedLocation returns the location the mounted weather widgets follow.
func (d *Dashboard) MountedLocation() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.location
}

func (d *Dashboard) rekeyWeatherLocked(location string) {
	if d.current != nil && location == d.location {
		return
	}

	q := weather.ByName(location)
	skip := query.Skip(q.IsZero())
	current := d.weather.SubscribeCurrent(q, skip, query.OnChange(logTransition("current weather", location)))
	forecast := d.weather.SubscribeForecast(q, skip, query.OnChange(logTransition("forecast", location)))

	// Subscribe before closing so an unchanged key keeps its entry referenced.
	closeSub(d.current)
	closeSub(d.forecast)
	d.current, d.forecast, d.location = current, forecast, location
}

func (d *Dashboard) syncQuotesLocked(symbols []string) {
	want := make(map[string]struct{}, len(symbols))
	for _, sym := range symbols {
		want[sym] = struct{}{}
		if _, ok := d.quotes[sym]; !ok {
			d.quotes[sym] = d.finance.SubscribeQuote(sym, query.OnChange(logTransition("quote", sym)))
		}
	}
	for sym, sub := range d.quotes {
		if _, ok := want[sym]; !ok {
			sub.Close()
			delete(d.quotes, sym)
		}
	}
}

func logTransition(widget, key string) func(query.Result) {
	return func(r query.Result) {
		if r.Status == query.StatusRejected && r.Err != nil {
			log.Printf("INFO: dashboard: %s for %q failed: %s", widget, key, r.Err.Message)
			return
		}
		log.Printf("DEBUG: dashboard: %s for %q is %s", widget, key, r.Status)
	}
}

func closeSub[T any](s *query.Subscription[T]) {
	if s != nil {
		s.Close()
	}
}
