package store

import (
	"slices"
	"sort"
	"sync"
)

// TemperatureUnit selects how weather widgets render temperatures.
type TemperatureUnit string

const (
	Celsius    TemperatureUnit = "celsius"
	Fahrenheit TemperatureUnit = "fahrenheit"
)

// Mutation names the operation that produced a state change.
type Mutation string

const (
	MutationSetSelectedLocation       Mutation = "setSelectedLocation"
	MutationAddSelectedStock          Mutation = "addSelectedStock"
	MutationRemoveSelectedStock       Mutation = "removeSelectedStock"
	MutationSetSelectedStocks         Mutation = "setSelectedStocks"
	MutationToggleTemperatureUnit     Mutation = "toggleTemperatureUnit"
	MutationSetSelectedNewsCategories Mutation = "setSelectedNewsCategories"
	MutationUpdateWidgetPositions     Mutation = "updateWidgetPositions"
)

// WidgetPosition places a widget on the dashboard grid.
type WidgetPosition struct {
	ID     string `json:"id" validate:"required"`
	X      int    `json:"x" validate:"gte=0"`
	Y      int    `json:"y" validate:"gte=0"`
	Width  int    `json:"width" validate:"gte=1"`
	Height int    `json:"height" validate:"gte=1"`
}

// State is the shared dashboard state. Values returned by Store.State are
// copies; mutating them does not affect the store.
type State struct {
	SelectedLocation       string           `json:"selectedLocation"`
	SelectedStocks         []string         `json:"selectedStocks"`
	SelectedNewsCategories []string         `json:"selectedNewsCategories"`
	TemperatureUnit        TemperatureUnit  `json:"temperatureUnit"`
	Widgets                []WidgetPosition `json:"widgets"`
}

// DefaultState returns the state a fresh dashboard starts with.
func DefaultState() State {
	return State{
		SelectedLocation:       "New York",
		SelectedStocks:         []string{"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA"},
		SelectedNewsCategories: []string{"business", "technology"},
		TemperatureUnit:        Celsius,
		Widgets: []WidgetPosition{
			{ID: "weather-current", X: 0, Y: 0, Width: 1, Height: 1},
			{ID: "weather-forecast", X: 1, Y: 0, Width: 2, Height: 1},
			{ID: "finance-summary", X: 0, Y: 1, Width: 1, Height: 1},
			{ID: "finance-chart", X: 1, Y: 1, Width: 2, Height: 1},
			{ID: "news-headlines", X: 0, Y: 2, Width: 3, Height: 1},
		},
	}
}

func (s State) clone() State {
	out := s
	out.SelectedStocks = append([]string{}, s.SelectedStocks...)
	out.SelectedNewsCategories = append([]string{}, s.SelectedNewsCategories...)
	out.Widgets = append([]WidgetPosition{}, s.Widgets...)
	return out
}

// Listener is called after every mutation with the mutation name and the new state.
type Listener func(Mutation, State)

// Store is a concurrency-safe container for the shared dashboard state.
// Every mutation succeeds and notifies listeners synchronously, in
// subscription order, before returning. Listeners run without the store lock
// held and may read state or dispatch further mutations.
type Store struct {
	mu        sync.RWMutex
	state     State
	listeners map[uint64]Listener
	nextID    uint64
}

// New creates a Store from initial, normalizing it so the watchlist holds no
// duplicates, categories form a sorted set, and no field is nil.
func New(initial State) *Store {
	st := initial.clone()
	st.SelectedStocks = dedupe(st.SelectedStocks)
	st.SelectedNewsCategories = categorySet(st.SelectedNewsCategories)
	if st.TemperatureUnit != Fahrenheit {
		st.TemperatureUnit = Celsius
	}
	return &Store{
		state:     st,
		listeners: make(map[uint64]Listener),
	}
}

// State returns a snapshot of the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Subscribe registers l and returns a function that removes it.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// SetSelectedLocation replaces the location, including with "".
func (s *Store) SetSelectedLocation(location string) {
	s.mutate(MutationSetSelectedLocation, func(st *State) {
		st.SelectedLocation = location
	})
}

// AddSelectedStock appends symbol unless it is already on the watchlist.
func (s *Store) AddSelectedStock(symbol string) {
	s.mutate(MutationAddSelectedStock, func(st *State) {
		if !slices.Contains(st.SelectedStocks, symbol) {
			st.SelectedStocks = append(st.SelectedStocks, symbol)
		}
	})
}

// RemoveSelectedStock removes every occurrence of symbol.
func (s *Store) RemoveSelectedStock(symbol string) {
	s.mutate(MutationRemoveSelectedStock, func(st *State) {
		st.SelectedStocks = slices.DeleteFunc(st.SelectedStocks, func(v string) bool {
			return v == symbol
		})
	})
}

// SetSelectedStocks replaces the watchlist, keeping the first occurrence of
// each symbol.
func (s *Store) SetSelectedStocks(symbols []string) {
	s.mutate(MutationSetSelectedStocks, func(st *State) {
		st.SelectedStocks = dedupe(symbols)
	})
}

// ToggleTemperatureUnit flips between celsius and fahrenheit.
func (s *Store) ToggleTemperatureUnit() {
	s.mutate(MutationToggleTemperatureUnit, func(st *State) {
		if st.TemperatureUnit == Celsius {
			st.TemperatureUnit = Fahrenheit
		} else {
			st.TemperatureUnit = Celsius
		}
	})
}

// SetSelectedNewsCategories replaces the category set.
func (s *Store) SetSelectedNewsCategories(categories []string) {
	s.mutate(MutationSetSelectedNewsCategories, func(st *State) {
		st.SelectedNewsCategories = categorySet(categories)
	})
}

// UpdateWidgetPositions replaces the dashboard layout.
func (s *Store) UpdateWidgetPositions(widgets []WidgetPosition) {
	s.mutate(MutationUpdateWidgetPositions, func(st *State) {
		st.Widgets = append([]WidgetPosition{}, widgets...)
	})
}

func (s *Store) mutate(m Mutation, fn func(*State)) {
	s.mu.Lock()
	fn(&s.state)
	snapshot := s.state.clone()

	ids := make([]uint64, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	listeners := make([]Listener, 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, s.listeners[id])
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(m, snapshot.clone())
	}
}

func dedupe(symbols []string) []string {
	out := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		if !slices.Contains(out, sym) {
			out = append(out, sym)
		}
	}
	return out
}

func categorySet(categories []string) []string {
	out := dedupe(categories)
	sort.Strings(out)
	return out
}
