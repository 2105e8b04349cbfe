package widgets

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/i474232898/dashboard-data-aggregation/internal/apierr"
	"github.com/i474232898/dashboard-data-aggregation/internal/finance"
	"github.com/i474232898/dashboard-data-aggregation/internal/news"
	"github.com/i474232898/dashboard-data-aggregation/internal/query"
	"github.com/i474232898/dashboard-data-aggregation/internal/store"
	"github.com/i474232898/dashboard-data-aggregation/internal/weather"
)

func fulfilled[T any](data T) query.TypedResult[T] {
	return query.TypedResult[T]{Status: query.StatusFulfilled, Data: data, HasData: true, UpdatedAt: time.Now()}
}

func TestStatesDoNotOverlap(t *testing.T) {
	isEmpty := func(s []int) bool { return len(s) == 0 }
	m := messages{idle: "idle", err: "failed", empty: "nothing"}

	tests := []struct {
		name string
		r    query.TypedResult[[]int]
		want State
	}{
		{"skipped", query.TypedResult[[]int]{Status: query.StatusIdle}, StateIdle},
		{"pending without data", query.TypedResult[[]int]{Status: query.StatusPending, IsLoading: true, IsFetching: true}, StateLoading},
		{"rejected", query.TypedResult[[]int]{Status: query.StatusRejected, Err: &query.ErrorInfo{Kind: apierr.KindNetwork}}, StateError},
		{"fulfilled empty", fulfilled([]int{}), StateEmpty},
		{"fulfilled", fulfilled([]int{1}), StateReady},
		{"revalidating", query.TypedResult[[]int]{Status: query.StatusPending, IsFetching: true, HasData: true, Data: []int{1}}, StateReady},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := resolve(tt.r, isEmpty, m)
			if v.State != tt.want {
				t.Fatalf("state = %s, want %s", v.State, tt.want)
			}
			if (v.Error != nil) != (tt.want == StateError) {
				t.Fatalf("error info presence wrong for %s", v.State)
			}
		})
	}

	v := resolve(query.TypedResult[[]int]{Status: query.StatusPending, IsFetching: true, HasData: true, Data: []int{1}}, isEmpty, m)
	if !v.Refreshing {
		t.Error("stale data being revalidated should be marked refreshing")
	}
}

func TestCurrentWeatherCelsius(t *testing.T) {
	cur := weather.Current{
		Place: weather.Place{Name: "New York", Country: "US"},
		Conditions: weather.Conditions{
			Temperature: 283.15, FeelsLike: 281.15, Humidity: 60, WindSpeed: 3.5,
			Description: "clear sky", IconCode: "01d",
		},
	}

	v := CurrentWeather("New York", fulfilled(cur), store.Celsius)
	if v.State != StateReady {
		t.Fatalf("state = %s", v.State)
	}
	if v.Temperature != "10°C" || v.FeelsLike != "8°C" {
		t.Errorf("temperature = %q feels like %q", v.Temperature, v.FeelsLike)
	}
	if v.Place != "New York, US" || v.Condition != weather.ConditionSun {
		t.Errorf("place %q condition %q", v.Place, v.Condition)
	}
	if v.Wind != "3.5 m/s" || v.Humidity != "60%" {
		t.Errorf("wind %q humidity %q", v.Wind, v.Humidity)
	}

	if got := CurrentWeather("New York", fulfilled(cur), store.Fahrenheit).Temperature; got != "50°F" {
		t.Errorf("fahrenheit = %q", got)
	}
}

func TestCurrentWeatherError(t *testing.T) {
	r := query.TypedResult[weather.Current]{
		Status: query.StatusRejected,
		Err:    &query.ErrorInfo{Kind: apierr.KindUpstream, StatusCode: 404, Message: "city not found"},
	}
	v := CurrentWeather("Atlantis", r, store.Celsius)
	if v.State != StateError || v.Message != "Error loading weather data. Please try a different location." {
		t.Fatalf("unexpected view %+v", v.View)
	}
	if v.Temperature != "" {
		t.Fatalf("error view should carry no data")
	}
}

func TestForecastView(t *testing.T) {
	base := time.Date(2024, 3, 9, 9, 0, 0, 0, time.UTC)
	var samples []weather.Sample
	for i := 0; i < 8*6; i++ {
		ts := base.Add(time.Duration(3*i) * time.Hour)
		samples = append(samples, weather.Sample{
			Timestamp:  ts,
			DtTxt:      ts.Format("2006-01-02 15:04:05"),
			Conditions: weather.Conditions{Temperature: 283.15, IconCode: "10d"},
		})
	}

	v := Forecast(fulfilled(weather.Forecast{City: weather.Place{Name: "London", Country: "GB"}, Samples: samples}), store.Celsius)
	if v.Title != "London, GB Forecast" {
		t.Errorf("title = %q", v.Title)
	}
	if len(v.Days) != forecastDays {
		t.Fatalf("days = %d, want %d", len(v.Days), forecastDays)
	}
	if v.Days[0].Date != "Sat, Mar 9" || v.Days[0].Condition != weather.ConditionRain {
		t.Errorf("first day = %+v", v.Days[0])
	}
	if len(v.Chart) != len(samples) || v.Chart[0].Time != "03/09 09:00" || v.Chart[0].Temperature != 10 {
		t.Errorf("chart = %+v", v.Chart[0])
	}

	empty := Forecast(fulfilled(weather.Forecast{}), store.Celsius)
	if empty.State != StateEmpty || empty.Title != "Weather Forecast" {
		t.Errorf("empty forecast = %+v", empty)
	}
}

func TestStockCardAAPL(t *testing.T) {
	q := finance.Quote{Symbol: "AAPL", Price: "150.00", Change: "+1.50", ChangePercent: "1.00%", Volume: "1234567"}

	v := StockCard("AAPL", fulfilled(q))
	if v.Price != "$150.00" {
		t.Errorf("price = %q", v.Price)
	}
	if !v.Positive {
		t.Error("expected positive indicator")
	}
	if v.Change != "+1.50" || v.ChangePercent != "1.00%" || v.Volume != "1,234,567" {
		t.Errorf("change %q percent %q volume %q", v.Change, v.ChangePercent, v.Volume)
	}

	down := StockCard("TSLA", fulfilled(finance.Quote{Price: "200.1", Change: "-3.2000", ChangePercent: "-1.5748%"}))
	if down.Positive || down.Change != "-3.20" || down.ChangePercent != "-1.57%" {
		t.Errorf("negative card = %+v", down)
	}

	failed := StockCard("NOPE", query.TypedResult[finance.Quote]{Status: query.StatusRejected, Err: &query.ErrorInfo{}})
	if failed.State != StateError || failed.Message != "Failed to load data" {
		t.Errorf("failed card = %+v", failed.View)
	}
}

func TestWatchlistEmpty(t *testing.T) {
	if v := Watchlist(nil); v.State != StateEmpty || v.Stocks == nil {
		t.Fatalf("empty watchlist = %+v", v)
	}
	if v := Watchlist([]StockCardView{{Symbol: "AAPL"}}); v.State != StateReady {
		t.Fatalf("watchlist state = %s", v.State)
	}
}

func TestStockChartWindowAndChange(t *testing.T) {
	var s finance.Series
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 40; i++ {
		s.Points = append(s.Points, finance.Point{Time: start.AddDate(0, 0, i), Close: float64(100 + i)})
	}

	v := StockChart("AAPL", finance.IntervalDaily, fulfilled(s))
	if len(v.Points) != 30 {
		t.Fatalf("kept %d points, want 30", len(v.Points))
	}
	// Window is closes 110..139.
	if v.LatestPrice != "$139.00" || v.Change != "+$29.00" || !v.Positive {
		t.Errorf("latest %q change %q positive %v", v.LatestPrice, v.Change, v.Positive)
	}
	if v.ChangePercent != "26.36%" {
		t.Errorf("percent = %q", v.ChangePercent)
	}
	if v.Points[0].Time != "Jan 11, 2024" {
		t.Errorf("first tick = %q", v.Points[0].Time)
	}

	empty := StockChart("AAPL", finance.Interval5Min, fulfilled(finance.Series{}))
	if empty.State != StateEmpty || empty.Message != "No data available for this time interval." {
		t.Errorf("empty chart = %+v", empty.View)
	}
}

func TestNewsFeedPaging(t *testing.T) {
	page := news.Page{TotalResults: 12, Articles: []news.Article{
		{Title: "A", PublishedAt: time.Date(2024, 3, 9, 15, 0, 0, 0, time.UTC)},
		{Title: "B", Description: "short"},
	}}

	v := Headlines(news.HeadlinesQuery{Category: "business", Page: 2, PageSize: 5}, fulfilled(page))
	if v.TotalPages != 3 || !v.HasPrev || !v.HasNext {
		t.Errorf("paging = %d %v %v", v.TotalPages, v.HasPrev, v.HasNext)
	}
	if v.Articles[0].Description != "No description available" || v.Articles[0].Published != "Mar 9, 2024" {
		t.Errorf("article = %+v", v.Articles[0])
	}

	last := Headlines(news.HeadlinesQuery{Page: 3, PageSize: 5}, fulfilled(page))
	if last.HasNext || last.Category != "general" {
		t.Errorf("last page = %+v", last)
	}

	none := Headlines(news.HeadlinesQuery{}, fulfilled(news.Page{}))
	if none.State != StateEmpty || none.Message != "No articles found for this category." {
		t.Errorf("empty feed = %+v", none.View)
	}
}

type symbolProvider struct {
	mu       sync.Mutex
	searches []string
	matches  map[string][]finance.Match
}

func (p *symbolProvider) Name() string { return "fake" }

func (p *symbolProvider) Quote(ctx context.Context, symbol string) (finance.Quote, error) {
	return finance.Quote{}, nil
}

func (p *symbolProvider) TimeSeries(ctx context.Context, q finance.SeriesQuery) (finance.Series, error) {
	return finance.Series{}, nil
}

func (p *symbolProvider) Search(ctx context.Context, keywords string) ([]finance.Match, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.searches = append(p.searches, keywords)
	return append([]finance.Match{}, p.matches[keywords]...), nil
}

func (p *symbolProvider) seen() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.searches...)
}

func TestSearchBoxNoResults(t *testing.T) {
	p := &symbolProvider{}
	svc := finance.NewService(p, query.Options{})
	defer svc.Cache().Close()
	st := store.New(store.State{})

	box := NewSearchBox(svc, st, time.Hour)
	defer box.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if v := box.View(ctx); v.State != StateIdle {
		t.Fatalf("fresh box should be idle, got %s", v.State)
	}

	box.Type("goog")
	box.Flush()

	v := box.View(ctx)
	if v.State != StateEmpty || v.Message != "No results found" {
		t.Fatalf("expected the no-results state, got %+v", v.View)
	}
	if v.Query != "goog" || len(v.Results) != 0 {
		t.Fatalf("unexpected view %+v", v)
	}
}

func TestSearchBoxDebouncesAndSelects(t *testing.T) {
	p := &symbolProvider{matches: map[string][]finance.Match{
		"micro": {{Symbol: "MSFT", Name: "Microsoft Corporation"}},
	}}
	svc := finance.NewService(p, query.Options{})
	defer svc.Cache().Close()
	st := store.New(store.State{})

	box := NewSearchBox(svc, st, 20*time.Millisecond)
	defer box.Close()

	for _, text := range []string{"m", "mi", "mic", "micr", "micro"} {
		box.Type(text)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var v SearchView
	for ctx.Err() == nil {
		v = box.View(ctx)
		if v.State == StateReady {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if v.State != StateReady || v.Results[0].Symbol != "MSFT" {
		t.Fatalf("expected MSFT match, got %+v", v)
	}
	if got := p.seen(); !slices.Equal(got, []string{"micro"}) {
		t.Fatalf("searched %v, want only the debounced query", got)
	}

	box.Select("MSFT")
	if got := st.State().SelectedStocks; !slices.Equal(got, []string{"MSFT"}) {
		t.Fatalf("watchlist = %v", got)
	}
	after := box.View(ctx)
	if after.State != StateIdle || after.Active || after.Text != "" {
		t.Fatalf("box not reset after select: %+v", after)
	}
}

func TestSearchBoxInactiveSkips(t *testing.T) {
	p := &symbolProvider{}
	svc := finance.NewService(p, query.Options{})
	defer svc.Cache().Close()

	box := NewSearchBox(svc, store.New(store.State{}), time.Hour)
	defer box.Close()

	box.Type("aapl")
	box.SetActive(false)
	box.Flush()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if v := box.View(ctx); v.State != StateIdle {
		t.Fatalf("inactive box should not search, got %s", v.State)
	}
	if len(p.seen()) != 0 {
		t.Fatalf("inactive box reached the provider: %v", p.seen())
	}
}

func TestSearchBoxDropsSettledTextAfterSelect(t *testing.T) {
	p := &symbolProvider{}
	svc := finance.NewService(p, query.Options{})
	defer svc.Cache().Close()
	st := store.New(store.State{})

	box := NewSearchBox(svc, st, 20*time.Millisecond)
	defer box.Close()

	box.Type("micro")
	box.Select("MSFT")
	time.Sleep(80 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if v := box.View(ctx); v.State != StateIdle || v.Query != "" {
		t.Fatalf("box searched after select: %+v", v)
	}
	if len(p.seen()) != 0 {
		t.Fatalf("provider searched %v after select", p.seen())
	}
}
