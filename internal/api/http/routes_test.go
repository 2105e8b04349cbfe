package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/dashboard-data-aggregation/internal/apierr"
	"github.com/i474232898/dashboard-data-aggregation/internal/dashboard"
	"github.com/i474232898/dashboard-data-aggregation/internal/finance"
	"github.com/i474232898/dashboard-data-aggregation/internal/news"
	"github.com/i474232898/dashboard-data-aggregation/internal/query"
	"github.com/i474232898/dashboard-data-aggregation/internal/store"
	"github.com/i474232898/dashboard-data-aggregation/internal/weather"
)

type stubWeather struct{}

func (stubWeather) Name() string { return "stub-weather" }

func (stubWeather) Current(ctx context.Context, q weather.Query) (weather.Current, error) {
	if q.Location == "Atlantis" {
		return weather.Current{}, apierr.Upstream("stub-weather", http.StatusNotFound, "city not found")
	}
	return weather.Current{
		Place:      weather.Place{Name: q.String(), Country: "GB"},
		Conditions: weather.Conditions{Temperature: 283.15, Description: "clear sky", IconCode: "01d"},
	}, nil
}

func (stubWeather) Forecast(ctx context.Context, q weather.Query) (weather.Forecast, error) {
	return weather.Forecast{City: weather.Place{Name: "London", Country: "GB"}}, nil
}

type stubFinance struct{}

func (stubFinance) Name() string { return "stub-finance" }

func (stubFinance) Quote(ctx context.Context, symbol string) (finance.Quote, error) {
	return finance.Quote{Symbol: symbol, Price: "150.00", Change: "+1.50", ChangePercent: "1.00%", Volume: "1000"}, nil
}

func (stubFinance) TimeSeries(ctx context.Context, q finance.SeriesQuery) (finance.Series, error) {
	base := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	return finance.Series{Symbol: q.Symbol, Interval: q.Interval, Points: []finance.Point{
		{Time: base, Close: 100},
		{Time: base.AddDate(0, 0, 1), Close: 110},
	}}, nil
}

func (stubFinance) Search(ctx context.Context, keywords string) ([]finance.Match, error) {
	if strings.EqualFold(keywords, "micro") {
		return []finance.Match{{Symbol: "MSFT", Name: "Microsoft Corporation", Type: "Equity", Region: "United States", Currency: "USD"}}, nil
	}
	return []finance.Match{}, nil
}

// slowFinance holds every time series request until release is closed and
// records the symbol each one was asked for.
type slowFinance struct {
	stubFinance
	release chan struct{}
	seen    chan string
}

func (f slowFinance) TimeSeries(ctx context.Context, q finance.SeriesQuery) (finance.Series, error) {
	select {
	case <-f.release:
	case <-ctx.Done():
		return finance.Series{}, ctx.Err()
	}
	f.seen <- q.Symbol
	return f.stubFinance.TimeSeries(ctx, q)
}

type stubNews struct{}

func (stubNews) Name() string { return "stub-news" }

func (stubNews) TopHeadlines(ctx context.Context, q news.HeadlinesQuery) (news.Page, error) {
	return news.Page{TotalResults: 25, Articles: []news.Article{{Title: q.Category + " headline", SourceName: "Wire"}}}, nil
}

func (stubNews) Search(ctx context.Context, q news.SearchQuery) (news.Page, error) {
	return news.Page{TotalResults: 1, Articles: []news.Article{{Title: q.Q, SourceName: "Wire"}}}, nil
}

func newTestApp(t *testing.T) (*fiber.App, *dashboard.Dashboard) {
	t.Helper()
	return newTestAppWith(t, stubFinance{}, 2*time.Second)
}

func newTestAppWith(t *testing.T, fp finance.Provider, wait time.Duration) (*fiber.App, *dashboard.Dashboard) {
	t.Helper()

	opts := query.Options{}
	d := dashboard.New(
		store.New(store.DefaultState()),
		weather.NewService(stubWeather{}, opts),
		finance.NewService(fp, opts),
		news.NewService(stubNews{}, opts),
		dashboard.Options{WidgetWait: wait, SearchDebounce: time.Hour},
	)
	t.Cleanup(d.Close)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	RegisterRoutes(app, d)
	return app, d
}

func do(t *testing.T, app *fiber.App, method, target, body string) (int, map[string]any) {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	out := map[string]any{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode %s %s: %v", method, target, err)
	}
	return resp.StatusCode, out
}

func TestStateMutations(t *testing.T) {
	app, d := newTestApp(t)

	status, body := do(t, app, http.MethodPut, "/api/v1/state/location", `{"location":" London "}`)
	if status != http.StatusOK || body["selectedLocation"] != "London" {
		t.Fatalf("set location: %d %v", status, body)
	}

	status, _ = do(t, app, http.MethodPost, "/api/v1/state/stocks", `{"symbol":"nvda"}`)
	if status != http.StatusCreated {
		t.Fatalf("add stock: %d", status)
	}
	do(t, app, http.MethodDelete, "/api/v1/state/stocks/tsla", "")
	do(t, app, http.MethodPost, "/api/v1/state/temperature-unit/toggle", "")

	st := d.Store().State()
	if !slices.Contains(st.SelectedStocks, "NVDA") || slices.Contains(st.SelectedStocks, "TSLA") {
		t.Errorf("stocks = %v", st.SelectedStocks)
	}
	if st.TemperatureUnit != store.Fahrenheit {
		t.Errorf("unit = %q", st.TemperatureUnit)
	}

	status, _ = do(t, app, http.MethodPut, "/api/v1/state/news-categories", `{"categories":["sports","health"]}`)
	if status != http.StatusOK {
		t.Fatalf("set categories: %d", status)
	}
	if got := d.Store().State().SelectedNewsCategories; !slices.Equal(got, []string{"health", "sports"}) {
		t.Errorf("categories = %v", got)
	}
}

func TestStateValidation(t *testing.T) {
	app, _ := newTestApp(t)

	tests := []struct {
		name, method, target, body string
	}{
		{"missing symbol", http.MethodPost, "/api/v1/state/stocks", `{}`},
		{"symbol with space", http.MethodPost, "/api/v1/state/stocks", `{"symbol":"A B"}`},
		{"unknown category", http.MethodPut, "/api/v1/state/news-categories", `{"categories":["gossip"]}`},
		{"zero-width widget", http.MethodPut, "/api/v1/state/layout", `{"widgets":[{"id":"w","x":0,"y":0,"width":0,"height":1}]}`},
		{"malformed json", http.MethodPut, "/api/v1/state/location", `{"location":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, app, tt.method, tt.target, tt.body)
			if status != http.StatusBadRequest {
				t.Fatalf("expected status %d, got %d", http.StatusBadRequest, status)
			}
			if body["error"] != true || body["message"] == "" {
				t.Fatalf("unexpected error body %v", body)
			}
		})
	}
}

func TestWeatherQueryValidation(t *testing.T) {
	app, _ := newTestApp(t)

	for _, target := range []string{
		"/api/v1/weather/current?lat=40.7",
		"/api/v1/weather/current?lat=abc&lon=1",
		"/api/v1/weather/forecast?lat=91&lon=0",
		"/api/v1/finance/chart?interval=weekly",
		"/api/v1/news/headlines?category=gossip",
		"/api/v1/news/search?q=go&pageSize=500",
	} {
		status, _ := do(t, app, http.MethodGet, target, "")
		if status != http.StatusBadRequest {
			t.Errorf("%s: expected status %d, got %d", target, http.StatusBadRequest, status)
		}
	}
}

func TestCurrentWeather(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := do(t, app, http.MethodGet, "/api/v1/weather/current?location=London", "")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if body["state"] != "ready" || body["temperature"] != "10°C" || body["condition"] != "sun" {
		t.Fatalf("unexpected view %v", body)
	}

	_, body = do(t, app, http.MethodGet, "/api/v1/weather/current?location=Atlantis", "")
	if body["state"] != "error" {
		t.Fatalf("expected error view, got %v", body)
	}
	if msg, _ := body["message"].(string); !strings.Contains(msg, "try a different location") {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestFinanceWidgets(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := do(t, app, http.MethodGet, "/api/v1/finance/watchlist", "")
	if status != http.StatusOK || body["state"] != "ready" {
		t.Fatalf("watchlist: %d %v", status, body)
	}
	if stocks, _ := body["stocks"].([]any); len(stocks) != 5 {
		t.Fatalf("expected 5 cards, got %v", body["stocks"])
	}

	_, body = do(t, app, http.MethodGet, "/api/v1/finance/chart?symbol=msft&interval=daily&refresh=true", "")
	if body["symbol"] != "MSFT" || body["changePercent"] != "10.00%" {
		t.Fatalf("unexpected chart %v", body)
	}
}

func TestSymbolSearchFlow(t *testing.T) {
	app, d := newTestApp(t)

	_, body := do(t, app, http.MethodGet, "/api/v1/finance/search", "")
	if body["state"] != "idle" {
		t.Fatalf("expected idle box, got %v", body)
	}

	_, body = do(t, app, http.MethodPut, "/api/v1/finance/search", `{"text":"micro","active":true,"flush":true}`)
	results, _ := body["results"].([]any)
	if body["state"] != "ready" || len(results) != 1 {
		t.Fatalf("unexpected search view %v", body)
	}

	status, _ := do(t, app, http.MethodPost, "/api/v1/finance/search/select", `{"symbol":"MSFT"}`)
	if status != http.StatusOK {
		t.Fatalf("select: %d", status)
	}
	if !slices.Contains(d.Store().State().SelectedStocks, "MSFT") {
		t.Fatalf("MSFT not added: %v", d.Store().State().SelectedStocks)
	}

	_, body = do(t, app, http.MethodGet, "/api/v1/finance/search", "")
	if body["active"] != false || body["text"] != "" {
		t.Fatalf("box not reset: %v", body)
	}
}

func TestNewsWidgets(t *testing.T) {
	app, _ := newTestApp(t)

	_, body := do(t, app, http.MethodGet, "/api/v1/news/headlines?category=sports&page=2&pageSize=10", "")
	if body["state"] != "ready" || body["totalPages"] != float64(3) || body["hasPrev"] != true {
		t.Fatalf("unexpected headlines %v", body)
	}

	_, body = do(t, app, http.MethodGet, "/api/v1/news/search", "")
	if body["state"] != "idle" {
		t.Fatalf("empty search should be idle, got %v", body)
	}
}

func TestOverview(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := do(t, app, http.MethodGet, "/api/v1/overview", "")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	for _, k := range []string{"state", "weather", "forecast", "stocks", "news"} {
		if _, ok := body[k]; !ok {
			t.Errorf("overview missing %q", k)
		}
	}
	if feeds, _ := body["news"].([]any); len(feeds) != 2 {
		t.Errorf("expected 2 news feeds, got %v", body["news"])
	}
}

func TestChartParamsOutliveHandler(t *testing.T) {
	fp := slowFinance{release: make(chan struct{}), seen: make(chan string, 32)}
	app, _ := newTestAppWith(t, fp, 50*time.Millisecond)

	status, body := do(t, app, http.MethodGet, "/api/v1/finance/chart?symbol=AAPLXYZ", "")
	if status != http.StatusOK || body["state"] != "loading" {
		t.Fatalf("expected a loading chart, got %d %v", status, body)
	}

	// Reuse the request buffers before the first fetch resumes.
	for i := 0; i < 20; i++ {
		do(t, app, http.MethodGet, "/api/v1/finance/chart?symbol=QQQQQQQ", "")
	}
	close(fp.release)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case sym := <-fp.seen:
			if sym == "AAPLXYZ" {
				return
			}
			if sym != "QQQQQQQ" {
				t.Fatalf("fetch ran with unexpected symbol %q", sym)
			}
		case <-deadline:
			t.Fatal("the AAPLXYZ fetch never ran with its own symbol")
		}
	}
}
