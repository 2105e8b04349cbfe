package dashboard

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/i474232898/dashboard-data-aggregation/internal/finance"
	"github.com/i474232898/dashboard-data-aggregation/internal/news"
	"github.com/i474232898/dashboard-data-aggregation/internal/query"
	"github.com/i474232898/dashboard-data-aggregation/internal/store"
	"github.com/i474232898/dashboard-data-aggregation/internal/weather"
	"github.com/i474232898/dashboard-data-aggregation/internal/widgets"
)

// overviewHeadlines is the page size of each category feed on the overview.
const overviewHeadlines = 5

// maxConcurrentQuotes bounds the watchlist fan-out.
const maxConcurrentQuotes = 4

// Refresh requests that the keys a view reads be invalidated first.
type Refresh bool

func (d *Dashboard) waitCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, d.wait)
}

// weatherQuery resolves an explicit query, falling back to the selected location.
func (d *Dashboard) weatherQuery(q weather.Query) weather.Query {
	if q.IsZero() {
		return weather.ByName(d.store.State().SelectedLocation)
	}
	return q
}

// CurrentWeather renders the current conditions card for q, or for the
// selected location when q is zero.
func (d *Dashboard) CurrentWeather(ctx context.Context, q weather.Query, refresh Refresh) widgets.CurrentWeatherView {
	q = d.weatherQuery(q)
	if refresh {
		d.weather.InvalidateCurrent(q)
	}

	sub := d.weather.SubscribeCurrent(q, query.Skip(q.IsZero()))
	defer sub.Close()

	ctx, cancel := d.waitCtx(ctx)
	defer cancel()
	return widgets.CurrentWeather(q.String(), sub.Wait(ctx), d.store.State().TemperatureUnit)
}

// Forecast renders the forecast card for q, or for the selected location.
func (d *Dashboard) Forecast(ctx context.Context, q weather.Query, refresh Refresh) widgets.ForecastView {
	q = d.weatherQuery(q)
	if refresh {
		d.weather.InvalidateForecast(q)
	}

	sub := d.weather.SubscribeForecast(q, query.Skip(q.IsZero()))
	defer sub.Close()

	ctx, cancel := d.waitCtx(ctx)
	defer cancel()
	return widgets.Forecast(sub.Wait(ctx), d.store.State().TemperatureUnit)
}

// Watchlist renders one card per selected symbol, fetching them concurrently.
func (d *Dashboard) Watchlist(ctx context.Context, refresh Refresh) widgets.WatchlistView {
	symbols := d.store.State().SelectedStocks
	cards := make([]widgets.StockCardView, len(symbols))

	ctx, cancel := d.waitCtx(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentQuotes)
	for i, sym := range symbols {
		g.Go(func() error {
			if refresh {
				d.finance.InvalidateQuote(sym)
			}
			sub := d.finance.SubscribeQuote(sym)
			defer sub.Close()
			cards[i] = widgets.StockCard(sym, sub.Wait(gctx))
			return nil
		})
	}
	_ = g.Wait()

	return widgets.Watchlist(cards)
}

// Chart renders the price chart. An empty symbol means the first watched one.
func (d *Dashboard) Chart(ctx context.Context, symbol string, interval finance.Interval, refresh Refresh) widgets.ChartView {
	if symbol == "" {
		if stocks := d.store.State().SelectedStocks; len(stocks) > 0 {
			symbol = stocks[0]
		}
	}
	if interval == "" {
		interval = finance.IntervalDaily
	}

	q := finance.SeriesQuery{Symbol: symbol, Interval: interval}
	if refresh {
		d.finance.InvalidateTimeSeries(q)
	}

	sub := d.finance.SubscribeTimeSeries(q, query.Skip(symbol == ""))
	defer sub.Close()

	ctx, cancel := d.waitCtx(ctx)
	defer cancel()
	return widgets.StockChart(symbol, interval, sub.Wait(ctx))
}

// SymbolSearch renders the watchlist search box.
func (d *Dashboard) SymbolSearch(ctx context.Context) widgets.SearchView {
	ctx, cancel := d.waitCtx(ctx)
	defer cancel()
	return d.search.View(ctx)
}

// Headlines renders a page of top headlines.
func (d *Dashboard) Headlines(ctx context.Context, q news.HeadlinesQuery, refresh Refresh) widgets.NewsFeedView {
	if refresh {
		d.news.InvalidateHeadlines(q)
	}

	sub := d.news.SubscribeHeadlines(q)
	defer sub.Close()

	ctx, cancel := d.waitCtx(ctx)
	defer cancel()
	return widgets.Headlines(q, sub.Wait(ctx))
}

// SearchNews renders a page of articles matching q. An empty term is idle.
func (d *Dashboard) SearchNews(ctx context.Context, q news.SearchQuery, refresh Refresh) widgets.NewsFeedView {
	q = q.Normalize()
	if refresh {
		d.news.InvalidateSearch(q)
	}

	sub := d.news.SubscribeSearch(q, query.Skip(q.Q == ""))
	defer sub.Close()

	ctx, cancel := d.waitCtx(ctx)
	defer cancel()
	return widgets.SearchResults(q, sub.Wait(ctx))
}

// OverviewView is the combined home page.
type OverviewView struct {
	State    store.State                `json:"state"`
	Weather  widgets.CurrentWeatherView `json:"weather"`
	Forecast widgets.ForecastView       `json:"forecast"`
	Stocks   widgets.WatchlistView      `json:"stocks"`
	News     []widgets.NewsFeedView     `json:"news"`
}

// Overview renders every widget on the home page concurrently: current
// weather, forecast, watchlist and one headline feed per selected category.
func (d *Dashboard) Overview(ctx context.Context) OverviewView {
	st := d.store.State()
	ov := OverviewView{
		State: st,
		News:  make([]widgets.NewsFeedView, len(st.SelectedNewsCategories)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ov.Weather = d.CurrentWeather(gctx, weather.Query{}, false)
		return nil
	})
	g.Go(func() error {
		ov.Forecast = d.Forecast(gctx, weather.Query{}, false)
		return nil
	})
	g.Go(func() error {
		ov.Stocks = d.Watchlist(gctx, false)
		return nil
	})
	for i, category := range st.SelectedNewsCategories {
		g.Go(func() error {
			ov.News[i] = d.Headlines(gctx, news.HeadlinesQuery{Category: category, PageSize: overviewHeadlines}, false)
			return nil
		})
	}
	_ = g.Wait()

	return ov
}
