package widgets

import (
	"strconv"
	"strings"

	"github.com/i474232898/dashboard-data-aggregation/internal/finance"
	"github.com/i474232898/dashboard-data-aggregation/internal/format"
	"github.com/i474232898/dashboard-data-aggregation/internal/query"
)

// StockCardView is one row of the watchlist.
type StockCardView struct {
	View
	Symbol           string `json:"symbol"`
	Price            string `json:"price,omitempty"`
	Change           string `json:"change,omitempty"`
	ChangePercent    string `json:"changePercent,omitempty"`
	Positive         bool   `json:"positive"`
	Volume           string `json:"volume,omitempty"`
	LatestTradingDay string `json:"latestTradingDay,omitempty"`
}

// StockCard renders the quote for symbol. The change is positive unless the
// upstream change string is negative.
func StockCard(symbol string, r query.TypedResult[finance.Quote]) StockCardView {
	v := StockCardView{
		View:   resolve(r, nil, messages{err: "Failed to load data"}),
		Symbol: symbol,
	}
	if !r.HasData {
		return v
	}

	q := r.Data
	v.Positive = !strings.HasPrefix(strings.TrimSpace(q.Change), "-")
	v.Price = reformat(q.Price, format.Currency)
	v.Change = reformat(q.Change, format.Signed)
	v.ChangePercent = reformat(strings.TrimSuffix(strings.TrimSpace(q.ChangePercent), "%"), format.Percent)
	v.LatestTradingDay = q.LatestTradingDay
	if n, err := strconv.ParseInt(strings.TrimSpace(q.Volume), 10, 64); err == nil {
		v.Volume = format.Count(n)
	} else {
		v.Volume = q.Volume
	}
	return v
}

// reformat parses a decimal string and renders it with fn, leaving values that
// do not parse untouched.
func reformat(raw string, fn func(float64) string) string {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return raw
	}
	return fn(f)
}

// WatchlistView is the stock summary widget: one card per watched symbol.
type WatchlistView struct {
	View
	Stocks []StockCardView `json:"stocks"`
}

// Watchlist wraps the cards. An empty watchlist renders the empty state.
func Watchlist(cards []StockCardView) WatchlistView {
	v := WatchlistView{View: View{State: StateReady}, Stocks: cards}
	if len(cards) == 0 {
		v.State = StateEmpty
		v.Message = "No stocks in watchlist. Search and add some stocks."
		v.Stocks = []StockCardView{}
	}
	return v
}

// ChartView is the price chart for one symbol and interval.
type ChartView struct {
	View
	Symbol        string           `json:"symbol"`
	Interval      finance.Interval `json:"interval"`
	Period        string           `json:"period"`
	LatestPrice   string           `json:"latestPrice,omitempty"`
	Change        string           `json:"change,omitempty"`
	ChangePercent string           `json:"changePercent,omitempty"`
	Positive      bool             `json:"positive"`
	Points        []ChartPoint     `json:"points"`
}

// ChartPoint is one bar on the chart.
type ChartPoint struct {
	Time   string  `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// StockChart keeps the most recent window of points for the interval and
// reports the change from the first to the last of them.
func StockChart(symbol string, interval finance.Interval, r query.TypedResult[finance.Series]) ChartView {
	v := ChartView{
		View: resolve(r, func(s finance.Series) bool { return len(s.Points) == 0 }, messages{
			idle:  "Select a stock to see its chart.",
			err:   "Error loading stock data. Please try a different stock or interval.",
			empty: "No data available for this time interval.",
		}),
		Symbol:   symbol,
		Interval: interval,
		Period:   period(interval),
		Points:   []ChartPoint{},
	}
	if !v.Ready() {
		return v
	}

	layout := format.LayoutShortDate
	if interval != finance.IntervalDaily {
		layout = format.LayoutChartTick
	}

	points := r.Data.Tail(interval.Window())
	for _, p := range points {
		v.Points = append(v.Points, ChartPoint{
			Time:   format.Date(p.Time, layout),
			Open:   p.Open,
			High:   p.High,
			Low:    p.Low,
			Close:  p.Close,
			Volume: p.Volume,
		})
	}

	first, latest := points[0].Close, points[len(points)-1].Close
	change := latest - first
	v.LatestPrice = format.Currency(latest)
	v.Change = format.SignedCurrency(change)
	v.Positive = change >= 0
	if first != 0 {
		v.ChangePercent = format.Percent(change / first * 100)
	}
	return v
}

func period(i finance.Interval) string {
	switch i {
	case finance.IntervalHourly:
		return "Last 24 hours"
	case finance.Interval5Min:
		return "Last 60 intervals (5 min)"
	default:
		return "Last 30 days"
	}
}
