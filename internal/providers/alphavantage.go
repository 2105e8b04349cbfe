package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"github.com/tidwall/gjson"

	"github.com/i474232898/dashboard-data-aggregation/internal/apierr"
	"github.com/i474232898/dashboard-data-aggregation/internal/finance"
)

// DefaultAlphaVantageURL is the Alpha Vantage query endpoint.
const DefaultAlphaVantageURL = "https://www.alphavantage.co/query"

// AlphaVantageProvider implements finance.Provider for Alpha Vantage.
//
// Alpha Vantage keys every field with a positional prefix ("05. price") and
// reports failures, including rate limiting, in 200 responses, so payloads are
// walked with gjson rather than decoded into fixed structs.
type AlphaVantageProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewAlphaVantageProvider(client *http.Client, apiKey string, opts ...Option) *AlphaVantageProvider {
	s := applyOptions(DefaultAlphaVantageURL, opts)

	return &AlphaVantageProvider{
		name:    "alphavantage",
		apiKey:  apiKey,
		baseURL: s.baseURL,
		httpCfg: newHTTPConfig(client, s.maxRetries),
		circuit: newCircuitBreaker("alphavantage"),
	}
}

func (p *AlphaVantageProvider) Name() string {
	return p.name
}

func (p *AlphaVantageProvider) Quote(ctx context.Context, symbol string) (finance.Quote, error) {
	doc, err := p.get(ctx, url.Values{
		"function": {"GLOBAL_QUOTE"},
		"symbol":   {symbol},
	})
	if err != nil {
		return finance.Quote{}, err
	}

	f := positional(doc.Get("Global Quote"))
	if len(f) == 0 || f["symbol"] == "" {
		return finance.Quote{}, apierr.Upstream(p.name, 0, fmt.Sprintf("no quote returned for %q", symbol))
	}

	return finance.Quote{
		Symbol:           f["symbol"],
		Open:             f["open"],
		High:             f["high"],
		Low:              f["low"],
		Price:            f["price"],
		Volume:           f["volume"],
		LatestTradingDay: f["latest trading day"],
		PreviousClose:    f["previous close"],
		Change:           f["change"],
		ChangePercent:    f["change percent"],
	}, nil
}

func (p *AlphaVantageProvider) TimeSeries(ctx context.Context, q finance.SeriesQuery) (finance.Series, error) {
	params := url.Values{"symbol": {q.Symbol}}
	switch q.Interval {
	case finance.IntervalHourly, finance.Interval5Min:
		params.Set("function", "TIME_SERIES_INTRADAY")
		params.Set("interval", string(q.Interval))
	default:
		params.Set("function", "TIME_SERIES_DAILY")
	}

	doc, err := p.get(ctx, params)
	if err != nil {
		return finance.Series{}, err
	}

	meta := positional(doc.Get("Meta Data"))
	series := finance.Series{
		Symbol:        q.Symbol,
		Interval:      q.Interval,
		LastRefreshed: meta["Last Refreshed"],
		TimeZone:      meta["Time Zone"],
	}
	if series.Interval == "" {
		series.Interval = finance.IntervalDaily
	}

	loc := time.UTC
	if series.TimeZone != "" {
		if l, err := time.LoadLocation(series.TimeZone); err == nil {
			loc = l
		}
	}

	var (
		bars     gjson.Result
		parseErr error
	)
	doc.ForEach(func(key, value gjson.Result) bool {
		if strings.HasPrefix(key.String(), "Time Series") {
			bars = value
			return false
		}
		return true
	})
	if !bars.Exists() {
		return finance.Series{}, apierr.Upstream(p.name, 0, fmt.Sprintf("no time series returned for %q", q.Symbol))
	}

	bars.ForEach(func(key, value gjson.Result) bool {
		pt, err := parseBar(key.String(), positional(value), loc)
		if err != nil {
			parseErr = err
			return false
		}
		series.Points = append(series.Points, pt)
		return true
	})
	if parseErr != nil {
		return finance.Series{}, apierr.UpstreamWrap(p.name, 0, parseErr)
	}

	sort.Slice(series.Points, func(i, j int) bool {
		return series.Points[i].Time.Before(series.Points[j].Time)
	})
	return series, nil
}

func (p *AlphaVantageProvider) Search(ctx context.Context, keywords string) ([]finance.Match, error) {
	doc, err := p.get(ctx, url.Values{
		"function": {"SYMBOL_SEARCH"},
		"keywords": {keywords},
	})
	if err != nil {
		return nil, err
	}

	matches := make([]finance.Match, 0)
	doc.Get("bestMatches").ForEach(func(_, value gjson.Result) bool {
		f := positional(value)
		matches = append(matches, finance.Match{
			Symbol:      f["symbol"],
			Name:        f["name"],
			Type:        f["type"],
			Region:      f["region"],
			MarketOpen:  f["marketOpen"],
			MarketClose: f["marketClose"],
			Timezone:    f["timezone"],
			Currency:    f["currency"],
			MatchScore:  f["matchScore"],
		})
		return true
	})
	return matches, nil
}

// get performs one query and returns the parsed document, turning the in-band
// "Error Message", "Note" and "Information" payloads into upstream errors.
func (p *AlphaVantageProvider) get(ctx context.Context, params url.Values) (gjson.Result, error) {
	if err := requireKey(p.name, p.apiKey); err != nil {
		return gjson.Result{}, err
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		for k, v := range params {
			values[k] = v
		}
		values.Set("apikey", p.apiKey)
		return http.NewRequest(http.MethodGet, p.baseURL+"?"+values.Encode(), nil)
	}

	body, err := doRequestWithResilience(ctx, p.name, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, apierr.Upstream(p.name, 0, "malformed JSON payload")
	}

	doc := gjson.ParseBytes(body)
	for _, field := range []string{"Error Message", "Note", "Information"} {
		if msg := doc.Get(field).String(); msg != "" {
			return gjson.Result{}, apierr.Upstream(p.name, 0, msg)
		}
	}
	return doc, nil
}

// positional flattens an object keyed like {"01. symbol": "IBM"} into
// {"symbol": "IBM"}. Keys without a numeric prefix are kept as-is.
func positional(obj gjson.Result) map[string]string {
	out := make(map[string]string)
	obj.ForEach(func(key, value gjson.Result) bool {
		k := key.String()
		if i := strings.Index(k, ". "); i > 0 && isDigits(k[:i]) {
			k = k[i+2:]
		}
		out[k] = value.String()
		return true
	})
	return out
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func parseBar(stamp string, f map[string]string, loc *time.Location) (finance.Point, error) {
	layout := "2006-01-02"
	if len(stamp) > len(layout) {
		layout = "2006-01-02 15:04:05"
	}
	ts, err := time.ParseInLocation(layout, stamp, loc)
	if err != nil {
		return finance.Point{}, fmt.Errorf("parse bar time %q: %w", stamp, err)
	}

	pt := finance.Point{Time: ts.UTC()}
	for field, dst := range map[string]*float64{
		"open": &pt.Open, "high": &pt.High, "low": &pt.Low, "close": &pt.Close,
	} {
		v, err := strconv.ParseFloat(f[field], 64)
		if err != nil {
			return finance.Point{}, fmt.Errorf("parse %s at %s: %w", field, stamp, err)
		}
		*dst = v
	}
	if vol := f["volume"]; vol != "" {
		n, err := strconv.ParseInt(vol, 10, 64)
		if err != nil {
			return finance.Point{}, fmt.Errorf("parse volume at %s: %w", stamp, err)
		}
		pt.Volume = n
	}
	return pt, nil
}
