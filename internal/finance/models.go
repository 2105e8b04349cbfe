package finance

import (
	"fmt"
	"strings"
	"time"
)

// Interval is the spacing of points in a price series.
type Interval string

const (
	IntervalDaily  Interval = "daily"
	IntervalHourly Interval = "60min"
	Interval5Min   Interval = "5min"
)

// ParseInterval accepts "daily", "60min" (or "hourly") and "5min".
// The empty string means daily.
func ParseInterval(s string) (Interval, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "daily":
		return IntervalDaily, nil
	case "60min", "hourly":
		return IntervalHourly, nil
	case "5min":
		return Interval5Min, nil
	default:
		return "", fmt.Errorf("unknown interval %q", s)
	}
}

// Window is how many of the most recent points a chart keeps.
func (i Interval) Window() int {
	switch i {
	case IntervalHourly:
		return 24
	case Interval5Min:
		return 60
	default:
		return 30
	}
}

// Quote is the latest quote for a symbol. Numeric fields are kept as the
// upstream decimal strings, e.g. Price "150.00", Change "+1.50",
// ChangePercent "1.00%".
type Quote struct {
	Symbol           string `json:"symbol"`
	Open             string `json:"open"`
	High             string `json:"high"`
	Low              string `json:"low"`
	Price            string `json:"price"`
	Volume           string `json:"volume"`
	LatestTradingDay string `json:"latestTradingDay"`
	PreviousClose    string `json:"previousClose"`
	Change           string `json:"change"`
	ChangePercent    string `json:"changePercent"`
}

// Point is one OHLCV bar.
type Point struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// SeriesQuery selects a price series.
type SeriesQuery struct {
	Symbol   string   `json:"symbol" validate:"required"`
	Interval Interval `json:"interval" validate:"required,oneof=daily 60min 5min"`
}

// Series is a price series ordered by time ascending.
type Series struct {
	Symbol        string   `json:"symbol"`
	Interval      Interval `json:"interval"`
	LastRefreshed string   `json:"lastRefreshed,omitempty"`
	TimeZone      string   `json:"timeZone,omitempty"`
	Points        []Point  `json:"points"`
}

// Tail returns the last n points, or all of them if there are fewer.
func (s Series) Tail(n int) []Point {
	if n <= 0 || len(s.Points) <= n {
		return s.Points
	}
	return s.Points[len(s.Points)-n:]
}

// Match is one symbol search hit.
type Match struct {
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Region      string `json:"region"`
	MarketOpen  string `json:"marketOpen"`
	MarketClose string `json:"marketClose"`
	Timezone    string `json:"timezone"`
	Currency    string `json:"currency"`
	MatchScore  string `json:"matchScore"`
}
