package finance

import "context"

// Provider abstracts the market data upstream (Alpha Vantage).
type Provider interface {
	Name() string
	Quote(ctx context.Context, symbol string) (Quote, error)
	TimeSeries(ctx context.Context, q SeriesQuery) (Series, error)
	Search(ctx context.Context, keywords string) ([]Match, error)
}
