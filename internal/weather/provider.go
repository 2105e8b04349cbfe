package weather

import (
	"context"
)

// Provider abstracts the weather upstream (OpenWeatherMap).
type Provider interface {
	Name() string
	Current(ctx context.Context, q Query) (Current, error)
	Forecast(ctx context.Context, q Query) (Forecast, error)
}
