package weather

import (
	"context"
	"log"

	"github.com/i474232898/dashboard-data-aggregation/internal/query"
)

// Namespace is the cache namespace for weather resources.
const Namespace = "weather"

// Service is the weather resource namespace: one cache plus the current and
// forecast endpoints that read through it.
type Service struct {
	cache    *query.Cache
	current  query.Endpoint[Query, Current]
	forecast query.Endpoint[Query, Forecast]
}

// NewService creates a Service backed by provider. opts.Namespace is forced to
// Namespace.
func NewService(provider Provider, opts query.Options) *Service {
	opts.Namespace = Namespace

	return &Service{
		cache: query.New(opts),
		current: query.NewEndpoint("currentWeather", func(ctx context.Context, q Query) (Current, error) {
			log.Printf("DEBUG: weather: fetching current conditions for %q from %s", q.String(), provider.Name())
			return provider.Current(ctx, q)
		}),
		forecast: query.NewEndpoint("forecast", func(ctx context.Context, q Query) (Forecast, error) {
			log.Printf("DEBUG: weather: fetching forecast for %q from %s", q.String(), provider.Name())
			return provider.Forecast(ctx, q)
		}),
	}
}

// Cache returns the namespace cache.
func (s *Service) Cache() *query.Cache {
	return s.cache
}

// SubscribeCurrent subscribes to the current conditions for q.
func (s *Service) SubscribeCurrent(q Query, opts ...query.SubscribeOption) *query.Subscription[Current] {
	return s.current.Subscribe(s.cache, q, opts...)
}

// SubscribeForecast subscribes to the forecast for q.
func (s *Service) SubscribeForecast(q Query, opts ...query.SubscribeOption) *query.Subscription[Forecast] {
	return s.forecast.Subscribe(s.cache, q, opts...)
}

// InvalidateCurrent forces the next current-conditions read for q to re-fetch.
func (s *Service) InvalidateCurrent(q Query) {
	s.current.Invalidate(s.cache, q)
}

// InvalidateForecast forces the next forecast read for q to re-fetch.
func (s *Service) InvalidateForecast(q Query) {
	s.forecast.Invalidate(s.cache, q)
}
