package finance

import (
	"context"
	"log"

	"github.com/i474232898/dashboard-data-aggregation/internal/query"
)

// Namespace is the cache namespace for market data.
const Namespace = "finance"

// Service is the finance resource namespace.
type Service struct {
	cache      *query.Cache
	quote      query.Endpoint[string, Quote]
	timeSeries query.Endpoint[SeriesQuery, Series]
	search     query.Endpoint[string, []Match]
}

// NewService creates a Service backed by provider. opts.Namespace is forced to
// Namespace.
func NewService(provider Provider, opts query.Options) *Service {
	opts.Namespace = Namespace

	return &Service{
		cache: query.New(opts),
		quote: query.NewEndpoint("quote", func(ctx context.Context, symbol string) (Quote, error) {
			log.Printf("DEBUG: finance: fetching quote for %s from %s", symbol, provider.Name())
			return provider.Quote(ctx, symbol)
		}),
		timeSeries: query.NewEndpoint("timeSeries", func(ctx context.Context, q SeriesQuery) (Series, error) {
			log.Printf("DEBUG: finance: fetching %s series for %s from %s", q.Interval, q.Symbol, provider.Name())
			return provider.TimeSeries(ctx, q)
		}),
		search: query.NewEndpoint("search", func(ctx context.Context, keywords string) ([]Match, error) {
			log.Printf("DEBUG: finance: searching symbols for %q", keywords)
			return provider.Search(ctx, keywords)
		}),
	}
}

// Cache returns the namespace cache.
func (s *Service) Cache() *query.Cache {
	return s.cache
}

func (s *Service) SubscribeQuote(symbol string, opts ...query.SubscribeOption) *query.Subscription[Quote] {
	return s.quote.Subscribe(s.cache, symbol, opts...)
}

func (s *Service) SubscribeTimeSeries(q SeriesQuery, opts ...query.SubscribeOption) *query.Subscription[Series] {
	return s.timeSeries.Subscribe(s.cache, q, opts...)
}

// SubscribeSearch subscribes to symbol search results for keywords. Callers
// pass query.Skip while there is nothing to search for.
func (s *Service) SubscribeSearch(keywords string, opts ...query.SubscribeOption) *query.Subscription[[]Match] {
	return s.search.Subscribe(s.cache, keywords, opts...)
}

func (s *Service) InvalidateQuote(symbol string) {
	s.quote.Invalidate(s.cache, symbol)
}

func (s *Service) InvalidateTimeSeries(q SeriesQuery) {
	s.timeSeries.Invalidate(s.cache, q)
}

func (s *Service) InvalidateSearch(keywords string) {
	s.search.Invalidate(s.cache, keywords)
}
