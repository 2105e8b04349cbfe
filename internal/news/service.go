package news

import (
	"context"
	"log"

	"github.com/i474232898/dashboard-data-aggregation/internal/query"
)

// Namespace is the cache namespace for news resources.
const Namespace = "news"

// Service is the news resource namespace. Queries are normalized before key
// derivation, so a zero page and page 1 hit the same entry.
type Service struct {
	cache     *query.Cache
	headlines query.Endpoint[HeadlinesQuery, Page]
	search    query.Endpoint[SearchQuery, Page]
}

// NewService creates a Service backed by provider. opts.Namespace is forced to
// Namespace.
func NewService(provider Provider, opts query.Options) *Service {
	opts.Namespace = Namespace

	return &Service{
		cache: query.New(opts),
		headlines: query.NewEndpoint("topHeadlines", func(ctx context.Context, q HeadlinesQuery) (Page, error) {
			log.Printf("DEBUG: news: fetching %s headlines page %d from %s", q.Category, q.Page, provider.Name())
			return provider.TopHeadlines(ctx, q)
		}),
		search: query.NewEndpoint("search", func(ctx context.Context, q SearchQuery) (Page, error) {
			log.Printf("DEBUG: news: searching %q page %d from %s", q.Q, q.Page, provider.Name())
			return provider.Search(ctx, q)
		}),
	}
}

// Cache returns the namespace cache.
func (s *Service) Cache() *query.Cache {
	return s.cache
}

func (s *Service) SubscribeHeadlines(q HeadlinesQuery, opts ...query.SubscribeOption) *query.Subscription[Page] {
	return s.headlines.Subscribe(s.cache, q.Normalize(), opts...)
}

func (s *Service) SubscribeSearch(q SearchQuery, opts ...query.SubscribeOption) *query.Subscription[Page] {
	return s.search.Subscribe(s.cache, q.Normalize(), opts...)
}

func (s *Service) InvalidateHeadlines(q HeadlinesQuery) {
	s.headlines.Invalidate(s.cache, q.Normalize())
}

func (s *Service) InvalidateSearch(q SearchQuery) {
	s.search.Invalidate(s.cache, q.Normalize())
}
