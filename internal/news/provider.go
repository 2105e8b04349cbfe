package news

import "context"

// Provider abstracts the news upstream (NewsAPI).
type Provider interface {
	Name() string
	TopHeadlines(ctx context.Context, q HeadlinesQuery) (Page, error)
	Search(ctx context.Context, q SearchQuery) (Page, error)
}
