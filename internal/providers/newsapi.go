package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/dashboard-data-aggregation/internal/apierr"
	"github.com/i474232898/dashboard-data-aggregation/internal/news"
)

// DefaultNewsAPIURL is the NewsAPI v2 root.
const DefaultNewsAPIURL = "https://newsapi.org/v2"

// NewsAPIProvider implements news.Provider for NewsAPI. The key travels in the
// X-Api-Key header, never in the URL.
type NewsAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewNewsAPIProvider(client *http.Client, apiKey string, opts ...Option) *NewsAPIProvider {
	s := applyOptions(DefaultNewsAPIURL, opts)

	return &NewsAPIProvider{
		name:    "newsapi",
		apiKey:  apiKey,
		baseURL: s.baseURL,
		httpCfg: newHTTPConfig(client, s.maxRetries),
		circuit: newCircuitBreaker("newsapi"),
	}
}

func (p *NewsAPIProvider) Name() string {
	return p.name
}

func (p *NewsAPIProvider) TopHeadlines(ctx context.Context, q news.HeadlinesQuery) (news.Page, error) {
	q = q.Normalize()
	return p.get(ctx, "top-headlines", url.Values{
		"country":  {"us"},
		"category": {q.Category},
		"page":     {strconv.Itoa(q.Page)},
		"pageSize": {strconv.Itoa(q.PageSize)},
	})
}

func (p *NewsAPIProvider) Search(ctx context.Context, q news.SearchQuery) (news.Page, error) {
	q = q.Normalize()
	return p.get(ctx, "everything", url.Values{
		"q":        {q.Q},
		"page":     {strconv.Itoa(q.Page)},
		"pageSize": {strconv.Itoa(q.PageSize)},
	})
}

func (p *NewsAPIProvider) get(ctx context.Context, endpoint string, params url.Values) (news.Page, error) {
	if err := requireKey(p.name, p.apiKey); err != nil {
		return news.Page{}, err
	}

	buildRequest := func() (*http.Request, error) {
		u := fmt.Sprintf("%s/%s?%s", p.baseURL, endpoint, params.Encode())
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("X-Api-Key", p.apiKey)
		return req, nil
	}

	body, err := doRequestWithResilience(ctx, p.name, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return news.Page{}, err
	}

	var payload struct {
		Status       string `json:"status"`
		Code         string `json:"code"`
		Message      string `json:"message"`
		TotalResults int    `json:"totalResults"`
		Articles     []struct {
			Source struct {
				ID   *string `json:"id"`
				Name string  `json:"name"`
			} `json:"source"`
			Author      *string   `json:"author"`
			Title       string    `json:"title"`
			Description *string   `json:"description"`
			URL         string    `json:"url"`
			URLToImage  *string   `json:"urlToImage"`
			PublishedAt time.Time `json:"publishedAt"`
			Content     *string   `json:"content"`
		} `json:"articles"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return news.Page{}, apierr.UpstreamWrap(p.name, 0, fmt.Errorf("decode articles: %w", err))
	}
	if payload.Status == "error" {
		return news.Page{}, apierr.Upstream(p.name, 0, fmt.Sprintf("%s: %s", payload.Code, payload.Message))
	}

	page := news.Page{
		TotalResults: payload.TotalResults,
		Articles:     make([]news.Article, 0, len(payload.Articles)),
	}
	for _, a := range payload.Articles {
		page.Articles = append(page.Articles, news.Article{
			SourceID:    deref(a.Source.ID),
			SourceName:  a.Source.Name,
			Author:      deref(a.Author),
			Title:       a.Title,
			Description: deref(a.Description),
			URL:         a.URL,
			ImageURL:    deref(a.URLToImage),
			PublishedAt: a.PublishedAt.UTC(),
			Content:     deref(a.Content),
		})
	}
	return page, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
