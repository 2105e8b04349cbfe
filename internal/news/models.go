package news

import (
	"strings"
	"time"
)

// Defaults applied to queries that leave fields unset.
const (
	DefaultCategory = "general"
	DefaultPage     = 1
	DefaultPageSize = 10
)

// HeadlinesQuery selects a page of US top headlines for a category.
type HeadlinesQuery struct {
	Category string `json:"category" validate:"omitempty,oneof=business entertainment general health science sports technology"`
	Page     int    `json:"page" validate:"gte=0"`
	PageSize int    `json:"pageSize" validate:"gte=0,lte=100"`
}

// Normalize fills in defaults so equivalent queries share a cache key.
func (q HeadlinesQuery) Normalize() HeadlinesQuery {
	q.Category = strings.ToLower(strings.TrimSpace(q.Category))
	if q.Category == "" {
		q.Category = DefaultCategory
	}
	q.Page, q.PageSize = normalizePaging(q.Page, q.PageSize)
	return q
}

// SearchQuery selects a page of articles matching Q.
type SearchQuery struct {
	Q        string `json:"q" validate:"required"`
	Page     int    `json:"page" validate:"gte=0"`
	PageSize int    `json:"pageSize" validate:"gte=0,lte=100"`
}

// Normalize fills in defaults so equivalent queries share a cache key.
func (q SearchQuery) Normalize() SearchQuery {
	q.Q = strings.TrimSpace(q.Q)
	q.Page, q.PageSize = normalizePaging(q.Page, q.PageSize)
	return q
}

func normalizePaging(page, pageSize int) (int, int) {
	if page <= 0 {
		page = DefaultPage
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return page, pageSize
}

// Article is one news item.
type Article struct {
	SourceID    string    `json:"sourceId,omitempty"`
	SourceName  string    `json:"sourceName"`
	Author      string    `json:"author,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	URL         string    `json:"url"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	PublishedAt time.Time `json:"publishedAt"`
	Content     string    `json:"content,omitempty"`
}

// Page is one page of results plus the total across all pages.
type Page struct {
	TotalResults int       `json:"totalResults"`
	Articles     []Article `json:"articles"`
}
