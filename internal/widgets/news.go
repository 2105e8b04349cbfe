package widgets

import (
	"github.com/i474232898/dashboard-data-aggregation/internal/format"
	"github.com/i474232898/dashboard-data-aggregation/internal/news"
	"github.com/i474232898/dashboard-data-aggregation/internal/query"
)

const descriptionLength = 100

// NewsFeedView is a page of articles with paging state.
type NewsFeedView struct {
	View
	Category   string        `json:"category,omitempty"`
	Query      string        `json:"query,omitempty"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	TotalPages int           `json:"totalPages"`
	HasPrev    bool          `json:"hasPrev"`
	HasNext    bool          `json:"hasNext"`
	Articles   []ArticleView `json:"articles"`
}

// ArticleView is one article as listed in the feed.
type ArticleView struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Source      string `json:"source"`
	Author      string `json:"author,omitempty"`
	URL         string `json:"url"`
	ImageURL    string `json:"imageUrl,omitempty"`
	Published   string `json:"published"`
	Content     string `json:"content,omitempty"`
}

// Headlines renders a top-headlines page for q.
func Headlines(q news.HeadlinesQuery, r query.TypedResult[news.Page]) NewsFeedView {
	q = q.Normalize()
	v := newsFeed(q.Page, q.PageSize, r, messages{
		err:   "Error loading news. Please try again later.",
		empty: "No articles found for this category.",
	})
	v.Category = q.Category
	return v
}

// SearchResults renders a search page for q.
func SearchResults(q news.SearchQuery, r query.TypedResult[news.Page]) NewsFeedView {
	q = q.Normalize()
	v := newsFeed(q.Page, q.PageSize, r, messages{
		idle:  "Enter a search term to find articles.",
		err:   "Error searching news. Please try again later.",
		empty: "No articles found for this search.",
	})
	v.Query = q.Q
	return v
}

func newsFeed(page, pageSize int, r query.TypedResult[news.Page], m messages) NewsFeedView {
	v := NewsFeedView{
		View:     resolve(r, func(p news.Page) bool { return len(p.Articles) == 0 }, m),
		Page:     page,
		PageSize: pageSize,
		HasPrev:  page > 1,
		Articles: []ArticleView{},
	}
	if !r.HasData {
		return v
	}

	v.TotalPages = (r.Data.TotalResults + pageSize - 1) / pageSize
	v.HasNext = page < v.TotalPages

	for _, a := range r.Data.Articles {
		desc := a.Description
		if desc == "" {
			desc = "No description available"
		}
		v.Articles = append(v.Articles, ArticleView{
			Title:       a.Title,
			Description: format.Truncate(desc, descriptionLength),
			Source:      a.SourceName,
			Author:      a.Author,
			URL:         a.URL,
			ImageURL:    a.ImageURL,
			Published:   format.Date(a.PublishedAt, format.LayoutShortDate),
			Content:     a.Content,
		})
	}
	return v
}
