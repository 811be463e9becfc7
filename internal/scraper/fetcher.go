package scraper

import (
	"context"

	"github.com/PuerkitoBio/goquery"
)

// Fetcher loads a page and returns it once its dynamic content has settled.
// Implementations own sessions, cookies and retries.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*goquery.Document, error)
}

// FetcherFunc adapts a function to the Fetcher interface
type FetcherFunc func(ctx context.Context, url string) (*goquery.Document, error)

// Fetch calls f(ctx, url)
func (f FetcherFunc) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	return f(ctx, url)
}
