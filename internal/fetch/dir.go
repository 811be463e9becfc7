package fetch

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/PuerkitoBio/goquery"
)

// DirFetcher serves saved seat selection pages named "<eventId>.html" from a directory
type DirFetcher struct {
	Dir string
}

// Fetch opens the page saved for the eventId parameter of rawURL
func (d DirFetcher) Fetch(_ context.Context, rawURL string) (*goquery.Document, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing URL: %w", err)
	}
	id := u.Query().Get("eventId")
	if id == "" || id != filepath.Base(id) {
		return nil, fmt.Errorf("no usable eventId in %q", rawURL)
	}
	return ParseFile(filepath.Join(d.Dir, id+".html"))
}

// ParseFile reads and parses a saved HTML page
func ParseFile(path string) (*goquery.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening page: %w", err)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return doc, nil
}
