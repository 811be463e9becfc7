package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/net/html/charset"

	"github.com/pfrederiksen/staatsoper-tickets/internal/logger"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultTimeout   = 30 * time.Second
	DefaultRetries   = 3

	// ShopPath is where the "Weiter" button of the inactivity page leads
	ShopPath = "/webshop/webticket/shop"

	maxBodyBytes = 8 << 20
)

// inactivityMarkers identify the shop's session timeout page
var inactivityMarkers = []string{
	"Sie waren längere Zeit inaktiv",
	"Reservierungsvorgang wurde beendet",
}

// Options configures an HTTPFetcher
type Options struct {
	Origin    string // shop origin used to resume an expired session
	UserAgent string
	Timeout   time.Duration
	Retries   int
	// OnFetch is called once per requested page with "ok" or "error"
	OnFetch func(url, status string)
}

// HTTPFetcher loads shop pages over HTTP
type HTTPFetcher struct {
	client    *retryablehttp.Client
	origin    string
	userAgent string
	onFetch   func(url, status string)
}

// NewHTTPFetcher creates a fetcher with its own cookie jar
func NewHTTPFetcher(opts Options) (*HTTPFetcher, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	client := retryablehttp.NewClient()
	client.Logger = logger.NewLeveled(nil)
	client.RetryMax = opts.Retries
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 5 * time.Second
	client.HTTPClient.Timeout = opts.Timeout
	client.HTTPClient.Jar = jar

	return &HTTPFetcher{
		client:    client,
		origin:    strings.TrimRight(opts.Origin, "/"),
		userAgent: opts.UserAgent,
		onFetch:   opts.OnFetch,
	}, nil
}

// Fetch loads url and parses it. An inactivity page is answered by visiting the shop
// entry page and loading url once more.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	body, err := f.get(ctx, url)
	if err == nil && isInactivityPage(body) && f.origin != "" {
		logger.Info("Inactivity page detected, resuming shop session", logger.Fields{"url": url})
		if _, err := f.get(ctx, f.origin+ShopPath); err != nil {
			logger.Warn("Could not resume shop session", logger.Fields{"error": err.Error()})
		}
		body, err = f.get(ctx, url)
	}

	if err != nil {
		f.observe(url, "error")
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		f.observe(url, "error")
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	f.observe(url, "ok")
	return doc, nil
}

func (f *HTTPFetcher) observe(url, status string) {
	if f.onFetch != nil {
		f.onFetch(url, status)
	}
}

// get returns the UTF-8 decoded body of url
func (f *HTTPFetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "de-AT,de;q=0.9,en;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading page: %w", err)
	}
	if len(raw) > maxBodyBytes {
		return nil, fmt.Errorf("page exceeds %d bytes", maxBodyBytes)
	}

	r, err := charset.NewReader(bytes.NewReader(raw), resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("decoding page: %w", err)
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decoding page: %w", err)
	}
	return body, nil
}

func isInactivityPage(body []byte) bool {
	for _, marker := range inactivityMarkers {
		if bytes.Contains(body, []byte(marker)) {
			return true
		}
	}
	return false
}
