package scraper

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/staatsoper-tickets/internal/event"
)

// tomorrow is the target date used throughout the tests
var tomorrow = event.Date{Year: 2026, Month: time.October, Day: 20}

func parseHTML(t *testing.T, s string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		t.Fatalf("parsing HTML: %v", err)
	}
	return doc
}

// listPage wraps list entries in the shop's event list markup
func listPage(entries ...string) string {
	return `<html><body><div class="content"><ul id="eventListUl">` +
		strings.Join(entries, "\n") +
		`</ul></div></body></html>`
}

// listEntry renders one show. Each link is "href|text|title".
func listEntry(n int, title, date, clock string, links ...string) string {
	var b strings.Builder
	b.WriteString(`<li><div class="evt-event row">`)
	if title != "" {
		fmt.Fprintf(&b, `<h2 class="evt-title">%s</h2>`, title)
	}
	if date != "" {
		fmt.Fprintf(&b, `<span id="event-date-%d" class="date">%s</span>`, n, date)
	}
	if clock != "" {
		fmt.Fprintf(&b, `<span id="event-time-%d" class="time">%s</span>`, n, clock)
	}
	b.WriteString(`</div><div class="evt-actions">`)
	for _, l := range links {
		parts := strings.SplitN(l, "|", 3)
		for len(parts) < 3 {
			parts = append(parts, "")
		}
		if parts[2] != "" {
			fmt.Fprintf(&b, `<a href="%s" title="%s">%s</a>`, parts[0], parts[2], parts[1])
		} else {
			fmt.Fprintf(&b, `<a href="%s">%s</a>`, parts[0], parts[1])
		}
	}
	b.WriteString(`</div></li>`)
	return b.String()
}

// seatPage wraps category containers in seat selection markup
func seatPage(categories ...string) string {
	return `<html><body><form id="bestseat">` + strings.Join(categories, "\n") + `</form></body></html>`
}

// category renders one category container with the given inner markup
func category(n int, inner string) string {
	return fmt.Sprintf(`<div id="category_%d" class="category"><h2 id="seatgroup-%d">Kategorie %d</h2>%s</div>`, n, n, n, inner)
}

func testRules() Rules {
	return DefaultRules()
}
