package scraper

import (
	"errors"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/staatsoper-tickets/internal/event"
	"github.com/pfrederiksen/staatsoper-tickets/internal/logger"
)

// ErrListNotFound is returned when the page has no event list or the list is empty.
// It describes a page without data, not a failure of the run.
var ErrListNotFound = errors.New("event list not found")

// UnknownTitle is used for entries without a heading
const UnknownTitle = "Unknown"

const eventListSelector = "ul#eventListUl"

var (
	dateIDPattern = regexp.MustCompile(`event-date-\d+`)
	timeIDPattern = regexp.MustCompile(`event-time-\d+`)
	eventIDInHref = regexp.MustCompile(`eventId=\d+`)
)

// Extractor finds ticket-available shows on the event list page
type Extractor struct {
	rules Rules
}

// NewExtractor creates an Extractor using the given rules
func NewExtractor(rules Rules) *Extractor {
	return &Extractor{rules: rules}
}

// ExtractEvents returns the shows on target that have a purchasable ticket action, in
// document order. Malformed entries are skipped. When the list container is missing or
// empty, an empty slice is returned together with ErrListNotFound.
func (x *Extractor) ExtractEvents(doc *goquery.Document, target event.Date) ([]event.ReportItem, error) {
	items := make([]event.ReportItem, 0)
	if doc == nil {
		return items, ErrListNotFound
	}

	list := doc.Find(eventListSelector).First()
	if list.Length() == 0 {
		return items, ErrListNotFound
	}

	entries := list.ChildrenFiltered("li")
	if entries.Length() == 0 {
		return items, ErrListNotFound
	}

	entries.Each(func(i int, li *goquery.Selection) {
		item, reason := x.extractEntry(li, target)
		if reason != "" {
			logger.Debug("Skipping list entry", logger.Fields{
				"index":  i,
				"reason": reason,
			})
			return
		}
		items = append(items, item)
	})

	return items, nil
}

// extractEntry builds the item for one list entry. A non-empty reason means the entry
// was skipped.
func (x *Extractor) extractEntry(li *goquery.Selection, target event.Date) (event.ReportItem, string) {
	container := li.Find("div[class*='evt-event']").First()
	if container.Length() == 0 {
		return event.ReportItem{}, "no event container"
	}

	title := UnknownTitle
	if h := container.Find("h2").First(); h.Length() > 0 {
		title = strippedText(h)
	}

	dateText := strippedText(matchID(container.Find("span[id]"), dateIDPattern))
	timeText := strippedText(matchID(container.Find("span[id]"), timeIDPattern))
	if dateText == "" || timeText == "" {
		return event.ReportItem{}, "missing date or time"
	}

	scheduledAt, err := event.ParseDateTime(dateText, timeText, x.rules.Location)
	if err != nil {
		return event.ReportItem{}, "unparseable date"
	}
	if event.DateOf(scheduledAt) != target {
		return event.ReportItem{}, "other date"
	}

	links := li.Find("a[href]").FilterFunction(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		return eventIDInHref.MatchString(href)
	})
	if links.Length() == 0 {
		return event.ReportItem{}, "no event links"
	}

	action := x.chooseAction(links)
	if action == nil {
		return event.ReportItem{}, "sold out"
	}

	href, _ := action.Attr("href")
	return event.ReportItem{
		Event: event.Event{
			Title:        title,
			DateText:     dateText,
			TimeText:     timeText,
			ScheduledAt:  scheduledAt,
			TicketStatus: strippedText(action),
			PurchaseURL:  x.resolveURL(href),
			EventID:      eventIDFromHref(href),
		},
		Available:  true,
		Categories: event.NewCategorySet(),
	}, ""
}

// chooseAction picks the link to buy tickets with. Links are checked in document
// order and the first link that either leads to seat selection or is not marked sold
// out wins. The second condition also accepts unrelated links such as "Info" when they
// come first; that is how the shop's markup has been read so far.
func (x *Extractor) chooseAction(links *goquery.Selection) *goquery.Selection {
	var chosen *goquery.Selection
	links.EachWithBreak(func(_ int, a *goquery.Selection) bool {
		text := strippedText(a)
		title, _ := a.Attr("title")

		if x.rules.leadsToSeatSelection(text, title) || !x.rules.isSoldOut(text, title) {
			chosen = a
			return false
		}
		return true
	})
	return chosen
}

// resolveURL makes href absolute. Root-relative links get the shop origin; anything
// that is neither root-relative nor http(s) falls back to the list page.
func (x *Extractor) resolveURL(href string) string {
	switch {
	case strings.HasPrefix(href, "/"):
		return strings.TrimRight(x.rules.Origin, "/") + href
	case strings.HasPrefix(href, "http"):
		return href
	default:
		return x.rules.ListURL
	}
}

// eventIDFromHref returns the eventId query parameter of href, or "" if absent
func eventIDFromHref(href string) string {
	if u, err := url.Parse(href); err == nil {
		if q, err := url.ParseQuery(u.RawQuery); err == nil {
			return q.Get("eventId")
		}
	}
	// Hrefs with stray escapes do not parse as URLs; read the parameter directly
	_, rest, found := strings.Cut(href, "eventId=")
	if !found {
		return ""
	}
	id, _, _ := strings.Cut(rest, "&")
	return id
}

// matchID narrows sel to the first element whose id matches pattern
func matchID(sel *goquery.Selection, pattern *regexp.Regexp) *goquery.Selection {
	return sel.FilterFunction(func(_ int, s *goquery.Selection) bool {
		id, _ := s.Attr("id")
		return pattern.MatchString(id)
	}).First()
}
