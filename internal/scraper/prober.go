package scraper

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/staatsoper-tickets/internal/event"
	"github.com/pfrederiksen/staatsoper-tickets/internal/logger"
)

var (
	categoryIDPattern  = regexp.MustCompile(`^category_\d+`)
	seatGroupIDPattern = regexp.MustCompile(`^seatgroup-\d+`)
	categoryNumber     = regexp.MustCompile(`Kategorie\s+(\d+)`)
)

// Prober determines the purchasable seating categories of a show
type Prober struct {
	rules   Rules
	fetcher Fetcher
}

// NewProber creates a Prober that loads seat selection pages through fetcher
func NewProber(rules Rules, fetcher Fetcher) *Prober {
	return &Prober{rules: rules, fetcher: fetcher}
}

// ProbeCategories returns the categories of eventID that can currently be bought.
// A failed probe is logged and yields an empty set, meaning "undetermined".
func (p *Prober) ProbeCategories(ctx context.Context, eventID string) event.CategorySet {
	set, err := p.probe(ctx, eventID)
	if err != nil {
		logger.Warn("Could not determine available categories", logger.Fields{
			"event_id": eventID,
			"error":    err.Error(),
		})
		return event.NewCategorySet()
	}
	return set
}

func (p *Prober) probe(ctx context.Context, eventID string) (event.CategorySet, error) {
	if eventID == "" {
		return nil, errors.New("empty event id")
	}
	if p.fetcher == nil {
		return nil, errors.New("no fetcher configured")
	}

	seatURL := p.rules.SeatURL(eventID)
	doc, err := p.fetcher.Fetch(ctx, seatURL)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", seatURL, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("fetching %s: empty document", seatURL)
	}

	return p.ParseCategories(doc), nil
}

// ParseCategories reads the purchasable category numbers from a seat selection page.
// A category counts when it is not marked sold out and at least one enabled, visible
// number input allows selecting more than zero seats.
func (p *Prober) ParseCategories(doc *goquery.Document) event.CategorySet {
	var nums []int

	doc.Find("div[id]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		id, _ := s.Attr("id")
		return categoryIDPattern.MatchString(id)
	}).Each(func(_ int, cat *goquery.Selection) {
		n, ok := categoryHeading(cat)
		if !ok {
			return
		}
		if p.categorySoldOut(cat) {
			return
		}
		if hasSelectableInput(cat) {
			nums = append(nums, n)
		}
	})

	return event.NewCategorySet(nums...)
}

// categoryHeading reads n from the "Kategorie n" heading of a category container
func categoryHeading(cat *goquery.Selection) (int, bool) {
	h := matchID(cat.Find("h2[id]"), seatGroupIDPattern)
	if h.Length() == 0 {
		return 0, false
	}
	m := categoryNumber.FindStringSubmatch(strippedText(h))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

func (p *Prober) categorySoldOut(cat *goquery.Selection) bool {
	soldOut := false
	cat.Find("span").EachWithBreak(func(_ int, span *goquery.Selection) bool {
		soldOut = p.rules.isSoldOut(strippedText(span))
		return !soldOut
	})
	return soldOut
}

func hasSelectableInput(cat *goquery.Selection) bool {
	found := false
	cat.Find("input[type='number']").EachWithBreak(func(_ int, in *goquery.Selection) bool {
		_, disabled := in.Attr("disabled")
		if hidden, _ := in.Attr("aria-hidden"); hidden == "true" {
			disabled = true
		}
		found = !disabled && maxSelectable(in) > 0
		return !found
	})
	return found
}

// maxSelectable reads data-max; missing or malformed values count as zero
func maxSelectable(in *goquery.Selection) int {
	raw, ok := in.Attr("data-max")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return n
}
