package scraper

import (
	"context"
	"errors"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/staatsoper-tickets/internal/event"
	"github.com/pfrederiksen/staatsoper-tickets/internal/logger"
)

// BuildReport extracts the available shows on target from the event list page and
// probes the seating categories of each one that has an event id. Probes run one after
// another; a failed probe leaves that item's categories empty and does not affect the
// others. A page without an event list produces an empty report.
func BuildReport(ctx context.Context, rules Rules, doc *goquery.Document, target event.Date, fetcher Fetcher) *event.Report {
	report := event.NewReport(target)

	items, err := NewExtractor(rules).ExtractEvents(doc, target)
	if errors.Is(err, ErrListNotFound) {
		logger.Warn("Event list not found", logger.Fields{"target_date": target.String()})
		return report
	}

	logger.Info("Extracted available events", logger.Fields{
		"target_date": target.String(),
		"available":   len(items),
	})

	prober := NewProber(rules, fetcher)
	for i := range items {
		item := &items[i]
		item.Categories = event.NewCategorySet()
		if item.EventID == "" {
			continue
		}

		cats, err := prober.probe(ctx, item.EventID)
		if err != nil {
			report.ProbeFailures++
			logger.Warn("Could not determine available categories", logger.Fields{
				"event_id": item.EventID,
				"title":    item.Title,
				"error":    err.Error(),
			})
			continue
		}
		item.Categories = cats

		logger.Info("Found tickets", logger.Fields{
			"title":      item.Title,
			"time":       item.ScheduledAt.Format("15:04"),
			"event_id":   item.EventID,
			"categories": cats.String(),
		})
	}

	report.Items = items
	return report
}
