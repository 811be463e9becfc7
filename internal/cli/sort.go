package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pfrederiksen/staatsoper-tickets/internal/event"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByList  SortOrder = "list"
	SortByTime  SortOrder = "time"
	SortByTitle SortOrder = "title"
)

// ParseSortOrder validates a --sort value
func ParseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(s); o {
	case SortByList, SortByTime, SortByTitle:
		return o, nil
	default:
		return "", fmt.Errorf("invalid sort order: %s (must be 'list', 'time' or 'title')", s)
	}
}

// sortItems orders report items for display. SortByList keeps the order of the event
// list page. The sort is stable so equal keys keep page order.
func sortItems(items []event.ReportItem, order SortOrder) {
	switch order {
	case SortByTime:
		sort.SliceStable(items, func(i, j int) bool {
			return compareByTime(items[i], items[j])
		})
	case SortByTitle:
		sort.SliceStable(items, func(i, j int) bool {
			ti, tj := strings.ToLower(items[i].Title), strings.ToLower(items[j].Title)
			if ti != tj {
				return ti < tj
			}
			// If titles are equal, sort by time
			return compareByTime(items[i], items[j])
		})
	}
}

// compareByTime returns true if item i starts before item j.
// Items with a start time come before items without one.
func compareByTime(i, j event.ReportItem) bool {
	if !i.ScheduledAt.IsZero() && !j.ScheduledAt.IsZero() {
		return i.ScheduledAt.Before(j.ScheduledAt)
	}
	return !i.ScheduledAt.IsZero() && j.ScheduledAt.IsZero()
}
