package event

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Event represents a performance listed on the ticket shop
type Event struct {
	Title        string    `json:"title" yaml:"title"`
	DateText     string    `json:"date_text" yaml:"date_text"`
	TimeText     string    `json:"time_text" yaml:"time_text"`
	ScheduledAt  time.Time `json:"scheduled_at" yaml:"scheduled_at"`
	TicketStatus string    `json:"ticket_status" yaml:"ticket_status"` // Label of the chosen action, e.g. "Restkarten"
	PurchaseURL  string    `json:"purchase_url" yaml:"purchase_url"`
	EventID      string    `json:"event_id,omitempty" yaml:"event_id,omitempty"`
}

// CategorySet is an ascending list of distinct seating category numbers
type CategorySet []int

// NewCategorySet builds a CategorySet from numbers in any order.
// Duplicates and non-positive numbers are dropped.
func NewCategorySet(nums ...int) CategorySet {
	seen := make(map[int]bool, len(nums))
	set := make(CategorySet, 0, len(nums))
	for _, n := range nums {
		if n <= 0 || seen[n] {
			continue
		}
		seen[n] = true
		set = append(set, n)
	}
	sort.Ints(set)
	return set
}

// Empty reports whether no category was determined
func (c CategorySet) Empty() bool {
	return len(c) == 0
}

// String joins the category numbers as "1, 3, 5"
func (c CategorySet) String() string {
	parts := make([]string, len(c))
	for i, n := range c {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}

// ReportItem is an available event together with its purchasable categories.
// An empty Categories set means the categories could not be determined.
type ReportItem struct {
	Event      `yaml:",inline"`
	Available  bool        `json:"available" yaml:"available"`
	Categories CategorySet `json:"categories" yaml:"categories"`
}

// Report is the result of one run for a single target date
type Report struct {
	TargetDate    Date         `json:"target_date" yaml:"target_date"`
	Items         []ReportItem `json:"items" yaml:"items"`
	ProbeFailures int          `json:"probe_failures" yaml:"probe_failures"`
}

// NewReport creates an empty report for the given date
func NewReport(target Date) *Report {
	return &Report{
		TargetDate: target,
		Items:      make([]ReportItem, 0),
	}
}

// HasTickets reports whether any event with available tickets was found
func (r *Report) HasTickets() bool {
	return r != nil && len(r.Items) > 0
}
