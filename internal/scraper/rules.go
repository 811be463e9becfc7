package scraper

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	_ "time/tzdata" // venue zone must resolve on minimal container images
)

const (
	DefaultTimezone        = "Europe/Vienna"
	DefaultOrigin          = "https://tickets.wiener-staatsoper.at"
	DefaultListPath        = "/webshop/webticket/eventlist"
	DefaultSeatURLTemplate = DefaultOrigin + "/webshop/webticket/bestseatselect?eventId=%s&upsellNo=0"
)

// Phrase is a piece of page text to look for. FoldCase makes the comparison
// case-insensitive.
type Phrase struct {
	Text     string `mapstructure:"text" yaml:"text"`
	FoldCase bool   `mapstructure:"fold_case" yaml:"fold_case"`
}

// ContainedIn reports whether the phrase occurs in s
func (p Phrase) ContainedIn(s string) bool {
	if p.Text == "" {
		return false
	}
	if p.FoldCase {
		return strings.Contains(strings.ToLower(s), strings.ToLower(p.Text))
	}
	return strings.Contains(s, p.Text)
}

// Equals reports whether s is exactly the phrase
func (p Phrase) Equals(s string) bool {
	if p.FoldCase {
		return strings.EqualFold(s, p.Text)
	}
	return s == p.Text
}

// Rules is the site-specific configuration shared by the Extractor and the Prober.
// A Rules value is not modified after construction.
type Rules struct {
	Location        *time.Location
	Origin          string // scheme and host, prefixed to root-relative links
	ListURL         string
	SeatURLTemplate string // %s is replaced by the event id

	// An action whose title attribute contains one of these leads to seat selection
	SeatSelectionTitles []Phrase
	// An action whose text equals one of these leads to seat selection
	TicketLabels []Phrase
	// Text marking an action or a category as sold out; always matched case-insensitively
	SoldOutMarkers []string
}

// DefaultRules returns the rules for the Wiener Staatsoper ticket shop
func DefaultRules() Rules {
	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		// tzdata is embedded, so this only happens on a broken build
		panic(fmt.Sprintf("loading %s: %v", DefaultTimezone, err))
	}

	return Rules{
		Location:        loc,
		Origin:          DefaultOrigin,
		ListURL:         DefaultOrigin + DefaultListPath,
		SeatURLTemplate: DefaultSeatURLTemplate,
		SeatSelectionTitles: []Phrase{
			{Text: "Platzauswahl"},
			{Text: "Weiterleitung zur Platzauswahl"},
			{Text: "seat selection", FoldCase: true},
		},
		TicketLabels: []Phrase{
			{Text: "Karten"},
			{Text: "Restkarten"},
			{Text: "tickets", FoldCase: true},
			{Text: "remaining tickets", FoldCase: true},
		},
		SoldOutMarkers: []string{"Ausverkauft", "sold out"},
	}
}

// Validate checks that the rules can drive a run
func (r Rules) Validate() error {
	if r.Location == nil {
		return fmt.Errorf("venue timezone is required")
	}
	if !strings.HasPrefix(r.Origin, "http://") && !strings.HasPrefix(r.Origin, "https://") {
		return fmt.Errorf("origin must be an absolute http(s) URL: %q", r.Origin)
	}
	if r.ListURL == "" {
		return fmt.Errorf("list URL is required")
	}
	if strings.Count(r.SeatURLTemplate, "%s") != 1 {
		return fmt.Errorf("seat URL template must contain exactly one %%s: %q", r.SeatURLTemplate)
	}
	return nil
}

// SeatURL builds the seat selection URL for an event. The id is query-escaped and
// replaces the single %s of the template; other percent signs are kept as written.
func (r Rules) SeatURL(eventID string) string {
	return strings.Replace(r.SeatURLTemplate, "%s", url.QueryEscape(eventID), 1)
}

// leadsToSeatSelection applies the seat selection phrases to an action
func (r Rules) leadsToSeatSelection(text, title string) bool {
	for _, p := range r.SeatSelectionTitles {
		if p.ContainedIn(title) {
			return true
		}
	}
	for _, p := range r.TicketLabels {
		if p.Equals(text) {
			return true
		}
	}
	return false
}

// isSoldOut reports whether any of the given texts carries a sold-out marker
func (r Rules) isSoldOut(texts ...string) bool {
	for _, marker := range r.SoldOutMarkers {
		p := Phrase{Text: marker, FoldCase: true}
		for _, s := range texts {
			if p.ContainedIn(s) {
				return true
			}
		}
	}
	return false
}
