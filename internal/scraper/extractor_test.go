package scraper

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestExtractEvents_Scenarios(t *testing.T) {
	const seatHref = "/webshop/webticket/selectseat?eventId=4711"

	tests := []struct {
		name       string
		html       string
		wantCount  int
		wantErr    error
		wantStatus string
		wantID     string
		wantURL    string
	}{
		{
			name:       "tickets tomorrow",
			html:       listPage(listEntry(1, "Tosca", "Di. 20.10.2026", "19:00", seatHref+"|Tickets")),
			wantCount:  1,
			wantStatus: "Tickets",
			wantID:     "4711",
			wantURL:    "https://tickets.wiener-staatsoper.at" + seatHref,
		},
		{
			name:      "sold out tomorrow",
			html:      listPage(listEntry(1, "Tosca", "Di. 20.10.2026", "19:00", seatHref+"|Ausverkauft")),
			wantCount: 0,
		},
		{
			name:      "day after tomorrow",
			html:      listPage(listEntry(1, "Tosca", "Mi. 21.10.2026", "19:00", seatHref+"|Tickets")),
			wantCount: 0,
		},
		{
			name:      "malformed date",
			html:      listPage(listEntry(1, "Tosca", "not-a-date", "19:00", seatHref+"|Tickets")),
			wantCount: 0,
		},
		{
			name:      "missing time",
			html:      listPage(listEntry(1, "Tosca", "Di. 20.10.2026", "", seatHref+"|Tickets")),
			wantCount: 0,
		},
		{
			name:      "no event links",
			html:      listPage(listEntry(1, "Tosca", "Di. 20.10.2026", "19:00", "/webshop/webticket/info|Info")),
			wantCount: 0,
		},
		{
			name:       "restkarten with absolute href",
			html:       listPage(listEntry(1, "Aida", "20.10.2026", "18:30", "https://other.example.com/selectseat?eventId=99&upsellNo=0|Restkarten")),
			wantCount:  1,
			wantStatus: "Restkarten",
			wantID:     "99",
			wantURL:    "https://other.example.com/selectseat?eventId=99&upsellNo=0",
		},
		{
			name:       "relative href falls back to list page",
			html:       listPage(listEntry(1, "Aida", "20.10.2026", "18:30", "selectseat?eventId=12|Karten")),
			wantCount:  1,
			wantStatus: "Karten",
			wantID:     "12",
			wantURL:    "https://tickets.wiener-staatsoper.at/webshop/webticket/eventlist",
		},
		{
			name:    "missing list",
			html:    `<html><body><p>Wartungsarbeiten</p></body></html>`,
			wantErr: ErrListNotFound,
		},
		{
			name:    "empty list",
			html:    listPage(),
			wantErr: ErrListNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := NewExtractor(testRules())
			items, err := x.ExtractEvents(parseHTML(t, tt.html), tomorrow)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ExtractEvents() error = %v, want %v", err, tt.wantErr)
				}
				if items == nil || len(items) != 0 {
					t.Errorf("ExtractEvents() items = %v, want empty non-nil slice", items)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractEvents() unexpected error: %v", err)
			}
			if len(items) != tt.wantCount {
				t.Fatalf("ExtractEvents() returned %d items, want %d", len(items), tt.wantCount)
			}
			if tt.wantCount == 0 {
				return
			}

			item := items[0]
			if !item.Available {
				t.Error("item should be available")
			}
			if item.TicketStatus != tt.wantStatus {
				t.Errorf("TicketStatus = %q, want %q", item.TicketStatus, tt.wantStatus)
			}
			if item.EventID != tt.wantID {
				t.Errorf("EventID = %q, want %q", item.EventID, tt.wantID)
			}
			if item.PurchaseURL != tt.wantURL {
				t.Errorf("PurchaseURL = %q, want %q", item.PurchaseURL, tt.wantURL)
			}
			if !item.Categories.Empty() {
				t.Errorf("Categories = %v, want empty before probing", item.Categories)
			}
		})
	}
}

func TestExtractEvents_Fields(t *testing.T) {
	html := listPage(listEntry(7, " La Bohème ", "Di. 20.10.2026", "19:30",
		"/webshop/webticket/selectseat?eventId=4711|Tickets"))

	items, err := NewExtractor(testRules()).ExtractEvents(parseHTML(t, html), tomorrow)
	if err != nil {
		t.Fatalf("ExtractEvents() error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}

	item := items[0]
	if item.Title != "La Bohème" {
		t.Errorf("Title = %q, want %q", item.Title, "La Bohème")
	}
	if item.DateText != "Di. 20.10.2026" || item.TimeText != "19:30" {
		t.Errorf("DateText/TimeText = %q/%q", item.DateText, item.TimeText)
	}

	loc := testRules().Location
	want := time.Date(2026, time.October, 20, 19, 30, 0, 0, loc)
	if !item.ScheduledAt.Equal(want) {
		t.Errorf("ScheduledAt = %v, want %v", item.ScheduledAt, want)
	}
}

func TestExtractEvents_UnknownTitle(t *testing.T) {
	html := listPage(listEntry(1, "", "20.10.2026", "19:00", "/x?eventId=1|Tickets"))

	items, _ := NewExtractor(testRules()).ExtractEvents(parseHTML(t, html), tomorrow)
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	if items[0].Title != UnknownTitle {
		t.Errorf("Title = %q, want %q", items[0].Title, UnknownTitle)
	}
}

func TestExtractEvents_EntryWithoutContainer(t *testing.T) {
	html := listPage(
		`<li class="separator"><span id="event-date-1">20.10.2026</span><span id="event-time-1">19:00</span><a href="/x?eventId=1">Tickets</a></li>`,
		listEntry(2, "Carmen", "20.10.2026", "19:00", "/x?eventId=2|Tickets"),
	)

	items, err := NewExtractor(testRules()).ExtractEvents(parseHTML(t, html), tomorrow)
	if err != nil {
		t.Fatalf("ExtractEvents() error: %v", err)
	}
	if len(items) != 1 || items[0].EventID != "2" {
		t.Errorf("ExtractEvents() = %+v, want only event 2", items)
	}
}

func TestExtractEvents_ActionChoice(t *testing.T) {
	tests := []struct {
		name       string
		links      []string
		wantCount  int
		wantStatus string
		wantID     string
	}{
		{
			name:       "seat selection title wins",
			links:      []string{"/x?eventId=1|Zur Buchung|Weiterleitung zur Platzauswahl"},
			wantCount:  1,
			wantStatus: "Zur Buchung",
			wantID:     "1",
		},
		{
			name:       "english seat selection title",
			links:      []string{"/x?eventId=2|Book|Go to SEAT SELECTION"},
			wantCount:  1,
			wantStatus: "Book",
			wantID:     "2",
		},
		{
			name:       "sold out link skipped for later ticket link",
			links:      []string{"/x?eventId=3|Ausverkauft", "/x?eventId=4|Restkarten"},
			wantCount:  1,
			wantStatus: "Restkarten",
			wantID:     "4",
		},
		{
			name:       "first non sold out link wins over later ticket link",
			links:      []string{"/x?eventId=5|Info", "/x?eventId=6|Karten"},
			wantCount:  1,
			wantStatus: "Info",
			wantID:     "5",
		},
		{
			name:      "sold out in title",
			links:     []string{"/x?eventId=7|Tickets (Warteliste)|Sold out"},
			wantCount: 0,
		},
		{
			name:      "sold out any case",
			links:     []string{"/x?eventId=8|SOLD OUT", "/x?eventId=9|ausverkauft"},
			wantCount: 0,
		},
		{
			name:       "seat selection phrase beats sold out marker",
			links:      []string{"/x?eventId=10|Ausverkauft|Platzauswahl"},
			wantCount:  1,
			wantStatus: "Ausverkauft",
			wantID:     "10",
		},
		{
			name:       "links without numeric event id ignored",
			links:      []string{"/x?eventId=abc|Tickets", "/x?eventId=11|Tickets"},
			wantCount:  1,
			wantStatus: "Tickets",
			wantID:     "11",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html := listPage(listEntry(1, "Don Giovanni", "20.10.2026", "19:00", tt.links...))
			items, err := NewExtractor(testRules()).ExtractEvents(parseHTML(t, html), tomorrow)
			if err != nil {
				t.Fatalf("ExtractEvents() error: %v", err)
			}
			if len(items) != tt.wantCount {
				t.Fatalf("got %d items, want %d", len(items), tt.wantCount)
			}
			if tt.wantCount == 0 {
				return
			}
			if items[0].TicketStatus != tt.wantStatus {
				t.Errorf("TicketStatus = %q, want %q", items[0].TicketStatus, tt.wantStatus)
			}
			if items[0].EventID != tt.wantID {
				t.Errorf("EventID = %q, want %q", items[0].EventID, tt.wantID)
			}
		})
	}
}

func TestExtractEvents_DateFilter(t *testing.T) {
	dates := []string{
		"Mo. 19.10.2026",
		"Di. 20.10.2026",
		"Mi. 21.10.2026",
		"20.10.2025",
		"20.11.2026",
		"Di. 20.10.2026",
	}

	entries := make([]string, 0, len(dates))
	for i, d := range dates {
		entries = append(entries, listEntry(i, "Show", d, "19:00", "/x?eventId=1|Tickets"))
	}

	items, err := NewExtractor(testRules()).ExtractEvents(parseHTML(t, listPage(entries...)), tomorrow)
	if err != nil {
		t.Fatalf("ExtractEvents() error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	for _, item := range items {
		if got := item.ScheduledAt; got.Year() != 2026 || got.Month() != time.October || got.Day() != 20 {
			t.Errorf("item scheduled %v is not on the target date", got)
		}
	}
}

func TestExtractEvents_DocumentOrder(t *testing.T) {
	html := listPage(
		listEntry(1, "Late Show", "20.10.2026", "21:00", "/x?eventId=1|Tickets"),
		listEntry(2, "Matinee", "20.10.2026", "11:00", "/x?eventId=2|Tickets"),
		listEntry(3, "Evening", "20.10.2026", "19:00", "/x?eventId=3|Tickets"),
	)

	items, err := NewExtractor(testRules()).ExtractEvents(parseHTML(t, html), tomorrow)
	if err != nil {
		t.Fatalf("ExtractEvents() error: %v", err)
	}

	var ids []string
	for _, item := range items {
		ids = append(ids, item.EventID)
	}
	if want := []string{"1", "2", "3"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("event order = %v, want %v", ids, want)
	}
}

func TestExtractEvents_Idempotent(t *testing.T) {
	html := listPage(
		listEntry(1, "Tosca", "20.10.2026", "19:00", "/x?eventId=1|Tickets"),
		listEntry(2, "Aida", "20.10.2026", "20:00", "/x?eventId=2|Ausverkauft"),
		listEntry(3, "Carmen", "20.10.2026", "18:00", "/x?eventId=3|Restkarten"),
	)
	doc := parseHTML(t, html)
	x := NewExtractor(testRules())

	first, err := x.ExtractEvents(doc, tomorrow)
	if err != nil {
		t.Fatalf("first ExtractEvents() error: %v", err)
	}
	second, err := x.ExtractEvents(doc, tomorrow)
	if err != nil {
		t.Fatalf("second ExtractEvents() error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("ExtractEvents() not idempotent:\n%+v\n%+v", first, second)
	}
}

func TestExtractEvents_AlternateRules(t *testing.T) {
	rules := testRules()
	rules.SoldOutMarkers = []string{"Complet"}
	rules.Origin = "https://tickets.example.com/"

	html := listPage(
		listEntry(1, "Werther", "20.10.2026", "19:00", "/x?eventId=1|Complet"),
		listEntry(2, "Manon", "20.10.2026", "19:00", "/x?eventId=2|Ausverkauft"),
	)

	items, err := NewExtractor(rules).ExtractEvents(parseHTML(t, html), tomorrow)
	if err != nil {
		t.Fatalf("ExtractEvents() error: %v", err)
	}
	if len(items) != 1 || items[0].EventID != "2" {
		t.Fatalf("ExtractEvents() = %+v, want only event 2", items)
	}
	if items[0].PurchaseURL != "https://tickets.example.com/x?eventId=2" {
		t.Errorf("PurchaseURL = %q", items[0].PurchaseURL)
	}
}

func TestEventIDFromHref(t *testing.T) {
	tests := []struct {
		href string
		want string
	}{
		{"/webshop/webticket/selectseat?eventId=4711", "4711"},
		{"/webshop/webticket/selectseat?eventId=4711&upsellNo=0", "4711"},
		{"https://tickets.example.com/seat?upsellNo=0&eventId=12", "12"},
		{"/shop?eventId=12%zz&x=1", "12%zz"},
		{"/shop?other=1", ""},
		{"/x?ref=eventId=5", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			if got := eventIDFromHref(tt.href); got != tt.want {
				t.Errorf("eventIDFromHref(%q) = %q, want %q", tt.href, got, tt.want)
			}
		})
	}
}

func TestStrippedText(t *testing.T) {
	doc := parseHTML(t, `<a id="a"> Karten
		<span> ab 10 EUR </span><!-- hidden --></a>`)

	if got := strippedText(doc.Find("#a")); got != "Kartenab 10 EUR" {
		t.Errorf("strippedText() = %q, want %q", got, "Kartenab 10 EUR")
	}
}
