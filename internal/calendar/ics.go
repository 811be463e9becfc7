// Package calendar renders available performances as an iCalendar feed.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pfrederiksen/staatsoper-tickets/internal/event"
)

// DefaultDuration is used as the length of a performance, the list page has no end time
const DefaultDuration = 3 * time.Hour

const uidDomain = "tickets.wiener-staatsoper.at"

// GenerateICS generates an iCalendar (.ics) document with one VEVENT per item.
// Items without a parsed start time are skipped.
func GenerateICS(items []event.ReportItem, now time.Time) string {
	var ics strings.Builder

	ics.WriteString("BEGIN:VCALENDAR\r\n")
	ics.WriteString("VERSION:2.0\r\n")
	ics.WriteString("PRODID:-//Staatsoper Tickets//staatsoper-tickets//EN\r\n")
	ics.WriteString("CALSCALE:GREGORIAN\r\n")
	ics.WriteString("METHOD:PUBLISH\r\n")

	for _, item := range items {
		if item.ScheduledAt.IsZero() {
			continue
		}
		writeEvent(&ics, item, now)
	}

	ics.WriteString("END:VCALENDAR\r\n")

	return ics.String()
}

func writeEvent(ics *strings.Builder, item event.ReportItem, now time.Time) {
	ics.WriteString("BEGIN:VEVENT\r\n")
	ics.WriteString(fmt.Sprintf("UID:%s\r\n", eventUID(item)))
	ics.WriteString(fmt.Sprintf("DTSTAMP:%s\r\n", formatICSTime(now)))
	ics.WriteString(fmt.Sprintf("DTSTART:%s\r\n", formatICSTime(item.ScheduledAt)))
	ics.WriteString(fmt.Sprintf("DTEND:%s\r\n", formatICSTime(item.ScheduledAt.Add(DefaultDuration))))
	ics.WriteString(fmt.Sprintf("SUMMARY:%s\r\n", escapeICS(item.Title)))

	description := fmt.Sprintf("Status: %s", item.TicketStatus)
	if item.EventID != "" {
		if item.Categories.Empty() {
			description += "\nCategories: could not determine"
		} else {
			description += fmt.Sprintf("\nCategories: %s", item.Categories)
		}
	}
	description += fmt.Sprintf("\n\nBuy tickets: %s", item.PurchaseURL)
	ics.WriteString(fmt.Sprintf("DESCRIPTION:%s\r\n", escapeICS(description)))

	ics.WriteString("LOCATION:Wiener Staatsoper\\, Opernring 2\\, 1010 Wien\r\n")
	ics.WriteString(fmt.Sprintf("URL:%s\r\n", item.PurchaseURL))
	ics.WriteString("STATUS:CONFIRMED\r\n")
	ics.WriteString("TRANSP:OPAQUE\r\n")
	ics.WriteString("END:VEVENT\r\n")
}

// eventUID is stable across runs: the shop's event id when known, otherwise a
// name based UUID of the entry.
func eventUID(item event.ReportItem) string {
	if item.EventID != "" {
		return fmt.Sprintf("%s@%s", item.EventID, uidDomain)
	}
	name := strings.Join([]string{item.Title, item.DateText, item.TimeText, item.PurchaseURL}, "|")
	return fmt.Sprintf("%s@%s", uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)), uidDomain)
}

// formatICSTime formats a time.Time as an iCalendar datetime string
func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// escapeICS escapes special characters for iCalendar format
func escapeICS(s string) string {
	// Replace special characters according to RFC 5545
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
