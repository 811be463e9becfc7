package telegram

import (
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pfrederiksen/staatsoper-tickets/internal/event"
)

// FormatReport formats a report as one Telegram message. Returns "" for a report
// without available events.
func FormatReport(report *event.Report) string {
	if !report.HasTickets() {
		return ""
	}

	var msg strings.Builder

	msg.WriteString(fmt.Sprintf("<b>🎫 %s</b>\n\n", Headline(report)))

	for _, item := range report.Items {
		msg.WriteString(FormatItem(item))
		msg.WriteString("\n")
	}

	return strings.TrimRight(msg.String(), "\n")
}

// now is replaced in tests
var now = time.Now

// Headline names the target date, as "Tomorrow" when it is the day after today in the
// timezone of the reported performances.
func Headline(report *event.Report) string {
	loc := time.Local
	if len(report.Items) > 0 && !report.Items[0].ScheduledAt.IsZero() {
		loc = report.Items[0].ScheduledAt.Location()
	}
	if report.TargetDate == event.Tomorrow(now(), loc) {
		return fmt.Sprintf("Tickets Available for Tomorrow (%s)!", report.TargetDate)
	}
	return fmt.Sprintf("Tickets Available on %s!", report.TargetDate)
}

// FormatItem formats a single available event
func FormatItem(item event.ReportItem) string {
	var msg strings.Builder

	msg.WriteString(fmt.Sprintf("• <b>%s</b>\n", html.EscapeString(item.Title)))
	msg.WriteString(fmt.Sprintf("  📅 %s at %s\n", html.EscapeString(item.DateText), html.EscapeString(item.TimeText)))
	msg.WriteString(fmt.Sprintf("  Status: %s\n", html.EscapeString(item.TicketStatus)))

	// Categories are only probed for events with an id
	if item.EventID != "" {
		msg.WriteString(fmt.Sprintf("  %s\n", CategoryLine(item.Categories)))
	}

	msg.WriteString(fmt.Sprintf("  <a href=\"%s\">Buy Tickets Here</a>\n", html.EscapeString(item.PurchaseURL)))

	return msg.String()
}

// CategoryLine describes the available categories of an event
func CategoryLine(cats event.CategorySet) string {
	switch len(cats) {
	case 0:
		return "Available Categories: Could not determine"
	case 1:
		return fmt.Sprintf("Available Category: %s", cats)
	default:
		return fmt.Sprintf("Available Categories: %s", cats)
	}
}

// SplitMessage splits an over-long message at line boundaries so that every part fits
// into one Telegram message. A single line longer than the limit is cut at a rune boundary.
func SplitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var parts []string
	var cur strings.Builder
	for _, line := range strings.SplitAfter(text, "\n") {
		for len(line) > limit {
			if cur.Len() > 0 {
				parts = append(parts, cur.String())
				cur.Reset()
			}
			cut := limit
			for cut > 0 && !utf8.RuneStart(line[cut]) {
				cut--
			}
			if cut == 0 {
				cut = limit
			}
			parts = append(parts, line[:cut])
			line = line[cut:]
		}
		if cur.Len()+len(line) > limit {
			parts = append(parts, cur.String())
			cur.Reset()
		}
		cur.WriteString(line)
	}
	if cur.Len() > 0 {
		parts = append(parts, cur.String())
	}
	return parts
}
