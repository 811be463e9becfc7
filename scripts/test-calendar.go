package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pfrederiksen/staatsoper-tickets/internal/calendar"
	"github.com/pfrederiksen/staatsoper-tickets/internal/event"
	"github.com/pfrederiksen/staatsoper-tickets/internal/scraper"
)

func main() {
	rules := scraper.DefaultRules()
	target := event.Tomorrow(time.Now(), rules.Location)

	// A sample performance tomorrow evening
	dateText := target.String()
	start, err := event.ParseDateTime(dateText, "19:00", rules.Location)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building sample: %v\n", err)
		os.Exit(1)
	}
	items := []event.ReportItem{{
		Event: event.Event{
			Title:        "Tosca",
			DateText:     dateText,
			TimeText:     "19:00",
			ScheduledAt:  start,
			TicketStatus: "Karten",
			PurchaseURL:  rules.SeatURL("4711"),
			EventID:      "4711",
		},
		Available:  true,
		Categories: event.NewCategorySet(3, 5),
	}}

	icsContent := calendar.GenerateICS(items, time.Now())

	// Write to file (owner read/write only for security)
	filename := "test-staatsoper-event.ics"
	if err := os.WriteFile(filename, []byte(icsContent), 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Generated calendar file: %s\n\n", filename)
	fmt.Println("Test it by:")
	fmt.Println("1. Open the .ics file with your calendar app (double-click)")
	fmt.Println("2. Or import it into Google Calendar, Apple Calendar, or Outlook")
	fmt.Println("\nFile contents preview:")
	fmt.Println("---")
	fmt.Println(icsContent)
}
