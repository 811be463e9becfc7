package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pfrederiksen/staatsoper-tickets/internal/calendar"
	"github.com/pfrederiksen/staatsoper-tickets/internal/event"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatYAML OutputFormat = "yaml"
	FormatICS  OutputFormat = "ics"
)

// ParseOutputFormat validates a --format value
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(s); f {
	case FormatText, FormatJSON, FormatYAML, FormatICS:
		return f, nil
	default:
		return "", fmt.Errorf("invalid format: %s (must be 'text', 'json', 'yaml' or 'ics')", s)
	}
}

// OutputResult contains data to be output
type OutputResult struct {
	RunID         string             `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	CheckedAt     time.Time          `json:"checked_at" yaml:"checked_at"`
	TargetDate    event.Date         `json:"target_date" yaml:"target_date"`
	Events        []event.ReportItem `json:"events" yaml:"events"`
	EventCount    int                `json:"event_count" yaml:"event_count"`
	ProbeFailures int                `json:"probe_failures" yaml:"probe_failures"`
}

// NewOutputResult wraps a report for output
func NewOutputResult(report *event.Report, runID string, checkedAt time.Time) *OutputResult {
	return &OutputResult{
		RunID:         runID,
		CheckedAt:     checkedAt.UTC(),
		TargetDate:    report.TargetDate,
		Events:        append([]event.ReportItem{}, report.Items...),
		EventCount:    len(report.Items),
		ProbeFailures: report.ProbeFailures,
	}
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatYAML:
		return writeYAML(w, result)
	case FormatICS:
		_, err := io.WriteString(w, calendar.GenerateICS(result.Events, result.CheckedAt))
		return err
	case FormatText:
		return writeText(w, result)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result *OutputResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func writeYAML(w io.Writer, result *OutputResult) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(result); err != nil {
		return err
	}
	return encoder.Close()
}

// writeText outputs results as human-readable text
func writeText(w io.Writer, result *OutputResult) error {
	if result.EventCount == 0 {
		_, err := fmt.Fprintf(w, "No tickets available for %s.\n", result.TargetDate)
		return err
	}

	fmt.Fprintf(w, "Tickets available for %s:\n", result.TargetDate)
	for _, item := range result.Events {
		fmt.Fprintf(w, "\n  %s\n", item.Title)
		fmt.Fprintf(w, "    %s at %s (%s)\n", item.DateText, item.TimeText, item.TicketStatus)
		if item.EventID != "" {
			if item.Categories.Empty() {
				fmt.Fprintln(w, "    Categories: could not determine")
			} else {
				fmt.Fprintf(w, "    Categories: %s\n", item.Categories)
			}
		}
		fmt.Fprintf(w, "    %s\n", item.PurchaseURL)
	}

	_, err := fmt.Fprintf(w, "\nTotal: %d events\n", result.EventCount)
	return err
}
