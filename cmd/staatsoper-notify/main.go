package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pfrederiksen/staatsoper-tickets/internal/cli"
	"github.com/pfrederiksen/staatsoper-tickets/internal/event"
	"github.com/pfrederiksen/staatsoper-tickets/internal/logger"
	"github.com/pfrederiksen/staatsoper-tickets/internal/notifier"
)

var (
	botToken     = flag.String("bot-token", os.Getenv("TELEGRAM_TOKEN"), "Telegram bot token (or env: TELEGRAM_TOKEN)")
	chatID       = flag.String("chat-id", os.Getenv("TELEGRAM_CHAT_ID"), "Telegram chat ID (or env: TELEGRAM_CHAT_ID)")
	reportFile   = flag.String("report-file", "", "Path to a JSON report written by staatsoper-tickets --format json (or read from stdin)")
	channels     = flag.String("channels", "telegram", "Comma separated channels: telegram, twitter")
	dryRun       = flag.Bool("dry-run", false, "Print messages without sending")
	maxEvents    = flag.Int("max-events", 10, "Maximum number of events to send")
	titleFilter  = flag.String("title", "", "Only send events whose title contains this text (case-insensitive)")
	withCategory = flag.Bool("with-categories", false, "Only send events with at least one known category")
)

// readReport reads a JSON report from file or stdin
func readReport(filePath string, stdin io.Reader) (*event.Report, error) {
	reader := stdin
	if filePath != "" {
		f, err := os.Open(filePath)
		if err != nil {
			return nil, fmt.Errorf("opening report file: %w", err)
		}
		defer func() {
			if err := f.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "Error closing file: %v\n", err)
			}
		}()
		reader = f
	}

	var result cli.OutputResult
	decoder := json.NewDecoder(reader)
	if err := decoder.Decode(&result); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	report := event.NewReport(result.TargetDate)
	report.ProbeFailures = result.ProbeFailures
	for _, item := range result.Events {
		if item.Available {
			report.Items = append(report.Items, item)
		}
	}
	return report, nil
}

// filterItems keeps the items matching the title and category filters, up to max
func filterItems(items []event.ReportItem, title string, needCategories bool, max int) []event.ReportItem {
	filtered := make([]event.ReportItem, 0, len(items))
	for _, item := range items {
		if title != "" && !strings.Contains(strings.ToLower(item.Title), strings.ToLower(title)) {
			continue
		}
		if needCategories && item.Categories.Empty() {
			continue
		}
		filtered = append(filtered, item)
	}
	if max > 0 && len(filtered) > max {
		filtered = filtered[:max]
	}
	return filtered
}

// buildNotifier creates the notifier for the selected channels
func buildNotifier(selected string) (notifier.Notifier, error) {
	var multi notifier.Multi
	for _, ch := range strings.Split(selected, ",") {
		switch strings.ToLower(strings.TrimSpace(ch)) {
		case "":
			continue
		case "telegram":
			if *botToken == "" {
				return nil, fmt.Errorf("bot token is required (use --bot-token or TELEGRAM_TOKEN env var)")
			}
			if *chatID == "" {
				return nil, fmt.Errorf("chat ID is required (use --chat-id or TELEGRAM_CHAT_ID env var)")
			}
			n, err := notifier.NewTelegramNotifier(*botToken, *chatID, "")
			if err != nil {
				return nil, err
			}
			multi = append(multi, n)
		case "twitter":
			n, err := notifier.NewTwitterNotifier(notifier.TwitterCredentials{
				APIKey:       os.Getenv("TWITTER_API_KEY"),
				APISecret:    os.Getenv("TWITTER_API_SECRET"),
				AccessToken:  os.Getenv("TWITTER_ACCESS_TOKEN"),
				AccessSecret: os.Getenv("TWITTER_ACCESS_SECRET"),
			})
			if err != nil {
				return nil, err
			}
			multi = append(multi, n)
		default:
			return nil, fmt.Errorf("unknown channel: %s", ch)
		}
	}
	if len(multi) == 0 {
		return nil, fmt.Errorf("no channel selected")
	}
	return multi, nil
}

func main() {
	flag.Parse()
	logger.SetDefault(logger.New(logger.LevelInfo, logger.FormatJSON, os.Stderr))

	report, err := readReport(*reportFile, os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading report: %v\n", err)
		os.Exit(1)
	}

	report.Items = filterItems(report.Items, *titleFilter, *withCategory, *maxEvents)
	if !report.HasTickets() {
		fmt.Println("No available events to send")
		os.Exit(0)
	}

	var n notifier.Notifier
	if *dryRun {
		n = notifier.NewDryRunNotifier(os.Stdout)
	} else {
		n, err = buildNotifier(*channels)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	if err := n.Notify(report); err != nil {
		fmt.Fprintf(os.Stderr, "Error sending notifications: %v\n", err)
		os.Exit(1)
	}

	if !*dryRun {
		fmt.Printf("Successfully sent %d event(s) for %s\n", len(report.Items), report.TargetDate)
	}
}
