package notifier

import (
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dghubble/go-twitter/twitter" //nolint:staticcheck // Using stable v1.1 API
	"github.com/dghubble/oauth1"
	"github.com/pfrederiksen/staatsoper-tickets/internal/event"
	"github.com/pfrederiksen/staatsoper-tickets/internal/logger"
)

// MaxTweetLength is the character limit of one status
const MaxTweetLength = 280

// TwitterCredentials holds the OAuth1 user context credentials
type TwitterCredentials struct {
	APIKey       string
	APISecret    string
	AccessToken  string
	AccessSecret string
}

// Complete reports whether all four credentials are set
func (c TwitterCredentials) Complete() bool {
	return c.APIKey != "" && c.APISecret != "" && c.AccessToken != "" && c.AccessSecret != ""
}

// TwitterNotifier posts one status per available event
type TwitterNotifier struct {
	client *twitter.Client
	delay  time.Duration
}

// NewTwitterNotifier creates a Twitter notifier from OAuth1 credentials
func NewTwitterNotifier(creds TwitterCredentials) (*TwitterNotifier, error) {
	if !creds.Complete() {
		return nil, fmt.Errorf("missing required Twitter credentials")
	}

	config := oauth1.NewConfig(creds.APIKey, creds.APISecret)
	token := oauth1.NewToken(creds.AccessToken, creds.AccessSecret)
	httpClient := config.Client(oauth1.NoContext, token)

	return newTwitterNotifier(httpClient, 2*time.Second), nil
}

func newTwitterNotifier(httpClient *http.Client, delay time.Duration) *TwitterNotifier {
	return &TwitterNotifier{
		client: twitter.NewClient(httpClient),
		delay:  delay,
	}
}

// Notify posts a status for each event in the report
func (n *TwitterNotifier) Notify(report *event.Report) error {
	if !report.HasTickets() {
		return nil
	}

	for i, item := range report.Items {
		tweet := formatTweet(item)

		if _, _, err := n.client.Statuses.Update(tweet, nil); err != nil {
			return fmt.Errorf("failed to post tweet for %q: %w", item.Title, err)
		}

		// Rate limiting: wait between tweets
		if i < len(report.Items)-1 && n.delay > 0 {
			time.Sleep(n.delay)
		}
	}

	logger.Info("Twitter notification sent", logger.Fields{"events": len(report.Items)})
	return nil
}

// formatTweet formats an available event as a status
func formatTweet(item event.ReportItem) string {
	var b strings.Builder
	b.WriteString("🎫 Tickets available tomorrow at the Wiener Staatsoper!\n\n")
	b.WriteString(fmt.Sprintf("🎭 %s\n", item.Title))
	b.WriteString(fmt.Sprintf("📅 %s at %s\n", item.DateText, item.TimeText))
	if !item.Categories.Empty() {
		b.WriteString(fmt.Sprintf("💺 Kategorie %s\n", item.Categories))
	}
	b.WriteString(fmt.Sprintf("\n%s", item.PurchaseURL))

	return truncate(b.String(), MaxTweetLength)
}

// truncate shortens s to at most max runes, ending with an ellipsis when cut
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-3]) + "..."
}
