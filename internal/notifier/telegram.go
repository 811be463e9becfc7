package notifier

import (
	"fmt"

	"github.com/pfrederiksen/staatsoper-tickets/internal/event"
	"github.com/pfrederiksen/staatsoper-tickets/internal/logger"
	"github.com/pfrederiksen/staatsoper-tickets/internal/telegram"
)

// MessageSender is the part of the Telegram client the notifier needs
type MessageSender interface {
	SendMessage(text string) error
}

// TelegramNotifier sends the report to a Telegram chat
type TelegramNotifier struct {
	sender MessageSender
}

// NewTelegramNotifier creates a notifier for the given bot token and chat. apiURL
// selects a self-hosted Bot API server; empty means api.telegram.org.
func NewTelegramNotifier(token, chatID, apiURL string) (*TelegramNotifier, error) {
	client, err := telegram.NewClient(token, chatID)
	if err != nil {
		return nil, fmt.Errorf("creating telegram client: %w", err)
	}
	return &TelegramNotifier{sender: client.WithBaseURL(apiURL)}, nil
}

// NewTelegramNotifierWithSender wraps an existing sender
func NewTelegramNotifierWithSender(sender MessageSender) *TelegramNotifier {
	return &TelegramNotifier{sender: sender}
}

// Notify formats the report and sends it
func (n *TelegramNotifier) Notify(report *event.Report) error {
	msg := telegram.FormatReport(report)
	if msg == "" {
		return nil
	}

	parts := telegram.SplitMessage(msg, telegram.MaxMessageLength)
	for i, part := range parts {
		if err := n.sender.SendMessage(part); err != nil {
			return fmt.Errorf("sending telegram message %d/%d: %w", i+1, len(parts), err)
		}
	}

	logger.Info("Telegram notification sent", logger.Fields{
		"events":   len(report.Items),
		"messages": len(parts),
	})
	return nil
}
