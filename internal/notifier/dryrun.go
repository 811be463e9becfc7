package notifier

import (
	"fmt"
	"io"
	"os"

	"github.com/pfrederiksen/staatsoper-tickets/internal/event"
	"github.com/pfrederiksen/staatsoper-tickets/internal/telegram"
)

// DryRunNotifier prints what would be sent without contacting any service
type DryRunNotifier struct {
	w io.Writer
}

// NewDryRunNotifier creates a new dry-run notifier writing to w, or stdout when w is nil
func NewDryRunNotifier(w io.Writer) *DryRunNotifier {
	if w == nil {
		w = os.Stdout
	}
	return &DryRunNotifier{w: w}
}

// Notify prints the messages that would be posted
func (n *DryRunNotifier) Notify(report *event.Report) error {
	msg := telegram.FormatReport(report)
	if msg == "" {
		return nil
	}

	parts := telegram.SplitMessage(msg, telegram.MaxMessageLength)
	for i, part := range parts {
		if _, err := fmt.Fprintf(n.w, "--- Message %d/%d ---\n%s\n\n(Length: %d characters)\n\n", i+1, len(parts), part, len(part)); err != nil {
			return fmt.Errorf("writing dry-run output: %w", err)
		}
	}
	return nil
}
