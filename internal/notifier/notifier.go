package notifier

import (
	"github.com/pfrederiksen/staatsoper-tickets/internal/event"
)

// Notifier defines the interface for delivering a ticket report
type Notifier interface {
	// Notify delivers the report. Implementations do nothing for a report
	// without available events.
	Notify(report *event.Report) error
}
