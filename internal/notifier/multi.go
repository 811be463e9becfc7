package notifier

import (
	"errors"

	"github.com/pfrederiksen/staatsoper-tickets/internal/event"
)

// Multi fans a report out to several notifiers. Every notifier is tried; the
// errors are joined.
type Multi []Notifier

// Notify delivers the report to every notifier
func (m Multi) Notify(report *event.Report) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(report); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
