// Package cli implements the command-line interface for staatsoper-tickets.
//
// The root command checks the live ticket shop for performances tomorrow that still have
// purchasable tickets, prints the report (text, JSON, YAML or iCalendar) and notifies the
// configured channels when something was found. The parse command runs the same
// extraction on saved pages.
package cli
