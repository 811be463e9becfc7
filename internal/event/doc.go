// Package event provides the types describing performances found on the ticket shop.
//
// An Event is a single show extracted from the event list page. A ReportItem pairs an
// Event with the seating categories that were found purchasable for it, and a Report is
// the ordered result of one run. The package also parses the shop's German date and time
// labels into venue-local instants.
package event
