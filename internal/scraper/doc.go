// Package scraper turns rendered ticket shop pages into ticket availability reports.
//
// The Extractor walks the event list page, keeps the shows on a target date and decides
// for each whether a purchasable ticket action exists. The Prober fetches the seat
// selection page of an available show and reports which numbered seating categories can
// still be bought. BuildReport runs both in sequence. All matching rules (ids, phrases,
// URLs, venue timezone) come from an immutable Rules value.
package scraper
