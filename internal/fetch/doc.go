// Package fetch loads ticket shop pages as parsed HTML documents.
//
// HTTPFetcher talks to the live shop with retries, a cookie jar for the shop session and
// charset decoding. When the shop answers with its session timeout page it follows the
// "Weiter" link back into the shop once and loads the requested page again.
// DirFetcher serves saved pages from disk for offline runs.
package fetch
