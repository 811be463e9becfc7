// Package notifier delivers ticket reports to the configured channels.
//
// Telegram receives the full report as one HTML message, split only when it
// exceeds the Bot API limit. Twitter receives one status per available event.
// The dry-run notifier writes what would be sent to a writer instead.
package notifier
