// Package state keeps per-user conversation state for multi-step Telegram
// flows. Sessions expire after a period of inactivity.
package state
