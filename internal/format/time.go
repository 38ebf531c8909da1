// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package format converts backend timestamps and numbers into the display
// strings used across the TUI. All functions are pure and never panic on
// malformed input.
package format

import "time"

// UnknownTime is returned for timestamps that cannot be parsed.
const UnknownTime = "Unknown time"

// recentWindow is the age under which a conversation shows a clock time
// instead of a calendar date.
const recentWindow = 24 * time.Hour

// acceptedLayouts are the timestamp layouts the backend is known to emit.
var acceptedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// parseTimestamp tries each accepted layout in order.
func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range acceptedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// MessageTime formats a message timestamp as a clock time, e.g. "3:04 PM".
// Unparseable input yields UnknownTime.
func MessageTime(ts string) string {
	t, ok := parseTimestamp(ts)
	if !ok {
		return UnknownTime
	}
	return t.Local().Format("3:04 PM")
}

// ConversationDate formats a conversation timestamp for the history list:
// timestamps under 24 hours old render exactly like MessageTime, older ones
// render as "month day" (e.g. "Jan 2"), and unparseable input yields
// UnknownTime.
func ConversationDate(ts string) string {
	return conversationDateAt(ts, time.Now())
}

// conversationDateAt is ConversationDate with an injectable clock for tests.
func conversationDateAt(ts string, now time.Time) string {
	t, ok := parseTimestamp(ts)
	if !ok {
		return UnknownTime
	}
	if now.Sub(t) < recentWindow {
		return t.Local().Format("3:04 PM")
	}
	return t.Local().Format("Jan 2")
}
