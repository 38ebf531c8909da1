// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package format

import (
	"testing"
	"time"
)

func TestMessageTime(t *testing.T) {
	ts := time.Date(2025, 6, 1, 15, 4, 0, 0, time.Local).Format(time.RFC3339)
	if got := MessageTime(ts); got != "3:04 PM" {
		t.Errorf("MessageTime(%q) = %q, want %q", ts, got, "3:04 PM")
	}
}

func TestMessageTime_Invalid(t *testing.T) {
	for _, in := range []string{"", "not-a-date", "2025-13-45T99:99:99Z"} {
		if got := MessageTime(in); got != UnknownTime {
			t.Errorf("MessageTime(%q) = %q, want %q", in, got, UnknownTime)
		}
	}
}

func TestConversationDate_Recent(t *testing.T) {
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.Local)
	ts := now.Add(-2 * time.Hour).Format(time.RFC3339)

	got := conversationDateAt(ts, now)
	want := MessageTime(ts)
	if got != want {
		t.Errorf("recent conversation date = %q, want same as MessageTime %q", got, want)
	}
}

func TestConversationDate_Old(t *testing.T) {
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.Local)
	ts := time.Date(2025, 1, 15, 9, 30, 0, 0, time.Local).Format(time.RFC3339)

	if got := conversationDateAt(ts, now); got != "Jan 15" {
		t.Errorf("old conversation date = %q, want %q", got, "Jan 15")
	}
}

func TestConversationDate_Invalid(t *testing.T) {
	if got := ConversationDate("garbage"); got != UnknownTime {
		t.Errorf("ConversationDate(garbage) = %q, want %q", got, UnknownTime)
	}
}

func TestNumber(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-4200, "-4,200"},
	}

	for _, tt := range tests {
		if got := Number(tt.in); got != tt.want {
			t.Errorf("Number(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTokenCount(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1.0k"},
		{12345, "12.3k"},
	}

	for _, tt := range tests {
		if got := TokenCount(tt.in); got != tt.want {
			t.Errorf("TokenCount(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
