// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package form

import (
	"net/mail"
	"strings"
)

// Validation messages shown next to the offending field.
const (
	msgEmailRequired = "Email is required"
	msgEmailInvalid  = "Enter a valid email address"
)

// ValidateEmail checks an email address locally, before any network
// call. Returns an empty string when valid, otherwise the field error
// message.
//
// The check is intentionally stricter than RFC 5322: display names,
// comments, and dotless domains all fail, because the backend would
// reject them anyway and a local rejection saves the round trip.
func ValidateEmail(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return msgEmailRequired
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return msgEmailInvalid
	}

	at := strings.LastIndex(email, "@")
	domain := email[at+1:]
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return msgEmailInvalid
	}

	return ""
}
