// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package format

import "strconv"

// Number formats an integer with thousand separators, e.g. 1234567 ->
// "1,234,567".
func Number(n int) string {
	if n < 0 {
		return "-" + Number(-n)
	}

	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}

	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	return string(out)
}

// TokenCount renders a token total compactly: counts below 1000 verbatim,
// larger counts as "12.3k".
func TokenCount(n int) string {
	if n < 1000 {
		return strconv.Itoa(n)
	}
	whole := n / 1000
	frac := (n % 1000) / 100
	return strconv.Itoa(whole) + "." + strconv.Itoa(frac) + "k"
}
