// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"strconv"

	"github.com/dustin/go-humanize"
)

// MissingValue is rendered in place of an absent score.
const MissingValue = "–"

// FormatPercent renders a 0-100 percentage with the given number of decimals,
// e.g. FormatPercent(66.666, 1) == "66.7%".
func FormatPercent(value float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	return strconv.FormatFloat(value, 'f', decimals, 64) + "%"
}

// FormatCount renders a count with thousands separators.
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}

// FormatScore renders an optional score with up to two decimals.
func FormatScore(score *float64) string {
	if score == nil {
		return MissingValue
	}
	return humanize.FtoaWithDigits(*score, 2)
}

// FormatNPS renders an optional NPS score with an explicit sign.
func FormatNPS(score *int) string {
	if score == nil {
		return MissingValue
	}
	if *score > 0 {
		return "+" + strconv.Itoa(*score)
	}
	return strconv.Itoa(*score)
}
