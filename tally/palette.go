// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

// palette is the fallback color cycle for options without an explicit color
var palette = [...]string{
	"#0078d4",
	"#00bcf2",
	"#8764b8",
	"#00b294",
	"#ffb900",
	"#e74856",
	"#038387",
	"#ff8c00",
	"#c239b3",
	"#498205",
}

// NPS band colors
const (
	NPSDetractorColor = "#d13438"
	NPSPassiveColor   = "#ffaa44"
	NPSPromoterColor  = "#107c10"
)

// questionColorStride offsets each question's palette start so that
// neighbouring questions do not open with the same colors.
const questionColorStride = 10

// PaletteColor returns the palette entry for index, wrapping around.
func PaletteColor(index int) string {
	n := len(palette)
	i := index % n
	if i < 0 {
		i += n
	}
	return palette[i]
}

// PaletteSize returns the number of colors in the fallback palette.
func PaletteSize() int {
	return len(palette)
}

// optionColor resolves an option's display color
func optionColor(explicit string, questionIndex, optionIndex int) string {
	if explicit != "" {
		return explicit
	}
	return PaletteColor(questionIndex*questionColorStride + optionIndex)
}

// npsColor returns the band color for an NPS score
func npsColor(score int) string {
	switch {
	case score >= 9:
		return NPSPromoterColor
	case score >= 7:
		return NPSPassiveColor
	default:
		return NPSDetractorColor
	}
}
