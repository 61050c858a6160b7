// Package terminal provides terminal detection and sizing utilities.
package terminal

import (
	"strings"

	"golang.org/x/term"
)

// FallbackWidth is used when the output is not a terminal or its size is unknown.
const FallbackWidth = 80

const (
	bannerMargin   = 32
	minBannerWidth = 20
)

// File is the subset of *os.File needed to probe a terminal.
type File interface {
	Fd() uintptr
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f File) bool {
	if f == nil {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Width returns the column count of the terminal behind f, or FallbackWidth.
func Width(f File) int {
	if !IsTerminal(f) {
		return FallbackWidth
	}
	cols, _, err := term.GetSize(int(f.Fd()))
	if err != nil || cols <= 0 {
		return FallbackWidth
	}
	return cols
}

// BannerWidth returns the rule width for summary output on a terminal of cols columns.
func BannerWidth(cols int) int {
	width := cols - bannerMargin
	if width < minBannerWidth {
		return minBannerWidth
	}
	return width
}

// Rule returns a horizontal rule of width dashes.
func Rule(width int) string {
	if width <= 0 {
		return ""
	}
	return strings.Repeat("-", width)
}
