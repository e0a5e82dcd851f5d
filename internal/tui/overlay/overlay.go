// Package overlay composites one block of styled terminal output on top
// of another. letdrop floats the alert dialog over the three space
// layout with it, the spaces underneath keep rendering as they are.
package overlay

import (
	"github.com/charmbracelet/x/ansi"
	"regexp"
	"strings"
)

var sgrRegexp = regexp.MustCompile(`\x1b[[\d;]*m`)

// Center draws fg over the middle of bg and returns the combined block.
// Both blocks may carry ANSI styling, the background's styling resumes
// to the right of the overlay. A foreground larger than the background
// is clipped at the background's edges.
func Center(bg, fg string) string {
	bgLines := strings.Split(bg, "\n")
	fgLines := strings.Split(fg, "\n")

	bgW := blockWidth(bgLines)
	left := centered(bgW - blockWidth(fgLines))
	top := centered(len(bgLines) - len(fgLines))

	out := make([]string, len(bgLines))
	copy(out, bgLines)
	for i, line := range out {
		if w := ansi.StringWidth(line); w < bgW {
			out[i] = line + strings.Repeat(" ", bgW-w)
		}
	}

	for i, fgLine := range fgLines {
		row := top + i
		if row < 0 || row >= len(out) {
			continue
		}
		bgLine := out[row]
		if w := ansi.StringWidth(bgLine); w < left {
			bgLine += strings.Repeat(" ", left-w)
		}
		head := ansi.Truncate(bgLine, left, "")
		tail := cutLeft(bgLine, left+ansi.StringWidth(fgLine))
		out[row] = head + fgLine + tail
	}

	return strings.Join(out, "\n")
}

func blockWidth(lines []string) int {
	w := 0
	for _, l := range lines {
		w = max(w, ansi.StringWidth(l))
	}
	return w
}

// centered halves the free space of one axis, clamping at 0 for an
// oversized foreground.
func centered(gap int) int {
	if gap <= 0 {
		return 0
	}
	return (gap + 1) / 2
}

// cutLeft returns line's cells from column width on. The last SGR
// sequence of the dropped head is re-emitted so the tail keeps the
// styling it had in place.
func cutLeft(line string, width int) string {
	wrapped := strings.Split(ansi.Hardwrap(line, width, true), "\n")
	if len(wrapped) == 1 {
		return ""
	}
	var sgr string
	if styles := sgrRegexp.FindAllString(wrapped[0], -1); len(styles) > 0 {
		sgr = styles[len(styles)-1]
	}
	return sgr + strings.Join(wrapped[1:], "")
}
