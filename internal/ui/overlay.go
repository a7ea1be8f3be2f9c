package ui

import (
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

// overlayCenter draws modal over the middle of bg, leaving the board visible
// around it.
func overlayCenter(bg, modal string, width, height int) string {
	bgLines := strings.Split(bg, "\n")
	for len(bgLines) < height {
		bgLines = append(bgLines, "")
	}
	modalLines := strings.Split(modal, "\n")

	modalW := 0
	for _, ml := range modalLines {
		modalW = max(modalW, visibleLen(ml))
	}
	top := max((height-len(modalLines))/2, 0)
	left := max((width-modalW)/2, 0)

	for i, ml := range modalLines {
		if row := top + i; row < len(bgLines) {
			bgLines[row] = spliceLine(bgLines[row], ml, left)
		}
	}
	return strings.Join(bgLines, "\n")
}

// segment is either an escape sequence or one visible rune.
type segment struct {
	text    string
	visible bool
}

func segments(s string) []segment {
	var out []segment
	for i := 0; i < len(s); {
		if s[i] == '\x1b' {
			j := i + 1
			for j < len(s) && !isFinalByte(s[j]) {
				j++
			}
			if j < len(s) {
				j++
			}
			out = append(out, segment{s[i:j], false})
			i = j
			continue
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		out = append(out, segment{s[i : i+size], true})
		i += size
	}
	return out
}

func isFinalByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// spliceLine writes over on top of line starting at visible column left.
func spliceLine(line, over string, left int) string {
	segs := segments(line)
	var b strings.Builder

	col := 0
	for _, seg := range segs {
		if col >= left {
			break
		}
		b.WriteString(seg.text)
		if seg.visible {
			col++
		}
	}
	for ; col < left; col++ {
		b.WriteByte(' ')
	}

	b.WriteString("\x1b[0m")
	b.WriteString(over)

	resume := left + visibleLen(over)
	col = 0
	for _, seg := range segs {
		if !seg.visible {
			if col >= resume {
				b.WriteString(seg.text)
			}
			continue
		}
		col++
		if col > resume {
			b.WriteString(seg.text)
		}
	}
	return b.String()
}

func visibleLen(s string) int {
	return runewidth.StringWidth(stripAnsi(s))
}

func stripAnsi(s string) string {
	var b strings.Builder
	for _, seg := range segments(s) {
		if seg.visible {
			b.WriteString(seg.text)
		}
	}
	return b.String()
}
