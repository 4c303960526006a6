package editor

import (
	"strings"
	"time"

	"github.com/mako10k/gosh/internal/highlight"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

const (
	invisibleStart = '\x01'
	invisibleEnd   = '\x02'
)

// displayWidth computes the terminal column width of s under the rendering
// rules of §4.3: tabs advance to the next multiple of 8, control
// characters render as two-column "^X" glyphs, combining marks are
// zero-width, and East Asian wide runes are two columns. Bytes bracketed
// by \x01..\x02 (invisible prompt markers) contribute zero width.
func displayWidth(s string, col int) int {
	invisible := false
	gr := uniseg.NewGraphemes(s)
	for gr.Next() {
		cluster := gr.Runes()
		r := cluster[0]
		switch {
		case r == invisibleStart:
			invisible = true
			continue
		case r == invisibleEnd:
			invisible = false
			continue
		case invisible:
			continue
		case r == '\t':
			col = (col/8 + 1) * 8
		case r < 0x20 || r == 0x7f:
			col += 2 // "^X"
		default:
			w := runewidth.RuneWidth(r)
			if w == 0 && len(cluster) == 1 {
				w = 1
			}
			col += w
		}
	}
	return col
}

// renderGlyph returns the on-screen glyph for a rune per the control-char
// rule above.
func renderGlyph(r rune) string {
	switch {
	case r == '\t':
		return "\t"
	case r < 0x20:
		return "^" + string(rune('@'+r))
	case r == 0x7f:
		return "^?"
	default:
		return string(r)
	}
}

// visiblePrompt strips the \x01..\x02 invisible-marker bytes, returning
// the text actually written to the terminal.
func visiblePrompt(prompt string) string {
	var b strings.Builder
	skip := false
	for _, r := range prompt {
		switch r {
		case invisibleStart:
			skip = true
		case invisibleEnd:
			skip = false
		default:
			if !skip {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

// Redraw repaints the prompt and buffer from column zero, placing the
// cursor at its logical position. It uses the final-column wrap-avoidance
// trick ("  \r") so a cursor landing exactly at the terminal width does
// not trigger an unwanted autowrap.
func (e *Editor) Redraw() {
	w := e.Term.Writer()
	if w == nil {
		return
	}
	size, _ := w.Size()
	cols := size.Cols
	if cols <= 0 {
		cols = 80
	}

	w.MoveToCol0()
	w.ClearToEOS()

	var rendered string
	if e.Highlighter != nil {
		rendered = highlight.Render(e.buffer, e.Highlighter(e.buffer))
	} else {
		rendered = escapeControls(e.buffer)
	}

	w.WriteString(visiblePrompt(e.Prompt))
	w.WriteString(rendered)

	totalWidth := displayWidth(e.Prompt+e.buffer, 0)
	cursorWidth := displayWidth(e.Prompt+e.buffer[:e.cursor], 0)

	if totalWidth > 0 && totalWidth%cols == 0 {
		// The cursor sits exactly at the terminal's last column; write a
		// trailing "  \r" so the terminal doesn't autowrap on its own, then
		// recompute from column zero.
		w.WriteString("  \r")
		w.WriteString(visiblePrompt(e.Prompt))
		w.WriteString(rendered)
	}

	// Move the real cursor back from end-of-line to its logical column.
	delta := totalWidth - cursorWidth
	for delta > 0 {
		w.MoveLeft(1)
		delta--
	}
	w.Flush()
}

func escapeControls(s string) string {
	var b strings.Builder
	for _, r := range s {
		b.WriteString(renderGlyph(r))
	}
	return b.String()
}

// blinkMatchingParen, when the just-inserted rune closes a bracket pair,
// briefly moves the cursor to the matching opener.
func (e *Editor) blinkMatchingParen(closer rune) {
	opener, ok := matchFor(closer)
	if !ok {
		return
	}
	depth := 0
	runes := []rune(e.buffer)
	offs := runeOffsets(e.buffer)
	cur := byteToRuneIndex(offs, e.cursor) - 1
	for i := cur; i >= 0; i-- {
		switch runes[i] {
		case closer:
			depth++
		case opener:
			depth--
			if depth == 0 {
				e.showBlink(runeIndexToByte(offs, i, len(e.buffer)))
				return
			}
		}
	}
}

func matchFor(closer rune) (rune, bool) {
	switch closer {
	case ')':
		return '(', true
	case ']':
		return '[', true
	case '}':
		return '{', true
	default:
		return 0, false
	}
}

func (e *Editor) showBlink(pos int) {
	w := e.Term.Writer()
	if w == nil {
		return
	}
	saved := e.cursor
	e.cursor = pos
	e.Redraw()
	time.Sleep(e.Options.BlinkDuration)
	e.cursor = saved
	e.Redraw()
}

