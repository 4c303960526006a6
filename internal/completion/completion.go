// Package completion implements the pluggable Completer contract of §4.5:
// candidate lookup for a word at a cursor position, word-start location,
// and quote/unquote hooks.
package completion

import "strings"

// Suffix policy for a Completion: Default defers to the shell-level
// completion_append_character, None appends nothing, and a rune appends
// that literal character (e.g. '/' for directories).
type SuffixKind int

const (
	SuffixDefault SuffixKind = iota
	SuffixNone
	SuffixChar
)

type Suffix struct {
	Kind SuffixKind
	Char rune
}

// Completion is one completion candidate.
type Completion struct {
	Text    string
	Display string // empty means use Text
	Suffix  Suffix
}

func (c Completion) DisplayText() string {
	if c.Display != "" {
		return c.Display
	}
	return c.Text
}

// Prompter is the minimal view of the Line Editor a Completer needs: the
// buffer and cursor, so a completer can look back past the naive word
// start (e.g. to resolve a path relative to an earlier token).
type Prompter interface {
	Buffer() string
	Cursor() int
}

// Completer is the pluggable candidate provider of §4.5.
type Completer interface {
	// Complete returns ordered candidates for the word [start,end) in the
	// buffer, or (nil, false) if this completer has nothing to offer.
	Complete(word string, p Prompter, start, end int) ([]Completion, bool)
	// WordStart locates the beginning of the word ending at end.
	WordStart(line string, end int, p Prompter) int
	// Quote/Unquote transform a word between display and raw form.
	Quote(word string) string
	Unquote(word string) string
}

// DefaultWordBreak is the default word_break_chars variable (§4.3).
const DefaultWordBreak = " \t\n\"\\'`@$><=;|&{("

// WordStart is the default word-start locator: look back until a
// word_break character.
func WordStart(line string, end int, wordBreak string) int {
	i := end
	for i > 0 {
		r := rune(line[i-1])
		if strings.ContainsRune(wordBreak, r) {
			break
		}
		i--
	}
	return i
}

// QuotePath backslash-escapes spaces and other shell-special characters in
// a filesystem path for display/insertion.
func QuotePath(word string) string {
	var b strings.Builder
	for _, r := range word {
		if strings.ContainsRune(" \t\"'\\$`", r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// UnquotePath reverses QuotePath.
func UnquotePath(word string) string {
	var b strings.Builder
	esc := false
	for _, r := range word {
		if esc {
			b.WriteRune(r)
			esc = false
			continue
		}
		if r == '\\' {
			esc = true
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
