// Package editor implements the Line Editor (§4.3): a buffer-and-cursor
// input surface driven by a Terminal, a key-sequence Map, a History Store,
// a Completer and a Highlighter.
package editor

import (
	"strings"
	"time"

	"github.com/mako10k/gosh/internal/completion"
	"github.com/mako10k/gosh/internal/highlight"
	"github.com/mako10k/gosh/internal/history"
	"github.com/mako10k/gosh/internal/keymap"
	"github.com/mako10k/gosh/internal/term"
	"github.com/rivo/uniseg"
)

// Category groups commands for the post-command cleanup rules of §4.3:
// consecutive kills merge into one kill-ring entry, consecutive digit
// arguments accumulate, and so on.
type Category int

const (
	CategoryOther Category = iota
	CategoryDigit
	CategoryComplete
	CategoryKill
	CategorySearch
	CategoryIncrementalSearch
	CategoryYank
)

// editState is the state machine driving key-sequence interpretation.
type editState int

const (
	stateInactive editState = iota
	stateNewSequence
	stateContinueSequence
	stateNumber
	stateCharSearch
	stateTextSearch
	stateCompleteIntro
	stateCompleteMore
	stateQuotedInsert
)

// yankSpan records the buffer range last inserted by yank, so a following
// yank-pop knows what to replace.
type yankSpan struct {
	start, end int
}

// Editor is the Line Editor (L).
type Editor struct {
	Term        term.Terminal
	KeyMap      *keymap.Map
	History     *history.Store
	Completer   completion.Completer
	Highlighter highlight.Highlighter
	Options     Options
	Functions   map[string]Function

	// Prompt is rendered verbatim before the buffer; invisible segments
	// (e.g. ANSI color escapes) should be bracketed in \x01..\x02 so width
	// computation skips them.
	Prompt string

	buffer string // UTF-8 text, not necessarily valid mid-edit boundaries
	cursor int     // byte offset into buffer

	backupBuffer string // saved line while browsing history
	historyIndex int     // index into History, or -1 when not browsing
	historyBrowsing bool

	killRing *KillRing
	lastYank *yankSpan

	inputArg       int
	explicitArg    bool
	argNegative    bool

	state         editState
	seqBuf        []byte
	seqDeadline   time.Time
	lastCmdCat    Category

	overwriteMode    bool
	overwrittenChars string

	charSearchTarget rune
	charSearchBack   bool

	completions      []completion.Completion
	completionIndex  int
	completionStart  int
	completionEnd    int

	quotedInsertCount int

	done     bool
	result   string
	acceptedErr error
}

// New constructs an Editor. A nil KeyMap defaults to keymap.Default() and a
// nil history Store to an empty history.New(0); Options start as
// DefaultOptions().
func New(t term.Terminal, km *keymap.Map, hist *history.Store) *Editor {
	if km == nil {
		km = keymap.Default()
	}
	if hist == nil {
		hist = history.New(0)
	}
	return &Editor{
		Term:         t,
		KeyMap:       km,
		History:      hist,
		Options:      DefaultOptions(),
		Functions:    make(map[string]Function),
		killRing:     NewKillRing(),
		historyIndex: -1,
	}
}

// Buffer returns the current line text (completion.Prompter).
func (e *Editor) Buffer() string { return e.buffer }

// Cursor returns the current byte-offset cursor position (completion.Prompter).
func (e *Editor) Cursor() int { return e.cursor }

// SetBuffer replaces the buffer and clamps the cursor.
func (e *Editor) SetBuffer(s string) {
	e.buffer = s
	if e.cursor > len(s) {
		e.cursor = len(s)
	}
}

// insertAt inserts s at byte offset pos, moving the cursor to just past it.
func (e *Editor) insertAt(pos int, s string) {
	e.buffer = e.buffer[:pos] + s + e.buffer[pos:]
	e.cursor = pos + len(s)
}

// InsertAtCursor inserts s at the cursor.
func (e *Editor) InsertAtCursor(s string) {
	e.insertAt(e.cursor, s)
}

// deleteRange removes buffer[start:end] and places the cursor at start.
func (e *Editor) deleteRange(start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(e.buffer) {
		end = len(e.buffer)
	}
	if start >= end {
		return ""
	}
	removed := e.buffer[start:end]
	e.buffer = e.buffer[:start] + e.buffer[end:]
	e.cursor = start
	return removed
}

// killRange deletes buffer[start:end] and merges the removed text into the
// kill ring, following the reference rule: a fresh kill starts a new entry,
// a repeated kill at the cursor's trailing edge prepends, and a repeated
// kill at the cursor's leading edge appends.
func (e *Editor) killRange(start, end int) {
	if start >= end {
		return
	}
	text := e.buffer[start:end]
	switch {
	case e.lastCmdCat != CategoryKill:
		e.killRing.Push(text)
	case end == e.cursor:
		e.killRing.Prepend(text)
	default:
		e.killRing.Append(text)
	}
	e.deleteRange(start, end)
}

// graphemeForward returns the byte offset n grapheme clusters after pos.
func (e *Editor) graphemeForward(pos, n int) int {
	s := e.buffer[pos:]
	for i := 0; i < n && len(s) > 0; i++ {
		_, rest, _, _ := uniseg.FirstGraphemeClusterInString(s, -1)
		advanced := len(s) - len(rest)
		pos += advanced
		s = rest
	}
	return pos
}

// graphemeBackward returns the byte offset n grapheme clusters before pos.
func (e *Editor) graphemeBackward(pos, n int) int {
	for i := 0; i < n && pos > 0; i++ {
		// Walk clusters from the start of the buffer up to pos; there is no
		// reverse grapheme iterator in uniseg, so re-scan from byte 0.
		s := e.buffer
		cur := 0
		for cur < pos {
			_, rest, _, _ := uniseg.FirstGraphemeClusterInString(s[cur:], -1)
			next := len(s) - len(rest)
			if next >= pos {
				break
			}
			cur = next
		}
		pos = cur
	}
	return pos
}

// isWordBreak reports whether r is a word_break character.
func (e *Editor) isWordBreak(r rune) bool {
	wb := e.Options.WordBreak
	return strings.ContainsRune(wb, r)
}

// forwardWordEnd returns the offset just past the end of the nth word
// forward from pos, skipping leading separators first.
func (e *Editor) forwardWordEnd(pos, n int) int {
	runes := []rune(e.buffer)
	offs := runeOffsets(e.buffer)
	i := byteToRuneIndex(offs, pos)
	for w := 0; w < n; w++ {
		for i < len(runes) && e.isWordBreak(runes[i]) {
			i++
		}
		for i < len(runes) && !e.isWordBreak(runes[i]) {
			i++
		}
	}
	return runeIndexToByte(offs, i, len(e.buffer))
}

// backwardWordStart returns the offset of the start of the nth word
// backward from pos.
func (e *Editor) backwardWordStart(pos, n int) int {
	runes := []rune(e.buffer)
	offs := runeOffsets(e.buffer)
	i := byteToRuneIndex(offs, pos)
	for w := 0; w < n; w++ {
		for i > 0 && e.isWordBreak(runes[i-1]) {
			i--
		}
		for i > 0 && !e.isWordBreak(runes[i-1]) {
			i--
		}
	}
	return runeIndexToByte(offs, i, len(e.buffer))
}

func runeOffsets(s string) []int {
	offs := make([]int, 0, len(s)+1)
	for i := range s {
		offs = append(offs, i)
	}
	offs = append(offs, len(s))
	return offs
}

func byteToRuneIndex(offs []int, b int) int {
	for i, o := range offs {
		if o == b {
			return i
		}
	}
	return len(offs) - 1
}

func runeIndexToByte(offs []int, i int, fallback int) int {
	if i < 0 {
		return offs[0]
	}
	if i >= len(offs) {
		return fallback
	}
	return offs[i]
}
