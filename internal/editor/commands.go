package editor

import (
	"strings"

	"github.com/atotto/clipboard"
	osc52 "github.com/aymanbagabas/go-osc52/v2"
)

// builtins is the name -> Function table of editing commands, matching the
// command set and categories of §4.3.
var builtins = map[string]Function{
	"abort": withCategory(CategoryOther, (*Editor).cmdAbort),

	"accept-line": withCategory(CategoryOther, (*Editor).cmdAcceptLine),

	"complete":                withCategory(CategoryComplete, (*Editor).cmdComplete),
	"possible-completions":    withCategory(CategoryComplete, (*Editor).cmdPossibleCompletions),
	"insert-completions":      withCategory(CategoryComplete, (*Editor).cmdInsertCompletions),
	"menu-complete":           withCategory(CategoryComplete, (*Editor).cmdMenuComplete),
	"menu-complete-backward":  withCategory(CategoryComplete, (*Editor).cmdMenuCompleteBackward),

	"digit-argument": withCategory(CategoryDigit, (*Editor).cmdDigitArgument),

	"self-insert": withCategory(CategoryOther, (*Editor).cmdSelfInsert),
	"tab-insert":  withCategory(CategoryOther, (*Editor).cmdTabInsert),

	"overwrite-mode":  withCategory(CategoryOther, (*Editor).cmdOverwriteMode),
	"insert-comment":  withCategory(CategoryOther, (*Editor).cmdInsertComment),

	"backward-char": withCategory(CategoryOther, (*Editor).cmdBackwardChar),
	"forward-char":  withCategory(CategoryOther, (*Editor).cmdForwardChar),

	"character-search":          withCategory(CategoryOther, (*Editor).cmdCharacterSearch),
	"character-search-backward": withCategory(CategoryOther, (*Editor).cmdCharacterSearchBackward),

	"backward-word": withCategory(CategoryOther, (*Editor).cmdBackwardWord),
	"forward-word":  withCategory(CategoryOther, (*Editor).cmdForwardWord),

	"backward-kill-line": withCategory(CategoryKill, (*Editor).cmdBackwardKillLine),
	"kill-line":          withCategory(CategoryKill, (*Editor).cmdKillLine),
	"backward-kill-word": withCategory(CategoryKill, (*Editor).cmdBackwardKillWord),
	"kill-word":          withCategory(CategoryKill, (*Editor).cmdKillWord),
	"unix-word-rubout":   withCategory(CategoryKill, (*Editor).cmdUnixWordRubout),

	"clear-screen": withCategory(CategoryOther, (*Editor).cmdClearScreen),

	"beginning-of-line": withCategory(CategoryOther, (*Editor).cmdBeginningOfLine),
	"end-of-line":       withCategory(CategoryOther, (*Editor).cmdEndOfLine),

	"backward-delete-char": withCategory(CategoryOther, (*Editor).cmdBackwardDeleteChar),
	"delete-char":          withCategory(CategoryOther, (*Editor).cmdDeleteChar),

	"transpose-chars": withCategory(CategoryOther, (*Editor).cmdTransposeChars),
	"transpose-words": withCategory(CategoryOther, (*Editor).cmdTransposeWords),

	"beginning-of-history": withCategory(CategoryOther, (*Editor).cmdBeginningOfHistory),
	"end-of-history":       withCategory(CategoryOther, (*Editor).cmdEndOfHistory),
	"next-history":         withCategory(CategoryOther, (*Editor).cmdNextHistory),
	"previous-history":     withCategory(CategoryOther, (*Editor).cmdPreviousHistory),

	"history-search-forward":  withCategory(CategorySearch, (*Editor).cmdHistorySearchForward),
	"history-search-backward": withCategory(CategorySearch, (*Editor).cmdHistorySearchBackward),

	"quoted-insert": withCategory(CategoryOther, (*Editor).cmdQuotedInsert),

	"yank":     withCategory(CategoryYank, (*Editor).cmdYank),
	"yank-pop": withCategory(CategoryYank, (*Editor).cmdYankPop),
}

// lookupFunction resolves a command name, preferring a user-registered
// override over the built-in table.
func (e *Editor) lookupFunction(name string) (Function, bool) {
	if f, ok := e.Functions[name]; ok {
		return f, true
	}
	f, ok := builtins[name]
	return f, ok
}

func (e *Editor) cmdAbort(count int, ch rune) error {
	e.state = stateInactive
	e.completions = nil
	return nil
}

func (e *Editor) cmdAcceptLine(count int, ch rune) error {
	e.done = true
	e.result = e.buffer
	return nil
}

func (e *Editor) cmdSelfInsert(count int, ch rune) error {
	if ch == 0 {
		return nil
	}
	text := strings.Repeat(string(ch), maxInt(count, 1))
	if e.overwriteMode {
		e.overwriteInsert(text)
	} else {
		e.InsertAtCursor(text)
	}
	if e.Options.BlinkMatchingParen {
		e.blinkMatchingParen(ch)
	}
	return nil
}

func (e *Editor) cmdTabInsert(count int, ch rune) error {
	e.InsertAtCursor(strings.Repeat("\t", maxInt(count, 1)))
	return nil
}

func (e *Editor) overwriteInsert(text string) {
	end := e.graphemeForward(e.cursor, len([]rune(text)))
	over := e.buffer[e.cursor:end]
	e.overwrittenChars += over
	e.buffer = e.buffer[:e.cursor] + text + e.buffer[end:]
	e.cursor += len(text)
}

func (e *Editor) cmdOverwriteMode(count int, ch rune) error {
	e.overwriteMode = !e.overwriteMode
	return nil
}

func (e *Editor) cmdInsertComment(count int, ch rune) error {
	prefix := e.Options.CommentBegin
	if !strings.HasPrefix(e.buffer, prefix) {
		e.buffer = prefix + e.buffer
	}
	return e.cmdAcceptLine(count, ch)
}

func (e *Editor) cmdBackwardChar(count int, ch rune) error {
	e.cursor = e.graphemeBackward(e.cursor, maxInt(count, 1))
	return nil
}

func (e *Editor) cmdForwardChar(count int, ch rune) error {
	e.cursor = e.graphemeForward(e.cursor, maxInt(count, 1))
	return nil
}

func (e *Editor) cmdCharacterSearch(count int, ch rune) error {
	return e.characterSearch(count, false)
}

func (e *Editor) cmdCharacterSearchBackward(count int, ch rune) error {
	return e.characterSearch(count, true)
}

func (e *Editor) characterSearch(count int, backward bool) error {
	e.charSearchTarget = 0
	e.charSearchBack = backward
	e.state = stateCharSearch
	if count != 0 {
		e.inputArg = count
	}
	return nil
}

// continueCharacterSearch is invoked once the search target rune arrives.
func (e *Editor) continueCharacterSearch(target rune) {
	n := maxInt(e.inputArg, 1)
	runes := []rune(e.buffer)
	offs := runeOffsets(e.buffer)
	i := byteToRuneIndex(offs, e.cursor)
	if e.charSearchBack {
		found := 0
		for j := i - 1; j >= 0; j-- {
			if runes[j] == target {
				found++
				if found == n {
					e.cursor = runeIndexToByte(offs, j, len(e.buffer))
					return
				}
			}
		}
	} else {
		found := 0
		for j := i + 1; j < len(runes); j++ {
			if runes[j] == target {
				found++
				if found == n {
					e.cursor = runeIndexToByte(offs, j, len(e.buffer))
					return
				}
			}
		}
	}
}

func (e *Editor) cmdBackwardWord(count int, ch rune) error {
	e.cursor = e.backwardWordStart(e.cursor, maxInt(count, 1))
	return nil
}

func (e *Editor) cmdForwardWord(count int, ch rune) error {
	e.cursor = e.forwardWordEnd(e.cursor, maxInt(count, 1))
	return nil
}

func (e *Editor) cmdBackwardKillLine(count int, ch rune) error {
	e.mirrorKill(e.buffer[:e.cursor])
	e.killRange(0, e.cursor)
	return nil
}

func (e *Editor) cmdKillLine(count int, ch rune) error {
	e.mirrorKill(e.buffer[e.cursor:])
	e.killRange(e.cursor, len(e.buffer))
	return nil
}

func (e *Editor) cmdBackwardKillWord(count int, ch rune) error {
	start := e.backwardWordStart(e.cursor, maxInt(count, 1))
	e.mirrorKill(e.buffer[start:e.cursor])
	e.killRange(start, e.cursor)
	return nil
}

func (e *Editor) cmdKillWord(count int, ch rune) error {
	end := e.forwardWordEnd(e.cursor, maxInt(count, 1))
	e.mirrorKill(e.buffer[e.cursor:end])
	e.killRange(e.cursor, end)
	return nil
}

func (e *Editor) cmdUnixWordRubout(count int, ch rune) error {
	start := e.cursor
	n := maxInt(count, 1)
	for w := 0; w < n; w++ {
		for start > 0 && strings.ContainsRune(" \t\n", rune(e.buffer[start-1])) {
			start--
		}
		for start > 0 && !strings.ContainsRune(" \t\n", rune(e.buffer[start-1])) {
			start--
		}
	}
	e.mirrorKill(e.buffer[start:e.cursor])
	e.killRange(start, e.cursor)
	return nil
}

// mirrorKill best-effort copies killed text to the system clipboard and
// emits an OSC52 sequence, so the kill ring doubles as the system clipboard
// even over SSH sessions whose terminal supports OSC52.
func (e *Editor) mirrorKill(text string) {
	if text == "" || !e.Options.MirrorClipboard() {
		return
	}
	_ = clipboard.WriteAll(text)
	if e.Term != nil {
		if w := e.Term.Writer(); w != nil {
			seq := osc52.New(text).String()
			w.WriteString(seq)
			w.Flush()
		}
	}
}

func (e *Editor) cmdClearScreen(count int, ch rune) error {
	if w := e.Term.Writer(); w != nil {
		w.Clear()
	}
	return nil
}

func (e *Editor) cmdBeginningOfLine(count int, ch rune) error {
	e.cursor = 0
	return nil
}

func (e *Editor) cmdEndOfLine(count int, ch rune) error {
	e.cursor = len(e.buffer)
	return nil
}

func (e *Editor) cmdBackwardDeleteChar(count int, ch rune) error {
	start := e.graphemeBackward(e.cursor, maxInt(count, 1))
	e.deleteRange(start, e.cursor)
	return nil
}

func (e *Editor) cmdDeleteChar(count int, ch rune) error {
	if e.buffer == "" {
		e.done = true
		e.acceptedErr = errEOF
		return nil
	}
	end := e.graphemeForward(e.cursor, maxInt(count, 1))
	e.deleteRange(e.cursor, end)
	return nil
}

func (e *Editor) cmdTransposeChars(count int, ch rune) error {
	if e.cursor == 0 || len(e.buffer) == 0 {
		return nil
	}
	end := e.cursor
	if end == len(e.buffer) {
		end = e.graphemeBackward(end, 1)
	}
	start := e.graphemeBackward(end, 1)
	mid := end
	after := e.graphemeForward(end, 1)
	a, b := e.buffer[start:mid], e.buffer[mid:after]
	e.buffer = e.buffer[:start] + b + a + e.buffer[after:]
	e.cursor = after
	return nil
}

func (e *Editor) cmdTransposeWords(count int, ch rune) error {
	end2 := e.forwardWordEnd(e.cursor, 1)
	start2 := e.backwardWordStart(end2, 1)
	start1 := e.backwardWordStart(start2, 1)
	end1 := e.forwardWordEnd(start1, 1)
	if start1 >= start2 || end1 > start2 {
		return nil
	}
	w1, gap, w2 := e.buffer[start1:end1], e.buffer[end1:start2], e.buffer[start2:end2]
	e.buffer = e.buffer[:start1] + w2 + gap + w1 + e.buffer[end2:]
	e.cursor = start1 + len(w2) + len(gap) + len(w1)
	return nil
}

func (e *Editor) saveForHistoryBrowse() {
	if !e.historyBrowsing {
		e.backupBuffer = e.buffer
		e.historyBrowsing = true
	}
}

func (e *Editor) cmdBeginningOfHistory(count int, ch rune) error {
	if e.History.Len() == 0 {
		return nil
	}
	e.saveForHistoryBrowse()
	e.historyIndex = 0
	e.SetBuffer(e.History.At(0).Line)
	e.cursor = len(e.buffer)
	return nil
}

func (e *Editor) cmdEndOfHistory(count int, ch rune) error {
	e.historyIndex = -1
	e.historyBrowsing = false
	e.SetBuffer(e.backupBuffer)
	e.cursor = len(e.buffer)
	return nil
}

func (e *Editor) cmdPreviousHistory(count int, ch rune) error {
	n := e.History.Len()
	if n == 0 {
		return nil
	}
	e.saveForHistoryBrowse()
	next := e.historyIndex - maxInt(count, 1)
	if e.historyIndex < 0 {
		next = n - maxInt(count, 1)
	}
	if next < 0 {
		next = 0
	}
	e.historyIndex = next
	e.SetBuffer(e.History.At(next).Line)
	e.cursor = len(e.buffer)
	return nil
}

func (e *Editor) cmdNextHistory(count int, ch rune) error {
	if e.historyIndex < 0 {
		return nil
	}
	next := e.historyIndex + maxInt(count, 1)
	if next >= e.History.Len() {
		return e.cmdEndOfHistory(count, ch)
	}
	e.historyIndex = next
	e.SetBuffer(e.History.At(next).Line)
	e.cursor = len(e.buffer)
	return nil
}

func (e *Editor) cmdHistorySearchForward(count int, ch rune) error {
	prefix := e.buffer[:e.cursor]
	start := e.historyIndex + 1
	if start < 0 {
		start = 0
	}
	if idx, ok := e.History.SearchPrefixForward(prefix, start); ok {
		e.saveForHistoryBrowse()
		e.historyIndex = idx
		cur := e.cursor
		e.SetBuffer(e.History.At(idx).Line)
		e.cursor = cur
	}
	return nil
}

func (e *Editor) cmdHistorySearchBackward(count int, ch rune) error {
	prefix := e.buffer[:e.cursor]
	start := e.historyIndex - 1
	if start < 0 {
		start = e.History.Len() - 1
	}
	if idx, ok := e.History.SearchPrefixBackward(prefix, start); ok {
		e.saveForHistoryBrowse()
		e.historyIndex = idx
		cur := e.cursor
		e.SetBuffer(e.History.At(idx).Line)
		e.cursor = cur
	}
	return nil
}

func (e *Editor) cmdQuotedInsert(count int, ch rune) error {
	e.quotedInsertCount = maxInt(count, 1)
	e.state = stateQuotedInsert
	return nil
}

func (e *Editor) cmdYank(count int, ch rune) error {
	kill, ok := e.killRing.Front()
	if !ok {
		return nil
	}
	start := e.cursor
	e.InsertAtCursor(kill)
	e.lastYank = &yankSpan{start: start, end: start + len(kill)}
	return nil
}

func (e *Editor) cmdYankPop(count int, ch rune) error {
	if e.lastYank == nil {
		return nil
	}
	e.killRing.Rotate()
	kill, ok := e.killRing.Front()
	if !ok {
		return nil
	}
	start, end := e.lastYank.start, e.lastYank.end
	e.deleteRange(start, end)
	e.cursor = start
	e.InsertAtCursor(kill)
	e.lastYank = &yankSpan{start: start, end: start + len(kill)}
	return nil
}

func (e *Editor) cmdDigitArgument(count int, ch rune) error {
	switch {
	case ch == '-':
		e.argNegative = !e.argNegative
	case ch >= '0' && ch <= '9':
		if !e.explicitArg {
			e.inputArg = 0
		}
		e.explicitArg = true
		e.inputArg = e.inputArg*10 + int(ch-'0')
	}
	return nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
