package editor

import (
	"sort"
	"strings"

	"github.com/mako10k/gosh/internal/completion"
)

// commonPrefix returns the longest common leading substring of a set of
// completion candidates' text.
func commonPrefix(comps []completion.Completion) string {
	if len(comps) == 0 {
		return ""
	}
	prefix := comps[0].Text
	for _, c := range comps[1:] {
		for !strings.HasPrefix(c.Text, prefix) {
			prefix = prefix[:len(prefix)-1]
			if prefix == "" {
				return ""
			}
		}
	}
	return prefix
}

// gatherCompletions runs the Completer against the word ending at the
// cursor, recording the result on the Editor for PossibleCompletions /
// MenuComplete / InsertCompletions to share.
func (e *Editor) gatherCompletions() bool {
	if e.Completer == nil {
		return false
	}
	end := e.cursor
	start := e.Completer.WordStart(e.buffer, end, e)
	word := e.buffer[start:end]
	comps, ok := e.Completer.Complete(word, e, start, end)
	if !ok || len(comps) == 0 {
		e.completions = nil
		return false
	}
	e.completions = comps
	e.completionStart = start
	e.completionEnd = end
	e.completionIndex = 0
	return true
}

func (e *Editor) cmdComplete(count int, ch rune) error {
	if !e.gatherCompletions() {
		return nil
	}
	if len(e.completions) == 1 {
		e.applyCompletion(e.completions[0])
		return nil
	}
	prefix := commonPrefix(e.completions)
	if len(prefix) > e.completionEnd-e.completionStart {
		e.replaceWord(prefix)
		return nil
	}
	return e.cmdPossibleCompletions(count, ch)
}

func (e *Editor) replaceWord(text string) {
	e.deleteRange(e.completionStart, e.completionEnd)
	e.InsertAtCursor(text)
	e.completionEnd = e.completionStart + len(text)
}

func (e *Editor) applyCompletion(c completion.Completion) {
	text := c.Text
	if e.Completer != nil {
		text = e.Completer.Quote(text)
	}
	e.replaceWord(text)
	switch c.Suffix.Kind {
	case completion.SuffixNone:
	case completion.SuffixChar:
		e.InsertAtCursor(string(c.Suffix.Char))
	default:
		e.InsertAtCursor(string(e.Options.CompletionAppendChar))
	}
}

func (e *Editor) cmdPossibleCompletions(count int, ch rune) error {
	if !e.gatherCompletions() && len(e.completions) == 0 {
		return nil
	}
	// Rendering the candidate table is the REPL loop's job (it owns the
	// terminal below the prompt line); record state for it to query.
	e.state = stateCompleteIntro
	return nil
}

func (e *Editor) cmdInsertCompletions(count int, ch rune) error {
	if !e.gatherCompletions() {
		return nil
	}
	texts := make([]string, len(e.completions))
	for i, c := range e.completions {
		texts[i] = c.Text
	}
	sort.Strings(texts)
	e.deleteRange(e.completionStart, e.completionEnd)
	e.InsertAtCursor(strings.Join(texts, " "))
	return nil
}

func (e *Editor) cmdMenuComplete(count int, ch rune) error {
	if e.state != stateCompleteMore {
		if !e.gatherCompletions() {
			return nil
		}
		e.state = stateCompleteMore
	} else {
		e.completionIndex = (e.completionIndex + 1) % len(e.completions)
	}
	e.applyCompletion(e.completions[e.completionIndex])
	return nil
}

func (e *Editor) cmdMenuCompleteBackward(count int, ch rune) error {
	if e.state != stateCompleteMore {
		if !e.gatherCompletions() {
			return nil
		}
		e.state = stateCompleteMore
		e.completionIndex = len(e.completions)
	}
	e.completionIndex = (e.completionIndex - 1 + len(e.completions)) % len(e.completions)
	e.applyCompletion(e.completions[e.completionIndex])
	return nil
}

// Completions exposes the last gathered candidate list, for the REPL loop
// to render beneath the input line after PossibleCompletions.
func (e *Editor) Completions() []completion.Completion { return e.completions }
