package editor

import (
	"errors"
	"strings"
	"time"

	"github.com/mako10k/gosh/internal/keymap"
	"github.com/mako10k/gosh/internal/term"
)

// errEOF is returned by ReadLine when the input stream ends with an empty
// buffer (Ctrl-D at the start of a line).
var errEOF = errors.New("editor: end of input")

// ErrEOF is the exported form of errEOF, for callers distinguishing a
// clean EOF from a terminal I/O error.
var ErrEOF = errEOF

// ErrInterrupted is returned by ReadLine when SIGINT arrives mid-edit.
var ErrInterrupted = errors.New("editor: interrupted")

// macroQueue lets a bound Macro string re-inject bytes ahead of live
// terminal input (§4.2).
type macroQueue struct {
	pending []byte
}

func (q *macroQueue) push(s string) { q.pending = append([]byte(s), q.pending...) }

func (q *macroQueue) takeByte() (byte, bool) {
	if len(q.pending) == 0 {
		return 0, false
	}
	b := q.pending[0]
	q.pending = q.pending[1:]
	return b, true
}

// ReadLine runs the Line Editor's REPL loop: read raw bytes, resolve key
// sequences against KeyMap, dispatch to Functions/builtins, and redraw,
// until accept-line, EOF (delete-char on an empty buffer) or SIGINT
// terminates the line. The abort command does not end the line.
func (e *Editor) ReadLine(prompt string) (string, error) {
	e.reset(prompt)

	raw, err := term.PrepareWithLock(e.Term, true, true)
	if err != nil {
		return "", err
	}
	defer e.Term.Reader().Restore(raw)

	var macros macroQueue
	var seq strings.Builder
	var readBuf [256]byte

	e.Redraw()

	for !e.done {
		b, fromMacro := macros.takeByte()
		if !fromMacro {
			ev, err := e.Term.Reader().Read(readBuf[:])
			if err != nil {
				return "", err
			}
			switch ev.Kind {
			case term.EventResize:
				e.Redraw()
				continue
			case term.EventSignal:
				if err := e.handleSignal(ev.Signal); err != nil {
					return "", err
				}
				continue
			}
			if ev.N == 0 {
				continue
			}
			for i := 0; i < ev.N; i++ {
				if err := e.feed(readBuf[i], &seq, &macros); err != nil {
					return "", err
				}
				if e.done {
					break
				}
			}
			e.Redraw()
			continue
		}
		if err := e.feed(b, &seq, &macros); err != nil {
			return "", err
		}
	}

	e.Redraw()
	if w := e.Term.Writer(); w != nil {
		w.WriteString("\r\n")
		w.Flush()
	}

	if e.acceptedErr != nil {
		return "", e.acceptedErr
	}
	return e.result, nil
}

func (e *Editor) reset(prompt string) {
	e.Prompt = prompt
	e.buffer = ""
	e.cursor = 0
	e.historyIndex = -1
	e.historyBrowsing = false
	e.backupBuffer = ""
	e.done = false
	e.result = ""
	e.acceptedErr = nil
	e.state = stateNewSequence
	e.inputArg = 1
	e.explicitArg = false
	e.argNegative = false
	e.lastCmdCat = CategoryOther
}

// feed processes one raw byte through the key-sequence state machine.
func (e *Editor) feed(b byte, seq *strings.Builder, macros *macroQueue) error {
	switch e.state {
	case stateQuotedInsert:
		e.InsertAtCursor(string(rune(b)))
		e.quotedInsertCount--
		if e.quotedInsertCount <= 0 {
			e.state = stateNewSequence
		}
		return nil
	case stateCharSearch:
		e.continueCharacterSearch(rune(b))
		e.state = stateNewSequence
		e.finishCommand(CategoryOther)
		return nil
	}

	seq.WriteByte(b)
	s := seq.String()

	binding, result := e.KeyMap.Lookup(s)
	switch result {
	case keymap.NotFound:
		seq.Reset()
		if isPrintable(b) {
			return e.dispatch("self-insert", e.argOrDefault(), rune(b))
		}
		e.finishCommand(CategoryOther)
		return nil

	case keymap.Incomplete:
		e.state = stateContinueSequence
		e.seqDeadline = time.Now().Add(e.Options.KeyseqTimeout)
		return nil

	case keymap.Undecided:
		// Ambiguous: could stop here or continue. Resolve eagerly in favor
		// of the longer sequence, matching terminals where escape sequences
		// arrive faster than the keyseq timeout; the recorded seqDeadline is
		// not checked, so no timeout-based disambiguation takes place.
		e.state = stateContinueSequence
		e.seqDeadline = time.Now().Add(e.Options.KeyseqTimeout)
		return nil

	case keymap.Found:
		seq.Reset()
		e.state = stateNewSequence
		if binding.IsMacro() {
			macros.push(binding.Macro)
			return nil
		}
		last := rune(b)
		return e.dispatch(binding.Command, e.argOrDefault(), last)
	}
	return nil
}

func (e *Editor) argOrDefault() int {
	if !e.explicitArg {
		return 1
	}
	n := e.inputArg
	if e.argNegative {
		n = -n
	}
	return n
}

func (e *Editor) dispatch(name string, count int, ch rune) error {
	fn, ok := e.lookupFunction(name)
	if !ok {
		e.finishCommand(CategoryOther)
		return nil
	}
	if err := fn.Execute(e, count, ch); err != nil {
		if errors.Is(err, errEOF) {
			e.done = true
			e.acceptedErr = errEOF
			return nil
		}
		return err
	}
	e.finishCommand(fn.Category())
	return nil
}

// finishCommand applies the post-command cleanup rules of §4.3: a
// non-digit command clears the pending numeric argument, and a non-yank
// command clears the last-yank span so a stray yank-pop is a no-op.
func (e *Editor) finishCommand(cat Category) {
	if cat != CategoryDigit {
		e.inputArg = 1
		e.explicitArg = false
		e.argNegative = false
	}
	if cat != CategoryYank {
		e.lastYank = nil
	}
	if cat != CategoryComplete {
		e.completions = nil
	}
	e.lastCmdCat = cat
}

func isPrintable(b byte) bool {
	return b >= 0x20 && b != 0x7f
}

func (e *Editor) handleSignal(sig term.Signal) error {
	switch sig {
	case term.SigInt:
		e.buffer = ""
		e.cursor = 0
		e.done = true
		e.acceptedErr = ErrInterrupted
	case term.SigWinch:
		e.Redraw()
	}
	return nil
}
