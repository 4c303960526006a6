package editor

import "time"

// Options holds the editor's tunable Variables (§4.3/§9), with defaults
// matching the reference line editor's behavior.
type Options struct {
	// KeyseqTimeout is recorded as the ContinueSequence deadline when a key
	// sequence is Incomplete or Undecided. ReadLine does not act on that
	// deadline: an Undecided sequence keeps waiting for further input and
	// is never resolved as the shorter, already-complete binding on timeout.
	KeyseqTimeout time.Duration
	// BlinkMatchingParen, when true, briefly moves the cursor to a
	// matching paren/bracket/brace on insertion of its closing half.
	BlinkMatchingParen bool
	BlinkDuration      time.Duration
	// WordBreak lists the characters that separate words for motion, kill
	// and completion commands.
	WordBreak string
	// CommentBegin is prefixed to the line by insert-comment.
	CommentBegin string
	// CompletionQueryItems is the candidate count above which the caller
	// should confirm before displaying possible-completions.
	CompletionQueryItems int
	// CompletionAppendChar is appended after an unambiguous completion
	// (e.g. a trailing space), unless the Completion specifies its own
	// suffix.
	CompletionAppendChar rune
	// PrintCompletionsHorizontally lists candidates row-major instead of
	// column-major.
	PrintCompletionsHorizontally bool
	// ClipboardMirror mirrors kill-ring text to the system clipboard and
	// emits OSC52 on every kill, in addition to the normal kill ring.
	ClipboardMirror bool
}

// MirrorClipboard reports whether kills should be mirrored externally.
func (o Options) MirrorClipboard() bool { return o.ClipboardMirror }

// DefaultOptions returns the reference defaults.
func DefaultOptions() Options {
	return Options{
		KeyseqTimeout:                500 * time.Millisecond,
		BlinkMatchingParen:           false,
		BlinkDuration:                500 * time.Millisecond,
		WordBreak:                    " \t\n\"\\'`@$><=;|&{(",
		CommentBegin:                 "#",
		CompletionQueryItems:         100,
		CompletionAppendChar:         ' ',
		PrintCompletionsHorizontally: false,
	}
}
