package keymap

// Default returns the seed keymap of §4.2: carriage-return/line-feed,
// arrow/home/end escapes, classical readline control characters A-Y, and
// the Escape-prefixed word-motion/kill/yank-pop/digit-argument family.
func Default() *Map {
	m := New()

	bind := func(seq, cmd string) { m.Bind(seq, Command(cmd)) }

	bind("\r", "accept-line")
	bind("\n", "accept-line")

	// Arrow keys and editing keys (CSI sequences).
	bind("\x1b[A", "previous-history")
	bind("\x1b[B", "next-history")
	bind("\x1b[C", "forward-char")
	bind("\x1b[D", "backward-char")
	bind("\x1b[H", "beginning-of-line")
	bind("\x1b[F", "end-of-line")
	bind("\x1b[2~", "overwrite-mode")
	bind("\x1b[3~", "delete-char")

	// Classical readline control characters A-Y.
	bind("\x01", "beginning-of-line")      // ^A
	bind("\x02", "backward-char")          // ^B
	bind("\x04", "delete-char")            // ^D
	bind("\x05", "end-of-line")            // ^E
	bind("\x06", "forward-char")           // ^F
	bind("\x07", "abort")                  // ^G
	bind("\x08", "backward-delete-char")   // ^H
	bind("\t", "complete")                 // ^I
	bind("\x0b", "kill-line")              // ^K
	bind("\x0c", "clear-screen")           // ^L
	bind("\x0e", "next-history")           // ^N
	bind("\x10", "previous-history")       // ^P
	bind("\x12", "reverse-search-history") // ^R
	bind("\x14", "transpose-chars")        // ^T
	bind("\x15", "backward-kill-line")     // ^U
	bind("\x16", "quoted-insert")          // ^V
	bind("\x17", "unix-word-rubout")       // ^W
	bind("\x19", "yank")                   // ^Y
	bind("\x7f", "backward-delete-char")   // DEL

	// Escape-prefixed bindings.
	bind("\x1bb", "backward-word")
	bind("\x1bf", "forward-word")
	bind("\x1bd", "kill-word")
	bind("\x1bt", "transpose-words")
	bind("\x1by", "yank-pop")
	bind("\x1b#", "insert-comment")
	bind("\x1b<", "beginning-of-history")
	bind("\x1b>", "end-of-history")
	bind("\x1b?", "possible-completions")
	bind("\x1b*", "insert-completions")
	bind("\x1b-", "digit-argument")
	for d := byte('0'); d <= '9'; d++ {
		bind("\x1b"+string(d), "digit-argument")
	}

	return m
}
