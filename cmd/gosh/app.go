// app.go assembles the Line Editor, Parser, Executor, and process State
// into the interactive and script-execution entry points (§5). It lives in
// cmd/gosh rather than internal/shell because the Executor already depends
// on shell.State; a Shell type importing both would cycle back on itself.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/mattn/go-isatty"

	"github.com/mako10k/gosh/internal/completion"
	"github.com/mako10k/gosh/internal/editor"
	"github.com/mako10k/gosh/internal/executor"
	"github.com/mako10k/gosh/internal/highlight"
	"github.com/mako10k/gosh/internal/history"
	"github.com/mako10k/gosh/internal/keymap"
	"github.com/mako10k/gosh/internal/parser"
	"github.com/mako10k/gosh/internal/shell"
	"github.com/mako10k/gosh/internal/term"
)

// Config holds the options cmd/gosh's CLI flags resolve into.
type Config struct {
	Login       bool
	HistoryFile string
	Prompt      string
}

// Shell is the assembled REPL: State plus the Parser, Executor, and
// (when stdin is a tty) a raw-mode Line Editor.
type Shell struct {
	config *Config

	State    *shell.State
	Parser   *parser.Parser
	Executor *executor.Executor

	term    term.Terminal
	edit    *editor.Editor
	history *history.Store
	histDB  *history.DB
}

// NewShell builds a Shell rooted at the current process. If stdin is a
// tty, it opens a raw-mode Terminal and wires the full Line Editor stack
// (completion + highlighting + sqlite-backed history); otherwise it falls
// back to no interactive editor at all (script/`-c` mode only reads once).
func NewShell(config *Config) (*Shell, error) {
	if config == nil {
		config = &Config{}
	}
	if config.Prompt == "" {
		config.Prompt = "gosh$ "
	}

	state := shell.New()
	p := parser.NewParser()
	sh := &Shell{
		config:   config,
		State:    state,
		Parser:   p,
		Executor: executor.New(state, nil),
	}

	sh.history = history.New(1000)
	if config.HistoryFile != "" {
		if db, err := history.Open(config.HistoryFile); err == nil {
			sh.histDB = db
			if loaded, err := db.Load(1000); err == nil {
				sh.history = loaded
			}
		}
	}

	if isatty.IsTerminal(os.Stdin.Fd()) {
		t, err := term.DefaultTerminal()
		if err != nil {
			return sh, nil // degrade to non-interactive use of Execute
		}
		sh.term = t
		sh.Executor.Term = t
		e := editor.New(t, keymap.Default(), sh.history)
		e.Completer = completion.NewPathCompleter()
		e.Highlighter = highlight.Bash()
		sh.edit = e
	}

	if config.Login {
		sh.loadLoginRC()
	}

	return sh, nil
}

// loadLoginRC sources ~/.goshrc once at login-shell startup, ignoring a
// missing file the way `bash -l` does.
func (s *Shell) loadLoginRC() {
	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	data, err := os.ReadFile(home + "/.goshrc")
	if err != nil {
		return
	}
	if err := s.Execute(string(data)); err != nil {
		fmt.Fprintf(os.Stderr, "gosh: .goshrc: %v\n", err)
	}
}

// Execute parses and runs a single line (used by both Interactive and the
// `-c STRING` / script-file entry points).
func (s *Shell) Execute(input string) error {
	node, err := s.Parser.Parse(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gosh: syntax error: %v\n", err)
		s.State.SetStatus(shell.StatusGeneralError, input)
		return nil
	}
	return s.Executor.Execute(node)
}

// ExecuteFile parses the whole script file and runs its statements in turn,
// stopping at the first statement whose execution returns an error (an
// *executor.ExitError from `exit` among them). A syntax error anywhere in
// the file is reported and none of it runs.
func (s *Shell) ExecuteFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return s.Execute(string(data))
}

// Interactive runs the REPL until EOF, a fatal signal, or an `exit`
// builtin. It prefers the raw-mode Line Editor when one was built; when
// stdin isn't a tty it falls back to chzyer/readline the way the teacher's
// two-mode split does for piped/non-interactive input.
func (s *Shell) Interactive() int {
	if s.edit != nil {
		return s.interactiveWithEditor()
	}
	return s.interactiveWithReadline()
}

func (s *Shell) interactiveWithEditor() int {
	for {
		line, err := s.edit.ReadLine(s.config.Prompt)
		if err != nil {
			if err == editor.ErrEOF {
				return s.State.Status()
			}
			if err == editor.ErrInterrupted {
				continue
			}
			return shell.StatusGeneralError
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		s.recordHistory(line)
		if status, done := s.runLine(line); done {
			return status
		}
	}
}

func (s *Shell) interactiveWithReadline() int {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          s.config.Prompt,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "gosh: %v\n", err)
		return shell.StatusGeneralError
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			if err == io.EOF {
				return s.State.Status()
			}
			return shell.StatusGeneralError
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		s.recordHistory(line)
		if status, done := s.runLine(line); done {
			return status
		}
	}
}

func (s *Shell) runLine(line string) (status int, done bool) {
	err := s.Execute(line)
	if ee, ok := asExitError(err); ok {
		return ee, true
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "gosh: %v\n", err)
	}
	return s.State.Status(), false
}

func (s *Shell) recordHistory(line string) {
	s.history.AddLine(line)
}

func asExitError(err error) (status int, ok bool) {
	var ee *executor.ExitError
	if errors.As(err, &ee) {
		return ee.Status, true
	}
	return 0, false
}

// Close flushes this session's new history entries to disk (§6's
// append-on-exit policy) and releases the terminal, if one was opened.
func (s *Shell) Close() error {
	if s.histDB != nil {
		_ = s.histDB.AppendSession(s.history)
		s.history.ResetNewEntries()
		s.histDB.Close()
	}
	if s.term != nil {
		return s.term.Close()
	}
	return nil
}
