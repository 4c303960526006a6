// Package executor runs a parsed command tree against a shell's process
// state: it forks pipelines into their own process group, wires up
// redirections, and threads exit status back through conditional and
// sequence nodes the way the shell's job-control model expects (§5).
package executor

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"github.com/mako10k/gosh/internal/parser"
	"github.com/mako10k/gosh/internal/shell"
	"github.com/mako10k/gosh/internal/term"
)

// Executor threads a Node through the shell's State, spawning real
// processes for external commands and dispatching builtins and
// user-defined functions in-process.
type Executor struct {
	State  *shell.State
	Term   term.Terminal
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// origPgid is the shell's own process group, restored to the
	// foreground once a job finishes or is backgrounded.
	origPgid int

	// runs tracks in-flight pipelines by pgid so that `fg`/`bg` can wait
	// on a job's actual reaper goroutine instead of issuing a competing
	// Wait4 against a pid os/exec already owns.
	runsMu sync.Mutex
	runs   map[int]*pipelineRun
}

// pipelineRun is the bookkeeping for one forked pipeline's lifetime: the
// reaper goroutine closes done once every stage's cmd.Wait has returned.
type pipelineRun struct {
	done   chan struct{}
	status int
}

// New builds an Executor bound to state and the process's own std streams.
func New(state *shell.State, t term.Terminal) *Executor {
	pgid, _ := unix.Getpgrp()
	return &Executor{
		State:    state,
		Term:     t,
		Stdin:    os.Stdin,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		origPgid: pgid,
		runs:     make(map[int]*pipelineRun),
	}
}

// Execute dispatches any parsed Node, threading exit status into
// State via SetStatus for commands and conditionals alike.
func (e *Executor) Execute(node parser.Node) error {
	if node == nil {
		return nil
	}
	switch n := node.(type) {
	case *parser.ScriptNode:
		return e.executeStatements(n.Statements)
	case *parser.SequenceNode:
		return e.executeStatements(n.Statements)
	case *parser.ConditionalNode:
		return e.executeConditional(n)
	case *parser.IfNode:
		return e.executeIf(n)
	case *parser.WhileNode:
		return e.executeWhile(n)
	case *parser.FuncDefNode:
		e.State.DefineFunc(n)
		e.State.SetStatus(0, n.String())
		return nil
	case *parser.PipelineNode:
		return e.executePipelineNode(n)
	default:
		return fmt.Errorf("executor: unknown node type %T", node)
	}
}

func (e *Executor) executeStatements(stmts []parser.Node) error {
	for _, s := range stmts {
		if err := e.Execute(s); err != nil {
			return err
		}
	}
	return nil
}

func (e *Executor) executeConditional(n *parser.ConditionalNode) error {
	err := e.Execute(n.Left)
	ok := err == nil && e.State.Status() == 0
	switch n.Operator {
	case "&&":
		if !ok {
			return err
		}
		return e.Execute(n.Right)
	case "||":
		if ok {
			return err
		}
		return e.Execute(n.Right)
	default:
		return fmt.Errorf("executor: unknown conditional operator %q", n.Operator)
	}
}

func (e *Executor) executeIf(n *parser.IfNode) error {
	for _, br := range n.Branches {
		if br.Test == nil {
			return e.Execute(br.Body)
		}
		if err := e.Execute(br.Test); err != nil {
			return err
		}
		if e.State.Status() == 0 {
			return e.Execute(br.Body)
		}
	}
	return nil
}

func (e *Executor) executeWhile(n *parser.WhileNode) error {
	for {
		if err := e.Execute(n.Test); err != nil {
			return err
		}
		if e.State.Status() != 0 {
			return nil
		}
		if err := e.Execute(n.Body); err != nil {
			return err
		}
	}
}

func (e *Executor) executePipelineNode(n *parser.PipelineNode) error {
	return e.RunLine(n.Line)
}

// RunLine executes one parsed pipeline: a bare env-assignment line writes
// directly to State.Env, a single builtin or user function dispatches
// in-process, and anything else forks a real process group.
func (e *Executor) RunLine(cl *parser.CommandLine) error {
	if len(cl.Commands) == 0 {
		return nil
	}
	for k, v := range cl.Env {
		e.State.Setenv(k, v)
	}
	if len(cl.Commands) == 1 && len(cl.Commands[0].Tokens) == 0 {
		e.State.SetStatus(0, cl.String())
		return nil
	}

	if len(cl.Commands) == 1 {
		argv := e.expandArgv(cl.Commands[0])
		if len(argv) == 0 {
			e.State.SetStatus(0, cl.String())
			return nil
		}
		if e.State.Arithmetic != nil && len(argv) == 1 && looksArithmetic(argv[0]) {
			if out, ok := e.State.Arithmetic(argv[0]); ok {
				fmt.Fprintln(e.Stdout, out)
				e.State.SetStatus(0, cl.String())
				return nil
			}
		}
		if b, ok := builtins[argv[0]]; ok {
			return e.runBuiltin(b, argv, cl)
		}
		if fn, ok := e.State.Func(argv[0]); ok {
			return e.runFunction(fn, argv, cl)
		}
	}

	return e.runPipeline(cl)
}

func looksArithmetic(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r >= '0' && r <= '9') || strings.ContainsRune("+-*/%() .", r) {
			continue
		}
		return false
	}
	return true
}

func (e *Executor) runBuiltin(b builtin, argv []string, cl *parser.CommandLine) error {
	status, err := b(e, argv, e.Stdout, e.Stderr)
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		e.State.SetStatus(exitErr.Status, cl.String())
		return err
	}
	e.State.SetStatus(status, cl.String())
	return nil
}

func (e *Executor) runFunction(fn *parser.FuncDefNode, argv []string, cl *parser.CommandLine) error {
	_ = argv
	return e.Execute(fn.Body)
}

// stage binds one pipeline command to its live *exec.Cmd and applies the
// redirections the parser attached to it.
type stage struct {
	cmd  *exec.Cmd
	argv []string
}

// runPipeline forks every stage of cl into its own process group (the
// first stage's pid becomes the pgid; later stages join it via
// SysProcAttr.Pgid), wires stdout->stdin pipes between stages, applies
// each stage's redirections, and waits for them all via errgroup so a
// stage's wait never races the stdlib exec reaper.
func (e *Executor) runPipeline(cl *parser.CommandLine) error {
	stages := make([]*stage, len(cl.Commands))
	for i, c := range cl.Commands {
		argv := e.expandArgv(c)
		if len(argv) == 0 {
			return fmt.Errorf("executor: empty pipeline stage")
		}
		stages[i] = &stage{argv: argv}
	}

	var pipes []*os.File
	closeAll := func() {
		for _, f := range pipes {
			f.Close()
		}
	}

	var pgid int
	var nextStdin *os.File
	for i, st := range stages {
		cmd := exec.Command(st.argv[0], st.argv[1:]...)
		cmd.Env = e.State.Environ()
		cmd.Dir = e.State.CurDir

		if i == 0 {
			cmd.Stdin = e.Stdin
		} else {
			cmd.Stdin = nextStdin
		}
		if i == len(stages)-1 {
			cmd.Stdout = e.Stdout
		} else {
			r, w, err := os.Pipe()
			if err != nil {
				closeAll()
				return err
			}
			pipes = append(pipes, r, w)
			cmd.Stdout = w
			nextStdin = r
		}
		cmd.Stderr = e.Stderr

		if err := applyRedirs(cmd, cl.Commands[i]); err != nil {
			closeAll()
			return err
		}

		attr := &syscall.SysProcAttr{Setpgid: true}
		if i > 0 {
			attr.Pgid = pgid
		}
		cmd.SysProcAttr = attr
		st.cmd = cmd

		if err := cmd.Start(); err != nil {
			closeAll()
			return fmt.Errorf("%s: %w", st.argv[0], err)
		}
		if i == 0 {
			pgid = cmd.Process.Pid
		}
	}
	closeAll()

	pids := make([]int, len(stages))
	for i, st := range stages {
		pids[i] = st.cmd.Process.Pid
	}
	job := e.State.Jobs.Add(pgid, pids, cl.String(), cl.Background)

	run := &pipelineRun{done: make(chan struct{})}
	e.runsMu.Lock()
	e.runs[pgid] = run
	e.runsMu.Unlock()

	// The reaper goroutine is the pipeline's sole caller of cmd.Wait for
	// every stage; fg/bg synchronize on run.done rather than issuing a
	// second wait4 against pids os/exec already owns.
	go func() {
		var g errgroup.Group
		for _, st := range stages {
			st := st
			g.Go(st.cmd.Wait)
		}
		err := g.Wait()
		status := 0
		if err != nil {
			status = exitStatus(err)
		}
		run.status = status
		e.State.Jobs.SetStatus(pgid, shell.JobDone)
		close(run.done)
	}()

	if cl.Background {
		fmt.Fprintf(e.Stderr, "[%d] %d\n", job.ID, pgid)
		e.State.SetStatus(0, cl.String())
		return nil
	}

	e.setForegroundPgid(pgid)
	<-run.done
	e.setForegroundPgid(e.origPgid)

	e.runsMu.Lock()
	delete(e.runs, pgid)
	e.runsMu.Unlock()
	e.State.Jobs.Remove(pgid)
	e.State.SetStatus(run.status, cl.String())
	return nil
}

func applyRedirs(cmd *exec.Cmd, c *parser.Command) error {
	if c.RedirectFrom != nil {
		switch c.RedirectFrom.Op {
		case parser.RedirRead:
			f, err := os.Open(c.RedirectFrom.Value)
			if err != nil {
				return err
			}
			cmd.Stdin = f
		case parser.RedirHereStr:
			cmd.Stdin = strings.NewReader(c.RedirectFrom.Value + "\n")
		}
	}
	for _, r := range c.Redirs {
		switch r.Op {
		case parser.RedirWrite, parser.RedirAppend:
			if r.Target == "&1" || r.Target == "&2" {
				dst := cmd.Stdout
				if r.Target == "&2" {
					dst = cmd.Stderr
				}
				setFD(cmd, r.FDFrom, dst)
				continue
			}
			flags := os.O_WRONLY | os.O_CREATE
			if r.Op == parser.RedirAppend {
				flags |= os.O_APPEND
			} else {
				flags |= os.O_TRUNC
			}
			f, err := os.OpenFile(r.Target, flags, 0644)
			if err != nil {
				return err
			}
			setFD(cmd, r.FDFrom, f)
		case parser.RedirRead:
			f, err := os.Open(r.Target)
			if err != nil {
				return err
			}
			setFD(cmd, r.FDFrom, f)
		}
	}
	return nil
}

func setFD(cmd *exec.Cmd, fdFrom string, w interface{}) {
	switch fdFrom {
	case "2":
		if ww, ok := w.(io.Writer); ok {
			cmd.Stderr = ww
		}
	default:
		if ww, ok := w.(io.Writer); ok {
			cmd.Stdout = ww
		}
		if rw, ok := w.(io.Reader); ok && fdFrom == "0" {
			cmd.Stdin = rw
		}
	}
}

func exitStatus(err error) int {
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		if ws, ok := ee.Sys().(syscall.WaitStatus); ok {
			if ws.Signaled() {
				return 128 + int(ws.Signal())
			}
			return ws.ExitStatus()
		}
		return 1
	}
	return 1
}

// setForegroundPgid hands the controlling terminal to pgid, mirroring the
// ioctl the teacher's raw-mode terminal backend uses for TIOCGWINSZ.
func (e *Executor) setForegroundPgid(pgid int) {
	if pgid <= 0 {
		return
	}
	_ = unix.IoctlSetPointerInt(int(os.Stdin.Fd()), unix.TIOCSPGRP, pgid)
}

// waitForPgid blocks until the pipeline reaper goroutine for pgid has
// observed every stage exit, then restores the shell's own foreground
// pgid. Used by the `fg` builtin to resume a backgrounded job.
func (e *Executor) waitForPgid(pgid int) {
	e.runsMu.Lock()
	run, ok := e.runs[pgid]
	e.runsMu.Unlock()
	if !ok {
		return
	}
	<-run.done
	e.runsMu.Lock()
	delete(e.runs, pgid)
	e.runsMu.Unlock()
	e.State.Jobs.Remove(pgid)
	e.State.SetStatus(run.status, "")
	e.setForegroundPgid(e.origPgid)
}
