package executor

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// ExitError unwinds Execute back to the REPL loop with a final status, used
// by the `exit` builtin.
type ExitError struct{ Status int }

func (e *ExitError) Error() string { return fmt.Sprintf("exit: status %d", e.Status) }

// builtin is a shell builtin: it runs in the executor's own process rather
// than forking, so it can mutate shell.State directly.
type builtin func(e *Executor, argv []string, stdout, stderr io.Writer) (int, error)

var builtins = map[string]builtin{
	"cd":      builtinCd,
	"pwd":     builtinPwd,
	"exit":    builtinExit,
	"export":  builtinExport,
	"unset":   builtinUnset,
	"alias":   builtinAlias,
	"unalias": builtinUnalias,
	"jobs":    builtinJobs,
	"fg":      builtinFg,
	"bg":      builtinBg,
	"true":    func(*Executor, []string, io.Writer, io.Writer) (int, error) { return 0, nil },
	"false":   func(*Executor, []string, io.Writer, io.Writer) (int, error) { return 1, nil },
	":":       func(*Executor, []string, io.Writer, io.Writer) (int, error) { return 0, nil },
}

func builtinCd(e *Executor, argv []string, stdout, stderr io.Writer) (int, error) {
	dir := ""
	if len(argv) > 1 {
		dir = argv[1]
	} else if home, ok := e.State.Getenv("HOME"); ok {
		dir = home
	}
	if dir == "-" {
		dir = e.State.PrevDir
	}
	if !strings.HasPrefix(dir, "/") && dir != "" {
		dir = e.State.CurDir + "/" + dir
	}
	if err := os.Chdir(dir); err != nil {
		fmt.Fprintf(stderr, "cd: %s\n", err)
		return 1, nil
	}
	resolved, err := os.Getwd()
	if err != nil {
		resolved = dir
	}
	e.State.Chdir(resolved)
	return 0, nil
}

func builtinPwd(e *Executor, argv []string, stdout, stderr io.Writer) (int, error) {
	fmt.Fprintln(stdout, e.State.CurDir)
	return 0, nil
}

func builtinExit(e *Executor, argv []string, stdout, stderr io.Writer) (int, error) {
	status := e.State.Status()
	if len(argv) > 1 {
		if n, err := strconv.Atoi(argv[1]); err == nil {
			status = n
		}
	}
	return status, &ExitError{Status: status}
}

func builtinExport(e *Executor, argv []string, stdout, stderr io.Writer) (int, error) {
	for _, arg := range argv[1:] {
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			continue
		}
		e.State.Setenv(name, value)
	}
	return 0, nil
}

func builtinUnset(e *Executor, argv []string, stdout, stderr io.Writer) (int, error) {
	for _, name := range argv[1:] {
		e.State.Unsetenv(name)
	}
	return 0, nil
}

func builtinAlias(e *Executor, argv []string, stdout, stderr io.Writer) (int, error) {
	if len(argv) == 1 {
		return 0, nil
	}
	for _, arg := range argv[1:] {
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			if v, has := e.State.Alias(arg); has {
				fmt.Fprintf(stdout, "alias %s='%s'\n", arg, v)
			}
			continue
		}
		e.State.SetAlias(name, value)
	}
	return 0, nil
}

func builtinUnalias(e *Executor, argv []string, stdout, stderr io.Writer) (int, error) {
	for _, name := range argv[1:] {
		e.State.Unalias(name)
	}
	return 0, nil
}

func builtinJobs(e *Executor, argv []string, stdout, stderr io.Writer) (int, error) {
	for _, j := range e.State.Jobs.List() {
		fmt.Fprintf(stdout, "[%d]  %s\t%s\n", j.ID, j.Status, j.Cmd)
	}
	return 0, nil
}

func jobFromArg(e *Executor, argv []string) (pgid int, ok bool) {
	if len(argv) < 2 {
		jobs := e.State.Jobs.List()
		if len(jobs) == 0 {
			return 0, false
		}
		return jobs[len(jobs)-1].PGID, true
	}
	spec := strings.TrimPrefix(argv[1], "%")
	id, err := strconv.Atoi(spec)
	if err != nil {
		return 0, false
	}
	j, found := e.State.Jobs.ByID(id)
	if !found {
		return 0, false
	}
	return j.PGID, true
}

func builtinFg(e *Executor, argv []string, stdout, stderr io.Writer) (int, error) {
	pgid, ok := jobFromArg(e, argv)
	if !ok {
		fmt.Fprintln(stderr, "fg: no such job")
		return 1, nil
	}
	_ = unix.Kill(-pgid, unix.SIGCONT)
	e.setForegroundPgid(pgid)
	e.waitForPgid(pgid)
	return e.State.Status(), nil
}

func builtinBg(e *Executor, argv []string, stdout, stderr io.Writer) (int, error) {
	pgid, ok := jobFromArg(e, argv)
	if !ok {
		fmt.Fprintln(stderr, "bg: no such job")
		return 1, nil
	}
	_ = unix.Kill(-pgid, unix.SIGCONT)
	return 0, nil
}
