// Command gosh is the interactive Unix shell built from the Line Editor,
// Parser, Executor, and State packages.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"

	"github.com/mako10k/gosh/internal/shell"
)

var (
	flagCommand = pflag.StringP("command", "c", "", "execute STRING then exit")
	flagLogin   = pflag.BoolP("login", "l", false, "act as a login shell")
	flagHistory = pflag.String("history-file", defaultHistoryFile(), "sqlite history database path")
)

func defaultHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".gosh_history.db")
}

func main() {
	os.Exit(run())
}

func run() int {
	pflag.Parse()

	login := *flagLogin || (len(os.Args) > 0 && strings.HasPrefix(filepath.Base(os.Args[0]), "-"))

	sh, err := NewShell(&Config{
		Login:       login,
		HistoryFile: *flagHistory,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "gosh: %v\n", err)
		return shell.StatusGeneralError
	}
	defer sh.Close()

	if *flagCommand != "" {
		return runOnce(sh, *flagCommand)
	}

	args := pflag.Args()
	if len(args) > 0 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "gosh: %s: %v\n", args[0], err)
			return shell.StatusNotFound
		}
		return runOnce(sh, string(data))
	}

	if !isatty.IsTerminal(os.Stdin.Fd()) {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "gosh: %v\n", err)
			return shell.StatusGeneralError
		}
		return runOnce(sh, string(data))
	}

	return sh.Interactive()
}

func runOnce(sh *Shell, input string) int {
	err := sh.Execute(input)
	if ee, ok := asExitError(err); ok {
		return ee
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "gosh: %v\n", err)
		return shell.StatusGeneralError
	}
	return sh.State.Status()
}
