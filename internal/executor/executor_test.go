package executor

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mako10k/gosh/internal/parser"
	"github.com/mako10k/gosh/internal/shell"
)

func newTestExecutor(stdout, stderr *bytes.Buffer) *Executor {
	e := New(shell.New(), nil)
	e.Stdin = strings.NewReader("")
	e.Stdout = stdout
	e.Stderr = stderr
	return e
}

func cmdLine(tokens ...string) *parser.CommandLine {
	toks := make([]parser.Token, len(tokens))
	for i, t := range tokens {
		toks[i] = parser.Token{Text: t}
	}
	return &parser.CommandLine{Commands: []*parser.Command{{Tokens: toks}}}
}

func TestRunLineSimpleCommand(t *testing.T) {
	var out, errb bytes.Buffer
	e := newTestExecutor(&out, &errb)

	cl := cmdLine("/bin/echo", "hello")
	if err := e.RunLine(cl); err != nil {
		t.Fatalf("RunLine() error: %v", err)
	}
	if got := out.String(); got != "hello\n" {
		t.Fatalf("stdout = %q, want %q", got, "hello\n")
	}
	if e.State.Status() != 0 {
		t.Fatalf("status = %d, want 0", e.State.Status())
	}
}

func TestRunLinePipeline(t *testing.T) {
	var out, errb bytes.Buffer
	e := newTestExecutor(&out, &errb)

	cl := &parser.CommandLine{
		Commands: []*parser.Command{
			{Tokens: []parser.Token{{Text: "/bin/echo"}, {Text: "a b c"}}},
			{Tokens: []parser.Token{{Text: "/usr/bin/wc"}, {Text: "-w"}}},
		},
	}
	if err := e.RunLine(cl); err != nil {
		t.Fatalf("RunLine() error: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "3" {
		t.Fatalf("stdout = %q, want %q", got, "3")
	}
}

func TestRunLineRedirection(t *testing.T) {
	var out, errb bytes.Buffer
	e := newTestExecutor(&out, &errb)

	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	cl := cmdLine("/bin/echo", "redirected")
	cl.Commands[0].Redirs = []parser.Redirection{{FDFrom: "1", Op: parser.RedirWrite, Target: path}}

	if err := e.RunLine(cl); err != nil {
		t.Fatalf("RunLine() error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "redirected\n" {
		t.Fatalf("file contents = %q, want %q", data, "redirected\n")
	}
}

func TestRunLineNonzeroExitStatus(t *testing.T) {
	var out, errb bytes.Buffer
	e := newTestExecutor(&out, &errb)

	cl := cmdLine("/bin/sh", "-c", "exit 3")
	if err := e.RunLine(cl); err != nil {
		t.Fatalf("RunLine() error: %v", err)
	}
	if e.State.Status() != 3 {
		t.Fatalf("status = %d, want 3", e.State.Status())
	}
}

func TestRunLineConditionalShortCircuit(t *testing.T) {
	var out, errb bytes.Buffer
	e := newTestExecutor(&out, &errb)

	left := &parser.PipelineNode{Line: cmdLine("/bin/sh", "-c", "exit 1")}
	right := &parser.PipelineNode{Line: cmdLine("/bin/echo", "should-not-print")}
	cond := &parser.ConditionalNode{Left: left, Operator: "&&", Right: right}

	if err := e.Execute(cond); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if strings.Contains(out.String(), "should-not-print") {
		t.Fatalf("right side of && ran after left failed: %q", out.String())
	}
	if e.State.Status() != 1 {
		t.Fatalf("status = %d, want 1", e.State.Status())
	}
}

func TestRunLineBuiltinCdAndPwd(t *testing.T) {
	var out, errb bytes.Buffer
	e := newTestExecutor(&out, &errb)

	dir := t.TempDir()
	if err := e.RunLine(cmdLine("cd", dir)); err != nil {
		t.Fatalf("cd error: %v", err)
	}
	out.Reset()
	if err := e.RunLine(cmdLine("pwd")); err != nil {
		t.Fatalf("pwd error: %v", err)
	}
	got := strings.TrimSpace(out.String())
	want, _ := filepath.EvalSymlinks(dir)
	gotResolved, _ := filepath.EvalSymlinks(got)
	if gotResolved != want {
		t.Fatalf("pwd = %q, want %q", got, want)
	}
}

func TestRunLineExportAndExpansion(t *testing.T) {
	var out, errb bytes.Buffer
	e := newTestExecutor(&out, &errb)

	if err := e.RunLine(cmdLine("export", "FOO=bar")); err != nil {
		t.Fatalf("export error: %v", err)
	}
	cl := cmdLine("/bin/sh", "-c", "echo $FOO")
	if err := e.RunLine(cl); err != nil {
		t.Fatalf("RunLine() error: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "bar" {
		t.Fatalf("stdout = %q, want %q", got, "bar")
	}
}

func TestRunLineIfNode(t *testing.T) {
	var out, errb bytes.Buffer
	e := newTestExecutor(&out, &errb)

	ifNode := &parser.IfNode{Branches: []parser.IfBranch{
		{Test: &parser.PipelineNode{Line: cmdLine("/bin/sh", "-c", "exit 1")}, Body: &parser.PipelineNode{Line: cmdLine("/bin/echo", "then-branch")}},
		{Test: nil, Body: &parser.PipelineNode{Line: cmdLine("/bin/echo", "else-branch")}},
	}}
	if err := e.Execute(ifNode); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "else-branch" {
		t.Fatalf("output = %q, want %q", got, "else-branch")
	}
}
