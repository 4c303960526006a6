package editor

import (
	"testing"
	"time"

	"github.com/mako10k/gosh/internal/history"
	"github.com/mako10k/gosh/internal/keymap"
	"github.com/mako10k/gosh/internal/term"
)

func TestReadLineAcceptsSimpleInput(t *testing.T) {
	mt := term.NewMemoryTerminal(24, 80)
	e := New(mt, keymap.Default(), history.New(0))

	resultCh := make(chan string, 1)
	errCh := make(chan error, 1)
	go func() {
		line, err := e.ReadLine("$ ")
		if err != nil {
			errCh <- err
			return
		}
		resultCh <- line
	}()

	mt.PushInput([]byte("echo hi"))
	mt.PushInput([]byte("\r"))

	select {
	case line := <-resultCh:
		if line != "echo hi" {
			t.Fatalf("ReadLine() = %q, want %q", line, "echo hi")
		}
	case err := <-errCh:
		t.Fatalf("ReadLine() error: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("ReadLine() timed out")
	}
}

func TestReadLineBackspaceEditsBuffer(t *testing.T) {
	mt := term.NewMemoryTerminal(24, 80)
	e := New(mt, keymap.Default(), history.New(0))

	resultCh := make(chan string, 1)
	go func() {
		line, _ := e.ReadLine("$ ")
		resultCh <- line
	}()

	mt.PushInput([]byte("echoo"))
	mt.PushInput([]byte{0x7f}) // backward-delete-char
	mt.PushInput([]byte("\r"))

	select {
	case line := <-resultCh:
		if line != "echo" {
			t.Fatalf("ReadLine() = %q, want %q", line, "echo")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ReadLine() timed out")
	}
}

func TestReadLineHistoryNavigation(t *testing.T) {
	h := history.New(0)
	h.AddLine("first command")
	h.AddLine("second command")

	mt := term.NewMemoryTerminal(24, 80)
	e := New(mt, keymap.Default(), h)

	resultCh := make(chan string, 1)
	go func() {
		line, _ := e.ReadLine("$ ")
		resultCh <- line
	}()

	mt.PushInput([]byte("\x10")) // previous-history (^P)
	mt.PushInput([]byte("\r"))

	select {
	case line := <-resultCh:
		if line != "second command" {
			t.Fatalf("ReadLine() = %q, want %q", line, "second command")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ReadLine() timed out")
	}
}
