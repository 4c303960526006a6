package editor

import "testing"

func newTestEditor(buf string, cursor int) *Editor {
	e := New(nil, nil, nil)
	e.Options = DefaultOptions()
	e.buffer = buf
	e.cursor = cursor
	return e
}

func TestForwardBackwardWord(t *testing.T) {
	e := newTestEditor("echo hello world", 0)
	end := e.forwardWordEnd(0, 1)
	if e.buffer[:end] != "echo" {
		t.Fatalf("forwardWordEnd = %q, want echo", e.buffer[:end])
	}
	end2 := e.forwardWordEnd(end, 1)
	if e.buffer[end:end2] != " hello" {
		t.Fatalf("second forwardWordEnd = %q, want \" hello\"", e.buffer[end:end2])
	}
	start := e.backwardWordStart(end2, 1)
	if e.buffer[start:end2] != "hello" {
		t.Fatalf("backwardWordStart = %q, want hello", e.buffer[start:end2])
	}
}

func TestKillRangeMergesOnRepeat(t *testing.T) {
	e := newTestEditor("one two three", len("one two three"))
	if err := e.cmdBackwardKillWord(1, 0); err != nil {
		t.Fatal(err)
	}
	if got, _ := e.killRing.Front(); got != "three" {
		t.Fatalf("first kill = %q, want three", got)
	}
	e.lastCmdCat = CategoryKill
	if err := e.cmdBackwardKillWord(1, 0); err != nil {
		t.Fatal(err)
	}
	got, _ := e.killRing.Front()
	if got != "two three" {
		t.Fatalf("merged kill = %q, want %q", got, "two three")
	}
}

func TestTransposeChars(t *testing.T) {
	e := newTestEditor("ab", 2)
	if err := e.cmdTransposeChars(1, 0); err != nil {
		t.Fatal(err)
	}
	if e.buffer != "ba" {
		t.Fatalf("buffer = %q, want ba", e.buffer)
	}
}

func TestDigitArgumentAccumulates(t *testing.T) {
	e := newTestEditor("", 0)
	if err := e.cmdDigitArgument(0, '4'); err != nil {
		t.Fatal(err)
	}
	if err := e.cmdDigitArgument(0, '2'); err != nil {
		t.Fatal(err)
	}
	if e.inputArg != 42 {
		t.Fatalf("inputArg = %d, want 42", e.inputArg)
	}
}
