package term

import (
	"testing"

	"github.com/creack/pty"
	xterm "golang.org/x/term"
)

// TestUnixTerminalRawModeRoundTrip exercises Prepare/Restore against a real
// pty pair instead of MemoryTerminal's double, so the xterm.MakeRaw/Restore
// calls run against a kernel tty device.
func TestUnixTerminalRawModeRoundTrip(t *testing.T) {
	master, slave, err := pty.Open()
	if err != nil {
		t.Fatalf("pty.Open: %v", err)
	}
	defer master.Close()
	defer slave.Close()

	term, err := NewUnixTerminal(slave, slave)
	if err != nil {
		t.Fatalf("NewUnixTerminal: %v", err)
	}

	state, err := term.Reader().Prepare(false, false)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if !xterm.IsTerminal(int(slave.Fd())) {
		t.Fatalf("slave fd is not recognized as a terminal")
	}
	if err := term.Reader().Restore(state); err != nil {
		t.Fatalf("Restore: %v", err)
	}
}

// TestUnixTerminalSize exercises Writer.Size against the real TIOCGWINSZ
// ioctl after resizing the pty from the master side with pty.Setsize.
func TestUnixTerminalSize(t *testing.T) {
	master, slave, err := pty.Open()
	if err != nil {
		t.Fatalf("pty.Open: %v", err)
	}
	defer master.Close()
	defer slave.Close()

	if err := pty.Setsize(master, &pty.Winsize{Rows: 40, Cols: 100}); err != nil {
		t.Fatalf("pty.Setsize: %v", err)
	}

	term, err := NewUnixTerminal(slave, slave)
	if err != nil {
		t.Fatalf("NewUnixTerminal: %v", err)
	}

	size, err := term.Writer().Size()
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if size.Rows != 40 || size.Cols != 100 {
		t.Fatalf("Size() = %+v, want {Rows:40 Cols:100}", size)
	}
}

// TestUnixTerminalReadWrite exercises a real byte round trip: bytes written
// into the master side of the pty arrive through the Terminal's Reader,
// bound to the slave.
func TestUnixTerminalReadWrite(t *testing.T) {
	master, slave, err := pty.Open()
	if err != nil {
		t.Fatalf("pty.Open: %v", err)
	}
	defer master.Close()
	defer slave.Close()

	term, err := NewUnixTerminal(slave, slave)
	if err != nil {
		t.Fatalf("NewUnixTerminal: %v", err)
	}

	if _, err := master.WriteString("ok\n"); err != nil {
		t.Fatalf("master write: %v", err)
	}

	buf := make([]byte, 16)
	ev, err := term.Reader().Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if ev.Kind != EventBytes {
		t.Fatalf("event kind = %v, want EventBytes", ev.Kind)
	}
	if got := string(buf[:ev.N]); got != "ok\n" {
		t.Fatalf("read %q, want %q", got, "ok\n")
	}
}
