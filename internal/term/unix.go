package term

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/muesli/cancelreader"
	"golang.org/x/sys/unix"
	xterm "golang.org/x/term"
)

// unixTerminal is the real backend: stdin for input, stdout (or stderr) for
// output, raw mode via golang.org/x/term, signals reported through
// os/signal and checked before each blocking read, and reads that go
// through a muesli/cancelreader so Cancel can interrupt a Read blocked on
// syscall.Read.
type unixTerminal struct {
	in  *os.File
	out *os.File

	readMu, writeMu sync.Mutex

	reader *unixReader
	writer *unixWriter
}

// DefaultTerminal opens the process's stdin/stdout as a Terminal. If stdout
// is not a tty, stderr is used for the write half instead (matching the
// convention of writing prompts to stderr when stdout is redirected).
func DefaultTerminal() (Terminal, error) {
	out := os.Stdout
	if !xterm.IsTerminal(int(os.Stdout.Fd())) && xterm.IsTerminal(int(os.Stderr.Fd())) {
		out = os.Stderr
	}
	return NewUnixTerminal(os.Stdin, out)
}

// NewUnixTerminal builds a Terminal over an arbitrary pair of files backed
// by a real tty device, rather than always binding to the process's own
// stdin/stdout. DefaultTerminal is the production caller; tests use it to
// bind to the slave end of a pty pair instead.
func NewUnixTerminal(in, out *os.File) (Terminal, error) {
	cr, err := cancelreader.NewReader(in)
	if err != nil {
		return nil, err
	}
	t := &unixTerminal{in: in, out: out}
	t.reader = &unixReader{fd: int(in.Fd()), cr: cr}
	t.writer = &unixWriter{f: out}
	return t, nil
}

func (t *unixTerminal) Reader() Reader { return t.reader }
func (t *unixTerminal) Writer() Writer { return t.writer }
func (t *unixTerminal) LockRead()      { t.readMu.Lock() }
func (t *unixTerminal) UnlockRead()    { t.readMu.Unlock() }
func (t *unixTerminal) LockWrite()     { t.writeMu.Lock() }
func (t *unixTerminal) UnlockWrite()   { t.writeMu.Unlock() }
func (t *unixTerminal) Close() error   { return t.reader.cr.Close() }

type rawState struct {
	termState *xterm.State
	sigCh     chan os.Signal
	reported  bool
}

type unixReader struct {
	fd int
	cr cancelreader.CancelReader

	mu     sync.Mutex
	sigCh  chan os.Signal
	report bool
}

func (r *unixReader) Prepare(blockSignals, reportSignals bool) (RawState, error) {
	st, err := xterm.MakeRaw(r.fd)
	if err != nil {
		return nil, err
	}
	rs := &rawState{termState: st}
	if reportSignals {
		rs.sigCh = make(chan os.Signal, 8)
		signal.Notify(rs.sigCh, syscall.SIGINT, syscall.SIGTSTP, syscall.SIGCONT, syscall.SIGWINCH)
		rs.reported = true
		r.mu.Lock()
		r.sigCh = rs.sigCh
		r.report = true
		r.mu.Unlock()
	}
	return rs, nil
}

func (r *unixReader) Restore(state RawState) error {
	rs, _ := state.(*rawState)
	if rs == nil {
		return nil
	}
	if rs.reported {
		signal.Stop(rs.sigCh)
		r.mu.Lock()
		r.sigCh = nil
		r.report = false
		r.mu.Unlock()
	}
	return xterm.Restore(r.fd, rs.termState)
}

func (r *unixReader) Read(buf []byte) (Event, error) {
	r.mu.Lock()
	sigCh, report := r.sigCh, r.report
	r.mu.Unlock()

	if report {
		select {
		case sig := <-sigCh:
			return Event{Kind: EventSignal, Signal: toSignal(sig)}, nil
		default:
		}
	}

	n, err := r.cr.Read(buf)
	if err != nil {
		if cancelreader.IsErrCanceled(err) {
			return Event{}, ErrClosed
		}
		return Event{}, err
	}
	return Event{Kind: EventBytes, N: n}, nil
}

func (r *unixReader) WaitForInput(timeout time.Duration) (bool, error) {
	r.mu.Lock()
	sigCh, report := r.sigCh, r.report
	r.mu.Unlock()
	if report {
		select {
		case sig := <-sigCh:
			sigCh <- sig // put back; next Read will deliver it
			return true, nil
		default:
		}
	}
	ms := -1
	if timeout > 0 {
		ms = int(timeout / time.Millisecond)
	}
	fds := []unix.PollFd{{Fd: int32(r.fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, ms)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *unixReader) Cancel() { r.cr.Cancel() }

func toSignal(s os.Signal) Signal {
	switch s {
	case syscall.SIGINT:
		return SigInt
	case syscall.SIGTSTP:
		return SigTSTP
	case syscall.SIGCONT:
		return SigCont
	case syscall.SIGWINCH:
		return SigWinch
	default:
		return SigInt
	}
}

type unixWriter struct {
	mu sync.Mutex
	f  *os.File
}

func (w *unixWriter) Size() (Size, error) {
	ws, err := unix.IoctlGetWinsize(int(w.f.Fd()), unix.TIOCGWINSZ)
	if err != nil {
		return Size{Rows: 24, Cols: 80}, err
	}
	return Size{Rows: int(ws.Row), Cols: int(ws.Col)}, nil
}

func (w *unixWriter) Clear() error         { _, err := w.WriteString("\x1b[2J\x1b[H"); return err }
func (w *unixWriter) ClearToEOS() error    { _, err := w.WriteString("\x1b[J"); return err }
func (w *unixWriter) MoveUp(n int) error   { return w.csi(n, 'A') }
func (w *unixWriter) MoveDown(n int) error { return w.csi(n, 'B') }
func (w *unixWriter) MoveRight(n int) error { return w.csi(n, 'C') }
func (w *unixWriter) MoveLeft(n int) error  { return w.csi(n, 'D') }
func (w *unixWriter) MoveToCol0() error     { _, err := w.WriteString("\r"); return err }

func (w *unixWriter) csi(n int, final byte) error {
	if n <= 0 {
		return nil
	}
	_, err := w.WriteString("\x1b[" + itoa(n) + string(final))
	return err
}

func (w *unixWriter) SetCursorMode(mode CursorMode) error {
	if mode == CursorOverwrite {
		_, err := w.WriteString("\x1b[4h")
		return err
	}
	_, err := w.WriteString("\x1b[4l")
	return err
}

func (w *unixWriter) WriteString(s string) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.WriteString(s)
}

func (w *unixWriter) Flush() error { return nil }

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
