package term

import (
	"sync"
	"time"

	"github.com/gdamore/tcell"
)

// MemoryTerminal is the in-memory Terminal double of §4.1: a fixed-size
// character grid with push_input/read_input and verbatim clear/move/write
// semantics (including \n advancing the line and scrolling up by one past
// the last line). The cell grid is a tcell SimulationScreen; the cursor
// position and the scroll-up are tracked by MemoryTerminal itself.
type MemoryTerminal struct {
	mu     sync.Mutex
	screen tcell.SimulationScreen
	row    int
	col    int
	rows   int
	cols   int

	reader *memReader
	writer *memWriter
}

// NewMemoryTerminal creates a grid of the given size and primes it with a
// SimulationScreen so writes land on real cells.
func NewMemoryTerminal(rows, cols int) *MemoryTerminal {
	s := tcell.NewSimulationScreen("")
	_ = s.Init()
	s.SetSize(cols, rows)
	t := &MemoryTerminal{screen: s, rows: rows, cols: cols}
	t.reader = &memReader{t: t, in: make(chan []byte, 64), resize: make(chan Size, 8), cancel: make(chan struct{})}
	t.writer = &memWriter{t: t}
	return t
}

func (t *MemoryTerminal) Reader() Reader { return t.reader }
func (t *MemoryTerminal) Writer() Writer { return t.writer }
func (t *MemoryTerminal) LockRead()      {}
func (t *MemoryTerminal) UnlockRead()    {}
func (t *MemoryTerminal) LockWrite()     {}
func (t *MemoryTerminal) UnlockWrite()   {}
func (t *MemoryTerminal) Close() error   { t.screen.Fini(); return nil }

// PushInput enqueues bytes as if typed at the keyboard, for Reader.Read to
// drain.
func (t *MemoryTerminal) PushInput(b []byte) { t.reader.in <- append([]byte(nil), b...) }

// PushResize enqueues a resize event ahead of further reads.
func (t *MemoryTerminal) PushResize(rows, cols int) {
	t.mu.Lock()
	t.rows, t.cols = rows, cols
	t.screen.SetSize(cols, rows)
	t.mu.Unlock()
	t.reader.resize <- Size{Rows: rows, Cols: cols}
}

// Cell returns the rune drawn at (row, col), for test assertions.
func (t *MemoryTerminal) Cell(row, col int) rune {
	t.mu.Lock()
	defer t.mu.Unlock()
	mainc, _, _, _ := t.screen.GetContent(col, row)
	return mainc
}

// Row renders one row of the grid as a string, trailing spaces trimmed.
func (t *MemoryTerminal) Row(row int) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	cols, _ := t.screen.Size()
	runes := make([]rune, 0, cols)
	for c := 0; c < cols; c++ {
		mainc, _, _, _ := t.screen.GetContent(c, row)
		if mainc == 0 {
			mainc = ' '
		}
		runes = append(runes, mainc)
	}
	n := len(runes)
	for n > 0 && runes[n-1] == ' ' {
		n--
	}
	return string(runes[:n])
}

type memReader struct {
	t      *MemoryTerminal
	in     chan []byte
	resize chan Size
	cancel chan struct{}
}

func (r *memReader) Prepare(blockSignals, reportSignals bool) (RawState, error) { return struct{}{}, nil }
func (r *memReader) Restore(RawState) error                                    { return nil }

func (r *memReader) Read(buf []byte) (Event, error) {
	select {
	case sz := <-r.resize:
		return Event{Kind: EventResize, Size: sz}, nil
	case b := <-r.in:
		n := copy(buf, b)
		return Event{Kind: EventBytes, N: n}, nil
	case <-r.cancel:
		return Event{}, ErrClosed
	}
}

func (r *memReader) WaitForInput(timeout time.Duration) (bool, error) {
	if timeout <= 0 {
		select {
		case b := <-r.in:
			r.in <- b
			return true, nil
		case <-r.cancel:
			return false, ErrClosed
		}
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case b := <-r.in:
		r.in <- b
		return true, nil
	case <-t.C:
		return false, nil
	}
}

func (r *memReader) Cancel() {
	select {
	case <-r.cancel:
	default:
		close(r.cancel)
	}
}

type memWriter struct{ t *MemoryTerminal }

func (w *memWriter) Size() (Size, error) {
	w.t.mu.Lock()
	defer w.t.mu.Unlock()
	return Size{Rows: w.t.rows, Cols: w.t.cols}, nil
}

func (w *memWriter) Clear() error {
	w.t.mu.Lock()
	defer w.t.mu.Unlock()
	w.t.screen.Clear()
	w.t.row, w.t.col = 0, 0
	return nil
}

func (w *memWriter) ClearToEOS() error {
	w.t.mu.Lock()
	defer w.t.mu.Unlock()
	for r := w.t.row; r < w.t.rows; r++ {
		startCol := 0
		if r == w.t.row {
			startCol = w.t.col
		}
		for c := startCol; c < w.t.cols; c++ {
			w.t.screen.SetContent(c, r, ' ', nil, tcell.StyleDefault)
		}
	}
	return nil
}

func (w *memWriter) MoveUp(n int) error {
	w.t.mu.Lock()
	defer w.t.mu.Unlock()
	w.t.row -= n
	if w.t.row < 0 {
		w.t.row = 0
	}
	return nil
}

func (w *memWriter) MoveDown(n int) error {
	w.t.mu.Lock()
	defer w.t.mu.Unlock()
	w.t.row += n
	if w.t.row >= w.t.rows {
		w.t.row = w.t.rows - 1
	}
	return nil
}

func (w *memWriter) MoveLeft(n int) error {
	w.t.mu.Lock()
	defer w.t.mu.Unlock()
	w.t.col -= n
	if w.t.col < 0 {
		w.t.col = 0
	}
	return nil
}

func (w *memWriter) MoveRight(n int) error {
	w.t.mu.Lock()
	defer w.t.mu.Unlock()
	w.t.col += n
	if w.t.col >= w.t.cols {
		w.t.col = w.t.cols - 1
	}
	return nil
}

func (w *memWriter) MoveToCol0() error {
	w.t.mu.Lock()
	defer w.t.mu.Unlock()
	w.t.col = 0
	return nil
}

func (w *memWriter) SetCursorMode(CursorMode) error { return nil }

// WriteString writes verbatim: \n advances the line (scrolling the grid up
// by one once past the last line), everything else is drawn starting at
// the current cursor cell and advances the column.
func (w *memWriter) WriteString(s string) (int, error) {
	w.t.mu.Lock()
	defer w.t.mu.Unlock()
	for _, r := range s {
		if r == '\n' {
			w.t.row++
			w.t.col = 0
			if w.t.row >= w.t.rows {
				w.scrollUp()
				w.t.row = w.t.rows - 1
			}
			continue
		}
		if r == '\r' {
			w.t.col = 0
			continue
		}
		if w.t.col >= w.t.cols {
			w.t.col = 0
			w.t.row++
			if w.t.row >= w.t.rows {
				w.scrollUp()
				w.t.row = w.t.rows - 1
			}
		}
		w.t.screen.SetContent(w.t.col, w.t.row, r, nil, tcell.StyleDefault)
		w.t.col++
	}
	return len(s), nil
}

func (w *memWriter) scrollUp() {
	cols, rows := w.t.cols, w.t.rows
	for r := 1; r < rows; r++ {
		for c := 0; c < cols; c++ {
			mainc, _, style, _ := w.t.screen.GetContent(c, r)
			w.t.screen.SetContent(c, r-1, mainc, nil, style)
		}
	}
	for c := 0; c < cols; c++ {
		w.t.screen.SetContent(c, rows-1, ' ', nil, tcell.StyleDefault)
	}
}

func (w *memWriter) Flush() error {
	w.t.screen.Show()
	return nil
}
