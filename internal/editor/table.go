package editor

import (
	"strings"

	"github.com/mako10k/gosh/internal/completion"
	"github.com/mattn/go-runewidth"
)

const colSpace = 2

// formatColumns sizes candidates into as many columns as fit screenWidth,
// returning nil if even a single column would overflow or there is no
// useful multi-column layout.
func formatColumns(items []string, screenWidth int, horizontal bool) []int {
	n := len(items)
	if n == 0 || screenWidth <= 0 {
		return nil
	}

	minLen, maxLen := 0, 0
	for i, s := range items {
		w := runewidth.StringWidth(s)
		if i == 0 || w < minLen {
			minLen = w
		}
		if w > maxLen {
			maxLen = w
		}
	}
	if minLen == 0 {
		minLen = 1
	}
	if maxLen == 0 {
		maxLen = 1
	}

	minCols := n
	if screenWidth/maxLen < minCols {
		minCols = screenWidth / maxLen
	}
	maxCols := n
	if screenWidth/minLen < maxCols {
		maxCols = screenWidth / minLen
	}
	if minCols <= 1 {
		minCols = 2
	}
	if maxCols <= 1 {
		return nil
	}
	if minCols > maxCols {
		minCols = maxCols
	}

	for cols := maxCols; cols >= minCols; cols-- {
		sizes := make([]int, cols)
		for i, s := range items {
			w := runewidth.StringWidth(s)
			col := columnFor(i, n, cols, horizontal)
			real := w + colSpace
			if col == cols-1 {
				real = w
			}
			if real > sizes[col] {
				sizes[col] = real
			}
		}
		total := 0
		for _, s := range sizes {
			total += s
		}
		if total <= screenWidth {
			return sizes
		}
	}
	return nil
}

func columnFor(i, n, cols int, horizontal bool) int {
	if horizontal {
		return i % cols
	}
	perCol := (n + cols - 1) / cols
	return i / perCol
}

// RenderCompletionTable formats candidates into screenWidth-bounded rows,
// one string per row, column-major unless horizontal is set.
func RenderCompletionTable(items []completion.Completion, screenWidth int, horizontal bool) []string {
	texts := make([]string, len(items))
	for i, it := range items {
		texts[i] = it.DisplayText()
	}
	sizes := formatColumns(texts, screenWidth, horizontal)
	if sizes == nil {
		return texts
	}
	cols := len(sizes)
	rows := (len(texts) + cols - 1) / cols
	out := make([]string, 0, rows)
	for r := 0; r < rows; r++ {
		var b strings.Builder
		for c := 0; c < cols; c++ {
			idx := itemIndex(r, c, rows, cols, len(texts), horizontal)
			if idx < 0 || idx >= len(texts) {
				continue
			}
			s := texts[idx]
			pad := sizes[c] - runewidth.StringWidth(s)
			b.WriteString(s)
			if c != cols-1 && pad > 0 {
				b.WriteString(strings.Repeat(" ", pad))
			}
		}
		out = append(out, b.String())
	}
	return out
}

func itemIndex(row, col, rows, cols, n int, horizontal bool) int {
	if horizontal {
		return row*cols + col
	}
	perCol := (n + cols - 1) / cols
	return col*perCol + row
}
