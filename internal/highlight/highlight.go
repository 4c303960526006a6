// Package highlight implements the Highlighter integration of §4.3: given
// the current buffer text, produce a list of (range, style) assignments
// the Line Editor composites over the rendered line.
package highlight

import (
	"bytes"

	"github.com/alecthomas/chroma"
	"github.com/alecthomas/chroma/lexers"
	"github.com/fatih/color"
)

// Span is one styled run of the buffer, as a half-open byte range.
type Span struct {
	Start, End int
	Color      *color.Color
}

// Highlighter maps buffer text to a list of non-overlapping Spans covering
// [0, len(text)). Spans carrying a nil Color are left unstyled.
type Highlighter func(text string) []Span

// Bash returns the default Highlighter, backed by chroma's bash lexer.
// Unrecognized or lexer-error input degrades to a single unstyled span
// rather than failing the line editor.
func Bash() Highlighter {
	lexer := lexers.Get("bash")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return func(text string) []Span {
		spans := tokenize(lexer, text)
		if spans == nil {
			return []Span{{Start: 0, End: len(text)}}
		}
		return spans
	}
}

func tokenize(lexer chroma.Lexer, text string) []Span {
	iter, err := lexer.Tokenise(nil, text)
	if err != nil {
		return nil
	}
	var spans []Span
	pos := 0
	for _, tok := range iter.Tokens() {
		n := len(tok.Value)
		if n == 0 {
			continue
		}
		spans = append(spans, Span{Start: pos, End: pos + n, Color: colorFor(tok.Type)})
		pos += n
	}
	return spans
}

func colorFor(t chroma.TokenType) *color.Color {
	switch {
	case t.InCategory(chroma.Keyword):
		return color.New(color.FgMagenta, color.Bold)
	case t.InCategory(chroma.String):
		return color.New(color.FgGreen)
	case t.InCategory(chroma.Comment):
		return color.New(color.FgHiBlack)
	case t.InCategory(chroma.NameBuiltin), t == chroma.NameFunction:
		return color.New(color.FgCyan)
	case t.InCategory(chroma.Operator), t.InCategory(chroma.Punctuation):
		return color.New(color.FgYellow)
	case t.InCategory(chroma.Number):
		return color.New(color.FgBlue)
	case t.InCategory(chroma.NameVariable):
		return color.New(color.FgHiYellow)
	default:
		return nil
	}
}

// Render composites spans over text into a single ANSI-escaped string,
// suitable for direct WriteString to a term.Writer.
func Render(text string, spans []Span) string {
	var buf bytes.Buffer
	for _, s := range spans {
		if s.Start < 0 || s.End > len(text) || s.Start >= s.End {
			continue
		}
		chunk := text[s.Start:s.End]
		if s.Color == nil {
			buf.WriteString(chunk)
			continue
		}
		buf.WriteString(s.Color.Sprint(chunk))
	}
	return buf.String()
}
