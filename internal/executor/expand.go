package executor

import (
	"os"
	"strings"

	"github.com/mako10k/gosh/internal/parser"
)

// expandToken resolves $VAR and ${VAR} references in a token's text, honoring
// its quoting context: single-quoted tokens (Sep == "'") are left verbatim,
// everything else (bare words, double quotes, backticks) expands.
func (e *Executor) expandToken(t parser.Token) string {
	if t.Sep == "'" {
		return t.Text
	}
	return e.expandVars(t.Text)
}

// expandVars performs $NAME / ${NAME} / $? / $$ substitution against the
// shell's environment overlay and a handful of special parameters.
func (e *Executor) expandVars(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '$' || i == len(s)-1 {
			b.WriteByte(c)
			continue
		}
		next := s[i+1]
		switch {
		case next == '{':
			end := strings.IndexByte(s[i+2:], '}')
			if end < 0 {
				b.WriteByte(c)
				continue
			}
			name := s[i+2 : i+2+end]
			b.WriteString(e.lookupVar(name))
			i += 2 + end
		case next == '?':
			b.WriteString(itoa(e.State.Status()))
			i++
		case next == '$':
			b.WriteString(itoa(os.Getpid()))
			i++
		case isNameStart(next):
			j := i + 1
			for j < len(s) && isNameByte(s[j]) {
				j++
			}
			b.WriteString(e.lookupVar(s[i+1 : j]))
			i = j - 1
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func (e *Executor) lookupVar(name string) string {
	v, _ := e.State.Getenv(name)
	return v
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameByte(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9')
}

// expandArgv expands every token of cmd into its final argv.
func (e *Executor) expandArgv(cmd *parser.Command) []string {
	out := make([]string, 0, len(cmd.Tokens))
	for _, t := range cmd.Tokens {
		out = append(out, e.expandToken(t))
	}
	return out
}

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
