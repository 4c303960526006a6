package completion

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

// PathCompleter is the default Completer: it offers filesystem entries
// under the directory named by the word being completed. Entries matching
// by prefix are returned in name order; only when none match by prefix are
// fuzzy matches offered instead, ranked by fuzzy score.
type PathCompleter struct {
	WordBreak string
	// Getenv resolves $VAR and ~ expansions; nil means no expansion.
	Getenv func(string) string
}

// NewPathCompleter returns a PathCompleter using DefaultWordBreak.
func NewPathCompleter() *PathCompleter {
	return &PathCompleter{WordBreak: DefaultWordBreak}
}

func (c *PathCompleter) WordStart(line string, end int, p Prompter) int {
	wb := c.WordBreak
	if wb == "" {
		wb = DefaultWordBreak
	}
	return WordStart(line, end, wb)
}

func (c *PathCompleter) Quote(word string) string   { return QuotePath(word) }
func (c *PathCompleter) Unquote(word string) string { return UnquotePath(word) }

// Complete lists directory entries whose name begins with, or fuzzy
// matches, the basename portion of word. Per §4.5 "completion_query_items",
// callers decide whether to prompt before displaying a large result set;
// this method always returns the full candidate list.
func (c *PathCompleter) Complete(word string, p Prompter, start, end int) ([]Completion, bool) {
	dir, base := filepath.Split(word)
	lookupDir := dir
	if lookupDir == "" {
		lookupDir = "."
	}
	if c.Getenv != nil {
		lookupDir = expandHome(lookupDir, c.Getenv)
	}

	entries, err := os.ReadDir(lookupDir)
	if err != nil {
		return nil, false
	}

	names := make([]string, 0, len(entries))
	isDir := make(map[string]bool, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
		isDir[e.Name()] = e.IsDir()
	}

	var candidates []string
	for _, n := range names {
		if strings.HasPrefix(n, base) {
			candidates = append(candidates, n)
		}
	}
	sort.Strings(candidates)
	if len(candidates) == 0 && base != "" {
		matches := fuzzy.Find(base, names)
		sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
		for _, m := range matches {
			candidates = append(candidates, m.Str)
		}
	}
	if len(candidates) == 0 {
		return nil, false
	}

	out :=make([]Completion, 0, len(candidates))
	for _, n := range candidates {
		full := dir + n
		sfx := Suffix{Kind: SuffixDefault}
		if isDir[n] {
			sfx = Suffix{Kind: SuffixChar, Char: '/'}
		}
		out = append(out, Completion{Text: full, Display: n, Suffix: sfx})
	}
	return out, true
}

func expandHome(path string, getenv func(string) string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home := getenv("HOME")
		if home == "" {
			return path
		}
		return home + path[1:]
	}
	return path
}
