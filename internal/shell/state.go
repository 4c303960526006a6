// Package shell holds the shell's process-wide state: aliases, functions,
// the environment overlay, the job table, working-directory history, and
// the last exit status (§4.8). It is the "S" component — the Line Editor,
// Parser, and Executor all take a short-lived view of it rather than
// owning any of it themselves.
package shell

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"sync"

	"github.com/mako10k/gosh/internal/parser"
)

// ArithmeticEval is the external collaborator hook for the calculator
// shortcut (§4.7 step 2, out of scope per spec Non-goals — interface only).
// When non-nil and a pipeline's sole command is a pure arithmetic
// expression, the Executor calls it instead of spawning a process.
type ArithmeticEval func(expr string) (string, bool)

// State is the single mutable struct the spec describes in §4.8. Fields
// touched by both the Line Editor's read-line call and external builtins
// are guarded by mu; everything else is main-thread-only by convention
// (see §5's shared-resource policy).
type State struct {
	mu sync.RWMutex

	Aliases   map[string]string
	Functions map[string]*parser.FuncDefNode
	Env       map[string]string // overlay on top of os.Environ

	Jobs *JobTable

	PrevDir string
	CurDir  string

	PrevStatus int
	PrevCmd    string

	SessionID string

	ExitOnError  bool
	CatchSignals bool

	Arithmetic ArithmeticEval
}

// New creates a fresh Shell state rooted at the process's current
// directory, matching the teacher's NewShell(config) constructor shape.
func New() *State {
	wd, _ := os.Getwd()
	return &State{
		Aliases:      make(map[string]string),
		Functions:    make(map[string]*parser.FuncDefNode),
		Env:          make(map[string]string),
		Jobs:         NewJobTable(),
		CurDir:       wd,
		PrevDir:      wd,
		SessionID:    newSessionID(),
		CatchSignals: true,
	}
}

func newSessionID() string {
	var buf [6]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "00000000000"
	}
	return hex.EncodeToString(buf[:])
}

// Getenv resolves a variable, preferring the shell's overlay over the
// process environment — the overlay is what CommandLine env prefixes and
// `export` write to.
func (s *State) Getenv(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.Env[name]; ok {
		return v, true
	}
	v, ok := os.LookupEnv(name)
	return v, ok
}

// Setenv writes to the shell's overlay. The process environment itself is
// left unchanged; child processes see overlay variables through Environ.
func (s *State) Setenv(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Env[name] = value
}

// Unsetenv removes a variable from the overlay.
func (s *State) Unsetenv(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Env, name)
}

// Environ renders the full child-process environment: the process
// environment overlaid with the shell's own overlay map.
func (s *State) Environ() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	base := os.Environ()
	overlay := make(map[string]string, len(s.Env))
	for k, v := range s.Env {
		overlay[k] = v
	}
	out := make([]string, 0, len(base)+len(overlay))
	seen := make(map[string]bool, len(overlay))
	for _, kv := range base {
		k := kv
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				k = kv[:i]
				break
			}
		}
		if v, ok := overlay[k]; ok {
			out = append(out, k+"="+v)
			seen[k] = true
		} else {
			out = append(out, kv)
		}
	}
	for k, v := range overlay {
		if !seen[k] {
			out = append(out, k+"="+v)
		}
	}
	return out
}

// SetAlias / Alias / Unalias manage the alias map.
func (s *State) SetAlias(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Aliases[name] = value
}

func (s *State) Alias(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.Aliases[name]
	return v, ok
}

func (s *State) Unalias(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Aliases, name)
}

// DefineFunc / Func manage user-defined `name() { ... }` functions.
func (s *State) DefineFunc(def *parser.FuncDefNode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Functions[def.Name] = def
}

func (s *State) Func(name string) (*parser.FuncDefNode, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.Functions[name]
	return f, ok
}

// Chdir updates CurDir/PrevDir and the PWD overlay entry. The executor's
// `cd` builtin calls it after changing the process's working directory.
func (s *State) Chdir(dir string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PrevDir = s.CurDir
	s.CurDir = dir
	s.Env["PWD"] = dir
}

// SetStatus records the exit status and source text of the last pipeline,
// honouring ExitOnError by returning whether the shell should now exit.
func (s *State) SetStatus(status int, cmdText string) (shouldExit bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PrevStatus = status
	s.PrevCmd = cmdText
	return s.ExitOnError && status != 0
}

func (s *State) Status() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.PrevStatus
}
