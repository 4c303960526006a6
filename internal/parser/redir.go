package parser

import (
	"fmt"
	"regexp"
	"strings"
)

// envAssignRe matches a leading VAR=VALUE environment-assignment prefix.
var envAssignRe = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)=(.*)$`)

// outRedirRe matches an output-redirection word: an optional fd number,
// '>' or '>>', and an optional glued target.
var outRedirRe = regexp.MustCompile(`^(\d*)(>>?)(.*)$`)

// inRedirRe matches an input-redirection or here-string word.
var inRedirRe = regexp.MustCompile(`^(<<<|<)(.*)$`)

func isValidFD(fd string) bool { return fd == "1" || fd == "2" }

func isValidDupTarget(target string) bool { return target == "&1" || target == "&2" }

// tryParseOutRedir attempts to interpret tok as a "1>", "2>>", ">file", ...
// style word. ok is false if tok does not look like a redirection operator
// at all (so the caller should treat it as a plain word).
func tryParseOutRedir(tok Token) (fd, op, target string, hasTarget, ok bool) {
	if tok.Sep != "" {
		return "", "", "", false, false
	}
	m := outRedirRe.FindStringSubmatch(tok.Text)
	if m == nil {
		return "", "", "", false, false
	}
	fd = m[1]
	if fd == "" {
		fd = "1"
	}
	op = m[2]
	target = m[3]
	return fd, op, target, target != "", true
}

func tryParseInRedir(tok Token) (op, target string, hasTarget, ok bool) {
	if tok.Sep != "" {
		return "", "", false, false
	}
	m := inRedirRe.FindStringSubmatch(tok.Text)
	if m == nil {
		return "", "", false, false
	}
	return m[1], m[2], m[2] != "", true
}

// ParseRedirection turns a resolved (fd, op, target) triple into a
// Redirection, validating the invariants from §3.
func ParseRedirection(fd, op, target string) (Redirection, error) {
	if !isValidFD(fd) {
		return Redirection{}, fmt.Errorf("invalid redirection file descriptor %q", fd)
	}
	if strings.HasPrefix(target, "&") && !isValidDupTarget(target) {
		return Redirection{}, fmt.Errorf("invalid redirection target %q", target)
	}
	return Redirection{FDFrom: fd, Op: RedirOp(op), Target: target}, nil
}
