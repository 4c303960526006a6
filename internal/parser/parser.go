package parser

import "fmt"

// Parser is a two-layer recursive-descent parser: a character tokenizer
// (tokenizer.go) feeds a structural layer that groups tokens into pipelines
// (CommandLine), and recognizes the if/elif/else/fi and while/do/done script
// grammar of §4.6.3.
type Parser struct {
	lex *tokenizer
	cur lexToken
}

// NewParser creates a reusable parser. Parse may be called repeatedly.
func NewParser() *Parser {
	return &Parser{}
}

// Parse parses one input (a line or a whole script) into a Node. A nil Node
// with a nil error means the input held nothing but whitespace/comments.
func (p *Parser) Parse(input string) (Node, error) {
	p.lex = newTokenizer(input)
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p.parseScript()
}

func (p *Parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.cur = t
	return nil
}

func (p *Parser) skipSeparators() error {
	for p.cur.Kind == tokNewline || p.cur.Kind == tokSemi {
		if err := p.advance(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) isWord(text string) bool {
	return p.cur.Kind == tokWord && p.cur.Tok.Sep == "" && p.cur.Tok.Text == text
}

func (p *Parser) atStatementEnd() bool {
	switch p.cur.Kind {
	case tokEOF, tokSemi, tokNewline:
		return true
	default:
		return p.isWord("then") || p.isWord("do") || p.isWord("elif") || p.isWord("else") || p.isWord("fi") || p.isWord("done")
	}
}

// parseScript parses EXP := (CMD | EXP_IF | EXP_WHILE)* up to EOF.
func (p *Parser) parseScript() (Node, error) {
	stmts, err := p.parseStatementsUntil(func() bool { return p.cur.Kind == tokEOF })
	if err != nil {
		return nil, err
	}
	return collapseScript(stmts), nil
}

// parseBody parses EXP_BODY := EXP up to (but not consuming) one of the
// given terminator keywords.
func (p *Parser) parseBody(terminators ...string) (Node, error) {
	stmts, err := p.parseStatementsUntil(func() bool {
		if p.cur.Kind == tokEOF {
			return true
		}
		for _, kw := range terminators {
			if p.isWord(kw) {
				return true
			}
		}
		return false
	})
	if err != nil {
		return nil, err
	}
	return collapseScript(stmts), nil
}

func collapseScript(stmts []Node) Node {
	if len(stmts) == 0 {
		return nil
	}
	if len(stmts) == 1 {
		return stmts[0]
	}
	return &ScriptNode{Statements: stmts}
}

func (p *Parser) parseStatementsUntil(done func() bool) ([]Node, error) {
	var stmts []Node
	if err := p.skipSeparators(); err != nil {
		return nil, err
	}
	for !done() {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
		if err := p.skipSeparators(); err != nil {
			return nil, err
		}
	}
	return stmts, nil
}

// parseStatement parses one top-level statement, folding any run of
// ';', "&&", "||"-joined pipelines in source order into a left-associative
// chain of SequenceNode/ConditionalNode.
func (p *Parser) parseStatement() (Node, error) {
	node, err := p.parseControlOrPipeline()
	if err != nil || node == nil {
		return node, err
	}
	for {
		var op string
		switch p.cur.Kind {
		case tokSemi:
			op = ";"
		case tokAndAnd:
			op = "&&"
		case tokOrOr:
			op = "||"
		default:
			return node, nil
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.skipBlankLines(); err != nil {
			return nil, err
		}
		if p.atStatementEnd() {
			return node, nil
		}
		right, err := p.parseControlOrPipeline()
		if err != nil {
			return nil, err
		}
		if right == nil {
			return node, nil
		}
		if op == ";" {
			node = &SequenceNode{Statements: []Node{node, right}}
		} else {
			node = &ConditionalNode{Left: node, Operator: op, Right: right}
		}
	}
}

func (p *Parser) skipBlankLines() error {
	for p.cur.Kind == tokNewline {
		if err := p.advance(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) parseControlOrPipeline() (Node, error) {
	switch {
	case p.isWord("if"):
		return p.parseIf()
	case p.isWord("while"):
		return p.parseWhile()
	case p.cur.Kind == tokWord:
		if fn, err, ok := p.tryParseFuncDef(); ok {
			return fn, err
		}
		return p.parseCommandLineNode()
	default:
		return nil, nil
	}
}

// parseIf parses EXP_IF := "if" TEST (";")? ("then")? EXP_BODY
//
//	("elif" TEST (";")? ("then")? EXP_BODY)* ("else" EXP_BODY)? "fi"
func (p *Parser) parseIf() (Node, error) {
	var branches []IfBranch
	for {
		if err := p.advance(); err != nil { // consume "if" / "elif"
			return nil, err
		}
		test, err := p.parseBody("then", "do")
		if err != nil {
			return nil, err
		}
		if p.cur.Kind == tokSemi {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		if err := p.skipBlankLines(); err != nil {
			return nil, err
		}
		if p.isWord("then") {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		body, err := p.parseBody("elif", "else", "fi")
		if err != nil {
			return nil, err
		}
		branches = append(branches, IfBranch{Test: test, Body: body})
		if p.isWord("elif") {
			continue
		}
		break
	}
	if p.isWord("else") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		body, err := p.parseBody("fi")
		if err != nil {
			return nil, err
		}
		branches = append(branches, IfBranch{Test: nil, Body: body})
	}
	if !p.isWord("fi") {
		return nil, fmt.Errorf("expected 'fi' at position %d", p.cur.Pos)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return &IfNode{Branches: branches}, nil
}

// parseWhile parses EXP_WHILE := "while" TEST (";")? ("do")? EXP_BODY "done"
func (p *Parser) parseWhile() (Node, error) {
	if err := p.advance(); err != nil { // consume "while"
		return nil, err
	}
	test, err := p.parseBody("do")
	if err != nil {
		return nil, err
	}
	if p.cur.Kind == tokSemi {
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if err := p.skipBlankLines(); err != nil {
		return nil, err
	}
	if p.isWord("do") {
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	body, err := p.parseBody("done")
	if err != nil {
		return nil, err
	}
	if !p.isWord("done") {
		return nil, fmt.Errorf("expected 'done' at position %d", p.cur.Pos)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return &WhileNode{Test: test, Body: body}, nil
}

// tryParseFuncDef speculatively recognizes `name() { ... }`. ok is false if
// the current position is not a function definition, in which case no input
// was consumed.
func (p *Parser) tryParseFuncDef() (Node, error, bool) {
	save := *p.lex
	savedCur := p.cur

	name := p.cur.Tok.Text
	if err := p.advance(); err != nil {
		return nil, err, true
	}
	if p.cur.Kind != tokLParen {
		*p.lex, p.cur = save, savedCur
		return nil, nil, false
	}
	if err := p.advance(); err != nil {
		return nil, err, true
	}
	if p.cur.Kind != tokRParen {
		*p.lex, p.cur = save, savedCur
		return nil, nil, false
	}
	if err := p.advance(); err != nil {
		return nil, err, true
	}
	if err := p.skipBlankLines(); err != nil {
		return nil, err, true
	}
	if p.cur.Kind != tokLBrace {
		*p.lex, p.cur = save, savedCur
		return nil, nil, false
	}
	if err := p.advance(); err != nil {
		return nil, err, true
	}
	body, err := p.parseBodyUntilBrace()
	if err != nil {
		return nil, err, true
	}
	if p.cur.Kind != tokRBrace {
		return nil, fmt.Errorf("expected '}' closing function %q at position %d", name, p.cur.Pos), true
	}
	if err := p.advance(); err != nil {
		return nil, err, true
	}
	return &FuncDefNode{Name: name, Body: body}, nil, true
}

func (p *Parser) parseBodyUntilBrace() (Node, error) {
	stmts, err := p.parseStatementsUntil(func() bool {
		return p.cur.Kind == tokEOF || p.cur.Kind == tokRBrace
	})
	if err != nil {
		return nil, err
	}
	return collapseScript(stmts), nil
}

// parseCommandLineNode parses one pipeline (with redirections, env prefix,
// and background flag) and wraps it as a PipelineNode.
func (p *Parser) parseCommandLineNode() (Node, error) {
	cl, err := p.parsePipeline()
	if err != nil {
		return nil, err
	}
	if cl == nil {
		return nil, nil
	}
	return &PipelineNode{Line: cl}, nil
}

func (p *Parser) parsePipeline() (*CommandLine, error) {
	cl := &CommandLine{Env: map[string]string{}}

	// Leading VAR=value assignment prefix (applies to the whole pipeline).
	for p.cur.Kind == tokWord && p.cur.Tok.Sep == "" {
		m := envAssignRe.FindStringSubmatch(p.cur.Tok.Text)
		if m == nil {
			break
		}
		cl.Env[m[1]] = m[2]
		if err := p.advance(); err != nil {
			return nil, err
		}
	}

	first := true
	for {
		cmd, err := p.parseStage(cl, first)
		if err != nil {
			return nil, err
		}
		if cmd == nil {
			if first {
				return nil, nil
			}
			return nil, fmt.Errorf("expected command after '|' at position %d", p.cur.Pos)
		}
		cl.Commands = append(cl.Commands, cmd)
		first = false
		if p.cur.Kind != tokPipe {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}

	if p.cur.Kind == tokAmp {
		cl.Background = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return cl, nil
}

// parseStage parses one pipeline stage: its argv tokens, interleaved
// redirections, and (for the first stage only) a stdin redirection.
func (p *Parser) parseStage(cl *CommandLine, isFirst bool) (*Command, error) {
	cmd := &Command{}
	sawAny := false
	for {
		switch p.cur.Kind {
		case tokWord:
			sawAny = true
			tok := p.cur.Tok
			if op, target, hasTarget, ok := tryParseInRedir(tok); ok {
				if !hasTarget {
					if err := p.advance(); err != nil {
						return nil, err
					}
					if p.cur.Kind != tokWord || p.cur.Tok.Sep != "" {
						return nil, fmt.Errorf("expected target after %q at position %d", op, p.cur.Pos)
					}
					target = p.cur.Tok.Text
				}
				if err := p.advance(); err != nil {
					return nil, err
				}
				if !isFirst {
					return nil, fmt.Errorf("input redirection only allowed on the first pipeline stage")
				}
				cmd.RedirectFrom = &RedirectFrom{Op: RedirOp(op), Value: target}
				continue
			}
			if fd, op, target, hasTarget, ok := tryParseOutRedir(tok); ok {
				if !hasTarget {
					if err := p.advance(); err != nil {
						return nil, err
					}
					if p.cur.Kind != tokWord || p.cur.Tok.Sep != "" {
						return nil, fmt.Errorf("expected redirection target at position %d", p.cur.Pos)
					}
					target = p.cur.Tok.Text
				}
				if err := p.advance(); err != nil {
					return nil, err
				}
				redir, err := ParseRedirection(fd, op, target)
				if err != nil {
					return nil, err
				}
				cmd.Redirs = append(cmd.Redirs, redir)
				continue
			}
			cmd.Tokens = append(cmd.Tokens, tok)
			if err := p.advance(); err != nil {
				return nil, err
			}
		default:
			if !sawAny {
				return nil, nil
			}
			if len(cmd.Tokens) == 0 {
				return nil, fmt.Errorf("command has no tokens after expansion at position %d", p.cur.Pos)
			}
			return cmd, nil
		}
	}
}
