package parser

import (
	"testing"

	"github.com/kylelemons/godebug/pretty"
)

// astDiff renders a structural diff between the parsed Node and the
// expected literal, so a mismatch shows which field disagreed instead of a
// flat %+v dump.
func astDiff(got, want Node) string {
	return pretty.Compare(got, want)
}

func TestParseSimpleCommand(t *testing.T) {
	p := NewParser()
	got, err := p.Parse("echo hello world")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	want := &PipelineNode{Line: &CommandLine{
		Env: map[string]string{},
		Commands: []*Command{{
			Tokens: []Token{{Text: "echo"}, {Text: "hello"}, {Text: "world"}},
		}},
	}}
	if diff := astDiff(got, want); diff != "" {
		t.Fatalf("Parse() mismatch:\n%s", diff)
	}
}

func TestParsePipeline(t *testing.T) {
	p := NewParser()
	got, err := p.Parse("echo a b c | wc -w")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	want := &PipelineNode{Line: &CommandLine{
		Env: map[string]string{},
		Commands: []*Command{
			{Tokens: []Token{{Text: "echo"}, {Text: "a"}, {Text: "b"}, {Text: "c"}}},
			{Tokens: []Token{{Text: "wc"}, {Text: "-w"}}},
		},
	}}
	if diff := astDiff(got, want); diff != "" {
		t.Fatalf("Parse() mismatch:\n%s", diff)
	}
}

func TestParseBackgroundPipeline(t *testing.T) {
	p := NewParser()
	got, err := p.Parse("sleep 1 &")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	want := &PipelineNode{Line: &CommandLine{
		Env:        map[string]string{},
		Background: true,
		Commands: []*Command{
			{Tokens: []Token{{Text: "sleep"}, {Text: "1"}}},
		},
	}}
	if diff := astDiff(got, want); diff != "" {
		t.Fatalf("Parse() mismatch:\n%s", diff)
	}
}

func TestParseEnvPrefix(t *testing.T) {
	p := NewParser()
	got, err := p.Parse("FOO=bar echo $FOO")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	want := &PipelineNode{Line: &CommandLine{
		Env: map[string]string{"FOO": "bar"},
		Commands: []*Command{
			{Tokens: []Token{{Text: "echo"}, {Text: "$FOO"}}},
		},
	}}
	if diff := astDiff(got, want); diff != "" {
		t.Fatalf("Parse() mismatch:\n%s", diff)
	}
}

func TestParseRedirections(t *testing.T) {
	p := NewParser()
	got, err := p.Parse("echo hi > out.txt 2>> err.log < in.txt")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	want := &PipelineNode{Line: &CommandLine{
		Env: map[string]string{},
		Commands: []*Command{{
			Tokens:       []Token{{Text: "echo"}, {Text: "hi"}},
			RedirectFrom: &RedirectFrom{Op: RedirRead, Value: "in.txt"},
			Redirs: []Redirection{
				{FDFrom: "1", Op: RedirWrite, Target: "out.txt"},
				{FDFrom: "2", Op: RedirAppend, Target: "err.log"},
			},
		}},
	}}
	if diff := astDiff(got, want); diff != "" {
		t.Fatalf("Parse() mismatch:\n%s", diff)
	}
}

func TestParseConditionalChain(t *testing.T) {
	p := NewParser()
	got, err := p.Parse("false && echo then-arm || echo else-arm")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	inner := &ConditionalNode{
		Left:     &PipelineNode{Line: &CommandLine{Env: map[string]string{}, Commands: []*Command{{Tokens: []Token{{Text: "false"}}}}}},
		Operator: "&&",
		Right:    &PipelineNode{Line: &CommandLine{Env: map[string]string{}, Commands: []*Command{{Tokens: []Token{{Text: "echo"}, {Text: "then-arm"}}}}}},
	}
	want := &ConditionalNode{
		Left:     inner,
		Operator: "||",
		Right:    &PipelineNode{Line: &CommandLine{Env: map[string]string{}, Commands: []*Command{{Tokens: []Token{{Text: "echo"}, {Text: "else-arm"}}}}}},
	}
	if diff := astDiff(got, want); diff != "" {
		t.Fatalf("Parse() mismatch:\n%s", diff)
	}
}

func TestParseIfElse(t *testing.T) {
	p := NewParser()
	got, err := p.Parse("if false; then echo yes; else echo no; fi")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	want := &IfNode{Branches: []IfBranch{
		{
			Test: &PipelineNode{Line: &CommandLine{Env: map[string]string{}, Commands: []*Command{{Tokens: []Token{{Text: "false"}}}}}},
			Body: &PipelineNode{Line: &CommandLine{Env: map[string]string{}, Commands: []*Command{{Tokens: []Token{{Text: "echo"}, {Text: "yes"}}}}}},
		},
		{
			Test: nil,
			Body: &PipelineNode{Line: &CommandLine{Env: map[string]string{}, Commands: []*Command{{Tokens: []Token{{Text: "echo"}, {Text: "no"}}}}}},
		},
	}}
	if diff := astDiff(got, want); diff != "" {
		t.Fatalf("Parse() mismatch:\n%s", diff)
	}
}

func TestParseWhileLoop(t *testing.T) {
	p := NewParser()
	got, err := p.Parse("while true; do echo loop; done")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	want := &WhileNode{
		Test: &PipelineNode{Line: &CommandLine{Env: map[string]string{}, Commands: []*Command{{Tokens: []Token{{Text: "true"}}}}}},
		Body: &PipelineNode{Line: &CommandLine{Env: map[string]string{}, Commands: []*Command{{Tokens: []Token{{Text: "echo"}, {Text: "loop"}}}}}},
	}
	if diff := astDiff(got, want); diff != "" {
		t.Fatalf("Parse() mismatch:\n%s", diff)
	}
}

func TestParseQuotingPreservesSep(t *testing.T) {
	p := NewParser()
	got, err := p.Parse(`echo 'single' "double"`)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	want := &PipelineNode{Line: &CommandLine{
		Env: map[string]string{},
		Commands: []*Command{{
			Tokens: []Token{
				{Text: "echo"},
				{Sep: "'", Text: "single"},
				{Sep: "\"", Text: "double"},
			},
		}},
	}}
	if diff := astDiff(got, want); diff != "" {
		t.Fatalf("Parse() mismatch:\n%s", diff)
	}
}

func TestParseEmptyInputYieldsNilNode(t *testing.T) {
	p := NewParser()
	got, err := p.Parse("   \n  ")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if got != nil {
		t.Fatalf("Parse() = %#v, want nil", got)
	}
}

func TestParseUnterminatedQuoteErrors(t *testing.T) {
	p := NewParser()
	if _, err := p.Parse(`echo "unterminated`); err == nil {
		t.Fatalf("Parse() error = nil, want unterminated-quote error")
	}
}
