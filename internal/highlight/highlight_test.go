package highlight

import "testing"

func TestBashSpansCoverInput(t *testing.T) {
	h := Bash()
	text := `echo "hello" | grep foo # comment`
	spans := h(text)
	if len(spans) == 0 {
		t.Fatal("expected at least one span")
	}
	var covered int
	for _, s := range spans {
		if s.Start != covered {
			t.Fatalf("gap in coverage: span starts at %d, expected %d", s.Start, covered)
		}
		covered = s.End
	}
	if covered != len(text) {
		t.Fatalf("spans cover %d bytes, want %d", covered, len(text))
	}
}

func TestRenderPassesThroughUnstyled(t *testing.T) {
	text := "plain"
	out := Render(text, []Span{{Start: 0, End: len(text)}})
	if out != text {
		t.Fatalf("Render(unstyled) = %q, want %q", out, text)
	}
}
