package buffer

import (
	"regexp"
	"testing"
)

func TestMatchAdvancesCursor(t *testing.T) {
	b := New("if x", Config{NameGuard: true})
	if _, ok := b.Match("if"); !ok {
		t.Fatalf("expected match")
	}
	if b.Pos() != 2 {
		t.Fatalf("expected pos 2, got %d", b.Pos())
	}
}

func TestMatchNameGuardRejectsPartialWord(t *testing.T) {
	b := New("iffy", Config{NameGuard: true})
	if _, ok := b.Match("if"); ok {
		t.Fatalf("expected nameguard to reject partial word match")
	}
}

func TestMatchNameGuardAllowsWordBoundary(t *testing.T) {
	b := New("if x", Config{NameGuard: true})
	txt, ok := b.Match("if")
	if !ok || txt != "if" {
		t.Fatalf("expected match 'if', got %q ok=%v", txt, ok)
	}
}

func TestMatchEmptyLiteralVacuous(t *testing.T) {
	b := New("abc", Config{})
	if _, ok := b.Match(""); !ok {
		t.Fatalf("expected vacuous match")
	}
	if b.Pos() != 0 {
		t.Fatalf("expected no advance, got pos %d", b.Pos())
	}
}

func TestSkipWhitespaceAndLineComments(t *testing.T) {
	b := New("  # comment\nfoo", Config{
		EOLCommentsRe: regexp.MustCompile(`#([^\n]*)`),
	})
	b.SkipWhitespaceAndComments()
	if _, ok := b.Match("foo"); !ok {
		t.Fatalf("expected to land on 'foo' after skipping comment, pos=%d", b.Pos())
	}
}

func TestSkipBlockComments(t *testing.T) {
	b := New(`(* hi *) x`, Config{
		CommentsRe: regexp.MustCompile(`\(\*(.|\n)*?\*\)`),
	})
	b.SkipWhitespaceAndComments()
	if _, ok := b.Match("x"); !ok {
		t.Fatalf("expected to land on 'x' after skipping block comment")
	}
}

func TestMatchRegexAnchoredAndCached(t *testing.T) {
	b := New("123abc", Config{})
	txt, ok := b.MatchRegex(`\d+`)
	if !ok || txt != "123" {
		t.Fatalf("expected '123', got %q ok=%v", txt, ok)
	}
	// A different buffer compiles and caches the same pattern on its own;
	// the regex cache is per Buffer.
	b2 := New("456", Config{})
	txt2, ok2 := b2.MatchRegex(`\d+`)
	if !ok2 || txt2 != "456" {
		t.Fatalf("expected '456', got %q ok=%v", txt2, ok2)
	}
}

func TestGotoRestoresPosition(t *testing.T) {
	b := New("abcdef", Config{})
	start := b.Pos()
	b.Match("abc")
	b.Goto(start)
	if b.Pos() != start {
		t.Fatalf("expected pos restored to %d, got %d", start, b.Pos())
	}
}

func TestAtEndSkipsTrailingWhitespace(t *testing.T) {
	b := New("x   ", Config{})
	b.Match("x")
	if !b.AtEnd() {
		t.Fatalf("expected at-end after skipping trailing whitespace")
	}
}

func TestLineCol(t *testing.T) {
	b := New("abc\ndef\nghi", Config{})
	line, col, text := b.LineCol(8)
	if line != 3 || col != 1 || text != "ghi" {
		t.Fatalf("expected line=3 col=1 text=ghi, got line=%d col=%d text=%q", line, col, text)
	}
}
