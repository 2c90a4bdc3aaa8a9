package buffer

import (
	"testing"

	"pgregory.net/rapid"
)

// Saving the cursor position and later Goto-ing back to it must restore the
// exact byte offset, regardless of what matching happened in between.
func TestGotoRestoresAnySavedPosition(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		text := rapid.StringMatching(`[a-z ]{0,40}`).Draw(t, "text")
		b := New(text, Config{Whitespace: DefaultWhitespace()})

		saved := b.Pos()
		word := rapid.StringMatching(`[a-z]{0,10}`).Draw(t, "word")
		b.Match(word)

		b.Goto(saved)
		if b.Pos() != saved {
			t.Fatalf("Goto(%d) left cursor at %d", saved, b.Pos())
		}
	})
}

// A literal match always advances the cursor by exactly its own length, or
// not at all.
func TestMatchAdvancesByExactlyLiteralLengthOrNotAtAll(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		text := rapid.StringMatching(`[a-z]{0,40}`).Draw(t, "text")
		literal := rapid.StringMatching(`[a-z]{0,10}`).Draw(t, "literal")

		b := New(text, Config{Whitespace: DefaultWhitespace()})
		before := b.Pos()
		_, ok := b.Match(literal)
		after := b.Pos()

		if ok {
			if after != before+len(literal) {
				t.Fatalf("matched literal %q but cursor moved from %d to %d", literal, before, after)
			}
		} else if after != before {
			t.Fatalf("failed match still moved cursor from %d to %d", before, after)
		}
	})
}

