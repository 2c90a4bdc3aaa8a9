package metagrammar

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/ritamzico/parsekit/internal/model"
	"github.com/ritamzico/parsekit/internal/peg"
)

// Parsing the same grammar source twice must produce structurally equal
// object models: the meta-parser has no hidden state that leaks between
// independent Parse calls.
func TestParseIsDeterministicAcrossGeneratedGrammars(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		src := genGrammarSource(t)

		g1, err1 := New(src, peg.Config{}).Parse()
		g2, err2 := New(src, peg.Config{}).Parse()

		if (err1 == nil) != (err2 == nil) {
			t.Fatalf("nondeterministic success for %q: %v vs %v", src, err1, err2)
		}
		if err1 != nil {
			return
		}
		if !model.Equal(g1, g2) {
			t.Fatalf("two parses of %q produced different trees:\n%#v\nvs\n%#v", src, g1, g2)
		}
	})
}

// Every grammar this generator produces has exactly one rule named "start"
// resolving to a single quoted-literal token, so it must always parse and
// validate.
func TestGeneratedGrammarsAlwaysValidate(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		src := genGrammarSource(t)
		g, err := New(src, peg.Config{}).Parse()
		if err != nil {
			t.Fatalf("unexpected parse error for %q: %v", src, err)
		}
		if err := g.Validate(); err != nil {
			t.Fatalf("unexpected validation error for %q: %v", src, err)
		}
	})
}

func genGrammarSource(t *rapid.T) string {
	name := rapid.StringMatching(`[a-z][a-z0-9_]{0,8}`).Draw(t, "name")
	literal := rapid.StringMatching(`[a-zA-Z0-9_]{1,8}`).Draw(t, "literal")
	return "start = " + name + ":'" + literal + "' ;"
}
