package metagrammar

import (
	"testing"

	"github.com/ritamzico/parsekit/internal/model"
	"github.com/ritamzico/parsekit/internal/peg"
)

func parse(t *testing.T, src string) *model.Grammar {
	t.Helper()
	g, err := New(src, peg.Config{}).Parse()
	if err != nil {
		t.Fatalf("unexpected parse error for %q: %v", src, err)
	}
	return g
}

func TestGrammarWithTitle(t *testing.T) {
	g := parse(t, "GRAKO\nstart = 'a' ;")
	if g.Title != "GRAKO" {
		t.Fatalf("expected title GRAKO, got %q", g.Title)
	}
	if len(g.Rules) != 1 || g.Rules[0].Name != "start" {
		t.Fatalf("expected a single rule 'start', got %#v", g.Rules)
	}
	tok, ok := g.Rules[0].Exp.(*model.Token)
	if !ok || tok.Literal != "a" {
		t.Fatalf("expected rule body Token{a}, got %#v", g.Rules[0].Exp)
	}
}

func TestGrammarWithoutTitle(t *testing.T) {
	g := parse(t, "start = 'a' ;")
	if g.Title != "" {
		t.Fatalf("expected no title, got %q", g.Title)
	}
	if len(g.Rules) != 1 || g.Rules[0].Name != "start" {
		t.Fatalf("expected the word 'start' to be treated as the first rule's name")
	}
}

func TestKeywordDirectiveDoesNotSwallowFollowingRule(t *testing.T) {
	g := parse(t, "@@keyword :: if else\nstart = 'x' ;")
	if len(g.Keywords) != 2 || g.Keywords[0] != "if" || g.Keywords[1] != "else" {
		t.Fatalf("expected keywords [if else], got %#v", g.Keywords)
	}
	if len(g.Rules) != 1 || g.Rules[0].Name != "start" {
		t.Fatalf("expected 'start' to remain a rule, not a keyword, got %#v", g.Rules)
	}
}

func TestChoiceAndNamedTerms(t *testing.T) {
	g := parse(t, "start = a:'x' b:'y' | 'z' ;")
	choice, ok := g.Rules[0].Exp.(*model.Choice)
	if !ok || len(choice.Options) != 2 {
		t.Fatalf("expected a 2-option choice, got %#v", g.Rules[0].Exp)
	}
	seq, ok := choice.Options[0].(*model.Sequence)
	if !ok || len(seq.Elements) != 2 {
		t.Fatalf("expected first option to be a 2-element sequence, got %#v", choice.Options[0])
	}
	named, ok := seq.Elements[0].(*model.Named)
	if !ok || named.Name != "a" || named.Exp.(*model.Token).Literal != "x" {
		t.Fatalf("expected Named{a: Token{x}}, got %#v", seq.Elements[0])
	}
	tok, ok := choice.Options[1].(*model.Token)
	if !ok || tok.Literal != "z" {
		t.Fatalf("expected second option Token{z}, got %#v", choice.Options[1])
	}
}

func TestClosureOptionalGroupAndLookaheads(t *testing.T) {
	g := parse(t, "start = {'a'}+ ['b'] ('c') &'d' !'e' ;")
	seq, ok := g.Rules[0].Exp.(*model.Sequence)
	if !ok || len(seq.Elements) != 5 {
		t.Fatalf("expected a 5-element sequence, got %#v", g.Rules[0].Exp)
	}
	if _, ok := seq.Elements[0].(*model.PositiveClosure); !ok {
		t.Fatalf("expected PositiveClosure, got %#v", seq.Elements[0])
	}
	if _, ok := seq.Elements[1].(*model.Optional); !ok {
		t.Fatalf("expected Optional, got %#v", seq.Elements[1])
	}
	if _, ok := seq.Elements[2].(*model.Group); !ok {
		t.Fatalf("expected Group, got %#v", seq.Elements[2])
	}
	if _, ok := seq.Elements[3].(*model.Lookahead); !ok {
		t.Fatalf("expected Lookahead, got %#v", seq.Elements[3])
	}
	if _, ok := seq.Elements[4].(*model.NegativeLookahead); !ok {
		t.Fatalf("expected NegativeLookahead, got %#v", seq.Elements[4])
	}
}

func TestJoinSeparatorRepetition(t *testing.T) {
	g := parse(t, "start = ','.{item}+ ; item = /\\w+/ ;")
	join, ok := g.Rules[0].Exp.(*model.Join)
	if !ok {
		t.Fatalf("expected a Join, got %#v", g.Rules[0].Exp)
	}
	if !join.Positive {
		t.Fatalf("expected a positive join")
	}
	if join.Sep.(*model.Token).Literal != "," {
		t.Fatalf("expected separator token ',', got %#v", join.Sep)
	}
	if join.Exp.(*model.RuleRef).Name != "item" {
		t.Fatalf("expected join body rule ref 'item', got %#v", join.Exp)
	}
}

func TestOverrideVoidEOFAndCut(t *testing.T) {
	g := parse(t, "start = @:'x' ~ () $ ;")
	seq, ok := g.Rules[0].Exp.(*model.Sequence)
	if !ok || len(seq.Elements) != 4 {
		t.Fatalf("expected a 4-element sequence, got %#v", g.Rules[0].Exp)
	}
	if _, ok := seq.Elements[0].(*model.Override); !ok {
		t.Fatalf("expected Override, got %#v", seq.Elements[0])
	}
	if _, ok := seq.Elements[1].(*model.Cut); !ok {
		t.Fatalf("expected Cut, got %#v", seq.Elements[1])
	}
	if _, ok := seq.Elements[2].(*model.Void); !ok {
		t.Fatalf("expected Void, got %#v", seq.Elements[2])
	}
	if _, ok := seq.Elements[3].(*model.EOF); !ok {
		t.Fatalf("expected EOF, got %#v", seq.Elements[3])
	}
}

func TestRuleIncludeAndSpecialAndConstant(t *testing.T) {
	g := parse(t, "start = >base `42` ?(directive text)? ; base = 'b' ;")
	seq, ok := g.Rules[0].Exp.(*model.Sequence)
	if !ok || len(seq.Elements) != 3 {
		t.Fatalf("expected a 3-element sequence, got %#v", g.Rules[0].Exp)
	}
	inc, ok := seq.Elements[0].(*model.RuleInclude)
	if !ok || inc.Name != "base" {
		t.Fatalf("expected RuleInclude{base}, got %#v", seq.Elements[0])
	}
	c, ok := seq.Elements[1].(*model.Constant)
	if !ok || c.Literal != int64(42) {
		t.Fatalf("expected Constant{42} coerced to int64, got %#v", seq.Elements[1])
	}
	special, ok := seq.Elements[2].(*model.Special)
	if !ok || special.Text != "directive text" {
		t.Fatalf("expected Special{directive text}, got %#v", seq.Elements[2])
	}
}

func TestStringEscapeUnquoting(t *testing.T) {
	g := parse(t, `start = "a\tb" ;`)
	tok := g.Rules[0].Exp.(*model.Token)
	if tok.Literal != "a\tb" {
		t.Fatalf("expected escaped tab decoded, got %q", tok.Literal)
	}
}

func TestLeftRecursiveGrammarParsesAndValidates(t *testing.T) {
	g := parse(t, "expr = expr '+' term | term ; term = /[0-9]+/ ;")
	if len(g.Rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(g.Rules))
	}
	if err := g.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestUnresolvedRuleRefFailsParse(t *testing.T) {
	_, err := New("start = missing ;", peg.Config{}).Parse()
	if err == nil {
		t.Fatalf("expected a validation error for an unresolved rule reference")
	}
}

func TestOverrideDecoratorReplacesRuleInPlace(t *testing.T) {
	g := parse(t, "start = 'a' ; @override start = 'b' ;")
	if len(g.Rules) != 1 {
		t.Fatalf("expected override to replace in place, got %d rules", len(g.Rules))
	}
	tok := g.Rules[0].Exp.(*model.Token)
	if tok.Literal != "b" {
		t.Fatalf("expected overridden body 'b', got %q", tok.Literal)
	}
}

func TestRuleParamsAndBase(t *testing.T) {
	g := parse(t, "start(42, name='x') < base = 'a' ; base = 'z' ;")
	r := g.Rules[0]
	if r.Base != "base" {
		t.Fatalf("expected base 'base', got %q", r.Base)
	}
	if len(r.Params) != 1 || r.Params[0] != 42 {
		t.Fatalf("expected positional param [42], got %#v", r.Params)
	}
	if r.KwParams["name"] != "x" {
		t.Fatalf("expected kwparam name=x, got %#v", r.KwParams)
	}
}

func TestMalformedRuleMissingSemicolonFailsHard(t *testing.T) {
	_, err := New("start = 'a'", peg.Config{}).Parse()
	if err == nil {
		t.Fatalf("expected a failure for a rule missing its trailing ';'")
	}
}
