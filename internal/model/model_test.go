package model

import "testing"

func term(lit string) *Token { return &Token{Literal: lit} }

func TestRuleByNameAndOverride(t *testing.T) {
	g := &Grammar{Title: "G"}
	g.AddRule(&Rule{Name: "start", Exp: term("a")})
	if r, ok := g.RuleByName("start"); !ok || r.Exp.(*Token).Literal != "a" {
		t.Fatalf("expected to find rule 'start'")
	}

	g.AddRule(&Rule{Name: "start", Decorators: []string{"override"}, Exp: term("b")})
	if len(g.Rules) != 1 {
		t.Fatalf("expected override to replace in place, got %d rules", len(g.Rules))
	}
	r, _ := g.RuleByName("start")
	if r.Exp.(*Token).Literal != "b" {
		t.Fatalf("expected overridden rule body 'b', got %#v", r.Exp)
	}
}

func TestValidateCatchesUnresolvedRuleRef(t *testing.T) {
	g := &Grammar{}
	g.AddRule(&Rule{Name: "start", Exp: &RuleRef{Name: "missing"}})
	if err := g.Validate(); err == nil {
		t.Fatalf("expected validation error for unresolved rule ref")
	}
}

func TestValidatePassesOnResolvedRefs(t *testing.T) {
	g := &Grammar{}
	g.AddRule(&Rule{Name: "start", Exp: &RuleRef{Name: "tail"}})
	g.AddRule(&Rule{Name: "tail", Exp: term("x")})
	if err := g.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestEqualIgnoresPosition(t *testing.T) {
	a := &Sequence{node: node{Position: Position{Offset: 1, Line: 1, Col: 2}}, Elements: []Element{term("x")}}
	b := &Sequence{node: node{Position: Position{Offset: 99, Line: 4, Col: 8}}, Elements: []Element{term("x")}}
	if !Equal(a, b) {
		t.Fatalf("expected structural equality ignoring position")
	}
}

func TestEqualDetectsStructuralDifference(t *testing.T) {
	a := &Sequence{Elements: []Element{term("x")}}
	b := &Sequence{Elements: []Element{term("y")}}
	if Equal(a, b) {
		t.Fatalf("expected structural inequality")
	}
}

func TestWalkVisitsChoiceOptionsAndSequenceElements(t *testing.T) {
	tree := &Choice{Options: []Element{
		&Sequence{Elements: []Element{term("a"), term("b")}},
		term("c"),
	}}
	var literals []string
	Walk(tree, func(e Element) bool {
		if tok, ok := e.(*Token); ok {
			literals = append(literals, tok.Literal)
		}
		return true
	})
	if len(literals) != 3 || literals[0] != "a" || literals[1] != "b" || literals[2] != "c" {
		t.Fatalf("expected [a b c], got %v", literals)
	}
}
