// Package model implements the grammar object model: tagged variant nodes
// for every grammar element, produced by internal/metagrammar
// and consumed by the (out-of-scope) code generator. Rules reference each
// other by name through the owning Grammar's table rather than by direct
// pointers, so cycles in the rule graph (via RuleRef) are a property of the
// name-indexed lookup rather than of the object representation.
package model

import (
	"fmt"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ritamzico/parsekit/internal/peg"
)

// Position locates an element in the grammar source, for diagnostics.
type Position struct {
	Offset int
	Line   int
	Col    int
}

// Element is implemented by every grammar model node.
type Element interface {
	Pos() Position
	element()
}

// node is embedded by every concrete Element to provide Pos() and the
// unexported marker method.
type node struct {
	Position Position
}

func (n node) Pos() Position { return n.Position }
func (n node) element()      {}

// Grammar is the top-level parsed grammar: a title, directives, reserved
// keywords, and an ordered list of rules.
type Grammar struct {
	node
	Title      string
	Directives []Directive
	Keywords   []string
	Rules      []*Rule

	byName map[string]*Rule
}

// Directive is one `@@name :: value` grammar-level configuration line.
type Directive struct {
	Name  string
	Value string
}

// RuleByName looks up a rule by name using the grammar's name-indexed
// table, building it lazily on first use.
func (g *Grammar) RuleByName(name string) (*Rule, bool) {
	if g.byName == nil {
		g.byName = make(map[string]*Rule, len(g.Rules))
		for _, r := range g.Rules {
			g.byName[r.Name] = r
		}
	}
	r, ok := g.byName[name]
	return r, ok
}

// AddRule appends rule to the grammar, applying @override last-wins
// semantics: an @override-decorated rule replaces a prior rule of the same
// name in place rather than being treated as a duplicate-name error.
func (g *Grammar) AddRule(r *Rule) {
	for _, dec := range r.Decorators {
		if dec == "override" {
			if existing, ok := g.RuleByName(r.Name); ok {
				for i, old := range g.Rules {
					if old == existing {
						g.Rules[i] = r
						g.byName[r.Name] = r
						return
					}
				}
			}
		}
	}
	g.Rules = append(g.Rules, r)
	if g.byName == nil {
		g.byName = make(map[string]*Rule, len(g.Rules))
	}
	g.byName[r.Name] = r
}

// Validate checks that every RuleRef/RuleInclude in the grammar resolves to
// a declared rule. Resolution errors surface here, during semantic
// validation, not during meta-parsing.
func (g *Grammar) Validate() error {
	for _, r := range g.Rules {
		if r.Base != "" {
			if _, ok := g.RuleByName(r.Base); !ok {
				return refError(r.Base, r.Pos())
			}
		}
	}
	var err error
	Walk(g, func(e Element) bool {
		if err != nil {
			return false
		}
		switch n := e.(type) {
		case *RuleRef:
			if _, ok := g.RuleByName(n.Name); !ok {
				err = refError(n.Name, n.Pos())
				return false
			}
		case *RuleInclude:
			if _, ok := g.RuleByName(n.Name); !ok {
				err = refError(n.Name, n.Pos())
				return false
			}
		}
		return true
	})
	return err
}

func refError(name string, pos Position) error {
	return &peg.RefFailure{Failure: peg.Failure{
		Pos:      peg.Position{Offset: pos.Offset, Line: pos.Line, Col: pos.Col},
		Expected: fmt.Sprintf("rule %q to be declared", name),
	}}
}

// ---------------------------------------------------------------------
// Rule
// ---------------------------------------------------------------------

// Rule is one grammar rule: `decorator* name params? ('<' base)? '=' exp ';'`.
type Rule struct {
	node
	Decorators []string
	Name       string
	Params     []any
	KwParams   map[string]any
	Base       string // non-empty for `name < base = ...`
	Exp        Element
}

// ---------------------------------------------------------------------
// Composite elements
// ---------------------------------------------------------------------

// Sequence is a juxtaposition of elements, all of which must match in
// order.
type Sequence struct {
	node
	Elements []Element
}

// Choice is an ordered, `|`-separated set of alternatives; it has at least
// two options.
type Choice struct {
	node
	Options []Element
}

// Closure is zero-or-more repetition: `{exp}` or `{exp}*`.
type Closure struct {
	node
	Exp Element
}

// PositiveClosure is one-or-more repetition: `{exp}+`.
type PositiveClosure struct {
	node
	Exp Element
}

// EmptyClosure is `{exp}-`: repetition producing no node when empty.
type EmptyClosure struct {
	node
	Exp Element
}

// Optional is `[exp]`.
type Optional struct {
	node
	Exp Element
}

// Group is a parenthesized expression: `(exp)`, a scoping wrapper with no
// AST isolation.
type Group struct {
	node
	Exp Element
}

// Join is `sep.{exp}` (zero-or-more) or `sep.{exp}+` (one-or-more), a
// separator-delimited repetition.
type Join struct {
	node
	Sep      Element
	Exp      Element
	Positive bool
}

// Lookahead is `&term`.
type Lookahead struct {
	node
	Exp Element
}

// NegativeLookahead is `!term`.
type NegativeLookahead struct {
	node
	Exp Element
}

// ---------------------------------------------------------------------
// Leaf elements
// ---------------------------------------------------------------------

// Token is a quoted literal string to match verbatim.
type Token struct {
	node
	Literal string
}

// Pattern is a `/regex/` or `?/regex/?` regular expression to match.
type Pattern struct {
	node
	Regex string
}

// Constant is a `` `literal` `` value inserted into the AST without
// consuming input.
type Constant struct {
	node
	Literal any
}

// RuleRef is a reference to another rule by name, resolved by name-indexed
// lookup into the owning Grammar rather than by direct pointer.
type RuleRef struct {
	node
	Name string
}

// RuleInclude is `> name`: splices the named rule's elements into the
// current rule rather than invoking it as a sub-match.
type RuleInclude struct {
	node
	Name string
}

// Named is `name:exp`, storing exp's result under name with set semantics.
type Named struct {
	node
	Name string
	Exp  Element
}

// NamedList is `name+:exp`, storing exp's result under name with append
// semantics.
type NamedList struct {
	node
	Name string
	Exp  Element
}

// Override is `@:exp` (or the deprecated bare `@exp`): replaces the
// rule's default-slot value.
type Override struct {
	node
	Exp Element
}

// OverrideList is `@+:exp`: appends to the rule's default-slot list.
type OverrideList struct {
	node
	Exp Element
}

// Cut is `~` (or the deprecated `>>`): commits to the current alternative.
type Cut struct{ node }

// Void is `()`: matches the empty sequence and produces no AST value.
type Void struct{ node }

// Special is `?(...)?`, an escape hatch carrying raw directive text.
type Special struct {
	node
	Text string
}

// EOF is `$`: matches only at end of input.
type EOF struct{ node }

// ---------------------------------------------------------------------
// Construction helpers (carry position through)
// ---------------------------------------------------------------------

// At attaches pos to a freshly built node; helper for metagrammar handlers
// that build elements structurally instead of through zero-value literals.
func At(pos Position) node { return node{Position: pos} }

// ---------------------------------------------------------------------
// Equality (structural, modulo source position)
// ---------------------------------------------------------------------

// Equal reports whether a and b are structurally equal grammar trees,
// ignoring Position fields — the comparison an emit/re-parse round-trip
// property needs, since positions differ between two independent parses.
func Equal(a, b Element) bool {
	return cmp.Equal(a, b,
		cmpopts.IgnoreTypes(node{}, Position{}),
		cmpopts.IgnoreUnexported(Grammar{}),
	)
}
