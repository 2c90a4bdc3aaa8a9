// Package parsekit is the public facade over the PEG parsing engine and
// grammar meta-parser: ParseGrammar recognizes grammar description text
// into the object model of internal/model, and NewParser builds a bare
// combinator runtime for callers that want to drive internal/peg's
// primitives directly against their own hand-written rule bodies.
package parsekit

import (
	"encoding/json"
	"fmt"

	"github.com/ritamzico/parsekit/internal/metagrammar"
	"github.com/ritamzico/parsekit/internal/model"
	"github.com/ritamzico/parsekit/internal/peg"
)

type (
	Config    = peg.Config
	Semantics = peg.Semantics
	Handler   = peg.Handler
	TraceSink = peg.TraceSink

	Grammar = model.Grammar
	Rule    = model.Rule
	Element = model.Element
)

// ParseGrammar recognizes source as a single grammar description and
// returns its object model, with every rule reference resolved against
// the grammar's own rule table.
func ParseGrammar(source string) (*Grammar, error) {
	return metagrammar.New(source, Config{}).Parse()
}

// ParseGrammarTraced behaves like ParseGrammar but emits a rule-stack
// trace event to sink for every enter/exit/memo-hit/fail/cut.
func ParseGrammarTraced(source string, sink TraceSink) (*Grammar, error) {
	return metagrammar.New(source, Config{Trace: true, TraceSink: sink}).Parse()
}

// NewParser builds a bare combinator runtime over text, for callers
// driving internal/peg's primitives directly through their own
// hand-written rule bodies rather than through the grammar meta-parser.
func NewParser(text string, cfg Config) *peg.Parser {
	return peg.New(text, cfg)
}

// ConfigForGrammar derives a Config suitable for parsing text described by
// g: its declared keywords become the reserved-word set a downstream
// parser's rule bodies can check with Parser.IsKeyword.
func ConfigForGrammar(g *Grammar) Config {
	cfg := Config{}
	if len(g.Keywords) > 0 {
		cfg.Keywords = make(map[string]struct{}, len(g.Keywords))
		for _, kw := range g.Keywords {
			cfg.Keywords[kw] = struct{}{}
		}
	}
	return cfg
}

// jsonElement is the discriminated-union wire shape for a grammar element.
type jsonElement struct {
	Kind string `json:"kind"`
	Data any    `json:"data"`
}

// MarshalGrammarJSON renders g as a discriminated-union JSON document keyed
// by element kind: each element marshals as {"kind": ..., "data": ...},
// letting a decoder on the other side dispatch on kind without knowing
// the full set of element types up front.
func MarshalGrammarJSON(g *Grammar) ([]byte, error) {
	rules := make([]json.RawMessage, len(g.Rules))
	for i, r := range g.Rules {
		b, err := marshalElement(r.Exp)
		if err != nil {
			return nil, err
		}
		rule := struct {
			Name       string          `json:"name"`
			Decorators []string        `json:"decorators,omitempty"`
			Base       string          `json:"base,omitempty"`
			Exp        json.RawMessage `json:"exp"`
		}{Name: r.Name, Decorators: r.Decorators, Base: r.Base, Exp: b}
		rb, err := json.Marshal(rule)
		if err != nil {
			return nil, err
		}
		rules[i] = rb
	}
	return json.Marshal(struct {
		Title      string            `json:"title,omitempty"`
		Directives []model.Directive `json:"directives,omitempty"`
		Keywords   []string          `json:"keywords,omitempty"`
		Rules      []json.RawMessage `json:"rules"`
	}{Title: g.Title, Directives: g.Directives, Keywords: g.Keywords, Rules: rules})
}

func marshalElement(e Element) (json.RawMessage, error) {
	var je jsonElement
	switch n := e.(type) {
	case *model.Sequence:
		items, err := marshalElements(n.Elements)
		if err != nil {
			return nil, err
		}
		je = jsonElement{Kind: "sequence", Data: items}
	case *model.Choice:
		items, err := marshalElements(n.Options)
		if err != nil {
			return nil, err
		}
		je = jsonElement{Kind: "choice", Data: items}
	case *model.Closure:
		inner, err := marshalElement(n.Exp)
		if err != nil {
			return nil, err
		}
		je = jsonElement{Kind: "closure", Data: inner}
	case *model.PositiveClosure:
		inner, err := marshalElement(n.Exp)
		if err != nil {
			return nil, err
		}
		je = jsonElement{Kind: "positive_closure", Data: inner}
	case *model.EmptyClosure:
		inner, err := marshalElement(n.Exp)
		if err != nil {
			return nil, err
		}
		je = jsonElement{Kind: "empty_closure", Data: inner}
	case *model.Optional:
		inner, err := marshalElement(n.Exp)
		if err != nil {
			return nil, err
		}
		je = jsonElement{Kind: "optional", Data: inner}
	case *model.Group:
		inner, err := marshalElement(n.Exp)
		if err != nil {
			return nil, err
		}
		je = jsonElement{Kind: "group", Data: inner}
	case *model.Join:
		sep, err := marshalElement(n.Sep)
		if err != nil {
			return nil, err
		}
		inner, err := marshalElement(n.Exp)
		if err != nil {
			return nil, err
		}
		je = jsonElement{Kind: "join", Data: struct {
			Sep      json.RawMessage `json:"sep"`
			Exp      json.RawMessage `json:"exp"`
			Positive bool            `json:"positive"`
		}{sep, inner, n.Positive}}
	case *model.Lookahead:
		inner, err := marshalElement(n.Exp)
		if err != nil {
			return nil, err
		}
		je = jsonElement{Kind: "lookahead", Data: inner}
	case *model.NegativeLookahead:
		inner, err := marshalElement(n.Exp)
		if err != nil {
			return nil, err
		}
		je = jsonElement{Kind: "negative_lookahead", Data: inner}
	case *model.Named:
		inner, err := marshalElement(n.Exp)
		if err != nil {
			return nil, err
		}
		je = jsonElement{Kind: "named", Data: struct {
			Name string          `json:"name"`
			Exp  json.RawMessage `json:"exp"`
		}{n.Name, inner}}
	case *model.NamedList:
		inner, err := marshalElement(n.Exp)
		if err != nil {
			return nil, err
		}
		je = jsonElement{Kind: "named_list", Data: struct {
			Name string          `json:"name"`
			Exp  json.RawMessage `json:"exp"`
		}{n.Name, inner}}
	case *model.Override:
		inner, err := marshalElement(n.Exp)
		if err != nil {
			return nil, err
		}
		je = jsonElement{Kind: "override", Data: inner}
	case *model.OverrideList:
		inner, err := marshalElement(n.Exp)
		if err != nil {
			return nil, err
		}
		je = jsonElement{Kind: "override_list", Data: inner}
	case *model.Token:
		je = jsonElement{Kind: "token", Data: n.Literal}
	case *model.Pattern:
		je = jsonElement{Kind: "pattern", Data: n.Regex}
	case *model.Constant:
		je = jsonElement{Kind: "constant", Data: n.Literal}
	case *model.RuleRef:
		je = jsonElement{Kind: "rule_ref", Data: n.Name}
	case *model.RuleInclude:
		je = jsonElement{Kind: "rule_include", Data: n.Name}
	case *model.Cut:
		je = jsonElement{Kind: "cut"}
	case *model.Void:
		je = jsonElement{Kind: "void"}
	case *model.Special:
		je = jsonElement{Kind: "special", Data: n.Text}
	case *model.EOF:
		je = jsonElement{Kind: "eof"}
	default:
		return nil, fmt.Errorf("parsekit: unmarshalable element type %T", e)
	}
	return json.Marshal(je)
}

func marshalElements(elements []Element) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, len(elements))
	for i, e := range elements {
		b, err := marshalElement(e)
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}
