// Package metagrammar is the hand-written recursive-descent recognizer for
// the grammar description language: it reads grammar
// source text and builds the internal/model object tree directly, rule
// body by rule body, the way grako's own bootstrap parser recognizes
// grako's grammar language. Most productions construct their model.Element
// result inline rather than going through an AST accumulator; the few that
// need a post-match rewrite (quoted strings, backtick constants) delegate
// to internal/semantics instead.
package metagrammar

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ritamzico/parsekit/internal/model"
	"github.com/ritamzico/parsekit/internal/peg"
	"github.com/ritamzico/parsekit/internal/semantics"
)

const identPattern = `[A-Za-z_][A-Za-z0-9_]*`

var (
	stringLiteralPattern = `'(?:\\.|[^'\\])*'|"(?:\\.|[^"\\])*"`
	regexLiteralPattern  = `/(?:\\.|[^/\\\n])*/`
	backtickPattern      = "`[^`]*`"
	specialPattern       = `\?\((?s:.)*?\)\?`
	numberPattern        = `-?\d+(?:\.\d+)?`
)

// MetaParser recognizes grammar source text and produces an
// *model.Grammar.
type MetaParser struct {
	rt *peg.Parser
}

// New builds a MetaParser over source. cfg controls the underlying
// combinator runtime's whitespace/comment handling; callers parsing plain
// grako-style grammar text can pass the zero value.
func New(source string, cfg peg.Config) *MetaParser {
	rt := peg.New(source, cfg)
	rt.SetSemantics(semantics.GrammarSemantics{})
	return &MetaParser{rt: rt}
}

// Parse consumes the whole of source as a single grammar and validates the
// resulting rule-reference graph before returning it.
func (mp *MetaParser) Parse() (*model.Grammar, error) {
	result, err := mp.rt.Parse("grammar", mp.grammar)
	if err != nil {
		return nil, err
	}
	g := result.(*model.Grammar)
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func (mp *MetaParser) pos() model.Position {
	offset := mp.rt.Buffer().Pos()
	line, col, _ := mp.rt.Buffer().LineCol(offset)
	return model.Position{Offset: offset, Line: line, Col: col}
}

// ---------------------------------------------------------------------
// grammar = title? directive* rule+ $ ;
// ---------------------------------------------------------------------

func (mp *MetaParser) grammar() (any, error) {
	start := mp.pos()
	title, _, err := mp.title()
	if err != nil {
		return nil, err
	}
	g := model.NewGrammar(start, title)

	for {
		d, ok, err := mp.tryDirective()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		g.Directives = append(g.Directives, d)
		if d.Name == "keyword" {
			g.Keywords = append(g.Keywords, strings.Fields(d.Value)...)
		}
	}

	for {
		r, ok, err := mp.tryRule()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		g.AddRule(r)
	}

	if len(g.Rules) == 0 {
		return nil, fmt.Errorf("grammar must declare at least one rule")
	}
	if err := mp.rt.EOF(); err != nil {
		return nil, err
	}
	return g, nil
}

// title is an optional leading identifier, disambiguated from the first
// rule's name by a negative lookahead on an immediately following '=',
// '(' or '<': a title is never itself the subject of a rule definition.
func (mp *MetaParser) title() (string, bool, error) {
	result, ok, err := mp.rt.Optional(func() (any, error) {
		w, err := mp.rt.Pattern(identPattern)
		if err != nil {
			return nil, err
		}
		guard := func() (any, error) {
			return mp.rt.Choice(
				func() (any, error) { return mp.rt.Token("=") },
				func() (any, error) { return mp.rt.Token("(") },
				func() (any, error) { return mp.rt.Token("<") },
			)
		}
		if err := mp.rt.NegativeLookahead(guard); err != nil {
			return nil, err
		}
		return w, nil
	})
	if err != nil || !ok {
		return "", false, err
	}
	return result.(string), true, nil
}

// ---------------------------------------------------------------------
// directive = '@@' name '::' value ;
// ---------------------------------------------------------------------

func (mp *MetaParser) tryDirective() (model.Directive, bool, error) {
	result, ok, err := mp.rt.Optional(func() (any, error) {
		if _, err := mp.rt.Token("@@"); err != nil {
			return nil, err
		}
		name, err := mp.rt.Pattern(identPattern)
		if err != nil {
			return nil, err
		}
		if _, err := mp.rt.Token("::"); err != nil {
			return nil, err
		}
		value, err := mp.directiveValue()
		if err != nil {
			return nil, err
		}
		return model.Directive{Name: name, Value: value}, nil
	})
	if err != nil || !ok {
		return model.Directive{}, false, err
	}
	return result.(model.Directive), true, nil
}

// directiveValue accepts whichever of a regex, a quoted literal, or a
// bare word list (as used by @@keyword) comes first; 'None' stands for an
// explicitly disabled directive (e.g. @@whitespace :: None).
func (mp *MetaParser) directiveValue() (string, error) {
	if re, ok, err := mp.tryPatternLiteral(); err != nil {
		return "", err
	} else if ok {
		return re, nil
	}
	if s, ok, err := mp.tryToken(); err != nil {
		return "", err
	} else if ok {
		return s, nil
	}
	if _, ok, err := mp.rt.Optional(func() (any, error) { return mp.rt.Token("None") }); err != nil {
		return "", err
	} else if ok {
		return "None", nil
	}
	var words []string
	for {
		w, ok, err := mp.tryDirectiveWord()
		if err != nil {
			return "", err
		}
		if !ok {
			break
		}
		words = append(words, w)
	}
	if len(words) == 0 {
		return "", fmt.Errorf("expected a directive value")
	}
	return strings.Join(words, " "), nil
}

// tryDirectiveWord matches one bare identifier of an @@keyword-style word
// list, refusing to consume a word that turns out to be the start of the
// next rule (name immediately followed by '=', '(', or '<').
func (mp *MetaParser) tryDirectiveWord() (string, bool, error) {
	result, ok, err := mp.rt.Optional(func() (any, error) {
		w, err := mp.rt.Pattern(identPattern)
		if err != nil {
			return nil, err
		}
		guard := func() (any, error) {
			return mp.rt.Choice(
				func() (any, error) { return mp.rt.Token("=") },
				func() (any, error) { return mp.rt.Token("(") },
				func() (any, error) { return mp.rt.Token("<") },
			)
		}
		if err := mp.rt.NegativeLookahead(guard); err != nil {
			return nil, err
		}
		return w, nil
	})
	if err != nil || !ok {
		return "", false, err
	}
	return result.(string), true, nil
}

// ---------------------------------------------------------------------
// rule = decorator* name params? ('<' base)? '=' expression ';' ;
// ---------------------------------------------------------------------

func (mp *MetaParser) tryRule() (*model.Rule, bool, error) {
	result, ok, err := mp.rt.Optional(func() (any, error) {
		return mp.rt.Call("rule", func() (any, error) {
			start := mp.pos()
			var decorators []string
			for {
				d, ok, err := mp.decorator()
				if err != nil {
					return nil, err
				}
				if !ok {
					break
				}
				decorators = append(decorators, d)
			}
			name, err := mp.rt.Pattern(identPattern)
			if err != nil {
				return nil, err
			}
			params, kwparams, err := mp.ruleParams()
			if err != nil {
				return nil, err
			}
			var base string
			if _, ok, err := mp.rt.Optional(func() (any, error) { return mp.rt.Token("<") }); err != nil {
				return nil, err
			} else if ok {
				b, err := mp.rt.Pattern(identPattern)
				if err != nil {
					return nil, err
				}
				base = b
			}
			if _, err := mp.rt.Token("="); err != nil {
				return nil, err
			}
			exp, err := mp.expression()
			if err != nil {
				return nil, err
			}
			if _, err := mp.rt.Token(";"); err != nil {
				return nil, err
			}
			return model.NewRule(start, decorators, name, params, kwparams, base, exp), nil
		})
	})
	if err != nil || !ok {
		return nil, false, err
	}
	return result.(*model.Rule), true, nil
}

func (mp *MetaParser) decorator() (string, bool, error) {
	result, ok, err := mp.rt.Optional(func() (any, error) {
		if _, err := mp.rt.Token("@"); err != nil {
			return nil, err
		}
		return mp.rt.Pattern(identPattern)
	})
	if err != nil || !ok {
		return "", false, err
	}
	return result.(string), true, nil
}

func (mp *MetaParser) ruleParams() ([]any, map[string]any, error) {
	if _, ok, err := mp.rt.Optional(func() (any, error) { return mp.rt.Token("(") }); err != nil {
		return nil, nil, err
	} else if !ok {
		return nil, nil, nil
	}

	var params []any
	var kwparams map[string]any

	for {
		if _, ok, _ := mp.rt.Optional(func() (any, error) { return mp.rt.Token(")") }); ok {
			return params, kwparams, nil
		}
		name, hasName, err := mp.tryKwName()
		if err != nil {
			return nil, nil, err
		}
		val, err := mp.paramValue()
		if err != nil {
			return nil, nil, err
		}
		if hasName {
			if kwparams == nil {
				kwparams = map[string]any{}
			}
			kwparams[name] = val
		} else {
			params = append(params, val)
		}
		if _, ok, _ := mp.rt.Optional(func() (any, error) { return mp.rt.Token(",") }); !ok {
			if _, err := mp.rt.Token(")"); err != nil {
				return nil, nil, err
			}
			return params, kwparams, nil
		}
	}
}

func (mp *MetaParser) tryKwName() (string, bool, error) {
	result, ok, err := mp.rt.Optional(func() (any, error) {
		name, err := mp.rt.Pattern(identPattern)
		if err != nil {
			return nil, err
		}
		if _, err := mp.rt.Token("="); err != nil {
			return nil, err
		}
		return name, nil
	})
	if err != nil || !ok {
		return "", false, err
	}
	return result.(string), true, nil
}

func (mp *MetaParser) paramValue() (any, error) {
	if result, ok, err := mp.rt.Optional(func() (any, error) { return mp.rt.Pattern(numberPattern) }); err != nil {
		return nil, err
	} else if ok {
		text := result.(string)
		if strings.Contains(text, ".") {
			f, _ := strconv.ParseFloat(text, 64)
			return f, nil
		}
		n, _ := strconv.Atoi(text)
		return n, nil
	}
	if s, ok, err := mp.tryToken(); err != nil {
		return nil, err
	} else if ok {
		return s, nil
	}
	return mp.rt.Pattern(identPattern)
}

// ---------------------------------------------------------------------
// expression = choice ;
// choice = sequence ('|' sequence)* ;
// sequence = term+ ;
// ---------------------------------------------------------------------

func (mp *MetaParser) expression() (model.Element, error) {
	return mp.choice()
}

func (mp *MetaParser) choice() (model.Element, error) {
	start := mp.pos()
	first, err := mp.sequence()
	if err != nil {
		return nil, err
	}
	options := []model.Element{first}
	for {
		if _, ok, err := mp.rt.Optional(func() (any, error) { return mp.rt.Token("|") }); err != nil {
			return nil, err
		} else if !ok {
			break
		}
		next, err := mp.sequence()
		if err != nil {
			return nil, err
		}
		options = append(options, next)
	}
	if len(options) == 1 {
		return options[0], nil
	}
	return model.NewChoice(start, options), nil
}

func (mp *MetaParser) sequence() (model.Element, error) {
	start := mp.pos()
	var elements []model.Element
	for {
		t, ok, err := mp.tryTerm()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		elements = append(elements, t)
	}
	if len(elements) == 0 {
		return nil, fmt.Errorf("expected at least one term in sequence")
	}
	if len(elements) == 1 {
		return elements[0], nil
	}
	return model.NewSequence(start, elements), nil
}

// ---------------------------------------------------------------------
// term = name ':' element | name '+:' element | '@' ':' element
//      | '@+:' element | element ;
// ---------------------------------------------------------------------

func (mp *MetaParser) tryTerm() (model.Element, bool, error) {
	result, ok, err := mp.rt.Optional(mp.termBody)
	if err != nil || !ok {
		return nil, false, err
	}
	return result.(model.Element), true, nil
}

func (mp *MetaParser) termBody() (any, error) {
	if n, ok, err := mp.tryNamedTerm(); err != nil {
		return nil, err
	} else if ok {
		return n, nil
	}
	if o, ok, err := mp.tryOverrideTerm(); err != nil {
		return nil, err
	} else if ok {
		return o, nil
	}
	return mp.element()
}

func (mp *MetaParser) tryNamedTerm() (model.Element, bool, error) {
	start := mp.pos()
	result, ok, err := mp.rt.Optional(func() (any, error) {
		name, err := mp.rt.Pattern(identPattern)
		if err != nil {
			return nil, err
		}
		list, err := mp.assignmentOperator()
		if err != nil {
			return nil, err
		}
		exp, err := mp.element()
		if err != nil {
			return nil, err
		}
		if list {
			return model.NewNamedList(start, name, exp), nil
		}
		return model.NewNamed(start, name, exp), nil
	})
	if err != nil || !ok {
		return nil, false, err
	}
	return result.(model.Element), true, nil
}

func (mp *MetaParser) tryOverrideTerm() (model.Element, bool, error) {
	start := mp.pos()
	result, ok, err := mp.rt.Optional(func() (any, error) {
		if _, err := mp.rt.Token("@"); err != nil {
			return nil, err
		}
		// With neither ':' nor '+:' after '@' this is the deprecated bare
		// `@exp` form, read as a plain Override.
		list, _ := mp.assignmentOperator()
		exp, err := mp.element()
		if err != nil {
			return nil, err
		}
		if list {
			return model.NewOverrideList(start, exp), nil
		}
		return model.NewOverride(start, exp), nil
	})
	if err != nil || !ok {
		return nil, false, err
	}
	return result.(model.Element), true, nil
}

// assignmentOperator consumes ':' (set) or '+:' (append), reporting which.
func (mp *MetaParser) assignmentOperator() (list bool, err error) {
	if _, ok, err := mp.rt.Optional(func() (any, error) { return mp.rt.Token("+:") }); err != nil {
		return false, err
	} else if ok {
		return true, nil
	}
	if _, err := mp.rt.Token(":"); err != nil {
		return false, err
	}
	return false, nil
}

// ---------------------------------------------------------------------
// element = atom ('.' '{' expression '}' '+'?)? ;
// ---------------------------------------------------------------------

func (mp *MetaParser) element() (model.Element, error) {
	a, err := mp.atom()
	if err != nil {
		return nil, err
	}
	if j, ok, err := mp.tryJoinTail(a); err != nil {
		return nil, err
	} else if ok {
		return j, nil
	}
	return a, nil
}

func (mp *MetaParser) tryJoinTail(sep model.Element) (model.Element, bool, error) {
	start := sep.Pos()
	result, ok, err := mp.rt.Optional(func() (any, error) {
		if _, err := mp.rt.Token("."); err != nil {
			return nil, err
		}
		exp, suffix, err := mp.closureBody()
		if err != nil {
			return nil, err
		}
		return model.NewJoin(start, sep, exp, suffix == "+"), nil
	})
	if err != nil || !ok {
		return nil, false, err
	}
	return result.(model.Element), true, nil
}

// ---------------------------------------------------------------------
// atom: the leaves and bracketed forms of the expression grammar.
// ---------------------------------------------------------------------

func (mp *MetaParser) atom() (model.Element, error) {
	start := mp.pos()

	cutToken := func() (any, error) {
		return mp.rt.Choice(
			func() (any, error) { return mp.rt.Token("~") },
			func() (any, error) { return mp.rt.Token(">>") },
		)
	}
	if _, ok, err := mp.rt.Optional(cutToken); err != nil {
		return nil, err
	} else if ok {
		return model.NewCut(start), nil
	}
	if _, ok, err := mp.rt.Optional(func() (any, error) { return mp.rt.Token("$") }); err != nil {
		return nil, err
	} else if ok {
		return model.NewEOF(start), nil
	}
	if _, ok, err := mp.rt.Optional(func() (any, error) { return mp.rt.Token("()") }); err != nil {
		return nil, err
	} else if ok {
		return model.NewVoid(start), nil
	}
	if e, ok, err := mp.tryPrefixed("&", func(inner model.Element) model.Element { return model.NewLookahead(start, inner) }); err != nil {
		return nil, err
	} else if ok {
		return e, nil
	}
	if e, ok, err := mp.tryPrefixed("!", func(inner model.Element) model.Element { return model.NewNegativeLookahead(start, inner) }); err != nil {
		return nil, err
	} else if ok {
		return e, nil
	}
	if e, ok, err := mp.tryBracketed("[", "]", func(inner model.Element) model.Element { return model.NewOptional(start, inner) }); err != nil {
		return nil, err
	} else if ok {
		return e, nil
	}
	if e, ok, err := mp.tryClosureAtom(); err != nil {
		return nil, err
	} else if ok {
		return e, nil
	}
	if e, ok, err := mp.tryBracketed("(", ")", func(inner model.Element) model.Element { return model.NewGroup(start, inner) }); err != nil {
		return nil, err
	} else if ok {
		return e, nil
	}
	if name, ok, err := mp.tryRuleInclude(); err != nil {
		return nil, err
	} else if ok {
		return model.NewRuleInclude(start, name), nil
	}
	if text, ok, err := mp.trySpecial(); err != nil {
		return nil, err
	} else if ok {
		return model.NewSpecial(start, text), nil
	}
	if v, ok, err := mp.tryConstant(); err != nil {
		return nil, err
	} else if ok {
		return model.NewConstant(start, v), nil
	}
	if lit, ok, err := mp.tryToken(); err != nil {
		return nil, err
	} else if ok {
		return model.NewToken(start, lit), nil
	}
	if re, ok, err := mp.tryPatternLiteral(); err != nil {
		return nil, err
	} else if ok {
		return model.NewPattern(start, re), nil
	}
	name, err := mp.rt.Pattern(identPattern)
	if err != nil {
		return nil, err
	}
	return model.NewRuleRef(start, name), nil
}

func (mp *MetaParser) tryPrefixed(op string, wrap func(model.Element) model.Element) (model.Element, bool, error) {
	result, ok, err := mp.rt.Optional(func() (any, error) {
		if _, err := mp.rt.Token(op); err != nil {
			return nil, err
		}
		inner, err := mp.atom()
		if err != nil {
			return nil, err
		}
		return wrap(inner), nil
	})
	if err != nil || !ok {
		return nil, false, err
	}
	return result.(model.Element), true, nil
}

func (mp *MetaParser) tryBracketed(open, close string, wrap func(model.Element) model.Element) (model.Element, bool, error) {
	result, ok, err := mp.rt.Optional(func() (any, error) {
		if _, err := mp.rt.Token(open); err != nil {
			return nil, err
		}
		inner, err := mp.expression()
		if err != nil {
			return nil, err
		}
		if _, err := mp.rt.Token(close); err != nil {
			return nil, err
		}
		return wrap(inner), nil
	})
	if err != nil || !ok {
		return nil, false, err
	}
	return result.(model.Element), true, nil
}

func (mp *MetaParser) tryClosureAtom() (model.Element, bool, error) {
	start := mp.pos()
	result, ok, err := mp.rt.Optional(func() (any, error) {
		exp, suffix, err := mp.closureBody()
		if err != nil {
			return nil, err
		}
		switch suffix {
		case "+":
			return model.NewPositiveClosure(start, exp), nil
		case "-":
			return model.NewEmptyClosure(start, exp), nil
		default:
			return model.NewClosure(start, exp), nil
		}
	})
	if err != nil || !ok {
		return nil, false, err
	}
	return result.(model.Element), true, nil
}

// closureBody consumes '{' expression '}' and an optional trailing '+', '-'
// or '*', returning the inner expression and whichever suffix followed ("" for
// '*' or no suffix).
func (mp *MetaParser) closureBody() (model.Element, string, error) {
	if _, err := mp.rt.Token("{"); err != nil {
		return nil, "", err
	}
	exp, err := mp.expression()
	if err != nil {
		return nil, "", err
	}
	if _, err := mp.rt.Token("}"); err != nil {
		return nil, "", err
	}
	if _, ok, _ := mp.rt.Optional(func() (any, error) { return mp.rt.Token("+") }); ok {
		return exp, "+", nil
	}
	if _, ok, _ := mp.rt.Optional(func() (any, error) { return mp.rt.Token("-") }); ok {
		return exp, "-", nil
	}
	mp.rt.Optional(func() (any, error) { return mp.rt.Token("*") })
	return exp, "", nil
}

func (mp *MetaParser) tryRuleInclude() (string, bool, error) {
	result, ok, err := mp.rt.Optional(func() (any, error) {
		if _, err := mp.rt.Token(">"); err != nil {
			return nil, err
		}
		return mp.rt.Pattern(identPattern)
	})
	if err != nil || !ok {
		return "", false, err
	}
	return result.(string), true, nil
}

func (mp *MetaParser) trySpecial() (string, bool, error) {
	result, ok, err := mp.rt.Optional(func() (any, error) { return mp.rt.Pattern(specialPattern) })
	if err != nil || !ok {
		return "", false, err
	}
	raw := result.(string)
	return raw[2 : len(raw)-2], true, nil
}

// tryConstant matches a backtick literal via the "constant_literal" rule,
// whose semantic handler (internal/semantics) coerces the raw text into a
// typed Go value.
func (mp *MetaParser) tryConstant() (any, bool, error) {
	result, ok, err := mp.rt.Optional(func() (any, error) {
		return mp.rt.Call("constant_literal", func() (any, error) {
			raw, err := mp.rt.Pattern(backtickPattern)
			if err != nil {
				return nil, err
			}
			return raw[1 : len(raw)-1], nil
		})
	})
	if err != nil || !ok {
		return nil, false, err
	}
	return result, true, nil
}

// tryToken matches a quoted literal via the "string" rule, whose semantic
// handler unescapes it.
func (mp *MetaParser) tryToken() (string, bool, error) {
	result, ok, err := mp.rt.Optional(func() (any, error) {
		return mp.rt.Call("string", func() (any, error) { return mp.rt.Pattern(stringLiteralPattern) })
	})
	if err != nil || !ok {
		return "", false, err
	}
	return result.(string), true, nil
}

// tryPatternLiteral matches a `/regex/` or a `?/regex/?` pattern literal and
// returns the regex between the delimiters.
func (mp *MetaParser) tryPatternLiteral() (string, bool, error) {
	result, ok, err := mp.rt.Optional(func() (any, error) {
		return mp.rt.Pattern(`\?/(?s:.)*?/\?|` + regexLiteralPattern)
	})
	if err != nil || !ok {
		return "", false, err
	}
	raw := result.(string)
	if strings.HasPrefix(raw, "?/") {
		return raw[2 : len(raw)-2], true, nil
	}
	return raw[1 : len(raw)-1], true, nil
}
