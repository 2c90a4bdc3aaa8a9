package metagrammar

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ritamzico/parsekit/internal/model"
)

// Emit serializes g back to grammar source text, the inverse of New(...).Parse().
// It exists for the round-trip property (parse, emit, re-parse, compare):
// re-parsing Emit's output must produce a model structurally equal to g. It
// is not a pretty-printer — output favors a form each production's own
// parser function accepts unambiguously over matching the original layout.
func Emit(g *model.Grammar) string {
	var b strings.Builder
	if g.Title != "" {
		fmt.Fprintf(&b, "%s\n", g.Title)
	}
	for _, d := range g.Directives {
		emitDirective(&b, d)
	}
	for _, r := range g.Rules {
		emitRule(&b, r)
	}
	return b.String()
}

// emitDirective re-wraps a directive's value in whatever delimiter its
// original syntax required: directiveValue tries a regex literal first,
// then a quoted token, then the literal word "None", then a bare word
// list — the @@name itself (comments/eol_comments/whitespace take a regex;
// everything else is the bare-word or None form already stored in Value)
// tells us which applied.
func emitDirective(b *strings.Builder, d model.Directive) {
	fmt.Fprintf(b, "@@%s :: %s\n", d.Name, emitDirectiveValue(d))
}

func emitDirectiveValue(d model.Directive) string {
	if d.Value == "None" {
		return "None"
	}
	switch d.Name {
	case "comments", "eol_comments", "whitespace":
		return "/" + d.Value + "/"
	default:
		return d.Value
	}
}

func emitRule(b *strings.Builder, r *model.Rule) {
	for _, dec := range r.Decorators {
		fmt.Fprintf(b, "@%s\n", dec)
	}
	b.WriteString(r.Name)
	emitRuleParams(b, r.Params, r.KwParams)
	if r.Base != "" {
		fmt.Fprintf(b, " < %s", r.Base)
	}
	b.WriteString(" = ")
	emitExpr(b, r.Exp)
	b.WriteString(" ;\n")
}

func emitRuleParams(b *strings.Builder, params []any, kwparams map[string]any) {
	if len(params) == 0 && len(kwparams) == 0 {
		return
	}
	b.WriteString("(")
	first := true
	for _, p := range params {
		if !first {
			b.WriteString(", ")
		}
		first = false
		emitParamValue(b, p)
	}
	for name, v := range kwparams {
		if !first {
			b.WriteString(", ")
		}
		first = false
		fmt.Fprintf(b, "%s=", name)
		emitParamValue(b, v)
	}
	b.WriteString(")")
}

// emitConstantText renders a Constant's coerced Go value back into text that
// internal/semantics.coerceConstant will parse back into the same value.
func emitConstantText(v any) string {
	switch v := v.(type) {
	case nil:
		return "None"
	case bool:
		if v {
			return "True"
		}
		return "False"
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

func emitParamValue(b *strings.Builder, v any) {
	switch v := v.(type) {
	case string:
		fmt.Fprintf(b, "%q", v)
	case int:
		fmt.Fprintf(b, "%d", v)
	case float64:
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	default:
		fmt.Fprintf(b, "%v", v)
	}
}

// emitExpr renders exp so that re-parsing it through the same expression/
// sequence/choice precedence climb in metagrammar.go reconstructs an
// equivalent tree: every non-atomic child that the grammar of the grammar
// itself would otherwise misparse (a choice nested under a sequence, for
// instance) is wrapped in a parenthesized group.
func emitExpr(b *strings.Builder, e model.Element) {
	emitChoiceLevel(b, e)
}

func emitChoiceLevel(b *strings.Builder, e model.Element) {
	if c, ok := e.(*model.Choice); ok {
		for i, opt := range c.Options {
			if i > 0 {
				b.WriteString(" | ")
			}
			emitSequenceLevel(b, opt)
		}
		return
	}
	emitSequenceLevel(b, e)
}

func emitSequenceLevel(b *strings.Builder, e model.Element) {
	if s, ok := e.(*model.Sequence); ok {
		for i, el := range s.Elements {
			if i > 0 {
				b.WriteString(" ")
			}
			emitTerm(b, el)
		}
		return
	}
	emitTerm(b, e)
}

// emitTerm renders a single sequence element, parenthesizing it first if
// its precedence is lower than a term's (a bare Choice or Sequence
// appearing where only a term is expected would otherwise swallow its
// neighbors or split across them on re-parse).
func emitTerm(b *strings.Builder, e model.Element) {
	switch e := e.(type) {
	case *model.Named:
		fmt.Fprintf(b, "%s:", e.Name)
		emitAtomLevel(b, e.Exp)
	case *model.NamedList:
		fmt.Fprintf(b, "%s+:", e.Name)
		emitAtomLevel(b, e.Exp)
	case *model.Override:
		b.WriteString("@:")
		emitAtomLevel(b, e.Exp)
	case *model.OverrideList:
		b.WriteString("@+:")
		emitAtomLevel(b, e.Exp)
	default:
		emitAtomLevel(b, e)
	}
}

// emitAtomLevel renders e as an atom, wrapping in "( ... )" whenever e is a
// Choice or Sequence so that it parses back as a single term rather than
// bleeding into the surrounding sequence or choice.
func emitAtomLevel(b *strings.Builder, e model.Element) {
	switch e.(type) {
	case *model.Choice, *model.Sequence:
		b.WriteString("(")
		emitExpr(b, e)
		b.WriteString(")")
		return
	}
	emitAtom(b, e)
}

func emitAtom(b *strings.Builder, e model.Element) {
	switch e := e.(type) {
	case *model.Sequence:
		for i, el := range e.Elements {
			if i > 0 {
				b.WriteString(" ")
			}
			emitTerm(b, el)
		}
	case *model.Choice:
		for i, opt := range e.Options {
			if i > 0 {
				b.WriteString(" | ")
			}
			emitSequenceLevel(b, opt)
		}
	case *model.Closure:
		b.WriteString("{")
		emitExpr(b, e.Exp)
		b.WriteString("}")
	case *model.PositiveClosure:
		b.WriteString("{")
		emitExpr(b, e.Exp)
		b.WriteString("}+")
	case *model.EmptyClosure:
		b.WriteString("{")
		emitExpr(b, e.Exp)
		b.WriteString("}-")
	case *model.Optional:
		b.WriteString("[")
		emitExpr(b, e.Exp)
		b.WriteString("]")
	case *model.Group:
		b.WriteString("(")
		emitExpr(b, e.Exp)
		b.WriteString(")")
	case *model.Join:
		emitAtomLevel(b, e.Sep)
		b.WriteString(".")
		b.WriteString("{")
		emitExpr(b, e.Exp)
		b.WriteString("}")
		if e.Positive {
			b.WriteString("+")
		}
	case *model.Lookahead:
		b.WriteString("&")
		emitAtomLevel(b, e.Exp)
	case *model.NegativeLookahead:
		b.WriteString("!")
		emitAtomLevel(b, e.Exp)
	case *model.Token:
		fmt.Fprintf(b, "%q", e.Literal)
	case *model.Pattern:
		fmt.Fprintf(b, "/%s/", e.Regex)
	case *model.Constant:
		fmt.Fprintf(b, "`%s`", emitConstantText(e.Literal))
	case *model.RuleRef:
		b.WriteString(e.Name)
	case *model.RuleInclude:
		fmt.Fprintf(b, "> %s", e.Name)
	case *model.Cut:
		b.WriteString("~")
	case *model.Void:
		b.WriteString("()")
	case *model.Special:
		fmt.Fprintf(b, "?(%s)?", e.Text)
	case *model.EOF:
		b.WriteString("$")
	default:
		panic(fmt.Sprintf("metagrammar: Emit: unhandled element type %T", e))
	}
}
