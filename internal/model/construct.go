package model

// Constructors for every concrete Element. These are the only way for
// other packages (internal/metagrammar, internal/semantics) to attach a
// Position to a node, since the embedded node type is unexported.

func NewGrammar(pos Position, title string) *Grammar {
	return &Grammar{node: node{pos}, Title: title}
}

func NewRule(pos Position, decorators []string, name string, params []any, kwparams map[string]any, base string, exp Element) *Rule {
	return &Rule{node: node{pos}, Decorators: decorators, Name: name, Params: params, KwParams: kwparams, Base: base, Exp: exp}
}

func NewSequence(pos Position, elements []Element) *Sequence {
	return &Sequence{node: node{pos}, Elements: elements}
}

func NewChoice(pos Position, options []Element) *Choice {
	return &Choice{node: node{pos}, Options: options}
}

func NewClosure(pos Position, exp Element) *Closure { return &Closure{node: node{pos}, Exp: exp} }

func NewPositiveClosure(pos Position, exp Element) *PositiveClosure {
	return &PositiveClosure{node: node{pos}, Exp: exp}
}

func NewEmptyClosure(pos Position, exp Element) *EmptyClosure {
	return &EmptyClosure{node: node{pos}, Exp: exp}
}

func NewOptional(pos Position, exp Element) *Optional { return &Optional{node: node{pos}, Exp: exp} }

func NewGroup(pos Position, exp Element) *Group { return &Group{node: node{pos}, Exp: exp} }

func NewJoin(pos Position, sep, exp Element, positive bool) *Join {
	return &Join{node: node{pos}, Sep: sep, Exp: exp, Positive: positive}
}

func NewLookahead(pos Position, exp Element) *Lookahead {
	return &Lookahead{node: node{pos}, Exp: exp}
}

func NewNegativeLookahead(pos Position, exp Element) *NegativeLookahead {
	return &NegativeLookahead{node: node{pos}, Exp: exp}
}

func NewToken(pos Position, literal string) *Token { return &Token{node: node{pos}, Literal: literal} }

func NewPattern(pos Position, regex string) *Pattern { return &Pattern{node: node{pos}, Regex: regex} }

func NewConstant(pos Position, literal any) *Constant {
	return &Constant{node: node{pos}, Literal: literal}
}

func NewRuleRef(pos Position, name string) *RuleRef { return &RuleRef{node: node{pos}, Name: name} }

func NewRuleInclude(pos Position, name string) *RuleInclude {
	return &RuleInclude{node: node{pos}, Name: name}
}

func NewNamed(pos Position, name string, exp Element) *Named {
	return &Named{node: node{pos}, Name: name, Exp: exp}
}

func NewNamedList(pos Position, name string, exp Element) *NamedList {
	return &NamedList{node: node{pos}, Name: name, Exp: exp}
}

func NewOverride(pos Position, exp Element) *Override { return &Override{node: node{pos}, Exp: exp} }

func NewOverrideList(pos Position, exp Element) *OverrideList {
	return &OverrideList{node: node{pos}, Exp: exp}
}

func NewCut(pos Position) *Cut   { return &Cut{node{pos}} }
func NewVoid(pos Position) *Void { return &Void{node{pos}} }

func NewSpecial(pos Position, text string) *Special { return &Special{node: node{pos}, Text: text} }

func NewEOF(pos Position) *EOF { return &EOF{node{pos}} }
