package model

// Walk visits e and every element reachable from it, calling visit on each
// in a pre-order traversal. If visit returns false for a node, Walk does
// not descend into that node's children, but sibling traversal elsewhere
// in the tree continues unaffected.
func Walk(e Element, visit func(Element) bool) {
	if e == nil {
		return
	}
	if !visit(e) {
		return
	}
	switch n := e.(type) {
	case *Grammar:
		for _, r := range n.Rules {
			Walk(r, visit)
		}
	case *Rule:
		Walk(n.Exp, visit)
	case *Sequence:
		for _, el := range n.Elements {
			Walk(el, visit)
		}
	case *Choice:
		for _, el := range n.Options {
			Walk(el, visit)
		}
	case *Closure:
		Walk(n.Exp, visit)
	case *PositiveClosure:
		Walk(n.Exp, visit)
	case *EmptyClosure:
		Walk(n.Exp, visit)
	case *Optional:
		Walk(n.Exp, visit)
	case *Group:
		Walk(n.Exp, visit)
	case *Join:
		Walk(n.Sep, visit)
		Walk(n.Exp, visit)
	case *Lookahead:
		Walk(n.Exp, visit)
	case *NegativeLookahead:
		Walk(n.Exp, visit)
	case *Named:
		Walk(n.Exp, visit)
	case *NamedList:
		Walk(n.Exp, visit)
	case *Override:
		Walk(n.Exp, visit)
	case *OverrideList:
		Walk(n.Exp, visit)
	// Token, Pattern, Constant, RuleRef, RuleInclude, Cut, Void, Special,
	// EOF are leaves with no children to descend into.
	}
}
