// Package astnode implements the per-rule AST accumulator: a name->value
// mapping with set/append slot semantics, plus an anonymous default slot
// ("@") used for single-value rule results.
package astnode

// DefaultSlot is the name of the anonymous accumulator slot. Its contents
// become a rule's "value" when the rule returns a single unnamed result.
const DefaultSlot = "@"

// Node is one rule's AST accumulator. The zero value is ready to use.
type Node struct {
	order  []string
	values map[string]any
}

// New returns an empty Node.
func New() *Node {
	return &Node{values: make(map[string]any)}
}

func (n *Node) ensure() {
	if n.values == nil {
		n.values = make(map[string]any)
	}
}

// Set stores value under name. A second Set on the same name promotes the
// slot to an ordered list containing the prior value followed by the new
// one; a third and further Set keeps appending to that list.
func (n *Node) Set(name string, value any) {
	n.ensure()
	prev, ok := n.values[name]
	if !ok {
		n.order = append(n.order, name)
		n.values[name] = value
		return
	}
	if list, isList := prev.([]any); isList {
		n.values[name] = append(list, value)
		return
	}
	n.values[name] = []any{prev, value}
}

// Append always grows an ordered list under name, regardless of how many
// prior values it held.
func (n *Node) Append(name string, value any) {
	n.ensure()
	prev, ok := n.values[name]
	if !ok {
		n.order = append(n.order, name)
		n.values[name] = []any{value}
		return
	}
	list, isList := prev.([]any)
	if !isList {
		list = []any{prev}
	}
	n.values[name] = append(list, value)
}

// NameLast moves value into the current AST under name using set
// semantics. fromRepeat indicates value is itself the result of a
// repetition combinator (closure/positive_closure/join); this does not
// change Set's own semantics (which never flattens), but it is accepted
// here for symmetry with AddLastNodeToName and to let callers share one
// call site.
func (n *Node) NameLast(name string, value any, fromRepeat bool) {
	n.Set(name, value)
}

// AddLastNodeToName moves value into the current AST under name using
// append semantics. When fromRepeat is true and value is itself an ordered
// list (the result of a repetition combinator), its elements are flattened
// into the target list instead of being nested as one element; otherwise
// value is appended as a single element.
func (n *Node) AddLastNodeToName(name string, value any, fromRepeat bool) {
	n.ensure()
	if fromRepeat {
		if list, ok := value.([]any); ok {
			prev, exists := n.values[name]
			if !exists {
				n.order = append(n.order, name)
				n.values[name] = append([]any{}, list...)
				return
			}
			prevList, isList := prev.([]any)
			if !isList {
				prevList = []any{prev}
			}
			n.values[name] = append(prevList, list...)
			return
		}
	}
	n.Append(name, value)
}

// Get returns the value stored under name, if any.
func (n *Node) Get(name string) (any, bool) {
	if n.values == nil {
		return nil, false
	}
	v, ok := n.values[name]
	return v, ok
}

// Define ensures every name in required and optional exists in the node.
// Names already present are untouched; required names absent are seeded
// with nil, optional names absent are seeded with nil as well — the
// distinction exists for documentation and future validation hooks, not for
// differing storage behavior. This gives rules a stable AST shape across
// alternatives regardless of which alternative fired.
func (n *Node) Define(required, optional []string) {
	n.ensure()
	for _, name := range required {
		if _, ok := n.values[name]; !ok {
			n.order = append(n.order, name)
			n.values[name] = nil
		}
	}
	for _, name := range optional {
		if _, ok := n.values[name]; !ok {
			n.order = append(n.order, name)
			n.values[name] = nil
		}
	}
}

// Default returns the contents of the anonymous default slot ("@").
func (n *Node) Default() (any, bool) { return n.Get(DefaultSlot) }

// SetDefault stores value in the anonymous default slot using Set
// semantics.
func (n *Node) SetDefault(value any) { n.Set(DefaultSlot, value) }

// AppendDefault appends value to the anonymous default slot.
func (n *Node) AppendDefault(value any) { n.Append(DefaultSlot, value) }

// Names returns the slot names in first-set order.
func (n *Node) Names() []string {
	out := make([]string, len(n.order))
	copy(out, n.order)
	return out
}

// Value returns the node's effective "value": the default slot's contents
// if it is the only populated slot, nil if no slot is populated, otherwise
// the node itself. This is
// what lets a rule return a single unnamed result transparently.
func (n *Node) Value() any {
	if len(n.order) == 1 && n.order[0] == DefaultSlot {
		v, _ := n.Default()
		return v
	}
	if len(n.order) == 0 {
		return nil
	}
	return n
}

// AsMap returns a shallow copy of the node's slots, keyed by name.
func (n *Node) AsMap() map[string]any {
	out := make(map[string]any, len(n.values))
	for k, v := range n.values {
		out[k] = v
	}
	return out
}
