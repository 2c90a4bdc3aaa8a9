package astnode

import "testing"

func TestSetPromotesToList(t *testing.T) {
	n := New()
	n.Set("x", 1)
	n.Set("x", 2)
	v, ok := n.Get("x")
	if !ok {
		t.Fatal("expected x to be set")
	}
	list, isList := v.([]any)
	if !isList || len(list) != 2 || list[0] != 1 || list[1] != 2 {
		t.Fatalf("expected [1 2], got %#v", v)
	}
}

func TestAppendAlwaysGrowsList(t *testing.T) {
	n := New()
	n.Append("x", 1)
	v, _ := n.Get("x")
	list, ok := v.([]any)
	if !ok || len(list) != 1 {
		t.Fatalf("expected single-element list, got %#v", v)
	}
	n.Append("x", 2)
	v, _ = n.Get("x")
	list = v.([]any)
	if len(list) != 2 {
		t.Fatalf("expected two-element list, got %#v", v)
	}
}

func TestDefineSeedsMissingNames(t *testing.T) {
	n := New()
	n.Set("a", 1)
	n.Define([]string{"a", "b"}, []string{"c"})
	if _, ok := n.Get("b"); !ok {
		t.Fatal("expected b to be seeded")
	}
	if _, ok := n.Get("c"); !ok {
		t.Fatal("expected c to be seeded")
	}
	v, _ := n.Get("a")
	if v != 1 {
		t.Fatalf("expected a to remain 1, got %#v", v)
	}
}

func TestValueReturnsDefaultSlotWhenSoleSlot(t *testing.T) {
	n := New()
	n.SetDefault("hello")
	if n.Value() != "hello" {
		t.Fatalf("expected 'hello', got %#v", n.Value())
	}
}

func TestValueReturnsNodeWhenMultipleSlots(t *testing.T) {
	n := New()
	n.SetDefault("hello")
	n.Set("x", 1)
	if n.Value() != n {
		t.Fatalf("expected node itself, got %#v", n.Value())
	}
}

func TestAddLastNodeToNameFlattensRepeatResult(t *testing.T) {
	n := New()
	n.AddLastNodeToName("items", []any{"a", "b"}, true)
	v, _ := n.Get("items")
	list := v.([]any)
	if len(list) != 2 || list[0] != "a" || list[1] != "b" {
		t.Fatalf("expected flattened [a b], got %#v", v)
	}
}

func TestAddLastNodeToNameNestsNonRepeatList(t *testing.T) {
	n := New()
	n.AddLastNodeToName("items", []any{"a", "b"}, false)
	v, _ := n.Get("items")
	list := v.([]any)
	if len(list) != 1 {
		t.Fatalf("expected nested single element, got %#v", v)
	}
	inner, ok := list[0].([]any)
	if !ok || len(inner) != 2 {
		t.Fatalf("expected nested [a b] as element 0, got %#v", list[0])
	}
}
