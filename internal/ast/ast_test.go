package ast

import (
	"testing"

	"corecc/internal/ctype"
	"corecc/internal/token"
)

func TestAppendDetachOrder(t *testing.T) {
	n := New(Block, token.Token{})
	a, b, c := New(Ident, token.Token{}), New(Ident, token.Token{}), New(Ident, token.Token{})
	n.Append(a)
	n.Append(b)
	n.Append(c)
	if len(n.Children) != 3 || n.Child(0) != a || n.Child(1) != b || n.Child(2) != c {
		t.Fatalf("children not in append order: %v", n.Children)
	}
	n.Detach(b)
	if len(n.Children) != 2 || n.Child(0) != a || n.Child(1) != c {
		t.Fatalf("detach did not preserve relative order: %v", n.Children)
	}
}

func TestCastIsNoOpWhenTypeMatches(t *testing.T) {
	n := New(NumberLit, token.Token{})
	n.Type = ctype.IntType
	got := Cast(n, ctype.IntType)
	if got != n {
		t.Error("Cast to the same type should return the node unchanged")
	}
}

func TestPromoteNodeWrapsNarrowTypes(t *testing.T) {
	n := New(Ident, token.Token{})
	n.Type = ctype.NewBase(ctype.Short)
	got := PromoteNode(n)
	if got.Kind != Cast || got.Type.Kind != ctype.Int {
		t.Fatalf("PromoteNode(short) = %v/%v, want a Cast to Int", got.Kind, got.Type)
	}
	if got.Child(0) != n {
		t.Error("promotion cast should wrap the original node")
	}
}

func TestDecayArrayToPointer(t *testing.T) {
	n := New(Ident, token.Token{})
	n.Type = ctype.NewArray(ctype.IntType, 4)
	got := Decay(n)
	if got.Kind != Cast || got.Type.Kind != ctype.Pointer || got.Type.Elem.Kind != ctype.Int {
		t.Fatalf("Decay(int[4]) = %v, want Cast to @int", got.Type)
	}
}
