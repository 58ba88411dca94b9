package scope

import (
	"testing"

	"corecc/internal/ctype"
)

func TestScopeStackingRoundTrip(t *testing.T) {
	g := NewGlobal()
	cur := g
	for i := 0; i < 5; i++ {
		cur = cur.Push()
	}
	for i := 0; i < 5; i++ {
		cur = cur.Parent
	}
	if cur != g {
		t.Fatalf("after 5 pushes and 5 pops, scope is not the original global scope")
	}
}

func TestDuplicateInSameScopeRejected(t *testing.T) {
	s := NewGlobal()
	a := &Symbol{Name: "x", Kind: SymVariable, Type: ctype.IntType}
	b := &Symbol{Name: "x", Kind: SymVariable, Type: ctype.IntType}
	if err := s.AddSymbol(a); err != nil {
		t.Fatalf("first AddSymbol: %v", err)
	}
	if err := s.AddSymbol(b); err == nil {
		t.Fatal("expected error for duplicate symbol in same scope")
	}
}

func TestShadowingAcrossScopesAllowed(t *testing.T) {
	outer := NewGlobal()
	outer.AddSymbol(&Symbol{Name: "x", Kind: SymVariable, Type: ctype.IntType})
	inner := outer.Push()
	if err := inner.AddSymbol(&Symbol{Name: "x", Kind: SymVariable, Type: ctype.NewBase(ctype.Long)}); err != nil {
		t.Fatalf("shadowing in a child scope should be allowed: %v", err)
	}
	if sym := inner.FindSymbol("x", true); sym.Type.Kind != ctype.Long {
		t.Errorf("inner scope should see its own x, got kind %v", sym.Type.Kind)
	}
	if sym := outer.FindSymbol("x", true); sym.Type.Kind != ctype.Int {
		t.Errorf("outer scope's x should be unaffected by shadowing, got kind %v", sym.Type.Kind)
	}
}

func TestRecursiveFindWalksParents(t *testing.T) {
	outer := NewGlobal()
	outer.AddSymbol(&Symbol{Name: "g", Kind: SymVariable, Type: ctype.IntType})
	inner := outer.Push()
	if inner.FindSymbol("g", true) == nil {
		t.Fatal("recursive find should see outer scope's symbol")
	}
	if inner.FindSymbol("g", false) != nil {
		t.Fatal("non-recursive find should not see outer scope's symbol")
	}
}

func TestLinkageRules(t *testing.T) {
	g := NewGlobal()
	if got := ResolveLinkage(g, "f", false, false); got != External {
		t.Errorf("file-scope non-static = %v, want External", got)
	}
	if got := ResolveLinkage(g, "f", true, false); got != Internal {
		t.Errorf("file-scope static = %v, want Internal", got)
	}
	block := g.Push()
	if got := ResolveLinkage(block, "f", false, false); got != NoLinkage {
		t.Errorf("block-scope plain = %v, want NoLinkage", got)
	}
	g.AddSymbol(&Symbol{Name: "g_static", Kind: SymVariable, Type: ctype.IntType, Linkage: Internal})
	if got := ResolveLinkage(block, "g_static", false, true); got != Internal {
		t.Errorf("block-scope extern of an internal file-scope symbol = %v, want Internal", got)
	}
}
