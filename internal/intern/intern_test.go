package intern

import "testing"

func TestInternIdentity(t *testing.T) {
	p := NewPool()
	a := p.Intern("foo")
	b := p.Intern("foo")
	if a != b {
		t.Fatalf("Intern(\"foo\") returned different handles: %d vs %d", a, b)
	}
	c := p.Intern("bar")
	if a == c {
		t.Fatalf("distinct strings got the same handle %d", a)
	}
	if p.String(a) != "foo" || p.String(c) != "bar" {
		t.Fatalf("String round-trip failed: %q %q", p.String(a), p.String(c))
	}
}

func TestInternEmpty(t *testing.T) {
	p := NewPool()
	if p.String(0) != "" {
		t.Fatalf("handle 0 should be the empty string, got %q", p.String(0))
	}
	if p.Intern("") != 0 {
		t.Fatalf("interning the empty string should return handle 0")
	}
}
