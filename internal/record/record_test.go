package record

import "testing"

// fakeType is a minimal SizeAligner for layout tests, standing in for
// ctype.Type without creating an import cycle with the ctype package.
type fakeType struct {
	size, align int
}

func (f fakeType) Size() int      { return f.size }
func (f fakeType) Alignment() int { return f.align }

func TestStructOffsetsIncreaseAndAlign(t *testing.T) {
	r := New("P", Struct)
	must(t, r.Add("a", fakeType{1, 1}, 0, false))
	must(t, r.Add("b", fakeType{4, 4}, 0, false))
	must(t, r.Add("c", fakeType{2, 2}, 0, false))
	r.IsDefined = true

	cases := []struct {
		name   string
		offset int
	}{
		{"a", 0},
		{"b", 4}, // padded up to 4-byte alignment
		{"c", 8},
	}
	for _, c := range cases {
		m, ok, err := r.Find(c.name)
		if err != nil || !ok {
			t.Fatalf("Find(%q): %v, ok=%v", c.name, err, ok)
		}
		if m.Offset != c.offset {
			t.Errorf("member %s offset = %d, want %d", c.name, m.Offset, c.offset)
		}
	}
	if r.Align != 4 {
		t.Errorf("record align = %d, want 4", r.Align)
	}
	if r.Size != 12 || r.Size%r.Align != 0 {
		t.Errorf("record size = %d, want 12 (end of c at 10, rounded up to align %d)", r.Size, r.Align)
	}
}

func TestUnionAllOffsetsZero(t *testing.T) {
	r := New("U", Union)
	must(t, r.Add("a", fakeType{1, 1}, 0, false))
	must(t, r.Add("b", fakeType{4, 4}, 0, false))
	r.IsDefined = true

	for _, name := range []string{"a", "b"} {
		m, _, err := r.Find(name)
		if err != nil {
			t.Fatal(err)
		}
		if m.Offset != 0 {
			t.Errorf("union member %s offset = %d, want 0", name, m.Offset)
		}
	}
	if r.Size != 4 {
		t.Errorf("union size = %d, want 4", r.Size)
	}
}

func TestDuplicateMemberRejected(t *testing.T) {
	r := New("S", Struct)
	must(t, r.Add("x", fakeType{1, 1}, 0, false))
	if err := r.Add("x", fakeType{1, 1}, 0, false); err == nil {
		t.Fatal("expected error for duplicate member, got nil")
	}
}

func TestFlexibleArrayContributesZeroSize(t *testing.T) {
	r := New("F", Struct)
	must(t, r.Add("len", fakeType{4, 4}, 0, false))
	must(t, r.AddFlexible("data", fakeType{1, 1}))
	r.IsDefined = true
	if r.Size != 4 {
		t.Errorf("size with flexible array = %d, want 4", r.Size)
	}
}

func TestFlexibleArrayMustBeLastMember(t *testing.T) {
	r := New("F", Struct)
	must(t, r.Add("len", fakeType{4, 4}, 0, false))
	must(t, r.AddFlexible("data", fakeType{1, 1}))
	if err := r.Add("trailer", fakeType{4, 4}, 0, false); err == nil {
		t.Fatal("expected error for a member following a flexible array member")
	}
}

func TestAnonymousMemberFlattening(t *testing.T) {
	inner := New("", Struct)
	must(t, inner.Add("x", fakeType{4, 4}, 0, false))
	must(t, inner.Add("y", fakeType{4, 4}, 0, false))
	inner.IsDefined = true

	outer := New("Outer", Struct)
	must(t, outer.Add("tag", fakeType{1, 1}, 0, false))
	innerType := fakeType{inner.Size, inner.Align}
	must(t, outer.AddAnonymous(innerType, inner))
	outer.IsDefined = true

	m, ok, err := outer.Find("x")
	if err != nil || !ok {
		t.Fatalf("Find(x) via anonymous member: %v, ok=%v", err, ok)
	}
	if m.Offset != 4 { // tag is 1 byte, inner aligned to 4
		t.Errorf("flattened x offset = %d, want 4", m.Offset)
	}
}

func TestEnumAutoIncrement(t *testing.T) {
	e := NewEnum("E")
	e.Add("A", e.NextValue())
	e.Add("B", 5)
	e.Add("C", e.NextValue())
	want := map[string]int64{"A": 0, "B": 5, "C": 6}
	for _, m := range e.Members {
		if m.Value != want[m.Name] {
			t.Errorf("%s = %d, want %d", m.Name, m.Value, want[m.Name])
		}
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}
