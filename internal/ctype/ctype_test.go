package ctype

import "testing"

func TestIntegerRankOrdering(t *testing.T) {
	order := []*Type{NewBase(Bool), NewBase(Char), NewBase(Short), NewBase(Int), NewBase(Long), NewBase(LongLong)}
	for i := 1; i < len(order); i++ {
		if order[i].Rank() <= order[i-1].Rank() {
			t.Errorf("rank(%v)=%d should exceed rank(%v)=%d", order[i].Kind, order[i].Rank(), order[i-1].Kind, order[i-1].Rank())
		}
	}
}

func TestPromoteNarrowerThanInt(t *testing.T) {
	for _, k := range []Kind{Bool, Char, SChar, UChar, Short, UShort} {
		got := Promote(NewBase(k))
		if got.Kind != Int {
			t.Errorf("Promote(%v) = %v, want Int", k, got.Kind)
		}
	}
	if Promote(NewBase(Long)).Kind != Long {
		t.Errorf("Promote(Long) changed kind, should be a no-op")
	}
}

func TestUsualArithmeticConversionsSignedVsUnsignedEqualRank(t *testing.T) {
	got := UsualArithmeticConversions(NewBase(Int), NewBase(UInt))
	if got.Kind != UInt {
		t.Errorf("int vs unsigned int = %v, want UInt (unsigned wins at equal rank)", got.Kind)
	}
}

func TestUsualArithmeticConversionsIdempotent(t *testing.T) {
	cases := []*Type{NewBase(Int), NewBase(UInt), NewBase(Long), NewBase(Double)}
	for _, c := range cases {
		got := UsualArithmeticConversions(c, c)
		if !Equal(got, c) {
			t.Errorf("UsualArithmeticConversions(%v, %v) = %v, want no-op", c.Kind, c.Kind, got.Kind)
		}
	}
}

func TestUsualArithmeticConversionsFloatDominates(t *testing.T) {
	got := UsualArithmeticConversions(NewBase(Int), NewBase(Double))
	if got.Kind != Double {
		t.Errorf("int vs double = %v, want Double", got.Kind)
	}
}

func TestEqualIgnoresNothingIncludingQualifiers(t *testing.T) {
	a := Qualify(NewBase(Int), true, false)
	b := NewBase(Int)
	if Equal(a, b) {
		t.Error("const int should not Equal plain int")
	}
	if !CompatibleUnqual(a, b) {
		t.Error("const int should be CompatibleUnqual with plain int")
	}
}

func TestPointerAndArraySizeAlignment(t *testing.T) {
	p := NewPointer(NewBase(Int), false, false, false)
	if p.Size() != pointerSize || p.Alignment() != pointerSize {
		t.Errorf("pointer size/align = %d/%d, want %d/%d", p.Size(), p.Alignment(), pointerSize, pointerSize)
	}
	arr := NewArray(NewBase(Int), 4)
	if arr.Size() != 16 {
		t.Errorf("int[4] size = %d, want 16", arr.Size())
	}
}

func TestFlexibleArrayDetection(t *testing.T) {
	if !NewIndeterminate(NewBase(Int)).IsFlexibleArray() {
		t.Error("indeterminate array should be flexible")
	}
	if !NewArray(NewBase(Int), 0).IsFlexibleArray() {
		t.Error("zero-length array should be flexible")
	}
	if NewArray(NewBase(Int), 1).IsFlexibleArray() {
		t.Error("int[1] should not be flexible")
	}
}
