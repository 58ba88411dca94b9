// Package record implements spec.md §4.3: struct/union member layout
// (offsets, alignment, anonymous-member flattening) and enum constant
// lists. It is deliberately independent of the ctype package: a Member's
// Type is any value satisfying SizeAligner, so ctype.Type can be used as
// the concrete member type without record importing ctype (which in turn
// embeds *Record/*Enum values) — the alternative would be a package
// import cycle ctype -> record -> ctype.
package record

import "fmt"

// SizeAligner is the minimal interface record layout needs from a member's
// type. ctype.Type implements it directly from already-computed fields, so
// no side-table of struct definitions (as the teacher's
// `Size(structs map[string]*StructDef)` needed) is required here: a
// *Record is embedded directly in the owning ctype.Type, so Size/Alignment
// are always immediately available.
type SizeAligner interface {
	Size() int
	Alignment() int
}

// Kind distinguishes struct from union layout rules.
type Kind int

const (
	Struct Kind = iota
	Union
)

// Member is one field of a record. Anonymous (Name == "") struct/union
// members are stored once here; their own members are additionally
// flattened into the parent's name index by AddAnonymous.
type Member struct {
	Name       string
	Type       SizeAligner
	Offset     int
	BitWidth   int  // parsed only; spec.md §4.5 — storage is not implemented
	HasBitfield bool
}

// Record is a struct or union type's layout.
type Record struct {
	Tag         string
	Kind        Kind
	Members     []Member
	byName      map[string]*Member // flattened: includes anonymous members' fields
	Size        int
	Align       int
	IsDefined   bool
	hasFlexible bool // true once a flexible-array member has been added
}

// New creates an empty, not-yet-defined record.
func New(tag string, kind Kind) *Record {
	return &Record{
		Tag:    tag,
		Kind:   kind,
		byName: make(map[string]*Member),
		Align:  1,
	}
}

// Add appends a named member, computing its offset per spec.md §4.3:
// structs lay members out in increasing, alignment-rounded offsets;
// unions place every member at offset 0. Returns an error on duplicate
// names.
func (r *Record) Add(name string, t SizeAligner, bitWidth int, hasBitfield bool) error {
	if r.hasFlexible {
		return fmt.Errorf("member %q follows a flexible array member, which must be last", name)
	}
	if name != "" {
		if _, exists := r.byName[name]; exists {
			return fmt.Errorf("duplicate member %q", name)
		}
	}

	align := t.Alignment()
	size := t.Size()

	var offset int
	switch r.Kind {
	case Union:
		offset = 0
	default:
		prevEnd := r.Size
		offset = alignUp(prevEnd, align)
	}

	m := Member{Name: name, Type: t, Offset: offset, BitWidth: bitWidth, HasBitfield: hasBitfield}
	r.Members = append(r.Members, m)
	if name != "" {
		r.byName[name] = &r.Members[len(r.Members)-1]
	}

	if align > r.Align {
		r.Align = align
	}

	switch r.Kind {
	case Union:
		if size > r.Size {
			r.Size = size
		}
	default:
		end := offset + size
		if end > r.Size {
			r.Size = alignUp(end, r.Align)
		}
	}
	return nil
}

// AddFlexible appends a flexible-array member (zero or indeterminate
// length): it must be the last member and contributes 0 to Size, per
// spec.md §4.3/§8.
func (r *Record) AddFlexible(name string, t SizeAligner) error {
	if r.hasFlexible {
		return fmt.Errorf("member %q follows a flexible array member, which must be last", name)
	}
	if _, exists := r.byName[name]; name != "" && exists {
		return fmt.Errorf("duplicate member %q", name)
	}
	align := t.Alignment()
	offset := alignUp(r.Size, align)
	m := Member{Name: name, Type: t, Offset: offset}
	r.Members = append(r.Members, m)
	if name != "" {
		r.byName[name] = &r.Members[len(r.Members)-1]
	}
	if align > r.Align {
		r.Align = align
	}
	// Size is not widened: a flexible array contributes 0 bytes.
	r.hasFlexible = true
	return nil
}

// AddAnonymous appends an anonymous struct/union member (itself a
// *Record's member list) and flattens its field names into this record's
// name index, with the anonymous member's own offset added to each
// flattened field's reported offset.
func (r *Record) AddAnonymous(t SizeAligner, inner *Record) error {
	if r.hasFlexible {
		return fmt.Errorf("anonymous member follows a flexible array member, which must be last")
	}
	align := t.Alignment()
	size := t.Size()

	var offset int
	switch r.Kind {
	case Union:
		offset = 0
	default:
		offset = alignUp(r.Size, align)
	}

	r.Members = append(r.Members, Member{Name: "", Type: t, Offset: offset})

	for name, m := range inner.byName {
		if _, exists := r.byName[name]; exists {
			return fmt.Errorf("duplicate member %q (via anonymous member)", name)
		}
		flattened := *m
		flattened.Offset += offset
		r.byName[name] = &flattened
	}

	if align > r.Align {
		r.Align = align
	}
	switch r.Kind {
	case Union:
		if size > r.Size {
			r.Size = size
		}
	default:
		end := offset + size
		if end > r.Size {
			r.Size = alignUp(end, r.Align)
		}
	}
	return nil
}

// Find looks up a member (including flattened anonymous fields) by name.
// Fails only when the record is not yet complete, per spec.md §4.3.
func (r *Record) Find(name string) (*Member, bool, error) {
	if !r.IsDefined {
		return nil, false, fmt.Errorf("incomplete type %s has no members yet", r.describe())
	}
	m, ok := r.byName[name]
	return m, ok, nil
}

func (r *Record) describe() string {
	kind := "struct"
	if r.Kind == Union {
		kind = "union"
	}
	if r.Tag == "" {
		return kind
	}
	return kind + " " + r.Tag
}

func alignUp(n, align int) int {
	if align <= 1 {
		return n
	}
	return (n + align - 1) / align * align
}

// Enum is a set of named integer constants sharing a tag. Per spec.md
// §4.3, the constants themselves are registered as ordinary-namespace
// symbols in the enclosing scope by the caller (internal/parser), not
// stored as symbols here — Enum only remembers the declaration order and
// values for diagnostics and re-use.
type Enum struct {
	Tag     string
	Members []EnumMember
}

// EnumMember is one (name, value) pair of an enum definition.
type EnumMember struct {
	Name  string
	Value int64
}

// NewEnum creates an empty enum with the given optional tag.
func NewEnum(tag string) *Enum {
	return &Enum{Tag: tag}
}

// Add appends an enumerator. The caller supplies the resolved value
// (auto-incremented from the previous member, or an explicit constant
// expression), per spec.md §4.3.
func (e *Enum) Add(name string, value int64) {
	e.Members = append(e.Members, EnumMember{Name: name, Value: value})
}

// NextValue returns the value the next unlabelled enumerator should take:
// one more than the last member's value, or 0 for the first.
func (e *Enum) NextValue() int64 {
	if len(e.Members) == 0 {
		return 0
	}
	return e.Members[len(e.Members)-1].Value + 1
}
