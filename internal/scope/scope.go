// Package scope implements spec.md §4.4: nested lexical scopes with three
// namespaces (ordinary, tag, typedef) and the symbol table entries that
// live in them, including linkage and tentative-definition tracking.
package scope

import (
	"fmt"

	"corecc/internal/ctype"
	"corecc/internal/token"
)

// Linkage classifies a declaration's visibility across translation units,
// per spec.md §4.4 and the GLOSSARY.
type Linkage int

const (
	NoLinkage Linkage = iota
	Internal          // static at file scope
	External          // default at file scope, or extern anywhere
)

// SymKind tags what a Symbol denotes.
type SymKind int

const (
	SymInvalid SymKind = iota
	SymVariable
	SymFunction
	SymTypedef
	SymEnumConst
	SymBuiltin
)

// Symbol is one entry in a scope's ordinary or typedef namespace.
type Symbol struct {
	Name      string
	Kind      SymKind
	Type      *ctype.Type
	DeclToken token.Token
	AsmName   string // may differ from Name: static locals, __asm__ renames
	Linkage   Linkage
	IsDefined   bool
	IsTentative bool
	IsHidden    bool

	EnumValue int64  // SymEnumConst
	Builtin   string // SymBuiltin: identifies which builtin (va_start, ...)
}

// Scope is one lexical nesting level: the global scope has a nil Parent.
type Scope struct {
	Parent *Scope

	ordinary map[string]*Symbol
	tags     map[string]*ctype.Type
	typedefs map[string]*Symbol

	// IsPrototype marks a scope created to hold a function's parameters
	// (and any tags declared among them), so it can be re-entered when the
	// function body is parsed, per spec.md §4.4 "Prototype scope".
	IsPrototype bool
}

// NewGlobal creates the root scope.
func NewGlobal() *Scope {
	return newScope(nil)
}

func newScope(parent *Scope) *Scope {
	return &Scope{
		Parent:   parent,
		ordinary: make(map[string]*Symbol),
		tags:     make(map[string]*ctype.Type),
		typedefs: make(map[string]*Symbol),
	}
}

// Push allocates and returns a new child scope.
func (s *Scope) Push() *Scope { return newScope(s) }

// IsGlobal reports whether this is the file (translation-unit) scope.
func (s *Scope) IsGlobal() bool { return s.Parent == nil }

// --- ordinary namespace --------------------------------------------------

// AddSymbol inserts sym into the ordinary namespace of this scope.
// Per spec.md §4.4, duplicates are rejected only within a single scope;
// shadowing an outer scope's symbol of the same name is allowed.
func (s *Scope) AddSymbol(sym *Symbol) error {
	if _, exists := s.ordinary[sym.Name]; exists {
		return fmt.Errorf("redeclaration of %q in this scope", sym.Name)
	}
	s.ordinary[sym.Name] = sym
	return nil
}

// FindSymbol looks up name in the ordinary namespace, walking parent
// scopes when recursive is true.
func (s *Scope) FindSymbol(name string, recursive bool) *Symbol {
	for cur := s; cur != nil; cur = cur.Parent {
		if sym, ok := cur.ordinary[name]; ok {
			return sym
		}
		if !recursive {
			return nil
		}
	}
	return nil
}

// --- tag namespace ---------------------------------------------------------

// AddTag inserts a struct/union/enum tag's type into this scope's tag
// namespace. Redeclaring a tag already defined in this exact scope with a
// different type is rejected by the caller (internal/parser), which holds
// the "is this a completion vs. a conflicting redefinition" logic; AddTag
// itself just records the binding.
func (s *Scope) AddTag(name string, t *ctype.Type) {
	s.tags[name] = t
}

// FindTag looks up a tag, walking parent scopes when recursive is true.
func (s *Scope) FindTag(name string, recursive bool) (*ctype.Type, bool) {
	for cur := s; cur != nil; cur = cur.Parent {
		if t, ok := cur.tags[name]; ok {
			return t, true
		}
		if !recursive {
			return nil, false
		}
	}
	return nil, false
}

// LocalTag reports the tag bound directly in this scope (no parent
// walk), used to decide whether `struct S { ... };` is a fresh
// definition or a duplicate-in-scope error.
func (s *Scope) LocalTag(name string) (*ctype.Type, bool) {
	t, ok := s.tags[name]
	return t, ok
}

// --- typedef namespace -----------------------------------------------------

// AddTypedef inserts a typedef name into this scope's typedef namespace.
func (s *Scope) AddTypedef(sym *Symbol) error {
	if _, exists := s.typedefs[sym.Name]; exists {
		return fmt.Errorf("redeclaration of typedef %q in this scope", sym.Name)
	}
	s.typedefs[sym.Name] = sym
	return nil
}

// FindTypedef looks up a typedef name, walking parent scopes when
// recursive is true.
func (s *Scope) FindTypedef(name string, recursive bool) (*Symbol, bool) {
	for cur := s; cur != nil; cur = cur.Parent {
		if sym, ok := cur.typedefs[name]; ok {
			return sym, true
		}
		if !recursive {
			return nil, false
		}
	}
	return nil, false
}

// Global walks up to the translation-unit scope, used when computing
// default linkage for a declaration (file scope vs. block scope).
func (s *Scope) Global() *Scope {
	cur := s
	for cur.Parent != nil {
		cur = cur.Parent
	}
	return cur
}
