package parser

import (
	"corecc/internal/ctype"
	"corecc/internal/record"
	"corecc/internal/scope"
	"corecc/internal/token"
)

// Bits accumulated while scanning declaration-specifier keywords, in the
// style of a chibicc-lineage counter trick (see
// _examples/original_source/ — SPEC_FULL.md §3): each primitive
// specifier keyword other than long adds a distinct bit, while each
// `long` bumps a separate counter (longCount), and resolvePrimitive turns
// the bits and the count into a base type at the end.
const (
	specVoid     = 1 << 0
	specBool     = 1 << 1
	specChar     = 1 << 2
	specShort    = 1 << 3
	specInt      = 1 << 4
	specLong     = 1 << 5 // never set in bits: each `long` increments longCount instead
	specFloat    = 1 << 7
	specDouble   = 1 << 8
	specSigned   = 1 << 9
	specUnsigned = 1 << 10
)

// declSpec is the result of parsing a declaration-specifier sequence:
// storage class, qualifiers, and the resolved base type (unqualified;
// Const/Volatile are applied separately by the caller to each declared
// name, since `const int x, *p;` qualifies differently per declarator in
// full C — this core applies the specifier-level qualifiers uniformly,
// which is sufficient for the declarator forms spec.md requires).
type declSpec struct {
	StorageClass string // "", "typedef", "extern", "static", "auto", "register"
	IsInline     bool
	IsConst      bool
	IsVolatile   bool
	Base         *ctype.Type
}

var primitiveSpecifierKeywords = map[string]int{
	"void": specVoid, "_Bool": specBool, "char": specChar, "short": specShort,
	"int": specInt, "long": specLong, "float": specFloat, "double": specDouble,
	"signed": specSigned, "unsigned": specUnsigned,
}

var storageClassKeywords = map[string]bool{
	"typedef": true, "extern": true, "static": true, "auto": true, "register": true,
}

var qualifierKeywords = map[string]bool{"const": true, "volatile": true, "restrict": true}

// isDeclarationStart reports whether the current token can begin a
// declaration-specifier sequence: a storage-class, qualifier, or
// function-specifier keyword; a primitive type keyword; struct/union/enum;
// or an identifier already bound as a typedef name.
func (p *Parser) isDeclarationStart() bool {
	cur := p.lex.Cur()
	if cur.Kind != token.Alnum {
		return false
	}
	text := p.text(cur)
	if storageClassKeywords[text] || qualifierKeywords[text] || text == "inline" {
		return true
	}
	if _, ok := primitiveSpecifierKeywords[text]; ok {
		return true
	}
	if text == "struct" || text == "union" || text == "enum" {
		return true
	}
	if _, ok := p.cur.FindTypedef(text, true); ok {
		return true
	}
	return false
}

// parseDeclarationSpecifiers parses storage-class specifiers, type
// qualifiers, function specifiers, and the type-specifier sequence,
// per spec.md §4.5.
func (p *Parser) parseDeclarationSpecifiers() declSpec {
	var spec declSpec
	var bits int
	var longCount int
	var userType *ctype.Type
	sawPrimitive := false
	sawUserType := false

	for {
		if !p.isDeclarationStart() {
			break
		}
		text := p.text(p.cur_())

		switch {
		case storageClassKeywords[text]:
			if spec.StorageClass != "" {
				p.fatalf("multiple storage-class specifiers")
			}
			spec.StorageClass = text
			p.lex.Consume()
			continue
		case text == "inline":
			spec.IsInline = true
			p.lex.Consume()
			continue
		case text == "const":
			spec.IsConst = true
			p.lex.Consume()
			continue
		case text == "volatile":
			spec.IsVolatile = true
			p.lex.Consume()
			continue
		case text == "restrict":
			p.lex.Consume()
			continue
		case text == "struct" || text == "union":
			if sawPrimitive {
				p.fatalf("cannot combine struct/union with a primitive type specifier")
			}
			sawUserType = true
			userType = p.parseStructOrUnionSpecifier()
			continue
		case text == "enum":
			if sawPrimitive {
				p.fatalf("cannot combine enum with a primitive type specifier")
			}
			sawUserType = true
			userType = p.parseEnumSpecifier()
			continue
		default:
			if bit, ok := primitiveSpecifierKeywords[text]; ok {
				if sawUserType {
					p.fatalf("cannot combine %q with a struct/union/enum/typedef type", text)
				}
				sawPrimitive = true
				if bit == specLong {
					longCount++
				} else {
					bits |= bit
				}
				p.lex.Consume()
				continue
			}
			if sym, ok := p.cur.FindTypedef(text, true); ok {
				if sawPrimitive || sawUserType {
					break
				}
				sawUserType = true
				userType = sym.Type
				p.lex.Consume()
				continue
			}
		}
		break
	}

	if sawUserType {
		spec.Base = userType
	} else {
		spec.Base = resolvePrimitive(p, bits, longCount)
	}
	return spec
}

// resolvePrimitive returns the base type for the accumulated specifier
// bits and long count, picking by priority (void, _Bool, char, short,
// long long, long, float, double, then int). It rejects `long long long`
// and `signed` together with `unsigned`; other invalid combinations, such
// as `short char` or `int double`, are not rejected and resolve to the
// higher-priority keyword's type.
func resolvePrimitive(p *Parser, bits, longCount int) *ctype.Type {
	if longCount > 2 {
		p.fatalf("'long long long' is invalid")
	}
	if bits&specSigned != 0 && bits&specUnsigned != 0 {
		p.fatalf("cannot combine 'signed' and 'unsigned'")
	}
	unsigned := bits&specUnsigned != 0

	switch {
	case bits == 0 && longCount == 0:
		// No specifiers at all defaults to int (matching the reference's
		// permissive K&R-era fallback); most callers never hit this because
		// isDeclarationStart requires at least one token.
		return ctype.IntType
	case bits&specVoid != 0:
		return ctype.VoidType
	case bits&specBool != 0:
		return ctype.BoolType
	case bits&specChar != 0:
		if unsigned {
			return ctype.NewBase(ctype.UChar)
		}
		if bits&specSigned != 0 {
			return ctype.NewBase(ctype.SChar)
		}
		return ctype.CharType // plain char: distinct base type, per spec.md §4.5
	case bits&specShort != 0:
		if unsigned {
			return ctype.NewBase(ctype.UShort)
		}
		return ctype.NewBase(ctype.Short)
	case longCount == 2:
		if unsigned {
			return ctype.NewBase(ctype.ULongLong)
		}
		return ctype.NewBase(ctype.LongLong)
	case longCount == 1:
		if bits&specDouble != 0 {
			return ctype.NewBase(ctype.LongDouble)
		}
		if unsigned {
			return ctype.ULongType
		}
		return ctype.LongType
	case bits&specFloat != 0:
		return ctype.NewBase(ctype.Float)
	case bits&specDouble != 0:
		return ctype.NewBase(ctype.Double)
	default:
		// plain `int`, `signed`, `unsigned`, or `signed int` / `unsigned int`
		if unsigned {
			return ctype.UIntType
		}
		return ctype.IntType
	}
}

// parseStructOrUnionSpecifier parses `struct|union [tag] [{ members }]`.
func (p *Parser) parseStructOrUnionSpecifier() *ctype.Type {
	kind := record.Struct
	if p.text(p.cur_()) == "union" {
		kind = record.Union
	}
	p.lex.Consume()

	tag := ""
	if p.lex.Cur().Kind == token.Alnum && !storageClassKeywords[p.text(p.cur_())] {
		tag = p.text(p.cur_())
		p.lex.Consume()
	}

	if !p.lex.Is("{") {
		// Reference to a previously (or forward-) declared tag.
		if tag == "" {
			p.fatalf("expected tag or '{' after struct/union")
		}
		if t, ok := p.cur.FindTag(tag, true); ok {
			return t
		}
		// Forward declaration: register an incomplete record now.
		r := record.New(tag, kind)
		t := ctype.NewRecord(r)
		p.cur.AddTag(tag, t)
		return t
	}

	p.lex.Consume() // '{'

	var rec *record.Record
	if tag != "" {
		if existing, ok := p.cur.LocalTag(tag); ok && existing.Kind == ctype.RecordType && !existing.Rec.IsDefined {
			rec = existing.Rec
		} else if ok {
			p.fatalf("redefinition of %q", tag)
		}
	}
	if rec == nil {
		rec = record.New(tag, kind)
	}
	t := ctype.NewRecord(rec)
	if tag != "" {
		p.cur.AddTag(tag, t)
	}

	for !p.lex.Is("}") {
		p.parseStructMember(rec)
	}
	p.lex.Consume() // '}'
	rec.IsDefined = true
	return t
}

// parseStructMember parses one member-declaration line, which may declare
// several members sharing a base type, may be an anonymous struct/union
// member, and may carry a bit-field width (parsed, unused, per spec.md §4.5).
func (p *Parser) parseStructMember(rec *record.Record) {
	spec := p.parseDeclarationSpecifiers()

	if p.lex.Is(";") {
		// Anonymous struct/union member: `struct { ... };` with no declarator.
		if spec.Base.Kind != ctype.RecordType {
			p.fatalf("expected member declarator")
		}
		p.lex.Consume()
		if err := rec.AddAnonymous(spec.Base, spec.Base.Rec); err != nil {
			p.fatalf("%v", err)
		}
		return
	}

	for {
		name, t := p.parseDeclarator(spec.Base)
		t = ctype.Qualify(t, spec.IsConst, spec.IsVolatile)

		bitWidth := 0
		hasBitfield := false
		if p.lex.Accept(":") {
			hasBitfield = true
			w := p.parseConstantExpr()
			if w < 0 || w > 64 {
				p.fatalf("bit-field width %d out of range", w)
			}
			bitWidth = int(w)
		}

		if t.IsFlexibleArray() {
			if err := rec.AddFlexible(name, t); err != nil {
				p.fatalf("%v", err)
			}
		} else {
			if err := rec.Add(name, t, bitWidth, hasBitfield); err != nil {
				p.fatalf("%v", err)
			}
		}

		if !p.lex.Accept(",") {
			break
		}
	}
	p.lex.Expect(";", "expected ';' after struct member")
}

// parseEnumSpecifier parses `enum [tag] [{ enumerator-list }]` and
// registers each enumerator as a signed-int constant symbol in the
// enclosing scope, per spec.md §4.3.
func (p *Parser) parseEnumSpecifier() *ctype.Type {
	p.lex.Consume() // 'enum'

	tag := ""
	if p.lex.Cur().Kind == token.Alnum && !storageClassKeywords[p.text(p.cur_())] {
		tag = p.text(p.cur_())
		p.lex.Consume()
	}

	if !p.lex.Is("{") {
		if tag == "" {
			p.fatalf("expected tag or '{' after enum")
		}
		if t, ok := p.cur.FindTag(tag, true); ok {
			return t
		}
		p.fatalf("use of undeclared enum %q", tag)
	}
	p.lex.Consume() // '{'

	e := record.NewEnum(tag)
	t := ctype.NewEnum(e)
	if tag != "" {
		p.cur.AddTag(tag, t)
	}

	for !p.lex.Is("}") {
		nameTok := p.lex.Cur()
		if nameTok.Kind != token.Alnum {
			p.fatalf("expected enumerator name")
		}
		name := p.text(nameTok)
		p.lex.Consume()

		value := e.NextValue()
		if p.lex.Accept("=") {
			value = p.parseConstantExpr()
		}
		e.Add(name, value)
		p.addEnumConstant(name, value, nameTok, t)

		if !p.lex.Accept(",") {
			break
		}
	}
	p.lex.Expect("}", "expected '}' to close enum")
	return t
}

// addEnumConstant registers one enumerator as a SymEnumConst symbol in the
// current scope (not the enum type itself), per spec.md §4.3: an enum's
// members are visible as ordinary constants wherever the enum is in scope.
func (p *Parser) addEnumConstant(name string, value int64, tok token.Token, enumType *ctype.Type) {
	if err := p.cur.AddSymbol(&scope.Symbol{
		Name:      name,
		Kind:      scope.SymEnumConst,
		Type:      enumType,
		DeclToken: tok,
		EnumValue: value,
		IsDefined: true,
	}); err != nil {
		p.fatalAt(tok, "%v", err)
	}
}
