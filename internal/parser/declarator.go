package parser

import (
	"corecc/internal/ctype"
	"corecc/internal/token"
)

// parseDeclarator parses one declarator (pointer prefix, then a direct
// declarator, then postfix array/function modifiers in source order,
// per spec.md §4.5) and returns the declared name (empty for an abstract
// declarator) and its full type built around base.
func (p *Parser) parseDeclarator(base *ctype.Type) (string, *ctype.Type) {
	t := base
	for p.lex.Accept("*") {
		isConst, isVolatile, isRestrict := false, false, false
		for {
			switch {
			case p.lex.Accept("const"):
				isConst = true
			case p.lex.Accept("volatile"):
				isVolatile = true
			case p.lex.Accept("restrict"):
				isRestrict = true
			default:
				goto doneQuals
			}
		}
	doneQuals:
		t = ctype.NewPointer(t, isConst, isVolatile, isRestrict)
	}
	return p.parseDirectDeclarator(t)
}

// parseDirectDeclarator parses the identifier-or-parenthesised core of a
// declarator, then applies any postfix array/function modifiers,
// attaching them to the innermost declarator per spec.md §4.5.
func (p *Parser) parseDirectDeclarator(base *ctype.Type) (string, *ctype.Type) {
	if p.lex.Accept("(") {
		// Parenthesised declarator: parse an inner declarator with a
		// placeholder base, then splice `base` in at its innermost point
		// once the postfix modifiers (which bind to the parens) are known.
		placeholder := &ctype.Type{Kind: ctype.Invalid}
		name, inner := p.parseDeclarator(placeholder)
		p.lex.Expect(")", "expected ')' to close parenthesised declarator")
		outer := p.parsePostfixDeclarator(base)
		return name, spliceType(inner, placeholder, outer)
	}

	name := ""
	if p.lex.Cur().Kind == token.Alnum && !storageClassKeywords[p.text(p.lex.Cur())] && !qualifierKeywords[p.text(p.lex.Cur())] {
		name = p.text(p.lex.Cur())
		p.lex.Consume()
	}
	return name, p.parsePostfixDeclarator(base)
}

// parsePostfixDeclarator parses zero or more array/function postfixes
// applied to base, left to right: `int a[3][4]` is array-of-3 of
// array-of-4 of int, and `int f(int, char)` wraps base in one function
// declarator.
func (p *Parser) parsePostfixDeclarator(base *ctype.Type) *ctype.Type {
	if p.lex.Accept("[") {
		var length int64 = -1 // -1 marks "indeterminate"
		if !p.lex.Is("]") {
			length = p.parseConstantExpr()
		}
		p.lex.Expect("]", "expected ']' after array dimension")
		elem := p.parsePostfixDeclarator(base)
		if elem.Kind == ctype.Function {
			p.fatalf("declarator cannot yield array of functions")
		}
		if length < 0 {
			return ctype.NewIndeterminate(elem)
		}
		return ctype.NewArray(elem, length)
	}

	if p.lex.Accept("(") {
		if base.Kind == ctype.Function {
			p.fatalf("function cannot return a function type")
		}
		p.pushScope()
		proto := p.cur
		proto.IsPrototype = true
		params, names, variadic := p.parseParamList()
		p.popScope()
		p.lex.Expect(")", "expected ')' after parameter list")
		ft := ctype.NewFunction(base, params, names, variadic)
		ft.ProtoScope = proto
		return ft
	}

	return base
}

// parseParamList parses a C parameter-type-list: `void`, an empty list,
// or a comma-separated list of parameter declarations with an optional
// trailing `...`. Array parameters decay to pointers per spec.md §4.5.
func (p *Parser) parseParamList() ([]*ctype.Type, []string, bool) {
	var params []*ctype.Type
	var names []string

	if p.lex.Is(")") {
		return nil, nil, false
	}
	if p.lex.Is("void") {
		// Lookahead: `(void)` (no following identifier/`)`) means no params.
		save := p.lex.Cur()
		p.lex.Consume()
		if p.lex.Is(")") {
			return nil, nil, false
		}
		p.lex.PushBack(save)
	}

	for {
		if p.lex.Accept("...") {
			return params, names, true
		}
		spec := p.parseDeclarationSpecifiers()
		name, t := p.parseDeclarator(spec.Base)
		t = ctype.Qualify(t, spec.IsConst, spec.IsVolatile)
		if t.Kind == ctype.Array {
			t = ctype.NewPointer(t.Elem, false, false, false)
		} else if t.Kind == ctype.IndeterminateArray {
			t = ctype.NewPointer(t.Elem, false, false, false)
		}
		params = append(params, t)
		names = append(names, name)
		if !p.lex.Accept(",") {
			break
		}
	}
	return params, names, false
}

// spliceType replaces the placeholder node found somewhere in the chain
// rooted at t with outer, used to resolve parenthesised declarators like
// `int (*f)(void)` where the parens' postfix (the function-of-void part)
// must attach at the point marked by placeholder, not at the outermost
// pointer.
func spliceType(t *ctype.Type, placeholder, outer *ctype.Type) *ctype.Type {
	if t == placeholder {
		return outer
	}
	switch t.Kind {
	case ctype.Pointer:
		clone := *t
		clone.Elem = spliceType(t.Elem, placeholder, outer)
		return &clone
	case ctype.Array, ctype.IndeterminateArray:
		clone := *t
		clone.Elem = spliceType(t.Elem, placeholder, outer)
		return &clone
	case ctype.Function:
		clone := *t
		clone.Return = spliceType(t.Return, placeholder, outer)
		return &clone
	default:
		return t
	}
}
