package parser

import (
	"corecc/internal/ast"
	"corecc/internal/ctype"
	"corecc/internal/scope"
	"corecc/internal/token"
)

// addTypedef registers name as a typedef for t in the current scope, per
// spec.md §4.4's typedef namespace.
func (p *Parser) addTypedef(name string, t *ctype.Type, tok token.Token) {
	if err := p.cur.AddTypedef(&scope.Symbol{
		Name: name, Kind: scope.SymTypedef, Type: t, DeclToken: tok, IsDefined: true,
	}); err != nil {
		p.fatalAt(tok, "%v", err)
	}
}

// declareLocal registers a block-scope variable and returns the Decl node
// representing it, per spec.md §4.4's linkage rules: a block-scope
// `extern` declaration adopts the linkage of a matching file-scope symbol
// if one exists, else gets external linkage of its own; anything else at
// block scope has no linkage.
func (p *Parser) declareLocal(name string, t *ctype.Type, tok token.Token, spec declSpec) *ast.Node {
	linkage := scope.ResolveLinkage(p.cur, name, spec.StorageClass == "static", spec.StorageClass == "extern")
	sym := &scope.Symbol{
		Name: name, Kind: scope.SymVariable, Type: t, DeclToken: tok, Linkage: linkage,
	}
	if err := p.cur.AddSymbol(sym); err != nil {
		p.fatalAt(tok, "%v", err)
	}
	if p.curFunc != nil && linkage == scope.NoLinkage {
		p.curFunc.node.Locals = append(p.curFunc.node.Locals, sym)
	}
	n := ast.New(ast.Decl, tok)
	n.Type = t
	n.Sym = sym
	return n
}

// parseExternalDeclaration parses one top-level declaration: a function
// definition, a function prototype, file-scope variables, or a bare
// struct/enum/typedef declaration producing no emitted node, per
// spec.md §4.5.
func (p *Parser) parseExternalDeclaration() *ast.Node {
	tok := p.lex.Cur()
	spec := p.parseDeclarationSpecifiers()

	if p.lex.Accept(";") {
		return nil // `struct S { ... };` with no declarator
	}

	nameTok := p.lex.Cur()
	name, t := p.parseDeclarator(spec.Base)

	if spec.StorageClass == "typedef" {
		p.addTypedef(name, t, nameTok)
		for p.lex.Accept(",") {
			n2, t2 := p.parseDeclarator(spec.Base)
			p.addTypedef(n2, t2, nameTok)
		}
		p.lex.Expect(";", "expected ';' after typedef")
		return nil
	}

	if t.Kind == ctype.Function && p.lex.Is("{") {
		return p.parseFunctionDefinition(tok, name, t, nameTok, spec)
	}

	linkage := scope.ResolveLinkage(p.global, name, spec.StorageClass == "static", spec.StorageClass == "extern")
	sym := &scope.Symbol{Name: name, Kind: symKindFor(t), Type: t, DeclToken: nameTok, Linkage: linkage}
	if existing := p.global.FindSymbol(name, false); existing != nil {
		p.checkRedeclaration(existing, t, nameTok)
		sym = existing
	} else if err := p.global.AddSymbol(sym); err != nil {
		p.fatalAt(nameTok, "%v", err)
	}

	for {
		if p.lex.Accept("=") {
			sym.IsDefined = true
			init := p.parseInitializer(t)
			completeIndeterminateArray(t, init)
		} else if t.Kind != ctype.Function {
			sym.IsTentative = true
		}
		if !p.lex.Accept(",") {
			break
		}
		nameTok = p.lex.Cur()
		name, t = p.parseDeclarator(spec.Base)
		sym = &scope.Symbol{Name: name, Kind: symKindFor(t), Type: t, DeclToken: nameTok, Linkage: linkage}
		if existing := p.global.FindSymbol(name, false); existing != nil {
			p.checkRedeclaration(existing, t, nameTok)
			sym = existing
		} else if err := p.global.AddSymbol(sym); err != nil {
			p.fatalAt(nameTok, "%v", err)
		}
	}
	p.lex.Expect(";", "expected ';' after declaration")
	return nil
}

// checkRedeclaration enforces spec.md §4.4/§8: a second file-scope
// declaration of the same name must be compatible (ignoring top-level
// qualifiers) with the first. Mismatched function argument types or
// return types — `int f(int); int f(long);` — are a fatal semantic
// error rather than silently reusing the earlier symbol's type.
func (p *Parser) checkRedeclaration(existing *scope.Symbol, t *ctype.Type, tok token.Token) {
	if !ctype.CompatibleUnqual(existing.Type, t) {
		p.fatalAt(tok, "conflicting types for %q", existing.Name)
	}
}

// completeIndeterminateArray implements spec.md §3's invariant that an
// indeterminate-array declarator "must appear only as a function
// parameter or a variable later completed by initialiser/redeclaration":
// `int a[] = {1,2,3};` completes to `int[3]` from the brace-list element
// count, and `char s[] = "hi";` completes to the string literal's array
// length (bytes plus the implicit terminator). t is mutated in place so
// every earlier holder of the pointer (the symbol, the Decl node) sees
// the completed length.
func completeIndeterminateArray(t *ctype.Type, init *ast.Node) {
	if t == nil || t.Kind != ctype.IndeterminateArray || init == nil {
		return
	}
	switch init.Kind {
	case ast.InitList:
		t.Kind = ctype.Array
		t.ArrayLen = int64(len(init.Children))
	case ast.StringLit:
		t.Kind = ctype.Array
		t.ArrayLen = init.Type.ArrayLen
	}
}

// lowerInitializer expands a block-scope declaration's initialiser into a
// sequence of plain Assign statements appended to block, so the code
// generator never has to special-case aggregate initialisers: a scalar
// initialiser becomes one `target = expr` assignment; a brace list against
// a struct/union type becomes one assignment per member (extra
// initialisers beyond the member count are dropped); a brace list against an array becomes one assignment per
// element, each addressed by a constant `index*elementSize` offset from
// target (a synthesised MemberAccess node, not Index — every index here
// is already known at parse time, and Index expects an already-decayed
// pointer value rather than target's own lvalue address). target is the
// lvalue expression the initialiser is being stored into — the Decl node
// itself for the outermost call, a synthesised MemberAccess node for
// recursive calls into an aggregate's members/elements.
func (p *Parser) lowerInitializer(block, target *ast.Node, t *ctype.Type, init *ast.Node, tok token.Token) {
	if init == nil || t == nil {
		return
	}
	if init.Kind != ast.InitList {
		assign := ast.New(ast.Assign, tok)
		assign.Type = t
		assign.Append(target)
		assign.Append(p.convertAssign(t, init))
		block.Append(assign)
		return
	}

	switch {
	case t.IsRecord():
		members := t.Rec.Members
		for i, child := range init.Children {
			if i >= len(members) {
				break
			}
			mem := members[i]
			if mem.Name == "" {
				continue // anonymous member: nested brace-init not supported
			}
			memberType, _ := mem.Type.(*ctype.Type)
			lv := ast.New(ast.MemberAccess, tok)
			lv.MemberName = mem.Name
			lv.MemberOffset = mem.Offset
			lv.Type = memberType
			lv.Append(target)
			p.lowerInitializer(block, lv, memberType, child, tok)
		}
	case t.IsArray():
		// Every index here is a parse-time constant, so each element is
		// addressed the same way a struct member is: a fixed byte offset
		// from target's address (MemberAccess, not Index — Index expects
		// an already-decayed pointer *value*, which target, an lvalue
		// expression, is not).
		elemType := t.Elem
		elemSize := elemType.Size()
		for i, child := range init.Children {
			lv := ast.New(ast.MemberAccess, tok)
			lv.Type = elemType
			lv.MemberOffset = i * elemSize
			lv.Append(target)
			p.lowerInitializer(block, lv, elemType, child, tok)
		}
	default:
		// A scalar wrapped in braces, e.g. `int x = {5};`: the first
		// (only meaningful) element initialises the scalar directly.
		if len(init.Children) > 0 {
			p.lowerInitializer(block, target, t, init.Children[0], tok)
		}
	}
}

func symKindFor(t *ctype.Type) scope.SymKind {
	if t.Kind == ctype.Function {
		return scope.SymFunction
	}
	return scope.SymVariable
}

// parseInitializer parses a file-scope or block-scope initialiser. A brace
// list becomes an InitList node with one child per element (nested lists
// allowed; designators are not supported), which lowerInitializer later
// matches against the declared type. At file scope an arithmetic scalar
// initialiser is evaluated as a constant expression; everything else is
// parsed as an assignment-expression.
func (p *Parser) parseInitializer(t *ctype.Type) *ast.Node {
	if p.lex.Is("{") {
		tok := p.lex.Cur()
		p.lex.Consume()
		n := ast.New(ast.InitList, tok)
		for !p.lex.Is("}") {
			n.Append(p.parseInitializer(nil))
			if !p.lex.Accept(",") {
				break
			}
		}
		p.lex.Expect("}", "expected '}' to close initialiser list")
		return n
	}
	if t != nil && t.IsArithmetic() && p.curFunc == nil {
		tok := p.lex.Cur()
		v := p.parseConstantExpr()
		n := ast.New(ast.NumberLit, tok)
		n.Type = t
		n.IntValue = v
		return n
	}
	return p.parseAssign()
}

// parseFunctionDefinition parses a function body, re-entering the
// parameter scope the declarator built (spec.md §4.4 "Prototype scope")
// so parameter names are visible in the body without being redeclared.
func (p *Parser) parseFunctionDefinition(tok token.Token, name string, t *ctype.Type, nameTok token.Token, spec declSpec) *ast.Node {
	linkage := scope.ResolveLinkage(p.global, name, spec.StorageClass == "static", false)
	sym := p.global.FindSymbol(name, false)
	if sym == nil {
		sym = &scope.Symbol{Name: name, Kind: scope.SymFunction, Type: t, DeclToken: nameTok, Linkage: linkage}
		if err := p.global.AddSymbol(sym); err != nil {
			p.fatalAt(nameTok, "%v", err)
		}
	} else {
		p.checkRedeclaration(sym, t, nameTok)
	}
	sym.IsDefined = true

	fn := ast.New(ast.FuncDef, tok)
	fn.Type = t
	fn.Sym = sym

	outer := p.cur
	if ps, ok := t.ProtoScope.(*scope.Scope); ok && ps != nil {
		p.cur = ps
	} else {
		p.pushScope()
	}

	prevFunc := p.curFunc
	p.curFunc = &funcContext{
		node:            fn,
		declaredLabels:  map[string]bool{},
		referencedGotos: map[string]token.Token{},
	}

	for i, pname := range t.ParamNames {
		if pname == "" {
			continue
		}
		pt := t.Params[i]
		paramSym := &scope.Symbol{Name: pname, Kind: scope.SymVariable, Type: pt, DeclToken: tok, IsDefined: true}
		if p.cur.FindSymbol(pname, false) == nil {
			p.cur.AddSymbol(paramSym)
		}
		fn.Locals = append(fn.Locals, paramSym)
	}

	body := p.parseCompoundStatement()
	fn.Append(body)

	for label, at := range p.curFunc.referencedGotos {
		if !p.curFunc.declaredLabels[label] {
			p.fatalAt(at, "use of undeclared label %q", label)
		}
	}

	p.curFunc = prevFunc
	p.cur = outer
	return fn
}
