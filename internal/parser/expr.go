package parser

import (
	"corecc/internal/ast"
	"corecc/internal/ctype"
	"corecc/internal/scope"
	"corecc/internal/token"
)

// parseExpr parses a full comma-expression, per spec.md §4.5.
func (p *Parser) parseExpr() *ast.Node {
	n := p.parseAssign()
	for p.lex.Accept(",") {
		rhs := p.parseAssign()
		c := ast.New(ast.Comma, n.Tok)
		c.Type = rhs.Type
		c.Append(n)
		c.Append(rhs)
		n = c
	}
	return n
}

// parseAssign parses an assignment-expression: a right-associative
// assignment/compound-assignment, or (falling through) a conditional-
// expression, per spec.md §4.5.
func (p *Parser) parseAssign() *ast.Node {
	lhs := p.parseConditional()

	switch {
	case p.lex.Accept("="):
		rhs := p.parseAssign()
		return p.buildAssign(lhs, rhs)
	case p.lex.Is("+=") || p.lex.Is("-=") || p.lex.Is("*=") || p.lex.Is("/=") || p.lex.Is("%=") ||
		p.lex.Is("&=") || p.lex.Is("|=") || p.lex.Is("^=") || p.lex.Is("<<=") || p.lex.Is(">>="):
		op := p.text(p.cur_())
		p.lex.Consume()
		rhs := p.parseAssign()
		return p.buildCompoundAssign(lhs, op, rhs)
	default:
		return lhs
	}
}

func (p *Parser) buildAssign(lhs, rhs *ast.Node) *ast.Node {
	n := ast.New(ast.Assign, lhs.Tok)
	n.Type = lhs.Type
	rhs = p.convertAssign(lhs.Type, rhs)
	n.Append(lhs)
	n.Append(rhs)
	return n
}

func (p *Parser) buildCompoundAssign(lhs *ast.Node, op string, rhs *ast.Node) *ast.Node {
	n := ast.New(ast.CompoundAssign, lhs.Tok)
	n.Op = op[:len(op)-1] // strip trailing '='
	n.Type = lhs.Type
	n.Append(lhs)
	n.Append(rhs)
	return n
}

// convertAssign implicitly converts rhs to target (the simple-assignment
// conversion of spec.md §4.5); pointer/array mismatches are left to
// codegen-time since full compatibility checking is out of this layer's
// scope.
func (p *Parser) convertAssign(target *ctype.Type, rhs *ast.Node) *ast.Node {
	rhs = ast.Decay(rhs)
	if target == nil || rhs.Type == nil {
		return rhs
	}
	if ctype.Equal(ctype.Unqualified(target), ctype.Unqualified(rhs.Type)) {
		return rhs
	}
	if target.IsArithmetic() && rhs.Type.IsArithmetic() {
		return ast.Cast(rhs, target)
	}
	if target.IsPointer() {
		return ast.Cast(rhs, target)
	}
	return rhs
}

func (p *Parser) parseConditional() *ast.Node {
	cond := p.parseLogOr()
	if !p.lex.Accept("?") {
		return cond
	}
	then := p.parseExpr()
	p.lex.Expect(":", "expected ':' in conditional expression")
	els := p.parseConditional()

	result := then.Type
	if then.Type != nil && els.Type != nil && then.Type.IsArithmetic() && els.Type.IsArithmetic() {
		result = ctype.UsualArithmeticConversions(then.Type, els.Type)
		then = ast.Cast(then, result)
		els = ast.Cast(els, result)
	}

	n := ast.New(ast.Conditional, cond.Tok)
	n.Type = result
	n.Append(ast.MakePredicate(cond))
	n.Append(then)
	n.Append(els)
	return n
}

// binaryLevel describes one precedence level of left-associative binary
// operators, from lowest to highest, per spec.md §4.5's grammar.
type binaryLevel struct {
	ops      []string
	next     func(*Parser) *ast.Node
	logical  bool // && / || : result is always a predicate-typed int, no UAC
	relation bool // == != < > <= >= : result is int, operands get UAC for comparison only
}

func (p *Parser) parseLogOr() *ast.Node  { return p.parseBinaryLevel(logOrLevel) }
func (p *Parser) parseLogAnd() *ast.Node { return p.parseBinaryLevel(logAndLevel) }

var logOrLevel, logAndLevel, bitOrLevel, bitXorLevel, bitAndLevel, eqLevel, relLevel, shiftLevel, addLevel, mulLevel binaryLevel

func init() {
	logAndLevel = binaryLevel{ops: []string{"&&"}, next: (*Parser).parseBitOr, logical: true}
	logOrLevel = binaryLevel{ops: []string{"||"}, next: (*Parser).parseLogAnd, logical: true}
	bitOrLevel = binaryLevel{ops: []string{"|"}, next: (*Parser).parseBitXor}
	bitXorLevel = binaryLevel{ops: []string{"^"}, next: (*Parser).parseBitAnd}
	bitAndLevel = binaryLevel{ops: []string{"&"}, next: (*Parser).parseEquality}
	eqLevel = binaryLevel{ops: []string{"==", "!="}, next: (*Parser).parseRelational, relation: true}
	relLevel = binaryLevel{ops: []string{"<", ">", "<=", ">="}, next: (*Parser).parseShift, relation: true}
	shiftLevel = binaryLevel{ops: []string{"<<", ">>"}, next: (*Parser).parseAdditive}
	addLevel = binaryLevel{ops: []string{"+", "-"}, next: (*Parser).parseMultiplicative}
	mulLevel = binaryLevel{ops: []string{"*", "/", "%"}, next: (*Parser).parseCast}
}

func (p *Parser) parseBitOr() *ast.Node         { return p.parseBinaryLevel(bitOrLevel) }
func (p *Parser) parseBitXor() *ast.Node        { return p.parseBinaryLevel(bitXorLevel) }
func (p *Parser) parseBitAnd() *ast.Node        { return p.parseBinaryLevel(bitAndLevel) }
func (p *Parser) parseEquality() *ast.Node      { return p.parseBinaryLevel(eqLevel) }
func (p *Parser) parseRelational() *ast.Node    { return p.parseBinaryLevel(relLevel) }
func (p *Parser) parseShift() *ast.Node         { return p.parseBinaryLevel(shiftLevel) }
func (p *Parser) parseAdditive() *ast.Node      { return p.parseAdditiveLevel() }
func (p *Parser) parseMultiplicative() *ast.Node { return p.parseBinaryLevel(mulLevel) }

func (p *Parser) parseBinaryLevel(level binaryLevel) *ast.Node {
	lhs := level.next(p)
	for {
		matched := ""
		for _, op := range level.ops {
			if p.lex.Is(op) {
				matched = op
				break
			}
		}
		if matched == "" {
			return lhs
		}
		p.lex.Consume()
		rhs := level.next(p)
		lhs = p.buildBinary(lhs, matched, rhs, level)
	}
}

func (p *Parser) buildBinary(lhs *ast.Node, op string, rhs *ast.Node, level binaryLevel) *ast.Node {
	lhs, rhs = ast.Decay(lhs), ast.Decay(rhs)
	n := ast.New(ast.Binary, lhs.Tok)
	n.Op = op

	switch {
	case level.logical:
		n.Type = ctype.IntType
		n.Append(ast.MakePredicate(lhs))
		n.Append(ast.MakePredicate(rhs))
	case lhs.Type != nil && lhs.Type.IsPointer() && (op == "+" || op == "-") && rhs.Type != nil && rhs.Type.IsInteger():
		n.Type = lhs.Type
		n.Append(lhs)
		n.Append(rhs)
	case lhs.Type != nil && rhs.Type != nil && lhs.Type.IsPointer() && rhs.Type.IsPointer() && op == "-":
		n.Type = ctype.LongType
		n.Append(lhs)
		n.Append(rhs)
	default:
		common := lhs.Type
		if lhs.Type != nil && rhs.Type != nil && lhs.Type.IsArithmetic() && rhs.Type.IsArithmetic() {
			common = ctype.UsualArithmeticConversions(lhs.Type, rhs.Type)
			lhs = ast.Cast(lhs, common)
			rhs = ast.Cast(rhs, common)
		}
		if level.relation {
			n.Type = ctype.IntType
		} else {
			n.Type = common
		}
		n.Append(lhs)
		n.Append(rhs)
	}
	return n
}

// parseAdditiveLevel is additive's own driver since it must handle pointer
// arithmetic's asymmetric operand types, which buildBinary's generic path
// already covers; kept as a thin wrapper for readability.
func (p *Parser) parseAdditiveLevel() *ast.Node { return p.parseBinaryLevel(addLevel) }

// --- unary / cast / postfix / primary ------------------------------------

func (p *Parser) parseCast() *ast.Node {
	if p.lex.Is("(") {
		save := p.lex.Cur()
		p.lex.Consume()
		if p.isDeclarationStart() {
			spec := p.parseDeclarationSpecifiers()
			_, t := p.parseDeclarator(spec.Base)
			p.lex.Expect(")", "expected ')' after type name")
			operand := p.parseCast()
			return ast.Cast(ast.Decay(operand), t)
		}
		p.lex.PushBack(save)
	}
	return p.parseUnary()
}

func (p *Parser) parseUnary() *ast.Node {
	tok := p.lex.Cur()
	switch {
	case p.lex.Accept("+"):
		return ast.PromoteNode(ast.Decay(p.parseCast()))
	case p.lex.Accept("-"):
		operand := ast.PromoteNode(ast.Decay(p.parseCast()))
		n := ast.New(ast.Unary, tok)
		n.Op = "-"
		n.Type = operand.Type
		n.Append(operand)
		return n
	case p.lex.Accept("!"):
		operand := ast.MakePredicate(p.parseCast())
		n := ast.New(ast.Unary, tok)
		n.Op = "!"
		n.Type = ctype.IntType
		n.Append(operand)
		return n
	case p.lex.Accept("~"):
		operand := ast.PromoteNode(ast.Decay(p.parseCast()))
		n := ast.New(ast.Unary, tok)
		n.Op = "~"
		n.Type = operand.Type
		n.Append(operand)
		return n
	case p.lex.Accept("*"):
		operand := ast.Decay(p.parseCast())
		n := ast.New(ast.Unary, tok)
		n.Op = "*"
		if operand.Type != nil && operand.Type.IsPointer() {
			n.Type = operand.Type.Elem
		}
		n.Append(operand)
		return n
	case p.lex.Accept("&"):
		operand := p.parseCast() // no decay: & binds the object itself
		n := ast.New(ast.Unary, tok)
		n.Op = "&"
		if operand.Type != nil {
			n.Type = ctype.NewPointer(operand.Type, false, false, false)
		}
		n.Append(operand)
		return n
	case p.lex.Accept("++"), p.lex.Accept("--"):
		// Accept already consumed one of them; re-derive which.
		op := "++"
		if tok.Text(p.pool) == "--" {
			op = "--"
		}
		operand := p.parseUnary()
		n := ast.New(ast.Unary, tok)
		n.Op = op
		n.Type = operand.Type
		n.IsPostfix = false
		n.Append(operand)
		return n
	case p.lex.Is("sizeof"):
		return p.parseSizeofExpr()
	default:
		return p.parsePostfix()
	}
}

func (p *Parser) parseSizeofExpr() *ast.Node {
	tok := p.lex.Cur()
	p.lex.Consume()
	n := ast.New(ast.Sizeof, tok)
	n.Type = ctype.ULongType

	if p.lex.Is("(") {
		save := p.lex.Cur()
		p.lex.Consume()
		if p.isDeclarationStart() {
			spec := p.parseDeclarationSpecifiers()
			_, t := p.parseDeclarator(spec.Base)
			p.lex.Expect(")", "expected ')' after type name")
			n.IntValue = int64(t.Size())
			return n
		}
		p.lex.PushBack(save)
	}
	operand := p.parseUnary()
	if operand.Type != nil {
		n.IntValue = int64(operand.Type.Size())
	}
	n.Append(operand)
	return n
}

func (p *Parser) parsePostfix() *ast.Node {
	n := p.parsePrimary()
	for {
		switch {
		case p.lex.Accept("["):
			idx := p.parseExpr()
			p.lex.Expect("]", "expected ']'")
			base, index := ast.Decay(n), ast.Decay(idx)
			if base.Type != nil && base.Type.IsInteger() {
				base, index = index, base // `3[p]` form
			}
			elemT := &ctype.Type{Kind: ctype.Invalid}
			if base.Type != nil && base.Type.IsPointer() {
				elemT = base.Type.Elem
			}
			idxNode := ast.New(ast.Index, n.Tok)
			idxNode.Type = elemT
			idxNode.Append(base)
			idxNode.Append(index)
			n = idxNode
		case p.lex.Accept("."):
			n = p.buildMemberAccess(n, ast.MemberAccess)
		case p.lex.Accept("->"):
			n = p.buildMemberAccess(n, ast.MemberPtrAccess)
		case p.lex.Accept("("):
			n = p.parseCallArgs(n)
		case p.lex.Is("++"), p.lex.Is("--"):
			op := p.text(p.cur_())
			p.lex.Consume()
			u := ast.New(ast.Unary, n.Tok)
			u.Op = op
			u.Type = n.Type
			u.IsPostfix = true
			u.Append(n)
			n = u
		default:
			return n
		}
	}
}

func (p *Parser) buildMemberAccess(n *ast.Node, kind ast.Kind) *ast.Node {
	nameTok := p.lex.Cur()
	if nameTok.Kind != token.Alnum {
		p.fatalf("expected member name")
	}
	name := p.text(nameTok)
	p.lex.Consume()

	recType := n.Type
	if kind == ast.MemberPtrAccess && recType != nil && recType.IsPointer() {
		recType = recType.Elem
	}
	m := ast.New(kind, n.Tok)
	m.MemberName = name
	if recType != nil && recType.IsRecord() {
		mem, ok, err := recType.Rec.Find(name)
		if err != nil {
			p.fatalAt(nameTok, "%v", err)
		} else if !ok {
			p.fatalAt(nameTok, "no member named %q", name)
		} else {
			m.Type = mem.Type.(*ctype.Type)
			m.MemberOffset = mem.Offset
		}
	}
	m.Append(n)
	return m
}

func (p *Parser) parseCallArgs(callee *ast.Node) *ast.Node {
	n := ast.New(ast.Call, callee.Tok)
	if callee.Type != nil && callee.Type.IsFunction() {
		n.Type = callee.Type.Return
	} else if callee.Type != nil && callee.Type.IsPointer() && callee.Type.Elem.IsFunction() {
		n.Type = callee.Type.Elem.Return
	}
	n.Append(callee)
	if !p.lex.Is(")") {
		for {
			n.Append(ast.Decay(p.parseAssign()))
			if !p.lex.Accept(",") {
				break
			}
		}
	}
	p.lex.Expect(")", "expected ')' after call arguments")
	return n
}

func (p *Parser) parsePrimary() *ast.Node {
	tok := p.lex.Cur()
	switch tok.Kind {
	case token.Number:
		p.lex.Consume()
		text := p.text(tok)
		n := ast.New(ast.NumberLit, tok)
		if isFloatLiteralText(text) {
			lit := parseFloatLiteral(p, text)
			n.Type = lit.Type
			n.FloatValue = lit.Value
		} else {
			lit := parseIntLiteral(p, text)
			n.Type = lit.Type
			n.IntValue = lit.Value
		}
		return n
	case token.Char:
		p.lex.Consume()
		n := ast.New(ast.CharLit, tok)
		n.Type = ctype.IntType
		n.IntValue = tok.IntValue
		return n
	case token.String:
		p.lex.Consume()
		n := ast.New(ast.StringLit, tok)
		n.Type = ctype.NewArray(ctype.CharType, int64(len(p.text(tok)))+1)
		n.Label = p.internStringLiteral(tok)
		return n
	case token.Alnum:
		return p.parsePrimaryIdent(tok)
	case token.Punct:
		if tok.Text(p.pool) == "(" {
			p.lex.Consume()
			if p.lex.Is("{") {
				return p.parseStatementExpr(tok)
			}
			n := p.parseExpr()
			p.lex.Expect(")", "expected ')'")
			return n
		}
	}
	p.fatalf("expected expression")
	return nil
}

// parseStatementExpr parses a GNU statement-expression `({ ... })`, whose
// value is that of its last expression-statement, per SPEC_FULL.md's
// supplemented-features list.
func (p *Parser) parseStatementExpr(tok token.Token) *ast.Node {
	block := p.parseCompoundStatement()
	p.lex.Expect(")", "expected ')' to close statement expression")
	if last := block.Child(len(block.Children) - 1); last != nil {
		block.Type = last.Type
	}
	return block
}

func (p *Parser) parsePrimaryIdent(tok token.Token) *ast.Node {
	name := p.text(tok)
	p.lex.Consume()

	sym := p.cur.FindSymbol(name, true)
	if sym == nil {
		p.fatalAt(tok, "use of undeclared identifier %q", name)
	}
	if isBuiltin(sym) {
		return p.parseBuiltinCall(tok, sym)
	}
	if sym.Kind == scope.SymEnumConst {
		n := ast.New(ast.NumberLit, tok)
		n.Type = ctype.IntType
		n.IntValue = sym.EnumValue
		return n
	}
	n := ast.New(ast.Ident, tok)
	n.Type = sym.Type
	n.Sym = sym
	return n
}

// parseBuiltinCall parses the bespoke call syntax of the
// __builtin_va_{start,arg,end,copy} intrinsics and __func__, per spec.md
// §4.5; each takes ordinary-looking call syntax but is not an ordinary
// function symbol, so it gets its own AST shape (BuiltinCall) instead of
// Call.
func (p *Parser) parseBuiltinCall(tok token.Token, sym *scope.Symbol) *ast.Node {
	n := ast.New(ast.BuiltinCall, tok)
	n.Op = sym.Builtin

	if sym.Builtin == "__func__" {
		n.Type = ctype.NewArray(ctype.CharType, 1)
		return n
	}

	p.lex.Expect("(", "expected '(' after "+sym.Builtin)
	if !p.lex.Is(")") {
		for {
			n.Append(ast.Decay(p.parseAssign()))
			if !p.lex.Accept(",") {
				break
			}
		}
	}
	p.lex.Expect(")", "expected ')'")
	n.Type = ctype.VoidType
	return n
}

// internStringLiteral synthesizes a unique label name for a string
// literal's emitted storage; identical string literals are not merged
// (see DESIGN.md), so each occurrence mints a fresh label.
func (p *Parser) internStringLiteral(tok token.Token) string {
	p.nextLabelID++
	return ".LC" + itoa(p.nextLabelID)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
