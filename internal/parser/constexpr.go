package parser

import (
	"corecc/internal/scope"
	"corecc/internal/token"
)

// parseConstantExpr evaluates a constant-expression per spec.md §4.5,
// used for array bounds, bit-field widths, enumerator values, and case
// labels. It mirrors the reference's standalone const_expr reader: a
// small precedence-climbing integer evaluator kept separate from the
// general expression parser (which folds constants as part of normal
// expression typing instead of short-circuiting to int64 early).
func (p *Parser) parseConstantExpr() int64 {
	return p.parseConditionalConst()
}

func (p *Parser) parseConditionalConst() int64 {
	cond := p.parseLogOrConst()
	if !p.lex.Accept("?") {
		return cond
	}
	then := p.parseConditionalConst()
	p.lex.Expect(":", "expected ':' in conditional expression")
	els := p.parseConditionalConst()
	if cond != 0 {
		return then
	}
	return els
}

func (p *Parser) parseLogOrConst() int64 {
	v := p.parseLogAndConst()
	for p.lex.Accept("||") {
		rhs := p.parseLogAndConst()
		v = boolToInt(v != 0 || rhs != 0)
	}
	return v
}

func (p *Parser) parseLogAndConst() int64 {
	v := p.parseBitOrConst()
	for p.lex.Accept("&&") {
		rhs := p.parseBitOrConst()
		v = boolToInt(v != 0 && rhs != 0)
	}
	return v
}

func (p *Parser) parseBitOrConst() int64 {
	v := p.parseBitXorConst()
	for p.lex.Accept("|") {
		v |= p.parseBitXorConst()
	}
	return v
}

func (p *Parser) parseBitXorConst() int64 {
	v := p.parseBitAndConst()
	for p.lex.Accept("^") {
		v ^= p.parseBitAndConst()
	}
	return v
}

func (p *Parser) parseBitAndConst() int64 {
	v := p.parseEqualityConst()
	for p.lex.Accept("&") {
		v &= p.parseEqualityConst()
	}
	return v
}

func (p *Parser) parseEqualityConst() int64 {
	v := p.parseRelationalConst()
	for {
		switch {
		case p.lex.Accept("=="):
			v = boolToInt(v == p.parseRelationalConst())
		case p.lex.Accept("!="):
			v = boolToInt(v != p.parseRelationalConst())
		default:
			return v
		}
	}
}

func (p *Parser) parseRelationalConst() int64 {
	v := p.parseShiftConst()
	for {
		switch {
		case p.lex.Accept("<"):
			v = boolToInt(v < p.parseShiftConst())
		case p.lex.Accept(">"):
			v = boolToInt(v > p.parseShiftConst())
		case p.lex.Accept("<="):
			v = boolToInt(v <= p.parseShiftConst())
		case p.lex.Accept(">="):
			v = boolToInt(v >= p.parseShiftConst())
		default:
			return v
		}
	}
}

func (p *Parser) parseShiftConst() int64 {
	v := p.parseAdditiveConst()
	for {
		switch {
		case p.lex.Accept("<<"):
			v <<= uint(p.parseAdditiveConst())
		case p.lex.Accept(">>"):
			v >>= uint(p.parseAdditiveConst())
		default:
			return v
		}
	}
}

func (p *Parser) parseAdditiveConst() int64 {
	v := p.parseMultiplicativeConst()
	for {
		switch {
		case p.lex.Accept("+"):
			v += p.parseMultiplicativeConst()
		case p.lex.Accept("-"):
			v -= p.parseMultiplicativeConst()
		default:
			return v
		}
	}
}

func (p *Parser) parseMultiplicativeConst() int64 {
	v := p.parseUnaryConst()
	for {
		switch {
		case p.lex.Accept("*"):
			v *= p.parseUnaryConst()
		case p.lex.Accept("/"):
			rhs := p.parseUnaryConst()
			if rhs == 0 {
				p.fatalf("division by zero in constant expression")
			}
			v /= rhs
		case p.lex.Accept("%"):
			rhs := p.parseUnaryConst()
			if rhs == 0 {
				p.fatalf("division by zero in constant expression")
			}
			v %= rhs
		default:
			return v
		}
	}
}

func (p *Parser) parseUnaryConst() int64 {
	switch {
	case p.lex.Accept("+"):
		return p.parseUnaryConst()
	case p.lex.Accept("-"):
		return -p.parseUnaryConst()
	case p.lex.Accept("!"):
		return boolToInt(p.parseUnaryConst() == 0)
	case p.lex.Accept("~"):
		return ^p.parseUnaryConst()
	case p.lex.Is("sizeof"):
		return p.parseSizeofConst()
	default:
		return p.parsePrimaryConst()
	}
}

// parseSizeofConst handles `sizeof(type-name)` and `sizeof unary-expr`,
// per spec.md §4.5, by delegating to the general parser's
// parseSizeofExpr; the expression form takes its operand's type without
// evaluating it, which is moot here since operands in a
// constant-expression context have no side effects.
func (p *Parser) parseSizeofConst() int64 {
	return p.parseSizeofExpr().IntValue
}

func (p *Parser) parsePrimaryConst() int64 {
	tok := p.lex.Cur()
	switch tok.Kind {
	case token.Number:
		lit := parseIntLiteral(p, p.text(tok))
		p.lex.Consume()
		return lit.Value
	case token.Char:
		p.lex.Consume()
		return tok.IntValue
	case token.Alnum:
		name := p.text(tok)
		if sym := p.cur.FindSymbol(name, true); sym != nil && sym.Kind == scope.SymEnumConst {
			p.lex.Consume()
			return sym.EnumValue
		}
		p.fatalf("%q is not a constant expression", name)
	case token.Punct:
		if tok.Text(p.pool) == "(" {
			p.lex.Consume()
			v := p.parseConstantExpr()
			p.lex.Expect(")", "expected ')'")
			return v
		}
	}
	p.fatalf("expected constant expression")
	return 0
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
