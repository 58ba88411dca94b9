package parser

import (
	"corecc/internal/ast"
	"corecc/internal/ctype"
	"corecc/internal/token"
)

// parseStatement parses one statement, per spec.md §4.5.
func (p *Parser) parseStatement() *ast.Node {
	switch {
	case p.lex.Is("{"):
		return p.parseCompoundStatement()
	case p.lex.Is("if"):
		return p.parseIf()
	case p.lex.Is("while"):
		return p.parseWhile()
	case p.lex.Is("do"):
		return p.parseDoWhile()
	case p.lex.Is("for"):
		return p.parseFor()
	case p.lex.Is("switch"):
		return p.parseSwitch()
	case p.lex.Is("case"):
		return p.parseCase()
	case p.lex.Is("default"):
		return p.parseDefault()
	case p.lex.Is("break"):
		return p.parseBreak()
	case p.lex.Is("continue"):
		return p.parseContinue()
	case p.lex.Is("goto"):
		return p.parseGoto()
	case p.lex.Is("return"):
		return p.parseReturn()
	case p.isLabel():
		return p.parseLabel()
	case p.lex.Is(";"):
		tok := p.lex.Cur()
		p.lex.Consume()
		return ast.New(ast.Block, tok)
	case p.isDeclarationStart():
		return p.parseDeclarationStatement()
	default:
		e := p.parseExpr()
		p.lex.Expect(";", "expected ';' after expression statement")
		return e
	}
}

// isLabel reports whether the current token begins a label statement
// (`ident:`), which needs one token of lookahead to distinguish from an
// expression statement starting with an identifier.
func (p *Parser) isLabel() bool {
	cur := p.lex.Cur()
	if cur.Kind != token.Alnum {
		return false
	}
	tok := p.lex.Take()
	next := p.lex.Cur()
	isLabel := next.Is(p.pool, ":")
	p.lex.PushBack(tok)
	return isLabel
}

func (p *Parser) parseLabel() *ast.Node {
	tok := p.lex.Cur()
	name := p.text(tok)
	p.lex.Consume()
	p.lex.Expect(":", "expected ':' after label")

	if p.curFunc != nil {
		if p.curFunc.declaredLabels[name] {
			p.fatalAt(tok, "redefinition of label %q", name)
		}
		p.curFunc.declaredLabels[name] = true
	}

	n := ast.New(ast.Label, tok)
	n.Label = name
	n.Append(p.parseStatement())
	return n
}

func (p *Parser) parseCompoundStatement() *ast.Node {
	tok := p.lex.Cur()
	p.lex.Expect("{", "expected '{'")
	p.pushScope()
	n := ast.New(ast.Block, tok)
	for !p.lex.Is("}") {
		n.Append(p.parseStatement())
	}
	p.lex.Expect("}", "expected '}'")
	p.popScope()
	return n
}

// parseDeclarationStatement parses a block-scope declaration, per
// spec.md §4.4/§4.5: one or more declarators sharing declaration
// specifiers, each optionally typedef'd or initialised.
func (p *Parser) parseDeclarationStatement() *ast.Node {
	tok := p.lex.Cur()
	spec := p.parseDeclarationSpecifiers()
	block := ast.New(ast.Block, tok)

	if p.lex.Is(";") {
		p.lex.Consume()
		return block
	}

	for {
		nameTok := p.lex.Cur()
		name, t := p.parseDeclarator(spec.Base)
		t = ctype.Qualify(t, spec.IsConst, spec.IsVolatile)

		if spec.StorageClass == "typedef" {
			p.addTypedef(name, t, nameTok)
		} else {
			decl := p.declareLocal(name, t, nameTok, spec)
			if p.lex.Accept("=") {
				init := p.parseInitializer(t)
				completeIndeterminateArray(t, init)
				block.Append(decl)
				p.lowerInitializer(block, decl, t, init, nameTok)
			} else {
				block.Append(decl)
			}
		}

		if !p.lex.Accept(",") {
			break
		}
	}
	p.lex.Expect(";", "expected ';' after declaration")
	return block
}

func (p *Parser) parseIf() *ast.Node {
	tok := p.lex.Cur()
	p.lex.Consume()
	p.lex.Expect("(", "expected '(' after 'if'")
	cond := ast.MakePredicate(p.parseExpr())
	p.lex.Expect(")", "expected ')' after if condition")
	n := ast.New(ast.If, tok)
	n.Append(cond)
	n.Append(p.parseStatement())
	if p.lex.Accept("else") {
		n.Append(p.parseStatement())
	}
	return n
}

func (p *Parser) parseWhile() *ast.Node {
	tok := p.lex.Cur()
	p.lex.Consume()
	p.lex.Expect("(", "expected '(' after 'while'")
	cond := ast.MakePredicate(p.parseExpr())
	p.lex.Expect(")", "expected ')' after while condition")
	n := ast.New(ast.While, tok)
	n.Append(cond)
	p.enterLoop()
	n.Append(p.parseStatement())
	p.leaveLoop()
	return n
}

func (p *Parser) parseDoWhile() *ast.Node {
	tok := p.lex.Cur()
	p.lex.Consume()
	n := ast.New(ast.DoWhile, tok)
	p.enterLoop()
	body := p.parseStatement()
	p.leaveLoop()
	p.lex.Expect("while", "expected 'while' after do-body")
	p.lex.Expect("(", "expected '(' after 'while'")
	cond := ast.MakePredicate(p.parseExpr())
	p.lex.Expect(")", "expected ')'")
	p.lex.Expect(";", "expected ';' after do-while")
	n.Append(body)
	n.Append(cond)
	return n
}

func (p *Parser) parseFor() *ast.Node {
	tok := p.lex.Cur()
	p.lex.Consume()
	p.lex.Expect("(", "expected '(' after 'for'")
	p.pushScope()

	n := ast.New(ast.For, tok)

	// init
	if p.lex.Is(";") {
		n.Append(ast.New(ast.Invalid, p.lex.Cur()))
		p.lex.Consume()
	} else if p.isDeclarationStart() {
		n.Append(p.parseDeclarationStatement())
	} else {
		n.Append(p.parseExpr())
		p.lex.Expect(";", "expected ';' after for-init")
	}

	// condition
	if p.lex.Is(";") {
		n.Append(ast.New(ast.Invalid, p.lex.Cur()))
	} else {
		n.Append(ast.MakePredicate(p.parseExpr()))
	}
	p.lex.Expect(";", "expected ';' after for-condition")

	// post
	if p.lex.Is(")") {
		n.Append(ast.New(ast.Invalid, p.lex.Cur()))
	} else {
		n.Append(p.parseExpr())
	}
	p.lex.Expect(")", "expected ')' after for-clauses")

	p.enterLoop()
	n.Append(p.parseStatement())
	p.leaveLoop()
	p.popScope()
	return n
}

func (p *Parser) parseSwitch() *ast.Node {
	tok := p.lex.Cur()
	p.lex.Consume()
	p.lex.Expect("(", "expected '(' after 'switch'")
	cond := ast.PromoteNode(ast.Decay(p.parseExpr()))
	p.lex.Expect(")", "expected ')' after switch condition")
	n := ast.New(ast.Switch, tok)
	n.Append(cond)
	p.enterSwitch()
	n.Append(p.parseStatement())
	p.leaveSwitch()
	return n
}

func (p *Parser) parseCase() *ast.Node {
	tok := p.lex.Cur()
	p.lex.Consume()
	if p.curFunc == nil || p.curFunc.switchDepth == 0 {
		p.fatalAt(tok, "'case' statement not in a switch")
	}
	value := p.parseConstantExpr()
	p.lex.Expect(":", "expected ':' after case value")
	n := ast.New(ast.Case, tok)
	n.IntValue = value
	n.Append(p.parseStatement())
	return n
}

func (p *Parser) parseDefault() *ast.Node {
	tok := p.lex.Cur()
	p.lex.Consume()
	if p.curFunc == nil || p.curFunc.switchDepth == 0 {
		p.fatalAt(tok, "'default' statement not in a switch")
	}
	p.lex.Expect(":", "expected ':' after 'default'")
	n := ast.New(ast.Default, tok)
	n.Append(p.parseStatement())
	return n
}

func (p *Parser) parseBreak() *ast.Node {
	tok := p.lex.Cur()
	p.lex.Consume()
	if p.curFunc == nil || (p.curFunc.loopDepth == 0 && p.curFunc.switchDepth == 0) {
		p.fatalAt(tok, "'break' statement not in a loop or switch")
	}
	p.lex.Expect(";", "expected ';' after 'break'")
	return ast.New(ast.Break, tok)
}

func (p *Parser) parseContinue() *ast.Node {
	tok := p.lex.Cur()
	p.lex.Consume()
	if p.curFunc == nil || p.curFunc.loopDepth == 0 {
		p.fatalAt(tok, "'continue' statement not in a loop")
	}
	p.lex.Expect(";", "expected ';' after 'continue'")
	return ast.New(ast.Continue, tok)
}

func (p *Parser) parseGoto() *ast.Node {
	tok := p.lex.Cur()
	p.lex.Consume()
	nameTok := p.lex.Cur()
	name := p.text(nameTok)
	p.lex.Consume()
	p.lex.Expect(";", "expected ';' after goto target")
	if p.curFunc != nil {
		p.curFunc.referencedGotos[name] = nameTok
	}
	n := ast.New(ast.Goto, tok)
	n.Label = name
	return n
}

func (p *Parser) parseReturn() *ast.Node {
	tok := p.lex.Cur()
	p.lex.Consume()
	n := ast.New(ast.Return, tok)
	if !p.lex.Is(";") {
		ret := p.parseExpr()
		if p.curFunc != nil && p.curFunc.node.Type != nil {
			ret = p.convertAssign(p.curFunc.node.Type.Return, ret)
		}
		n.Append(ret)
	}
	p.lex.Expect(";", "expected ';' after return")
	return n
}

func (p *Parser) enterLoop() {
	if p.curFunc != nil {
		p.curFunc.loopDepth++
	}
}
func (p *Parser) leaveLoop() {
	if p.curFunc != nil {
		p.curFunc.loopDepth--
	}
}
func (p *Parser) enterSwitch() {
	if p.curFunc != nil {
		p.curFunc.switchDepth++
	}
}
func (p *Parser) leaveSwitch() {
	if p.curFunc != nil {
		p.curFunc.switchDepth--
	}
}
