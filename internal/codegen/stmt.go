package codegen

import "corecc/internal/ast"

// genStmt lowers one statement node into the current block, per
// spec.md §4.7.
func (g *Generator) genStmt(n *ast.Node) {
	g.curTok = n.Tok
	switch n.Kind {
	case ast.Block:
		for _, c := range n.Children {
			g.genStmt(c)
		}
	case ast.If:
		g.genIf(n)
	case ast.While:
		g.genWhile(n)
	case ast.DoWhile:
		g.genDoWhile(n)
	case ast.For:
		g.genFor(n)
	case ast.Switch:
		g.genSwitch(n)
	case ast.Case:
		g.genCase(n)
	case ast.Default:
		g.genDefault(n)
	case ast.Break:
		g.genBreak()
	case ast.Continue:
		g.genContinue()
	case ast.Goto:
		g.emit("jmp", SymOperand('&', g.labelFor(n.Label)))
	case ast.Label:
		g.newBlockKeepName(g.labelFor(n.Label))
		g.genStmt(n.Child(0))
	case ast.Return:
		g.genReturn(n)
	case ast.Decl:
		// Storage already reserved in genFunction; nothing to emit.
	default:
		// A bare expression statement: evaluate and discard the value.
		g.free(g.genExpr(n))
	}
}

// newBlockKeepName starts a fresh block so later jumps can target label
// by name, without resetting any generator state a plain newBlock would
// also reset (there is none currently — kept as a distinct entry point
// for clarity at call sites that are semantically "a label", not "a
// synthesised branch target").
func (g *Generator) newBlockKeepName(label string) { g.newBlock(label) }

func (g *Generator) labelFor(name string) string {
	if l, ok := g.gotoLabels[name]; ok {
		return l
	}
	l := g.fn.Name + "_L_" + name
	g.gotoLabels[name] = l
	return l
}

func (g *Generator) genIf(n *ast.Node) {
	cond, then := n.Child(0), n.Child(1)
	var els *ast.Node
	if len(n.Children) > 2 {
		els = n.Child(2)
	}

	c := g.genExpr(cond)
	elseLabel := g.freshLabel("Lelse")
	endLabel := g.freshLabel("Lend")
	g.emit("jz", RegOperand(c), SymOperand('&', elseLabel))
	g.free(c)

	g.genStmt(then)
	g.emit("jmp", SymOperand('&', endLabel))

	g.newBlock(elseLabel)
	if els != nil {
		g.genStmt(els)
	}
	g.newBlock(endLabel)
}

func (g *Generator) genWhile(n *ast.Node) {
	cond, body := n.Child(0), n.Child(1)
	startLabel := g.freshLabel("Lstart")
	endLabel := g.freshLabel("Lend")

	g.newBlock(startLabel)
	c := g.genExpr(cond)
	g.emit("jz", RegOperand(c), SymOperand('&', endLabel))
	g.free(c)

	g.loopStack = append(g.loopStack, loopLabels{breakLabel: endLabel, continueLabel: startLabel})
	g.genStmt(body)
	g.loopStack = g.loopStack[:len(g.loopStack)-1]

	g.emit("jmp", SymOperand('&', startLabel))
	g.newBlock(endLabel)
}

func (g *Generator) genDoWhile(n *ast.Node) {
	body, cond := n.Child(0), n.Child(1)
	startLabel := g.freshLabel("Lstart")
	continueLabel := g.freshLabel("Lcontinue")
	endLabel := g.freshLabel("Lend")

	g.newBlock(startLabel)
	g.loopStack = append(g.loopStack, loopLabels{breakLabel: endLabel, continueLabel: continueLabel})
	g.genStmt(body)
	g.loopStack = g.loopStack[:len(g.loopStack)-1]

	g.newBlock(continueLabel)
	c := g.genExpr(cond)
	g.emit("jnz", RegOperand(c), SymOperand('&', startLabel))
	g.free(c)
	g.newBlock(endLabel)
}

func (g *Generator) genFor(n *ast.Node) {
	init, cond, post, body := n.Child(0), n.Child(1), n.Child(2), n.Child(3)

	if init.Kind != ast.Invalid {
		g.genStmt(init)
	}

	startLabel := g.freshLabel("Lstart")
	continueLabel := g.freshLabel("Lcontinue")
	endLabel := g.freshLabel("Lend")

	g.newBlock(startLabel)
	if cond.Kind != ast.Invalid {
		c := g.genExpr(cond)
		g.emit("jz", RegOperand(c), SymOperand('&', endLabel))
		g.free(c)
	}

	g.loopStack = append(g.loopStack, loopLabels{breakLabel: endLabel, continueLabel: continueLabel})
	g.genStmt(body)
	g.loopStack = g.loopStack[:len(g.loopStack)-1]

	g.newBlock(continueLabel)
	if post.Kind != ast.Invalid {
		g.free(g.genExpr(post))
	}
	g.emit("jmp", SymOperand('&', startLabel))
	g.newBlock(endLabel)
}

// genSwitch lowers to the compare-and-branch chain spec.md §4.7
// describes: the condition is evaluated once into a held register, each
// case's `cmps`+`jnz` tests against it, and the body runs with a break
// target but no per-case fallthrough suppression (fallthrough is
// C's own semantics and is preserved by simply not jumping between
// cases).
func (g *Generator) genSwitch(n *ast.Node) {
	cond, body := n.Child(0), n.Child(1)
	c := g.genExpr(cond)
	endLabel := g.freshLabel("Lend")

	var caseValues []int64
	collectCaseLabels(body, &caseValues)

	g.switchStack = append(g.switchStack, switchCtx{breakLabel: endLabel, valueReg: c, cond: cond.Type, caseValues: caseValues})
	g.loopStack = append(g.loopStack, loopLabels{breakLabel: endLabel, continueLabel: ""})
	g.genStmt(body)
	g.loopStack = g.loopStack[:len(g.loopStack)-1]
	g.switchStack = g.switchStack[:len(g.switchStack)-1]

	g.free(c)
	g.newBlock(endLabel)
}

// collectCaseLabels gathers every case label belonging to the switch whose
// body is n, without descending into a nested switch's own cases (those
// belong to the inner switch's dispatch, not this one). genDefault needs
// the full set up front since C requires `default` to run only when none
// of the switch's cases match, independent of where `default:` sits in
// source order relative to them.
func collectCaseLabels(n *ast.Node, out *[]int64) {
	if n == nil {
		return
	}
	if n.Kind == ast.Switch {
		return
	}
	if n.Kind == ast.Case {
		*out = append(*out, n.IntValue)
	}
	for _, c := range n.Children {
		collectCaseLabels(c, out)
	}
}

func (g *Generator) genCase(n *ast.Node) {
	if len(g.switchStack) == 0 {
		panic("codegen: case outside switch")
	}
	sw := g.switchStack[len(g.switchStack)-1]
	skipLabel := g.freshLabel("Lcaseskip")

	tmp := g.alloc()
	g.emit("mov", RegOperand(tmp), Imm32Operand(n.IntValue))
	g.emit("cmps", RegOperand(tmp), RegOperand(sw.valueReg), RegOperand(tmp))
	g.emit("jnz", RegOperand(tmp), SymOperand('&', skipLabel))
	g.free(tmp)

	// Falls through to the matching case body when equal; otherwise the
	// jnz above has already skipped past this case's statement.
	matchLabel := g.freshLabel("Lcase")
	g.newBlock(matchLabel)
	g.genStmt(n.Child(0))
	g.newBlock(skipLabel)
}

// genDefault emits the default body guarded the same way genCase guards a
// case body: `default:` runs only when none of the switch's case values
// match, regardless of where it falls in source order relative to the
// other cases (genSwitch's collectCaseLabels pre-scans every case so this
// guard doesn't depend on which ones have already been emitted).
func (g *Generator) genDefault(n *ast.Node) {
	if len(g.switchStack) == 0 {
		panic("codegen: default outside switch")
	}
	sw := g.switchStack[len(g.switchStack)-1]
	if len(sw.caseValues) == 0 {
		g.genStmt(n.Child(0))
		return
	}
	skipLabel := g.freshLabel("Ldefaultskip")

	for _, cv := range sw.caseValues {
		tmp := g.alloc()
		g.emit("mov", RegOperand(tmp), Imm32Operand(cv))
		g.emit("cmps", RegOperand(tmp), RegOperand(sw.valueReg), RegOperand(tmp))
		g.emit("jz", RegOperand(tmp), SymOperand('&', skipLabel))
		g.free(tmp)
	}

	matchLabel := g.freshLabel("Ldefault")
	g.newBlock(matchLabel)
	g.genStmt(n.Child(0))
	g.newBlock(skipLabel)
}

func (g *Generator) genBreak() {
	if len(g.loopStack) == 0 {
		panic("codegen: break outside loop/switch")
	}
	target := g.loopStack[len(g.loopStack)-1].breakLabel
	g.emit("jmp", SymOperand('&', target))
}

func (g *Generator) genContinue() {
	for i := len(g.loopStack) - 1; i >= 0; i-- {
		if g.loopStack[i].continueLabel != "" {
			g.emit("jmp", SymOperand('&', g.loopStack[i].continueLabel))
			return
		}
	}
	panic("codegen: continue outside loop")
}

func (g *Generator) genReturn(n *ast.Node) {
	if len(n.Children) > 0 {
		v := g.genExpr(n.Child(0))
		g.emit("mov", RegOperand(R0), RegOperand(v))
		g.free(v)
	}
	g.emit("leave")
	g.emit("ret")
}
