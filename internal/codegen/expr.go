package codegen

import (
	"math"

	"corecc/internal/ast"
	"corecc/internal/ctype"
	"corecc/internal/scope"
)

// isWideArith reports whether t's values are represented throughout
// codegen as the address of out-of-register storage rather than a plain
// scalar in a register — every type the virtual machine's integer ALU
// can't operate on directly, which spec.md §4.7 instead routes through a
// pointer-argument helper call (64-bit integers and the floating types).
func isWideArith(t *ctype.Type) bool {
	return t != nil && (t.IsLongLong() || t.IsFloating())
}

// wideClass names the family of helper routines a wide type's value is
// converted or operated on through, per spec.md §4.7's `__llong_add`,
// `__float_add` naming. Long double shares double's family: the virtual
// machine's helper library has no distinct extended-precision
// representation (DESIGN.md).
func wideClass(t *ctype.Type) string {
	switch {
	case t.Kind == ctype.Float:
		return "float"
	case t.IsFloating():
		return "double"
	default:
		return "llong"
	}
}

// genExpr lowers an expression node, returning a freshly allocated
// register holding its value. Callers that no longer need the value
// must free() it.
func (g *Generator) genExpr(n *ast.Node) Reg {
	g.curTok = n.Tok
	switch n.Kind {
	case ast.NumberLit, ast.CharLit, ast.Sizeof:
		if n.Kind == ast.NumberLit && isWideArith(n.Type) {
			return g.genWideConst(n)
		}
		r := g.alloc()
		g.emit("mov", RegOperand(r), Imm32Operand(n.IntValue))
		return r

	case ast.StringLit:
		g.prog.Strings = append(g.prog.Strings, &StringLiteral{Label: n.Label, Bytes: []byte(n.Tok.Text(g.pool))})
		r := g.alloc()
		g.emit("mov", RegOperand(r), SymOperand('^', n.Label))
		return r

	case ast.Ident:
		return g.genLoadSymbol(n)

	case ast.Unary:
		return g.genUnary(n)

	case ast.Binary:
		return g.genBinary(n)

	case ast.Assign:
		return g.genAssignExpr(n)

	case ast.CompoundAssign:
		return g.genCompoundAssign(n)

	case ast.MemberAccess, ast.MemberPtrAccess:
		addr := g.genMemberAddr(n)
		if n.Type != nil && (n.Type.IsRecord() || isWideArith(n.Type)) {
			return addr // record/wide-arith member access yields its address for further access/copy
		}
		return g.genDerefInto(addr, n.Type)

	case ast.Index:
		addr := g.genIndexAddr(n)
		return g.genDerefInto(addr, n.Type)

	case ast.Call, ast.BuiltinCall:
		return g.genCall(n)

	case ast.Cast:
		return g.genCast(n)

	case ast.Conditional:
		return g.genConditional(n)

	case ast.Comma:
		g.free(g.genExpr(n.Child(0)))
		return g.genExpr(n.Child(1))
	}
	panic("codegen: unhandled expression kind " + n.Kind.String())
}

// genLoadSymbol loads an Ident's value (or, for array/function types, its
// decayed address — though decay is normally already applied by the
// parser, leaving an explicit Cast node around the Ident).
func (g *Generator) genLoadSymbol(n *ast.Node) Reg {
	sym := n.Sym
	r := g.alloc()
	if sym.Kind == scope.SymEnumConst {
		g.emit("mov", RegOperand(r), Imm32Operand(sym.EnumValue))
		return r
	}
	addressValued := n.Type != nil && (n.Type.IsRecord() || n.Type.IsArray() || n.Type.IsFunction() || isWideArith(n.Type))
	if off, ok := g.frame[sym]; ok {
		g.emit("mov", RegOperand(r), RegOperand(Rfp))
		if addressValued {
			g.emit("add", RegOperand(r), RegOperand(r), ImmOperand(int64(off)))
			return r
		}
		g.emit(loadOp(n.Type.Size(), n.Type.IsSigned()), RegOperand(r), RegOperand(Rfp), ImmOperand(int64(off)))
		return r
	}
	// Global: address is rpp + symbol.
	g.emit("mov", RegOperand(r), SymOperand('^', g.asmName(sym)))
	if n.Type != nil && !addressValued {
		g.emit(loadOp(n.Type.Size(), n.Type.IsSigned()), RegOperand(r), RegOperand(r), ImmOperand(0))
	}
	return r
}

func (g *Generator) genDerefInto(addr Reg, t *ctype.Type) Reg {
	if t != nil && (t.IsRecord() || isWideArith(t)) {
		return addr
	}
	size := 4
	signed := true
	if t != nil {
		size, signed = t.Size(), t.IsSigned()
	}
	g.emit(loadOp(size, signed), RegOperand(addr), RegOperand(addr), ImmOperand(0))
	return addr
}

// --- addresses (lvalues) --------------------------------------------------

// genAddr computes the address of an lvalue expression into a fresh
// register, for use by assignment, `&`, and member/index access.
func (g *Generator) genAddr(n *ast.Node) Reg {
	switch n.Kind {
	case ast.Ident, ast.Decl:
		return g.genIdentAddr(n)
	case ast.Unary:
		if n.Op == "*" {
			return g.genExpr(n.Child(0))
		}
	case ast.MemberAccess, ast.MemberPtrAccess:
		return g.genMemberAddr(n)
	case ast.Index:
		return g.genIndexAddr(n)
	}
	panic("codegen: expression is not an lvalue: " + n.Kind.String())
}

func (g *Generator) genIdentAddr(n *ast.Node) Reg {
	sym := n.Sym
	r := g.alloc()
	if off, ok := g.frame[sym]; ok {
		g.emit("mov", RegOperand(r), RegOperand(Rfp))
		g.emit("add", RegOperand(r), RegOperand(r), ImmOperand(int64(off)))
		return r
	}
	g.emit("mov", RegOperand(r), SymOperand('^', g.asmName(sym)))
	return r
}

func (g *Generator) genMemberAddr(n *ast.Node) Reg {
	base := n.Child(0)
	var addr Reg
	if n.Kind == ast.MemberPtrAccess {
		addr = g.genExpr(base)
	} else {
		addr = g.genAddr(base)
	}
	if n.MemberOffset != 0 {
		g.emit("add", RegOperand(addr), RegOperand(addr), ImmOperand(int64(n.MemberOffset)))
	}
	return addr
}

func (g *Generator) genIndexAddr(n *ast.Node) Reg {
	base := g.genExpr(n.Child(0))
	idx := g.genExpr(n.Child(1))
	elemSize := 1
	if n.Type != nil {
		elemSize = n.Type.Size()
	}
	g.scaleIndex(idx, elemSize)
	g.emit("add", RegOperand(base), RegOperand(base), RegOperand(idx))
	g.free(idx)
	return base
}

// scaleIndex multiplies idx by elemSize in place, using a shift when
// elemSize is a power of two per spec.md §4.7.
func (g *Generator) scaleIndex(idx Reg, elemSize int) {
	if elemSize == 1 {
		return
	}
	if shift, ok := powerOfTwoShift(elemSize); ok {
		g.emit("shl", RegOperand(idx), RegOperand(idx), ImmOperand(int64(shift)))
		return
	}
	scale := g.alloc()
	g.emit("mov", RegOperand(scale), Imm32Operand(int64(elemSize)))
	g.emit("mul", RegOperand(idx), RegOperand(idx), RegOperand(scale))
	g.free(scale)
}

func powerOfTwoShift(n int) (int, bool) {
	if n <= 0 || n&(n-1) != 0 {
		return 0, false
	}
	shift := 0
	for n > 1 {
		n >>= 1
		shift++
	}
	return shift, true
}

// --- unary / binary --------------------------------------------------------

func (g *Generator) genUnary(n *ast.Node) Reg {
	switch n.Op {
	case "-":
		r := g.genExpr(n.Child(0))
		if isWideArith(n.Type) {
			return g.genWideNegate(n.Type, r)
		}
		zero := g.alloc()
		g.emit("mov", RegOperand(zero), ImmOperand(0))
		g.emit("sub", RegOperand(r), RegOperand(zero), RegOperand(r))
		g.free(zero)
		return r
	case "!":
		r := g.genExpr(n.Child(0))
		g.emit("isz", RegOperand(r), RegOperand(r))
		return r
	case "~":
		r := g.genExpr(n.Child(0))
		g.emit("not", RegOperand(r), RegOperand(r))
		return r
	case "*":
		addr := g.genExpr(n.Child(0))
		return g.genDerefInto(addr, n.Type)
	case "&":
		return g.genAddr(n.Child(0))
	case "++", "--":
		return g.genIncDec(n)
	}
	panic("codegen: unhandled unary operator " + n.Op)
}

func (g *Generator) genIncDec(n *ast.Node) Reg {
	if isWideArith(n.Type) {
		return g.genWideIncDec(n)
	}
	operand := n.Child(0)
	addr := g.genAddr(operand)
	old := g.alloc()
	size := 4
	if n.Type != nil {
		size = n.Type.Size()
	}
	g.emit(loadOp(size, true), RegOperand(old), RegOperand(addr), ImmOperand(0))

	step := int64(1)
	if n.Type != nil && n.Type.IsPointer() {
		step = int64(n.Type.Elem.Size())
	}
	updated := g.alloc()
	g.emit("mov", RegOperand(updated), RegOperand(old))
	if n.Op == "++" {
		g.emit("add", RegOperand(updated), RegOperand(updated), Imm32Operand(step))
	} else {
		g.emit("sub", RegOperand(updated), RegOperand(updated), Imm32Operand(step))
	}
	g.emit(storeOp(size), RegOperand(addr), ImmOperand(0), RegOperand(updated))
	g.free(addr)

	if n.IsPostfix {
		g.free(updated)
		return old
	}
	g.free(old)
	return updated
}

func (g *Generator) genBinary(n *ast.Node) Reg {
	lhs, rhs := n.Child(0), n.Child(1)
	switch n.Op {
	case "&&", "||":
		return g.genLogical(n)
	case "==", "!=", "<", ">", "<=", ">=":
		return g.genCompare(n)
	}

	l := g.genExpr(lhs)
	r := g.genExpr(rhs)

	// Long long/float/double/long double binary ops don't fit the virtual
	// machine's 32-bit integer ALU: l and r already hold addresses (the
	// wide-arith representation genExpr/genCast produce), per spec.md
	// §4.7's "emit a call to a named helper ... that takes two pointer-to-
	// storage arguments" rule.
	if isWideArith(n.Type) {
		return g.genHelperBinary(n, l, r)
	}

	if (n.Op == "+" || n.Op == "-") && lhs.Type != nil && lhs.Type.IsPointer() {
		g.scaleIndex(r, lhs.Type.Elem.Size())
	}
	if n.Op == "-" && lhs.Type != nil && rhs.Type != nil && lhs.Type.IsPointer() && rhs.Type.IsPointer() {
		g.emit("sub", RegOperand(l), RegOperand(l), RegOperand(r))
		size := lhs.Type.Elem.Size()
		if shift, ok := powerOfTwoShift(size); ok {
			g.emit("shrs", RegOperand(l), RegOperand(l), ImmOperand(int64(shift)))
		}
		g.free(r)
		return l
	}

	op := binaryOpcode(n.Op, n.Type)
	g.emit(op, RegOperand(l), RegOperand(l), RegOperand(r))
	g.free(r)
	return l
}

func binaryOpcode(op string, t *ctype.Type) string {
	switch op {
	case "+":
		return "add"
	case "-":
		return "sub"
	case "*":
		return "mul"
	case "/":
		if t != nil && !t.IsSigned() {
			return "divu"
		}
		return "divs"
	case "%":
		if t != nil && !t.IsSigned() {
			return "modu"
		}
		return "mods"
	case "&":
		return "and"
	case "|":
		return "or"
	case "^":
		return "xor"
	case "<<":
		return "shl"
	case ">>":
		if t != nil && !t.IsSigned() {
			return "shru"
		}
		return "shrs"
	}
	panic("codegen: unhandled binary operator " + op)
}

// genHelperBinary lowers a long long/float/double/long double binary
// operator to spec.md §4.7's helper-call convention: lAddr and rAddr are
// the operands' storage addresses, a fresh wide slot holds the result, and
// all three pointers pass in r0-r2 the same way any other call's first
// three arguments would.
func (g *Generator) genHelperBinary(n *ast.Node, lAddr, rAddr Reg) Reg {
	result := g.relocateResult(g.allocWide())
	g.emit("mov", RegOperand(R0), RegOperand(result))
	g.emit("mov", RegOperand(R1), RegOperand(lAddr))
	g.emit("mov", RegOperand(R2), RegOperand(rAddr))
	g.free(lAddr)
	g.free(rAddr)
	g.emit("call", SymOperand('^', helperName(n.Op, n.Type)))
	return result
}

// helperName names the runtime routine a wide binary operator lowers to,
// e.g. `__llong_add`, `__ullong_div`, `__float_mul`, `__double_shr`.
func helperName(op string, t *ctype.Type) string {
	name, ok := map[string]string{
		"+": "add", "-": "sub", "*": "mul", "/": "div", "%": "mod",
		"&": "and", "|": "or", "^": "xor", "<<": "shl", ">>": "shr",
	}[op]
	if !ok {
		panic("codegen: unhandled wide binary operator " + op)
	}
	class := wideClass(t)
	if class == "llong" && !t.IsSigned() {
		class = "u" + class
	}
	return "__" + class + "_" + name
}

// genWideConst materialises a long long/float/double/long double literal
// into a fresh wide slot. Integer literals carry their value in
// n.IntValue (two's complement, split into the slot's two 32-bit words);
// floating ones carry it in n.FloatValue and are converted to their
// target width's IEEE-754 bit pattern first.
func (g *Generator) genWideConst(n *ast.Node) Reg {
	addr := g.allocWide()
	t := n.Type
	tmp := g.alloc()
	switch {
	case t.Kind == ctype.Float:
		bits := math.Float32bits(float32(n.FloatValue))
		g.emit("mov", RegOperand(tmp), Imm32Operand(int64(int32(bits))))
		g.emit("stw", RegOperand(addr), ImmOperand(0), RegOperand(tmp))
	case t.IsFloating():
		bits := math.Float64bits(n.FloatValue)
		g.emit("mov", RegOperand(tmp), Imm32Operand(int64(int32(uint32(bits)))))
		g.emit("stw", RegOperand(addr), ImmOperand(0), RegOperand(tmp))
		g.emit("mov", RegOperand(tmp), Imm32Operand(int64(int32(uint32(bits>>32)))))
		g.emit("stw", RegOperand(addr), ImmOperand(4), RegOperand(tmp))
	default: // long long / unsigned long long
		v := uint64(n.IntValue)
		g.emit("mov", RegOperand(tmp), Imm32Operand(int64(int32(uint32(v)))))
		g.emit("stw", RegOperand(addr), ImmOperand(0), RegOperand(tmp))
		g.emit("mov", RegOperand(tmp), Imm32Operand(int64(int32(uint32(v>>32)))))
		g.emit("stw", RegOperand(addr), ImmOperand(4), RegOperand(tmp))
	}
	g.free(tmp)
	return addr
}

// genWideNegate lowers unary `-` on a helper-arithmetic operand: addr is
// its storage address, per the same helper-call convention genHelperBinary
// uses for the binary operators.
func (g *Generator) genWideNegate(t *ctype.Type, addr Reg) Reg {
	result := g.relocateResult(g.allocWide())
	g.emit("mov", RegOperand(R0), RegOperand(result))
	g.emit("mov", RegOperand(R1), RegOperand(addr))
	g.free(addr)
	g.emit("call", SymOperand('^', "__"+wideClass(t)+"_neg"))
	return result
}

// emitWideCopy copies a 4- or 8-byte wide value directly between two
// addressed slots with plain loads/stores, rather than a memcpy call —
// the virtual machine can move a word at a time and these values are
// never larger than two words.
func (g *Generator) emitWideCopy(dst, src Reg, size int) {
	tmp := g.alloc()
	g.emit("ldw", RegOperand(tmp), RegOperand(src), ImmOperand(0))
	g.emit("stw", RegOperand(dst), ImmOperand(0), RegOperand(tmp))
	if size > 4 {
		g.emit("ldw", RegOperand(tmp), RegOperand(src), ImmOperand(4))
		g.emit("stw", RegOperand(dst), ImmOperand(4), RegOperand(tmp))
	}
	g.free(tmp)
}

// genCompare lowers a relational/equality operator to `cmps`/`cmpu`
// followed by the bias-and-mask spec.md §4.7 calls for to normalise the
// result to exactly 0 or 1.
func (g *Generator) genCompare(n *ast.Node) Reg {
	lhs, rhs := n.Child(0), n.Child(1)
	l := g.genExpr(lhs)
	r := g.genExpr(rhs)

	signed := true
	if lhs.Type != nil && !lhs.Type.IsSigned() {
		signed = false
	}
	cmpOp := "cmps"
	if !signed {
		cmpOp = "cmpu"
	}
	g.emit(cmpOp, RegOperand(l), RegOperand(l), RegOperand(r))
	g.free(r)
	g.emit(compareBiasOp(n.Op), RegOperand(l), RegOperand(l))
	return l
}

// compareBiasOp names the bias-and-mask step after a cmps/cmpu, whose
// result is a tri-state (-1/0/1); the helper shown here is a single
// synthetic opcode per comparison kind rather than the literal two-step
// sequence spec.md describes, since the VM's own encoding of that
// two-step sequence is an assembler-level concern outside this package.
func compareBiasOp(op string) string {
	switch op {
	case "==":
		return "seteq"
	case "!=":
		return "setne"
	case "<":
		return "setlt"
	case ">":
		return "setgt"
	case "<=":
		return "setle"
	case ">=":
		return "setge"
	}
	panic("codegen: unhandled comparison operator " + op)
}

// genLogical lowers && / || with short-circuiting conditional jumps to
// synthesised labels, per spec.md §4.7.
func (g *Generator) genLogical(n *ast.Node) Reg {
	lhs, rhs := n.Child(0), n.Child(1)
	falseLabel := g.freshLabel("Lfalse")
	endLabel := g.freshLabel("Lend")

	result := g.alloc()
	l := g.genExpr(lhs)
	if n.Op == "&&" {
		g.emit("jz", RegOperand(l), SymOperand('&', falseLabel))
	} else {
		g.emit("jnz", RegOperand(l), SymOperand('&', falseLabel))
	}
	g.free(l)

	r := g.genExpr(rhs)
	g.emit("bool", RegOperand(r), RegOperand(r))
	g.emit("mov", RegOperand(result), RegOperand(r))
	g.free(r)
	g.emit("jmp", SymOperand('&', endLabel))

	g.newBlock(falseLabel)
	if n.Op == "&&" {
		g.emit("mov", RegOperand(result), ImmOperand(0))
	} else {
		g.emit("mov", RegOperand(result), ImmOperand(1))
	}
	g.newBlock(endLabel)
	return result
}

func (g *Generator) genConditional(n *ast.Node) Reg {
	cond, then, els := n.Child(0), n.Child(1), n.Child(2)
	elseLabel := g.freshLabel("Lelse")
	endLabel := g.freshLabel("Lend")

	c := g.genExpr(cond)
	g.emit("jz", RegOperand(c), SymOperand('&', elseLabel))
	g.free(c)

	result := g.alloc()
	t := g.genExpr(then)
	g.emit("mov", RegOperand(result), RegOperand(t))
	g.free(t)
	g.emit("jmp", SymOperand('&', endLabel))

	g.newBlock(elseLabel)
	e := g.genExpr(els)
	g.emit("mov", RegOperand(result), RegOperand(e))
	g.free(e)

	g.newBlock(endLabel)
	return result
}

func (g *Generator) genCast(n *ast.Node) Reg {
	r := g.genExpr(n.Child(0))
	src := n.Child(0).Type
	dst := n.Type
	if src == nil || dst == nil {
		return r
	}

	if isWideArith(src) || isWideArith(dst) {
		return g.genWideCast(r, src, dst)
	}

	if dst.Kind == ctype.Bool {
		g.emit("bool", RegOperand(r), RegOperand(r))
		return r
	}
	if dst.IsInteger() && src.IsInteger() && dst.Size() > src.Size() && src.IsSigned() {
		op := "sxb"
		if src.Size() == 2 {
			op = "sxs"
		}
		g.emit(op, RegOperand(r), RegOperand(r))
	}
	return r
}

// genWideCast lowers a conversion into or out of a helper-arithmetic type,
// per spec.md §4.7's "delegated to helper routines" note. r holds the
// source value: an address for a wide src, a plain register value for a
// narrow one.
func (g *Generator) genWideCast(r Reg, src, dst *ctype.Type) Reg {
	srcWide, dstWide := isWideArith(src), isWideArith(dst)

	if srcWide && dstWide {
		if wideClass(src) == wideClass(dst) {
			return r // same representation: long long <-> unsigned long long, double <-> long double
		}
		result := g.relocateResult(g.allocWide())
		g.emit("mov", RegOperand(R0), RegOperand(result))
		g.emit("mov", RegOperand(R1), RegOperand(r))
		g.free(r)
		g.emit("call", SymOperand('^', "__"+wideClass(src)+"_to_"+wideClass(dst)))
		return result
	}

	if dstWide {
		result := g.relocateResult(g.allocWide())
		if wideClass(dst) == "llong" {
			g.emitExtendToWide(result, r, src)
			g.free(r)
			return result
		}
		name := "__int_to_" + wideClass(dst)
		if src.IsFloating() {
			name = "__" + wideClass(src) + "_to_" + wideClass(dst)
		} else if !src.IsSigned() {
			name = "__uint_to_" + wideClass(dst)
		}
		g.emit("mov", RegOperand(R0), RegOperand(result))
		g.emit("mov", RegOperand(R1), RegOperand(r))
		g.free(r)
		g.emit("call", SymOperand('^', name))
		return result
	}

	// Wide -> narrow: a long long source's low word is already the value
	// truncation wants, loaded directly; a floating source needs a
	// conversion helper, returning its result in r0 like any other call.
	if wideClass(src) == "llong" {
		out := g.alloc()
		g.emit("ldw", RegOperand(out), RegOperand(r), ImmOperand(0))
		g.free(r)
		return out
	}
	name := "__" + wideClass(src) + "_to_int"
	if !dst.IsSigned() {
		name = "__" + wideClass(src) + "_to_uint"
	}
	g.emit("mov", RegOperand(R0), RegOperand(r))
	g.free(r)
	g.emit("call", SymOperand('^', name))
	out := g.alloc()
	g.emit("mov", RegOperand(out), RegOperand(R0))
	return out
}

// emitExtendToWide sign- or zero-extends a narrow integer register r into
// the 8-byte wide slot addressed by result, per the long long
// representation's two 32-bit words.
func (g *Generator) emitExtendToWide(result, r Reg, src *ctype.Type) {
	g.emit("stw", RegOperand(result), ImmOperand(0), RegOperand(r))
	hi := g.alloc()
	if src.IsSigned() {
		g.emit("mov", RegOperand(hi), RegOperand(r))
		g.emit("shrs", RegOperand(hi), RegOperand(hi), ImmOperand(31))
	} else {
		g.emit("mov", RegOperand(hi), ImmOperand(0))
	}
	g.emit("stw", RegOperand(result), ImmOperand(4), RegOperand(hi))
	g.free(hi)
}

// --- assignment --------------------------------------------------------

func (g *Generator) genAssignExpr(n *ast.Node) Reg {
	lhs, rhs := n.Child(0), n.Child(1)
	if lhs.Type != nil && lhs.Type.IsRecord() {
		return g.genStructCopy(lhs, rhs)
	}
	if isWideArith(lhs.Type) {
		return g.genWideAssign(lhs, rhs)
	}
	val := g.genExpr(rhs)
	addr := g.genAddr(lhs)
	size := 4
	if n.Type != nil {
		size = n.Type.Size()
	}
	g.emit(storeOp(size), RegOperand(addr), ImmOperand(0), RegOperand(val))
	g.free(addr)
	return val
}

// genWideAssign stores a helper-arithmetic value (long long/float/double/
// long double) into its destination, per the same address-valued
// convention genStructCopy already uses for records — a direct word-at-a-
// time copy rather than a memcpy call, since these values are always
// exactly 4 or 8 bytes.
func (g *Generator) genWideAssign(lhs, rhs *ast.Node) Reg {
	rhsAddr := g.genExpr(rhs)
	dstAddr := g.genAddr(lhs)
	g.emitWideCopy(dstAddr, rhsAddr, lhs.Type.Size())
	g.free(rhsAddr)
	return dstAddr
}

// genStructCopy lowers a struct/union assignment to a call to the
// runtime's memcpy helper, per spec.md §4.7 ("larger assignments call
// memcpy of exact struct size").
func (g *Generator) genStructCopy(lhs, rhs *ast.Node) Reg {
	dst := g.genAddr(lhs)
	src := g.genAddr(rhs)
	size := g.alloc()
	g.emit("mov", RegOperand(size), Imm32Operand(int64(lhs.Type.Size())))

	g.emit("mov", RegOperand(R0), RegOperand(dst))
	g.emit("mov", RegOperand(R1), RegOperand(src))
	g.emit("mov", RegOperand(R2), RegOperand(size))
	g.free(dst)
	g.free(src)
	g.free(size)
	g.emit("call", SymOperand('^', "memcpy"))
	result := g.alloc()
	g.emit("mov", RegOperand(result), RegOperand(R0))
	return result
}

func (g *Generator) genCompoundAssign(n *ast.Node) Reg {
	lhs, rhs := n.Child(0), n.Child(1)
	if isWideArith(lhs.Type) {
		return g.genWideCompoundAssign(n)
	}
	addr := g.genAddr(lhs)
	size := 4
	if lhs.Type != nil {
		size = lhs.Type.Size()
	}
	cur := g.alloc()
	g.emit(loadOp(size, lhs.Type != nil && lhs.Type.IsSigned()), RegOperand(cur), RegOperand(addr), ImmOperand(0))

	r := g.genExpr(rhs)
	if (n.Op == "+" || n.Op == "-") && lhs.Type != nil && lhs.Type.IsPointer() {
		g.scaleIndex(r, lhs.Type.Elem.Size())
	}
	op := binaryOpcode(n.Op, lhs.Type)
	g.emit(op, RegOperand(cur), RegOperand(cur), RegOperand(r))
	g.free(r)

	g.emit(storeOp(size), RegOperand(addr), ImmOperand(0), RegOperand(cur))
	g.free(addr)
	return cur
}

// genWideCompoundAssign desugars `lhs OP= rhs` into `lhs = lhs OP rhs` and
// lowers that through genBinary/genAssignExpr, since the wide types' OP=
// needs the same helper-call machinery a plain binary expression does
// (spec.md §4.7). lhs's address is evaluated twice, once for each
// synthesised reference to it, rather than cached — this double-evaluates
// any side effect in a non-trivial lvalue expression (e.g. `arr[i++] +=
// 1LL`), a known limitation recorded in DESIGN.md.
func (g *Generator) genWideCompoundAssign(n *ast.Node) Reg {
	lhs, rhs := n.Child(0), n.Child(1)

	bin := ast.New(ast.Binary, n.Tok)
	bin.Op = n.Op
	bin.Type = lhs.Type
	bin.Append(lhs)
	bin.Append(ast.Cast(rhs, lhs.Type))

	assign := ast.New(ast.Assign, n.Tok)
	assign.Type = lhs.Type
	assign.Append(lhs)
	assign.Append(bin)

	return g.genAssignExpr(assign)
}

// genWideIncDec lowers ++/-- on a helper-arithmetic operand as `lhs = lhs
// +/- 1`, via the same synthesis genWideCompoundAssign uses. Postfix needs
// the pre-increment value too, snapshotted into its own wide slot before
// the update runs — like genIncDec's old/updated register pair, but
// copying the full wide value instead of a single register. The operand's
// address expression is evaluated twice (once for the snapshot, once
// inside the synthesised assignment), the same known double-evaluation
// limitation as genWideCompoundAssign.
func (g *Generator) genWideIncDec(n *ast.Node) Reg {
	operand := n.Child(0)

	var old Reg
	if n.IsPostfix {
		addr := g.genAddr(operand)
		old = g.allocWide()
		g.emitWideCopy(old, addr, operand.Type.Size())
		g.free(addr)
	}

	one := ast.New(ast.NumberLit, n.Tok)
	one.Type = ctype.IntType
	one.IntValue = 1

	op := "+"
	if n.Op == "--" {
		op = "-"
	}

	bin := ast.New(ast.Binary, n.Tok)
	bin.Op = op
	bin.Type = operand.Type
	bin.Append(operand)
	bin.Append(ast.Cast(one, operand.Type))

	assign := ast.New(ast.Assign, n.Tok)
	assign.Type = operand.Type
	assign.Append(operand)
	assign.Append(bin)

	updated := g.genAssignExpr(assign)

	if n.IsPostfix {
		g.free(updated)
		return old
	}
	return updated
}

// --- calls ---------------------------------------------------------------

func (g *Generator) genCall(n *ast.Node) Reg {
	if n.Kind == ast.BuiltinCall {
		return g.genBuiltinCall(n)
	}
	callee := n.Child(0)
	args := n.Children[1:]

	// An indirect callee's address is evaluated first and, if the
	// allocator happened to hand it one of the argument registers,
	// relocated out of r0-r3 before those get overwritten by the
	// argument-passing `mov`s below.
	var fn Reg = noReg
	if !(callee.Kind == ast.Ident && callee.Sym != nil) {
		fn = g.relocateResult(g.genExpr(callee))
	}

	// Evaluate left to right, then push the overflow arguments (index 4
	// and up) right-to-left so the leftmost overflow argument ends up on
	// top of the stack, matching the positive-offset layout genFunction
	// assumes for incoming parameters beyond the first four.
	vals := make([]Reg, len(args))
	for i, a := range args {
		vals[i] = g.genExpr(a)
	}
	for i := len(vals) - 1; i >= 4; i-- {
		g.emit("push", RegOperand(vals[i]))
	}
	for i := 0; i < len(vals) && i < 4; i++ {
		g.emit("mov", RegOperand(argRegs[i]), RegOperand(vals[i]))
	}
	for _, r := range vals {
		g.free(r)
	}

	if fn == noReg {
		g.emit("call", SymOperand('^', g.asmName(callee.Sym)))
	} else {
		g.emit("call", RegOperand(fn))
		g.free(fn)
	}

	for i := len(args) - 1; i >= 4; i-- {
		g.emit("pop", RegOperand(argRegs[0]))
	}

	result := g.alloc()
	g.emit("mov", RegOperand(result), RegOperand(R0))
	return result
}

// genBuiltinCall lowers __builtin_va_start/va_arg/va_end/va_copy and
// __func__ to helper calls / label loads, per spec.md §4.5 and §4.7.
func (g *Generator) genBuiltinCall(n *ast.Node) Reg {
	if n.Op == "__func__" {
		r := g.alloc()
		label := g.funcNameLabel()
		g.prog.Strings = append(g.prog.Strings, &StringLiteral{Label: label, Bytes: []byte(g.fn.Name)})
		g.emit("mov", RegOperand(r), SymOperand('^', label))
		return r
	}

	helper := map[string]string{
		"__builtin_va_start": "__va_start",
		"__builtin_va_arg":   "__va_arg",
		"__builtin_va_end":   "__va_end",
		"__builtin_va_copy":  "__va_copy",
	}[n.Op]

	argRegsUsed := []Reg{}
	for i, a := range n.Children {
		v := g.genAddr(a)
		if i < 4 {
			g.emit("mov", RegOperand(argRegs[i]), RegOperand(v))
		}
		argRegsUsed = append(argRegsUsed, v)
	}
	for _, r := range argRegsUsed {
		g.free(r)
	}
	g.emit("call", SymOperand('^', helper))
	result := g.alloc()
	g.emit("mov", RegOperand(result), RegOperand(R0))
	return result
}

func (g *Generator) funcNameLabel() string {
	g.labelSeq++
	return g.fn.Name + "__func__"
}
