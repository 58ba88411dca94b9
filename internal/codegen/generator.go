package codegen

import (
	"fmt"

	"corecc/internal/ast"
	"corecc/internal/ctype"
	"corecc/internal/intern"
	"corecc/internal/scope"
	"corecc/internal/token"
)

// maxWideTemps bounds the per-function pool of 8-byte scratch slots used
// to hold long long/float/double/long double temporaries, per the
// address-valued representation genLoadSymbol/genBinary/genAssignExpr use
// for those types (the register file has nothing wider than a 32-bit
// word — see DESIGN.md). Sized the same as the register pool it piggybacks
// on: an expression can hold at most as many live wide temporaries as it
// has live registers to address them with.
const maxWideTemps = 10

// Generator walks a parsed translation unit's declarations and lowers
// each into the Program IR, per spec.md §4.7. Registers are checked out
// of a small pool (r0–r9) by alloc and held until free, so a live value's
// register is not handed to another sub-expression; nothing is pushed or
// popped to save registers. r0–r3 additionally serve as the first four
// call-argument/return registers per the calling convention, and live
// values are not spilled around a call.
type Generator struct {
	pool *intern.Pool
	prog *Program

	fn       *Function
	block    *Block
	inUse    [10]bool // R0..R9
	labelSeq int
	curTok   token.Token

	frame       map[*scope.Symbol]int // offset from rfp: negative for locals, positive for stack-passed params
	frameSize   int
	staticNames map[*scope.Symbol]string

	// wideBase is the frame offset (from rfp) of the wide-scratch pool's
	// first slot; wideInUse tracks which of its maxWideTemps 8-byte slots
	// are live; wideTempOf[r] is the slot index whose address register r
	// currently holds, or -1, so free(r) can release the slot along with
	// the register in one call, piggybacking wide-temp lifetime onto the
	// existing register-pool discipline.
	wideBase   int
	wideInUse  [maxWideTemps]bool
	wideTempOf [10]int

	loopStack   []loopLabels
	switchStack []switchCtx
	gotoLabels  map[string]string // source label name -> per-function asm label
}

type loopLabels struct {
	breakLabel    string
	continueLabel string
}

type switchCtx struct {
	breakLabel string
	valueReg   Reg
	cond       *ctype.Type
	caseValues []int64
}

// Generate lowers every top-level declaration (function definitions and
// file-scope variables) into a Program, in spec.md §6's emission order.
func Generate(decls []*ast.Node, pool *intern.Pool) *Program {
	g := &Generator{
		pool:        pool,
		prog:        &Program{},
		staticNames: map[*scope.Symbol]string{},
	}
	for i := range g.wideTempOf {
		g.wideTempOf[i] = -1
	}
	for _, d := range decls {
		g.genTopLevel(d)
	}
	return g.prog
}

func (g *Generator) genTopLevel(n *ast.Node) {
	switch n.Kind {
	case ast.FuncDef:
		g.genFunction(n)
	case ast.Decl:
		g.genGlobalVar(n)
	case ast.Assign:
		// `int x = 3;` at file scope: Decl wrapped in Assign by the parser.
		g.genGlobalVarInit(n)
	}
}

func (g *Generator) genGlobalVar(n *ast.Node) {
	sym := n.Sym
	if sym == nil || sym.Kind != scope.SymVariable {
		return
	}
	g.prog.Globals = append(g.prog.Globals, &Global{
		Name:     g.asmName(sym),
		IsPublic: sym.Linkage == scope.External,
		Size:     sym.Type.Size(),
		Align:    sym.Type.Alignment(),
	})
}

func (g *Generator) genGlobalVarInit(n *ast.Node) {
	decl := n.Child(0)
	if decl == nil || decl.Sym == nil {
		return
	}
	sym := decl.Sym
	init := n.Child(1)
	g.prog.Globals = append(g.prog.Globals, &Global{
		Name:     g.asmName(sym),
		IsPublic: sym.Linkage == scope.External,
		Size:     sym.Type.Size(),
		Align:    sym.Type.Alignment(),
		Init:     g.constInitBytes(sym.Type, init),
	})
}

// constInitBytes encodes a scalar initialiser's constant value in
// little-endian bytes sized to t; anything beyond a single constant
// scalar (brace lists, pointer-valued initialisers) is left zero-filled,
// matching the reference's "static storage, zero unless a simple scalar
// constant" leniency.
func (g *Generator) constInitBytes(t *ctype.Type, n *ast.Node) []byte {
	if n == nil || n.Kind != ast.NumberLit {
		return nil
	}
	size := t.Size()
	if size <= 0 || size > 8 {
		return nil
	}
	buf := make([]byte, size)
	v := uint64(n.IntValue)
	for i := 0; i < size; i++ {
		buf[i] = byte(v >> (8 * i))
	}
	return buf
}

// asmName returns the assembly-visible name for a symbol: its declared
// name for externally-linked symbols, or a minted unique label
// (`__L_<n>_<name>`) for no-linkage statics, per spec.md §4.7.
func (g *Generator) asmName(sym *scope.Symbol) string {
	if sym.Linkage != scope.NoLinkage {
		return sym.Name
	}
	if name, ok := g.staticNames[sym]; ok {
		return name
	}
	g.labelSeq++
	name := fmt.Sprintf("__L_%x_%s", g.labelSeq, sym.Name)
	g.staticNames[sym] = name
	return name
}

func (g *Generator) genFunction(n *ast.Node) {
	sym := n.Sym
	fn := &Function{Name: g.asmName(sym), IsPublic: sym.Linkage == scope.External}
	g.fn = fn
	g.frame = map[*scope.Symbol]int{}
	g.frameSize = 0
	g.gotoLabels = map[string]string{}
	g.loopStack = nil
	g.switchStack = nil

	g.newBlock(fn.Name)

	// n.Locals begins with one entry per named parameter (in declaration
	// order, skipping unnamed ones), followed by block-scope locals in
	// first-seen order. Split it back into those two groups using the
	// function type's parameter list so a 5th-or-later parameter's true
	// position (which decides its incoming stack offset) survives having
	// had unnamed siblings skipped.
	numNamedParams := 0
	paramIndex := make(map[*scope.Symbol]int, len(n.Locals))
	if fnType := sym.Type; fnType != nil {
		li := 0
		for i, pname := range fnType.ParamNames {
			if pname == "" {
				continue
			}
			paramIndex[n.Locals[li]] = i
			li++
		}
		numNamedParams = li
	}

	for _, local := range n.Locals[numNamedParams:] {
		g.assignFrameSlot(local)
	}
	for _, local := range n.Locals[:numNamedParams] {
		if i := paramIndex[local]; i < 4 {
			g.assignFrameSlot(local)
		}
	}

	g.frameSize = alignUp(g.frameSize, 8)
	g.wideBase = g.frameSize
	g.frameSize += maxWideTemps * 8
	g.wideInUse = [maxWideTemps]bool{}
	for i := range g.wideTempOf {
		g.wideTempOf[i] = -1
	}

	fn.FrameSize = g.frameSize
	g.emit("enter", ImmOperand(int64(g.frameSize)))

	// Incoming args beyond the first four are pushed right-to-left by the
	// caller and never touch a register, so they need no spill: they are
	// addressed directly at a positive offset from rfp. `enter` is assumed
	// to leave the saved rfp at [rfp+0] and the return address at [rfp+4],
	// putting the first such arg (parameter index 4) at [rfp+8].
	regParams := make([]*scope.Symbol, 4)
	for local, i := range paramIndex {
		if i >= 4 {
			g.frame[local] = 8 + (i-4)*4
		} else {
			regParams[i] = local
		}
	}

	for i, local := range regParams {
		if local == nil {
			continue
		}
		off, ok := g.frame[local]
		if !ok {
			continue
		}
		if local.Type != nil && (local.Type.IsRecord() || isWideArith(local.Type)) {
			// A record or wide-arithmetic argument arrives as the address of
			// the caller's storage (genCall's genExpr yields an address for
			// both, same as genLoadSymbol/genAssignExpr elsewhere), so the
			// callee copies its bytes into the frame slot rather than
			// storing the register itself.
			dst := g.alloc()
			g.emit("mov", RegOperand(dst), RegOperand(Rfp))
			g.emit("add", RegOperand(dst), RegOperand(dst), ImmOperand(int64(off)))
			g.emitParamCopy(dst, argRegs[i], local.Type.Size())
			g.free(dst)
			continue
		}
		g.emitStoreFrame(local.Type.Size(), off, argRegs[i])
	}

	body := n.Child(0)
	if body != nil {
		g.genStmt(body)
	}

	g.emit("leave")
	g.emit("ret")

	g.prog.Functions = append(g.prog.Functions, fn)
	g.fn = nil
}

// assignFrameSlot reserves a negative-offset-from-rfp frame slot for a
// local variable, per spec.md §4.7.
func (g *Generator) assignFrameSlot(sym *scope.Symbol) {
	if _, ok := g.frame[sym]; ok {
		return
	}
	size := sym.Type.Size()
	if size <= 0 {
		size = 4
	}
	align := sym.Type.Alignment()
	if align < 1 {
		align = 1
	}
	g.frameSize = alignUp(g.frameSize+size, align)
	g.frame[sym] = -g.frameSize
}

func alignUp(n, align int) int {
	if align <= 1 {
		return n
	}
	return (n + align - 1) / align * align
}

func (g *Generator) newBlock(label string) *Block {
	b := &Block{Label: label}
	g.fn.Blocks = append(g.fn.Blocks, b)
	g.block = b
	return b
}

func (g *Generator) emit(op string, operands ...Operand) {
	g.block.Instructions = append(g.block.Instructions, Instruction{Op: op, Tok: g.curTok, Operands: operands})
}

func (g *Generator) freshLabel(prefix string) string {
	g.labelSeq++
	return fmt.Sprintf(".%s%d", prefix, g.labelSeq)
}

// --- register allocation --------------------------------------------------

func (g *Generator) alloc() Reg {
	for i, used := range g.inUse {
		if !used {
			g.inUse[i] = true
			g.wideTempOf[i] = -1
			return Reg(i)
		}
	}
	panic("codegen: out of registers (expression too deep for this register-pool model)")
}

// free releases r back to the pool. If r is currently the address of a
// wide-scratch slot (see allocWide), the slot is released along with it —
// wide-temp lifetime piggybacks entirely on the register that addresses
// it, so every existing free() call site already does the right thing
// without change.
func (g *Generator) free(r Reg) {
	if int(r) >= 0 && int(r) < len(g.inUse) {
		if slot := g.wideTempOf[r]; slot >= 0 {
			g.wideInUse[slot] = false
			g.wideTempOf[r] = -1
		}
		g.inUse[r] = false
	}
}

// allocWide reserves an 8-byte frame slot from the wide-scratch pool and
// returns a register holding its address, per spec.md §4.7's helper-call
// convention: long long/float/double/long double values that don't fit
// the virtual machine's 32-bit integer ALU are represented throughout
// codegen as the address of their storage, the same way a struct/union
// value already is.
func (g *Generator) allocWide() Reg {
	slot := -1
	for i, used := range g.wideInUse {
		if !used {
			slot = i
			break
		}
	}
	if slot < 0 {
		panic("codegen: out of wide scratch slots (expression too deep for this register-pool model)")
	}
	g.wideInUse[slot] = true

	r := g.alloc()
	g.wideTempOf[r] = slot
	off := -(g.wideBase + (slot+1)*8)
	g.emit("mov", RegOperand(r), RegOperand(Rfp))
	g.emit("add", RegOperand(r), RegOperand(r), ImmOperand(int64(off)))
	return r
}

// relocateResult moves r out of the argument registers (r0-r3) if it
// happens to have landed in one, preserving any wide-slot association, so
// its value survives a call that's about to overwrite r0-r3. genCall uses
// it for an indirect callee's address as well.
func (g *Generator) relocateResult(r Reg) Reg {
	if r > R3 {
		return r
	}
	// alloc hands out the lowest free register, so free argument registers
	// are held until it yields one above r3, then released.
	var held []Reg
	safe := g.alloc()
	for safe <= R3 {
		held = append(held, safe)
		safe = g.alloc()
	}
	for _, h := range held {
		g.inUse[h] = false
	}
	g.emit("mov", RegOperand(safe), RegOperand(r))
	g.wideTempOf[safe] = g.wideTempOf[r]
	g.wideTempOf[r] = -1
	g.inUse[r] = false
	return safe
}

// emitParamCopy copies a record- or wide-arithmetic-typed incoming
// parameter from the address the caller passed (src) into the callee's
// frame slot (dst). Wide-arithmetic values are always 4 or 8 bytes and
// copy with plain loads/stores (emitWideCopy); records of other sizes go
// through the same memcpy helper genStructCopy uses for struct/union
// assignment.
func (g *Generator) emitParamCopy(dst, src Reg, size int) {
	if size == 4 || size == 8 {
		g.emitWideCopy(dst, src, size)
		return
	}
	n := g.alloc()
	g.emit("mov", RegOperand(n), Imm32Operand(int64(size)))
	g.emit("mov", RegOperand(R0), RegOperand(dst))
	g.emit("mov", RegOperand(R1), RegOperand(src))
	g.emit("mov", RegOperand(R2), RegOperand(n))
	g.free(n)
	g.emit("call", SymOperand('^', "memcpy"))
}

func (g *Generator) emitStoreFrame(size, offset int, r Reg) {
	op := storeOp(size)
	g.emit(op, RegOperand(Rfp), ImmOperand(int64(offset)), RegOperand(r))
}

// storeOp/loadOp only cover the sizes the virtual machine has a direct
// store/load opcode for. An 8-byte long long/double never reaches here:
// every call site either routes such values through the address-valued
// wide representation (see allocWide) or guards against it; a wide-typed
// value among a function's first four parameters is copied by
// emitParamCopy instead. Any other size panics rather than silently
// truncating to 4 bytes (see DESIGN.md).
func storeOp(size int) string {
	switch size {
	case 1:
		return "stb"
	case 2:
		return "sts"
	case 4:
		return "stw"
	default:
		panic(fmt.Sprintf("codegen: no %d-byte store opcode (wide-typed value must use the address-valued representation)", size))
	}
}

func loadOp(size int, signed bool) string {
	switch size {
	case 1:
		return "ldb"
	case 2:
		return "ldh"
	case 4:
		return "ldw"
	default:
		panic(fmt.Sprintf("codegen: no %d-byte load opcode (wide-typed value must use the address-valued representation)", size))
	}
}
