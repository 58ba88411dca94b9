// Package codegen implements spec.md §4.7: lowering a typed AST into
// blocks of instructions for the register-based virtual machine (r0–r9,
// ra, rb general purpose; rsp/rfp/rpp/rip special), grounded in the
// teacher's ygen IR-types style (IRProgram/IRFunction/IRInstr) adapted to
// a register machine whose results land in registers checked out of a
// fixed pool (see Generator.alloc) instead of the teacher's own unbounded
// virtual-register IR.
package codegen

import "corecc/internal/token"

// Reg names a general-purpose or special register.
type Reg int

const (
	R0 Reg = iota
	R1
	R2
	R3
	R4
	R5
	R6
	R7
	R8
	R9
	Ra
	Rb
	Rsp
	Rfp
	Rpp
	Rip
	noReg = -1
)

var regNames = [...]string{
	"r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7", "r8", "r9",
	"ra", "rb", "rsp", "rfp", "rpp", "rip",
}

func (r Reg) String() string {
	if int(r) < 0 || int(r) >= len(regNames) {
		return "r?"
	}
	return regNames[r]
}

// argRegs holds the first four argument/return registers per spec.md
// §4.7's calling convention.
var argRegs = [4]Reg{R0, R1, R2, R3}

// OperandKind tags which of the four operand shapes an Operand carries.
type OperandKind int

const (
	OpReg OperandKind = iota
	OpImm             // small immediate
	OpImm32           // 32-bit immediate
	OpSym             // symbol reference with a sigil
)

// Operand is one instruction operand.
type Operand struct {
	Kind  OperandKind
	Reg   Reg
	Imm   int64
	Sym   string
	Sigil byte // '@' '=' '^' '&' ':' per spec.md §4.8
}

func RegOperand(r Reg) Operand       { return Operand{Kind: OpReg, Reg: r} }
func ImmOperand(v int64) Operand     { return Operand{Kind: OpImm, Imm: v} }
func Imm32Operand(v int64) Operand   { return Operand{Kind: OpImm32, Imm: v} }
func SymOperand(sigil byte, s string) Operand {
	return Operand{Kind: OpSym, Sigil: sigil, Sym: s}
}

// Instruction is one (opcode, optional source token, operands) tuple.
type Instruction struct {
	Op       string
	Tok      token.Token
	Operands []Operand
}

// Block is an ordered list of instructions, optionally preceded by a
// label definition (the label itself is emitted as a `:name` line by the
// emitter, not stored as an instruction).
type Block struct {
	Label        string
	Instructions []Instruction
}

// Function is one function body: an ordered list of blocks plus the
// frame size the prologue must reserve.
type Function struct {
	Name      string
	IsPublic  bool
	FrameSize int
	Blocks    []*Block
}

// Global is one file-scope variable definition.
type Global struct {
	Name     string
	IsPublic bool
	Size     int
	Align    int
	Init     []byte // nil for zero-filled (tentative) storage
}

// StringLiteral is one deferred string/char-array constant, emitted after
// all function bodies per spec.md §6.
type StringLiteral struct {
	Label string
	Bytes []byte
}

// Program is the code generator's complete output, in the emission order
// spec.md §6 requires: globals, then functions, then string literals.
type Program struct {
	Globals   []*Global
	Functions []*Function
	Strings   []*StringLiteral
}
