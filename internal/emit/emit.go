// Package emit implements spec.md §4.8: serialising a codegen.Program to
// the textual assembly dialect described there — sigil-prefixed symbol
// references, named registers, decimal/hex immediates, quoted string
// data, and `#line` debug directives — grounded in the teacher's ygen
// Emitter (bufio.Writer plus small Instr0/1/2/3-style helpers).
package emit

import (
	"bufio"
	"fmt"
	"io"
	"unicode"

	"corecc/internal/codegen"
	"corecc/internal/intern"
)

// Emitter writes one Program to a single output stream.
type Emitter struct {
	w          *bufio.Writer
	pool       *intern.Pool
	debugLines bool
	curFile    string
	curLine    int
}

// New creates an Emitter writing to w. debugLines enables the `-g`
// `#line` directive stream spec.md §6 describes; pool resolves each
// instruction's interned source-file handle for that stream.
func New(w io.Writer, pool *intern.Pool, debugLines bool) *Emitter {
	return &Emitter{w: bufio.NewWriter(w), pool: pool, debugLines: debugLines}
}

// Flush flushes any buffered output.
func (e *Emitter) Flush() error { return e.w.Flush() }

// Program writes globals, then function bodies, then deferred string
// literals, each block separated by three blank lines, per spec.md §6.
func (e *Emitter) Program(p *codegen.Program) error {
	fmt.Fprintln(e.w, "#line manual")

	for _, g := range p.Globals {
		e.global(g)
		e.blankGap()
	}
	for _, fn := range p.Functions {
		e.function(fn)
		e.blankGap()
	}
	for _, s := range p.Strings {
		e.stringLiteral(s)
		e.blankGap()
	}
	return e.w.Flush()
}

func (e *Emitter) blankGap() {
	fmt.Fprintln(e.w)
	fmt.Fprintln(e.w)
	fmt.Fprintln(e.w)
}

// global emits one file-scope variable definition: `=name` (public) or
// `@name` and a `zero`/data directive sized to its type.
func (e *Emitter) global(g *codegen.Global) {
	sigil := byte('@')
	if g.IsPublic {
		sigil = '='
	}
	fmt.Fprintf(e.w, "%c%s\n", sigil, g.Name)
	if g.Init == nil {
		fmt.Fprintf(e.w, "    zero %d\n", g.Size)
		return
	}
	fmt.Fprintf(e.w, "    bytes %s\n", e.quoteBytes(g.Init))
}

// function emits one function's label, its blocks (each prefixed by its
// `:label` line when not the entry block), and its instructions.
func (e *Emitter) function(fn *codegen.Function) {
	sigil := byte('@')
	if fn.IsPublic {
		sigil = '='
	}
	fmt.Fprintf(e.w, "%c%s\n", sigil, fn.Name)
	for i, b := range fn.Blocks {
		if i > 0 {
			fmt.Fprintf(e.w, ":%s\n", b.Label)
		}
		for _, instr := range b.Instructions {
			e.instruction(instr)
		}
	}
}

func (e *Emitter) instruction(ins codegen.Instruction) {
	e.lineDirective(ins)
	fmt.Fprintf(e.w, "    %s", ins.Op)
	for _, op := range ins.Operands {
		fmt.Fprintf(e.w, " %s", e.operand(op))
	}
	fmt.Fprintln(e.w)
}

func (e *Emitter) lineDirective(ins codegen.Instruction) {
	if !e.debugLines || ins.Tok.Line == 0 {
		return
	}
	file := e.pool.String(ins.Tok.File)
	if file == e.curFile && ins.Tok.Line == e.curLine+1 {
		fmt.Fprintln(e.w, "#")
		e.curLine++
		return
	}
	if file != e.curFile || ins.Tok.Line != e.curLine {
		fmt.Fprintf(e.w, "#line %d %q\n", ins.Tok.Line, file)
		e.curFile = file
		e.curLine = ins.Tok.Line
	}
}

func (e *Emitter) operand(op codegen.Operand) string {
	switch op.Kind {
	case codegen.OpReg:
		return op.Reg.String()
	case codegen.OpImm:
		return e.formatImm(op.Imm)
	case codegen.OpImm32:
		return e.formatImm(op.Imm)
	case codegen.OpSym:
		return fmt.Sprintf("%c%s", op.Sigil, op.Sym)
	}
	return "?"
}

// formatImm emits small representable values as decimal, otherwise as
// 8-digit hex, per spec.md §4.8.
func (e *Emitter) formatImm(v int64) string {
	if v >= -0x7fff && v <= 0x7fff {
		return fmt.Sprintf("%d", v)
	}
	return fmt.Sprintf("0x%08x", uint32(v))
}

func (e *Emitter) stringLiteral(s *codegen.StringLiteral) {
	fmt.Fprintf(e.w, "@%s\n", s.Label)
	fmt.Fprintf(e.w, "    bytes %s\n", e.quoteBytes(append(append([]byte{}, s.Bytes...), 0)))
}

// quoteBytes formats character data as a printable double-quoted string
// with `'HH` escapes for non-printable or special bytes, per spec.md §4.8.
func (e *Emitter) quoteBytes(data []byte) string {
	var out []byte
	out = append(out, '"')
	for _, b := range data {
		switch {
		case b == '"' || b == '\\':
			out = append(out, '\'', hexDigit(b>>4), hexDigit(b&0xf))
		case b >= 0x20 && b < 0x7f && unicode.IsPrint(rune(b)):
			out = append(out, b)
		default:
			out = append(out, '\'', hexDigit(b>>4), hexDigit(b&0xf))
		}
	}
	out = append(out, '"')
	return string(out)
}

func hexDigit(n byte) byte {
	n &= 0xf
	if n < 10 {
		return '0' + n
	}
	return 'a' + n - 10
}
