// Package lexer tokenizes a preprocessed C translation unit (spec.md
// §4.1). It reads bytes from an io.Reader, tracks source location via
// #line directives, and exposes a single-token look-ahead / one-token
// push-back interface for the parser.
package lexer

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"corecc/internal/intern"
	"corecc/internal/token"
)

// FatalError is raised as a panic by Lexer methods (and by the parser
// layered on top) for unrecoverable errors; Recover turns it back into a
// returned error. The driver is the only place this becomes a printed
// diagnostic and a process exit, matching spec.md §7 ("all errors are
// fatal") and SPEC_FULL.md §1's note on longjmp-style unwind.
type FatalError struct {
	File string
	Line int
	Msg  string
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s:%d: error: %s", e.File, e.Line, e.Msg)
}

// Lexer holds all mutable scan state for one translation unit.
type Lexer struct {
	r    *bufio.Reader
	pool *intern.Pool

	file string
	line int

	// pushback queue: at most one token, per spec.md §4.1.
	hasPushback bool
	pushback    token.Token

	cur token.Token
}

// New creates a Lexer reading from r, attributing tokens initially to
// filename until a #line directive says otherwise.
func New(r io.Reader, filename string, pool *intern.Pool) *Lexer {
	l := &Lexer{
		r:    bufio.NewReader(r),
		pool: pool,
		file: filename,
		line: 1,
	}
	l.cur = l.scan()
	return l
}

func (l *Lexer) fatalf(format string, args ...any) token.Token {
	panic(&FatalError{File: l.file, Line: l.line, Msg: fmt.Sprintf(format, args...)})
}

// Recover converts a panicked *FatalError from this package (or the
// parser layered on top of it) into a returned error. Callers at the
// driver boundary should defer this around the whole compile.
func Recover(errp *error) {
	if r := recover(); r != nil {
		if fe, ok := r.(*FatalError); ok {
			*errp = fe
			return
		}
		panic(r)
	}
}

func (l *Lexer) intern(s string) intern.ID { return l.pool.Intern(s) }

func (l *Lexer) fileID() intern.ID { return l.intern(l.file) }

// --- byte-level scanning -------------------------------------------------

func (l *Lexer) peek() byte {
	b, err := l.r.Peek(1)
	if err != nil || len(b) == 0 {
		return 0
	}
	return b[0]
}

func (l *Lexer) peekAt(n int) byte {
	b, err := l.r.Peek(n + 1)
	if err != nil || len(b) <= n {
		return 0
	}
	return b[n]
}

func (l *Lexer) advance() byte {
	ch, err := l.r.ReadByte()
	if err != nil {
		return 0
	}
	if ch == '\r' {
		// Tolerate CRLF; a lone CR after normalisation is rejected below.
		if l.peek() == '\n' {
			ch = l.advance()
			return ch
		}
		l.fatalf("stray carriage return")
	}
	if ch == '\n' {
		l.line++
	}
	return ch
}

func isLetter(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlnum(c byte) bool { return isLetter(c) || isDigit(c) }

// --- whitespace, comments, directives -----------------------------------

func (l *Lexer) skipWhitespaceAndDirectives() {
	for {
		switch ch := l.peek(); {
		case ch == ' ' || ch == '\t' || ch == '\v' || ch == '\f' || ch == '\n' || ch == '\r':
			l.advance()
		case ch == '#' :
			l.handleLineDirective()
		default:
			return
		}
	}
}

// handleLineDirective consumes a '#line N "file"', the GCC linemarker
// spelling '# N "file"', or a '#pragma ...' line (ignored beyond a
// warning-worthy no-op), per SPEC_FULL.md §3.
func (l *Lexer) handleLineDirective() {
	l.advance() // consume '#'
	for l.peek() == ' ' || l.peek() == '\t' {
		l.advance()
	}
	if isDigit(l.peek()) {
		// '# N "file" [flags...]' linemarker form.
		n := l.scanDigits()
		for l.peek() == ' ' || l.peek() == '\t' {
			l.advance()
		}
		if l.peek() == '"' {
			name := l.scanQuotedFilename()
			l.file = name
		}
		l.skipToEOL()
		// The directive's own newline is still to be consumed and counts
		// one line, so the line after the directive becomes n.
		l.line = n - 1
		return
	}
	ident := l.scanBareIdentifier()
	switch ident {
	case "line":
		for l.peek() == ' ' || l.peek() == '\t' {
			l.advance()
		}
		n := l.scanDigits()
		for l.peek() == ' ' || l.peek() == '\t' {
			l.advance()
		}
		if l.peek() == '"' {
			l.file = l.scanQuotedFilename()
		}
		l.skipToEOL()
		l.line = n - 1
	case "pragma":
		l.skipToEOL()
	default:
		l.fatalf("malformed directive #%s", ident)
	}
}

func (l *Lexer) scanDigits() int {
	n := 0
	if !isDigit(l.peek()) {
		l.fatalf("expected line number after #line")
	}
	for isDigit(l.peek()) {
		n = n*10 + int(l.advance()-'0')
	}
	return n
}

func (l *Lexer) scanBareIdentifier() string {
	var b strings.Builder
	for isAlnum(l.peek()) {
		b.WriteByte(l.advance())
	}
	return b.String()
}

func (l *Lexer) scanQuotedFilename() string {
	l.advance() // opening quote
	var b strings.Builder
	for l.peek() != '"' && l.peek() != 0 && l.peek() != '\n' {
		b.WriteByte(l.advance())
	}
	if l.peek() != '"' {
		l.fatalf("malformed #line directive: unterminated filename")
	}
	l.advance()
	return b.String()
}

func (l *Lexer) skipToEOL() {
	for l.peek() != '\n' && l.peek() != 0 {
		l.advance()
	}
}

// --- literal scanning -----------------------------------------------------

var multiCharPuncts = []string{
	"<<=", ">>=", "...",
	"->", "++", "--", "&&", "||", "==", "!=", "<=", ">=", "<<", ">>",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=",
}

var singleCharPuncts = map[byte]bool{
	'+': true, '-': true, '*': true, '/': true, '%': true,
	'&': true, '|': true, '^': true, '!': true, '~': true,
	'<': true, '>': true, '=': true,
	'(': true, ')': true, '[': true, ']': true, '{': true, '}': true,
	'.': true, '?': true, ':': true, ',': true, ';': true,
}

func (l *Lexer) scanNumber() string {
	var b strings.Builder
	b.WriteByte(l.advance())
	for {
		c := l.peek()
		switch {
		case isAlnum(c) || c == '.':
			b.WriteByte(l.advance())
		case (c == '+' || c == '-') && isExponentPrefix(b.String()):
			b.WriteByte(l.advance())
		default:
			return b.String()
		}
	}
}

// isExponentPrefix reports whether the text scanned so far ends in an
// exponent marker ('e'/'E'/'p'/'P') so a following +/- is part of the
// number, not the next punctuation token.
func isExponentPrefix(s string) bool {
	if s == "" {
		return false
	}
	switch s[len(s)-1] {
	case 'e', 'E', 'p', 'P':
		return true
	default:
		return false
	}
}

func hexDigitValue(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isOctalDigit(c byte) bool { return c >= '0' && c <= '7' }

// scanEscape consumes a backslash escape and returns its byte value.
// Supports the named escapes spec.md lists plus octal \NNN
// (SPEC_FULL.md §3); \x hex escapes are intentionally unsupported at
// this stage per spec.md §1 Non-goals ("hexadecimal ... escape
// sequences in earlier stages").
func (l *Lexer) scanEscape() byte {
	l.advance() // consume backslash
	c := l.advance()
	switch c {
	case 'a':
		return '\a'
	case 'b':
		return '\b'
	case 't':
		return '\t'
	case 'n':
		return '\n'
	case 'v':
		return '\v'
	case 'f':
		return '\f'
	case 'r':
		return '\r'
	case 'e':
		return 0x1b
	case '"':
		return '"'
	case '\'':
		return '\''
	case '?':
		return '?'
	case '\\':
		return '\\'
	default:
		if isOctalDigit(c) {
			val := c - '0'
			for i := 0; i < 2 && isOctalDigit(l.peek()); i++ {
				val = val*8 + (l.advance() - '0')
			}
			return val
		}
		l.fatalf("invalid escape sequence \\%c", c)
		return 0
	}
}

func (l *Lexer) scanCharLiteral() (intern.ID, int64) {
	l.advance() // opening quote
	var v int64
	if l.peek() == '\\' {
		v = int64(l.scanEscape())
	} else if l.peek() == 0 || l.peek() == '\'' {
		l.fatalf("empty character literal")
	} else {
		v = int64(l.advance())
	}
	if l.peek() != '\'' {
		l.fatalf("unterminated character literal")
	}
	l.advance()
	return l.intern(string(rune(byte(v)))), v
}

func (l *Lexer) scanString() string {
	l.advance() // opening quote
	var b strings.Builder
	for l.peek() != '"' {
		if l.peek() == 0 || l.peek() == '\n' {
			l.fatalf("unterminated string literal")
		}
		if l.peek() == '\\' {
			b.WriteByte(l.scanEscape())
		} else {
			b.WriteByte(l.advance())
		}
	}
	l.advance()
	return b.String()
}

// --- token production -----------------------------------------------------

func (l *Lexer) scan() token.Token {
	l.skipWhitespaceAndDirectives()
	file, line := l.fileID(), l.line

	c := l.peek()
	if c == 0 {
		return token.Token{Kind: token.EOF, File: file, Line: line}
	}

	if isLetter(c) {
		var b strings.Builder
		for isAlnum(l.peek()) {
			b.WriteByte(l.advance())
		}
		return token.Token{Kind: token.Alnum, Body: l.intern(b.String()), File: file, Line: line}
	}

	if isDigit(c) || (c == '.' && isDigit(l.peekAt(1))) {
		text := l.scanNumber()
		return token.Token{Kind: token.Number, Body: l.intern(text), File: file, Line: line}
	}

	if c == '\'' {
		body, val := l.scanCharLiteral()
		return token.Token{Kind: token.Char, Body: body, IntValue: val, File: file, Line: line}
	}

	if c == '"' {
		s := l.scanString()
		return token.Token{Kind: token.String, Body: l.intern(s), File: file, Line: line}
	}

	for _, op := range multiCharPuncts {
		if matchesAt(l, op) {
			for range op {
				l.advance()
			}
			return token.Token{Kind: token.Punct, Body: l.intern(op), File: file, Line: line}
		}
	}

	if singleCharPuncts[c] {
		l.advance()
		return token.Token{Kind: token.Punct, Body: l.intern(string(c)), File: file, Line: line}
	}

	l.fatalf("unrecognised byte 0x%02x", c)
	return token.Token{}
}

func matchesAt(l *Lexer, op string) bool {
	for i := 0; i < len(op); i++ {
		if l.peekAt(i) != op[i] {
			return false
		}
	}
	return true
}

// --- parser-facing API ----------------------------------------------------

// Cur returns the current look-ahead token without consuming it.
func (l *Lexer) Cur() token.Token { return l.cur }

// Pool returns the intern pool backing this lexer's tokens.
func (l *Lexer) Pool() *intern.Pool { return l.pool }

// Consume advances past the current token to the next one.
func (l *Lexer) Consume() {
	if l.hasPushback {
		l.cur = l.pushback
		l.hasPushback = false
		return
	}
	l.cur = l.scan()
}

// Take returns the current token and advances, matching spec.md's `take`.
func (l *Lexer) Take() token.Token {
	t := l.cur
	l.Consume()
	return t
}

// PushBack restores t as the current look-ahead, saving the previous
// look-ahead in the (single-slot) pushback queue.
func (l *Lexer) PushBack(t token.Token) {
	if l.hasPushback {
		l.fatalf("internal error: pushback queue full")
	}
	l.pushback = l.cur
	l.hasPushback = true
	l.cur = t
}

// Is reports whether the current token is punctuation/alnum spelled s.
func (l *Lexer) Is(s string) bool { return l.cur.Is(l.pool, s) }

// Accept consumes the current token and returns true if it is spelled s;
// otherwise leaves the token stream untouched and returns false.
func (l *Lexer) Accept(s string) bool {
	if l.Is(s) {
		l.Consume()
		return true
	}
	return false
}

// Expect consumes the current token if it is spelled s; otherwise raises
// a fatal parse error naming msg and the offending token text.
func (l *Lexer) Expect(s, msg string) token.Token {
	if !l.Is(s) {
		l.fatalf("%s: got %q", msg, l.cur.Text(l.pool))
	}
	return l.Take()
}

// Fatalf raises a fatal error located at the current token, for use by
// later passes (parser, semantic checks) layered on this lexer's location
// tracking.
func (l *Lexer) Fatalf(format string, args ...any) {
	l.fatalf(format, args...)
}

// FatalAt raises a fatal error located at an arbitrary (already-captured)
// token, so later passes can report against a saved token rather than the
// current look-ahead.
func FatalAt(pool *intern.Pool, t token.Token, format string, args ...any) {
	panic(&FatalError{File: pool.String(t.File), Line: t.Line, Msg: fmt.Sprintf(format, args...)})
}
