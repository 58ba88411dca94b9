// Package intern canonicalizes identifier and literal byte sequences to
// stable, comparable handles so every later pass (lexer, parser, AST,
// code generator) can compare strings by handle equality instead of byte
// comparison.
package intern

import "sync"

// ID is a handle into a Pool. The zero value is the handle of the empty
// string, which every Pool holds from the start.
type ID int32

// Pool is the single table of interned byte strings for one compilation.
// A Pool is safe for concurrent use, though the compiler itself is
// single-threaded end to end.
type Pool struct {
	mu      sync.Mutex
	strings []string
	index   map[string]ID
}

// NewPool returns an intern pool holding only the empty string, at
// handle 0.
func NewPool() *Pool {
	return &Pool{
		strings: []string{""},
		index:   map[string]ID{"": 0},
	}
}

// Intern returns the handle for s, allocating a new one if s has not been
// seen before.
func (p *Pool) Intern(s string) ID {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id, ok := p.index[s]; ok {
		return id
	}
	id := ID(len(p.strings))
	p.strings = append(p.strings, s)
	p.index[s] = id
	return id
}

// String returns the byte sequence behind a handle.
func (p *Pool) String(id ID) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if int(id) < 0 || int(id) >= len(p.strings) {
		return ""
	}
	return p.strings[id]
}

// Len reports how many distinct strings are interned, including the
// reserved empty string at handle 0.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.strings)
}
