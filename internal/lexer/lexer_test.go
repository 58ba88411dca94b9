package lexer

import (
	"strings"
	"testing"

	"corecc/internal/intern"
	"corecc/internal/token"
)

func scanAll(t *testing.T, src string) ([]token.Token, *intern.Pool) {
	t.Helper()
	pool := intern.NewPool()
	l := New(strings.NewReader(src), "t.i", pool)
	var toks []token.Token
	for {
		tok := l.Cur()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			break
		}
		l.Consume()
	}
	return toks, pool
}

func TestIdentifiersAndKeywords(t *testing.T) {
	toks, pool := scanAll(t, "int x = foo_bar;")
	want := []string{"int", "x", "=", "foo_bar", ";"}
	if len(toks) != len(want)+1 { // +1 for EOF
		t.Fatalf("got %d tokens, want %d + EOF", len(toks), len(want))
	}
	for i, w := range want {
		if toks[i].Text(pool) != w {
			t.Errorf("token %d = %q, want %q", i, toks[i].Text(pool), w)
		}
	}
}

func TestMultiCharPunctuation(t *testing.T) {
	toks, pool := scanAll(t, "a <<= b; c->d; e...")
	var got []string
	for _, tok := range toks {
		if tok.Kind == token.Punct {
			got = append(got, tok.Text(pool))
		}
	}
	want := []string{"<<=", ";", "->", ";", "..."}
	if len(got) != len(want) {
		t.Fatalf("got puncts %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("punct %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestStringEscapes(t *testing.T) {
	toks, pool := scanAll(t, `"a\tb\101\n"`)
	if toks[0].Kind != token.String {
		t.Fatalf("expected string token, got %v", toks[0].Kind)
	}
	got := toks[0].Text(pool)
	want := "a\tbA\n"
	if got != want {
		t.Errorf("string literal = %q, want %q", got, want)
	}
}

func TestCharLiteral(t *testing.T) {
	toks, _ := scanAll(t, `'\n'`)
	if toks[0].Kind != token.Char {
		t.Fatalf("expected char token, got %v", toks[0].Kind)
	}
	if toks[0].IntValue != int64('\n') {
		t.Errorf("char literal value = %d, want %d", toks[0].IntValue, '\n')
	}
}

func TestLineDirectiveTracksFileAndLine(t *testing.T) {
	src := "int a;\n#line 42 \"other.c\"\nint b;\n"
	pool := intern.NewPool()
	l := New(strings.NewReader(src), "t.i", pool)
	// first token: "int" on line 1 of t.i
	if l.Cur().Line != 1 || pool.String(l.Cur().File) != "t.i" {
		t.Fatalf("first token at %s:%d, want t.i:1", pool.String(l.Cur().File), l.Cur().Line)
	}
	for !l.Is("b") {
		l.Consume()
		if l.Cur().Kind == token.EOF {
			t.Fatalf("did not find identifier b")
		}
	}
	if l.Cur().Line != 42 || pool.String(l.Cur().File) != "other.c" {
		t.Errorf("token b at %s:%d, want other.c:42", pool.String(l.Cur().File), l.Cur().Line)
	}
}

func TestGCCLinemarkerForm(t *testing.T) {
	src := "# 7 \"foo.c\"\nint x;\n"
	pool := intern.NewPool()
	l := New(strings.NewReader(src), "t.i", pool)
	if l.Cur().Line != 7 || pool.String(l.Cur().File) != "foo.c" {
		t.Errorf("got %s:%d, want foo.c:7", pool.String(l.Cur().File), l.Cur().Line)
	}
}

func TestUnterminatedStringIsFatal(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic for unterminated string literal")
		}
		if _, ok := r.(*FatalError); !ok {
			t.Fatalf("expected *FatalError, got %T", r)
		}
	}()
	scanAll(t, `"never closes`)
}

func TestAcceptExpect(t *testing.T) {
	pool := intern.NewPool()
	l := New(strings.NewReader("int x;"), "t.i", pool)
	if !l.Accept("int") {
		t.Fatal("Accept(\"int\") = false")
	}
	if l.Accept("float") {
		t.Fatal("Accept(\"float\") = true, should not match")
	}
	l.Expect("x", "expected identifier")
	l.Expect(";", "expected semicolon")
	if l.Cur().Kind != token.EOF {
		t.Fatalf("expected EOF, got %v", l.Cur().Kind)
	}
}
