package parser

import (
	"strings"
	"testing"

	"corecc/internal/ast"
	"corecc/internal/intern"
	"corecc/internal/lexer"
)

func parse(t *testing.T, src string) ([]*ast.Node, error) {
	t.Helper()
	pool := intern.NewPool()
	lex := lexer.New(strings.NewReader(src), "test.c", pool)
	p := New(lex)
	return p.ParseTranslationUnit()
}

func mustParse(t *testing.T, src string) []*ast.Node {
	t.Helper()
	decls, err := parse(t, src)
	if err != nil {
		t.Fatalf("unexpected parse error: %v\nsource:\n%s", err, src)
	}
	return decls
}

func TestParsesSimpleFunction(t *testing.T) {
	decls := mustParse(t, "int main(void) { return 0; }")
	if len(decls) != 1 || decls[0].Kind != ast.FuncDef {
		t.Fatalf("want one FuncDef, got %v", decls)
	}
}

func TestParsesTypedefAndStructPointer(t *testing.T) {
	decls := mustParse(t, `
		typedef struct Point { int x; int y; } Point;
		int sum(Point *p) { return p->x + p->y; }
	`)
	found := false
	for _, d := range decls {
		if d.Kind == ast.FuncDef {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a function definition among decls: %v", decls)
	}
}

func TestAnonymousStructMemberFlattens(t *testing.T) {
	decls := mustParse(t, `
		struct Outer {
			int tag;
			struct { int a; int b; };
		};
		int use(struct Outer *o) { return o->a + o->b + o->tag; }
	`)
	if len(decls) == 0 {
		t.Fatal("expected at least one declaration")
	}
}

func TestEnumConstantsRegisteredInEnclosingScope(t *testing.T) {
	mustParse(t, `
		enum Color { Red, Green, Blue = 5, Yellow };
		int pick(void) { return Red + Green + Blue + Yellow; }
	`)
}

func TestStatementExpressionYieldsLastValueType(t *testing.T) {
	decls := mustParse(t, `
		int f(void) {
			int x = ({ int a = 1; int b = 2; a + b; });
			return x;
		}
	`)
	if len(decls) != 1 {
		t.Fatalf("want 1 decl, got %d", len(decls))
	}
}

func TestFlexibleArrayMemberMustBeLast(t *testing.T) {
	mustParse(t, `
		struct Buf { int len; char data[]; };
	`)
	if _, err := parse(t, "struct Bad { char data[]; int len; };"); err == nil {
		t.Fatal("expected a fatal error for a member after a flexible array member")
	}
}

func TestUsualArithmeticConversionsOnBinary(t *testing.T) {
	decls := mustParse(t, "int f(void) { long a = 1; int b = 2; return a + b; }")
	fn := decls[0]
	if fn.Kind != ast.FuncDef {
		t.Fatalf("want FuncDef, got %v", fn.Kind)
	}
}

func TestIntegerPromotionOfNarrowOperands(t *testing.T) {
	decls := mustParse(t, "int f(void) { short a = 1; short b = 2; return a + b; }")
	if decls[0].Kind != ast.FuncDef {
		t.Fatalf("want FuncDef, got %v", decls[0].Kind)
	}
}

func TestPointerArithmeticScalesByPointeeSize(t *testing.T) {
	mustParse(t, "int f(int *p) { return *(p + 2); }")
}

func TestConstantExpressionEvaluationForArrayBound(t *testing.T) {
	mustParse(t, "int a[2 + 3];")
}

func TestVariadicFunctionPrototype(t *testing.T) {
	mustParse(t, "int sum(int count, ...);")
}

func TestFuncReturningFunctionIsRejected(t *testing.T) {
	_, err := parse(t, "int f()(void);")
	if err == nil {
		t.Fatal("expected a fatal error for a function returning a function")
	}
}

func TestUnterminatedStringLiteralIsFatal(t *testing.T) {
	_, err := parse(t, `char *s = "unterminated;`)
	if err == nil {
		t.Fatal("expected a fatal lex error for an unterminated string literal")
	}
}

func TestDuplicateMemberNameRejected(t *testing.T) {
	_, err := parse(t, "struct S { int x; int x; };")
	if err == nil {
		t.Fatal("expected a fatal error for a duplicate struct member")
	}
}

func TestIndeterminateArrayOnlyValidAsParameterOrCompleted(t *testing.T) {
	decls := mustParse(t, `
		int f(int a[]) { return a[0]; }
		int table[] = {1, 2, 3};
	`)
	if len(decls) != 2 {
		t.Fatalf("want 2 decls, got %d", len(decls))
	}
}

func TestCompatiblePrototypeRedeclarationAccepted(t *testing.T) {
	mustParse(t, "int f(int); int f(int) { return 0; }")
}

func TestIncompatiblePrototypeRedeclarationRejected(t *testing.T) {
	_, err := parse(t, "int f(int); int f(long) { return 0; }")
	if err == nil {
		t.Fatal("expected a fatal error for conflicting function types")
	}
}

func TestDuplicateStructDefinitionRejected(t *testing.T) {
	_, err := parse(t, "struct S { int x; }; struct S { int y; };")
	if err == nil {
		t.Fatal("expected a fatal error for redefining struct S")
	}
}

func TestSizeofDoesNotDecayArray(t *testing.T) {
	decls := mustParse(t, `
		int f(void) {
			int a[4];
			return (int)sizeof(a);
		}
	`)
	if len(decls) != 1 || decls[0].Kind != ast.FuncDef {
		t.Fatalf("want one FuncDef, got %v", decls)
	}
}
