package parser

import "corecc/internal/scope"

// builtinNames lists every identifier spec.md §4.5 requires the parser
// to treat specially rather than look up as an ordinary function: the
// variadic-argument intrinsics and __func__.
var builtinNames = []string{
	"__builtin_va_start",
	"__builtin_va_arg",
	"__builtin_va_end",
	"__builtin_va_copy",
	"__func__",
}

// registerBuiltins seeds the global scope with builtin symbols at parser
// init time, per spec.md §4.5.
func registerBuiltins(global *scope.Scope) {
	for _, name := range builtinNames {
		global.AddSymbol(&scope.Symbol{
			Name:    name,
			Kind:    scope.SymBuiltin,
			Builtin: name,
		})
	}
}

// isBuiltin reports whether name names one of the registered builtins.
func isBuiltin(sym *scope.Symbol) bool {
	return sym != nil && sym.Kind == scope.SymBuiltin
}
