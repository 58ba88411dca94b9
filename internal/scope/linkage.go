package scope

// ResolveLinkage implements spec.md §4.4's linkage rules:
//   - a file-scope declaration has external linkage by default, internal
//     if `static`;
//   - a block-scope `extern` adopts the file-scope symbol's linkage, if
//     one is visible;
//   - everything else (block-scope non-extern) has no linkage.
func ResolveLinkage(cur *Scope, name string, isStatic, isExtern bool) Linkage {
	if cur.IsGlobal() {
		if isStatic {
			return Internal
		}
		return External
	}
	if isExtern {
		if prior := cur.Global().FindSymbol(name, false); prior != nil {
			return prior.Linkage
		}
		return External
	}
	return NoLinkage
}
