package token

var keywords = map[string]Kind{
	"abstract":   KwAbstract,
	"as":         KwAs,
	"class":      KwClass,
	"const":      KwConst,
	"else":       KwElse,
	"export":     KwExport,
	"extends":    KwExtends,
	"false":      KwFalse,
	"final":      KwFinal,
	"for":        KwFor,
	"hide":       KwHide,
	"if":         KwIf,
	"implements": KwImplements,
	"import":     KwImport,
	"library":    KwLibrary,
	"new":        KwNew,
	"null":       KwNull,
	"of":         KwOf,
	"part":       KwPart,
	"return":     KwReturn,
	"show":       KwShow,
	"static":     KwStatic,
	"this":       KwThis,
	"true":       KwTrue,
	"var":        KwVar,
	"void":       KwVoid,
	"while":      KwWhile,
	"with":       KwWith,
}

var keywordText = func() map[Kind]string {
	m := make(map[Kind]string, len(keywords))
	for text, k := range keywords {
		m[k] = text
	}
	return m
}()

// LookupKeyword reports the keyword kind for ident, case-sensitively.
func LookupKeyword(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}

// IsBuiltIn reports whether k may also be used as an identifier
// (as, show, hide, of, library, part, ...), as in Dart.
func IsBuiltIn(k Kind) bool {
	switch k {
	case KwAbstract, KwAs, KwExport, KwHide, KwImplements, KwImport, KwLibrary,
		KwOf, KwPart, KwShow, KwStatic:
		return true
	default:
		return false
	}
}
