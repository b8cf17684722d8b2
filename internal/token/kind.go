package token

// Kind represents the category of a source token.
type Kind uint8

const (
	// Invalid marks an erroneous token (unexpected character, bad literal).
	Invalid Kind = iota
	// EOF terminates every stream.
	EOF

	Ident
	IntLit
	DoubleLit
	StringLit

	KwAbstract
	KwAs
	KwClass
	KwConst
	KwElse
	KwExport
	KwExtends
	KwFalse
	KwFinal
	KwFor
	KwHide
	KwIf
	KwImplements
	KwImport
	KwLibrary
	KwNew
	KwNull
	KwOf
	KwPart
	KwReturn
	KwShow
	KwStatic
	KwThis
	KwTrue
	KwVar
	KwVoid
	KwWhile
	KwWith

	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	Semicolon
	Comma
	Dot
	Colon
	Question
	Assign   // =
	EqEq     // ==
	Bang     // !
	BangEq   // !=
	Lt       // <
	LtEq     // <=
	Gt       // >
	GtEq     // >=
	Plus     // +
	PlusPlus // ++
	Minus    // -
	MinusMinus
	Star
	Slash
	Percent
	AndAnd   // &&
	OrOr     // ||
	FatArrow // =>
	At       // @

	kindCount
)

var kindNames = [...]string{
	Invalid:    "invalid",
	EOF:        "end of file",
	Ident:      "identifier",
	IntLit:     "integer literal",
	DoubleLit:  "double literal",
	StringLit:  "string literal",
	LParen:     "'('",
	RParen:     "')'",
	LBrace:     "'{'",
	RBrace:     "'}'",
	LBracket:   "'['",
	RBracket:   "']'",
	Semicolon:  "';'",
	Comma:      "','",
	Dot:        "'.'",
	Colon:      "':'",
	Question:   "'?'",
	Assign:     "'='",
	EqEq:       "'=='",
	Bang:       "'!'",
	BangEq:     "'!='",
	Lt:         "'<'",
	LtEq:       "'<='",
	Gt:         "'>'",
	GtEq:       "'>='",
	Plus:       "'+'",
	PlusPlus:   "'++'",
	Minus:      "'-'",
	MinusMinus: "'--'",
	Star:       "'*'",
	Slash:      "'/'",
	Percent:    "'%'",
	AndAnd:     "'&&'",
	OrOr:       "'||'",
	FatArrow:   "'=>'",
	At:         "'@'",
}

// String returns a human-readable name suitable for diagnostics.
func (k Kind) String() string {
	if k.IsKeyword() {
		return "'" + keywordText[k] + "'"
	}
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown"
}

// IsKeyword reports whether k is a reserved or built-in word.
func (k Kind) IsKeyword() bool {
	return k >= KwAbstract && k <= KwWith
}

// IsLiteral reports whether k is a literal token.
func (k Kind) IsLiteral() bool {
	switch k {
	case IntLit, DoubleLit, StringLit, KwTrue, KwFalse, KwNull:
		return true
	default:
		return false
	}
}
