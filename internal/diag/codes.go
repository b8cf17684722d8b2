package diag

import "fmt"

type Code uint16

const (
	UnknownCode Code = 0

	// Лексические
	LexUnknownChar              Code = 1001
	LexUnterminatedString       Code = 1002
	LexUnterminatedBlockComment Code = 1003
	LexBadNumber                Code = 1004

	// Синтаксические
	SynUnexpectedToken    Code = 2001
	SynExpectSemicolon    Code = 2002
	SynExpectIdentifier   Code = 2003
	SynExpectURI          Code = 2004
	SynUnclosedBrace      Code = 2005
	SynUnclosedParen      Code = 2006
	SynUnexpectedTopLevel Code = 2007
	SynDirectiveOrder     Code = 2008 // directive after a declaration
	SynExpectExpression   Code = 2009
	SynExpectBody         Code = 2010

	// Семантические
	SemaUnresolvedURI     Code = 3001
	SemaMissingSource     Code = 3002
	SemaDuplicateName     Code = 3003
	SemaUndefinedClass    Code = 3004
	SemaPartOfMismatch    Code = 3005
	SemaNotAPart          Code = 3006
	SemaPartHasDirectives Code = 3007
	SemaDuplicateMember   Code = 3008

	IOContentUnavailable Code = 4001
)

var codeDescription = map[Code]string{
	UnknownCode:                 "Unknown error",
	LexUnknownChar:              "Unknown character",
	LexUnterminatedString:       "Unterminated string literal",
	LexUnterminatedBlockComment: "Unterminated block comment",
	LexBadNumber:                "Malformed number literal",
	SynUnexpectedToken:          "Unexpected token",
	SynExpectSemicolon:          "Expected ';'",
	SynExpectIdentifier:         "Expected identifier",
	SynExpectURI:                "Expected URI string",
	SynUnclosedBrace:            "Unclosed '{'",
	SynUnclosedParen:            "Unclosed '('",
	SynUnexpectedTopLevel:       "Unexpected top-level construct",
	SynDirectiveOrder:           "Directive after declaration",
	SynExpectExpression:         "Expected expression",
	SynExpectBody:               "Expected function body",
	SemaUnresolvedURI:           "Unresolved URI",
	SemaMissingSource:           "Referenced source does not exist",
	SemaDuplicateName:           "Duplicate top-level name",
	SemaUndefinedClass:          "Undefined class",
	SemaPartOfMismatch:          "Part belongs to another library",
	SemaNotAPart:                "Included source is not a part",
	SemaPartHasDirectives:       "Part contains library directives",
	SemaDuplicateMember:         "Duplicate class member",
	IOContentUnavailable:        "Source content unavailable",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}

// IsSyntax reports whether c was produced while scanning or parsing.
func (c Code) IsSyntax() bool { return c >= 1000 && c < 3000 }

// IsSemantic reports whether c was produced by the resolver.
func (c Code) IsSemantic() bool { return c >= 3000 && c < 4000 }

// IsCompilation reports whether c is a user-facing compilation error rather
// than an engine-internal condition.
func (c Code) IsCompilation() bool { return c.IsSyntax() || c.IsSemantic() }
