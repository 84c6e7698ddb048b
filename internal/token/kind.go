package token

// Kind represents the category of a source token.
type Kind uint8

const (
	// Invalid indicates an unrecognized character.
	Invalid Kind = iota
	// EOF marks the end of the source input.
	EOF

	// Ident represents an identifier token.
	Ident
	// IntLit represents a decimal integer literal.
	IntLit

	kwBegin
	// KwIf represents the 'if' keyword.
	KwIf // if
	// KwElse represents the 'else' keyword.
	KwElse // else
	// KwWhile represents the 'while' keyword.
	KwWhile // while
	// KwFor represents the 'for' keyword.
	KwFor // for
	// KwReturn represents the 'return' keyword.
	KwReturn // return
	// KwInt represents the 'int' keyword.
	KwInt // int
	// KwFloat represents the 'float' keyword.
	KwFloat // float
	// KwVoid represents the 'void' keyword.
	KwVoid // void
	// KwChar represents the 'char' keyword.
	KwChar // char
	// KwBool represents the 'bool' keyword.
	KwBool // bool
	// KwTrue represents the 'true' keyword.
	KwTrue // true
	// KwFalse represents the 'false' keyword.
	KwFalse // false
	// KwBreak represents the 'break' keyword.
	KwBreak // break
	// KwContinue represents the 'continue' keyword.
	KwContinue // continue
	kwEnd

	opBegin
	Plus    // +
	Minus   // -
	Star    // *
	Slash   // /
	Percent // %
	Lt      // <
	Gt      // >
	Assign  // =
	Bang    // !
	Colon   // :

	LtEq        // <=
	GtEq        // >=
	EqEq        // ==
	BangEq      // !=
	PlusPlus    // ++
	MinusMinus  // --
	PlusAssign  // +=
	MinusAssign // -=
	StarAssign  // *=
	SlashAssign // /=
	AndAnd      // &&
	OrOr        // ||

	Semicolon // ;
	Comma     // ,
	LParen    // (
	RParen    // )
	LBrace    // {
	RBrace    // }
	LBracket  // [
	RBracket  // ]
	Dot       // .
	opEnd
)

// Имена в трассировке; выравнивание под 10 колонок делает diagfmt.
var kindNames = [...]string{
	Invalid: "INVALID",
	EOF:     "EOF",
	Ident:   "ID",
	IntLit:  "NUM",

	KwIf:       "KW_IF",
	KwElse:     "KW_ELSE",
	KwWhile:    "KW_WHILE",
	KwFor:      "KW_FOR",
	KwReturn:   "KW_RETURN",
	KwInt:      "KW_INT",
	KwFloat:    "KW_FLOAT",
	KwVoid:     "KW_VOID",
	KwChar:     "KW_CHAR",
	KwBool:     "KW_BOOL",
	KwTrue:     "KW_TRUE",
	KwFalse:    "KW_FALSE",
	KwBreak:    "KW_BREAK",
	KwContinue: "KW_CONTINUE",

	Plus:    "MAS",
	Minus:   "MENOS",
	Star:    "MUL",
	Slash:   "DIV",
	Percent: "MOD",
	Lt:      "MEQ",
	Gt:      "MAQ",
	Assign:  "ES",
	Bang:    "NO",
	Colon:   "DPTS",

	LtEq:        "MEOI",
	GtEq:        "MAOI",
	EqEq:        "IGL",
	BangEq:      "DIS",
	PlusPlus:    "INC",
	MinusMinus:  "DEC",
	PlusAssign:  "MASIG",
	MinusAssign: "MENOSIG",
	StarAssign:  "MULIG",
	SlashAssign: "DIVIG",
	AndAnd:      "LAND",
	OrOr:        "LOR",

	Semicolon: "PYC",
	Comma:     "COMA",
	LParen:    "IPAREN",
	RParen:    "DPAREN",
	LBrace:    "ILLAVE",
	RBrace:    "DLLAVE",
	LBracket:  "ICOR",
	RBracket:  "DCOR",
	Dot:       "PUN",
}

// String returns the trace name of the kind, e.g. "KW_INT" or "MASIG".
func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "UNKNOWN"
}

// IsKeyword reports whether k is a reserved word.
func (k Kind) IsKeyword() bool { return k > kwBegin && k < kwEnd }

// IsPunctOrOp reports whether k is an operator or punctuation mark.
func (k Kind) IsPunctOrOp() bool { return k > opBegin && k < opEnd }

// IsLiteral reports whether k is a literal.
func (k Kind) IsLiteral() bool { return k == IntLit }

// IsEOF reports whether k terminates the stream.
func (k Kind) IsEOF() bool { return k == EOF }
