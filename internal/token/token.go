package token

import (
	"cscan/internal/ident"
	"cscan/internal/source"
)

// Token represents a single source token with its location, metadata and trivia.
type Token struct {
	Kind Kind
	Span source.Span
	Pos  source.LineCol
	Text string

	Value uint64     // только IntLit
	Slot  ident.Slot // только Ident

	Leading []Trivia
}

// HasValue reports whether Value carries the literal's numeric value.
func (t Token) HasValue() bool { return t.Kind == IntLit }

// HasSlot reports whether Slot carries an identifier table slot.
func (t Token) HasSlot() bool { return t.Kind == Ident }

// IsLiteral reports whether the token is a literal.
func (t Token) IsLiteral() bool { return t.Kind.IsLiteral() }

// IsPunctOrOp reports whether the token is a punctuation or operator.
func (t Token) IsPunctOrOp() bool { return t.Kind.IsPunctOrOp() }

// IsKeyword reports whether the token is a language keyword.
func (t Token) IsKeyword() bool { return t.Kind.IsKeyword() }

// IsIdent reports whether the token is an identifier.
func (t Token) IsIdent() bool { return t.Kind == Ident }
