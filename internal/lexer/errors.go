package lexer

import (
	"fmt"

	"cscan/internal/source"
)

// Error is the fatal unrecognized-character condition. Scanning stops at
// the first one.
type Error struct {
	Char rune
	Pos  source.LineCol
	Span source.Span
}

func (e *Error) Error() string {
	return fmt.Sprintf("unexpected character %q at line %d, col %d", e.Char, e.Pos.Line, e.Pos.Col)
}
