package lexer

import (
	"cscan/internal/diag"
	"cscan/internal/ident"
)

type Options struct {
	// Reporter получает диагностики; может быть nil.
	Reporter diag.Reporter
	// Idents is the identifier table for this scan. Nil means a fresh table.
	Idents *ident.Table
	// KeepTrivia attaches whitespace and comments to the following token.
	KeepTrivia bool
}
