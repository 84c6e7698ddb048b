package lexer

import (
	"cscan/internal/source"
	"cscan/internal/token"
)

// Tokenize scans the whole file. On success the slice ends with EOF.
// On an unrecognized character it returns the tokens before it and *Error.
func Tokenize(file *source.File, opts Options) ([]token.Token, error) {
	lx := New(file, opts)
	tokens := make([]token.Token, 0, len(file.Content)/4+1)
	for tok := range lx.All() {
		tokens = append(tokens, tok)
	}
	if err := lx.Err(); err != nil {
		return tokens, err
	}
	return tokens, nil
}
