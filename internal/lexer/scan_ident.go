package lexer

import (
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"cscan/internal/diag"
	"cscan/internal/token"
)

// scanIdentOrKeyword сканирует идентификатор и проверяет через LookupKeyword.
// Ключевые слова регистрозависимые. Token.Text: ровно исходный срез.
// Идентификатор получает слот из таблицы текущего сканирования.
func (lx *Lexer) scanIdentOrKeyword() token.Token {
	start := lx.cursor.Mark()
	ascii := true

	for {
		b := lx.cursor.Peek()
		if b < utf8.RuneSelf {
			if !isIdentContinueByte(b) {
				break
			}
			lx.cursor.Bump()
			continue
		}
		r, sz := lx.peekRune()
		if sz == 0 || !isIdentContinueRune(r) {
			break
		}
		ascii = false
		lx.bumpRune()
	}

	tok := lx.emit(token.Ident, start)

	if k, ok := token.LookupKeyword(tok.Text); ok {
		tok.Kind = k
		return tok
	}

	if !ascii && !norm.NFC.IsNormalString(tok.Text) {
		lx.warn(diag.LexIdentNotNormalized, tok.Span, "identifier is not in Unicode normal form C; it is interned as written")
	}
	tok.Slot = lx.idents.Resolve(tok.Text)
	return tok
}
