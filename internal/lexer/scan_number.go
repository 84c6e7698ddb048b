package lexer

import (
	"errors"
	"math"
	"strconv"
	"unicode"
	"unicode/utf8"

	"cscan/internal/diag"
	"cscan/internal/token"
)

// Только десятичные целые: цифры Nd подряд ('٣', '７' тоже). Знака, дробей
// и экспоненты нет. Значение больше MaxUint64 насыщается, с предупреждением.
func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()
	var digits []byte
	for !lx.cursor.EOF() {
		if b := lx.cursor.Peek(); b < utf8.RuneSelf {
			if !isDec(b) {
				break
			}
			digits = append(digits, b)
			lx.cursor.Bump()
			continue
		}
		r, sz := lx.peekRune()
		if sz == 0 || !unicode.IsDigit(r) {
			break
		}
		digits = append(digits, '0'+digitValue(r))
		lx.bumpRune()
	}

	tok := lx.emit(token.IntLit, start)
	v, err := strconv.ParseUint(string(digits), 10, 64)
	if errors.Is(err, strconv.ErrRange) {
		v = math.MaxUint64
		lx.warn(diag.LexNumberOverflow, tok.Span, "integer literal overflows 64 bits; value clamped to 18446744073709551615")
	}
	tok.Value = v
	return tok
}
