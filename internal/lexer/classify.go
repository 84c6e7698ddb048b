package lexer

import (
	"unicode"
	"unicode/utf8"
)

// charClass is the branch taken on the first character of a token.
type charClass uint8

const (
	classUnknown charClass = iota
	classIdent
	classDigit
	classOperator
)

func (c charClass) String() string {
	switch c {
	case classIdent:
		return "ident"
	case classDigit:
		return "digit"
	case classOperator:
		return "operator"
	default:
		return "unknown"
	}
}

// classify смотрит на первый символ токена. Для не-ASCII декодирует руну:
// буква Unicode начинает идентификатор, цифра Nd начинает число,
// всё остальное: ошибка.
func classify(src []byte) charClass {
	if len(src) == 0 {
		return classUnknown
	}
	b := src[0]
	switch {
	case isIdentStartByte(b):
		return classIdent
	case isDec(b):
		return classDigit
	case isOperatorStartByte(b):
		return classOperator
	case b >= utf8.RuneSelf:
		r, _ := utf8.DecodeRune(src)
		switch {
		case isIdentStartRune(r):
			return classIdent
		case unicode.IsDigit(r):
			return classDigit
		}
	}
	return classUnknown
}
