package lexer

import (
	"unicode"
	"unicode/utf8"
)

// ===== Работа с рунами поверх Cursor =====

// peekRune читает текущую руну без продвижения
func (lx *Lexer) peekRune() (r rune, size int) {
	if lx.cursor.EOF() {
		return utf8.RuneError, 0
	}
	b := lx.cursor.Peek()
	if b < utf8.RuneSelf { // fast-path ASCII
		return rune(b), 1
	}
	return utf8.DecodeRune(lx.file.Content[lx.cursor.Off:lx.cursor.limit()])
}

// bumpRune сдвигает курсор на размер текущей руны
func (lx *Lexer) bumpRune() {
	_, sz := lx.peekRune()
	for range sz {
		lx.cursor.Bump()
	}
}

// ===== Классификаторы =====

// ASCII fast-path для идентификаторов; Unicode: через isIdentStartRune/Continue.
func isIdentStartByte(b byte) bool {
	return b == '_' || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}
func isIdentContinueByte(b byte) bool {
	return isIdentStartByte(b) || isDec(b)
}
func isIdentStartRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

// Продолжение: буква или любая числовая руна (Nd/Nl/No). Комбинируемые
// знаки (Mn/Mc) сюда не входят: "e\u0301" обрывает идентификатор.
func isIdentContinueRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

func isDec(b byte) bool { return b >= '0' && b <= '9' }

// digitValue возвращает значение десятичной цифры (категория Nd).
// Цифры Nd всегда идут непрерывными блоками 0..9, поэтому значение:
// расстояние до начала блока по модулю 10.
func digitValue(r rune) byte {
	if r < utf8.RuneSelf {
		return byte(r - '0')
	}
	n := 0
	for unicode.IsDigit(r - rune(n) - 1) {
		n++
	}
	return byte(n % 10)
}

func isOperatorStartByte(b byte) bool {
	switch b {
	case '+', '-', '*', '/', '%', '<', '>', '=', '!', ':', '&', '|',
		';', ',', '(', ')', '{', '}', '[', ']', '.':
		return true
	}
	return false
}
