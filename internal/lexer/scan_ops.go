package lexer

import (
	"cscan/internal/token"
)

// Жадность: после первого байта пробуем второй через Eat, иначе
// односимвольный оператор или пунктуация. Одного байта просмотра достаточно.
func (lx *Lexer) scanOperatorOrPunct() token.Token {
	start := lx.cursor.Mark()
	c := &lx.cursor

	ch := c.Bump()
	switch ch {
	case '<':
		if c.Eat('=') {
			return lx.emit(token.LtEq, start)
		}
		return lx.emit(token.Lt, start)
	case '>':
		if c.Eat('=') {
			return lx.emit(token.GtEq, start)
		}
		return lx.emit(token.Gt, start)
	case '=':
		if c.Eat('=') {
			return lx.emit(token.EqEq, start)
		}
		return lx.emit(token.Assign, start)
	case '!':
		if c.Eat('=') {
			return lx.emit(token.BangEq, start)
		}
		return lx.emit(token.Bang, start)
	case '+':
		switch {
		case c.Eat('+'):
			return lx.emit(token.PlusPlus, start)
		case c.Eat('='):
			return lx.emit(token.PlusAssign, start)
		}
		return lx.emit(token.Plus, start)
	case '-':
		switch {
		case c.Eat('-'):
			return lx.emit(token.MinusMinus, start)
		case c.Eat('='):
			return lx.emit(token.MinusAssign, start)
		}
		return lx.emit(token.Minus, start)
	case '*':
		if c.Eat('=') {
			return lx.emit(token.StarAssign, start)
		}
		return lx.emit(token.Star, start)
	case '/':
		if c.Eat('=') {
			return lx.emit(token.SlashAssign, start)
		}
		return lx.emit(token.Slash, start)
	case '&':
		if c.Eat('&') {
			return lx.emit(token.AndAnd, start)
		}
	case '|':
		if c.Eat('|') {
			return lx.emit(token.OrOr, start)
		}
	case '%':
		return lx.emit(token.Percent, start)
	case ':':
		return lx.emit(token.Colon, start)
	case ';':
		return lx.emit(token.Semicolon, start)
	case ',':
		return lx.emit(token.Comma, start)
	case '(':
		return lx.emit(token.LParen, start)
	case ')':
		return lx.emit(token.RParen, start)
	case '{':
		return lx.emit(token.LBrace, start)
	case '}':
		return lx.emit(token.RBrace, start)
	case '[':
		return lx.emit(token.LBracket, start)
	case ']':
		return lx.emit(token.RBracket, start)
	case '.':
		return lx.emit(token.Dot, start)
	}
	// одиночные '&' и '|' и всё прочее
	return lx.fail(start, rune(ch))
}
