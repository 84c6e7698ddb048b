package lexer

import (
	"iter"

	"cscan/internal/diag"
	"cscan/internal/ident"
	"cscan/internal/source"
	"cscan/internal/token"
)

type Lexer struct {
	file   *source.File
	cursor Cursor
	opts   Options
	idents *ident.Table
	look   *token.Token   // 1 элементный буфер для токена
	hold   []token.Trivia // накопленные leading trivia
	err    *Error         // фатальная ошибка; после неё только EOF
}

func New(file *source.File, opts Options) *Lexer {
	idents := opts.Idents
	if idents == nil {
		idents = ident.NewTable()
	}
	return &Lexer{
		file:   file,
		cursor: NewCursor(file),
		opts:   opts,
		idents: idents,
	}
}

// Next возвращает следующий значимый токен.
// После EOF всегда возвращает EOF. Нераспознанный символ возвращается
// один раз как Invalid, затем лексер останавливается и отдаёт только EOF
// в позиции этого символа.
func (lx *Lexer) Next() token.Token {
	if lx.look != nil {
		tok := *lx.look
		lx.look = nil
		return tok
	}

	if lx.err != nil {
		return token.Token{
			Kind: token.EOF,
			Span: source.Span{File: lx.file.ID, Start: lx.err.Span.Start, End: lx.err.Span.Start},
			Pos:  lx.err.Pos,
		}
	}

	lx.collectLeadingTrivia()

	var tok token.Token
	if lx.cursor.EOF() {
		tok = token.Token{
			Kind: token.EOF,
			Span: lx.emptySpan(),
			Pos:  lx.cursor.Pos(),
		}
	} else {
		switch classify(lx.file.Content[lx.cursor.Off:lx.cursor.limit()]) {
		case classIdent:
			tok = lx.scanIdentOrKeyword()
		case classDigit:
			tok = lx.scanNumber()
		case classOperator:
			tok = lx.scanOperatorOrPunct()
		default:
			tok = lx.scanUnknown()
		}
	}

	if lx.opts.KeepTrivia && len(lx.hold) > 0 {
		tok.Leading = lx.hold
	}
	lx.hold = nil
	return tok
}

// Peek возвращает следующий токен, не потребляя его.
func (lx *Lexer) Peek() token.Token {
	t := lx.Next()
	lx.look = &t
	return t
}

// All yields tokens up to and including EOF. It stops without yielding
// when an unrecognized character is hit; check Err afterwards.
func (lx *Lexer) All() iter.Seq[token.Token] {
	return func(yield func(token.Token) bool) {
		for {
			tok := lx.Next()
			if tok.Kind == token.Invalid {
				return
			}
			if !yield(tok) || tok.Kind == token.EOF {
				return
			}
		}
	}
}

// Err returns the fatal error that stopped the scan, if any.
func (lx *Lexer) Err() error {
	if lx.err == nil {
		return nil
	}
	return lx.err
}

// Idents exposes the identifier table of this scan.
func (lx *Lexer) Idents() *ident.Table {
	return lx.idents
}

func (lx *Lexer) emptySpan() source.Span {
	return source.Span{File: lx.file.ID, Start: lx.cursor.Off, End: lx.cursor.Off}
}

func (lx *Lexer) emit(k token.Kind, start Mark) token.Token {
	sp := lx.cursor.SpanFrom(start)
	return token.Token{
		Kind: k,
		Span: sp,
		Pos:  start.Pos,
		Text: string(lx.file.Content[sp.Start:sp.End]),
	}
}

func (lx *Lexer) warn(code diag.Code, sp source.Span, msg string) {
	if lx.opts.Reporter != nil {
		diag.ReportWarning(lx.opts.Reporter, code, sp, msg).Emit()
	}
}

// scanUnknown съедает одну руну, фиксирует ошибку и останавливает лексер.
func (lx *Lexer) scanUnknown() token.Token {
	start := lx.cursor.Mark()
	r, _ := lx.peekRune()
	lx.bumpRune()
	return lx.fail(start, r)
}

func (lx *Lexer) fail(start Mark, r rune) token.Token {
	tok := lx.emit(token.Invalid, start)
	lx.err = &Error{Char: r, Pos: start.Pos, Span: tok.Span}
	if lx.opts.Reporter != nil {
		diag.ReportError(lx.opts.Reporter, diag.LexUnknownChar, tok.Span, lx.err.Error()).Emit()
	}
	return tok
}
