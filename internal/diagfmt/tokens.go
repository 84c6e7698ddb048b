package diagfmt

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"cscan/internal/source"
	"cscan/internal/token"
)

const (
	traceKindWidth   = 10
	traceLexemeWidth = 14
)

// FormatTokensTrace печатает по строке на токен:
//
//	KW_INT     'int'          @(1,1)
//	ID         'x'            @(1,5)  lid=0
//	NUM        '42'           @(1,9)  val=42
//	EOF        ''             @(1,12)
//
// Ширина лексемы считается в клетках терминала (go-runewidth).
func FormatTokensTrace(w io.Writer, tokens []token.Token) error {
	bw := bufio.NewWriter(w)
	for _, tok := range tokens {
		bw.WriteString(TraceLine(tok))
		bw.WriteByte('\n')
		if tok.Kind == token.EOF {
			break
		}
	}
	return bw.Flush()
}

// TraceLine форматирует один токен без перевода строки.
func TraceLine(tok token.Token) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-*s ", traceKindWidth, tok.Kind.String())

	lexeme := quoteLexeme(tok.Text)
	sb.WriteString(lexeme)
	if pad := traceLexemeWidth - runewidth.StringWidth(lexeme); pad > 0 {
		sb.WriteString(strings.Repeat(" ", pad))
	}

	fmt.Fprintf(&sb, " @(%d,%d)", tok.Pos.Line, tok.Pos.Col)
	switch {
	case tok.HasSlot():
		fmt.Fprintf(&sb, "  lid=%d", tok.Slot)
	case tok.HasValue():
		fmt.Fprintf(&sb, "  val=%d", tok.Value)
	}
	return sb.String()
}

// quoteLexeme оборачивает лексему в одинарные кавычки, экранируя ' и \.
func quoteLexeme(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('\'')
	for _, r := range s {
		if r == '\'' || r == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	sb.WriteByte('\'')
	return sb.String()
}

// FormatTokensPretty выводит токены в человекочитаемом формате
func FormatTokensPretty(w io.Writer, tokens []token.Token, fs *source.FileSet) error {
	bw := bufio.NewWriter(w)
	for i, tok := range tokens {
		_, endPos := fs.Resolve(tok.Span)

		// leading trivia
		var leading []string
		for _, trivia := range tok.Leading {
			leading = append(leading, trivia.Kind.String())
		}

		fmt.Fprintf(bw, "%3d: %-15s", i+1, tok.Kind.String())

		if tok.Text != "" {
			fmt.Fprintf(bw, " %q", tok.Text)
		}

		fmt.Fprintf(bw, " at %d:%d-%d:%d",
			tok.Pos.Line, tok.Pos.Col,
			endPos.Line, endPos.Col)

		switch {
		case tok.HasSlot():
			fmt.Fprintf(bw, " slot=%d", tok.Slot)
		case tok.HasValue():
			fmt.Fprintf(bw, " value=%d", tok.Value)
		}

		if len(leading) > 0 {
			fmt.Fprintf(bw, " (leading: %s)", strings.Join(leading, ", "))
		}

		fmt.Fprintln(bw)

		if tok.Kind == token.EOF {
			break
		}
	}
	return bw.Flush()
}

// TokenOutput is one token in the JSON dump.
type TokenOutput struct {
	Kind    string      `json:"kind"`
	Text    string      `json:"text,omitempty"`
	Line    uint32      `json:"line"`
	Col     uint32      `json:"col"`
	Span    source.Span `json:"span"`
	Value   *uint64     `json:"value,omitempty"`
	Slot    *uint32     `json:"slot,omitempty"`
	Leading []string    `json:"leading,omitempty"`
}

// TokensOutput is the JSON document for one scanned file.
type TokensOutput struct {
	File        string             `json:"file"`
	Tokens      []TokenOutput      `json:"tokens"`
	Idents      []string           `json:"idents"`
	Diagnostics *DiagnosticsOutput `json:"diagnostics,omitempty"`
	Error       string             `json:"error,omitempty"`
}

// BuildTokensOutput собирает JSON-представление токенов файла.
func BuildTokensOutput(path string, tokens []token.Token, idents []string) TokensOutput {
	out := TokensOutput{
		File:   path,
		Tokens: make([]TokenOutput, 0, len(tokens)),
		Idents: idents,
	}
	if out.Idents == nil {
		out.Idents = []string{}
	}

	for _, tok := range tokens {
		tokenOut := TokenOutput{
			Kind: tok.Kind.String(),
			Text: tok.Text,
			Line: tok.Pos.Line,
			Col:  tok.Pos.Col,
			Span: tok.Span,
		}
		if tok.HasValue() {
			v := tok.Value
			tokenOut.Value = &v
		}
		if tok.HasSlot() {
			s := uint32(tok.Slot)
			tokenOut.Slot = &s
		}
		for _, trivia := range tok.Leading {
			tokenOut.Leading = append(tokenOut.Leading, trivia.Kind.String())
		}

		out.Tokens = append(out.Tokens, tokenOut)

		if tok.Kind == token.EOF {
			break
		}
	}
	return out
}

// FormatTokensJSON выводит документы в JSON формате: один объект или массив.
func FormatTokensJSON(w io.Writer, docs ...TokensOutput) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if len(docs) == 1 {
		return encoder.Encode(docs[0])
	}
	return FormatTokensJSONList(w, docs)
}

// FormatTokensJSONList всегда пишет массив, даже для одного файла (режим --dir).
func FormatTokensJSONList(w io.Writer, docs []TokensOutput) error {
	if docs == nil {
		docs = []TokensOutput{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(docs)
}
