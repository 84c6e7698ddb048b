package lexer_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"cscan/internal/diag"
	"cscan/internal/ident"
	"cscan/internal/lexer"
	"cscan/internal/source"
	"cscan/internal/testkit"
	"cscan/internal/token"
)

// testReporter собирает все диагностики, полученные от лексера
type testReporter struct {
	diagnostics []diag.Diagnostic
}

func (r *testReporter) Report(code diag.Code, sev diag.Severity, primary source.Span, msg string, notes []diag.Note) {
	r.diagnostics = append(r.diagnostics, diag.Diagnostic{
		Severity: sev,
		Code:     code,
		Message:  msg,
		Primary:  primary,
		Notes:    notes,
	})
}

func (r *testReporter) codes() []diag.Code {
	out := make([]diag.Code, 0, len(r.diagnostics))
	for _, d := range r.diagnostics {
		out = append(out, d.Code)
	}
	return out
}

// makeTestLexer создаёт лексер для тестовой строки
func makeTestLexer(input string, opts lexer.Options) (*lexer.Lexer, *testReporter) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("test.c", []byte(input))
	file := fs.Get(fileID)

	reporter := &testReporter{}
	opts.Reporter = reporter
	return lexer.New(file, opts), reporter
}

// collectAllTokens собирает все токены до EOF (или до Invalid)
func collectAllTokens(lx *lexer.Lexer) []token.Token {
	tokens := make([]token.Token, 0)
	for {
		tok := lx.Next()
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF || tok.Kind == token.Invalid {
			break
		}
	}
	return tokens
}

// expectKinds проверяет последовательность видов токенов (без EOF)
func expectKinds(t *testing.T, input string, expected []token.Kind) []token.Token {
	t.Helper()
	lx, reporter := makeTestLexer(input, lexer.Options{})
	tokens := collectAllTokens(lx)

	if last := tokens[len(tokens)-1]; last.Kind != token.EOF {
		t.Fatalf("input %q: last token is %v, want EOF", input, last.Kind)
	}
	tokens = tokens[:len(tokens)-1]

	if len(tokens) != len(expected) {
		t.Fatalf("Expected %d tokens, got %d\nInput: %q\nTokens: %v\nDiagnostics: %v",
			len(expected), len(tokens), input, tokensToString(tokens), reporter.codes())
	}
	for i, tok := range tokens {
		if tok.Kind != expected[i] {
			t.Errorf("Token %d: expected %v, got %v (text: %q)", i, expected[i], tok.Kind, tok.Text)
		}
	}
	return tokens
}

func tokensToString(tokens []token.Token) string {
	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		parts[i] = fmt.Sprintf("%v(%q)", tok.Kind, tok.Text)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// ====== Сценарии ======

func TestScenario_Declaration(t *testing.T) {
	tokens := expectKinds(t, "int x = 42;", []token.Kind{
		token.KwInt, token.Ident, token.Assign, token.IntLit, token.Semicolon,
	})
	if tokens[1].Text != "x" || tokens[1].Slot != 0 {
		t.Errorf("x: text %q slot %d", tokens[1].Text, tokens[1].Slot)
	}
	if tokens[3].Value != 42 || tokens[3].Text != "42" {
		t.Errorf("42: text %q value %d", tokens[3].Text, tokens[3].Value)
	}
	if tokens[0].Text != "int" {
		t.Errorf("keyword lexeme = %q", tokens[0].Text)
	}
}

func TestScenario_SharedTableAcrossScans(t *testing.T) {
	table := ident.NewTable()

	fs := source.NewFileSet()
	first := fs.Get(fs.AddVirtual("a.c", []byte("int x = 42;")))
	second := fs.Get(fs.AddVirtual("b.c", []byte("x += 1;")))

	if _, err := lexer.Tokenize(first, lexer.Options{Idents: table}); err != nil {
		t.Fatalf("first scan: %v", err)
	}
	tokens, err := lexer.Tokenize(second, lexer.Options{Idents: table})
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}

	want := []token.Kind{token.Ident, token.PlusAssign, token.IntLit, token.Semicolon, token.EOF}
	if len(tokens) != len(want) {
		t.Fatalf("got %s", tokensToString(tokens))
	}
	for i, k := range want {
		if tokens[i].Kind != k {
			t.Fatalf("token %d = %v, want %v", i, tokens[i].Kind, k)
		}
	}
	if tokens[0].Slot != 0 {
		t.Errorf("x resolved to slot %d, want 0", tokens[0].Slot)
	}
	if tokens[1].Text != "+=" {
		t.Errorf("compound assign lexeme = %q", tokens[1].Text)
	}
}

func TestScenario_Condition(t *testing.T) {
	tokens := expectKinds(t, "if (x >= 10 && x != 13) { x++; }", []token.Kind{
		token.KwIf, token.LParen,
		token.Ident, token.GtEq, token.IntLit,
		token.AndAnd,
		token.Ident, token.BangEq, token.IntLit,
		token.RParen, token.LBrace,
		token.Ident, token.PlusPlus, token.Semicolon,
		token.RBrace,
	})
	for _, tok := range tokens {
		if tok.Kind == token.Ident && tok.Slot != 0 {
			t.Errorf("x at %v has slot %d", tok.Pos, tok.Slot)
		}
	}
}

func TestScenario_CommentAfterCode(t *testing.T) {
	tokens := expectKinds(t, "x = 1; // set x = 2;\ny", []token.Kind{
		token.Ident, token.Assign, token.IntLit, token.Semicolon, token.Ident,
	})
	if got := tokens[4].Pos; got != (source.LineCol{Line: 2, Col: 1}) {
		t.Errorf("y at %+v, want 2:1", got)
	}
}

// ====== Максимальный откус ======

func TestLongestMatch(t *testing.T) {
	tests := []struct {
		input string
		kinds []token.Kind
		texts []string
	}{
		{">=", []token.Kind{token.GtEq}, []string{">="}},
		{"<=", []token.Kind{token.LtEq}, []string{"<="}},
		{"==", []token.Kind{token.EqEq}, []string{"=="}},
		{"===", []token.Kind{token.EqEq, token.Assign}, []string{"==", "="}},
		{"+++", []token.Kind{token.PlusPlus, token.Plus}, []string{"++", "+"}},
		{"++=", []token.Kind{token.PlusPlus, token.Assign}, []string{"++", "="}},
		{"+ =", []token.Kind{token.Plus, token.Assign}, []string{"+", "="}},
		{"---", []token.Kind{token.MinusMinus, token.Minus}, []string{"--", "-"}},
		{"-=", []token.Kind{token.MinusAssign}, []string{"-="}},
		{"*=", []token.Kind{token.StarAssign}, []string{"*="}},
		{"/=", []token.Kind{token.SlashAssign}, []string{"/="}},
		{"!=", []token.Kind{token.BangEq}, []string{"!="}},
		{"!", []token.Kind{token.Bang}, []string{"!"}},
		{"!!", []token.Kind{token.Bang, token.Bang}, []string{"!", "!"}},
		{"&&&&", []token.Kind{token.AndAnd, token.AndAnd}, []string{"&&", "&&"}},
		{"||", []token.Kind{token.OrOr}, []string{"||"}},
		{"<>", []token.Kind{token.Lt, token.Gt}, []string{"<", ">"}},
		{"x<", []token.Kind{token.Ident, token.Lt}, []string{"x", "<"}},
		{"+-=", []token.Kind{token.Plus, token.MinusAssign}, []string{"+", "-="}},
		{"a/b", []token.Kind{token.Ident, token.Slash, token.Ident}, []string{"a", "/", "b"}},
		{"()", []token.Kind{token.LParen, token.RParen}, []string{"(", ")"}},
		{"{}", []token.Kind{token.LBrace, token.RBrace}, []string{"{", "}"}},
		{"[0].x", []token.Kind{token.LBracket, token.IntLit, token.RBracket, token.Dot, token.Ident}, []string{"[", "0", "]", ".", "x"}},
		{"a:b,c%d", []token.Kind{token.Ident, token.Colon, token.Ident, token.Comma, token.Ident, token.Percent, token.Ident}, []string{"a", ":", "b", ",", "c", "%", "d"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens := expectKinds(t, tt.input, tt.kinds)
			for i, tok := range tokens {
				if tok.Text != tt.texts[i] {
					t.Errorf("token %d text = %q, want %q", i, tok.Text, tt.texts[i])
				}
			}
		})
	}
}

// ====== Идентификаторы и ключевые слова ======

func TestIdentifiersAndKeywords(t *testing.T) {
	tests := []struct {
		input string
		kind  token.Kind
	}{
		{"foo", token.Ident},
		{"_", token.Ident},
		{"__init", token.Ident},
		{"x1_y2", token.Ident},
		{"iff", token.Ident},
		{"If", token.Ident},
		{"integer", token.Ident},
		{"имя", token.Ident},
		{"if", token.KwIf},
		{"else", token.KwElse},
		{"while", token.KwWhile},
		{"for", token.KwFor},
		{"return", token.KwReturn},
		{"int", token.KwInt},
		{"float", token.KwFloat},
		{"void", token.KwVoid},
		{"char", token.KwChar},
		{"bool", token.KwBool},
		{"true", token.KwTrue},
		{"false", token.KwFalse},
		{"break", token.KwBreak},
		{"continue", token.KwContinue},
	}
	for _, tt := range tests {
		tokens := expectKinds(t, tt.input, []token.Kind{tt.kind})
		if tokens[0].Text != tt.input {
			t.Errorf("%q: text = %q", tt.input, tokens[0].Text)
		}
		if tokens[0].HasSlot() != (tt.kind == token.Ident) {
			t.Errorf("%q: HasSlot = %v", tt.input, tokens[0].HasSlot())
		}
	}
}

func TestIdentifierSlots(t *testing.T) {
	tokens := expectKinds(t, "a b a c b d int a", []token.Kind{
		token.Ident, token.Ident, token.Ident, token.Ident, token.Ident, token.Ident, token.KwInt, token.Ident,
	})
	want := []ident.Slot{0, 1, 0, 2, 1, 3}
	for i, w := range want {
		if tokens[i].Slot != w {
			t.Errorf("%s at %d: slot %d, want %d", tokens[i].Text, i, tokens[i].Slot, w)
		}
	}
	if tokens[7].Slot != 0 {
		t.Errorf("keywords must not consume slots: last a has slot %d", tokens[7].Slot)
	}
}

func TestFreshTablePerLexer(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("t.c", []byte("p q")))

	for range 2 {
		tokens, err := lexer.Tokenize(file, lexer.Options{})
		if err != nil {
			t.Fatal(err)
		}
		if tokens[0].Slot != 0 || tokens[1].Slot != 1 {
			t.Fatalf("slots leaked between scans: %d %d", tokens[0].Slot, tokens[1].Slot)
		}
	}
}

func TestIdentNotNormalizedWarning(t *testing.T) {
	tests := []struct {
		name  string
		ident string
	}{
		{"ohm sign", "\u2126m"},
		{"angstrom sign", "x\u212B"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lx, rep := makeTestLexer(tt.ident+" = 1;", lexer.Options{})
			tokens := collectAllTokens(lx)
			if tokens[0].Kind != token.Ident || tokens[0].Text != tt.ident {
				t.Fatalf("first token = %v %q", tokens[0].Kind, tokens[0].Text)
			}
			if len(rep.diagnostics) != 1 || rep.diagnostics[0].Code != diag.LexIdentNotNormalized {
				t.Fatalf("diagnostics = %v", rep.codes())
			}
			if rep.diagnostics[0].Severity != diag.SevWarning {
				t.Fatalf("severity = %v", rep.diagnostics[0].Severity)
			}
			if lx.Err() != nil {
				t.Fatalf("warning must not stop the scan")
			}
			if tokens[1].Kind != token.Assign {
				t.Fatalf("second token = %v", tokens[1].Kind)
			}
		})
	}
}

func TestCombiningMarkEndsIdentifier(t *testing.T) {
	lx, rep := makeTestLexer("e\u0301x;", lexer.Options{})
	tokens := collectAllTokens(lx)
	if len(tokens) != 2 || tokens[0].Kind != token.Ident || tokens[0].Text != "e" {
		t.Fatalf("tokens = %s", tokensToString(tokens))
	}
	var lexErr *lexer.Error
	if !errors.As(lx.Err(), &lexErr) || lexErr.Char != '\u0301' {
		t.Fatalf("Err() = %v", lx.Err())
	}
	if lexErr.Pos != (source.LineCol{Line: 1, Col: 2}) {
		t.Fatalf("error at %+v", lexErr.Pos)
	}
	if len(rep.diagnostics) != 1 || rep.diagnostics[0].Code != diag.LexUnknownChar {
		t.Fatalf("diagnostics = %v", rep.codes())
	}
}

func TestUnicodeNumericInIdentifier(t *testing.T) {
	tokens := expectKinds(t, "x² y٣", []token.Kind{token.Ident, token.Ident})
	if tokens[0].Text != "x²" || tokens[1].Text != "y٣" {
		t.Fatalf("got %s", tokensToString(tokens))
	}
}

func TestNormalizedUnicodeIdentHasNoWarning(t *testing.T) {
	lx, rep := makeTestLexer("caf\u00e9 + π", lexer.Options{})
	collectAllTokens(lx)
	if len(rep.diagnostics) != 0 {
		t.Fatalf("diagnostics = %v", rep.codes())
	}
}

// ====== Числа ======

func TestNumbers(t *testing.T) {
	tests := []struct {
		input string
		value uint64
	}{
		{"0", 0},
		{"7", 7},
		{"007", 7},
		{"1234567890", 1234567890},
		{"18446744073709551615", 18446744073709551615},
	}
	for _, tt := range tests {
		tokens := expectKinds(t, tt.input, []token.Kind{token.IntLit})
		if tokens[0].Value != tt.value || tokens[0].Text != tt.input {
			t.Errorf("%q: value %d text %q", tt.input, tokens[0].Value, tokens[0].Text)
		}
		if !tokens[0].HasValue() {
			t.Errorf("%q: HasValue = false", tt.input)
		}
	}
}

func TestUnicodeDigits(t *testing.T) {
	tests := []struct {
		input string
		value uint64
	}{
		{"٣", 3},
		{"١٢٣", 123},
		{"1٢3", 123},
		{"７", 7},
		{"\U0001D7D7", 9}, // MATHEMATICAL BOLD DIGIT NINE
		{"\u0967\u0966", 10},
	}
	for _, tt := range tests {
		tokens := expectKinds(t, tt.input, []token.Kind{token.IntLit})
		if tokens[0].Value != tt.value || tokens[0].Text != tt.input {
			t.Errorf("%q: value %d text %q", tt.input, tokens[0].Value, tokens[0].Text)
		}
	}
	tokens := expectKinds(t, "٣x", []token.Kind{token.IntLit, token.Ident})
	if tokens[0].Value != 3 || tokens[1].Pos.Col != 2 {
		t.Fatalf("got %s at col %d", tokensToString(tokens), tokens[1].Pos.Col)
	}
}

func TestNumberFollowedByLetters(t *testing.T) {
	tokens := expectKinds(t, "12abc", []token.Kind{token.IntLit, token.Ident})
	if tokens[0].Value != 12 || tokens[1].Text != "abc" {
		t.Fatalf("got %s", tokensToString(tokens))
	}
}

func TestNumberOverflowClamps(t *testing.T) {
	lx, rep := makeTestLexer("99999999999999999999;", lexer.Options{})
	tokens := collectAllTokens(lx)
	if tokens[0].Kind != token.IntLit || tokens[0].Value != ^uint64(0) {
		t.Fatalf("got %v value %d", tokens[0].Kind, tokens[0].Value)
	}
	if len(rep.diagnostics) != 1 || rep.diagnostics[0].Code != diag.LexNumberOverflow {
		t.Fatalf("diagnostics = %v", rep.codes())
	}
	if tokens[1].Kind != token.Semicolon {
		t.Fatalf("scan must continue after overflow, got %v", tokens[1].Kind)
	}
}

// ====== Позиции ======

func TestPositions(t *testing.T) {
	input := "int a;\n\tb = 10;\n\n  // note\nreturn π;"
	tokens := expectKinds(t, input, []token.Kind{
		token.KwInt, token.Ident, token.Semicolon,
		token.Ident, token.Assign, token.IntLit, token.Semicolon,
		token.KwReturn, token.Ident, token.Semicolon,
	})
	want := []source.LineCol{
		{Line: 1, Col: 1}, {Line: 1, Col: 5}, {Line: 1, Col: 6},
		{Line: 2, Col: 2}, {Line: 2, Col: 4}, {Line: 2, Col: 6}, {Line: 2, Col: 8},
		{Line: 5, Col: 1}, {Line: 5, Col: 8}, {Line: 5, Col: 9},
	}
	for i, w := range want {
		if tokens[i].Pos != w {
			t.Errorf("token %d %q at %+v, want %+v", i, tokens[i].Text, tokens[i].Pos, w)
		}
	}
}

func TestPositionAfterNewline(t *testing.T) {
	tokens := expectKinds(t, "\nx", []token.Kind{token.Ident})
	if tokens[0].Pos != (source.LineCol{Line: 2, Col: 1}) {
		t.Fatalf("x at %+v, want 2:1", tokens[0].Pos)
	}
}

func TestPositionsMatchFileSetResolve(t *testing.T) {
	input := "añb = 1;\n  ñ2 += c;"
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("r.c", []byte(input)))
	tokens, err := lexer.Tokenize(file, lexer.Options{})
	if err != nil {
		t.Fatal(err)
	}
	for _, tok := range tokens {
		start, _ := fs.Resolve(tok.Span)
		if start != tok.Pos {
			t.Errorf("%q: cursor pos %+v, resolved %+v", tok.Text, tok.Pos, start)
		}
	}
}

func TestEOFPosition(t *testing.T) {
	tests := []struct {
		input string
		want  source.LineCol
	}{
		{"", source.LineCol{Line: 1, Col: 1}},
		{"ab", source.LineCol{Line: 1, Col: 3}},
		{"a\n", source.LineCol{Line: 2, Col: 1}},
		{"a // c", source.LineCol{Line: 1, Col: 7}},
	}
	for _, tt := range tests {
		lx, _ := makeTestLexer(tt.input, lexer.Options{})
		tokens := collectAllTokens(lx)
		eof := tokens[len(tokens)-1]
		if eof.Kind != token.EOF || eof.Text != "" || eof.Pos != tt.want {
			t.Errorf("%q: EOF = %v %q at %+v, want %+v", tt.input, eof.Kind, eof.Text, eof.Pos, tt.want)
		}
	}
}

// ====== Пробелы и комментарии ======

func TestWhitespaceAndComments(t *testing.T) {
	expectKinds(t, "", nil)
	expectKinds(t, " \t\r\n\n", nil)
	expectKinds(t, "// only a comment", nil)
	expectKinds(t, "// a\n// b\n", nil)
	expectKinds(t, "a//b\nc", []token.Kind{token.Ident, token.Ident})
	expectKinds(t, "a / / b", []token.Kind{token.Ident, token.Slash, token.Slash, token.Ident})
	expectKinds(t, "x = 1;\r\ny = 2;", []token.Kind{
		token.Ident, token.Assign, token.IntLit, token.Semicolon,
		token.Ident, token.Assign, token.IntLit, token.Semicolon,
	})
}

// ====== Инварианты потока ======

func TestSingleTrailingEOF(t *testing.T) {
	inputs := []string{"", "x", "int main() { return 0; }", "a\n\n// c\n"}
	for _, in := range inputs {
		lx, _ := makeTestLexer(in, lexer.Options{})
		tokens := collectAllTokens(lx)
		for i, tok := range tokens {
			isLast := i == len(tokens)-1
			if (tok.Kind == token.EOF) != isLast {
				t.Fatalf("%q: EOF at index %d of %d", in, i, len(tokens))
			}
		}
		// повторный вызов после EOF снова даёт EOF
		if again := lx.Next(); again.Kind != token.EOF {
			t.Fatalf("%q: Next after EOF = %v", in, again.Kind)
		}
	}
}

func TestOrderAndNoOverlap(t *testing.T) {
	input := "for (i = 0; i <= 10; i++) { s += i * 2; } // done\nreturn s;"
	lx, _ := makeTestLexer(input, lexer.Options{})
	tokens := collectAllTokens(lx)
	for i := 1; i < len(tokens); i++ {
		prev, cur := tokens[i-1], tokens[i]
		if prev.Span.End > cur.Span.Start {
			t.Fatalf("tokens %d and %d overlap: %v %v", i-1, i, prev.Span, cur.Span)
		}
		if cur.Pos.Line < prev.Pos.Line || (cur.Pos.Line == prev.Pos.Line && cur.Pos.Col <= prev.Pos.Col && cur.Kind != token.EOF) {
			t.Fatalf("position order broken at %d: %+v then %+v", i, prev.Pos, cur.Pos)
		}
		if string([]byte(input)[cur.Span.Start:cur.Span.End]) != cur.Text {
			t.Fatalf("text/span mismatch for %q", cur.Text)
		}
	}
}

func stripTrivia(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == ' ' || s[i] == '\t' || s[i] == '\r' || s[i] == '\n':
		case s[i] == '/' && i+1 < len(s) && s[i+1] == '/':
			for i < len(s) && s[i] != '\n' {
				i++
			}
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func TestLexemeRoundTrip(t *testing.T) {
	inputs := []string{
		"int x = 42;",
		"if (x >= 10 && x != 13) { x++; } // tail\nelse { x -= 1; }",
		"while(a<b){a=a*2;b/=3;}",
		"  bool ok = !done || flag ; \n\t// c1\n// c2\nreturn ok;",
	}
	for _, in := range inputs {
		fs := source.NewFileSet()
		file := fs.Get(fs.AddVirtual("rt.c", []byte(in)))
		tokens, err := lexer.Tokenize(file, lexer.Options{})
		if err != nil {
			t.Fatalf("%q: %v", in, err)
		}
		var b strings.Builder
		for _, tok := range tokens {
			b.WriteString(tok.Text)
		}
		if got, want := b.String(), stripTrivia(in); got != want {
			t.Errorf("round trip mismatch:\n got %q\nwant %q", got, want)
		}
	}
}

func TestKeepTriviaExactRoundTrip(t *testing.T) {
	in := "int a; // one\n\n\tb  = a+1;\r\n// end\n"
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("kt.c", []byte(in)))
	tokens, err := lexer.Tokenize(file, lexer.Options{KeepTrivia: true})
	if err != nil {
		t.Fatal(err)
	}

	var b strings.Builder
	for _, tok := range tokens {
		for _, tv := range tok.Leading {
			b.WriteString(tv.Text)
		}
		b.WriteString(tok.Text)
	}
	if b.String() != in {
		t.Fatalf("trivia round trip:\n got %q\nwant %q", b.String(), in)
	}

	// "b" предваряется: Space, LineComment, Newline, Space
	b1 := tokens[3]
	if b1.Text != "b" {
		t.Fatalf("token 3 = %q", b1.Text)
	}
	wantKinds := []token.TriviaKind{token.TriviaSpace, token.TriviaLineComment, token.TriviaNewline, token.TriviaSpace}
	if len(b1.Leading) != len(wantKinds) {
		t.Fatalf("leading of b = %+v", b1.Leading)
	}
	for i, k := range wantKinds {
		if b1.Leading[i].Kind != k {
			t.Errorf("leading[%d] = %v, want %v", i, b1.Leading[i].Kind, k)
		}
	}
}

func TestNoTriviaByDefault(t *testing.T) {
	lx, _ := makeTestLexer(" a // c\n b", lexer.Options{})
	for _, tok := range collectAllTokens(lx) {
		if tok.Leading != nil {
			t.Fatalf("%q carries trivia without KeepTrivia", tok.Text)
		}
	}
}

// ====== Нераспознанный символ: фатальная политика ======

func TestUnknownCharIsFatal(t *testing.T) {
	lx, rep := makeTestLexer("int a = 1;\nb = a # 2;\nc = 3;", lexer.Options{})
	tokens := collectAllTokens(lx)

	bad := tokens[len(tokens)-1]
	if bad.Kind != token.Invalid || bad.Text != "#" {
		t.Fatalf("last token = %v %q, want Invalid '#'", bad.Kind, bad.Text)
	}
	if bad.Pos != (source.LineCol{Line: 2, Col: 7}) {
		t.Fatalf("invalid token at %+v", bad.Pos)
	}

	var lexErr *lexer.Error
	if !errors.As(lx.Err(), &lexErr) {
		t.Fatalf("Err() = %v, want *lexer.Error", lx.Err())
	}
	if lexErr.Char != '#' || lexErr.Pos != bad.Pos {
		t.Fatalf("error = %+v", lexErr)
	}
	if got := lexErr.Error(); got != "unexpected character '#' at line 2, col 7" {
		t.Fatalf("message = %q", got)
	}

	if len(rep.diagnostics) != 1 || rep.diagnostics[0].Code != diag.LexUnknownChar || rep.diagnostics[0].Severity != diag.SevError {
		t.Fatalf("diagnostics = %+v", rep.diagnostics)
	}

	// после ошибки: только EOF в позиции символа
	for range 3 {
		next := lx.Next()
		if next.Kind != token.EOF || next.Pos != bad.Pos {
			t.Fatalf("after failure got %v at %+v", next.Kind, next.Pos)
		}
	}
}

func TestUnknownCharacters(t *testing.T) {
	tests := []struct {
		input string
		char  rune
	}{
		{"&", '&'},
		{"a & b", '&'},
		{"|", '|'},
		{"@", '@'},
		{"$x", '$'},
		{"'c'", '\''},
		{"\"s\"", '"'},
		{"x ≠ y", '≠'},
		{"e\u0301", '\u0301'},
		{"²", '²'},
		{"\x00", 0},
	}
	for _, tt := range tests {
		fs := source.NewFileSet()
		file := fs.Get(fs.AddVirtual("u.c", []byte(tt.input)))
		tokens, err := lexer.Tokenize(file, lexer.Options{})
		var lexErr *lexer.Error
		if !errors.As(err, &lexErr) {
			t.Fatalf("%q: err = %v", tt.input, err)
		}
		if lexErr.Char != tt.char {
			t.Errorf("%q: char = %q, want %q", tt.input, lexErr.Char, tt.char)
		}
		for _, tok := range tokens {
			if tok.Kind == token.Invalid || tok.Kind == token.EOF {
				t.Errorf("%q: Tokenize returned %v on failure", tt.input, tok.Kind)
			}
		}
	}
}

func TestUnknownMultibyteCharSpan(t *testing.T) {
	lx, _ := makeTestLexer("a€b", lexer.Options{})
	tokens := collectAllTokens(lx)
	bad := tokens[1]
	if bad.Kind != token.Invalid || bad.Text != "€" || bad.Span.Len() != 3 {
		t.Fatalf("got %v %q span %v", bad.Kind, bad.Text, bad.Span)
	}
	if bad.Pos.Col != 2 {
		t.Fatalf("col = %d, want 2", bad.Pos.Col)
	}
}

// ====== Peek / All ======

func TestPeekDoesNotConsume(t *testing.T) {
	lx, _ := makeTestLexer("a += 1", lexer.Options{})
	p := lx.Peek()
	n := lx.Next()
	if p.Kind != token.Ident || n.Kind != token.Ident || p.Slot != n.Slot {
		t.Fatalf("peek %v / next %v", p.Kind, n.Kind)
	}
	if lx.Next().Kind != token.PlusAssign {
		t.Fatalf("expected += after peeked ident")
	}
}

func TestAllStopsEarly(t *testing.T) {
	lx, _ := makeTestLexer("a b c d", lexer.Options{})
	count := 0
	for range lx.All() {
		count++
		if count == 2 {
			break
		}
	}
	if next := lx.Next(); next.Text != "c" {
		t.Fatalf("All consumed past break: next = %q", next.Text)
	}
}

func TestIdentsExposed(t *testing.T) {
	lx, _ := makeTestLexer("alpha beta alpha", lexer.Options{})
	collectAllTokens(lx)
	if got := lx.Idents().Snapshot(); len(got) != 2 || got[0] != "alpha" || got[1] != "beta" {
		t.Fatalf("Snapshot() = %v", got)
	}
}

func TestStreamInvariants(t *testing.T) {
	inputs := []string{
		"",
		"int x = 42;",
		"if (x >= 10 && x != 13) { x++; }\n",
		"a\r\nb // tail\n/* block\n */ c += a;",
		"œuf = π * r * r; // ünïcödé",
		"while (i<=n) { s -= arr[i].v; i--; }",
		"int b = a # 2;",
	}
	for _, input := range inputs {
		for _, trivia := range []bool{false, true} {
			t.Run(fmt.Sprintf("%q/trivia=%v", input, trivia), func(t *testing.T) {
				fs := source.NewFileSet()
				file := fs.Get(fs.AddVirtual("inv.c", []byte(input)))
				idents := ident.NewTable()
				tokens, _ := lexer.Tokenize(file, lexer.Options{Idents: idents, KeepTrivia: trivia})
				if err := testkit.CheckTokenInvariants(tokens, file, idents); err != nil {
					t.Fatal(err)
				}
			})
		}
	}
}
