package token

var keywords = map[string]Kind{
	"if":       KwIf,
	"else":     KwElse,
	"while":    KwWhile,
	"for":      KwFor,
	"return":   KwReturn,
	"int":      KwInt,
	"float":    KwFloat,
	"void":     KwVoid,
	"char":     KwChar,
	"bool":     KwBool,
	"true":     KwTrue,
	"false":    KwFalse,
	"break":    KwBreak,
	"continue": KwContinue,
}

// LookupKeyword возвращает тип и bool если это ключевое слово.
// Ключевые слова регистрозависимые: только lowercase версии распознаются.
func LookupKeyword(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}
