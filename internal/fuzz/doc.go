// Package fuzztests houses Go fuzz harnesses for the scanner pipeline
// (source -> lexer). They smoke test robustness and check the token stream
// invariants on arbitrary inputs.
//
// Назначение: загрузить байты в FileSet и прогнать их через лексер.
//
// Не делает: генерацию корпусов, запись файлов, выполнение CLI.
//
// Зависимости: internal/source, internal/lexer, internal/diag, internal/token.

package fuzztests
