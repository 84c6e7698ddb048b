// Package token defines lexical token kinds and trivia for the cscan scanner.
// Invariants:
//   - Token.Text is exactly the source bytes covered by Token.Span.
//   - Token.Pos is the position of the first character of Text.
//   - Value is set only for IntLit, Slot only for Ident.
//   - The category set is closed: the lexer never invents kinds at runtime.
//   - Comments and whitespace never appear in the main token stream; they
//     are kept as leading Trivia only when the lexer is asked to.
package token
