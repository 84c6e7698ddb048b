package testkit

import (
	"fmt"
	"unicode/utf8"

	"fortio.org/safecast"

	"cscan/internal/ident"
	"cscan/internal/source"
	"cscan/internal/token"
)

// CheckTokenInvariants runs the token-stream invariants on a scan of sf:
// 1) every span points into sf, and only EOF may be empty
// 2) spans are ordered and never overlap
// 3) Text is exactly the source slice under Span
// 4) Pos agrees with sf.Position (valid UTF-8 only)
// 5) EOF, if present, is last and unique
// 6) identifiers map to table slots consistently
//
// idents may be nil to skip the table check. A stream cut short by an
// unrecognized character simply has no EOF.
func CheckTokenInvariants(tokens []token.Token, sf *source.File, idents *ident.Table) error {
	if sf == nil {
		return fmt.Errorf("nil file")
	}
	lenContent, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	checkPos := utf8.Valid(sf.Content)

	var prevEnd uint32
	slots := make(map[string]ident.Slot)
	for i, tok := range tokens {
		sp := tok.Span

		// 1) span sanity
		if sp.File != sf.ID {
			return fmt.Errorf("token %d: span file mismatch: got=%d want=%d", i, sp.File, sf.ID)
		}
		if sp.End < sp.Start || sp.End > lenContent {
			return fmt.Errorf("token %d: span %v out of bounds (len %d)", i, sp, lenContent)
		}
		if sp.Empty() && tok.Kind != token.EOF {
			return fmt.Errorf("token %d: empty span for %v", i, tok.Kind)
		}

		// 2) order
		if sp.Start < prevEnd {
			return fmt.Errorf("token %d: span %v overlaps previous end %d", i, sp, prevEnd)
		}
		prevEnd = sp.End

		// 3) text
		if got := string(sf.Content[sp.Start:sp.End]); got != tok.Text {
			return fmt.Errorf("token %d: text %q, source has %q", i, tok.Text, got)
		}

		// 4) position
		if checkPos {
			if want := sf.Position(sp.Start); want != tok.Pos {
				return fmt.Errorf("token %d (%q): pos %+v, file says %+v", i, tok.Text, tok.Pos, want)
			}
		}

		// 5) EOF
		if tok.Kind == token.EOF && i != len(tokens)-1 {
			return fmt.Errorf("EOF at %d is not the last of %d tokens", i, len(tokens))
		}

		// 6) slots
		if tok.Kind != token.Ident {
			continue
		}
		if prev, seen := slots[tok.Text]; seen && prev != tok.Slot {
			return fmt.Errorf("token %d: %q resolved to slots %d and %d", i, tok.Text, prev, tok.Slot)
		}
		slots[tok.Text] = tok.Slot
		if idents != nil {
			if lexeme, ok := idents.Lookup(tok.Slot); !ok || lexeme != tok.Text {
				return fmt.Errorf("token %d: slot %d holds %q, want %q", i, tok.Slot, lexeme, tok.Text)
			}
		}
	}

	if idents != nil && idents.Len() != len(slots) {
		return fmt.Errorf("table has %d entries, stream has %d distinct identifiers", idents.Len(), len(slots))
	}
	return nil
}
