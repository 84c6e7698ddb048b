// Package ident assigns stable integer slots to identifier lexemes.
//
// A Table lives exactly as long as one scan: the lexer creates it empty and
// drops it together with itself. Slots are dense and start at 0.
package ident

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

// Slot is the stable identity of a distinct identifier within one scan.
type Slot uint32

type Table struct {
	bySlot []string        // слот -> лексема
	index  map[string]Slot // лексема -> слот
}

func NewTable() *Table {
	return &Table{
		bySlot: make([]string, 0, 16),
		index:  make(map[string]Slot, 16),
	}
}

// Resolve возвращает слот лексемы; новая лексема получает следующий свободный слот.
func (t *Table) Resolve(lexeme string) Slot {
	if slot, ok := t.index[lexeme]; ok {
		return slot
	}

	n, err := safecast.Conv[uint32](len(t.bySlot))
	if err != nil {
		panic(fmt.Errorf("identifier table overflow: %w", err))
	}
	// Своя копия, чтобы не держать исходный буфер файла.
	cpy := string([]byte(lexeme))
	slot := Slot(n)
	t.bySlot = append(t.bySlot, cpy)
	t.index[cpy] = slot
	return slot
}

// Lookup returns the lexeme assigned to slot.
func (t *Table) Lookup(slot Slot) (string, bool) {
	if int(slot) >= len(t.bySlot) {
		return "", false
	}
	return t.bySlot[slot], true
}

// Len is the number of distinct lexemes seen so far.
func (t *Table) Len() int {
	return len(t.bySlot)
}

// Snapshot returns the lexemes in slot order.
func (t *Table) Snapshot() []string {
	return slices.Clone(t.bySlot)
}
