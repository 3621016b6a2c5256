// Package codeentry models a fixed-length one-time-code spread across
// single-digit cells: focus routing, paste distribution, and completion
// detection. The buffer emits the assembled code exactly once per
// transition to the full state, so downstream verification is never
// triggered twice by no-op edits.
package codeentry

import "fmt"

// Direction of an arrow-key focus move.
type Direction int

const (
	Left  Direction = -1
	Right Direction = 1
)

// Buffer holds the cells of one code entry session. It is exclusively owned
// by the screen that created it and carries no locking.
type Buffer struct {
	cells      []byte // 0 means empty, otherwise '0'-'9'
	focus      int
	fired      bool
	onComplete func(code string)
}

// New builds a buffer of the given length. The completion callback receives
// the assembled code when the last empty cell is filled.
func New(length int, onComplete func(code string)) (*Buffer, error) {
	if length <= 0 {
		return nil, fmt.Errorf("code length must be positive, got %d", length)
	}
	return &Buffer{
		cells:      make([]byte, length),
		onComplete: onComplete,
	}, nil
}

// Len returns the fixed cell count.
func (b *Buffer) Len() int {
	return len(b.cells)
}

// Focus returns the index of the focused cell.
func (b *Buffer) Focus() int {
	return b.focus
}

// Code returns the concatenation of all non-empty cells.
func (b *Buffer) Code() string {
	out := make([]byte, 0, len(b.cells))
	for _, c := range b.cells {
		if c != 0 {
			out = append(out, c)
		}
	}
	return string(out)
}

// Full reports whether every cell holds a digit.
func (b *Buffer) Full() bool {
	for _, c := range b.cells {
		if c == 0 {
			return false
		}
	}
	return true
}

// Cell returns the digit at index as a string, empty when unset.
func (b *Buffer) Cell(index int) string {
	if index < 0 || index >= len(b.cells) || b.cells[index] == 0 {
		return ""
	}
	return string(b.cells[index])
}

// Digit handles input into one cell. Only a single digit 0-9 is accepted.
// Clearing an already-empty cell is a no-op so downstream state never
// recomputes spuriously. A successful write moves focus right unless the
// cell is the last one.
func (b *Buffer) Digit(cell int, input string) {
	if cell < 0 || cell >= len(b.cells) {
		return
	}
	if input == "" {
		if b.cells[cell] == 0 {
			return
		}
		b.cells[cell] = 0
		b.checkComplete()
		return
	}
	if len(input) != 1 || input[0] < '0' || input[0] > '9' {
		return
	}
	b.cells[cell] = input[0]
	if cell < len(b.cells)-1 {
		b.focus = cell + 1
	} else {
		b.focus = cell
	}
	b.checkComplete()
}

// Backspace implements delete-merges-backward: on an empty cell it clears
// the previous cell and moves focus there; on a non-empty cell it clears
// only that cell.
func (b *Buffer) Backspace(cell int) {
	if cell < 0 || cell >= len(b.cells) {
		return
	}
	if b.cells[cell] == 0 && cell > 0 {
		b.cells[cell-1] = 0
		b.focus = cell - 1
	} else {
		b.cells[cell] = 0
		b.focus = cell
	}
	b.checkComplete()
}

// Arrow moves focus one cell in the given direction when in range. Content
// is never mutated.
func (b *Buffer) Arrow(cell int, dir Direction) {
	next := cell + int(dir)
	if next >= 0 && next < len(b.cells) {
		b.focus = next
	}
}

// Paste distributes the digits of text left-to-right starting at cell.
// Non-digit characters are stripped first, overflow past the last cell is
// discarded silently, and focus lands on the last written cell. An empty
// payload is a no-op.
func (b *Buffer) Paste(cell int, text string) {
	if cell < 0 || cell >= len(b.cells) {
		return
	}
	digits := make([]byte, 0, len(text))
	for i := 0; i < len(text); i++ {
		if text[i] >= '0' && text[i] <= '9' {
			digits = append(digits, text[i])
		}
	}
	if len(digits) == 0 {
		return
	}
	pos := cell
	for _, d := range digits {
		if pos >= len(b.cells) {
			break
		}
		b.cells[pos] = d
		pos++
	}
	if pos >= len(b.cells) {
		b.focus = len(b.cells) - 1
	} else {
		b.focus = pos - 1
	}
	b.checkComplete()
}

// checkComplete fires the completion callback on the edge into the full
// state. Leaving the full state re-arms the callback.
func (b *Buffer) checkComplete() {
	if !b.Full() {
		b.fired = false
		return
	}
	if b.fired {
		return
	}
	b.fired = true
	if b.onComplete != nil {
		b.onComplete(b.Code())
	}
}
