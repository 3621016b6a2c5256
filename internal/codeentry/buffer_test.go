package codeentry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBuffer(t *testing.T) (*Buffer, *[]string) {
	t.Helper()
	var codes []string
	buf, err := New(6, func(code string) { codes = append(codes, code) })
	require.NoError(t, err)
	return buf, &codes
}

func TestNew_RejectsNonPositiveLength(t *testing.T) {
	_, err := New(0, nil)
	assert.Error(t, err)
	_, err = New(-1, nil)
	assert.Error(t, err)
}

func TestDigit_TypingAllSixFiresOnce(t *testing.T) {
	buf, codes := newTestBuffer(t)

	for i, d := range []string{"1", "2", "3", "4", "5", "6"} {
		buf.Digit(i, d)
	}

	assert.True(t, buf.Full())
	require.Len(t, *codes, 1)
	assert.Equal(t, "123456", (*codes)[0])
}

func TestDigit_FiveDigitsNeverFires(t *testing.T) {
	buf, codes := newTestBuffer(t)

	for i, d := range []string{"1", "2", "3", "4", "5"} {
		buf.Digit(i, d)
	}

	assert.False(t, buf.Full())
	assert.Empty(t, *codes)
}

func TestDigit_FocusAdvancesExceptOnLastCell(t *testing.T) {
	buf, _ := newTestBuffer(t)

	buf.Digit(0, "7")
	assert.Equal(t, 1, buf.Focus())

	buf.Digit(5, "9")
	assert.Equal(t, 5, buf.Focus())
}

func TestDigit_RejectsNonDigitAndMultiChar(t *testing.T) {
	buf, _ := newTestBuffer(t)

	buf.Digit(0, "a")
	buf.Digit(0, "12")
	buf.Digit(0, " ")
	assert.Equal(t, "", buf.Cell(0))
	assert.Equal(t, 0, buf.Focus())
}

func TestDigit_ClearingEmptyCellIsNoOp(t *testing.T) {
	buf, _ := newTestBuffer(t)

	buf.Digit(2, "")
	assert.Equal(t, 0, buf.Focus())
	assert.Equal(t, "", buf.Code())
}

func TestBackspace_DeleteMergesBackward(t *testing.T) {
	buf, _ := newTestBuffer(t)
	buf.Digit(0, "1")
	buf.Digit(1, "2")

	// Backspace on the empty cell 2 clears cell 1 and moves focus there.
	buf.Backspace(2)
	assert.Equal(t, "", buf.Cell(1))
	assert.Equal(t, 1, buf.Focus())

	// Backspace on a non-empty cell clears only that cell.
	buf.Backspace(0)
	assert.Equal(t, "", buf.Cell(0))
	assert.Equal(t, 0, buf.Focus())
}

func TestBackspace_FirstCellEmptyStays(t *testing.T) {
	buf, _ := newTestBuffer(t)
	buf.Backspace(0)
	assert.Equal(t, 0, buf.Focus())
	assert.Equal(t, "", buf.Code())
}

func TestArrow_MovesFocusWithinRange(t *testing.T) {
	buf, _ := newTestBuffer(t)

	buf.Arrow(0, Right)
	assert.Equal(t, 1, buf.Focus())
	buf.Arrow(1, Left)
	assert.Equal(t, 0, buf.Focus())

	// Edges clamp.
	buf.Arrow(0, Left)
	assert.Equal(t, 0, buf.Focus())
	buf.Arrow(5, Right)
	assert.Equal(t, 0, buf.Focus())
}

func TestPaste_StripsNonDigitsAndTruncates(t *testing.T) {
	buf, codes := newTestBuffer(t)

	buf.Paste(0, "12-34-56-extra789")

	assert.True(t, buf.Full())
	assert.Equal(t, "123456", buf.Code())
	assert.Equal(t, 5, buf.Focus())
	require.Len(t, *codes, 1)
	assert.Equal(t, "123456", (*codes)[0])
}

func TestPaste_PartialLandsFocusOnLastWrittenCell(t *testing.T) {
	buf, codes := newTestBuffer(t)

	buf.Paste(0, "123")
	assert.Equal(t, "123", buf.Code())
	assert.Equal(t, 2, buf.Focus())
	assert.Empty(t, *codes)
}

func TestPaste_MidBufferOverflowDiscarded(t *testing.T) {
	buf, _ := newTestBuffer(t)

	buf.Paste(4, "987654")
	assert.Equal(t, "98", buf.Code())
	assert.Equal(t, 5, buf.Focus())
}

func TestPaste_NoDigitsIsNoOp(t *testing.T) {
	buf, _ := newTestBuffer(t)

	buf.Paste(0, "abc-def")
	assert.Equal(t, "", buf.Code())
	assert.Equal(t, 0, buf.Focus())
}

func TestCompletion_RearmsAfterLeavingFullState(t *testing.T) {
	buf, codes := newTestBuffer(t)

	buf.Paste(0, "123456")
	require.Len(t, *codes, 1)

	// Editing a full buffer in place stays full but must not refire.
	buf.Digit(3, "9")
	require.Len(t, *codes, 1)

	// Leaving full and refilling fires again with the new code.
	buf.Backspace(3)
	buf.Digit(3, "0")
	require.Len(t, *codes, 2)
	assert.Equal(t, "123056", (*codes)[1])
}
