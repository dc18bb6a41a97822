package history

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counter is a tiny state machine: payloads are deltas.
type counter struct{ value int }

func (c *counter) apply(delta int) (int, error) {
	c.value += delta
	return -delta, nil
}

func (c *counter) do(s *Stack[int], delta int) {
	inv, _ := c.apply(delta)
	s.Push(Command[int]{Kind: "add", Forward: delta, Inverse: inv})
}

func TestUndoRedoChain(t *testing.T) {
	c := &counter{}
	s := New[int]()

	c.do(s, 5)
	c.do(s, 3)
	c.do(s, -2)
	require.Equal(t, 6, c.value)

	_, err := s.Undo(c.apply)
	require.NoError(t, err)
	_, err = s.Undo(c.apply)
	require.NoError(t, err)
	assert.Equal(t, 5, c.value)

	_, err = s.Redo(c.apply)
	require.NoError(t, err)
	assert.Equal(t, 8, c.value)

	undo, redo := s.Len()
	assert.Equal(t, 2, undo)
	assert.Equal(t, 1, redo)
}

func TestNewCommandClearsRedo(t *testing.T) {
	c := &counter{}
	s := New[int]()

	c.do(s, 1)
	c.do(s, 1)
	_, err := s.Undo(c.apply)
	require.NoError(t, err)
	require.True(t, s.CanRedo())

	c.do(s, 10)
	assert.False(t, s.CanRedo())

	_, err = s.Redo(c.apply)
	assert.ErrorIs(t, err, ErrNothingToRedo)
	assert.Equal(t, 11, c.value)
}

func TestEmptyStack(t *testing.T) {
	c := &counter{}
	s := New[int]()

	_, err := s.Undo(c.apply)
	assert.ErrorIs(t, err, ErrNothingToUndo)
	_, err = s.Redo(c.apply)
	assert.ErrorIs(t, err, ErrNothingToRedo)
	_, ok := s.Peek()
	assert.False(t, ok)
}

func TestFailedUndoKeepsCommand(t *testing.T) {
	c := &counter{}
	s := New[int]()
	c.do(s, 4)

	_, err := s.Undo(func(int) (int, error) { return 0, errors.New("boom") })
	require.Error(t, err)
	assert.True(t, s.CanUndo())
	assert.False(t, s.CanRedo())
	assert.Equal(t, 4, c.value)
}
