// Package history implements the undo/redo command stack of an editing session.
//
// A Stack is created per session and handed to whoever mutates state; there is
// no package-level stack. Commands carry a forward and an inverse payload; the
// caller supplies the function that applies a payload and returns the payload
// that reverses it.
package history

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Command is one user-visible, invertible mutation.
type Command[P any] struct {
	Kind      string
	Forward   P
	Inverse   P
	Timestamp time.Time
}

// ApplyFunc applies a payload and returns the payload that reverses it.
type ApplyFunc[P any] func(P) (P, error)

// Stack holds the undo and redo sequences. It is unbounded and process-local.
type Stack[P any] struct {
	mu   sync.Mutex
	undo []Command[P]
	redo []Command[P]
}

// New returns an empty stack.
func New[P any]() *Stack[P] {
	return &Stack[P]{}
}

// Push records a newly performed command and clears the redo sequence.
func (s *Stack[P]) Push(c Command[P]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.undo = append(s.undo, c)
	s.redo = nil
}

// Undo pops the most recent command and applies its inverse. The command
// moves onto the redo sequence only if the inverse applied cleanly.
func (s *Stack[P]) Undo(apply ApplyFunc[P]) (Command[P], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero Command[P]
	if len(s.undo) == 0 {
		return zero, ErrNothingToUndo
	}
	c := s.undo[len(s.undo)-1]
	if _, err := apply(c.Inverse); err != nil {
		return zero, err
	}
	s.undo = s.undo[:len(s.undo)-1]
	s.redo = append(s.redo, c)
	return c, nil
}

// Redo re-applies the most recently undone command. Its inverse is replaced
// by the one produced by the re-application.
func (s *Stack[P]) Redo(apply ApplyFunc[P]) (Command[P], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero Command[P]
	if len(s.redo) == 0 {
		return zero, ErrNothingToRedo
	}
	c := s.redo[len(s.redo)-1]
	inv, err := apply(c.Forward)
	if err != nil {
		return zero, err
	}
	c.Inverse = inv
	s.redo = s.redo[:len(s.redo)-1]
	s.undo = append(s.undo, c)
	return c, nil
}

// CanUndo reports whether Undo has a command to reverse.
func (s *Stack[P]) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undo) > 0
}

// CanRedo reports whether Redo has a command to re-apply.
func (s *Stack[P]) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.redo) > 0
}

// Len returns the sizes of the undo and redo sequences.
func (s *Stack[P]) Len() (undo, redo int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undo), len(s.redo)
}

// Peek returns the command Undo would reverse next.
func (s *Stack[P]) Peek() (Command[P], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.undo) == 0 {
		var zero Command[P]
		return zero, false
	}
	return s.undo[len(s.undo)-1], true
}
