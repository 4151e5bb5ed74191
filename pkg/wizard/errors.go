package wizard

import (
	"errors"
	"fmt"
)

var (
	// ErrTerminal: the wizard has submitted and accepts no more commands.
	ErrTerminal = errors.New("wizard: filing already submitted")

	// ErrNoActiveRole: the command needs an active role phase.
	ErrNoActiveRole = errors.New("wizard: no active role")

	// ErrBadCheckpoint: the command is not valid in the current phase.
	ErrBadCheckpoint = errors.New("wizard: command not valid in this phase")

	// ErrUnknownCommand: dispatch received a kind it does not know.
	ErrUnknownCommand = errors.New("wizard: unknown command")

	// ErrUnknownRole: GO_TO_ROLE named a record that does not exist.
	ErrUnknownRole = errors.New("wizard: unknown role record")

	// ErrNoSave: SAVE_AND_EXIT is unavailable in review and checkpoints.
	ErrNoSave = errors.New("wizard: nothing to save in this phase")
)

// TransportError wraps a backend failure. The phase never advances on this
// class; the caller may retry the same command.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("wizard: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func transport(op string, err error) error {
	return &TransportError{Op: op, Err: err}
}
