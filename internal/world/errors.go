package world

import (
	"errors"
	"fmt"

	"github.com/san-kum/flyer/internal/dynamo"
)

var (
	ErrNoRunway        = errors.New("world: no runway has been created")
	ErrControlCount    = errors.New("world: control list length does not match vehicle count")
	ErrUnknownChannel  = errors.New("world: unknown control channel")
	ErrInvalidControl  = errors.New("world: control value must be finite")
	ErrIndexOutOfRange = errors.New("world: vehicle index out of range")
	ErrNoCollaborator  = errors.New("world: collaborator not configured")

	ErrInvalidTimestep = dynamo.ErrInvalidTimestep
)

// StepError reports the vehicle that failed during Step.
type StepError struct {
	Index   int
	Name    string
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("world: step vehicle %d (%s): %v", e.Index, e.Name, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
