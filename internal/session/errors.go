package session

import (
	"errors"
	"fmt"
)

// ErrInvalidState matches every *InvalidStateError.
var ErrInvalidState = errors.New("invalid playback state")

// InvalidStateError reports a transport command issued out of sequence,
// such as pause before play.
type InvalidStateError struct {
	Op    string
	Phase Phase
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s: not allowed while %s", e.Op, e.Phase)
}

func (e *InvalidStateError) Is(target error) bool { return target == ErrInvalidState }

// LoadError reports why a track could not be loaded. The session stays
// idle and can load another track.
type LoadError struct {
	Title string
	Err   error
}

func (e *LoadError) Error() string {
	if e.Title == "" {
		return fmt.Sprintf("loading track: %v", e.Err)
	}
	return fmt.Sprintf("loading %q: %v", e.Title, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
