// Package execution holds the disabled automation entry point.
//
// Execute exists so that any call site that tries to act on a plan fails
// loudly. It has no success path.
package execution

import (
	"errors"
	"fmt"

	"github.com/ppiankov/plo/internal/authority"
)

// ErrDisabled is matched by every error Execute returns.
var ErrDisabled = errors.New("execution disabled in current system version")

// DisabledError is returned by Execute. It records what was attempted and
// under which authority, so the caller can report it.
type DisabledError struct {
	Action string
	State  string
	Mode   string
}

func (e *DisabledError) Error() string {
	return fmt.Sprintf("execution blocked (%s, mode %s): %s [action=%s]", e.State, e.Mode, ErrDisabled, e.Action)
}

func (e *DisabledError) Unwrap() error {
	return ErrDisabled
}

// Execute never runs action. It always returns a *DisabledError wrapping
// ErrDisabled, whatever action or authority it is given.
func Execute(action any, a authority.Authority) error {
	return &DisabledError{
		Action: fmt.Sprintf("%v", action),
		State:  string(a.State()),
		Mode:   string(a.Mode()),
	}
}
