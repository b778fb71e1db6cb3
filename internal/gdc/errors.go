package gdc

import (
	"fmt"
	"strings"
)

// StageError is the failure of one resolver stage.
type StageError struct {
	Stage string
	Err   error
}

func (e StageError) Error() string {
	return e.Stage + ": " + e.Err.Error()
}

func (e StageError) Unwrap() error { return e.Err }

// ResolutionError is returned once every stage has failed. Attempts are in
// stage order.
type ResolutionError struct {
	ID       string
	Attempts []StageError
}

func (e *ResolutionError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, a.Error())
	}
	return fmt.Sprintf("resolve %s: all %d stages failed: %s", e.ID, len(e.Attempts), strings.Join(parts, "; "))
}

func (e *ResolutionError) Unwrap() []error {
	out := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		out = append(out, a)
	}
	return out
}

// Messages returns one string per failed stage.
func (e *ResolutionError) Messages() []string {
	out := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		out = append(out, a.Error())
	}
	return out
}
