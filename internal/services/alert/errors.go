package alert

import "fmt"

// PanicError wraps a value recovered from a panicking action.
type PanicError struct {
	Action string
	Value  interface{}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("action %s panicked: %v", e.Action, e.Value)
}
