package alert

import "sync/atomic"

// State is the process-wide alert flag. It starts false and can move to true
// exactly once.
type State struct {
	triggered atomic.Bool
}

func NewState() *State {
	return &State{}
}

// Trigger flips the flag from false to true. Only the caller that performed
// the transition gets true back.
func (s *State) Trigger() bool {
	return s.triggered.CompareAndSwap(false, true)
}

// Triggered reports whether the flag has already been set.
func (s *State) Triggered() bool {
	return s.triggered.Load()
}
