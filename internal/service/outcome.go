package service

import "fmt"

// SideEffect records a non-fatal failure that happened alongside a
// successful primary operation, such as a participant row that could not
// be inserted or a notification record that could not be written.
type SideEffect struct {
	// Op names the side operation that failed (e.g. "add_participant").
	Op string
	// Subject identifies what the operation acted on, typically an id.
	Subject string
	// Err is the failure itself.
	Err error
}

// String renders the side effect for logs and history payloads.
func (s SideEffect) String() string {
	return fmt.Sprintf("%s %s: %v", s.Op, s.Subject, s.Err)
}

// SideEffects is the partial-success outcome of an operation: the primary
// write committed, and zero or more side operations failed. An empty value
// means complete success.
type SideEffects []SideEffect

// Failed reports whether any side operation failed.
func (s SideEffects) Failed() bool {
	return len(s) > 0
}

// Append records a side-effect failure. Nil errors are ignored so call
// sites do not need to branch.
func (s SideEffects) Append(op, subject string, err error) SideEffects {
	if err == nil {
		return s
	}
	return append(s, SideEffect{Op: op, Subject: subject, Err: err})
}

// Merge combines two outcomes.
func (s SideEffects) Merge(other SideEffects) SideEffects {
	return append(s, other...)
}
