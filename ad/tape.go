// Package ad provides the preaccumulation tape used by implicit solvers to
// record the inputs and outputs of a local computation so that an external
// differentiation engine can later retrieve the outputs' sensitivities with
// respect to the inputs. The kernel only performs the bookkeeping; it never
// reads derivatives back.
package ad

import (
	"sync"
)

// Registration records one tape input or output: a reference to the backing
// values of the registered buffer. Registrations are valid until the next
// window is opened on the same tape.
type Registration struct {
	Values []float64
}

// Tape is a recording facility for preaccumulated sections. A tape admits one
// open window at a time; StartPreacc blocks until any previously opened
// window on the same tape has been closed. Use one tape per logical
// computation thread to avoid interleaving recordings.
type Tape struct {
	mu sync.Mutex

	// stateMu guards openSeq, so that End can tell whether its window is
	// still the open one without holding mu.
	stateMu sync.Mutex
	openSeq int

	windows int
	inputs  []Registration
	outputs []Registration

	// Scalar inputs are copied rather than referenced, since their storage
	// may be a temporary.
	scalarIn []float64
}

// NewTape creates an empty tape.
func NewTape() *Tape {
	return &Tape{}
}

var std = NewTape()

// Default returns the process-default tape, for single-threaded callers that
// do not manage their own recording streams.
func Default() *Tape {
	return std
}

// Window is a handle to an open preaccumulation window. It is a value type so
// that acquiring a window performs no allocation; close it with End, normally
// via defer, on every exit path.
type Window struct {
	t   *Tape
	seq int
}

// StartPreacc opens a recording window and returns its handle. Registration
// buffers from the previous window are recycled, so the steady-state cost of
// a window is allocation free.
func (t *Tape) StartPreacc() Window {
	t.mu.Lock()
	t.windows++
	t.stateMu.Lock()
	t.openSeq = t.windows
	t.stateMu.Unlock()
	t.inputs = t.inputs[:0]
	t.outputs = t.outputs[:0]
	t.scalarIn = t.scalarIn[:0]
	return Window{t: t, seq: t.windows}
}

// Input registers the values of v as differentiable inputs of the current
// window. The slice is referenced, not copied; it must stay valid until the
// window ends.
func (w Window) Input(v []float64) {
	w.t.inputs = append(w.t.inputs, Registration{Values: v})
}

// InputValues registers individual scalar inputs. The values are copied into
// tape-owned storage.
func (w Window) InputValues(vals ...float64) {
	t := w.t
	n := len(t.scalarIn)
	t.scalarIn = append(t.scalarIn, vals...)
	t.inputs = append(t.inputs, Registration{Values: t.scalarIn[n:]})
}

// Output registers the values of v as differentiable outputs of the current
// window.
func (w Window) Output(v []float64) {
	w.t.outputs = append(w.t.outputs, Registration{Values: v})
}

// End closes the window, making the tape available for the next one. Ending a
// window that is already closed is a no-op, so End is safe to call both
// explicitly on an early exit path and again from a deferred call.
func (w Window) End() {
	t := w.t
	t.stateMu.Lock()
	if t.openSeq != w.seq {
		t.stateMu.Unlock()
		return
	}
	t.openSeq = 0
	t.stateMu.Unlock()
	t.mu.Unlock()
}

// Windows reports how many windows have been opened on the tape. Like
// Inputs, it must not race with a window held by another goroutine.
func (t *Tape) Windows() int {
	return t.windows
}

// Inputs returns the input registrations of the most recently opened window.
// The returned slice is owned by the tape and is only valid until the next
// window is opened. Callers must not invoke this while a window is open on
// another goroutine.
func (t *Tape) Inputs() []Registration {
	return t.inputs
}

// Outputs returns the output registrations of the most recently opened
// window, under the same validity rules as Inputs.
func (t *Tape) Outputs() []Registration {
	return t.outputs
}

// NumInputValues reports the total count of input values registered in the
// most recently opened window.
func (t *Tape) NumInputValues() int {
	n := 0
	for _, r := range t.inputs {
		n += len(r.Values)
	}
	return n
}

// NumOutputValues reports the total count of output values registered in the
// most recently opened window.
func (t *Tape) NumOutputValues() int {
	n := 0
	for _, r := range t.outputs {
		n += len(r.Values)
	}
	return n
}
