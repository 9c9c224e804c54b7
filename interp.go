// interp.go — the steppable derivation interpreter.
//
// `Interp` executes a compiled derivation script exactly one micro-op per
// Step call. After every successful step it publishes an immutable
// ExecState: the step index, the byte span of the source text that just
// executed (the highlight range), a full snapshot of the variable
// environment, and the checkpoint/boundary/final classification of the
// position. The stepping controller records these states; the interpreter
// itself keeps no history and cannot rewind.
//
// A failed step (evaluation error inside an expression) leaves the
// interpreter's position and environment exactly as they were, so the
// caller's recorded history stays coherent.
package formulize

import (
	"math"
	"strings"
)

// ExecState is one recorded execution position. Immutable once created;
// Vars is a private snapshot, never aliased to the live environment.
type ExecState struct {
	Index      int      // sequential step counter, 0 for the initial state
	Start, End int      // byte span of the executed source text
	Vars       Bindings // environment snapshot after the step
	Final      bool     // true only for the terminal state
	Checkpoint bool     // assignment completed at this position
	Boundary   bool     // loop iteration or script ended at this position
}

// Interp steps a derivation script one atomic unit at a time.
type Interp struct {
	prog   *program
	ev     Evaluator
	env    Bindings
	limits map[int]float64 // loop upper bounds, keyed by opLoopInit pc
	pc     int
	index  int
	cur    ExecState
	done   bool
}

// NewInterp parses and compiles src and positions the interpreter before
// the first statement, with initial as the starting environment. The
// initial ExecState has Index 0 and highlights the first statement.
func NewInterp(ev Evaluator, src string, initial Bindings) (*Interp, error) {
	script, err := ParseScript(src)
	if err != nil {
		return nil, err
	}
	prog := compileScript(script)
	i := &Interp{
		prog:   prog,
		ev:     ev,
		env:    initial.Clone(),
		limits: make(map[int]float64),
	}
	first := prog.ops[0]
	i.cur = ExecState{
		Index: 0,
		Start: first.start,
		End:   first.end,
		Vars:  i.env.Clone(),
	}
	return i, nil
}

// State returns the most recently published execution state.
func (i *Interp) State() ExecState { return i.cur }

// AtCheckpoint reports whether the current position is a checkpoint.
func (i *Interp) AtCheckpoint() bool { return i.cur.Checkpoint }

// AtBoundary reports whether the current position is a structural boundary.
func (i *Interp) AtBoundary() bool { return i.cur.Boundary }

// Step executes exactly one micro-op. It returns false when the terminal
// state has been published; further calls are no-ops. On error the
// interpreter is unchanged and the error is a *ScriptError with a caret
// snippet.
func (i *Interp) Step() (bool, error) {
	if i.done {
		return false, nil
	}
	o := i.prog.ops[i.pc]
	next := i.pc + 1

	switch o.kind {
	case opAssign:
		v, err := i.ev.Evaluate(o.expr, i.env)
		if err != nil {
			return false, i.stepError(o, err.Error())
		}
		if !isFinite(v) {
			return false, i.stepError(o, "expression produced a non-finite value")
		}
		i.env[o.sym] = v

	case opLoopInit:
		from, err := i.ev.Evaluate(o.expr, i.env)
		if err != nil {
			return false, i.stepError(o, err.Error())
		}
		to, err := i.ev.Evaluate(o.to, i.env)
		if err != nil {
			return false, i.stepError(o, err.Error())
		}
		if !isFinite(from) || !isFinite(to) {
			return false, i.stepError(o, "loop bounds must be finite")
		}
		i.env[o.sym] = math.Floor(from)
		i.limits[i.pc] = math.Floor(to)

	case opLoopTest:
		if i.env[o.sym] > i.limits[o.ref] {
			next = o.jump
		}

	case opLoopIncr:
		i.env[o.sym]++
		next = o.jump

	case opEnd:
		i.done = true
	}

	i.pc = next
	i.index++
	i.cur = ExecState{
		Index:      i.index,
		Start:      o.start,
		End:        o.end,
		Vars:       i.env.Clone(),
		Final:      o.kind == opEnd,
		Checkpoint: o.checkpoint,
		Boundary:   o.boundary,
	}
	return !i.done, nil
}

func (i *Interp) stepError(o op, msg string) error {
	return WrapWithSource(&ScriptError{
		Phase: "step",
		Line:  o.line,
		Col:   colAt(i.prog.src, o.start),
		Msg:   msg,
	}, i.prog.src)
}

// colAt converts a byte offset to a 1-based column on its line.
func colAt(src string, off int) int {
	if off > len(src) {
		off = len(src)
	}
	nl := strings.LastIndexByte(src[:off], '\n')
	return off - nl
}
