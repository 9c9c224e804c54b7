// value.go — PUBLIC value model for the Formulize core.
//
// This file defines the small set of value types every other part of the
// engine speaks:
//
//   • `Variable` / `Kind` — a named numeric quantity and its role
//     (fixed constant, user input, or solver-produced dependent).
//   • `Bindings` — the symbol→value map handed to every evaluation. The
//     engine never mutates a caller-supplied Bindings; the copy helpers
//     (`Clone`, `With`, `Without`) are how call sites derive probe maps.
//   • `SolveResult` — the single explicit success/unsolvable carrier for
//     equation solving. There is deliberately no NaN sentinel anywhere in
//     the public surface: a non-finite numeric result is folded into
//     "unsolvable" at construction time, so callers branch on exactly one
//     flag and never compare against NaN.
//   • `Point2` — the two resolved coordinates of a surface intersection.
package formulize

import (
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Version of the Formulize engine.
const Version = "0.4.0"

// Kind classifies how a variable's value is produced.
type Kind int

const (
	KindFixed     Kind = iota // constant, set at configuration time
	KindInput                 // mutated by user interaction
	KindDependent             // written only by the solver
)

func (k Kind) String() string {
	switch k {
	case KindFixed:
		return "fixed"
	case KindInput:
		return "input"
	case KindDependent:
		return "dependent"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Variable is a named numeric quantity in a workspace. Symbols are unique
// within one workspace; Dependent variables are writable only by the solver.
type Variable struct {
	Symbol string
	Value  float64
	Kind   Kind
}

// Bindings maps a variable symbol to its current numeric value. A Bindings
// passed into the engine is treated as immutable for the duration of the
// call; derived maps are always fresh copies.
type Bindings map[string]float64

// Clone returns an independent copy of b. Clone(nil) returns an empty,
// writable map.
func (b Bindings) Clone() Bindings {
	out := make(Bindings, len(b)+1)
	for k, v := range b {
		out[k] = v
	}
	return out
}

// With returns a copy of b with sym bound to v.
func (b Bindings) With(sym string, v float64) Bindings {
	out := b.Clone()
	out[sym] = v
	return out
}

// Without returns a copy of b with sym removed. Used to evaluate a defining
// expression with the target itself out of scope, so a relation that
// accidentally references its own target fails instead of feeding back a
// stale value.
func (b Bindings) Without(sym string) Bindings {
	out := make(Bindings, len(b))
	for k, v := range b {
		if k != sym {
			out[k] = v
		}
	}
	return out
}

// Symbols returns the bound symbols in sorted order.
func (b Bindings) Symbols() []string {
	out := make([]string, 0, len(b))
	for k := range b {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// SolveResult is the outcome of a single-target solve. OK is false when the
// relation could not be resolved for the target (non-affine, singular,
// malformed, or numerically non-finite). When OK is false, Value is zero
// and meaningless.
type SolveResult struct {
	Value float64
	OK    bool
}

// Solved wraps a numeric solve outcome. Non-finite values collapse to
// Unsolvable so NaN/Inf never escape the solver boundary.
func Solved(v float64) SolveResult {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Unsolvable()
	}
	return SolveResult{Value: v, OK: true}
}

// Unsolvable is the single failure sentinel for solve operations.
func Unsolvable() SolveResult { return SolveResult{} }

func (r SolveResult) String() string {
	if !r.OK {
		return "unsolvable"
	}
	return strconv.FormatFloat(r.Value, 'g', -1, 64)
}

// Point2 holds the two resolved coordinates of a surface intersection, in
// the order the unknowns were passed to SolveIntersection.
type Point2 struct {
	V1, V2 float64
}

func (p Point2) String() string { return fmt.Sprintf("(%g, %g)", p.V1, p.V2) }

// CurvePoint is one 3D point on an intersection curve.
type CurvePoint struct {
	X, Y, Z float64
}

func (p CurvePoint) String() string { return fmt.Sprintf("(%g, %g, %g)", p.X, p.Y, p.Z) }

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
