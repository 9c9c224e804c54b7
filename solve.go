// solve.go — single-target numeric equation solving.
//
// SolveEquation resolves one named variable from one relation and a map of
// known values. There is no symbolic algebra here: the solver either
// evaluates a side directly (when the target sits alone on one side, or the
// relation is a bare defining expression) or infers a linear coefficient by
// probing the relation at target=0 and target=1 — "affine probing". A
// relation that is not affine in the target through that probe is reported
// unsolvable; this is the intended trade-off, not a gap to be closed with a
// nonlinear root-finder.
//
// All failure modes — malformed expression, evaluator error, vanishing net
// coefficient, non-finite arithmetic — collapse into the Unsolvable result.
// Nothing here panics or returns an error.
package formulize

import (
	"math"
	"strings"
)

// coeffEps is the floor below which a probed net coefficient is treated as
// zero and the relation as non-affine in the target.
const coeffEps = 1e-10

// SolveEquation computes the value of target from relation under bindings.
// It is a pure function of its inputs; bindings is never mutated.
func SolveEquation(ev Evaluator, relation string, bindings Bindings, target string) SolveResult {
	stripped := StripRefs(relation)
	left, right, hasEq := SplitRelation(stripped)

	// Bare expression: the whole text defines the target directly. The
	// target is dropped from scope so self-references fail loudly instead
	// of echoing a stale value.
	if !hasEq {
		return evalDirect(ev, stripped, bindings, target)
	}

	// Exact path: one side is the bare target symbol.
	if strings.TrimSpace(left) == target {
		return evalDirect(ev, right, bindings, target)
	}
	if strings.TrimSpace(right) == target {
		return evalDirect(ev, left, bindings, target)
	}

	// Affine probing: evaluate both sides at target=0 and target=1 with all
	// other bindings fixed. If the relation is affine in the target, the
	// unique root of left-right is recoverable from the four samples.
	env0 := bindings.With(target, 0)
	env1 := bindings.With(target, 1)

	l0, err := ev.Evaluate(left, env0)
	if err != nil {
		return Unsolvable()
	}
	l1, err := ev.Evaluate(left, env1)
	if err != nil {
		return Unsolvable()
	}
	r0, err := ev.Evaluate(right, env0)
	if err != nil {
		return Unsolvable()
	}
	r1, err := ev.Evaluate(right, env1)
	if err != nil {
		return Unsolvable()
	}
	if !isFinite(l0) || !isFinite(l1) || !isFinite(r0) || !isFinite(r1) {
		return Unsolvable()
	}

	net := (l1 - l0) - (r1 - r0)
	if math.Abs(net) <= coeffEps {
		return Unsolvable()
	}
	return Solved((r0 - l0) / net)
}

func evalDirect(ev Evaluator, expression string, bindings Bindings, target string) SolveResult {
	v, err := ev.Evaluate(expression, bindings.Without(target))
	if err != nil {
		return Unsolvable()
	}
	return Solved(v)
}
