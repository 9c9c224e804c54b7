package formulize

import (
	"math"
	"testing"
)

// --- helpers ---------------------------------------------------------------

func solveOK(t *testing.T, relation string, b Bindings, target string) float64 {
	t.Helper()
	res := SolveEquation(NewEvaluator(), relation, b, target)
	if !res.OK {
		t.Fatalf("solve %q for %q: unsolvable, want a value", relation, target)
	}
	return res.Value
}

func solveFails(t *testing.T, relation string, b Bindings, target string) {
	t.Helper()
	res := SolveEquation(NewEvaluator(), relation, b, target)
	if res.OK {
		t.Fatalf("solve %q for %q = %g, want unsolvable", relation, target, res.Value)
	}
}

func wantNear(t *testing.T, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Fatalf("got %g, want %g (tol %g)", got, want, tol)
	}
}

// --- direct paths ----------------------------------------------------------

func Test_Solve_Isolated_Target_KineticEnergy(t *testing.T) {
	v := solveOK(t, "{K} = 0.5*{m}*{v}*{v}", Bindings{"m": 1, "v": 2}, "K")
	wantNear(t, v, 2.0, 1e-12)
}

func Test_Solve_Isolated_Target_On_Right(t *testing.T) {
	v := solveOK(t, "2*{a} + 1 = {y}", Bindings{"a": 3}, "y")
	wantNear(t, v, 7.0, 1e-12)
}

func Test_Solve_Linear_Scaling(t *testing.T) {
	// For {y} = a*X with constant a and known X, the result is X*a.
	for _, a := range []float64{-3, 0.5, 2, 10} {
		for _, x := range []float64{-1, 0, 4.25} {
			v := solveOK(t, "{y} = {a}*{x}", Bindings{"a": a, "x": x}, "y")
			wantNear(t, v, a*x, 1e-9)
		}
	}
}

func Test_Solve_Bare_Expression_Defines_Target(t *testing.T) {
	v := solveOK(t, "9.8*{m}", Bindings{"m": 2}, "w")
	wantNear(t, v, 19.6, 1e-12)
}

func Test_Solve_Bare_Expression_SelfReference_Fails(t *testing.T) {
	// The target is removed from scope, so an expression naming it cannot
	// silently read its stale value.
	solveFails(t, "{w} + 1", Bindings{"w": 5}, "w")
}

// --- affine probing --------------------------------------------------------

func Test_Solve_Affine_Probe_Inverts_KineticEnergy(t *testing.T) {
	m := solveOK(t, "{K} = 0.5*{m}*{v}*{v}", Bindings{"K": 8, "v": 2}, "m")
	wantNear(t, m, 4.0, 1e-9)
}

func Test_Solve_Affine_Probe_Target_On_Both_Sides(t *testing.T) {
	x := solveOK(t, "2*{x} + 1 = {x} + 4", Bindings{}, "x")
	wantNear(t, x, 3.0, 1e-9)
}

func Test_Solve_Vanishing_Coefficient_Unsolvable(t *testing.T) {
	solveFails(t, "{x} - {x} = 0", Bindings{}, "x")
}

func Test_Solve_Constant_Relation_Unsolvable(t *testing.T) {
	solveFails(t, "{a} = 3", Bindings{"a": 3}, "x")
}

func Test_Solve_Malformed_Relation_Unsolvable(t *testing.T) {
	solveFails(t, "{y} = 3 + * {x}", Bindings{"x": 1}, "y")
	solveFails(t, "", Bindings{}, "y")
}

func Test_Solve_Missing_Binding_Unsolvable(t *testing.T) {
	solveFails(t, "{K} = 0.5*{m}*{v}*{v}", Bindings{"v": 2}, "K")
}

func Test_Solve_NonFinite_Folds_To_Unsolvable(t *testing.T) {
	// Division by a zero binding yields Inf on the direct path.
	solveFails(t, "{y} = 1/{x}", Bindings{"x": 0}, "y")
}

func Test_Solve_Does_Not_Mutate_Bindings(t *testing.T) {
	b := Bindings{"K": 8, "v": 2}
	solveOK(t, "{K} = 0.5*{m}*{v}*{v}", b, "m")
	if len(b) != 2 || b["K"] != 8 || b["v"] != 2 {
		t.Fatalf("bindings mutated: %v", b)
	}
}

func Test_SolveResult_Folds_NonFinite(t *testing.T) {
	if Solved(math.NaN()).OK || Solved(math.Inf(1)).OK || Solved(math.Inf(-1)).OK {
		t.Fatal("non-finite values must collapse to unsolvable")
	}
	if !Solved(0).OK {
		t.Fatal("zero is a legitimate solution")
	}
	if Unsolvable().String() != "unsolvable" {
		t.Fatalf("sentinel renders as %q", Unsolvable().String())
	}
}
