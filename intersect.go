// intersect.go — surface-intersection solving and curve tracing.
//
// Two relations in x/y/z define two surfaces. With one coordinate held
// fixed, their intersection (if the surfaces are locally planar in the
// remaining two unknowns) is the solution of a 2×2 linear system recovered
// by the same probing technique SolveEquation uses: sample each residual
// f = left - right at (0,0), (1,0), (0,1) and read the coefficients off the
// differences. Singular systems — parallel or identical surfaces at the
// probe point — are unsolvable, reported as a value, never an error.
//
// TraceCurve walks a parameter range and applies the axis-fallback rule for
// each sample: fix z first, then x, then y. A sample where all three fail
// is a gap in the curve, a legitimate outcome recorded as Present=false.
package formulize

import "math"

// detEps is the floor below which the probed 2×2 system is treated as
// singular.
const detEps = 1e-10

// SolveIntersection solves relA and relB for (sym1, sym2) with fixedSym
// pinned to fixedVal. The returned bool is false when the probed system is
// singular or any evaluation fails.
func SolveIntersection(ev Evaluator, relA, relB string, bindings Bindings, fixedSym string, fixedVal float64, sym1, sym2 string) (Point2, bool) {
	fa := newResidual(ev, relA, bindings, fixedSym, fixedVal, sym1, sym2)
	fb := newResidual(ev, relB, bindings, fixedSym, fixedVal, sym1, sym2)

	fa00, ok1 := fa.at(0, 0)
	fa10, ok2 := fa.at(1, 0)
	fa01, ok3 := fa.at(0, 1)
	fb00, ok4 := fb.at(0, 0)
	fb10, ok5 := fb.at(1, 0)
	fb01, ok6 := fb.at(0, 1)
	if !(ok1 && ok2 && ok3 && ok4 && ok5 && ok6) {
		return Point2{}, false
	}

	a11, a12, b1 := fa10-fa00, fa01-fa00, -fa00
	a21, a22, b2 := fb10-fb00, fb01-fb00, -fb00

	det := a11*a22 - a12*a21
	if math.Abs(det) <= detEps {
		return Point2{}, false
	}
	v1 := (b1*a22 - b2*a12) / det
	v2 := (a11*b2 - a21*b1) / det
	if !isFinite(v1) || !isFinite(v2) {
		return Point2{}, false
	}
	return Point2{V1: v1, V2: v2}, true
}

// IntersectionAt resolves the 3D intersection point of relA and relB at
// parameter value t, trying fixed axes in the order z, x, y. ok is false
// when every axis yields a singular system — the curve has no point at t.
func IntersectionAt(ev Evaluator, relA, relB string, bindings Bindings, t float64) (CurvePoint, bool) {
	if p, ok := SolveIntersection(ev, relA, relB, bindings, "z", t, "x", "y"); ok {
		return CurvePoint{X: p.V1, Y: p.V2, Z: t}, true
	}
	if p, ok := SolveIntersection(ev, relA, relB, bindings, "x", t, "y", "z"); ok {
		return CurvePoint{X: t, Y: p.V1, Z: p.V2}, true
	}
	if p, ok := SolveIntersection(ev, relA, relB, bindings, "y", t, "x", "z"); ok {
		return CurvePoint{X: p.V1, Y: t, Z: p.V2}, true
	}
	return CurvePoint{}, false
}

// CurveSample is one sampled parameter value on an intersection curve.
// Present is false at gaps.
type CurveSample struct {
	T       float64
	Point   CurvePoint
	Present bool
}

// TraceCurve samples the intersection of relA and relB at `samples` evenly
// spaced parameter values across [from, to] inclusive. samples < 2 yields
// the single point at from.
func TraceCurve(ev Evaluator, relA, relB string, bindings Bindings, from, to float64, samples int) []CurveSample {
	if samples < 2 {
		samples = 1
	}
	out := make([]CurveSample, 0, samples)
	step := 0.0
	if samples > 1 {
		step = (to - from) / float64(samples-1)
	}
	for i := 0; i < samples; i++ {
		t := from + float64(i)*step
		p, ok := IntersectionAt(ev, relA, relB, bindings, t)
		out = append(out, CurveSample{T: t, Point: p, Present: ok})
	}
	return out
}

// residual evaluates left-right of one relation with the fixed coordinate
// pinned, as a function of the two unknowns.
type residual struct {
	ev          Evaluator
	left, right string
	base        Bindings
	sym1, sym2  string
}

func newResidual(ev Evaluator, rel string, bindings Bindings, fixedSym string, fixedVal float64, sym1, sym2 string) *residual {
	stripped := StripRefs(rel)
	left, right, hasEq := SplitRelation(stripped)
	if !hasEq {
		// A bare expression is read as expr = 0.
		right = "0"
	}
	return &residual{
		ev:    ev,
		left:  left,
		right: right,
		base:  bindings.With(fixedSym, fixedVal),
		sym1:  sym1,
		sym2:  sym2,
	}
}

func (f *residual) at(v1, v2 float64) (float64, bool) {
	env := f.base.With(f.sym1, v1)
	env[f.sym2] = v2
	l, err := f.ev.Evaluate(f.left, env)
	if err != nil {
		return 0, false
	}
	r, err := f.ev.Evaluate(f.right, env)
	if err != nil {
		return 0, false
	}
	v := l - r
	if !isFinite(v) {
		return 0, false
	}
	return v, true
}
