// workspace.go — per-configuration variable store with explicit
// recomputation.
//
// A Workspace is the context object a formula configuration lives in: its
// variables, its relations, and the dependency graph connecting them.
// There is no package-level state anywhere — two workspaces never observe
// each other — and there is no implicit reactivity: writing an input
// triggers one explicit, topologically ordered recomputation pass over
// exactly the transitive dependents of that input.
//
// A dependent variable is produced by the first relation that references
// it (textually, via CanSolve) and yields a solve. Its inputs are every
// other variable those candidate relations mention. Cycles among
// dependents are a configuration error, reported at mutation time.
package formulize

import (
	"io"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// Workspace owns the variables and relations of one formula configuration.
// Not safe for concurrent use; one goroutine owns a workspace.
type Workspace struct {
	ev  Evaluator
	log logrus.FieldLogger

	vars      map[string]*Variable
	order     []string // declaration order
	relations []string
}

// NewWorkspace returns an empty workspace evaluating through ev.
func NewWorkspace(ev Evaluator) *Workspace {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &Workspace{
		ev:   ev,
		log:  l,
		vars: make(map[string]*Variable),
	}
}

// SetLogger replaces the workspace's logger.
func (w *Workspace) SetLogger(log logrus.FieldLogger) { w.log = log }

// AddVariable declares a variable. Duplicate symbols and invalid
// identifiers are configuration errors.
func (w *Workspace) AddVariable(sym string, value float64, kind Kind) error {
	if !isIdent(sym) {
		return configErrorf("invalid variable symbol %q", sym)
	}
	if _, exists := w.vars[sym]; exists {
		return configErrorf("duplicate variable %q", sym)
	}
	w.vars[sym] = &Variable{Symbol: sym, Value: value, Kind: kind}
	w.order = append(w.order, sym)
	return nil
}

// AddRelation registers a relation. Every braced reference must name a
// declared variable.
func (w *Workspace) AddRelation(rel string) error {
	if strings.TrimSpace(rel) == "" {
		return configErrorf("empty relation")
	}
	for _, sym := range Vars(rel) {
		if _, ok := w.vars[sym]; !ok {
			return configErrorf("relation %q references undeclared variable %q", rel, sym)
		}
	}
	w.relations = append(w.relations, rel)
	return nil
}

// Relations returns the registered relations in registration order.
func (w *Workspace) Relations() []string {
	out := make([]string, len(w.relations))
	copy(out, w.relations)
	return out
}

// Variable returns a copy of the named variable.
func (w *Workspace) Variable(sym string) (Variable, bool) {
	v, ok := w.vars[sym]
	if !ok {
		return Variable{}, false
	}
	return *v, true
}

// Value returns the current value of the named variable.
func (w *Workspace) Value(sym string) (float64, bool) {
	v, ok := w.vars[sym]
	if !ok {
		return 0, false
	}
	return v.Value, true
}

// Bindings snapshots every variable's current value.
func (w *Workspace) Bindings() Bindings {
	b := make(Bindings, len(w.vars))
	for sym, v := range w.vars {
		b[sym] = v.Value
	}
	return b
}

// Set writes an input variable and recomputes its transitive dependents.
// Fixed and dependent variables are not writable by callers.
func (w *Workspace) Set(sym string, value float64) error {
	v, ok := w.vars[sym]
	if !ok {
		return configErrorf("unknown variable %q", sym)
	}
	if v.Kind != KindInput {
		return configErrorf("variable %q is %s, not writable", sym, v.Kind)
	}
	if !isFinite(value) {
		return configErrorf("variable %q: value must be finite", sym)
	}
	v.Value = value
	return w.recompute(sym)
}

// Recompute re-solves every dependent variable from the current inputs, in
// dependency order.
func (w *Workspace) Recompute() error { return w.recompute("") }

// recompute re-solves dependents in topological order. When changed is
// non-empty, only its transitive dependents are touched.
func (w *Workspace) recompute(changed string) error {
	g, err := w.graph()
	if err != nil {
		return err
	}
	affected := g.affectedBy(changed)
	for _, d := range g.topo {
		if !affected[d] {
			continue
		}
		w.solveDependent(d)
	}
	return nil
}

// solveDependent tries the dependent's producing relations in registration
// order and stores the first solve. An all-unsolvable pass leaves the
// previous value and logs.
func (w *Workspace) solveDependent(d string) {
	b := w.Bindings()
	for _, rel := range w.producers(d) {
		if res := SolveEquation(w.ev, rel, b, d); res.OK {
			w.vars[d].Value = res.Value
			return
		}
	}
	w.log.WithField("variable", d).Warn("workspace: dependent is unsolvable, keeping previous value")
}

// producers returns the relations that define d. Relations isolating d on
// one side are preferred; when none exists, any relation referencing d is a
// candidate. The distinction keeps a relation like `{c} = {b} + 1` from
// doubling as a producer of b and manufacturing a spurious cycle.
func (w *Workspace) producers(d string) []string {
	var isolated, loose []string
	for _, rel := range w.relations {
		if !CanSolve(rel, d) {
			continue
		}
		left, right, hasEq := SplitRelation(StripRefs(rel))
		if hasEq && (strings.TrimSpace(left) == d || strings.TrimSpace(right) == d) {
			isolated = append(isolated, rel)
		} else {
			loose = append(loose, rel)
		}
	}
	if len(isolated) > 0 {
		return isolated
	}
	return loose
}

// depGraph is the solved-once dependency structure of a recompute pass.
type depGraph struct {
	inputs map[string][]string // dependent -> variables its relations mention
	outs   map[string][]string // variable  -> dependents it feeds
	topo   []string            // dependents in recomputation order
}

// graph builds the dependency graph of the workspace's dependent variables
// and topologically sorts them. A cycle is a configuration error.
func (w *Workspace) graph() (*depGraph, error) {
	g := &depGraph{
		inputs: make(map[string][]string),
		outs:   make(map[string][]string),
	}
	dependents := []string{}
	for _, sym := range w.order {
		if w.vars[sym].Kind == KindDependent {
			dependents = append(dependents, sym)
		}
	}
	for _, d := range dependents {
		seen := map[string]bool{}
		for _, rel := range w.producers(d) {
			for _, in := range Vars(rel) {
				if in != d && !seen[in] {
					seen[in] = true
					g.inputs[d] = append(g.inputs[d], in)
					g.outs[in] = append(g.outs[in], d)
				}
			}
		}
	}

	// Kahn over the dependent-to-dependent edges.
	indeg := map[string]int{}
	for _, d := range dependents {
		indeg[d] = 0
	}
	for _, d := range dependents {
		for _, in := range g.inputs[d] {
			if _, isDep := indeg[in]; isDep {
				indeg[d]++
			}
		}
	}
	queue := []string{}
	for _, d := range dependents {
		if indeg[d] == 0 {
			queue = append(queue, d)
		}
	}
	for len(queue) > 0 {
		d := queue[0]
		queue = queue[1:]
		g.topo = append(g.topo, d)
		for _, out := range g.outs[d] {
			if _, isDep := indeg[out]; !isDep {
				continue
			}
			indeg[out]--
			if indeg[out] == 0 {
				queue = append(queue, out)
			}
		}
	}
	if len(g.topo) != len(dependents) {
		var cyc []string
		for _, d := range dependents {
			if indeg[d] > 0 {
				cyc = append(cyc, d)
			}
		}
		sort.Strings(cyc)
		return nil, configErrorf("cyclic dependency among %s", strings.Join(cyc, ", "))
	}
	return g, nil
}

// affectedBy returns the set of dependents to recompute: all of them when
// changed is empty, else the transitive dependents of changed.
func (g *depGraph) affectedBy(changed string) map[string]bool {
	affected := map[string]bool{}
	if changed == "" {
		for _, d := range g.topo {
			affected[d] = true
		}
		return affected
	}
	queue := append([]string(nil), g.outs[changed]...)
	for len(queue) > 0 {
		d := queue[0]
		queue = queue[1:]
		if affected[d] {
			continue
		}
		affected[d] = true
		queue = append(queue, g.outs[d]...)
	}
	return affected
}
