// eval.go — the expression-evaluator boundary.
//
// The solver and interpreter never parse arithmetic themselves; they hand
// expression text plus a Bindings to an `Evaluator` and get back a float64
// or an error. The production implementation, `ExprEvaluator`, compiles
// through github.com/expr-lang/expr and memoizes compiled programs by
// expression text, so probing the same relation at several points pays for
// one compile.
//
// The interface is the swap point: tests and embedders may substitute any
// implementation honoring the contract (pure, no mutation of env, error for
// anything that is not a finite-or-infinite number — finiteness policy is
// the caller's).
package formulize

import (
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/pkg/errors"
)

// Evaluator evaluates one arithmetic expression against a set of bindings.
// Implementations must not mutate env and must be safe for concurrent use.
type Evaluator interface {
	Evaluate(expression string, env Bindings) (float64, error)
}

// ExprEvaluator is the expr-lang backed Evaluator. The zero value is not
// usable; construct with NewEvaluator.
type ExprEvaluator struct {
	mu    sync.RWMutex
	cache map[string]*vm.Program
}

// NewEvaluator returns an ExprEvaluator with an empty compile cache.
func NewEvaluator() *ExprEvaluator {
	return &ExprEvaluator{cache: make(map[string]*vm.Program)}
}

// Evaluate compiles (or recalls) expression and runs it with env plus the
// standard math functions in scope. A binding shadows a function of the
// same name. Non-numeric results are errors.
func (e *ExprEvaluator) Evaluate(expression string, env Bindings) (float64, error) {
	prog, err := e.compile(expression)
	if err != nil {
		return 0, err
	}
	out, err := expr.Run(prog, runEnv(env))
	if err != nil {
		return 0, err
	}
	switch v := out.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, errors.Errorf("expression %q yielded %T, want number", expression, out)
	}
}

func (e *ExprEvaluator) compile(expression string) (*vm.Program, error) {
	e.mu.RLock()
	prog, ok := e.cache[expression]
	e.mu.RUnlock()
	if ok {
		return prog, nil
	}
	prog, err := expr.Compile(expression)
	if err != nil {
		return nil, errors.Wrapf(err, "compile %q", expression)
	}
	e.mu.Lock()
	e.cache[expression] = prog
	e.mu.Unlock()
	return prog, nil
}

// runEnv merges the math builtins with the bindings. Bindings win on name
// collision.
func runEnv(b Bindings) map[string]interface{} {
	env := make(map[string]interface{}, len(b)+len(mathFuncs))
	for k, v := range mathFuncs {
		env[k] = v
	}
	for k, v := range b {
		env[k] = v
	}
	return env
}
