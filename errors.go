// errors.go — error taxonomy and caret-snippet rendering.
//
// Three failure classes cross the public boundary, and only two of them as
// Go errors:
//
//   • Unsolvable — a value (SolveResult / the "ok" bool of the
//     intersection API), never an error. Defined in value.go.
//   • *ConfigurationError — a workspace or runner was set up wrong (empty
//     source, duplicate symbol, cyclic dependencies). Reported immediately;
//     nothing gets created.
//   • *ScriptError — a derivation script failed to parse or raised during a
//     step. Carries 1-based line/col and, once bound to its source via
//     WrapWithSource, renders a caret snippet pointing at the offending
//     column.
//
// All of these leave the owning component resumable; nothing here is fatal
// to the process.
package formulize

import (
	"fmt"
	"strings"
)

// ConfigurationError reports an invalid setup request. The solver and
// stepping engines never emit it mid-operation.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string { return "configuration: " + e.Msg }

func configErrorf(format string, args ...interface{}) error {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}

// ScriptError is a parse- or step-time failure in a derivation script.
// Line and Col are 1-based. Phase is "parse" or "step". Snippet, when
// non-empty, is a rendered caret excerpt of the source.
type ScriptError struct {
	Phase   string
	Line    int
	Col     int
	Msg     string
	Snippet string
}

func (e *ScriptError) Error() string {
	if e.Snippet != "" {
		return e.Snippet
	}
	return fmt.Sprintf("%s error at %d:%d: %s", e.Phase, e.Line, e.Col, e.Msg)
}

// WrapWithSource binds a *ScriptError to the source text it was produced
// from, attaching a caret snippet. Any other error is returned unchanged.
func WrapWithSource(err error, src string) error {
	se, ok := err.(*ScriptError)
	if !ok {
		return err
	}
	header := "STEP ERROR"
	if se.Phase == "parse" {
		header = "PARSE ERROR"
	}
	se.Snippet = caretSnippet(src, header, se.Line, se.Col, se.Msg)
	return se
}

// caretSnippet builds a Python-like excerpt with a header line, up to one
// line of context on each side, and a caret under the 1-based column.
// Coordinates out of range are clamped so rendering never fails.
func caretSnippet(src, header string, line, col int, msg string) string {
	lines := strings.Split(src, "\n")
	if len(lines) == 0 {
		lines = []string{""}
	}
	if line < 1 {
		line = 1
	}
	if line > len(lines) {
		line = len(lines)
	}
	if col < 1 {
		col = 1
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s at %d:%d: %s\n\n", header, line, col, msg)
	if line > 1 {
		fmt.Fprintf(&b, "%4d | %s\n", line-1, lines[line-2])
	}
	fmt.Fprintf(&b, "%4d | %s\n", line, lines[line-1])
	fmt.Fprintf(&b, "     | %s^\n", strings.Repeat(" ", col-1))
	if line < len(lines) {
		fmt.Fprintf(&b, "%4d | %s\n", line+1, lines[line])
	}
	return b.String()
}
