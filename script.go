// script.go — parser for derivation scripts.
//
// A derivation script is the manually-written, steppable counterpart of a
// relation: a restricted, line-oriented statement grammar. It is exactly as
// small as stepping requires — there is no general-purpose language here,
// and script text is never executed through any host eval mechanism.
//
//	# comment
//	let total = 0
//	for k in 1 .. n do
//	    total = total + k
//	end
//
// Statements:
//   • assignment       `let IDENT = EXPR` or `IDENT = EXPR`
//   • bounded loop     `for IDENT in EXPR .. EXPR do` … `end`
//
// EXPR is arithmetic handed to the Evaluator; variable references may be
// written bare or braced (`{m}`) — braces are stripped before evaluation,
// so relation text can be pasted into scripts unchanged.
//
// The parser records the byte span [Start, End) of every statement (and of
// each `end` keyword) against the original source; the interpreter turns
// those into highlight ranges. Parse failures are *ScriptError with 1-based
// line/col and a caret snippet.
package formulize

import (
	"fmt"
	"strings"
)

type stmtKind int

const (
	stmtAssign stmtKind = iota
	stmtFor
)

type stmt struct {
	kind stmtKind
	line int // 1-based source line

	start, end int // byte span of the statement's own line

	sym  string // assignment target or loop counter
	expr string // assignment RHS

	from, to string // loop bound expressions
	body     []stmt
	endSpan  [2]int // byte span of the matching `end`
}

// Script is a parsed derivation script, reusable across interpreter runs.
type Script struct {
	src   string
	stmts []stmt
}

// Source returns the original script text.
func (s *Script) Source() string { return s.src }

// ParseScript parses src into a Script. The returned error, if any, is a
// *ScriptError carrying a caret snippet.
func ParseScript(src string) (*Script, error) {
	p := &scriptParser{}
	p.split(src)
	stmts, err := p.block(false)
	if err != nil {
		return nil, WrapWithSource(err, src)
	}
	return &Script{src: src, stmts: stmts}, nil
}

type srcLine struct {
	text   string // trimmed text
	num    int    // 1-based line number
	start  int    // byte offset of first non-space byte
	end    int    // byte offset past last non-space byte
	indent int    // leading bytes trimmed (for error columns)
}

type scriptParser struct {
	lines []srcLine
	pos   int
}

// split breaks src into trimmed lines with byte offsets, dropping blanks
// and comments.
func (p *scriptParser) split(src string) {
	off := 0
	num := 0
	for _, raw := range strings.Split(src, "\n") {
		num++
		text := strings.TrimRight(raw, " \t\r")
		lead := len(text) - len(strings.TrimLeft(text, " \t"))
		trimmed := text[lead:]
		if trimmed != "" && !strings.HasPrefix(trimmed, "#") {
			p.lines = append(p.lines, srcLine{
				text:   trimmed,
				num:    num,
				start:  off + lead,
				end:    off + len(text),
				indent: lead,
			})
		}
		off += len(raw) + 1
	}
}

// block parses statements until EOF, or until `end` when inFor is set.
func (p *scriptParser) block(inFor bool) ([]stmt, error) {
	stmts := []stmt{}
	for p.pos < len(p.lines) {
		ln := p.lines[p.pos]
		if ln.text == "end" {
			if !inFor {
				return nil, p.errf(ln, 0, "unexpected 'end'")
			}
			return stmts, nil
		}
		var (
			st  stmt
			err error
		)
		if word(ln.text) == "for" {
			st, err = p.forStmt(ln)
		} else {
			st, err = p.assignStmt(ln)
		}
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, st)
	}
	if inFor {
		return nil, p.errf(p.lines[len(p.lines)-1], 0, "unterminated 'for': missing 'end'")
	}
	return stmts, nil
}

// assignStmt parses `let IDENT = EXPR` or `IDENT = EXPR` at ln.
func (p *scriptParser) assignStmt(ln srcLine) (stmt, error) {
	text := ln.text
	rest := text
	if word(text) == "let" {
		rest = strings.TrimLeft(text[len("let"):], " \t")
	}
	eq := strings.IndexByte(rest, '=')
	if eq < 0 {
		return stmt{}, p.errf(ln, 0, "expected '=' in assignment")
	}
	sym := strings.TrimSpace(rest[:eq])
	if !isIdent(sym) {
		return stmt{}, p.errf(ln, 0, "invalid assignment target %q", sym)
	}
	rhs := strings.TrimSpace(rest[eq+1:])
	if rhs == "" {
		return stmt{}, p.errf(ln, eq, "empty expression after '='")
	}
	p.pos++
	return stmt{
		kind:  stmtAssign,
		line:  ln.num,
		start: ln.start,
		end:   ln.end,
		sym:   sym,
		expr:  rhs,
	}, nil
}

// forStmt parses `for IDENT in EXPR .. EXPR do` plus its body and `end`.
func (p *scriptParser) forStmt(ln srcLine) (stmt, error) {
	text := ln.text
	if !strings.HasSuffix(text, " do") {
		return stmt{}, p.errf(ln, len(text)-1, "'for' header must end with 'do'")
	}
	head := strings.TrimSpace(text[len("for") : len(text)-len("do")])
	in := strings.Index(head, " in ")
	if in < 0 {
		return stmt{}, p.errf(ln, 0, "'for' header must name a counter: for k in a .. b do")
	}
	sym := strings.TrimSpace(head[:in])
	if !isIdent(sym) {
		return stmt{}, p.errf(ln, 0, "invalid loop counter %q", sym)
	}
	bounds := head[in+len(" in "):]
	dots := strings.Index(bounds, "..")
	if dots < 0 {
		return stmt{}, p.errf(ln, 0, "'for' bounds must be written a .. b")
	}
	from := strings.TrimSpace(bounds[:dots])
	to := strings.TrimSpace(bounds[dots+2:])
	if from == "" || to == "" {
		return stmt{}, p.errf(ln, 0, "'for' bounds must be written a .. b")
	}

	p.pos++
	body, err := p.block(true)
	if err != nil {
		return stmt{}, err
	}
	// block(true) stops at the `end` line without consuming it.
	endLn := p.lines[p.pos]
	p.pos++

	return stmt{
		kind:    stmtFor,
		line:    ln.num,
		start:   ln.start,
		end:     ln.end,
		sym:     sym,
		from:    from,
		to:      to,
		body:    body,
		endSpan: [2]int{endLn.start, endLn.end},
	}, nil
}

func (p *scriptParser) errf(ln srcLine, col int, format string, args ...interface{}) error {
	return &ScriptError{
		Phase: "parse",
		Line:  ln.num,
		Col:   ln.indent + col + 1,
		Msg:   fmt.Sprintf(format, args...),
	}
}

// word returns the first space-delimited token of s.
func word(s string) string {
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i]
	}
	return s
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !isIdentByte(c) || (i == 0 && c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}
