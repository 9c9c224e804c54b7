// program.go
package formulize

// A parsed script is flattened to micro-ops before stepping. One op is one
// atomic step; control flow is explicit jumps, so the interpreter's step
// loop never recurses into statement structure.

type opKind int

const (
	opAssign   opKind = iota // eval expr, bind sym; checkpoint
	opLoopInit               // eval from/to, bind counter, record limit
	opLoopTest               // if counter > limit, jump past the loop
	opLoopIncr               // counter += 1, jump back to the test; boundary
	opEnd                    // terminal; boundary + final
)

type op struct {
	kind opKind
	sym  string
	expr string // opAssign RHS or opLoopInit lower bound
	to   string // opLoopInit upper bound

	ref  int // opLoopTest/opLoopIncr: pc of the owning opLoopInit
	jump int // opLoopTest: first pc past the loop; opLoopIncr: pc of the test

	start, end int // highlight span
	line       int

	checkpoint bool
	boundary   bool
}

type program struct {
	ops []op
	src string
}

func compileScript(s *Script) *program {
	c := &compiler{src: s.src}
	c.block(s.stmts)
	c.ops = append(c.ops, op{
		kind:     opEnd,
		boundary: true,
		start:    len(s.src),
		end:      len(s.src),
	})
	return &program{ops: c.ops, src: s.src}
}

type compiler struct {
	src string
	ops []op
}

func (c *compiler) block(stmts []stmt) {
	for _, st := range stmts {
		switch st.kind {
		case stmtAssign:
			c.ops = append(c.ops, op{
				kind:       opAssign,
				sym:        st.sym,
				expr:       StripRefs(st.expr),
				start:      st.start,
				end:        st.end,
				line:       st.line,
				checkpoint: true,
			})
		case stmtFor:
			initPC := len(c.ops)
			c.ops = append(c.ops, op{
				kind:  opLoopInit,
				sym:   st.sym,
				expr:  StripRefs(st.from),
				to:    StripRefs(st.to),
				start: st.start,
				end:   st.end,
				line:  st.line,
			})
			testPC := len(c.ops)
			c.ops = append(c.ops, op{
				kind:  opLoopTest,
				sym:   st.sym,
				ref:   initPC,
				start: st.start,
				end:   st.end,
				line:  st.line,
			})
			c.block(st.body)
			c.ops = append(c.ops, op{
				kind:     opLoopIncr,
				sym:      st.sym,
				ref:      initPC,
				jump:     testPC,
				start:    st.endSpan[0],
				end:      st.endSpan[1],
				line:     st.line,
				boundary: true,
			})
			c.ops[testPC].jump = len(c.ops)
		}
	}
}
