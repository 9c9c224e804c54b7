// history.go — append-only execution history with a browsing cursor.
//
// History records every ExecState a stepping session produces, in order.
// Entries are never rewritten or dropped except by Reset (a wholesale
// discard on refresh). The cursor is the position being viewed; it moves
// backward freely and forward only over already-recorded entries — growing
// the log is the controller's job, via Append at the frontier.
package formulize

// History is the ordered log of recorded execution states.
type History struct {
	states []ExecState
	cursor int
}

// Len returns the number of recorded states.
func (h *History) Len() int { return len(h.states) }

// Frontier returns the index of the newest recorded state, -1 when empty.
func (h *History) Frontier() int { return len(h.states) - 1 }

// Cursor returns the index currently being viewed.
func (h *History) Cursor() int { return h.cursor }

// AtFrontier reports whether the cursor sits on the newest state.
func (h *History) AtFrontier() bool { return h.cursor == len(h.states)-1 }

// At returns the state at index i. It panics on out-of-range i, matching
// slice semantics; callers index with Cursor/Frontier values.
func (h *History) At(i int) ExecState { return h.states[i] }

// Current returns the state under the cursor and false when empty.
func (h *History) Current() (ExecState, bool) {
	if len(h.states) == 0 {
		return ExecState{}, false
	}
	return h.states[h.cursor], true
}

// Append records a new state at the frontier and moves the cursor to it.
func (h *History) Append(st ExecState) {
	h.states = append(h.states, st)
	h.cursor = len(h.states) - 1
}

// Back moves the cursor one entry toward the start. It reports whether the
// cursor moved; the log itself is untouched.
func (h *History) Back() bool {
	if h.cursor <= 0 {
		return false
	}
	h.cursor--
	return true
}

// Forward moves the cursor one entry toward the frontier, replaying a
// recorded state without re-execution. It reports whether the cursor moved.
func (h *History) Forward() bool {
	if h.cursor >= len(h.states)-1 {
		return false
	}
	h.cursor++
	return true
}

// SeekFrontier moves the cursor to the newest recorded state.
func (h *History) SeekFrontier() {
	if n := len(h.states); n > 0 {
		h.cursor = n - 1
	}
}

// States returns a copy of the recorded log for external display. The
// ExecStates themselves are immutable snapshots.
func (h *History) States() []ExecState {
	out := make([]ExecState, len(h.states))
	copy(out, h.states)
	return out
}

// Reset discards the log wholesale and rewinds the cursor.
func (h *History) Reset() {
	h.states = nil
	h.cursor = 0
}
