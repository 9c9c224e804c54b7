// runner.go — the stepping controller.
//
// `Runner` owns one derivation-stepping session: it creates and discards
// the interpreter, records every produced ExecState into a History, and
// drives the cursor through it. Three layers of movement build on each
// other:
//
//	StepForward / StepBackward     one position; backward never executes,
//	                               forward re-executes only at the frontier
//	StepToCheckpoint / ToBoundary  synchronous two-phase walks: first leave
//	                               the position class currently under the
//	                               cursor, then run until re-entering it
//	StepToIndex                    checkpoint walks until the tracked
//	                               variable's last recorded value matches
//
// Lifecycle: Uninitialized → Running → Complete, re-entered via Refresh.
// A step failure is captured as a stored message — History keeps every
// state up to the last successful step, the session drops to a safe,
// non-running position, and the next Refresh starts clean.
//
// The controller is single-owner and call-driven. The only concurrent
// entry is the optional auto-play ticker, which funnels through the same
// public StepForward; the mutex exists solely for that.
package formulize

import (
	"io"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Runner drives a steppable derivation session over recorded history.
type Runner struct {
	mu  sync.Mutex
	ev  Evaluator
	log logrus.FieldLogger

	interp   *Interp
	hist     History
	errMsg   string
	complete bool

	seeking  bool
	seekSym  string
	seekIdx  int
	playStop chan struct{}
}

// NewRunner returns a Runner in the Uninitialized state. Logging is
// discarded until SetLogger.
func NewRunner(ev Evaluator) *Runner {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &Runner{ev: ev, log: l}
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(log logrus.FieldLogger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = log
}

// Refresh discards any previous session and starts a new one over src with
// the given initial bindings. On success History holds exactly the initial
// state and the cursor sits on it. An empty src or a parse failure is
// recorded in Err and leaves the runner Uninitialized.
func (r *Runner) Refresh(src string, initial Bindings) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopPlayLocked()
	r.hist.Reset()
	r.interp = nil
	r.errMsg = ""
	r.complete = false
	r.seeking = false
	r.seekSym = ""

	if strings.TrimSpace(src) == "" {
		err := configErrorf("refresh: empty source")
		r.errMsg = err.Error()
		return err
	}
	in, err := NewInterp(r.ev, src, initial)
	if err != nil {
		r.errMsg = err.Error()
		return err
	}
	r.interp = in
	r.hist.Append(in.State())
	r.log.WithField("bytes", len(src)).Debug("runner: refreshed")
	return nil
}

// StepForward advances one position: over recorded history when the cursor
// is behind the frontier (no re-execution), otherwise by executing one
// interpreter step and recording the result. No-op when uninitialized or
// when complete with nothing left to replay.
func (r *Runner) StepForward() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stepForwardLocked()
}

// StepBackward moves the cursor one recorded state back. History is never
// mutated; no-op at the first state.
func (r *Runner) StepBackward() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hist.Back()
}

// StepToCheckpoint runs forward until the next checkpoint. A cursor behind
// the frontier first snaps to the frontier without re-execution; a cursor
// already on a checkpoint first steps off it, so the seek never returns
// where it started.
func (r *Runner) StepToCheckpoint() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seekLocked(func(st ExecState) bool { return st.Checkpoint })
}

// StepToBoundary runs forward until the next structural boundary, with the
// same two-phase walk as StepToCheckpoint.
func (r *Runner) StepToBoundary() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seekLocked(func(st ExecState) bool { return st.Boundary })
}

// StepToIndex repeats checkpoint seeks until the most recently recorded
// value of sym at a checkpoint equals target, or execution completes. The
// seek flag and target are cleared on exit regardless of outcome.
func (r *Runner) StepToIndex(sym string, target int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.interp == nil {
		return
	}
	r.seeking = true
	r.seekSym = sym
	r.seekIdx = target
	defer func() {
		r.seeking = false
		r.seekSym = ""
		r.seekIdx = 0
	}()

	for r.errMsg == "" {
		before := r.hist.Cursor()
		r.seekLocked(func(st ExecState) bool { return st.Checkpoint })
		if st, ok := r.hist.Current(); ok && st.Checkpoint {
			if idx, ok := r.lastIndexLocked(sym); ok && idx == target {
				return
			}
		}
		if r.complete || r.hist.Cursor() == before {
			return
		}
	}
}

// Play starts auto-advance: one StepForward per tick until completion or
// Pause. No-op when uninitialized, complete, or already playing.
func (r *Runner) Play(interval time.Duration) {
	r.mu.Lock()
	if r.interp == nil || r.complete || r.playStop != nil {
		r.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	r.playStop = stop
	r.mu.Unlock()

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				r.StepForward()
				if r.Complete() {
					r.Pause()
					return
				}
			}
		}
	}()
}

// Pause cancels auto-advance, if running.
func (r *Runner) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopPlayLocked()
}

// Playing reports whether auto-advance is active.
func (r *Runner) Playing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playStop != nil
}

// History returns a copy of the recorded state log.
func (r *Runner) History() []ExecState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hist.States()
}

// Cursor returns the index of the state currently viewed.
func (r *Runner) Cursor() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hist.Cursor()
}

// Current returns the state under the cursor, false when uninitialized.
func (r *Runner) Current() (ExecState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hist.Current()
}

// Err returns the stored error message, empty when healthy.
func (r *Runner) Err() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.errMsg
}

// Complete reports whether execution reached its terminal state or failed.
func (r *Runner) Complete() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.complete
}

// Seeking reports whether a StepToIndex walk is in progress.
func (r *Runner) Seeking() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seeking
}

// ---------------------------------------------------------------------------
// internals (mu held)
// ---------------------------------------------------------------------------

func (r *Runner) stepForwardLocked() {
	if r.interp == nil {
		return
	}
	if !r.hist.AtFrontier() {
		r.hist.Forward()
		return
	}
	if r.complete || r.errMsg != "" {
		return
	}
	more, err := r.interp.Step()
	if err != nil {
		// History keeps every state up to the last good step; nothing
		// partial is appended.
		r.errMsg = err.Error()
		r.finishLocked()
		r.log.WithError(err).Warn("runner: step failed")
		return
	}
	r.hist.Append(r.interp.State())
	if !more {
		r.complete = true
		r.finishLocked()
		r.log.WithField("states", r.hist.Len()).Debug("runner: complete")
	}
}

// seekLocked is the shared two-phase walk: leave the current position if
// pred already holds there, then run forward until pred holds again. Every
// iteration re-checks completion, stored errors, and cursor progress, so
// the loop terminates on any finite script.
func (r *Runner) seekLocked(pred func(ExecState) bool) {
	if r.interp == nil {
		return
	}
	r.hist.SeekFrontier()

	for r.errMsg == "" {
		st, ok := r.hist.Current()
		if !ok || !pred(st) {
			break
		}
		if !r.advanceLocked() {
			return
		}
	}
	for r.errMsg == "" {
		st, ok := r.hist.Current()
		if ok && pred(st) {
			return
		}
		if !r.advanceLocked() {
			return
		}
	}
}

// advanceLocked performs one forward step and reports whether the cursor
// actually moved.
func (r *Runner) advanceLocked() bool {
	before := r.hist.Cursor()
	r.stepForwardLocked()
	return r.hist.Cursor() != before
}

// lastIndexLocked finds the tracked variable's value in the most recent
// checkpoint state at or before the cursor, rounded to int.
func (r *Runner) lastIndexLocked(sym string) (int, bool) {
	for i := r.hist.Cursor(); i >= 0; i-- {
		st := r.hist.At(i)
		if !st.Checkpoint {
			continue
		}
		v, ok := st.Vars[sym]
		if !ok {
			return 0, false
		}
		return int(math.Round(v)), true
	}
	return 0, false
}

// finishLocked clears every in-progress flag on completion or failure.
func (r *Runner) finishLocked() {
	r.seeking = false
	r.seekSym = ""
	r.seekIdx = 0
	r.stopPlayLocked()
}

func (r *Runner) stopPlayLocked() {
	if r.playStop != nil {
		close(r.playStop)
		r.playStop = nil
	}
}
