package formulize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const sumScript = `let total = 0
for k in 1 .. 3 do
    total = total + k
end
total = total * 2
`

func newRunner(t *testing.T, src string, initial Bindings) *Runner {
	t.Helper()
	r := NewRunner(NewEvaluator())
	require.NoError(t, r.Refresh(src, initial))
	return r
}

func Test_Runner_Refresh_Initial_State(t *testing.T) {
	r := newRunner(t, sumScript, nil)
	require.Len(t, r.History(), 1)
	require.Equal(t, 0, r.Cursor())
	require.False(t, r.Complete())
	require.Empty(t, r.Err())
}

func Test_Runner_Refresh_Empty_Source(t *testing.T) {
	r := NewRunner(NewEvaluator())
	err := r.Refresh("   \n\t", nil)
	require.Error(t, err)
	require.IsType(t, &ConfigurationError{}, err)
	require.NotEmpty(t, r.Err())
	require.Empty(t, r.History())

	// Stepping without an interpreter is a no-op.
	r.StepForward()
	require.Empty(t, r.History())
}

func Test_Runner_Refresh_Parse_Error(t *testing.T) {
	r := NewRunner(NewEvaluator())
	err := r.Refresh("not a statement\n", nil)
	require.Error(t, err)
	require.IsType(t, &ScriptError{}, err)
	require.Empty(t, r.History())
}

func Test_Runner_Refresh_Discards_Previous_Session(t *testing.T) {
	r := newRunner(t, sumScript, nil)
	r.StepForward()
	r.StepForward()
	require.NoError(t, r.Refresh(sumScript, nil))
	require.Len(t, r.History(), 1)
	require.Equal(t, 0, r.Cursor())
}

func Test_Runner_Forward_Backward_Replay(t *testing.T) {
	r := newRunner(t, sumScript, nil)

	r.StepForward()
	require.Len(t, r.History(), 2)
	require.Equal(t, 1, r.Cursor())

	r.StepBackward()
	require.Equal(t, 0, r.Cursor())
	require.Len(t, r.History(), 2)

	// Forward over recorded history must not re-execute.
	r.StepForward()
	require.Equal(t, 1, r.Cursor())
	require.Len(t, r.History(), 2)
}

func Test_Runner_Backward_At_Start_Is_NoOp(t *testing.T) {
	r := newRunner(t, sumScript, nil)
	r.StepBackward()
	require.Equal(t, 0, r.Cursor())
}

func Test_Runner_Runs_To_Completion(t *testing.T) {
	r := newRunner(t, sumScript, nil)
	for i := 0; i < 1000 && !r.Complete(); i++ {
		r.StepForward()
	}
	require.True(t, r.Complete())

	hist := r.History()
	last := hist[len(hist)-1]
	require.True(t, last.Final)
	require.InDelta(t, 12, last.Vars["total"], 1e-12)

	// Further forward steps at the frontier are no-ops.
	r.StepForward()
	require.Len(t, r.History(), len(hist))
}

func Test_Runner_Replay_After_Completion(t *testing.T) {
	r := newRunner(t, sumScript, nil)
	for !r.Complete() {
		r.StepForward()
	}
	n := len(r.History())
	r.StepBackward()
	r.StepBackward()
	require.Equal(t, n-3, r.Cursor())
	r.StepForward()
	r.StepForward()
	require.Equal(t, n-1, r.Cursor())
	require.Len(t, r.History(), n, "replay must not re-execute")
}

func Test_Runner_StepToCheckpoint(t *testing.T) {
	r := newRunner(t, sumScript, nil)

	r.StepToCheckpoint()
	st, ok := r.Current()
	require.True(t, ok)
	require.True(t, st.Checkpoint)
	require.InDelta(t, 0, st.Vars["total"], 1e-12)

	// Sitting on a checkpoint: the seek must leave it first, not return
	// immediately.
	before := r.Cursor()
	r.StepToCheckpoint()
	st, _ = r.Current()
	require.True(t, st.Checkpoint)
	require.Greater(t, r.Cursor(), before)
	require.InDelta(t, 1, st.Vars["total"], 1e-12)
}

func Test_Runner_StepToCheckpoint_From_Behind_Frontier(t *testing.T) {
	r := newRunner(t, sumScript, nil)
	r.StepToCheckpoint()
	r.StepToCheckpoint()
	frontier := len(r.History()) - 1
	r.StepBackward()
	r.StepBackward()

	r.StepToCheckpoint()
	st, _ := r.Current()
	require.True(t, st.Checkpoint)
	require.Greater(t, r.Cursor(), frontier)
}

func Test_Runner_StepToCheckpoint_Runs_Out(t *testing.T) {
	r := newRunner(t, "let a = 1\n", nil)
	r.StepToCheckpoint() // lands on the only checkpoint
	r.StepToCheckpoint() // nothing left: must stop at completion
	require.True(t, r.Complete())
}

func Test_Runner_StepToBoundary(t *testing.T) {
	r := newRunner(t, sumScript, nil)

	// The iteration boundary is the `end` step, which advances the counter:
	// after the first iteration k has moved on to 2.
	r.StepToBoundary()
	st, ok := r.Current()
	require.True(t, ok)
	require.True(t, st.Boundary)
	require.InDelta(t, 2, st.Vars["k"], 1e-12)

	r.StepToBoundary()
	st, _ = r.Current()
	require.True(t, st.Boundary)
	require.InDelta(t, 3, st.Vars["k"], 1e-12)
}

func Test_Runner_StepToIndex(t *testing.T) {
	r := newRunner(t, sumScript, nil)
	r.StepToIndex("k", 2)

	st, ok := r.Current()
	require.True(t, ok)
	require.True(t, st.Checkpoint)
	require.InDelta(t, 2, st.Vars["k"], 1e-12)
	require.False(t, r.Complete())
	require.False(t, r.Seeking(), "seek flag must clear on exit")
}

func Test_Runner_StepToIndex_Unreachable_Completes(t *testing.T) {
	r := newRunner(t, sumScript, nil)
	r.StepToIndex("k", 99)
	require.True(t, r.Complete())
	require.False(t, r.Seeking())
}

func Test_Runner_StepToIndex_Unknown_Variable_Completes(t *testing.T) {
	r := newRunner(t, sumScript, nil)
	r.StepToIndex("ghost", 1)
	require.True(t, r.Complete())
}

func Test_Runner_Step_Error_Preserves_History(t *testing.T) {
	r := newRunner(t, "a = 1\nb = nope * 2\nc = 3\n", nil)
	r.StepForward() // a = 1
	require.Len(t, r.History(), 2)

	r.StepForward() // fails
	require.NotEmpty(t, r.Err())
	require.Contains(t, r.Err(), "STEP ERROR")
	require.Len(t, r.History(), 2, "no partial entry may be appended")

	// The session is no longer running: no further execution...
	r.StepForward()
	require.Len(t, r.History(), 2)

	// ...but recorded history is still browsable.
	r.StepBackward()
	require.Equal(t, 0, r.Cursor())
	r.StepForward()
	require.Equal(t, 1, r.Cursor())

	// And a refresh recovers completely.
	require.NoError(t, r.Refresh("a = 1\n", nil))
	require.Empty(t, r.Err())
}

func Test_Runner_Seek_Stops_On_Error(t *testing.T) {
	r := newRunner(t, "a = 1\nb = nope * 2\n", nil)
	r.StepToCheckpoint()
	r.StepToCheckpoint()
	require.NotEmpty(t, r.Err())
	require.False(t, r.Seeking())
}

func Test_Runner_Play_Runs_To_Completion(t *testing.T) {
	r := newRunner(t, sumScript, nil)
	r.Play(time.Millisecond)
	require.True(t, r.Playing())

	deadline := time.Now().Add(5 * time.Second)
	for !r.Complete() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	require.True(t, r.Complete())

	for r.Playing() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	require.False(t, r.Playing(), "auto-play must stop itself at completion")
}

func Test_Runner_Pause_Stops_Play(t *testing.T) {
	r := newRunner(t, sumScript, nil)
	r.Play(time.Hour) // never ticks in test time
	require.True(t, r.Playing())
	r.Pause()
	require.False(t, r.Playing())
	r.Pause() // idempotent
}

func Test_Runner_Play_When_Complete_Is_NoOp(t *testing.T) {
	r := newRunner(t, "a = 1\n", nil)
	for !r.Complete() {
		r.StepForward()
	}
	r.Play(time.Millisecond)
	require.False(t, r.Playing())
}

func Test_Runner_Initial_Bindings_Flow_Into_Snapshots(t *testing.T) {
	r := newRunner(t, "K = 0.5*{m}*{v}*{v}\n", Bindings{"m": 1, "v": 2})
	r.StepForward()
	st, _ := r.Current()
	require.InDelta(t, 2.0, st.Vars["K"], 1e-12)
}

func Test_Runner_History_Indices_Match_Positions(t *testing.T) {
	r := newRunner(t, sumScript, nil)
	for !r.Complete() {
		r.StepForward()
	}
	for i, st := range r.History() {
		require.Equal(t, i, st.Index)
		require.LessOrEqual(t, st.Start, st.End)
		require.LessOrEqual(t, st.End, len(sumScript))
	}
}
