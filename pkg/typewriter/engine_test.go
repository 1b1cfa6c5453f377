package typewriter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// step delivers the current tick of id, as the update loop would.
func step(e *Engine, id string) (done bool) {
	r, ok := e.runs[id]
	if !ok {
		return false
	}
	cmd := e.Update(TickMsg{ID: id, Gen: r.gen})
	if cmd == nil {
		return false
	}
	_, done = cmd().(DoneMsg)
	return
}

func TestStartRevealsEachPrefix(t *testing.T) {
	e := New(time.Millisecond)
	text := "你好, go"
	require.NotNil(t, e.Start("m1", text))
	assert.Equal(t, Running, e.State("m1"))

	seen := []string{e.Revealed("m1")}
	var dones int
	for i := 0; i < 20 && e.State("m1") == Running; i++ {
		if step(e, "m1") {
			dones++
		}
		seen = append(seen, e.Revealed("m1"))
	}

	runes := []rune(text)
	require.Len(t, seen, len(runes)+1)
	for i, s := range seen {
		assert.Equal(t, string(runes[:i]), s)
	}
	assert.Equal(t, 1, dones)
	assert.Equal(t, Completed, e.State("m1"))

	// more ticks after completion do nothing
	assert.Nil(t, e.Update(TickMsg{ID: "m1", Gen: e.runs["m1"].gen}))
}

func TestStartEmpty(t *testing.T) {
	e := New(0)
	assert.Equal(t, DefaultCadence, e.Cadence())
	cmd := e.Start("m", "")
	require.NotNil(t, cmd)
	assert.Equal(t, DoneMsg{ID: "m"}, cmd())
	assert.Equal(t, Completed, e.State("m"))
}

func TestRestartSupersedesStaleTicks(t *testing.T) {
	e := New(time.Millisecond)
	e.Start("m", "abc")
	old := e.runs["m"].gen
	step(e, "m")
	assert.Equal(t, "a", e.Revealed("m"))

	e.Start("m", "xyz")
	assert.Equal(t, "", e.Revealed("m"))
	assert.Nil(t, e.Update(TickMsg{ID: "m", Gen: old}))
	assert.Equal(t, "", e.Revealed("m"))

	step(e, "m")
	assert.Equal(t, "x", e.Revealed("m"))
}

func TestCancelAndClose(t *testing.T) {
	e := New(time.Millisecond)
	e.Start("a", "hello")
	e.Start("b", "world")
	ga, gb := e.runs["a"].gen, e.runs["b"].gen
	assert.True(t, e.Active())

	e.Cancel("a")
	assert.Equal(t, Idle, e.State("a"))
	assert.Nil(t, e.Update(TickMsg{ID: "a", Gen: ga}))

	e.Close()
	assert.Nil(t, e.Update(TickMsg{ID: "b", Gen: gb}))
	assert.False(t, e.Active())
	assert.Nil(t, e.Start("c", "x"))
}

func TestOpenRetargetSeal(t *testing.T) {
	e := New(time.Millisecond)
	assert.Nil(t, e.Open("m"))
	assert.Equal(t, Running, e.State("m"))

	require.NotNil(t, e.Retarget("m", "ab"))
	step(e, "m")
	assert.Equal(t, "a", e.Revealed("m"))

	// extends: progress kept, tick already pending
	assert.Nil(t, e.Retarget("m", "abcd"))
	assert.Equal(t, "a", e.Revealed("m"))

	for i := 0; i < 3; i++ {
		assert.False(t, step(e, "m"))
	}
	assert.Equal(t, "abcd", e.Revealed("m"))
	// caught up while open: waits, no tick
	assert.False(t, e.runs["m"].ticking)
	assert.Equal(t, Running, e.State("m"))

	require.NotNil(t, e.Retarget("m", "abcde"))
	assert.False(t, step(e, "m"))
	assert.Equal(t, Running, e.State("m"))

	cmd := e.Seal("m", "abcde")
	require.NotNil(t, cmd)
	assert.Equal(t, DoneMsg{ID: "m"}, cmd())
	assert.Equal(t, Completed, e.State("m"))
	assert.Nil(t, e.Seal("m", "abcde"))
}

func TestRetargetRewrite(t *testing.T) {
	e := New(time.Millisecond)
	e.Open("m")
	e.Retarget("m", "hello")
	step(e, "m")
	step(e, "m")
	old := e.runs["m"].gen
	assert.Equal(t, "he", e.Revealed("m"))

	require.NotNil(t, e.Retarget("m", "error: boom"))
	assert.Equal(t, "", e.Revealed("m"))
	assert.Nil(t, e.Update(TickMsg{ID: "m", Gen: old}))

	e.Seal("m", "error: boom")
	var dones int
	for i := 0; i < 20 && e.State("m") == Running; i++ {
		if step(e, "m") {
			dones++
		}
	}
	assert.Equal(t, 1, dones)
	assert.Equal(t, "error: boom", e.Revealed("m"))
}

func TestSealAhead(t *testing.T) {
	e := New(time.Millisecond)
	e.Open("m")
	require.NotNil(t, e.Seal("m", "ok"))
	assert.Equal(t, Running, e.State("m"))
	assert.False(t, step(e, "m"))
	assert.True(t, step(e, "m"))
	assert.Equal(t, Completed, e.State("m"))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "completed", Completed.String())
}
