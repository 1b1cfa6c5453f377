package client

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/liut/typist/pkg/models/aigc"
)

func TestMessageTransitions(t *testing.T) {
	m := NewMessage(SenderAI)
	assert.Equal(t, PhaseIdle, m.Phase)
	assert.NotEmpty(t, m.ID)

	assert.Equal(t, ActRetarget, m.Apply(aigc.DeltaEvent("He", "He")))
	assert.Equal(t, PhaseAnimating, m.Phase)
	assert.Equal(t, "He", m.Pending)
	assert.Equal(t, "", m.Committed)
	assert.Equal(t, "H", m.Text("H"))

	// overwrite with the cumulative text, even after a missed event
	assert.Equal(t, ActRetarget, m.Apply(aigc.DeltaEvent("o", "Hello")))
	assert.Equal(t, "Hello", m.Pending)

	assert.Equal(t, ActSeal, m.Apply(aigc.DoneEvent("Hello!")))
	assert.True(t, m.Closed)
	assert.Equal(t, "Hello!", m.Pending)
	assert.True(t, m.Animating())

	// late delta ignored
	assert.Equal(t, ActNone, m.Apply(aigc.DeltaEvent("x", "x")))

	m.Finish()
	assert.Equal(t, PhaseSettled, m.Phase)
	assert.Equal(t, m.Pending, m.Committed)
	assert.Equal(t, "Hello!", m.Text(""))
	assert.Equal(t, ActNone, m.Apply(aigc.ErrorEvent("boom")))
}

func TestMessageError(t *testing.T) {
	m := NewMessage(SenderAI)
	m.Apply(aigc.DeltaEvent("par", "par"))
	assert.Equal(t, ActStop, m.Apply(aigc.ErrorEvent("rate limited")))
	assert.True(t, m.Static)
	assert.True(t, m.Closed)
	assert.Equal(t, PhaseSettled, m.Phase)
	assert.Equal(t, "rate limited", m.Committed)
	assert.Equal(t, m.Pending, m.Committed)
}

func TestMessageSettle(t *testing.T) {
	m := NewMessage(SenderAI)
	m.Apply(aigc.DeltaEvent("abc", "abc"))
	m.Settle()
	assert.Equal(t, PhaseSettled, m.Phase)
	assert.Equal(t, "abc", m.Committed)
	assert.False(t, m.Static)

	assert.Equal(t, ActNone, m.Fail(errors.New("late")))
	assert.Equal(t, "abc", m.Committed)
}

func TestNewStatic(t *testing.T) {
	m := NewStatic(SenderSystem, "welcome")
	assert.Equal(t, "welcome", m.Text("w"))
	assert.True(t, m.Static)
	assert.Equal(t, PhaseSettled.String(), m.Phase.String())
	assert.Equal(t, "idle", PhaseIdle.String())
	assert.Equal(t, "animating", PhaseAnimating.String())
}
