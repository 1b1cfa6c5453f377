package client

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/liut/typist/pkg/models/aigc"
)

// Sender of a displayed message
type Sender string

// senders
const (
	SenderUser   Sender = "user"
	SenderAI     Sender = "ai"
	SenderSystem Sender = "system"
)

// Phase of a displayed message
type Phase int

// phases
const (
	PhaseIdle Phase = iota
	PhaseAnimating
	PhaseSettled
)

func (p Phase) String() string {
	switch p {
	case PhaseAnimating:
		return "animating"
	case PhaseSettled:
		return "settled"
	}
	return "idle"
}

// Action asks the renderer to do something after a transition.
type Action int

// actions
const (
	ActNone     Action = iota
	ActRetarget        // keep typing towards Pending
	ActSeal            // Pending is final
	ActStop            // drop the animation, show Committed as is
)

// DisplayMessage is one entry of the chat transcript.
//
// Committed is the text fully revealed and stable, Pending the latest cumulative
// text known from the server. Once settled, Committed equals Pending.
type DisplayMessage struct {
	ID        string
	Sender    Sender
	Committed string
	Pending   string
	Phase     Phase
	Static    bool // shown without animation
	Closed    bool // no more events will arrive
	Time      time.Time
}

// NewMessage returns an idle message waiting for its text.
func NewMessage(sender Sender) *DisplayMessage {
	return &DisplayMessage{ID: uuid.NewString(), Sender: sender, Time: time.Now()}
}

// NewStatic returns a settled message with text.
func NewStatic(sender Sender, text string) *DisplayMessage {
	m := NewMessage(sender)
	m.Committed, m.Pending = text, text
	m.Phase, m.Static, m.Closed = PhaseSettled, true, true
	return m
}

// Apply folds one stream event into the message.
func (m *DisplayMessage) Apply(ev aigc.StreamEvent) Action {
	if m.Phase == PhaseSettled {
		return ActNone
	}
	switch ev.Kind() {
	case aigc.EventDelta:
		if m.Closed {
			return ActNone
		}
		m.Pending = ev.FullText
		m.Phase = PhaseAnimating
		return ActRetarget
	case aigc.EventTerminal:
		m.Pending = ev.FullText
		m.Closed = true
		m.Phase = PhaseAnimating
		return ActSeal
	case aigc.EventError:
		m.settleStatic(ev.Error)
		return ActStop
	}
	return ActNone
}

// Fail settles the message with a transport failure.
func (m *DisplayMessage) Fail(err error) Action {
	if m.Phase == PhaseSettled {
		return ActNone
	}
	msg := err.Error()
	if errors.Is(err, ErrTransport) {
		msg = "Network error: " + msg
	}
	m.settleStatic(msg)
	return ActStop
}

// Finish marks the animation complete.
func (m *DisplayMessage) Finish() {
	m.Committed = m.Pending
	m.Phase = PhaseSettled
}

// Settle ends the message early, as when a new send interrupts its animation.
func (m *DisplayMessage) Settle() {
	if m.Phase == PhaseSettled {
		return
	}
	m.Closed = true
	m.Finish()
}

// Animating ...
func (m *DisplayMessage) Animating() bool { return m.Phase == PhaseAnimating }

// Text to display given the renderer's revealed prefix.
func (m *DisplayMessage) Text(revealed string) string {
	if m.Phase == PhaseAnimating {
		return revealed
	}
	return m.Committed
}

func (m *DisplayMessage) settleStatic(text string) {
	m.Pending = text
	m.Static = true
	m.Closed = true
	m.Finish()
}

// Consume drains a stream into m, calling fn after every transition.
// It closes the stream.
func Consume(st *Stream, m *DisplayMessage, fn func(Action)) error {
	defer st.Close()
	for {
		ev, err := st.Next()
		if err != nil {
			if errors.Is(err, ErrTransport) {
				act := m.Fail(err)
				if fn != nil {
					fn(act)
				}
				return err
			}
			return nil
		}
		act := m.Apply(ev)
		if fn != nil {
			fn(act)
		}
	}
}
