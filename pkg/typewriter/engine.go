// Package typewriter reveals message text one rune at a time on a fixed cadence.
//
// All methods are meant to be called from a single bubbletea update loop.
package typewriter

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// DefaultCadence per rune
const DefaultCadence = 30 * time.Millisecond

// State of a run
type State int

// states
const (
	Idle State = iota
	Running
	Completed
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Completed:
		return "completed"
	}
	return "idle"
}

// TickMsg advances the run of ID if Gen is still current.
type TickMsg struct {
	ID  string
	Gen uint64
}

// DoneMsg fires once when the run of ID is fully revealed.
type DoneMsg struct {
	ID string
}

type run struct {
	target  []rune
	shown   int
	gen     uint64
	state   State
	open    bool // target may still grow
	ticking bool // a tick is scheduled
}

// Engine holds the runs keyed by message id.
type Engine struct {
	cadence time.Duration
	runs    map[string]*run
	gen     uint64
	closed  bool
}

// New ...
func New(cadence time.Duration) *Engine {
	if cadence <= 0 {
		cadence = DefaultCadence
	}
	return &Engine{cadence: cadence, runs: make(map[string]*run)}
}

// Cadence ...
func (e *Engine) Cadence() time.Duration { return e.cadence }

func (e *Engine) nextGen() uint64 {
	e.gen++
	return e.gen
}

func (e *Engine) tick(id string, r *run) tea.Cmd {
	r.ticking = true
	gen := r.gen
	return tea.Tick(e.cadence, func(time.Time) tea.Msg {
		return TickMsg{ID: id, Gen: gen}
	})
}

func (e *Engine) complete(id string, r *run) tea.Cmd {
	r.state = Completed
	r.ticking = false
	return func() tea.Msg { return DoneMsg{ID: id} }
}

// Start supersedes any run of id and types target from an empty prefix.
func (e *Engine) Start(id, target string) tea.Cmd {
	if e.closed {
		return nil
	}
	r := &run{target: []rune(target), gen: e.nextGen(), state: Running}
	e.runs[id] = r
	if len(r.target) == 0 {
		return e.complete(id, r)
	}
	return e.tick(id, r)
}

// Open starts a run whose target is not known yet.
func (e *Engine) Open(id string) tea.Cmd {
	if e.closed {
		return nil
	}
	e.runs[id] = &run{gen: e.nextGen(), state: Running, open: true}
	return nil
}

// Retarget grows the target of an open run. Progress is kept when text extends
// the current target, otherwise typing restarts from empty.
func (e *Engine) Retarget(id, text string) tea.Cmd {
	r, ok := e.runs[id]
	if e.closed || !ok || r.state != Running {
		return nil
	}
	next := []rune(text)
	if !hasPrefix(next, r.target) {
		// 内容被改写，从头再来
		r.gen = e.nextGen()
		r.shown = 0
		r.ticking = false
	}
	r.target = next
	if !r.ticking && r.shown < len(r.target) {
		return e.tick(id, r)
	}
	return nil
}

// Seal fixes the final target, the run completes once it is fully revealed.
func (e *Engine) Seal(id, text string) tea.Cmd {
	r, ok := e.runs[id]
	if e.closed || !ok || r.state != Running {
		return nil
	}
	cmd := e.Retarget(id, text)
	r.open = false
	if !r.ticking && r.shown >= len(r.target) {
		return e.complete(id, r)
	}
	return cmd
}

// Update handles a TickMsg, stale ticks are ignored.
func (e *Engine) Update(msg TickMsg) tea.Cmd {
	r, ok := e.runs[msg.ID]
	if e.closed || !ok || r.gen != msg.Gen || r.state != Running {
		return nil
	}
	r.ticking = false
	if r.shown < len(r.target) {
		r.shown++
	}
	if r.shown < len(r.target) {
		return e.tick(msg.ID, r)
	}
	if r.open {
		return nil
	}
	return e.complete(msg.ID, r)
}

// Cancel drops the run of id without completion.
func (e *Engine) Cancel(id string) {
	delete(e.runs, id)
}

// CancelAll drops every run.
func (e *Engine) CancelAll() {
	e.runs = make(map[string]*run)
}

// Close tears the engine down, pending ticks become no-ops.
func (e *Engine) Close() {
	e.closed = true
	e.runs = make(map[string]*run)
}

// Revealed returns the visible prefix of id.
func (e *Engine) Revealed(id string) string {
	if r, ok := e.runs[id]; ok {
		return string(r.target[:r.shown])
	}
	return ""
}

// State of the run of id, Idle when there is none.
func (e *Engine) State(id string) State {
	if r, ok := e.runs[id]; ok {
		return r.state
	}
	return Idle
}

// Active reports whether any run is still typing.
func (e *Engine) Active() bool {
	for _, r := range e.runs {
		if r.state == Running {
			return true
		}
	}
	return false
}

func hasPrefix(s, prefix []rune) bool {
	if len(prefix) > len(s) {
		return false
	}
	for i := range prefix {
		if s[i] != prefix[i] {
			return false
		}
	}
	return true
}
