// Package relay runs one chat request against the upstream provider and
// re-emits its reply as normalized stream events, keeping per-user history.
package relay

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/liut/typist/pkg/models/aigc"
	"github.com/liut/typist/pkg/services/llm"
	"github.com/liut/typist/pkg/services/stores"
)

const dftSystemMsg = "You are a helpful assistant."

// errors
var (
	ErrInvalidInput = errors.New("message must not be empty")
	ErrClientGone   = errors.New("downstream client gone")
)

// Emitter writes events to the downstream client, an error means the client is gone.
type Emitter interface {
	Emit(ev aigc.StreamEvent) error
}

// EmitterFunc ...
type EmitterFunc func(ev aigc.StreamEvent) error

func (f EmitterFunc) Emit(ev aigc.StreamEvent) error { return f(ev) }

// Request ...
type Request struct {
	UserID  string
	Message string
}

// Validate ...
func (r Request) Validate() error {
	if len(strings.TrimSpace(r.Message)) == 0 {
		return ErrInvalidInput
	}
	return nil
}

// Result of a non-streaming call
type Result struct {
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

// Config ...
type Config struct {
	Store    stores.ConversationStore
	Provider llm.Provider
	Preamble string // system prompt
	Window   int    // turns of history sent upstream
	Cap      int    // max turns kept per user
}

// Relay ...
type Relay struct {
	sto      stores.ConversationStore
	pvd      llm.Provider
	preamble string
	window   int
	cap      int

	now func() time.Time
}

// New ...
func New(cfg Config) *Relay {
	r := &Relay{
		sto:      cfg.Store,
		pvd:      cfg.Provider,
		preamble: cfg.Preamble,
		window:   cfg.Window,
		cap:      cfg.Cap,
		now:      time.Now,
	}
	if len(r.preamble) == 0 {
		r.preamble = dftSystemMsg
	}
	if r.window <= 0 {
		r.window = stores.ContextWindow
	}
	if r.cap <= 0 {
		r.cap = stores.HistoryMaxLength
	}
	return r
}

// Provider ...
func (r *Relay) Provider() llm.Provider { return r.pvd }

// prepare validates and records the user turn, then builds the upstream context.
func (r *Relay) prepare(req Request) (aigc.Messages, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	r.sto.Append(req.UserID, aigc.NewMessage(aigc.RoleUser, req.Message))

	messages := aigc.Messages{aigc.NewMessage(aigc.RoleSystem, r.preamble)}
	messages = append(messages, r.sto.RecentWindow(req.UserID, r.window)...)
	return messages, nil
}

func (r *Relay) finish(userID, answer string) {
	r.sto.Append(userID, aigc.NewMessage(aigc.RoleAssistant, answer))
	r.sto.Truncate(userID, r.cap)
}

// Stream relays one request. It returns ErrInvalidInput before any side effect,
// ErrClientGone when the emitter failed; upstream failures are sent as one error
// event and are not returned.
func (r *Relay) Stream(ctx context.Context, req Request, em Emitter) error {
	messages, err := r.prepare(req)
	if err != nil {
		return err
	}
	logger().Infow("chat stream", "uid", req.UserID, "msgs", len(messages), "provider", r.pvd.Name())

	fail := func(err error) error {
		if ctx.Err() != nil {
			logger().Infow("client gone while streaming", "uid", req.UserID, "err", err)
			return ErrClientGone
		}
		msg := llm.Classify(err)
		logger().Infow("upstream fail", "uid", req.UserID, "err", err, "msg", msg)
		if e := em.Emit(aigc.ErrorEvent(msg)); e != nil {
			return ErrClientGone
		}
		return nil
	}

	ccs, err := r.pvd.Stream(ctx, messages)
	if err != nil {
		return fail(err)
	}
	defer ccs.Close()

	var answer strings.Builder
	for {
		ck, err := ccs.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// partial text, if any, is not recorded
			return fail(err)
		}
		if len(ck.Content) == 0 {
			continue
		}
		answer.WriteString(ck.Content)
		if err = em.Emit(aigc.DeltaEvent(ck.Content, answer.String())); err != nil {
			logger().Infow("emit fail, stop relay", "uid", req.UserID, "err", err)
			return ErrClientGone
		}
	}

	full := answer.String()
	r.finish(req.UserID, full)
	logger().Infow("stream done", "uid", req.UserID, "answer", len(full))
	if err = em.Emit(aigc.DoneEvent(full)); err != nil {
		return ErrClientGone
	}
	return nil
}

// Complete is the non-streaming fallback. An upstream failure yields its
// classified message as the response and no assistant turn.
func (r *Relay) Complete(ctx context.Context, req Request) (*Result, error) {
	messages, err := r.prepare(req)
	if err != nil {
		return nil, err
	}
	logger().Infow("chat", "uid", req.UserID, "msgs", len(messages), "provider", r.pvd.Name())

	answer, err := r.pvd.Complete(ctx, messages)
	if err != nil {
		logger().Infow("completion fail", "uid", req.UserID, "err", err)
		return &Result{Response: llm.Classify(err), Timestamp: r.now()}, nil
	}
	r.finish(req.UserID, answer)
	return &Result{Response: answer, Timestamp: r.now()}, nil
}
