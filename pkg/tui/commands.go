package tui

import (
	"context"
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/liut/typist/pkg/client"
	"github.com/liut/typist/pkg/models/aigc"
)

// Backend is the part of client.Client the chat view needs.
type Backend interface {
	Send(ctx context.Context, text string) (*client.Stream, error)
	Clear(ctx context.Context) error
}

var _ Backend = (*client.Client)(nil)

type (
	// streamOpenedMsg carries the reply stream of message id
	streamOpenedMsg struct {
		id string
		st *client.Stream
	}
	eventMsg struct {
		id string
		ev aigc.StreamEvent
	}
	streamEndMsg struct {
		id string
	}
	streamErrMsg struct {
		id  string
		err error
	}
	clearedMsg struct {
		err error
	}
)

func sendCmd(ctx context.Context, be Backend, id, text string) tea.Cmd {
	return func() tea.Msg {
		st, err := be.Send(ctx, text)
		if err != nil {
			return streamErrMsg{id: id, err: err}
		}
		return streamOpenedMsg{id: id, st: st}
	}
}

// nextCmd reads one event, the next read is only issued after it is handled.
func nextCmd(id string, st *client.Stream) tea.Cmd {
	return func() tea.Msg {
		ev, err := st.Next()
		if errors.Is(err, io.EOF) {
			return streamEndMsg{id: id}
		}
		if err != nil {
			return streamErrMsg{id: id, err: err}
		}
		return eventMsg{id: id, ev: ev}
	}
}

func clearCmd(ctx context.Context, be Backend) tea.Cmd {
	return func() tea.Msg {
		return clearedMsg{err: be.Clear(ctx)}
	}
}
