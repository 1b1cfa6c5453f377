package aigc

import (
	"encoding/json"
)

// EventKind of a StreamEvent
type EventKind int8

// kinds
const (
	EventDelta EventKind = iota + 1
	EventTerminal
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventDelta:
		return "content-delta"
	case EventTerminal:
		return "terminal"
	case EventError:
		return "error"
	}
	return "unknown"
}

// StreamEvent is one normalized frame sent to the client:
//
//	{"content": "..", "fullText": ".."}
//	{"done": true, "fullText": ".."}
//	{"error": ".."}
type StreamEvent struct {
	Content  string `json:"content,omitempty"`
	FullText string `json:"fullText,omitempty"`
	Done     bool   `json:"done,omitempty"`
	Error    string `json:"error,omitempty"`
}

// DeltaEvent ...
func DeltaEvent(content, fullText string) StreamEvent {
	return StreamEvent{Content: content, FullText: fullText}
}

// DoneEvent ...
func DoneEvent(fullText string) StreamEvent {
	return StreamEvent{Done: true, FullText: fullText}
}

// ErrorEvent ...
func ErrorEvent(msg string) StreamEvent {
	return StreamEvent{Error: msg}
}

// Kind ...
func (e StreamEvent) Kind() EventKind {
	switch {
	case len(e.Error) > 0:
		return EventError
	case e.Done:
		return EventTerminal
	case len(e.Content) > 0 || len(e.FullText) > 0:
		return EventDelta
	}
	return 0
}

// MarshalJSON keeps fullText present on delta and terminal frames even when empty.
func (e StreamEvent) MarshalJSON() ([]byte, error) {
	switch e.Kind() {
	case EventError:
		return json.Marshal(struct {
			Error string `json:"error"`
		}{e.Error})
	case EventTerminal:
		return json.Marshal(struct {
			Done     bool   `json:"done"`
			FullText string `json:"fullText"`
		}{true, e.FullText})
	}
	return json.Marshal(struct {
		Content  string `json:"content"`
		FullText string `json:"fullText"`
	}{e.Content, e.FullText})
}
