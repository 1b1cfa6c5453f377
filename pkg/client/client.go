// Package client talks to the chat relay and turns its event stream into
// display state for a terminal front end.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/liut/typist/pkg/models/aigc"
	"github.com/liut/typist/pkg/sse"
)

// errors
var (
	ErrTransport = errors.New("connection failed")
	ErrRejected  = errors.New("request rejected")
)

// Option ...
type Option func(*Client)

// WithHTTPClient ...
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// WithUserID ...
func WithUserID(uid string) Option {
	return func(c *Client) {
		if len(uid) > 0 {
			c.uid = uid
		}
	}
}

// WithStream sets whether replies are requested as an event stream.
func WithStream(on bool) Option {
	return func(c *Client) { c.stream = on }
}

// Client of the relay server
type Client struct {
	base   string
	uid    string
	stream bool
	hc     *http.Client
}

// New ...
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base:   strings.TrimRight(baseURL, "/"),
		uid:    "user-" + uuid.NewString(),
		stream: true,
		hc:     http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UserID ...
func (c *Client) UserID() string { return c.uid }

type chatParam struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
	Stream  bool   `json:"stream"`
}

type failure struct {
	Status  int    `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		var fr failure
		_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&fr)
		msg := fr.Message
		if len(msg) == 0 {
			msg = fr.Error
		}
		if len(msg) == 0 {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %d %s", ErrRejected, resp.StatusCode, msg)
	}
	return resp, nil
}

// Send posts one message and returns the reply as a stream of events.
// The caller must Close the stream.
func (c *Client) Send(ctx context.Context, text string) (*Stream, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/chat", &chatParam{Message: text, UserID: c.uid, Stream: c.stream})
	if err != nil {
		return nil, err
	}
	ct := resp.Header.Get("Content-Type")
	logger().Debugw("chat sent", "uid", c.uid, "contentType", ct)
	if strings.HasPrefix(ct, "text/event-stream") {
		return newEventStream(resp.Body), nil
	}

	defer resp.Body.Close()
	var res struct {
		Response  string    `json:"response"`
		Timestamp time.Time `json:"timestamp"`
	}
	if err = json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return newStaticStream(aigc.DoneEvent(res.Response)), nil
}

// History returns the stored turns of the current user.
func (c *Client) History(ctx context.Context) (aigc.Messages, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/history/"+c.uid, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var res struct {
		History aigc.Messages `json:"history"`
	}
	if err = json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, err
	}
	return res.History, nil
}

// Clear drops the stored turns of the current user.
func (c *Client) Clear(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodDelete, "/api/history/"+c.uid, nil)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

// Health checks the server
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/api/health", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	var res struct {
		Status string `json:"status"`
	}
	if err = json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return err
	}
	if res.Status != "ok" {
		return fmt.Errorf("%w: status %q", ErrRejected, res.Status)
	}
	return nil
}

// Welcome fetches the greeting shown on start.
func (c *Client) Welcome(ctx context.Context) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/welcome", nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	var res struct {
		Message string `json:"message"`
	}
	if err = json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", err
	}
	return res.Message, nil
}

// Stream of reply events. Next is called by one reader at a time, Close may be
// called from another goroutine to unblock it.
type Stream struct {
	body    io.Closer
	dec     *sse.Decoder
	pending []aigc.StreamEvent
	done    atomic.Bool
}

func newEventStream(body io.ReadCloser) *Stream {
	return &Stream{body: body, dec: sse.NewDecoder(body)}
}

func newStaticStream(evs ...aigc.StreamEvent) *Stream {
	return &Stream{pending: evs}
}

// Next reads until the next event. It returns io.EOF after a terminal or error
// event, and an ErrTransport if the body breaks before one.
func (s *Stream) Next() (aigc.StreamEvent, error) {
	if s.done.Load() {
		return aigc.StreamEvent{}, io.EOF
	}
	if len(s.pending) > 0 {
		ev := s.pending[0]
		s.pending = s.pending[1:]
		if ev.Kind() != aigc.EventDelta {
			s.done.Store(true)
		}
		return ev, nil
	}
	if s.dec == nil {
		s.done.Store(true)
		return aigc.StreamEvent{}, io.EOF
	}
	for {
		f, err := s.dec.Next()
		if err == io.EOF {
			s.done.Store(true)
			return aigc.StreamEvent{}, fmt.Errorf("%w: %w", ErrTransport, io.ErrUnexpectedEOF)
		}
		if err != nil {
			s.done.Store(true)
			return aigc.StreamEvent{}, fmt.Errorf("%w: %w", ErrTransport, err)
		}
		if f.IsDone() {
			s.done.Store(true)
			return aigc.StreamEvent{}, io.EOF
		}
		var ev aigc.StreamEvent
		if err = json.Unmarshal(f.Data, &ev); err != nil {
			logger().Infow("skip bad event", "data", string(f.Data), "err", err)
			continue
		}
		if ev.Kind() == 0 {
			continue
		}
		if ev.Kind() != aigc.EventDelta {
			s.done.Store(true)
		}
		return ev, nil
	}
}

// Close ...
func (s *Stream) Close() error {
	s.done.Store(true)
	if s.body != nil {
		return s.body.Close()
	}
	return nil
}
