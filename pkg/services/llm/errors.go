package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

// errors
var (
	ErrUpstreamAuth        = errors.New("upstream: unauthorized")
	ErrUpstreamRateLimited = errors.New("upstream: rate limited")
	ErrUpstreamOther       = errors.New("upstream: call failed")
)

// messages shown to the user
const (
	MsgInvalidCredentials = "invalid credentials, please check the API key"
	MsgRateLimited        = "rate limited, please retry later"
	MsgCallFailed         = "upstream call failed"
)

// UpstreamError is a failed provider call with its HTTP status
type UpstreamError struct {
	Status  int
	Message string // message from provider, may be empty
	Err     error
}

func (e *UpstreamError) Error() string {
	if len(e.Message) > 0 {
		return fmt.Sprintf("upstream status %d: %s", e.Status, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("upstream status %d: %s", e.Status, e.Err)
	}
	return fmt.Sprintf("upstream status %d", e.Status)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Is matches the sentinel for the status class
func (e *UpstreamError) Is(target error) bool {
	switch e.Status {
	case http.StatusUnauthorized:
		return target == ErrUpstreamAuth
	case http.StatusTooManyRequests:
		return target == ErrUpstreamRateLimited
	}
	return target == ErrUpstreamOther
}

// ParseFrameError is a frame with an undecodable payload, it never aborts a stream.
type ParseFrameError struct {
	Data []byte
	Err  error
}

func (e *ParseFrameError) Error() string {
	return fmt.Sprintf("parse frame %q: %s", e.Data, e.Err)
}

func (e *ParseFrameError) Unwrap() error { return e.Err }

// fromOpenAI converts errors of go-openai into UpstreamError
func fromOpenAI(err error) error {
	var ae *openai.APIError
	if errors.As(err, &ae) {
		return &UpstreamError{Status: ae.HTTPStatusCode, Message: ae.Message, Err: err}
	}
	var re *openai.RequestError
	if errors.As(err, &re) {
		return &UpstreamError{Status: re.HTTPStatusCode, Err: err}
	}
	return err
}

// Classify turns any upstream failure into a readable message. It never fails.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrUpstreamAuth):
		return MsgInvalidCredentials
	case errors.Is(err, ErrUpstreamRateLimited):
		return MsgRateLimited
	case errors.Is(err, context.DeadlineExceeded):
		return MsgCallFailed + ": timeout"
	}
	var ue *UpstreamError
	if errors.As(err, &ue) && len(ue.Message) > 0 {
		return ue.Message
	}
	return MsgCallFailed + ": " + err.Error()
}
