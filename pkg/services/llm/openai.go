package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/liut/typist/pkg/models/aigc"
)

// known endpoints
const (
	DeepSeekBaseURL = "https://api.deepseek.com"
	DeepSeekModel   = "deepseek-chat"
	OpenAIBaseURL   = "https://api.openai.com/v1"
	OpenAIModel     = openai.GPT3Dot5Turbo

	dftTimeout = time.Second * 60
)

// OpenAIConfig ...
type OpenAIConfig struct {
	Name        string
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
	HTTPClient  *http.Client // optional, for tests
}

// OpenAI talks to any OpenAI-compatible chat completion API
type OpenAI struct {
	cfg OpenAIConfig
	oc  *openai.Client
	hc  *http.Client // without overall timeout, used for streaming
}

var _ Provider = (*OpenAI)(nil)

// NewOpenAI ...
func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	if len(cfg.BaseURL) == 0 {
		cfg.BaseURL = OpenAIBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if len(cfg.Model) == 0 {
		cfg.Model = OpenAIModel
	}
	if len(cfg.Name) == 0 {
		cfg.Name = "openai"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = dftTimeout
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				ResponseHeaderTimeout: cfg.Timeout,
			},
		}
	}

	occ := openai.DefaultConfig(cfg.APIKey)
	occ.BaseURL = cfg.BaseURL
	occ.HTTPClient = &http.Client{
		Timeout:   cfg.Timeout,
		Transport: hc.Transport,
	}

	return &OpenAI{cfg: cfg, oc: openai.NewClientWithConfig(occ), hc: hc}
}

func (p *OpenAI) Name() string { return p.cfg.Name }

// Model ...
func (p *OpenAI) Model() string { return p.cfg.Model }

func (p *OpenAI) request(messages aigc.Messages, stream bool) openai.ChatCompletionRequest {
	ccr := openai.ChatCompletionRequest{
		Model:       p.cfg.Model,
		Temperature: p.cfg.Temperature,
		Stream:      stream,
	}
	for _, m := range messages {
		ccr.Messages = append(ccr.Messages, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}
	return ccr
}

// Stream posts the request with stream=true and hands the body to a FrameParser.
func (p *OpenAI) Stream(ctx context.Context, messages aigc.Messages) (ChunkStream, error) {
	b, err := json.Marshal(p.request(messages, true))
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	logger().Debugw("upstream stream start", "provider", p.cfg.Name, "model", p.cfg.Model, "msgs", len(messages))
	resp, err := p.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request upstream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return nil, upstreamFailure(resp.StatusCode, body)
	}

	return NewFrameParser(resp.Body), nil
}

// Complete is the non-streaming call through go-openai.
func (p *OpenAI) Complete(ctx context.Context, messages aigc.Messages) (string, error) {
	res, err := p.oc.CreateChatCompletion(ctx, p.request(messages, false))
	if err != nil {
		return "", fromOpenAI(err)
	}
	if len(res.Choices) == 0 {
		return "", &UpstreamError{Status: http.StatusBadGateway, Message: "empty choices"}
	}
	return res.Choices[0].Message.Content, nil
}

func upstreamFailure(status int, body []byte) error {
	ue := &UpstreamError{Status: status}
	var er openai.ErrorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Error != nil {
		ue.Message = er.Error.Message
	}
	logger().Infow("upstream fail", "status", status, "body", string(body))
	return ue
}
