package llm

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/sashabaranov/go-openai"

	"github.com/liut/typist/pkg/sse"
)

// FrameParser decodes an OpenAI-compatible `data: {...}` stream into chunks.
type FrameParser struct {
	dec  *sse.Decoder
	body io.Closer
	done bool

	dropped int
}

var _ ChunkStream = (*FrameParser)(nil)

// NewFrameParser ...
func NewFrameParser(body io.ReadCloser) *FrameParser {
	return &FrameParser{dec: sse.NewDecoder(body), body: body}
}

// Recv returns the next chunk, io.EOF on [DONE] or end of body.
// Malformed frames are logged and skipped.
func (p *FrameParser) Recv() (Chunk, error) {
	if p.done {
		return Chunk{}, io.EOF
	}
	for {
		fr, err := p.dec.Next()
		if errors.Is(err, io.EOF) {
			p.done = true
			return Chunk{}, io.EOF
		}
		if err != nil {
			return Chunk{}, err
		}
		if fr.IsDone() {
			p.done = true
			return Chunk{}, io.EOF
		}

		var ccsr openai.ChatCompletionStreamResponse
		if err = json.Unmarshal(fr.Data, &ccsr); err != nil {
			p.dropped++
			logger().Infow("drop frame", "err", &ParseFrameError{Data: fr.Data, Err: err})
			continue
		}
		var ck Chunk
		if len(ccsr.Choices) > 0 {
			ck.Content = ccsr.Choices[0].Delta.Content
			ck.FinishReason = string(ccsr.Choices[0].FinishReason)
		}
		return ck, nil
	}
}

// Dropped returns count of malformed frames skipped
func (p *FrameParser) Dropped() int {
	return p.dropped
}

// Close releases the upstream body
func (p *FrameParser) Close() error {
	p.done = true
	return p.body.Close()
}
