package llm

import (
	"context"
	"io"

	"github.com/liut/typist/pkg/models/aigc"
)

// Chunk is one parsed content delta of the upstream stream
type Chunk struct {
	Content      string
	FinishReason string
}

// ChunkStream yields chunks in arrival order. Recv returns io.EOF once the
// terminal signal ([DONE] or end of body) is reached.
type ChunkStream interface {
	Recv() (Chunk, error)
	io.Closer
}

// Provider is a chat-completion backend
type Provider interface {
	Name() string
	// Stream opens an incremental completion over messages
	Stream(ctx context.Context, messages aigc.Messages) (ChunkStream, error)
	// Complete waits for the whole answer
	Complete(ctx context.Context, messages aigc.Messages) (string, error)
}
