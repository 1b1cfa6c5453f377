package llm

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chunkFrame(content string) string {
	return `data: {"id":"c1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":"` + content + `"}}]}` + "\n\n"
}

func collect(t *testing.T, p *FrameParser) []string {
	t.Helper()
	var out []string
	for {
		ck, err := p.Recv()
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		out = append(out, ck.Content)
	}
}

func TestFrameParserMalformedFrame(t *testing.T) {
	src := chunkFrame("Hello") + "data: {not json\n\n" + chunkFrame(" world") + "data: [DONE]\n\n"
	p := NewFrameParser(io.NopCloser(strings.NewReader(src)))

	assert.Equal(t, []string{"Hello", " world"}, collect(t, p))
	assert.Equal(t, 1, p.Dropped())

	_, err := p.Recv()
	assert.ErrorIs(t, err, io.EOF)
}

func TestFrameParserStopsAtDone(t *testing.T) {
	src := chunkFrame("a") + "data: [DONE]\n\n" + chunkFrame("after")
	p := NewFrameParser(io.NopCloser(strings.NewReader(src)))
	assert.Equal(t, []string{"a"}, collect(t, p))
}

func TestFrameParserEOFWithoutSentinel(t *testing.T) {
	src := chunkFrame("a") + chunkFrame("b")
	p := NewFrameParser(io.NopCloser(iotest.OneByteReader(strings.NewReader(src))))
	assert.Equal(t, []string{"a", "b"}, collect(t, p))
}

func TestFrameParserRoleOnlyChunk(t *testing.T) {
	src := `data: {"choices":[{"index":0,"delta":{"role":"assistant"}}]}` + "\n\n" +
		`data: {"choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}` + "\n\n"
	p := NewFrameParser(io.NopCloser(strings.NewReader(src)))

	ck, err := p.Recv()
	require.NoError(t, err)
	assert.Empty(t, ck.Content)

	ck, err = p.Recv()
	require.NoError(t, err)
	assert.Equal(t, "stop", ck.FinishReason)
}

func TestFrameParserTransportError(t *testing.T) {
	r := io.MultiReader(strings.NewReader(chunkFrame("a")), iotest.ErrReader(io.ErrUnexpectedEOF))
	p := NewFrameParser(io.NopCloser(r))

	ck, err := p.Recv()
	require.NoError(t, err)
	assert.Equal(t, "a", ck.Content)

	_, err = p.Recv()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

type closeCounter struct {
	io.Reader
	n int
}

func (c *closeCounter) Close() error { c.n++; return nil }

func TestFrameParserClose(t *testing.T) {
	body := &closeCounter{Reader: strings.NewReader(chunkFrame("a"))}
	p := NewFrameParser(body)
	require.NoError(t, p.Close())
	assert.Equal(t, 1, body.n)
	_, err := p.Recv()
	assert.ErrorIs(t, err, io.EOF)
}
