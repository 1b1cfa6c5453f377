package sse

import (
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, r io.Reader) []Frame {
	t.Helper()
	dec := NewDecoder(r)
	var out []Frame
	for {
		fr, err := dec.Next()
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		out = append(out, fr)
	}
}

func TestDecoderFrames(t *testing.T) {
	src := "data: {\"a\":1}\n\n" +
		": keep-alive\n\n" +
		"id: 7\nevent: msg\ndata: one\ndata: two\n\n" +
		"data:nospace\r\n\r\n" +
		"data: [DONE]\n\n"

	frames := readAll(t, strings.NewReader(src))
	require.Len(t, frames, 4)
	assert.Equal(t, `{"a":1}`, string(frames[0].Data))
	assert.Equal(t, "7", frames[1].ID)
	assert.Equal(t, "msg", frames[1].Event)
	assert.Equal(t, "one\ntwo", string(frames[1].Data))
	assert.Equal(t, "nospace", string(frames[2].Data))
	assert.True(t, frames[3].IsDone())
	assert.False(t, frames[0].IsDone())
}

func TestDecoderChunkBoundaries(t *testing.T) {
	src := "data: {\"content\":\"你好\"}\n\ndata: {\"content\":\"世界\"}\n\ndata: [DONE]\n\n"

	whole := readAll(t, strings.NewReader(src))
	oneByte := readAll(t, iotest.OneByteReader(strings.NewReader(src)))
	half := readAll(t, iotest.HalfReader(strings.NewReader(src)))

	require.Len(t, whole, 3)
	assert.Equal(t, whole, oneByte)
	assert.Equal(t, whole, half)
}

func TestDecoderTrailingFrame(t *testing.T) {
	frames := readAll(t, strings.NewReader("data: a\n\ndata: tail"))
	require.Len(t, frames, 2)
	assert.Equal(t, "tail", string(frames[1].Data))

	assert.Empty(t, readAll(t, strings.NewReader("")))
	assert.Empty(t, readAll(t, strings.NewReader("\n\n\n")))
}

func TestDecoderReadError(t *testing.T) {
	r := io.MultiReader(strings.NewReader("data: a\n\ndata: b"), iotest.ErrReader(io.ErrUnexpectedEOF))
	dec := NewDecoder(r)
	fr, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, "a", string(fr.Data))

	_, err = dec.Next()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestDecoderFrameTooLarge(t *testing.T) {
	big := "data: " + strings.Repeat("x", MaxFrameSize+1) + "\n\n"
	_, err := NewDecoder(strings.NewReader(big)).Next()
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}

// endless never sends a newline
type endless struct{ n int }

func (e *endless) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 'x'
	}
	e.n += len(p)
	return len(p), nil
}

func TestDecoderLineWithoutNewlineBounded(t *testing.T) {
	src := &endless{}
	_, err := NewDecoder(io.MultiReader(strings.NewReader("data: "), src)).Next()
	assert.ErrorIs(t, err, ErrFrameTooLarge)
	// reading stops shortly after the cap
	assert.LessOrEqual(t, src.n, MaxFrameSize+8192)
}

func TestDecoderFrameAtCap(t *testing.T) {
	payload := strings.Repeat("y", MaxFrameSize-len("data: "))
	frames := readAll(t, strings.NewReader("data: "+payload+"\r\n\r\n"))
	require.Len(t, frames, 1)
	assert.Equal(t, payload, string(frames[0].Data))
}
