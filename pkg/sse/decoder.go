// Package sse reads the `data: <payload>` frame format shared by the upstream
// provider stream and the relay's own event stream.
package sse

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

// Done is the sentinel payload ending a stream
const Done = "[DONE]"

// MaxFrameSize bounds a single buffered frame (1MB)
const MaxFrameSize = 1 << 20

// ErrFrameTooLarge ...
var ErrFrameTooLarge = errors.New("sse: frame too large")

var (
	fieldData  = []byte("data:")
	fieldEvent = []byte("event:")
	fieldID    = []byte("id:")
)

// Frame is one event delimited by a blank line
type Frame struct {
	ID    string
	Event string
	Data  []byte
}

// IsDone reports whether the frame carries the terminal sentinel
func (f Frame) IsDone() bool {
	return string(f.Data) == Done
}

// Decoder splits a byte stream into frames. Bytes of a partial frame are held
// until its blank-line delimiter arrives, so network chunking never matters.
type Decoder struct {
	rd *bufio.Reader
}

// NewDecoder ...
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{rd: bufio.NewReader(r)}
}

// Next returns the next frame that has at least one data line.
// It returns io.EOF when the stream ends; a trailing frame without
// the final blank line is still returned before that.
func (d *Decoder) Next() (Frame, error) {
	var (
		fr    Frame
		lines [][]byte
		size  int
	)
	for {
		line, err := d.readLine(MaxFrameSize - size)
		if err != nil && !errors.Is(err, io.EOF) {
			return Frame{}, err
		}
		eof := err != nil
		line = bytes.TrimRight(line, "\r\n")

		if len(line) == 0 {
			if len(lines) > 0 {
				fr.Data = bytes.Join(lines, []byte("\n"))
				return fr, nil
			}
			if eof {
				return Frame{}, io.EOF
			}
			fr = Frame{}
			continue
		}

		size += len(line)
		if size > MaxFrameSize {
			return Frame{}, ErrFrameTooLarge
		}

		switch {
		case bytes.HasPrefix(line, fieldData):
			lines = append(lines, trimValue(line[len(fieldData):]))
		case bytes.HasPrefix(line, fieldEvent):
			fr.Event = string(trimValue(line[len(fieldEvent):]))
		case bytes.HasPrefix(line, fieldID):
			fr.ID = string(trimValue(line[len(fieldID):]))
		}
		// comments (":...") and retry are ignored

		if eof {
			if len(lines) > 0 {
				fr.Data = bytes.Join(lines, []byte("\n"))
				return fr, nil
			}
			return Frame{}, io.EOF
		}
	}
}

// readLine reads up to the next newline, failing once more than limit bytes
// are pending so that a line without newline never grows past the frame cap.
func (d *Decoder) readLine(limit int) ([]byte, error) {
	var line []byte
	for {
		frag, err := d.rd.ReadSlice('\n')
		// the delimiter itself is not counted
		if len(line)+len(bytes.TrimRight(frag, "\r\n")) > limit {
			return nil, ErrFrameTooLarge
		}
		line = append(line, frag...)
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return line, err
	}
}

// trimValue drops the single optional space after the colon
func trimValue(v []byte) []byte {
	if len(v) > 0 && v[0] == ' ' {
		v = v[1:]
	}
	return append([]byte(nil), v...)
}
