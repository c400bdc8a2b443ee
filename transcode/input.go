package transcode

import (
	"bytes"
	"io"
)

// Input is one source of documents for a Translator: either a byte slice
// or a reader. Slice inputs can be re-read freely; reader inputs are
// single pass and are snooped through a capture reader when detection
// needs to look ahead.
type Input struct {
	data []byte
	r    io.Reader
}

// SliceInput wraps an in-memory input.
func SliceInput(data []byte) Input {
	return Input{data: data}
}

// ReaderInput wraps a streaming input.
func ReaderInput(r io.Reader) Input {
	return Input{r: r}
}

// captureReader records everything read from the underlying reader so
// the stream can be replayed after detection has consumed part of it.
type captureReader struct {
	r   io.Reader
	buf bytes.Buffer
}

func newCaptureReader(r io.Reader) *captureReader {
	return &captureReader{r: r}
}

func (c *captureReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.buf.Write(p[:n])
	}
	return n, err
}

// rewind returns a reader replaying the bytes captured so far, then
// continuing from the underlying stream. Reads past the captured prefix
// still go through the capture, so rewind can be called repeatedly.
func (c *captureReader) rewind() io.Reader {
	return io.MultiReader(bytes.NewReader(c.buf.Bytes()), c)
}

// detach returns the final replay reader, bypassing capture: once
// detection is done there is no reason to keep a copy of the stream.
func (c *captureReader) detach() io.Reader {
	return io.MultiReader(bytes.NewReader(c.buf.Bytes()), c.r)
}
