// Package transcode drives decoding and encoding pipelines between
// registered formats. Strategy selection is capability driven: events
// flow straight from decoder to encoder when both sides can stream, and
// fall back to fully materialized documents otherwise.
package transcode

import (
	"bytes"
	"io"

	"github.com/xt-format/go-xt/debug"
	"github.com/xt-format/go-xt/detect"
	"github.com/xt-format/go-xt/format"
	"github.com/xt-format/go-xt/stream"
)

// Translator converts documents from any number of inputs to a single
// destination writer and format. Inputs may use different source
// formats; their documents are concatenated in input order, as if they
// came from one stream. A destination without multi-document support
// fails on the second document regardless of which input carries it.
//
// A Translator is single use: after any failed Translate call it is
// poisoned and further calls return the same error, since the
// destination may already hold partial output.
type Translator struct {
	reg  *format.Registry
	to   *format.Entry
	cw   *countingWriter
	enc  format.Encoder
	opts *options

	docs int
	err  error // sticky
}

// Option configures a Translator.
type Option func(*options)

type options struct {
	buffered bool
}

func newOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithBuffered forces full buffering even when both sides could stream:
// every document of an input is decoded before any of its output is
// written, trading memory for fail-fast behavior.
func WithBuffered() Option {
	return func(o *options) { o.buffered = true }
}

// NewTranslator binds a destination writer and format. The to name may
// be a canonical format name or an alias.
func NewTranslator(reg *format.Registry, w io.Writer, to string, opts ...Option) (*Translator, error) {
	entry, err := reg.Lookup(to)
	if err != nil {
		return nil, err
	}
	cw := &countingWriter{w: w}
	return &Translator{
		reg:  reg,
		to:   entry,
		cw:   cw,
		enc:  entry.NewEncoder(cw),
		opts: newOptions(opts),
	}, nil
}

// Translate decodes every document of one input and encodes it to the
// destination. An empty from name triggers format detection.
func (t *Translator) Translate(in Input, from string) error {
	if t.err != nil {
		return t.err
	}
	entry, r, err := t.resolve(in, from)
	if err != nil {
		t.err = err
		return err
	}
	dec := entry.NewDecoder(r)
	streaming := entry.Caps.StreamingDecode && t.to.Caps.StreamingEncode && !t.opts.buffered
	if debug.Transcode() {
		debug.Logf("transcode: %s -> %s streaming=%v", entry.Format, t.to.Format, streaming)
	}
	if streaming {
		if _, err := stream.Copy(sink{t}, dec); err != nil {
			return t.fail(err)
		}
	} else {
		docs, err := stream.Materialize(dec)
		if err != nil {
			// Fail-fast: nothing of this input has been written yet.
			t.err = err
			return err
		}
		if !t.to.Caps.MultiDocument && t.docs+len(docs) > 1 {
			t.err = &format.ValueShapeError{Format: t.to.Format,
				Msg: "destination accepts a single document"}
			return t.err
		}
		if err := stream.WriteStream(sink{t}, docs); err != nil {
			return t.fail(err)
		}
	}
	if err := t.enc.Flush(); err != nil {
		return t.fail(err)
	}
	return nil
}

// resolve picks the source entry, detecting the format when none is
// named. Detection reads through a capture so the stream can be
// replayed for the real decode.
func (t *Translator) resolve(in Input, from string) (*format.Entry, io.Reader, error) {
	if from != "" {
		entry, err := t.reg.Lookup(from)
		if err != nil {
			return nil, nil, err
		}
		return entry, in.reader(), nil
	}
	if in.data != nil {
		f, err := detect.Input(func() io.Reader { return bytes.NewReader(in.data) })
		if err != nil {
			return nil, nil, err
		}
		entry, err := t.reg.Lookup(string(f))
		return entry, bytes.NewReader(in.data), err
	}
	cr := newCaptureReader(in.r)
	f, err := detect.Input(cr.rewind)
	if err != nil {
		return nil, nil, err
	}
	entry, err := t.reg.Lookup(string(f))
	return entry, cr.detach(), err
}

func (in Input) reader() io.Reader {
	if in.data != nil {
		return bytes.NewReader(in.data)
	}
	return in.r
}

// fail poisons the translator. A failure once output bytes have been
// flushed means the destination holds truncated data; surface that as a
// PartialWriteError unless the cause already is one.
func (t *Translator) fail(err error) error {
	if t.cw.n > 0 {
		if _, ok := err.(*format.PartialWriteError); !ok {
			err = &format.PartialWriteError{Written: t.cw.n, Err: err}
		}
	}
	t.err = err
	return err
}

// sink forwards events to the encoder, counting documents and enforcing
// the destination's document arity.
type sink struct {
	t *Translator
}

func (s sink) WriteEvent(ev *stream.Event) error {
	t := s.t
	if debug.Events() {
		debug.Logf("event: %s", ev.Type)
	}
	if ev.Type == stream.EventBeginDocument && t.docs >= 1 && !t.to.Caps.MultiDocument {
		return &format.ValueShapeError{Format: t.to.Format,
			Msg: "destination accepts a single document"}
	}
	if err := t.enc.WriteEvent(ev); err != nil {
		return err
	}
	if ev.Type == stream.EventEndDocument {
		t.docs++
	}
	return nil
}

// Documents returns the number of documents written so far.
func (t *Translator) Documents() int {
	return t.docs
}

// countingWriter tracks flushed bytes for partial-write reporting.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
