package jsonfmt

import (
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/xt-format/go-xt/format"
	"github.com/xt-format/go-xt/ir"
	"github.com/xt-format/go-xt/stream"
)

// Decoder produces structural events from a JSON input, driven by the
// stdlib token scanner: it reads incrementally and stops at each
// top-level value boundary. Multiple whitespace-separated top-level
// values decode as consecutive documents.
type Decoder struct {
	dec     *json.Decoder
	state   *stream.State
	pending []*stream.Event
	depth   int
	inDoc   bool
	doc     int
	err     error // sticky
}

// NewDecoder creates a streaming JSON decoder reading from r.
func NewDecoder(r io.Reader, opts ...Option) *Decoder {
	o := newOptions(opts)
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return &Decoder{
		dec:   dec,
		state: stream.NewState(stream.WithMaxDepth(o.maxDepth)),
	}
}

// ReadEvent returns the next structural event, or io.EOF after the final
// document.
func (d *Decoder) ReadEvent() (*stream.Event, error) {
	if d.err != nil {
		return nil, d.err
	}
	ev, err := d.readEvent()
	if err != nil {
		d.err = err
	}
	return ev, err
}

func (d *Decoder) readEvent() (*stream.Event, error) {
	if len(d.pending) > 0 {
		ev := d.pending[0]
		d.pending = d.pending[1:]
		return d.emit(ev)
	}

	tok, err := d.dec.Token()
	if err != nil {
		return nil, d.tokenErr(err)
	}

	if !d.inDoc {
		d.inDoc = true
		d.queueToken(tok)
		return d.emit(&stream.Event{Type: stream.EventBeginDocument})
	}
	ev, err := d.tokenEvent(tok)
	if err != nil {
		return nil, err
	}
	return d.emit(ev)
}

// emit validates the event, tracks depth, and queues the EndDocument
// marker when a top-level value completes.
func (d *Decoder) emit(ev *stream.Event) (*stream.Event, error) {
	if err := d.state.ProcessEvent(ev); err != nil {
		return nil, format.NewDecodeError(format.JSON, format.SyntaxError, d.doc, -1, err)
	}
	switch ev.Type {
	case stream.EventBeginObject, stream.EventBeginArray:
		d.depth++
	case stream.EventEndObject, stream.EventEndArray:
		d.depth--
	case stream.EventEndDocument:
		d.inDoc = false
		d.doc++
		return ev, nil
	}
	if d.depth == 0 && ev.Type != stream.EventBeginDocument && ev.Type != stream.EventKey {
		d.pending = append(d.pending, &stream.Event{Type: stream.EventEndDocument})
	}
	return ev, nil
}

func (d *Decoder) queueToken(tok json.Token) {
	ev, err := d.tokenEvent(tok)
	if err != nil {
		// Deferred to the next ReadEvent via the sticky error.
		d.err = err
		return
	}
	d.pending = append(d.pending, ev)
}

func (d *Decoder) tokenEvent(tok json.Token) (*stream.Event, error) {
	// Inside an object with no key pending, a string token is the next
	// member's key rather than a value.
	if d.state.IsInObject() && !d.state.HasKey() {
		if s, ok := tok.(string); ok {
			return &stream.Event{Type: stream.EventKey, Key: ir.FromString(s)}, nil
		}
	}
	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			return &stream.Event{Type: stream.EventBeginObject}, nil
		case '}':
			return &stream.Event{Type: stream.EventEndObject}, nil
		case '[':
			return &stream.Event{Type: stream.EventBeginArray}, nil
		case ']':
			return &stream.Event{Type: stream.EventEndArray}, nil
		}
	case nil:
		return &stream.Event{Type: stream.EventNull}, nil
	case bool:
		return &stream.Event{Type: stream.EventBool, Bool: v}, nil
	case string:
		return &stream.Event{Type: stream.EventString, String: v}, nil
	case json.Number:
		return numberEvent(string(v))
	}
	return nil, format.NewDecodeError(format.JSON, format.SyntaxError, d.doc, -1,
		errors.New("unexpected token"))
}

// numberEvent keeps integers exact: decimal text without a fraction or
// exponent stays an integer even beyond int64 range.
func numberEvent(text string) (*stream.Event, error) {
	if !strings.ContainsAny(text, ".eE") {
		n := ir.FromNumber(text)
		if n.Int64 != nil {
			return &stream.Event{Type: stream.EventInt, Int: *n.Int64}, nil
		}
		return &stream.Event{Type: stream.EventInt, Number: n.Number}, nil
	}
	f, err := json.Number(text).Float64()
	if err != nil {
		return nil, format.NewDecodeError(format.JSON, format.SyntaxError, -1, -1, err)
	}
	return &stream.Event{Type: stream.EventFloat, Float: f}, nil
}

func (d *Decoder) tokenErr(err error) error {
	if err == io.EOF {
		if d.inDoc {
			return format.NewDecodeError(format.JSON, format.UnexpectedEOF, d.doc, -1, io.ErrUnexpectedEOF)
		}
		return io.EOF
	}
	kind := format.SyntaxError
	if errors.Is(err, io.ErrUnexpectedEOF) {
		kind = format.UnexpectedEOF
	}
	return format.NewDecodeError(format.JSON, kind, d.doc, -1, err)
}
