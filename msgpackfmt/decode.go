package msgpackfmt

import (
	"errors"
	"io"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"

	"github.com/xt-format/go-xt/format"
	"github.com/xt-format/go-xt/ir"
	"github.com/xt-format/go-xt/stream"
)

// Decoder produces structural events from MessagePack input. Composite
// frames are tracked on an explicit stack of remaining element counts, so
// a declared length that outruns the input surfaces as UnexpectedEOF
// rather than a malformed tree. Concatenated top-level values decode as
// consecutive documents.
type Decoder struct {
	dec      *msgpack.Decoder
	state    *stream.State
	frames   []frame
	maxDepth int
	inDoc    bool
	topDone  bool
	doc      int
	err      error // sticky
}

type frame struct {
	isMap     bool
	remaining int
	hasKey    bool
}

// NewDecoder creates a streaming MessagePack decoder reading from r.
func NewDecoder(r io.Reader, opts ...Option) *Decoder {
	o := newOptions(opts)
	return &Decoder{
		dec:      msgpack.NewDecoder(r),
		state:    stream.NewState(stream.WithMaxDepth(o.maxDepth)),
		maxDepth: o.maxDepth,
	}
}

func (d *Decoder) ReadEvent() (*stream.Event, error) {
	if d.err != nil {
		return nil, d.err
	}
	ev, err := d.readEvent()
	if err != nil {
		d.err = err
		return nil, err
	}
	if serr := d.state.ProcessEvent(ev); serr != nil {
		d.err = format.NewDecodeError(format.Msgpack, format.SyntaxError, d.doc, -1, serr)
		return nil, d.err
	}
	return ev, nil
}

func (d *Decoder) readEvent() (*stream.Event, error) {
	if !d.inDoc {
		if _, err := d.dec.PeekCode(); err != nil {
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, d.wrap(err)
		}
		d.inDoc = true
		return &stream.Event{Type: stream.EventBeginDocument}, nil
	}

	if len(d.frames) == 0 && d.topDone {
		d.inDoc = false
		d.topDone = false
		d.doc++
		return &stream.Event{Type: stream.EventEndDocument}, nil
	}

	if len(d.frames) > 0 {
		cur := &d.frames[len(d.frames)-1]
		if cur.remaining == 0 {
			end := stream.EventEndArray
			if cur.isMap {
				end = stream.EventEndObject
			}
			d.frames = d.frames[:len(d.frames)-1]
			d.valueDone()
			return &stream.Event{Type: end}, nil
		}
		if cur.isMap && !cur.hasKey {
			key, err := d.decodeKey(len(d.frames))
			if err != nil {
				return nil, err
			}
			cur.hasKey = true
			return &stream.Event{Type: stream.EventKey, Key: key}, nil
		}
		cur.remaining--
		cur.hasKey = false
	}

	return d.valueEvent()
}

// valueEvent decodes the start of the next value: a complete scalar, or a
// composite's type-length frame.
func (d *Decoder) valueEvent() (*stream.Event, error) {
	c, err := d.dec.PeekCode()
	if err != nil {
		return nil, d.wrap(err)
	}
	switch {
	case c == msgpcode.Nil:
		if err := d.dec.DecodeNil(); err != nil {
			return nil, d.wrap(err)
		}
		d.valueDone()
		return &stream.Event{Type: stream.EventNull}, nil

	case c == msgpcode.True, c == msgpcode.False:
		v, err := d.dec.DecodeBool()
		if err != nil {
			return nil, d.wrap(err)
		}
		d.valueDone()
		return &stream.Event{Type: stream.EventBool, Bool: v}, nil

	case msgpcode.IsFixedNum(c),
		c == msgpcode.Int8, c == msgpcode.Int16, c == msgpcode.Int32, c == msgpcode.Int64:
		v, err := d.dec.DecodeInt64()
		if err != nil {
			return nil, d.wrap(err)
		}
		d.valueDone()
		return &stream.Event{Type: stream.EventInt, Int: v}, nil

	case c == msgpcode.Uint8, c == msgpcode.Uint16, c == msgpcode.Uint32, c == msgpcode.Uint64:
		v, err := d.dec.DecodeUint64()
		if err != nil {
			return nil, d.wrap(err)
		}
		d.valueDone()
		return uintEvent(v), nil

	case c == msgpcode.Float, c == msgpcode.Double:
		v, err := d.dec.DecodeFloat64()
		if err != nil {
			return nil, d.wrap(err)
		}
		d.valueDone()
		return &stream.Event{Type: stream.EventFloat, Float: v}, nil

	case msgpcode.IsFixedString(c), msgpcode.IsString(c):
		v, err := d.dec.DecodeString()
		if err != nil {
			return nil, d.wrap(err)
		}
		d.valueDone()
		return &stream.Event{Type: stream.EventString, String: v}, nil

	case msgpcode.IsBin(c):
		v, err := d.dec.DecodeBytes()
		if err != nil {
			return nil, d.wrap(err)
		}
		d.valueDone()
		return &stream.Event{Type: stream.EventBinary, Bytes: v}, nil

	case msgpcode.IsFixedMap(c), c == msgpcode.Map16, c == msgpcode.Map32:
		n, err := d.dec.DecodeMapLen()
		if err != nil {
			return nil, d.wrap(err)
		}
		d.frames = append(d.frames, frame{isMap: true, remaining: n})
		return &stream.Event{Type: stream.EventBeginObject}, nil

	case msgpcode.IsFixedArray(c), c == msgpcode.Array16, c == msgpcode.Array32:
		n, err := d.dec.DecodeArrayLen()
		if err != nil {
			return nil, d.wrap(err)
		}
		d.frames = append(d.frames, frame{remaining: n})
		return &stream.Event{Type: stream.EventBeginArray}, nil

	case msgpcode.IsExt(c):
		return nil, format.NewDecodeError(format.Msgpack, format.SyntaxError, d.doc, -1,
			errors.New("extension type not representable"))
	}
	return nil, format.NewDecodeError(format.Msgpack, format.SyntaxError, d.doc, -1,
		errors.New("unknown type marker"))
}

func (d *Decoder) valueDone() {
	if len(d.frames) == 0 {
		d.topDone = true
	}
}

func uintEvent(v uint64) *stream.Event {
	n := ir.FromUint(v)
	if n.Int64 != nil {
		return &stream.Event{Type: stream.EventInt, Int: *n.Int64}
	}
	return &stream.Event{Type: stream.EventInt, Number: n.Number}
}

// decodeKey materializes a complete mapping key. MessagePack permits keys
// of any type, including composites; depth counts against the shared
// nesting limit.
func (d *Decoder) decodeKey(depth int) (*ir.Node, error) {
	if depth >= d.maxDepth {
		return nil, format.NewDecodeError(format.Msgpack, format.DepthLimitExceeded, d.doc, -1, stream.ErrDepthLimit)
	}
	c, err := d.dec.PeekCode()
	if err != nil {
		return nil, d.wrap(err)
	}
	switch {
	case c == msgpcode.Nil:
		return ir.Null(), d.wrapNil(d.dec.DecodeNil())
	case c == msgpcode.True, c == msgpcode.False:
		v, err := d.dec.DecodeBool()
		if err != nil {
			return nil, d.wrap(err)
		}
		return ir.FromBool(v), nil
	case msgpcode.IsFixedNum(c),
		c == msgpcode.Int8, c == msgpcode.Int16, c == msgpcode.Int32, c == msgpcode.Int64:
		v, err := d.dec.DecodeInt64()
		if err != nil {
			return nil, d.wrap(err)
		}
		return ir.FromInt(v), nil
	case c == msgpcode.Uint8, c == msgpcode.Uint16, c == msgpcode.Uint32, c == msgpcode.Uint64:
		v, err := d.dec.DecodeUint64()
		if err != nil {
			return nil, d.wrap(err)
		}
		return ir.FromUint(v), nil
	case c == msgpcode.Float, c == msgpcode.Double:
		v, err := d.dec.DecodeFloat64()
		if err != nil {
			return nil, d.wrap(err)
		}
		return ir.FromFloat(v), nil
	case msgpcode.IsFixedString(c), msgpcode.IsString(c):
		v, err := d.dec.DecodeString()
		if err != nil {
			return nil, d.wrap(err)
		}
		return ir.FromString(v), nil
	case msgpcode.IsBin(c):
		v, err := d.dec.DecodeBytes()
		if err != nil {
			return nil, d.wrap(err)
		}
		return ir.FromBytes(v), nil
	case msgpcode.IsFixedArray(c), c == msgpcode.Array16, c == msgpcode.Array32:
		n, err := d.dec.DecodeArrayLen()
		if err != nil {
			return nil, d.wrap(err)
		}
		res := &ir.Node{Type: ir.ArrayType}
		for i := 0; i < n; i++ {
			elem, err := d.decodeKey(depth + 1)
			if err != nil {
				return nil, err
			}
			res.Values = append(res.Values, elem)
		}
		return res, nil
	case msgpcode.IsFixedMap(c), c == msgpcode.Map16, c == msgpcode.Map32:
		n, err := d.dec.DecodeMapLen()
		if err != nil {
			return nil, d.wrap(err)
		}
		res := &ir.Node{Type: ir.ObjectType}
		for i := 0; i < n; i++ {
			k, err := d.decodeKey(depth + 1)
			if err != nil {
				return nil, err
			}
			v, err := d.decodeKey(depth + 1)
			if err != nil {
				return nil, err
			}
			res.SetField(k, v)
		}
		return res, nil
	case msgpcode.IsExt(c):
		return nil, format.NewDecodeError(format.Msgpack, format.SyntaxError, d.doc, -1,
			errors.New("extension type not representable"))
	}
	return nil, format.NewDecodeError(format.Msgpack, format.SyntaxError, d.doc, -1,
		errors.New("unknown type marker"))
}

func (d *Decoder) wrapNil(err error) error {
	if err == nil {
		return nil
	}
	return d.wrap(err)
}

// wrap classifies a library or reader error. End-of-input inside a
// document means a type-length frame declared more content than the
// source holds.
func (d *Decoder) wrap(err error) error {
	kind := format.SyntaxError
	if err == io.EOF || errors.Is(err, io.ErrUnexpectedEOF) {
		kind = format.UnexpectedEOF
		err = io.ErrUnexpectedEOF
	}
	return format.NewDecodeError(format.Msgpack, kind, d.doc, -1, err)
}
