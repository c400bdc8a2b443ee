package msgpackfmt

import (
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/xt-format/go-xt/format"
	"github.com/xt-format/go-xt/ir"
	"github.com/xt-format/go-xt/stream"
)

// Encoder writes MessagePack from a structural event sequence. Composite
// frames carry element counts, so each document is materialized before
// any of its bytes are written; memory is bounded by document size, not
// stream size. Compact int and float encodings are always enabled: every
// value gets its minimal-width type-length marker.
type Encoder struct {
	enc        *msgpack.Encoder
	state      *stream.State
	root       *ir.Node
	stack      []*ir.Node
	pendingKey *ir.Node
}

// NewEncoder creates a MessagePack encoder writing to w.
func NewEncoder(w io.Writer, opts ...Option) *Encoder {
	enc := msgpack.NewEncoder(w)
	enc.UseCompactInts(true)
	enc.UseCompactFloats(true)
	return &Encoder{
		enc:   enc,
		state: stream.NewState(),
	}
}

func (e *Encoder) WriteEvent(ev *stream.Event) error {
	if err := e.state.ProcessEvent(ev); err != nil {
		return &format.ValueShapeError{Format: format.Msgpack, Msg: err.Error()}
	}
	switch ev.Type {
	case stream.EventBeginDocument:
		e.root = nil
	case stream.EventEndDocument:
		if e.root == nil {
			return &format.ValueShapeError{Format: format.Msgpack, Msg: "empty document"}
		}
		root := e.root
		e.root = nil
		return e.encodeNode(root)
	case stream.EventKey:
		e.pendingKey = ev.Key
	case stream.EventBeginObject:
		e.attach(&ir.Node{Type: ir.ObjectType}, true)
	case stream.EventBeginArray:
		e.attach(&ir.Node{Type: ir.ArrayType}, true)
	case stream.EventEndObject, stream.EventEndArray:
		e.stack = e.stack[:len(e.stack)-1]
	default:
		e.attach(ev.Node(), false)
	}
	return nil
}

func (e *Encoder) Flush() error {
	return nil
}

func (e *Encoder) attach(n *ir.Node, push bool) {
	if len(e.stack) == 0 {
		e.root = n
	} else {
		parent := e.stack[len(e.stack)-1]
		if parent.Type == ir.ObjectType {
			parent.SetField(e.pendingKey, n)
			e.pendingKey = nil
		} else {
			parent.Values = append(parent.Values, n)
		}
	}
	if push {
		e.stack = append(e.stack, n)
	}
}

func (e *Encoder) encodeNode(n *ir.Node) error {
	switch n.Type {
	case ir.NullType:
		return e.enc.EncodeNil()
	case ir.BoolType:
		return e.enc.EncodeBool(n.Bool)
	case ir.IntType:
		return e.encodeInt(n)
	case ir.FloatType:
		return e.enc.EncodeFloat64(*n.Float64)
	case ir.StringType:
		return e.enc.EncodeString(n.String)
	case ir.BinaryType:
		return e.enc.EncodeBytes(n.Bytes)
	case ir.ArrayType:
		if err := e.enc.EncodeArrayLen(len(n.Values)); err != nil {
			return err
		}
		for _, v := range n.Values {
			if err := e.encodeNode(v); err != nil {
				return err
			}
		}
		return nil
	case ir.ObjectType:
		if err := e.enc.EncodeMapLen(len(n.Fields)); err != nil {
			return err
		}
		for i := range n.Fields {
			if err := e.encodeNode(n.Fields[i]); err != nil {
				return err
			}
			if err := e.encodeNode(n.Values[i]); err != nil {
				return err
			}
		}
		return nil
	}
	return &format.UnsupportedValueError{Format: format.Msgpack, Type: n.Type}
}

// encodeInt frames an integer in its minimal width. Integers beyond both
// int64 and uint64 range have no MessagePack representation.
func (e *Encoder) encodeInt(n *ir.Node) error {
	if v, ok := n.AsInt64(); ok {
		return e.enc.EncodeInt(v)
	}
	if v, ok := n.AsUint64(); ok {
		return e.enc.EncodeUint(v)
	}
	return &format.NumericRangeError{Format: format.Msgpack, Value: n.NumberText()}
}
