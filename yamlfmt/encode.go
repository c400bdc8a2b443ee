package yamlfmt

import (
	"encoding/base64"
	"io"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/xt-format/go-xt/format"
	"github.com/xt-format/go-xt/ir"
	"github.com/xt-format/go-xt/stream"
)

// Encoder writes a YAML stream from a structural event sequence. Every
// document is preceded by a `---` marker, so output is concatenable and
// unambiguous regardless of document count. Documents are materialized
// one at a time.
type Encoder struct {
	w          io.Writer
	state      *stream.State
	root       *ir.Node
	stack      []*ir.Node
	pendingKey *ir.Node
}

// NewEncoder creates a YAML encoder writing to w.
func NewEncoder(w io.Writer, opts ...Option) *Encoder {
	return &Encoder{
		w:     w,
		state: stream.NewState(),
	}
}

func (e *Encoder) WriteEvent(ev *stream.Event) error {
	if err := e.state.ProcessEvent(ev); err != nil {
		return &format.ValueShapeError{Format: format.YAML, Msg: err.Error()}
	}
	switch ev.Type {
	case stream.EventBeginDocument:
		e.root = nil
	case stream.EventEndDocument:
		root := e.root
		e.root = nil
		if root == nil {
			root = ir.Null()
		}
		return e.encodeDocument(root)
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

func (e *Encoder) encodeDocument(root *ir.Node) error {
	if _, err := io.WriteString(e.w, "---\n"); err != nil {
		return &format.IOError{Op: "write", Err: err}
	}
	yn, err := yamlNode(root)
	if err != nil {
		return err
	}
	// A fresh encoder per document: the library only separates documents
	// it writes itself, and the marker is already out.
	enc := yaml.NewEncoder(e.w)
	enc.SetIndent(2)
	if err := enc.Encode(yn); err != nil {
		return &format.IOError{Op: "write", Err: err}
	}
	if err := enc.Close(); err != nil {
		return &format.IOError{Op: "write", Err: err}
	}
	return nil
}

func yamlNode(n *ir.Node) (*yaml.Node, error) {
	switch n.Type {
	case ir.NullType:
		return scalarNode("!!null", "null"), nil
	case ir.BoolType:
		return scalarNode("!!bool", strconv.FormatBool(n.Bool)), nil
	case ir.IntType:
		return scalarNode("!!int", n.NumberText()), nil
	case ir.FloatType:
		return floatNode(*n.Float64), nil
	case ir.StringType:
		return scalarNode("!!str", n.String), nil
	case ir.BinaryType:
		return scalarNode("!!binary", base64.StdEncoding.EncodeToString(n.Bytes)), nil
	case ir.ArrayType:
		res := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, v := range n.Values {
			c, err := yamlNode(v)
			if err != nil {
				return nil, err
			}
			res.Content = append(res.Content, c)
		}
		return res, nil
	case ir.ObjectType:
		res := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for i := range n.Fields {
			k, err := yamlNode(n.Fields[i])
			if err != nil {
				return nil, err
			}
			v, err := yamlNode(n.Values[i])
			if err != nil {
				return nil, err
			}
			res.Content = append(res.Content, k, v)
		}
		return res, nil
	}
	return nil, &format.UnsupportedValueError{Format: format.YAML, Type: n.Type}
}

func scalarNode(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

func floatNode(f float64) *yaml.Node {
	switch {
	case math.IsNaN(f):
		return scalarNode("!!float", ".nan")
	case math.IsInf(f, 1):
		return scalarNode("!!float", ".inf")
	case math.IsInf(f, -1):
		return scalarNode("!!float", "-.inf")
	}
	return scalarNode("!!float", strconv.FormatFloat(f, 'g', -1, 64))
}
