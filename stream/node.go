package stream

import (
	"errors"
	"io"

	"github.com/xt-format/go-xt/ir"
)

// WriteNode emits the event sequence for one node tree to s, excluding
// document boundaries. The walk keeps an explicit frame stack so that
// nesting depth never translates into call depth.
func WriteNode(s Sink, root *ir.Node) error {
	type frame struct {
		n   *ir.Node
		idx int
	}
	if err := writeValueStart(s, root); err != nil {
		return err
	}
	if root.Type.IsLeaf() {
		return nil
	}
	stack := []frame{{n: root}}
	for len(stack) > 0 {
		cur := &stack[len(stack)-1]
		if cur.idx >= len(cur.n.Values) {
			end := EventEndArray
			if cur.n.Type == ir.ObjectType {
				end = EventEndObject
			}
			if err := s.WriteEvent(&Event{Type: end}); err != nil {
				return err
			}
			stack = stack[:len(stack)-1]
			continue
		}
		if cur.n.Type == ir.ObjectType {
			key := cur.n.Fields[cur.idx]
			if err := s.WriteEvent(&Event{Type: EventKey, Key: key}); err != nil {
				return err
			}
		}
		child := cur.n.Values[cur.idx]
		cur.idx++
		if err := writeValueStart(s, child); err != nil {
			return err
		}
		if !child.Type.IsLeaf() {
			stack = append(stack, frame{n: child})
		}
	}
	return nil
}

// WriteDocument emits one node tree wrapped in document boundary events.
func WriteDocument(s Sink, root *ir.Node) error {
	if err := s.WriteEvent(&Event{Type: EventBeginDocument}); err != nil {
		return err
	}
	if err := WriteNode(s, root); err != nil {
		return err
	}
	return s.WriteEvent(&Event{Type: EventEndDocument})
}

// WriteStream emits a whole document stream.
func WriteStream(s Sink, docs []*ir.Node) error {
	for _, doc := range docs {
		if err := WriteDocument(s, doc); err != nil {
			return err
		}
	}
	return nil
}

func writeValueStart(s Sink, n *ir.Node) error {
	switch n.Type {
	case ir.NullType:
		return s.WriteEvent(&Event{Type: EventNull})
	case ir.BoolType:
		return s.WriteEvent(&Event{Type: EventBool, Bool: n.Bool})
	case ir.IntType:
		if n.Int64 != nil {
			return s.WriteEvent(&Event{Type: EventInt, Int: *n.Int64})
		}
		return s.WriteEvent(&Event{Type: EventInt, Number: n.Number})
	case ir.FloatType:
		return s.WriteEvent(&Event{Type: EventFloat, Float: *n.Float64})
	case ir.StringType:
		return s.WriteEvent(&Event{Type: EventString, String: n.String})
	case ir.BinaryType:
		return s.WriteEvent(&Event{Type: EventBinary, Bytes: n.Bytes})
	case ir.ArrayType:
		return s.WriteEvent(&Event{Type: EventBeginArray})
	case ir.ObjectType:
		return s.WriteEvent(&Event{Type: EventBeginObject})
	}
	return errors.New("unknown node type")
}

// NextDocument materializes the next document from src. It expects a
// BeginDocument event and consumes through the matching EndDocument,
// applying the last-occurrence-wins duplicate key policy while building
// objects. Returns io.EOF when the source is exhausted.
func NextDocument(src Source) (*ir.Node, error) {
	ev, err := src.ReadEvent()
	if err != nil {
		return nil, err
	}
	if ev.Type != EventBeginDocument {
		return nil, errors.New("expected begin document event, got " + ev.Type.String())
	}
	var (
		root       *ir.Node
		stack      []*ir.Node
		pendingKey *ir.Node
	)
	attach := func(n *ir.Node) {
		if len(stack) == 0 {
			root = n
			return
		}
		parent := stack[len(stack)-1]
		if parent.Type == ir.ObjectType {
			parent.SetField(pendingKey, n)
			pendingKey = nil
			return
		}
		parent.Values = append(parent.Values, n)
	}
	for {
		ev, err := src.ReadEvent()
		if err != nil {
			if err == io.EOF {
				return nil, errors.New("event source ended inside document")
			}
			return nil, err
		}
		switch ev.Type {
		case EventEndDocument:
			if len(stack) > 0 {
				return nil, errors.New("end document inside open container")
			}
			return root, nil
		case EventKey:
			pendingKey = ev.Key
		case EventBeginObject:
			n := &ir.Node{Type: ir.ObjectType}
			attach(n)
			stack = append(stack, n)
		case EventBeginArray:
			n := &ir.Node{Type: ir.ArrayType}
			attach(n)
			stack = append(stack, n)
		case EventEndObject, EventEndArray:
			if len(stack) == 0 {
				return nil, errors.New("container end without begin")
			}
			stack = stack[:len(stack)-1]
		case EventBeginDocument:
			return nil, errors.New("begin document inside document")
		default:
			n := ev.Node()
			if n == nil {
				return nil, errors.New("unexpected event " + ev.Type.String())
			}
			attach(n)
		}
	}
}

// Materialize drains src into a fully buffered document stream.
func Materialize(src Source) ([]*ir.Node, error) {
	var docs []*ir.Node
	for {
		doc, err := NextDocument(src)
		if err == io.EOF {
			return docs, nil
		}
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
}

// Copy pumps events from src to dst until the source is exhausted.
// It returns the number of events forwarded.
func Copy(dst Sink, src Source) (int, error) {
	n := 0
	for {
		ev, err := src.ReadEvent()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		if err := dst.WriteEvent(ev); err != nil {
			return n, err
		}
		n++
	}
}
