package tomlfmt

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/xt-format/go-xt/format"
	"github.com/xt-format/go-xt/ir"
	"github.com/xt-format/go-xt/stream"
)

// Encoder serializes a structural event sequence as a TOML document.
// TOML output is written by hand rather than through a marshaling
// library: field order must follow the event sequence, and the tree is
// already in serialized-value form.
//
// The document is buffered and written on EndDocument. A second
// document fails: TOML has no document separator.
type Encoder struct {
	w            io.Writer
	state        *stream.State
	binaryBase64 bool

	root       *ir.Node
	stack      []*ir.Node
	pendingKey *ir.Node
	docs       int
}

// NewEncoder creates a TOML encoder writing to w.
func NewEncoder(w io.Writer, opts ...Option) *Encoder {
	o := newOptions(opts)
	return &Encoder{
		w:            w,
		state:        stream.NewState(),
		binaryBase64: o.binaryBase64,
	}
}

func (e *Encoder) WriteEvent(ev *stream.Event) error {
	if err := e.state.ProcessEvent(ev); err != nil {
		return &format.ValueShapeError{Format: format.TOML, Msg: err.Error()}
	}
	switch ev.Type {
	case stream.EventBeginDocument:
		if e.docs > 0 {
			return &format.ValueShapeError{Format: format.TOML,
				Msg: "cannot encode more than one document"}
		}
		e.root = nil
	case stream.EventEndDocument:
		e.docs++
		root := e.root
		e.root = nil
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
	if root == nil || root.Type != ir.ObjectType {
		t := "null"
		if root != nil {
			t = root.Type.String()
		}
		return &format.ValueShapeError{Format: format.TOML,
			Msg: fmt.Sprintf("top-level value must be an object, got %s", t)}
	}
	bw := bufio.NewWriter(e.w)
	if err := e.writeTable(bw, nil, root, true); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return &format.IOError{Op: "write", Err: err}
	}
	return nil
}

// writeTable emits one table body: plain key/value pairs first in field
// order, then sub-tables and arrays of tables, again in field order. The
// split is forced by the grammar; a table header ends its parent's
// key/value section.
func (e *Encoder) writeTable(w *bufio.Writer, prefix []string, obj *ir.Node, top bool) error {
	type deferred struct {
		key     string
		val     *ir.Node
		isArray bool
	}
	var tables []deferred
	for i := range obj.Fields {
		key, err := tableKey(obj.Fields[i])
		if err != nil {
			return err
		}
		val := obj.Values[i]
		switch {
		case val.Type == ir.ObjectType:
			tables = append(tables, deferred{key, val, false})
		case isTableArray(val):
			tables = append(tables, deferred{key, val, true})
		default:
			w.WriteString(quoteKey(key))
			w.WriteString(" = ")
			if err := e.writeValue(w, val); err != nil {
				return err
			}
			w.WriteByte('\n')
		}
	}
	for _, t := range tables {
		path := append(append([]string{}, prefix...), t.key)
		if t.isArray {
			for _, elem := range t.val.Values {
				w.WriteString("\n[[")
				w.WriteString(joinKeys(path))
				w.WriteString("]]\n")
				if err := e.writeTable(w, path, elem, false); err != nil {
					return err
				}
			}
			continue
		}
		w.WriteString("\n[")
		w.WriteString(joinKeys(path))
		w.WriteString("]\n")
		if err := e.writeTable(w, path, t.val, false); err != nil {
			return err
		}
	}
	return nil
}

// isTableArray reports whether an array value is emitted as [[key]]
// tables rather than an inline array. Empty and mixed arrays stay
// inline.
func isTableArray(n *ir.Node) bool {
	if n.Type != ir.ArrayType || len(n.Values) == 0 {
		return false
	}
	for _, v := range n.Values {
		if v.Type != ir.ObjectType {
			return false
		}
	}
	return true
}

// writeValue emits an inline value: a scalar, an inline array, or an
// inline table (for objects nested inside arrays).
func (e *Encoder) writeValue(w *bufio.Writer, n *ir.Node) error {
	switch n.Type {
	case ir.NullType:
		return &format.UnsupportedValueError{Format: format.TOML, Type: n.Type,
			Msg: "no null value exists"}
	case ir.BoolType:
		w.WriteString(strconv.FormatBool(n.Bool))
	case ir.IntType:
		i, ok := n.AsInt64()
		if !ok {
			return &format.NumericRangeError{Format: format.TOML, Value: n.NumberText()}
		}
		w.WriteString(strconv.FormatInt(i, 10))
	case ir.FloatType:
		w.WriteString(formatFloat(*n.Float64))
	case ir.StringType:
		w.WriteString(quoteString(n.String))
	case ir.BinaryType:
		if !e.binaryBase64 {
			return &format.UnsupportedValueError{Format: format.TOML, Type: n.Type,
				Msg: "no binary type exists (base64 re-encoding is disabled)"}
		}
		w.WriteString(quoteString(base64.StdEncoding.EncodeToString(n.Bytes)))
	case ir.ArrayType:
		w.WriteByte('[')
		for i, v := range n.Values {
			if i > 0 {
				w.WriteString(", ")
			}
			if err := e.writeValue(w, v); err != nil {
				return err
			}
		}
		w.WriteByte(']')
	case ir.ObjectType:
		w.WriteByte('{')
		for i := range n.Fields {
			if i > 0 {
				w.WriteString(", ")
			}
			key, err := tableKey(n.Fields[i])
			if err != nil {
				return err
			}
			w.WriteString(quoteKey(key))
			w.WriteString(" = ")
			if err := e.writeValue(w, n.Values[i]); err != nil {
				return err
			}
		}
		w.WriteByte('}')
	}
	return nil
}

func tableKey(k *ir.Node) (string, error) {
	if k.Type != ir.StringType {
		return "", &format.ValueShapeError{Format: format.TOML,
			Msg: fmt.Sprintf("keys must be strings, got %s", k.Type)}
	}
	return k.String, nil
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	// The grammar distinguishes floats from integers lexically.
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func joinKeys(path []string) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = quoteKey(p)
	}
	return strings.Join(parts, ".")
}

func quoteKey(s string) string {
	if s == "" {
		return `""`
	}
	for _, r := range s {
		if !isBareKeyRune(r) {
			return quoteString(s)
		}
	}
	return s
}

func isBareKeyRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '-', r == '_':
		return true
	}
	return false
}

// quoteString emits a basic string using only escapes the grammar
// defines.
func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\b':
			b.WriteString(`\b`)
		case '\t':
			b.WriteString(`\t`)
		case '\n':
			b.WriteString(`\n`)
		case '\f':
			b.WriteString(`\f`)
		case '\r':
			b.WriteString(`\r`)
		default:
			if r < 0x20 || r == 0x7F {
				fmt.Fprintf(&b, `\u%04X`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}
