package tomlfmt

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/xt-format/go-xt/format"
	"github.com/xt-format/go-xt/ir"
	"github.com/xt-format/go-xt/stream"
)

// Decoder produces structural events from a TOML document. TOML is not
// streamable: dotted keys and table headers mutate tables defined
// arbitrarily far back, so the whole input is parsed before the first
// event. An input is exactly one document.
type Decoder struct {
	r        io.Reader
	buf      stream.Buffer
	state    *stream.State
	maxDepth int
	started  bool
	err      error // sticky
}

// NewDecoder creates a TOML decoder reading from r.
func NewDecoder(r io.Reader, opts ...Option) *Decoder {
	o := newOptions(opts)
	return &Decoder{
		r:        r,
		state:    stream.NewState(stream.WithMaxDepth(o.maxDepth)),
		maxDepth: o.maxDepth,
	}
}

func (d *Decoder) ReadEvent() (*stream.Event, error) {
	if d.err != nil {
		return nil, d.err
	}
	if !d.started {
		d.started = true
		if err := d.parse(); err != nil {
			d.err = err
			return nil, err
		}
	}
	ev, err := d.buf.ReadEvent()
	if err != nil {
		d.err = err
		return nil, err
	}
	if serr := d.state.ProcessEvent(ev); serr != nil {
		d.err = format.NewDecodeError(format.TOML, format.SyntaxError, 0, -1, serr)
		return nil, d.err
	}
	return ev, nil
}

func (d *Decoder) parse() error {
	var raw map[string]any
	md, err := toml.NewDecoder(d.r).Decode(&raw)
	if err != nil {
		return d.wrap(err)
	}
	node, err := d.convert(raw, newKeyOrder(md), nil, 0)
	if err != nil {
		return err
	}
	d.buf.WriteEvent(&stream.Event{Type: stream.EventBeginDocument})
	if err := stream.WriteNode(&d.buf, node); err != nil {
		return err
	}
	d.buf.WriteEvent(&stream.Event{Type: stream.EventEndDocument})
	return nil
}

// keyOrder records, per table path, the order keys first appear in the
// document. The parsed map loses this; MetaData.Keys preserves it.
type keyOrder map[string][]string

func newKeyOrder(md toml.MetaData) keyOrder {
	order := keyOrder{}
	for _, key := range md.Keys() {
		parent := strings.Join(key[:len(key)-1], "\x00")
		leaf := key[len(key)-1]
		seen := false
		for _, k := range order[parent] {
			if k == leaf {
				seen = true
				break
			}
		}
		if !seen {
			order[parent] = append(order[parent], leaf)
		}
	}
	return order
}

func (d *Decoder) convert(v any, order keyOrder, path []string, depth int) (*ir.Node, error) {
	if depth >= d.maxDepth {
		return nil, format.NewDecodeError(format.TOML, format.DepthLimitExceeded, 0, -1, stream.ErrDepthLimit)
	}
	switch v := v.(type) {
	case map[string]any:
		res := &ir.Node{Type: ir.ObjectType}
		for _, key := range order[strings.Join(path, "\x00")] {
			val, ok := v[key]
			if !ok {
				continue
			}
			c, err := d.convert(val, order, append(path, key), depth+1)
			if err != nil {
				return nil, err
			}
			res.SetField(ir.FromString(key), c)
		}
		return res, nil
	case []map[string]any:
		// Array of tables. Element tables share one recorded key order;
		// each element's keys are a subset in document order.
		res := &ir.Node{Type: ir.ArrayType}
		for _, elem := range v {
			c, err := d.convert(elem, order, path, depth+1)
			if err != nil {
				return nil, err
			}
			res.Values = append(res.Values, c)
		}
		return res, nil
	case []any:
		res := &ir.Node{Type: ir.ArrayType}
		for _, elem := range v {
			c, err := d.convert(elem, order, path, depth+1)
			if err != nil {
				return nil, err
			}
			res.Values = append(res.Values, c)
		}
		return res, nil
	case string:
		return ir.FromString(v), nil
	case bool:
		return ir.FromBool(v), nil
	case int64:
		return ir.FromInt(v), nil
	case float64:
		return ir.FromFloat(v), nil
	case time.Time:
		return ir.FromString(v.Format(time.RFC3339Nano)), nil
	case toml.Primitive:
		return nil, format.NewDecodeError(format.TOML, format.SyntaxError, 0, -1,
			errors.New("undecoded primitive value"))
	}
	return nil, format.NewDecodeError(format.TOML, format.SyntaxError, 0, -1,
		fmt.Errorf("unexpected decoded type %T", v))
}

func (d *Decoder) wrap(err error) error {
	kind := format.SyntaxError
	var perr toml.ParseError
	offset := int64(-1)
	if errors.As(err, &perr) {
		offset = int64(perr.Position.Start)
		if strings.Contains(perr.Message, "unexpected EOF") ||
			strings.Contains(perr.Message, "unexpected end") {
			kind = format.UnexpectedEOF
		}
	} else if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		kind = format.UnexpectedEOF
	}
	return format.NewDecodeError(format.TOML, kind, 0, offset, err)
}
