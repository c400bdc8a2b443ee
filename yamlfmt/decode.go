package yamlfmt

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/xt-format/go-xt/format"
	"github.com/xt-format/go-xt/ir"
	"github.com/xt-format/go-xt/stream"
)

// Decoder produces structural events from a YAML stream. Documents are
// decoded one at a time, so memory is bounded by the largest document
// rather than the whole input. Anchors and aliases resolve to the value
// they reference; reference cycles are detected with an explicit visited
// set.
type Decoder struct {
	dec      *yaml.Decoder
	buf      stream.Buffer
	state    *stream.State
	maxDepth int
	doc      int
	err      error // sticky
}

// NewDecoder creates a YAML decoder reading from r.
func NewDecoder(r io.Reader, opts ...Option) *Decoder {
	o := newOptions(opts)
	return &Decoder{
		dec:      yaml.NewDecoder(newUTF8Reader(r)),
		state:    stream.NewState(stream.WithMaxDepth(o.maxDepth)),
		maxDepth: o.maxDepth,
	}
}

func (d *Decoder) ReadEvent() (*stream.Event, error) {
	if d.err != nil {
		return nil, d.err
	}
	if d.buf.Len() == 0 {
		if err := d.nextDocument(); err != nil {
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
		d.err = format.NewDecodeError(format.YAML, format.SyntaxError, d.doc, -1, serr)
		return nil, d.err
	}
	if ev.Type == stream.EventEndDocument {
		d.doc++
	}
	return ev, nil
}

// nextDocument parses one document and queues its full event sequence.
func (d *Decoder) nextDocument() error {
	var yn yaml.Node
	if err := d.dec.Decode(&yn); err != nil {
		if err == io.EOF {
			return io.EOF
		}
		return d.wrap(err)
	}
	node, err := d.convert(&yn, map[*yaml.Node]bool{}, 0)
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

// convert maps a yaml.Node to the value model. onPath is the visited set
// for alias resolution: an alias whose target is still being converted is
// a reference cycle.
func (d *Decoder) convert(yn *yaml.Node, onPath map[*yaml.Node]bool, depth int) (*ir.Node, error) {
	if depth >= d.maxDepth {
		return nil, format.NewDecodeError(format.YAML, format.DepthLimitExceeded, d.doc, -1, stream.ErrDepthLimit)
	}
	switch yn.Kind {
	case yaml.DocumentNode:
		if len(yn.Content) == 0 {
			return ir.Null(), nil
		}
		return d.convert(yn.Content[0], onPath, depth)

	case yaml.AliasNode:
		if yn.Alias == nil {
			return nil, d.syntax(yn, errors.New("unresolved alias"))
		}
		if onPath[yn.Alias] {
			return nil, format.NewDecodeError(format.YAML, format.CyclicReference, d.doc, -1,
				fmt.Errorf("alias *%s refers to its own ancestor", yn.Value))
		}
		return d.convert(yn.Alias, onPath, depth)

	case yaml.ScalarNode:
		return d.scalar(yn)

	case yaml.SequenceNode:
		onPath[yn] = true
		defer delete(onPath, yn)
		res := &ir.Node{Type: ir.ArrayType}
		for _, c := range yn.Content {
			v, err := d.convert(c, onPath, depth+1)
			if err != nil {
				return nil, err
			}
			res.Values = append(res.Values, v)
		}
		return res, nil

	case yaml.MappingNode:
		onPath[yn] = true
		defer delete(onPath, yn)
		res := &ir.Node{Type: ir.ObjectType}
		for i := 0; i+1 < len(yn.Content); i += 2 {
			k, err := d.convert(yn.Content[i], onPath, depth+1)
			if err != nil {
				return nil, err
			}
			v, err := d.convert(yn.Content[i+1], onPath, depth+1)
			if err != nil {
				return nil, err
			}
			res.SetField(k, v)
		}
		return res, nil
	}
	return nil, d.syntax(yn, fmt.Errorf("unexpected node kind %d", yn.Kind))
}

func (d *Decoder) scalar(yn *yaml.Node) (*ir.Node, error) {
	switch yn.Tag {
	case "!!null":
		return ir.Null(), nil
	case "!!bool":
		// The resolver may tag any of the 1.1 spellings.
		switch strings.ToLower(yn.Value) {
		case "true", "yes", "on", "y":
			return ir.FromBool(true), nil
		case "false", "no", "off", "n":
			return ir.FromBool(false), nil
		}
		return nil, d.syntax(yn, fmt.Errorf("invalid boolean %q", yn.Value))
	case "!!int":
		// Base 0 covers the 0x/0o/0b spellings the resolver accepts.
		if i, err := strconv.ParseInt(yn.Value, 0, 64); err == nil {
			return ir.FromInt(i), nil
		}
		if !strings.ContainsAny(yn.Value, "xXoObB_") {
			return ir.FromNumber(yn.Value), nil
		}
		return nil, d.syntax(yn, fmt.Errorf("invalid integer %q", yn.Value))
	case "!!float":
		switch strings.TrimPrefix(yn.Value, "+") {
		case ".inf", ".Inf", ".INF":
			return ir.FromFloat(math.Inf(1)), nil
		case "-.inf", "-.Inf", "-.INF":
			return ir.FromFloat(math.Inf(-1)), nil
		case ".nan", ".NaN", ".NAN":
			return ir.FromFloat(math.NaN()), nil
		}
		f, err := strconv.ParseFloat(yn.Value, 64)
		if err != nil {
			return nil, d.syntax(yn, fmt.Errorf("invalid float %q", yn.Value))
		}
		return ir.FromFloat(f), nil
	case "!!binary":
		raw := strings.Map(dropSpace, yn.Value)
		b, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return nil, d.syntax(yn, fmt.Errorf("invalid base64 in !!binary: %v", err))
		}
		return ir.FromBytes(b), nil
	default:
		// !!str and unrecognized application tags carry their text.
		return ir.FromString(yn.Value), nil
	}
}

func dropSpace(r rune) rune {
	switch r {
	case ' ', '\t', '\n', '\r':
		return -1
	}
	return r
}

func (d *Decoder) syntax(yn *yaml.Node, err error) error {
	return format.NewDecodeError(format.YAML, format.SyntaxError, d.doc, -1,
		fmt.Errorf("line %d: %w", yn.Line, err))
}

// wrap classifies a yaml library error. The library detects
// self-containing anchors itself; surface those as cyclic references.
func (d *Decoder) wrap(err error) error {
	kind := format.SyntaxError
	switch {
	case strings.Contains(err.Error(), "contains itself"):
		kind = format.CyclicReference
	case errors.Is(err, io.ErrUnexpectedEOF):
		kind = format.UnexpectedEOF
	}
	return format.NewDecodeError(format.YAML, kind, d.doc, -1, err)
}
