package jsonfmt

import (
	"encoding/base64"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/segmentio/encoding/json"

	"github.com/xt-format/go-xt/format"
	"github.com/xt-format/go-xt/ir"
	"github.com/xt-format/go-xt/stream"
)

// Encoder writes compact JSON from a structural event sequence. Documents
// are newline-delimited, so a multi-document stream encodes to JSON
// lines.
type Encoder struct {
	w            io.Writer
	state        *stream.State
	opts         *options
	lastWasValue bool
}

// NewEncoder creates a streaming JSON encoder writing to w.
func NewEncoder(w io.Writer, opts ...Option) *Encoder {
	return &Encoder{
		w:     w,
		state: stream.NewState(),
		opts:  newOptions(opts),
	}
}

func (e *Encoder) WriteEvent(ev *stream.Event) error {
	switch ev.Type {
	case stream.EventBeginDocument:
		e.lastWasValue = false

	case stream.EventEndDocument:
		if err := e.writeString("\n"); err != nil {
			return err
		}

	case stream.EventKey:
		if err := e.comma(e.state.IsInObject()); err != nil {
			return err
		}
		if err := e.writeKey(ev.Key); err != nil {
			return err
		}
		if err := e.writeString(":"); err != nil {
			return err
		}
		e.lastWasValue = false

	case stream.EventBeginObject, stream.EventBeginArray:
		if err := e.comma(e.state.IsInArray()); err != nil {
			return err
		}
		open := "["
		if ev.Type == stream.EventBeginObject {
			open = "{"
		}
		if err := e.writeString(open); err != nil {
			return err
		}
		e.lastWasValue = false

	case stream.EventEndObject, stream.EventEndArray:
		closer := "]"
		if ev.Type == stream.EventEndObject {
			closer = "}"
		}
		if err := e.writeString(closer); err != nil {
			return err
		}
		e.lastWasValue = true

	default:
		if err := e.comma(e.state.IsInArray()); err != nil {
			return err
		}
		text, err := e.scalar(ev)
		if err != nil {
			return err
		}
		if err := e.writeString(text); err != nil {
			return err
		}
		e.lastWasValue = true
	}
	if err := e.state.ProcessEvent(ev); err != nil {
		return &format.ValueShapeError{Format: format.JSON, Msg: err.Error()}
	}
	return nil
}

func (e *Encoder) Flush() error {
	return nil
}

func (e *Encoder) comma(needed bool) error {
	if e.lastWasValue && needed {
		if err := e.writeString(","); err != nil {
			return err
		}
		e.lastWasValue = false
	}
	return nil
}

func (e *Encoder) scalar(ev *stream.Event) (string, error) {
	switch ev.Type {
	case stream.EventNull:
		return "null", nil
	case stream.EventBool:
		if ev.Bool {
			return "true", nil
		}
		return "false", nil
	case stream.EventInt:
		if ev.Number != "" {
			return ev.Number, nil
		}
		return strconv.FormatInt(ev.Int, 10), nil
	case stream.EventFloat:
		if math.IsNaN(ev.Float) || math.IsInf(ev.Float, 0) {
			return "", &format.NumericRangeError{
				Format: format.JSON,
				Value:  strconv.FormatFloat(ev.Float, 'g', -1, 64),
			}
		}
		s := strconv.FormatFloat(ev.Float, 'g', -1, 64)
		// Keep integral floats lexically floats, or they come back as
		// integers.
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s, nil
	case stream.EventString:
		return quote(ev.String)
	case stream.EventBinary:
		if !e.opts.binaryBase64 {
			return "", &format.UnsupportedValueError{
				Format: format.JSON,
				Type:   ir.BinaryType,
				Msg:    "no binary type; enable base64 re-encoding",
			}
		}
		return quote(base64.StdEncoding.EncodeToString(ev.Bytes))
	}
	return "", &format.ValueShapeError{Format: format.JSON, Msg: "unexpected event " + ev.Type.String()}
}

// writeKey emits an object key. JSON keys must be strings; integer keys
// from binary formats are written as their decimal text, any other key
// shape is rejected.
func (e *Encoder) writeKey(key *ir.Node) error {
	switch key.Type {
	case ir.StringType:
		q, err := quote(key.String)
		if err != nil {
			return err
		}
		return e.writeString(q)
	case ir.IntType:
		q, err := quote(key.NumberText())
		if err != nil {
			return err
		}
		return e.writeString(q)
	default:
		return &format.ValueShapeError{
			Format: format.JSON,
			Msg:    "mapping key of type " + key.Type.String() + " not representable",
		}
	}
}

func quote(s string) (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (e *Encoder) writeString(s string) error {
	if _, err := io.WriteString(e.w, s); err != nil {
		return &format.IOError{Op: "write", Err: err}
	}
	return nil
}
