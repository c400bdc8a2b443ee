package stream

import (
	"fmt"

	"github.com/xt-format/go-xt/ir"
)

// Event represents a single value-construction step produced by a decoder
// and consumed by an encoder. A decoder's event sequence is lazy, single
// pass, and non-restartable: source reads are destructive.
//
// Keys are carried as materialized nodes rather than nested event
// sequences, since binary formats permit composite mapping keys.
type Event struct {
	Type EventType

	Key    *ir.Node
	String string
	Int    int64
	Number string // decimal fallback when the integer exceeds int64
	Float  float64
	Bool   bool
	Bytes  []byte
}

// Node converts a scalar value event to its node form.
func (e *Event) Node() *ir.Node {
	switch e.Type {
	case EventNull:
		return ir.Null()
	case EventBool:
		return ir.FromBool(e.Bool)
	case EventInt:
		if e.Number != "" {
			return ir.FromNumber(e.Number)
		}
		return ir.FromInt(e.Int)
	case EventFloat:
		return ir.FromFloat(e.Float)
	case EventString:
		return ir.FromString(e.String)
	case EventBinary:
		return ir.FromBytes(e.Bytes)
	}
	return nil
}

// IsValueStart returns true if this event starts a value, as opposed to a
// key, an end marker, or a document boundary.
func (e *Event) IsValueStart() bool {
	switch e.Type {
	case EventBeginObject, EventBeginArray, EventString, EventInt,
		EventFloat, EventBool, EventNull, EventBinary:
		return true
	default:
		return false
	}
}

// EventType represents the type of a structural event.
type EventType int

const (
	EventBeginDocument EventType = iota
	EventEndDocument
	EventBeginObject
	EventEndObject
	EventBeginArray
	EventEndArray
	EventKey
	EventString
	EventInt
	EventFloat
	EventBool
	EventNull
	EventBinary
)

func (t EventType) String() string {
	switch t {
	case EventBeginDocument:
		return "BeginDocument"
	case EventEndDocument:
		return "EndDocument"
	case EventBeginObject:
		return "BeginObject"
	case EventEndObject:
		return "EndObject"
	case EventBeginArray:
		return "BeginArray"
	case EventEndArray:
		return "EndArray"
	case EventKey:
		return "Key"
	case EventString:
		return "String"
	case EventInt:
		return "Int"
	case EventFloat:
		return "Float"
	case EventBool:
		return "Bool"
	case EventNull:
		return "Null"
	case EventBinary:
		return "Binary"
	default:
		return "Unknown"
	}
}

func (t EventType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *EventType) UnmarshalText(d []byte) error {
	k := string(d)
	pt, ok := map[string]EventType{
		"BeginDocument": EventBeginDocument,
		"EndDocument":   EventEndDocument,
		"BeginObject":   EventBeginObject,
		"EndObject":     EventEndObject,
		"BeginArray":    EventBeginArray,
		"EndArray":      EventEndArray,
		"Key":           EventKey,
		"String":        EventString,
		"Int":           EventInt,
		"Float":         EventFloat,
		"Bool":          EventBool,
		"Null":          EventNull,
		"Binary":        EventBinary,
	}[k]
	if ok {
		*t = pt
		return nil
	}
	return fmt.Errorf("unknown type %q", k)
}

// Source produces a lazy, single-pass sequence of structural events.
// ReadEvent returns io.EOF after the final EndDocument.
type Source interface {
	ReadEvent() (*Event, error)
}

// Sink consumes structural events.
type Sink interface {
	WriteEvent(*Event) error
}
