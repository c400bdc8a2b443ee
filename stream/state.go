package stream

import (
	"errors"
	"fmt"
)

// DefaultMaxDepth bounds container nesting for every decoder and encoder
// unless overridden with WithMaxDepth.
const DefaultMaxDepth = 1024

// ErrDepthLimit is returned by State when nesting exceeds the configured
// limit. Decoders surface it as a depth-limit decode error.
var ErrDepthLimit = errors.New("nesting depth limit exceeded")

// State validates an event sequence and tracks structure. It enforces the
// event grammar (keys only inside objects, every key followed by a value,
// balanced begin/end pairs, one top-level value per document) and the
// nesting depth limit.
//
// Both decoders and encoders drive a State so that malformed event
// sequences are caught on whichever side produced them.
type State struct {
	stack    []frame
	maxDepth int
	inDoc    bool
	docDone  bool // top-level value of the open document seen
	docs     int
}

type frame struct {
	isObject bool
	n        int
	hasKey   bool
}

// Option configures a State or an event materializer.
type Option func(*options)

type options struct {
	maxDepth int
}

// WithMaxDepth overrides the container nesting limit.
func WithMaxDepth(n int) Option {
	return func(o *options) { o.maxDepth = n }
}

func newOptions(opts []Option) *options {
	o := &options{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// NewState creates a State with the configured depth limit.
func NewState(opts ...Option) *State {
	o := newOptions(opts)
	return &State{maxDepth: o.maxDepth}
}

func (s *State) pop() {
	s.stack = s.stack[:len(s.stack)-1]
}

func (s *State) current() *frame {
	return &s.stack[len(s.stack)-1]
}

// ProcessEvent validates event against the current state and updates it.
func (s *State) ProcessEvent(event *Event) error {
	switch event.Type {
	case EventBeginDocument:
		if s.inDoc {
			return errors.New("begin document inside document")
		}
		s.inDoc = true
		s.docDone = false

	case EventEndDocument:
		if !s.inDoc {
			return errors.New("end document outside document")
		}
		if len(s.stack) > 0 {
			return errors.New("end document inside open container")
		}
		s.inDoc = false
		s.docs++

	case EventBeginObject, EventBeginArray:
		if err := s.beginValue(); err != nil {
			return err
		}
		if len(s.stack) >= s.maxDepth {
			return ErrDepthLimit
		}
		s.stack = append(s.stack, frame{isObject: event.Type == EventBeginObject})

	case EventEndObject:
		if len(s.stack) == 0 || !s.current().isObject {
			return errors.New("end object without matching begin")
		}
		if s.current().hasKey {
			return errors.New("key without value")
		}
		s.pop()
		s.endValue()

	case EventEndArray:
		if len(s.stack) == 0 || s.current().isObject {
			return errors.New("end array without matching begin")
		}
		s.pop()
		s.endValue()

	case EventKey:
		if len(s.stack) == 0 || !s.current().isObject {
			return errors.New("key outside object")
		}
		cur := s.current()
		if cur.hasKey {
			return errors.New("key after key")
		}
		if event.Key == nil {
			return errors.New("key event without key node")
		}
		cur.hasKey = true

	case EventString, EventInt, EventFloat, EventBool, EventNull, EventBinary:
		if err := s.beginValue(); err != nil {
			return err
		}
		s.endValue()

	default:
		return fmt.Errorf("unknown event type %d", event.Type)
	}
	return nil
}

// beginValue checks that a value may start here: inside a document, as an
// object value following a key, as an array element, or as the single
// top-level value.
func (s *State) beginValue() error {
	if !s.inDoc {
		return errors.New("value outside document")
	}
	if len(s.stack) == 0 {
		if s.docDone {
			return errors.New("second top-level value in document")
		}
		return nil
	}
	cur := s.current()
	if cur.isObject && !cur.hasKey {
		return errors.New("object value without key")
	}
	return nil
}

func (s *State) endValue() {
	if len(s.stack) == 0 {
		s.docDone = true
		return
	}
	cur := s.current()
	cur.n++
	cur.hasKey = false
}

// Depth returns the current container nesting depth (0 = top level).
func (s *State) Depth() int {
	return len(s.stack)
}

// InDocument returns true between BeginDocument and EndDocument.
func (s *State) InDocument() bool {
	return s.inDoc
}

// Documents returns the number of completed documents.
func (s *State) Documents() int {
	return s.docs
}

// IsInObject returns true if currently inside an object.
func (s *State) IsInObject() bool {
	return len(s.stack) > 0 && s.current().isObject
}

// IsInArray returns true if currently inside an array.
func (s *State) IsInArray() bool {
	return len(s.stack) > 0 && !s.current().isObject
}

// HasKey returns true if an object key is pending its value.
func (s *State) HasKey() bool {
	return len(s.stack) > 0 && s.current().hasKey
}

// Len returns the number of completed entries in the current container.
func (s *State) Len() int {
	if len(s.stack) == 0 {
		return 0
	}
	return s.current().n
}
