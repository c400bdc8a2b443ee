package format

import (
	"errors"
	"fmt"

	"github.com/xt-format/go-xt/ir"
	"github.com/xt-format/go-xt/stream"
)

// ErrBadFormat reports an unrecognized format name.
var ErrBadFormat = errors.New("bad format")

// DecodeKind classifies decode failures.
type DecodeKind int

const (
	// SyntaxError: the input violates the source format's grammar.
	SyntaxError DecodeKind = iota
	// UnexpectedEOF: the input ended mid-document, e.g. a binary frame
	// whose declared length exceeds the remaining bytes.
	UnexpectedEOF
	// CyclicReference: alias resolution found a reference cycle.
	CyclicReference
	// DepthLimitExceeded: container nesting exceeded the configured
	// limit.
	DepthLimitExceeded
)

func (k DecodeKind) String() string {
	switch k {
	case SyntaxError:
		return "syntax error"
	case UnexpectedEOF:
		return "unexpected end of input"
	case CyclicReference:
		return "cyclic reference"
	case DepthLimitExceeded:
		return "depth limit exceeded"
	default:
		return "<unknown decode error>"
	}
}

// DecodeError is any failure to parse input into the value model. All
// decode errors are terminal for the transcode that produced them.
type DecodeError struct {
	Format Format
	Kind   DecodeKind
	Doc    int   // zero-based document index within the input
	Offset int64 // byte offset where known, -1 otherwise
	Err    error
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("%s: %s in document %d", e.Format, e.Kind, e.Doc)
	if e.Offset >= 0 {
		msg += fmt.Sprintf(" at byte %d", e.Offset)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// NewDecodeError wraps err, classifying depth-limit errors from the
// stream state automatically.
func NewDecodeError(f Format, kind DecodeKind, doc int, offset int64, err error) *DecodeError {
	if errors.Is(err, stream.ErrDepthLimit) {
		kind = DepthLimitExceeded
	}
	return &DecodeError{Format: f, Kind: kind, Doc: doc, Offset: offset, Err: err}
}

// ValueShapeError reports a value whose structural shape the destination
// schema does not allow, such as a non-object top level in TOML or a
// second document for a single-document destination. The value is never
// coerced or wrapped.
type ValueShapeError struct {
	Format Format
	Msg    string
}

func (e *ValueShapeError) Error() string {
	return fmt.Sprintf("%s: unsupported value shape: %s", e.Format, e.Msg)
}

// UnsupportedValueError reports a value variant the destination cannot
// represent and for which no fallback policy is in effect, such as binary
// data into a text-only format with base64 re-encoding disabled.
type UnsupportedValueError struct {
	Format Format
	Type   ir.Type
	Msg    string
}

func (e *UnsupportedValueError) Error() string {
	msg := fmt.Sprintf("%s: unsupported value of type %s", e.Format, e.Type)
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	return msg
}

// NumericRangeError reports a number that exceeds the destination's
// representable range or has no spelling in its grammar (NaN in JSON).
// Values are never silently truncated.
type NumericRangeError struct {
	Format Format
	Value  string
}

func (e *NumericRangeError) Error() string {
	return fmt.Sprintf("%s: number %s outside representable range", e.Format, e.Value)
}

// PartialWriteError reports a streaming-mode failure discovered after
// output bytes were already flushed. The destination may hold truncated
// or structurally invalid data and must not be treated as usable.
type PartialWriteError struct {
	Written int64 // bytes flushed before the failure
	Err     error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("failed after %d bytes were written: %v", e.Written, e.Err)
}

func (e *PartialWriteError) Unwrap() error {
	return e.Err
}

// IOError wraps a failure of the underlying byte source or sink.
type IOError struct {
	Op  string // "read" or "write"
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
