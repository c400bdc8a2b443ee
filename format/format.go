package format

import (
	"io"

	"github.com/xt-format/go-xt/stream"
)

// Format identifies a serialized data format by its canonical name.
type Format string

const (
	JSON    Format = "json"
	YAML    Format = "yaml"
	TOML    Format = "toml"
	Msgpack Format = "msgpack"
)

func (f Format) String() string {
	return string(f)
}

// Strictness classifies how much of the value model a format's grammar
// accepts.
type Strictness int

const (
	// Permissive formats represent any value shape the model allows at
	// the top level.
	Permissive Strictness = iota
	// Strict formats constrain the top-level shape or exclude variants
	// (TOML: object top level, no null) and reject rather than coerce.
	Strict
)

func (s Strictness) String() string {
	switch s {
	case Permissive:
		return "permissive"
	case Strict:
		return "strict"
	default:
		return "<unknown strictness>"
	}
}

// Capabilities declares what a format's decoder and encoder support. The
// pipeline consults these to pick a transcoding strategy.
type Capabilities struct {
	// StreamingDecode: the decoder produces events incrementally without
	// buffering the whole input. Formats needing whole-input resolution
	// (TOML table graphs) decode buffered only.
	StreamingDecode bool
	// StreamingEncode: the encoder emits output incrementally, at worst
	// buffering one document at a time (length-prefixed binary framing
	// and document-level emitters need whole documents, never the whole
	// stream).
	StreamingEncode bool
	// MultiDocument: more than one top-level document per input/output.
	MultiDocument bool
	Strictness    Strictness
}

// Decoder parses one input into a structural event sequence.
// ReadEvent returns io.EOF after the final document.
type Decoder interface {
	stream.Source
}

// Encoder serializes a structural event sequence to its output writer.
// Flush must be called after the final event to complete the output.
type Encoder interface {
	stream.Sink
	Flush() error
}

// Entry ties a format name to its decoder and encoder constructors and
// capability flags. It is the registry's unit of extension.
type Entry struct {
	Format  Format
	Aliases []string
	Caps    Capabilities

	NewDecoder func(r io.Reader) Decoder
	NewEncoder func(w io.Writer) Encoder
}
