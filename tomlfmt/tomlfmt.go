// Package tomlfmt implements TOML decoding and encoding for the
// transcoding engine. Neither direction streams: decoding needs the full
// table graph before any event can be emitted, and encoding buffers the
// single document it is allowed to write. TOML is the strictest format
// in the set: the top level must be an object, keys must be strings, and
// there is no null.
package tomlfmt

import (
	"io"

	"github.com/xt-format/go-xt/format"
	"github.com/xt-format/go-xt/stream"
)

// Option configures TOML decoding and encoding.
type Option func(*options)

type options struct {
	maxDepth     int
	binaryBase64 bool
}

func newOptions(opts []Option) *options {
	o := &options{maxDepth: stream.DefaultMaxDepth}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithMaxDepth overrides the decoder's container nesting limit.
func WithMaxDepth(n int) Option {
	return func(o *options) { o.maxDepth = n }
}

// WithBinaryBase64 re-encodes binary values as base64 strings instead of
// rejecting them.
func WithBinaryBase64() Option {
	return func(o *options) { o.binaryBase64 = true }
}

// Entry returns the registry entry for TOML.
func Entry(opts ...Option) *format.Entry {
	return &format.Entry{
		Format:  format.TOML,
		Aliases: []string{"t"},
		Caps: format.Capabilities{
			StreamingDecode: false,
			StreamingEncode: false,
			MultiDocument:   false,
			Strictness:      format.Strict,
		},
		NewDecoder: func(r io.Reader) format.Decoder { return NewDecoder(r, opts...) },
		NewEncoder: func(w io.Writer) format.Encoder { return NewEncoder(w, opts...) },
	}
}
