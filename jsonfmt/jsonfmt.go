// Package jsonfmt implements JSON decoding and encoding for the
// transcoding engine. Both directions stream: the decoder tokenizes
// incrementally and the encoder needs no length prefixes. Multi-document
// inputs are concatenated top-level values; multi-document output is
// newline-delimited.
package jsonfmt

import (
	"io"

	"github.com/xt-format/go-xt/format"
	"github.com/xt-format/go-xt/stream"
)

// Option configures JSON decoding and encoding.
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
// rejecting them. JSON has no binary type; without this option a binary
// value fails with UnsupportedValueError.
func WithBinaryBase64() Option {
	return func(o *options) { o.binaryBase64 = true }
}

// Entry returns the registry entry for JSON, with opts applied to every
// decoder and encoder it constructs.
func Entry(opts ...Option) *format.Entry {
	return &format.Entry{
		Format:  format.JSON,
		Aliases: []string{"j"},
		Caps: format.Capabilities{
			StreamingDecode: true,
			StreamingEncode: true,
			MultiDocument:   true,
			Strictness:      format.Permissive,
		},
		NewDecoder: func(r io.Reader) format.Decoder { return NewDecoder(r, opts...) },
		NewEncoder: func(w io.Writer) format.Encoder { return NewEncoder(w, opts...) },
	}
}
